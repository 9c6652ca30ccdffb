package generation

import (
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/easyvideo/testutil/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, backend *mocks.Backend, opts ...Option) *Client {
	t.Helper()
	return newTestClientWithConfig(t, Config{BaseURL: backend.URL()}, opts...)
}

func newTestClientWithConfig(t *testing.T, cfg Config, opts ...Option) *Client {
	t.Helper()
	c, err := New(cfg, zaptest.NewLogger(t), opts...)
	require.NoError(t, err)
	return c
}

// recorderStub 记录客户端上报的指标
type recorderStub struct {
	mu       sync.Mutex
	requests []string
	uploads  int64
	open     int
	events   map[string]int
}

func newRecorderStub() *recorderStub {
	return &recorderStub{events: make(map[string]int)}
}

func (r *recorderStub) RecordRequest(operation, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, operation+":"+status)
}

func (r *recorderStub) RecordUpload(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads += n
}

func (r *recorderStub) StreamOpened() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open++
}

func (r *recorderStub) StreamClosed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open--
}

func (r *recorderStub) RecordStreamEvent(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[kind]++
}

func (r *recorderStub) snapshot() ([]string, int64, int, map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make(map[string]int, len(r.events))
	for k, v := range r.events {
		events[k] = v
	}
	return append([]string(nil), r.requests...), r.uploads, r.open, events
}
