package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector("test", reg, zap.NewNop()), reg
}

func TestNewCollector(t *testing.T) {
	collector, reg := newTestCollector(t)

	assert.NotNil(t, collector.requestsTotal)
	assert.NotNil(t, collector.requestDuration)
	assert.NotNil(t, collector.streamEvents)

	// gauge 与无标签 counter 在注册后立即可见
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_active_streams")
	assert.Contains(t, names, "test_upload_bytes_total")
}

func TestCollector_RecordRequest(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.RecordRequest("text_to_image", "ok", 100*time.Millisecond)
	collector.RecordRequest("text_to_image", "ok", 50*time.Millisecond)
	collector.RecordRequest("text_to_image", "REQUEST_FAILED", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("text_to_image", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("text_to_image", "REQUEST_FAILED")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.requestDuration))
}

func TestCollector_Streams(t *testing.T) {
	collector, _ := newTestCollector(t)

	collector.StreamOpened()
	collector.StreamOpened()
	collector.StreamClosed()
	collector.RecordStreamEvent("progress")
	collector.RecordStreamEvent("progress")
	collector.RecordStreamEvent("complete")
	collector.RecordUpload(2048)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.activeStreams))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.streamEvents.WithLabelValues("progress")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.streamEvents.WithLabelValues("complete")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(collector.uploadBytes))
}

func TestCollector_NilSafe(t *testing.T) {
	var collector *Collector
	assert.NotPanics(t, func() {
		collector.RecordRequest("x", "ok", time.Second)
		collector.RecordUpload(1)
		collector.StreamOpened()
		collector.StreamClosed()
		collector.RecordStreamEvent("error")
	})
}

func TestCollector_DuplicateRegistrationLogged(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewCollector("dup", reg, zap.NewNop())
	assert.NotPanics(t, func() {
		_ = NewCollector("dup", reg, zap.NewNop())
	})
}
