package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/BaSui01/easyvideo/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// =============================================================================
// 📡 任务进度订阅
// =============================================================================

// ProgressUpdate 是进度流中的一条消息. Raw 保存服务端原始 JSON，
// 未建模的字段可通过 Decode 读取.
type ProgressUpdate struct {
	TaskID   string           `json:"task_id,omitempty"`
	Status   types.TaskStatus `json:"status,omitempty"`
	Progress float64          `json:"progress"`
	Message  string           `json:"message,omitempty"`
	Result   json.RawMessage  `json:"result,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Decode unmarshals the raw message into v.
func (u ProgressUpdate) Decode(v any) error {
	return json.Unmarshal(u.Raw, v)
}

// Terminal reports whether this update ends the stream.
func (u ProgressUpdate) Terminal() bool {
	return u.Status.EndsStream()
}

// ProgressHandler 进度回调. 任意回调可为 nil.
type ProgressHandler struct {
	OnProgress func(ProgressUpdate)
	OnError    func(error)
	// OnComplete receives the update whose status was completed or failed.
	OnComplete func(ProgressUpdate)
}

// Subscription 是一个进度订阅的句柄.
type Subscription struct {
	taskID  string
	cancel  context.CancelFunc
	once    sync.Once
	stopped atomic.Bool
	done    chan struct{}
}

// Unsubscribe closes the stream. It is idempotent, does not block and may be
// called from inside a callback. Each event is checked against the
// subscription before its OnProgress runs, so after Unsubscribe returns at
// most one OnProgress (for an event already past that check) may still
// start. OnComplete and OnError never fire after it returns.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.stopped.Store(true)
		s.cancel()
	})
}

// Done is closed once the stream goroutine has exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// TaskID returns the subscribed task.
func (s *Subscription) TaskID() string { return s.taskID }

func (s *Subscription) active() bool { return !s.stopped.Load() }

// claim marks the terminal outcome; only the first caller wins.
func (s *Subscription) claim() bool { return s.stopped.CompareAndSwap(false, true) }

// ListenToProgress 订阅任务进度.
//
// The stream runs on its own goroutine and invokes the handler sequentially
// from it. Every subscription ends with exactly one OnError or one
// OnComplete, unless Unsubscribe or ctx cancellation comes first, in which
// case neither is made (see Unsubscribe for in-flight OnProgress). There is
// no reconnect.
func (c *Client) ListenToProgress(ctx context.Context, taskID string, h ProgressHandler) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		taskID: taskID,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	id, err := pathSegment(opListenProgress, taskID, msgInvalidID)
	if err != nil {
		go func() {
			defer close(sub.done)
			defer cancel()
			c.failStream(sub, h, err)
		}()
		return sub
	}

	go c.runStream(ctx, sub, apiPrefix+"/progress/"+id, h)
	return sub
}

func (c *Client) runStream(ctx context.Context, sub *Subscription, path string, h ProgressHandler) {
	defer close(sub.done)
	defer sub.cancel()

	c.metrics.StreamOpened()
	defer c.metrics.StreamClosed()

	logger := c.logger.With(zap.String("task_id", sub.taskID))
	logger.Debug("progress stream opening")

	_ = c.observe(ctx, opListenProgress, http.MethodGet, path, func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(attribute.String("generation.task_id", sub.taskID))
		return c.consumeStream(ctx, sub, path, h, span)
	})

	logger.Debug("progress stream closed")
}

// consumeStream returns the error that ended the stream, or nil after
// OnComplete.
func (c *Client) consumeStream(ctx context.Context, sub *Subscription, path string, h ProgressHandler, span trace.Span) error {
	req, err := c.newRequest(ctx, opListenProgress, http.MethodGet, path, nil, nil)
	if err != nil {
		return c.failStream(sub, h, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.do(ctx, opListenProgress, c.streamClient, req)
	if err != nil {
		if stopped := c.stopIfDone(ctx, sub); stopped != nil {
			return stopped
		}
		return c.failStream(sub, h, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := errorDetail(body)
		if msg == "" {
			msg = opListenProgress.Fallback
		}
		return c.failStream(sub, h, types.NewError(types.ErrConnectionFailed, msg).
			WithCause(fmt.Errorf("HTTP %d", resp.StatusCode)).
			WithHTTPStatus(resp.StatusCode).
			WithRetryable(retryableStatus(resp.StatusCode)).
			WithOperation(opListenProgress.Name))
	}

	events := newEventReader(resp.Body)
	for {
		data, err := events.Next()
		if err != nil {
			if stopped := c.stopIfDone(ctx, sub); stopped != nil {
				return stopped
			}
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return c.failStream(sub, h, types.NewError(types.ErrConnectionFailed, msgStreamClosed).
				WithCause(err).WithRetryable(true).WithOperation(opListenProgress.Name))
		}

		update, perr := parseProgressMessage(data)
		if perr != nil {
			return c.failStream(sub, h, perr.WithOperation(opListenProgress.Name))
		}
		if !sub.active() {
			return canceledError(opListenProgress, context.Canceled)
		}

		c.metrics.RecordStreamEvent("progress")
		span.AddEvent("progress", trace.WithAttributes(
			attribute.Float64("progress", update.Progress),
			attribute.String("status", string(update.Status)),
		))
		if h.OnProgress != nil {
			h.OnProgress(*update)
		}

		if update.Terminal() {
			if sub.claim() {
				c.metrics.RecordStreamEvent("complete")
				if h.OnComplete != nil {
					h.OnComplete(*update)
				}
			}
			return nil
		}
	}
}

// failStream delivers err as the terminal outcome if nothing else has.
func (c *Client) failStream(sub *Subscription, h ProgressHandler, err error) error {
	if sub.claim() {
		c.metrics.RecordStreamEvent("error")
		if h.OnError != nil {
			h.OnError(err)
		}
	}
	return err
}

// stopIfDone reports a silent stop after Unsubscribe or ctx cancellation.
func (c *Client) stopIfDone(ctx context.Context, sub *Subscription) error {
	if sub.active() && ctx.Err() == nil {
		return nil
	}
	sub.stopped.Store(true)
	cause := ctx.Err()
	if cause == nil {
		cause = context.Canceled
	}
	return canceledError(opListenProgress, cause)
}

// parseProgressMessage turns one event payload into an update. A non-null
// error member, or success=false, is reported as REQUEST_FAILED. A payload
// shaped as an envelope has its data member decoded as the update.
func parseProgressMessage(data []byte) (*ProgressUpdate, *types.Error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, streamParseError(err)
	}

	if raw, ok := fields["error"]; ok && !isNull(raw) {
		var ee types.EnvelopeError
		if err := json.Unmarshal(raw, &ee); err != nil {
			return nil, streamParseError(err)
		}
		msg := ee.Message
		if msg == "" {
			msg = msgStreamError
		}
		return nil, types.NewError(types.ErrRequestFailed, msg)
	}

	payload := data
	if raw, ok := fields["success"]; ok {
		var success bool
		if err := json.Unmarshal(raw, &success); err != nil {
			return nil, streamParseError(err)
		}
		if !success {
			return nil, types.NewError(types.ErrRequestFailed, msgStreamError)
		}
		if d, ok := fields["data"]; ok && !isNull(d) {
			payload = d
		}
	}

	var update ProgressUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return nil, streamParseError(err)
	}
	update.Raw = append(json.RawMessage(nil), data...)
	return &update, nil
}

func streamParseError(cause error) *types.Error {
	if cause == nil {
		cause = errors.New("payload is not a JSON object")
	}
	return types.NewError(types.ErrStreamParse, msgStreamParse).WithCause(cause)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
