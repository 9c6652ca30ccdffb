package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrConnectionFailed, "progress stream dropped").
		WithCause(root).
		WithHTTPStatus(502).
		WithRetryable(true).
		WithOperation("listen_progress")

	if GetErrorCode(err) != ErrConnectionFailed {
		t.Fatalf("expected code %s, got %s", ErrConnectionFailed, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if err.Operation != "listen_progress" {
		t.Fatalf("expected operation to be recorded, got %q", err.Operation)
	}
	if got := err.Error(); got != "[CONNECTION_FAILED] progress stream dropped: root" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestError_WrappedLookup(t *testing.T) {
	t.Parallel()

	inner := NewError(ErrRequestFailed, "图片生成失败")
	wrapped := fmt.Errorf("generate: %w", inner)

	if !IsCode(wrapped, ErrRequestFailed) {
		t.Fatalf("expected wrapped error to keep its code")
	}
	if ErrorMessage(wrapped) != "图片生成失败" {
		t.Fatalf("expected bare message, got %q", ErrorMessage(wrapped))
	}
	if IsRetryable(errors.New("plain")) {
		t.Fatalf("plain errors are never retryable")
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
	if ErrorMessage(nil) != "" {
		t.Fatalf("nil error has empty message")
	}
}
