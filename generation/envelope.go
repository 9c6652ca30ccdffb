package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BaSui01/easyvideo/types"
)

var errNotEnvelope = errors.New("response body is not a {success,data,error} envelope")

// decodeEnvelope reads and closes resp.Body and unwraps the envelope.
func decodeEnvelope[T any](resp *http.Response, op operation, requireData bool) (*T, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBytes))
	if err != nil {
		return nil, types.NewError(types.ErrConnectionFailed, msgBodyReadFailed).
			WithCause(err).WithRetryable(true).WithOperation(op.Name).WithHTTPStatus(resp.StatusCode)
	}
	return unwrap[T](body, resp.StatusCode, op, requireData)
}

// unwrap applies the envelope rules to a response body:
//
//   - no success member: UPSTREAM_ERROR for HTTP errors, PROTOCOL_VIOLATION otherwise
//   - success=false: REQUEST_FAILED with the server message or op.Fallback
//   - success=true with null data: PROTOCOL_VIOLATION when requireData
func unwrap[T any](body []byte, status int, op operation, requireData bool) (*T, error) {
	var head struct {
		Success *bool               `json:"success"`
		Error   types.EnvelopeError `json:"error"`
	}
	if err := json.Unmarshal(body, &head); err != nil || head.Success == nil {
		return nil, nonEnvelopeError(body, status, op, err)
	}

	if !*head.Success {
		msg := head.Error.Message
		if msg == "" {
			msg = op.Fallback
		}
		e := types.NewError(types.ErrRequestFailed, msg).
			WithOperation(op.Name).
			WithHTTPStatus(status).
			WithRetryable(retryableStatus(status))
		if head.Error.Code != "" {
			e.WithCause(fmt.Errorf("server code %s", head.Error.Code))
		}
		return nil, e
	}

	var env types.Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, types.NewError(types.ErrProtocolViolation, op.Fallback).
			WithCause(fmt.Errorf("decode data: %w", err)).
			WithOperation(op.Name).WithHTTPStatus(status)
	}
	if env.Data == nil && requireData {
		return nil, types.NewError(types.ErrProtocolViolation, msgMissingData).
			WithOperation(op.Name).WithHTTPStatus(status)
	}
	return env.Data, nil
}

func nonEnvelopeError(body []byte, status int, op operation, decodeErr error) *types.Error {
	cause := errNotEnvelope
	if decodeErr != nil {
		cause = fmt.Errorf("%w: %v", errNotEnvelope, decodeErr)
	}
	if status >= 400 {
		msg := errorDetail(body)
		if msg == "" {
			msg = op.Fallback
		}
		return types.NewError(types.ErrUpstreamError, msg).
			WithCause(fmt.Errorf("HTTP %d: %w", status, cause)).
			WithOperation(op.Name).
			WithHTTPStatus(status).
			WithRetryable(retryableStatus(status))
	}
	return types.NewError(types.ErrProtocolViolation, op.Fallback).
		WithCause(cause).WithOperation(op.Name).WithHTTPStatus(status)
}

// errorDetail pulls a human readable message out of a non-envelope error
// body: {"detail": ...}, {"message": ...}, {"error": ...}, or short plain text.
func errorDetail(body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			var ee types.EnvelopeError
			if err := json.Unmarshal(raw, &ee); err == nil && ee.Message != "" {
				return ee.Message
			}
		}
		return ""
	}
	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "<") || len(text) > 512 {
		return ""
	}
	return text
}
