package generation

import (
	"encoding/json"
	"net/http"
	"testing"
	"unicode"

	"github.com/BaSui01/easyvideo/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type widget struct {
	Name string `json:"name"`
}

var opWidget = operation{"widget", "获取组件失败"}

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		status      int
		requireData bool
		wantCode    types.ErrorCode
		wantMessage string
		wantName    string
	}{
		{name: "success with data", body: `{"success":true,"data":{"name":"a"}}`, status: 200, requireData: true, wantName: "a"},
		{name: "failure with string error", body: `{"success":false,"error":"boom"}`, status: 200, wantCode: types.ErrRequestFailed, wantMessage: "boom"},
		{name: "failure with object error", body: `{"success":false,"error":{"code":"E1","message":"bad"}}`, status: 400, wantCode: types.ErrRequestFailed, wantMessage: "bad"},
		{name: "failure message kept verbatim", body: `{"success":false,"error":"  disk full\n"}`, status: 200, wantCode: types.ErrRequestFailed, wantMessage: "  disk full\n"},
		{name: "whitespace message is not replaced", body: `{"success":false,"error":" "}`, status: 200, wantCode: types.ErrRequestFailed, wantMessage: " "},
		{name: "failure without error uses fallback", body: `{"success":false}`, status: 200, wantCode: types.ErrRequestFailed, wantMessage: "获取组件失败"},
		{name: "failure with null error uses fallback", body: `{"success":false,"error":null}`, status: 500, wantCode: types.ErrRequestFailed, wantMessage: "获取组件失败"},
		{name: "null data is a protocol violation", body: `{"success":true,"data":null}`, status: 200, requireData: true, wantCode: types.ErrProtocolViolation, wantMessage: msgMissingData},
		{name: "missing data is a protocol violation", body: `{"success":true}`, status: 200, requireData: true, wantCode: types.ErrProtocolViolation},
		{name: "missing data allowed for void", body: `{"success":true}`, status: 200},
		{name: "wrong data shape", body: `{"success":true,"data":[1,2]}`, status: 200, requireData: true, wantCode: types.ErrProtocolViolation},
		{name: "http error without envelope", body: `{"detail":"Not Found"}`, status: 404, wantCode: types.ErrUpstreamError, wantMessage: "Not Found"},
		{name: "http error with html body", body: `<html>bad gateway</html>`, status: 502, wantCode: types.ErrUpstreamError, wantMessage: "获取组件失败"},
		{name: "http error with plain text", body: `upstream timeout`, status: 504, wantCode: types.ErrUpstreamError, wantMessage: "upstream timeout"},
		{name: "2xx without envelope", body: `{"name":"a"}`, status: 200, wantCode: types.ErrProtocolViolation},
		{name: "2xx not json", body: `ok`, status: 200, wantCode: types.ErrProtocolViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := unwrap[widget]([]byte(tt.body), tt.status, opWidget, tt.requireData)
			if tt.wantCode == "" {
				require.NoError(t, err)
				if tt.wantName != "" {
					require.NotNil(t, out)
					assert.Equal(t, tt.wantName, out.Name)
				}
				return
			}
			require.Error(t, err)
			assert.Nil(t, out)
			e, ok := types.AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, "widget", e.Operation)
			assert.Equal(t, tt.status, e.HTTPStatus)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, e.Message)
			}
		})
	}
}

func TestUnwrap_Retryable(t *testing.T) {
	_, err := unwrap[widget]([]byte(`{"success":false,"error":"busy"}`), http.StatusServiceUnavailable, opWidget, true)
	assert.True(t, types.IsRetryable(err))

	_, err = unwrap[widget]([]byte(`{"success":false,"error":"bad"}`), http.StatusBadRequest, opWidget, true)
	assert.False(t, types.IsRetryable(err))

	_, err = unwrap[widget]([]byte(`rate limited`), http.StatusTooManyRequests, opWidget, true)
	assert.True(t, types.IsRetryable(err))
}

func TestUnwrap_ServerCodeKeptAsCause(t *testing.T) {
	_, err := unwrap[widget]([]byte(`{"success":false,"error":{"code":"QUOTA","message":"额度不足"}}`), 200, opWidget, true)
	e, ok := types.AsError(err)
	require.True(t, ok)
	require.Error(t, e.Cause)
	assert.Contains(t, e.Cause.Error(), "QUOTA")
}

// success=false 时，消息要么是服务端原文，要么是兜底文案
func TestProperty_FailedEnvelopeMessage(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		msg := textGen().Draw(rt, "message")
		status := rapid.IntRange(200, 599).Draw(rt, "status")
		body, err := json.Marshal(types.Failure[widget](msg))
		if err != nil {
			rt.Fatal(err)
		}

		_, uerr := unwrap[widget](body, status, opWidget, true)
		e, ok := types.AsError(uerr)
		if !ok {
			rt.Fatalf("expected *types.Error, got %v", uerr)
		}
		if e.Code != types.ErrRequestFailed {
			rt.Fatalf("code = %s", e.Code)
		}
		want := msg
		if want == "" {
			want = opWidget.Fallback
		}
		if e.Message != want {
			rt.Fatalf("message = %q, want %q", e.Message, want)
		}
	})
}

// success=true 且 data 非空时总能原样取回
func TestProperty_SuccessEnvelopeData(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := textGen().Draw(rt, "name")
		body, err := json.Marshal(types.Success(widget{Name: name}))
		if err != nil {
			rt.Fatal(err)
		}
		out, uerr := unwrap[widget](body, 200, opWidget, true)
		if uerr != nil {
			rt.Fatalf("unexpected error: %v", uerr)
		}
		if out.Name != name {
			rt.Fatalf("name = %q, want %q", out.Name, name)
		}
	})
}

func textGen() *rapid.Generator[string] {
	return rapid.StringOf(rapid.RuneFrom([]rune{' ', '"', '\\', '\n'}, unicode.Han, unicode.Latin, unicode.Digit))
}
