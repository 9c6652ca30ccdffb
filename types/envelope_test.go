package types

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_DecodeErrorForms(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantMsg  string
		wantCode string
		wantZero bool
	}{
		{name: "string", body: `{"success":false,"error":"模型未加载"}`, wantMsg: "模型未加载"},
		{name: "object", body: `{"success":false,"error":{"code":"QUEUE_FULL","message":"queue is full"}}`, wantMsg: "queue is full", wantCode: "QUEUE_FULL"},
		{name: "null", body: `{"success":false,"error":null}`, wantZero: true},
		{name: "absent", body: `{"success":false}`, wantZero: true},
		{name: "number", body: `{"success":false,"error":42}`, wantMsg: "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope[json.RawMessage]
			require.NoError(t, json.Unmarshal([]byte(tt.body), &env))
			assert.False(t, env.Success)
			assert.Nil(t, env.Data)
			assert.Equal(t, tt.wantZero, env.Error.IsZero())
			assert.Equal(t, tt.wantMsg, env.Error.Message)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestEnvelope_SuccessData(t *testing.T) {
	var env Envelope[GenerationTask]
	require.NoError(t, json.Unmarshal([]byte(`{"success":true,"data":{"id":"t1","status":"running","progress":40}}`), &env))
	require.True(t, env.Success)
	require.NotNil(t, env.Data)
	assert.Equal(t, "t1", env.Data.ID)
	assert.Equal(t, TaskStatusRunning, env.Data.Status)

	var nullData Envelope[GenerationTask]
	require.NoError(t, json.Unmarshal([]byte(`{"success":true,"data":null}`), &nullData))
	assert.Nil(t, nullData.Data)
}

func TestEnvelope_Constructors(t *testing.T) {
	data, err := json.Marshal(Failure[int]("boom"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"boom"}`, string(data))

	data, err = json.Marshal(Success(7))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":7,"error":null}`, string(data))
}

// 任意错误消息经字符串形式编码后必须原样解出.
func TestProperty_EnvelopeErrorMessageRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("failure message survives the wire", prop.ForAll(
		func(msg string) bool {
			data, err := json.Marshal(Failure[string](msg))
			if err != nil {
				return false
			}
			var env Envelope[string]
			if err := json.Unmarshal(data, &env); err != nil {
				return false
			}
			return !env.Success && env.Data == nil && env.Error.Message == msg
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
