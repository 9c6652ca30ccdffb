package types

import (
	"bytes"
	"encoding/json"
)

// Envelope 是后端所有响应的统一包装: {success, data?, error?}.
type Envelope[T any] struct {
	Success bool          `json:"success"`
	Data    *T            `json:"data,omitempty"`
	Error   EnvelopeError `json:"error,omitempty"`
}

// EnvelopeError is the error member of an envelope. The backend sends a
// plain string; the object form {code, message} is accepted as well.
type EnvelopeError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsZero reports whether no error was sent.
func (e EnvelopeError) IsZero() bool {
	return e.Code == "" && e.Message == ""
}

// UnmarshalJSON accepts a string, an object or null.
func (e *EnvelopeError) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = EnvelopeError{}
		return nil
	}
	if data[0] == '"' {
		var msg string
		if err := json.Unmarshal(data, &msg); err != nil {
			return err
		}
		*e = EnvelopeError{Message: msg}
		return nil
	}
	if data[0] == '{' {
		type plain EnvelopeError
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*e = EnvelopeError(p)
		return nil
	}
	// numbers, booleans: keep the literal text as message
	*e = EnvelopeError{Message: string(data)}
	return nil
}

// MarshalJSON writes the string form, which is what the backend speaks.
func (e EnvelopeError) MarshalJSON() ([]byte, error) {
	if e.IsZero() {
		return []byte("null"), nil
	}
	if e.Code == "" {
		return json.Marshal(e.Message)
	}
	type plain EnvelopeError
	return json.Marshal(plain(e))
}

// Failure builds a failed envelope.
func Failure[T any](message string) Envelope[T] {
	return Envelope[T]{Success: false, Error: EnvelopeError{Message: message}}
}

// Success builds a successful envelope around data.
func Success[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: &data}
}
