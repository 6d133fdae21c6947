package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_WithCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := ErrTransport.WithCause(cause).WithDetail("queue", "orders-dlq")

	assert.True(t, IsTransport(err))
	assert.False(t, IsDecode(err))
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "TRANSPORT_ERROR")
	assert.Contains(t, err.Error(), "connection reset")
	assert.Empty(t, ErrTransport.Details, "sentinel must not be mutated")
}

func TestError_Classification(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		retryable bool
		fatal     bool
	}{
		{name: "transport", err: ErrTransport, retryable: true, fatal: false},
		{name: "configuration", err: ErrConfiguration, retryable: false, fatal: true},
		{name: "decode", err: ErrDecode, retryable: false, fatal: false},
		{name: "forced fatal", err: ErrTransport.AsFatal(), retryable: false, fatal: true},
		{name: "forced retryable", err: ErrValidation.AsRetryable(), retryable: true, fatal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
			assert.Equal(t, tt.fatal, tt.err.IsFatal())
		})
	}
}

func TestToErrorResponse(t *testing.T) {
	resp := ToErrorResponse(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", resp["error_code"])

	resp = ToErrorResponse(ErrConfiguration.WithDetail("message", "queue not configured"))
	assert.Equal(t, "CONFIGURATION_ERROR", resp["error_code"])
	assert.Contains(t, resp["error"], "queue not configured")
}

func TestGuard(t *testing.T) {
	assert.NoError(t, Guard(func() {}))

	err := Guard(func() { panic("bad state") })
	assert.Contains(t, err.Error(), "bad state")
}

func TestFromPanic(t *testing.T) {
	assert.Nil(t, FromPanic(nil))

	err := FromPanic("bad state")
	var appErr *Error
	assert.True(t, errors.As(err, &appErr))
	assert.True(t, appErr.IsFatal())
	assert.Equal(t, true, appErr.Details["panic"])
}
