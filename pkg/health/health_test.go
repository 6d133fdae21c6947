package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("down") }

func TestCheckerRegistry_Check(t *testing.T) {
	tests := []struct {
		name     string
		required pingFunc
		optional pingFunc
		want     Status
	}{
		{name: "all healthy", required: ok, optional: ok, want: StatusHealthy},
		{name: "optional down", required: ok, optional: fail, want: StatusDegraded},
		{name: "required down", required: fail, optional: ok, want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCheckerRegistry()
			r.Register(PingChecker("sqs", tt.required))
			r.RegisterOptional(PingChecker("redis", tt.optional))

			h := r.Check(context.Background())
			assert.Equal(t, tt.want, h.Status)
			assert.Len(t, h.Checks, 2)
		})
	}
}

func TestHandler(t *testing.T) {
	r := NewCheckerRegistry()
	r.Register(PingChecker("sqs", pingFunc(fail)))

	rec := httptest.NewRecorder()
	Handler(r).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var h Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&h))
	assert.Equal(t, StatusUnhealthy, h.Status)
	assert.Contains(t, h.Checks["sqs"].Message, "sqs ping failed")
}

func TestCheckFunc_Timeout(t *testing.T) {
	c := PingChecker("sqs", pingFunc(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	}))
	assert.Equal(t, "sqs", c.Name())
	assert.NoError(t, c.Check(context.Background()))
}
