package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpens(t *testing.T) {
	cb := NewCircuitBreaker("catalog", 3, time.Minute)
	assert.Equal(t, StateClosed, cb.State())

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error {
			return fmt.Errorf("operation failed")
		})
		require.Error(t, err)
		assert.Equal(t, "operation failed", err.Error())
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, ErrClassNetwork, GetClass(err))
	assert.Equal(t, "catalog", GetContext(err)["circuit"])
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("catalog", 2, time.Minute)
	_ = cb.Execute(func() error { return errors.New("down") })
	require.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return errors.New("down") })
	assert.Equal(t, StateClosed, cb.State(), "failures must be consecutive")
}

func TestCircuitBreakerIgnoresHealthyAnswers(t *testing.T) {
	cb := NewCircuitBreaker("catalog", 1, time.Minute)

	_ = cb.Execute(func() error { return context.Canceled })
	_ = cb.Execute(func() error { return New(ErrClassValidation, "create", "name taken") })
	_ = cb.Execute(func() error { return New(ErrClassNotFound, "list", "no such catalog") })
	assert.Equal(t, StateClosed, cb.State())

	_ = cb.Execute(func() error { return context.DeadlineExceeded })
	assert.Equal(t, StateOpen, cb.State(), "timeouts are failures")
}

func TestCircuitBreakerRecovers(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(BreakerConfig{Name: "catalog", MaxFailures: 1, ResetTimeout: 10 * time.Millisecond, ProbeCalls: 2})

	_ = cb.Execute(func() error { return errors.New("down") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(BreakerConfig{Name: "catalog", MaxFailures: 1, ResetTimeout: 10 * time.Millisecond, ProbeCalls: 2})

	_ = cb.Execute(func() error { return errors.New("down") })
	time.Sleep(20 * time.Millisecond)

	_ = cb.Execute(func() error { return errors.New("still down") })
	assert.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
}
