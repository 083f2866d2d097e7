package wait

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/devicelab-dev/mobile-qa/pkg/core"
)

func TestUntil_TransientErrorsRetried(t *testing.T) {
	f := newFixture(t)
	calls := 0
	count := func() (int, error) {
		calls++
		if calls <= 2 {
			return 0, errors.New("element not ready")
		}
		return calls, nil
	}

	out, err := Until(f.waiter, count, 3)

	require.NoError(t, err)
	assert.Equal(t, 3, out)
	assert.Equal(t, time.Second, f.clock.elapsed())
	assert.Equal(t, 2, f.logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestUntil_DetectedWithinOneInterval(t *testing.T) {
	f := newFixture(t)
	ready := func() (bool, error) {
		return f.clock.elapsed() >= 1300*time.Millisecond, nil
	}

	_, err := Until(f.waiter, ready, true, WithInterval(250*time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, f.clock.elapsed())
}

func TestUntil_TimeoutCarriesLastOutput(t *testing.T) {
	f := newFixture(t)

	_, err := Until(f.waiter, func() (string, error) { return "Sign up", nil }, "Log In", WithTimeout(time.Second))

	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrWaitTimeout))
	assert.False(t, errors.Is(err, core.ErrTransientPredicate))
	assert.Contains(t, err.Error(), "current: Sign up")
	assert.Contains(t, err.Error(), "expected: Log In")
	assert.Equal(t, time.Second, f.clock.elapsed())
	assert.Equal(t, 1, f.session.Count("Screenshot"))
}

func TestUntil_AlwaysFailingPredicateIsFlagged(t *testing.T) {
	f := newFixture(t)
	typo := errors.New("undefined selector")

	_, err := Until(f.waiter, func() (int, error) { return 0, typo }, 1, WithTimeout(time.Second))

	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrWaitTimeout))
	assert.True(t, errors.Is(err, core.ErrTransientPredicate))
	assert.ErrorIs(t, err, typo)
}

func TestUntilNot(t *testing.T) {
	f := newFixture(t)
	calls := 0
	counter := func() (int, error) {
		calls++
		if calls < 4 {
			return 0, nil
		}
		return 7, nil
	}

	out, err := UntilNot(f.waiter, counter, 0)

	require.NoError(t, err)
	assert.Equal(t, 7, out)
	assert.Equal(t, 1500*time.Millisecond, f.clock.elapsed())
}

func TestUntilNot_Timeout(t *testing.T) {
	f := newFixture(t)

	_, err := UntilNot(f.waiter, func() (int, error) { return 0, nil }, 0, WithTimeout(time.Second))

	assert.True(t, errors.Is(err, core.ErrWaitTimeout))
	assert.Contains(t, err.Error(), "unexpected: 0")
}
