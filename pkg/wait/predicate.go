package wait

import (
	"go.uber.org/zap"

	"github.com/devicelab-dev/mobile-qa/pkg/core"
)

// Until calls fn every interval until it returns expected.
//
// Errors from fn are transient: they are logged as warnings and polling goes
// on. Only the deadline is terminal. The timeout error reports the last
// output and wraps the last transient error, if any, so a predicate that
// never ran cleanly is distinguishable from one that returned the wrong value.
func Until[T comparable](w *Waiter, fn func() (T, error), expected T, opts ...Option) (T, error) {
	return untilMatch(w, fn, func(out T) bool { return out == expected }, "expected", expected, opts)
}

// UntilNot calls fn every interval until it returns something other than
// unexpected. Error handling is as for Until.
func UntilNot[T comparable](w *Waiter, fn func() (T, error), unexpected T, opts ...Option) (T, error) {
	return untilMatch(w, fn, func(out T) bool { return out != unexpected }, "unexpected", unexpected, opts)
}

func untilMatch[T comparable](w *Waiter, fn func() (T, error), match func(T) bool, label string, want T, opts []Option) (T, error) {
	s := w.settings(opts)

	var (
		last    T
		lastErr error
	)
	_, err := w.poll(s, func() (probe, error) {
		out, err := fn()
		if err != nil {
			lastErr = core.ErrTransientPredicate.WithCause(err)
			w.log.Warn("predicate failed, retrying", zap.Error(err))
			return probe{}, nil
		}
		last = out
		return probe{found: match(out)}, nil
	})
	if err == nil {
		return last, nil
	}

	timeoutErr := core.ErrWaitTimeout.
		WithMessagef("timeout waiting for condition, current: %v, %s: %v", last, label, want).
		WithDetails(map[string]interface{}{"current": last, label: want})
	if lastErr != nil {
		timeoutErr = timeoutErr.WithCause(lastErr)
	}
	var zero T
	return zero, w.fail(err, timeoutErr, "wait for condition")
}
