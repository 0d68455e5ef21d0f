package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// terminalMarkers are lowercase fragments of error messages that mean another
// attempt can not succeed.
var terminalMarkers = []string{
	"invalid input",
	"bad request",
	"unauthorized",
	"forbidden",
}

type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	// Name labels retry log lines.
	Name string

	timer backoff.Timer
}

// IsTerminal reports whether err must be returned without another attempt.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range terminalMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Do calls fn up to p.MaxAttempts times. The delay before retry n (0-based) is
// InitialDelay * 2^n with no jitter. Terminal errors are returned at once; when
// attempts run out the last error is returned.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	op := func() (T, error) {
		attempt++
		v, err := fn(ctx)
		if err != nil && IsTerminal(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, delay time.Duration) {
		slog.Warn("retrying after failure",
			"operation", p.Name,
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", delay,
			"error", err)
	}

	return backoff.RetryNotifyWithTimerAndData(op, p.schedule(ctx, attempts), notify, p.timer)
}

func (p Policy) schedule(ctx context.Context, attempts int) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialDelay
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = time.Duration(math.MaxInt64)
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// Delay returns the wait before retry n (0-based).
func (p Policy) Delay(n int) time.Duration {
	return p.InitialDelay * time.Duration(1<<n)
}
