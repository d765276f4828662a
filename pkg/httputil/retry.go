package httputil

import (
	"context"
	"errors"
	"time"
)

// Backoff is a retry-with-exponential-backoff policy.
// The zero value performs a single attempt.
type Backoff struct {
	MaxRetries   int           // retries after the first attempt
	InitialDelay time.Duration // delay before the first retry, doubled each time
	MaxDelay     time.Duration // 0 means uncapped

	// Sleep waits between attempts; nil uses SleepContext. Tests inject a recorder.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry is called before each wait
	OnRetry func(attempt int, delay time.Duration, err error)
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying; Do returns the wrapped error at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do runs fn until it succeeds, returns a permanent error, the context ends,
// or MaxRetries retries are exhausted. Only the last error is returned.
func (b Backoff) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	sleep := b.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	delay := b.InitialDelay
	var err error

	for attempt := 0; attempt <= b.MaxRetries; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		var p *permanentError
		if errors.As(err, &p) {
			return p.err
		}

		if attempt == b.MaxRetries {
			break
		}

		if b.OnRetry != nil {
			b.OnRetry(attempt+1, delay, err)
		}

		if serr := sleep(ctx, delay); serr != nil {
			return err
		}

		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}

	return err
}

// SleepContext waits for d or until ctx is done
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
