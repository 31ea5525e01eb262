package retrier

import (
	"time"

	"github.com/pkg/errors"

	"github.com/voxnotes/meetgo/internal/pkg/cmdapp"
)

//ErrUnavailable marks a service overload class failure.
//Waits between attempts are longer for such errors
var ErrUnavailable = errors.New("service unavailable")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

//Permanent wraps err so Do gives up immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

//Policy drives retry behaviour of Do
type Policy struct {
	MaxAttempts     int
	InitialWait     time.Duration
	MaxWait         time.Duration
	UnavailableWait time.Duration

	sleep func(time.Duration)
}

//NewPolicy returns the default policy: 3 attempts,
//waits 4s, 8s (InitialWait doubled per attempt, capped by MaxWait),
//15s after an unavailable class failure
func NewPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialWait: 2 * time.Second, MaxWait: 10 * time.Second,
		UnavailableWait: 15 * time.Second, sleep: time.Sleep}
}

//Do invokes op until it succeeds, a permanent error is returned
//or attempts are exhausted. The last error is returned
func Do(op func() error, p Policy) error {
	sleepF := p.sleep
	if sleepF == nil {
		sleepF = time.Sleep
	}
	var err error
	for attempt := 1; ; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		var pErr *permanentError
		if errors.As(err, &pErr) {
			return pErr.err
		}
		if attempt >= p.MaxAttempts {
			return err
		}
		w := p.wait(attempt, err)
		cmdapp.Log.Infof("Attempt %d failed, retrying in %v: %s", attempt, w, err.Error())
		sleepF(w)
	}
}

func (p Policy) wait(attempt int, err error) time.Duration {
	if errors.Is(err, ErrUnavailable) {
		return p.UnavailableWait
	}
	w := p.InitialWait << uint(attempt)
	if w > p.MaxWait {
		w = p.MaxWait
	}
	return w
}
