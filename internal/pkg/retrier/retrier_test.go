package retrier

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestDo_Succeeds(t *testing.T) {
	p, _ := newTestPolicy()
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, p)
	assert.Nil(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesAndSucceeds(t *testing.T) {
	p, waits := newTestPolicy()
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errors.New("olia")
		}
		return nil
	}, p)
	assert.Nil(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{4 * time.Second, 8 * time.Second}, *waits)
}

func TestDo_Exhausts(t *testing.T) {
	p, waits := newTestPolicy()
	calls := 0
	err := Do(func() error {
		calls++
		return errors.New("olia")
	}, p)
	assert.NotNil(t, err)
	assert.Equal(t, 3, calls)
	total := time.Duration(0)
	for _, w := range *waits {
		total += w
	}
	assert.Equal(t, 12*time.Second, total)
}

func TestDo_WaitIsCapped(t *testing.T) {
	p, waits := newTestPolicy()
	p.MaxAttempts = 5
	calls := 0
	_ = Do(func() error {
		calls++
		return errors.New("olia")
	}, p)
	assert.Equal(t, 5, calls)
	assert.Equal(t, []time.Duration{4 * time.Second, 8 * time.Second,
		10 * time.Second, 10 * time.Second}, *waits)
}

func TestDo_UnavailableWaitsLonger(t *testing.T) {
	p, waits := newTestPolicy()
	calls := 0
	err := Do(func() error {
		calls++
		return errors.Wrap(ErrUnavailable, "code 503")
	}, p)
	assert.NotNil(t, err)
	assert.Equal(t, []time.Duration{15 * time.Second, 15 * time.Second}, *waits)
	for _, w := range *waits {
		assert.True(t, w > 8*time.Second)
	}
}

func TestDo_PermanentStops(t *testing.T) {
	p, waits := newTestPolicy()
	calls := 0
	expected := errors.New("olia")
	err := Do(func() error {
		calls++
		return Permanent(expected)
	}, p)
	assert.Equal(t, expected, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestPermanent_Nil(t *testing.T) {
	assert.Nil(t, Permanent(nil))
}

func newTestPolicy() (Policy, *[]time.Duration) {
	waits := &[]time.Duration{}
	p := NewPolicy()
	p.sleep = func(d time.Duration) {
		*waits = append(*waits, d)
	}
	return p, waits
}
