package performance

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebounceCoalescesBursts(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls int32

	for i := 0; i < 5; i++ {
		d.Debounce("notes.json", func() { atomic.AddInt32(&calls, 1) })
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, d.Pending())
}

func TestDebounceKeysAreIndependent(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var calls int32

	d.Debounce("a", func() { atomic.AddInt32(&calls, 1) })
	d.Debounce("b", func() { atomic.AddInt32(&calls, 1) })

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
}

func TestCancelAndStop(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls int32

	d.Debounce("a", func() { atomic.AddInt32(&calls, 1) })
	d.Debounce("b", func() { atomic.AddInt32(&calls, 1) })
	d.Cancel("a")
	assert.Equal(t, 1, d.Pending())

	d.Stop()
	assert.Equal(t, 0, d.Pending())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
