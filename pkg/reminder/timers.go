package reminder

import (
	"sync"
	"time"
)

// TimerService arms one-shot callbacks keyed by id. Scheduling an id that
// is already armed replaces it.
type TimerService interface {
	Schedule(id string, at time.Time, fire func())
	Cancel(id string)
}

// AfterFuncTimers implements TimerService on time.AfterFunc
type AfterFuncTimers struct {
	mutex  sync.Mutex
	timers map[string]*time.Timer
	now    func() time.Time
}

// NewAfterFuncTimers creates a timer service using the wall clock
func NewAfterFuncTimers() *AfterFuncTimers {
	return &AfterFuncTimers{
		timers: make(map[string]*time.Timer),
		now:    time.Now,
	}
}

// Schedule arms fire to run at at
func (t *AfterFuncTimers) Schedule(id string, at time.Time, fire func()) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if existing, ok := t.timers[id]; ok {
		existing.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(at.Sub(t.now()), func() {
		t.mutex.Lock()
		if t.timers[id] != timer {
			t.mutex.Unlock()
			return
		}
		delete(t.timers, id)
		t.mutex.Unlock()
		fire()
	})
	t.timers[id] = timer
}

// Cancel disarms id; unknown ids are ignored
func (t *AfterFuncTimers) Cancel(id string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
}

// Stop disarms every timer
func (t *AfterFuncTimers) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}
