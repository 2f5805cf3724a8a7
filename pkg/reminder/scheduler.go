// Package reminder arms one-shot notifications for to-do notes.
package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"notepad/pkg/metrics"
	"notepad/pkg/models"
)

// notifyTimeout bounds a single delivery
const notifyTimeout = 10 * time.Second

// Reminder is the payload delivered when a trigger fires
type Reminder struct {
	NoteID  string    `json:"note_id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Scheduler keeps at most one trigger per note
type Scheduler struct {
	timers   TimerService
	store    TriggerStore
	notifier Notifier
	now      func() time.Time

	mutex   sync.Mutex
	pending map[string]Reminder
}

// NewScheduler wires a scheduler. A nil store keeps triggers in memory only.
func NewScheduler(timers TimerService, store TriggerStore, notifier Notifier) *Scheduler {
	if store == nil {
		store = NewMemoryStore()
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Scheduler{
		timers:   timers,
		store:    store,
		notifier: notifier,
		now:      time.Now,
		pending:  make(map[string]Reminder),
	}
}

func fromNote(note *models.Note) Reminder {
	return Reminder{
		NoteID:  note.ID,
		Title:   note.Title,
		Content: note.Content,
		At:      *note.ReminderAt,
	}
}

// Schedule arms a trigger for note at its reminder time, replacing any
// trigger the note already had. Notes without a reminder, or whose
// reminder is not in the future, are skipped and false is returned.
func (s *Scheduler) Schedule(note *models.Note) bool {
	if note == nil || note.ReminderAt == nil {
		return false
	}
	if !note.ReminderAt.After(s.now()) {
		log.Debugf("Skipping reminder for note %s: %s is not in the future", note.ID, note.ReminderAt)
		return false
	}

	r := fromNote(note)
	s.arm(r)
	if err := s.store.Put(r); err != nil {
		log.Warnf("Could not persist reminder for note %s: %v", r.NoteID, err)
	}
	log.Infof("Reminder scheduled for note %s at %s", r.NoteID, r.At.Format(time.RFC3339))
	return true
}

func (s *Scheduler) arm(r Reminder) {
	s.mutex.Lock()
	s.pending[r.NoteID] = r
	metrics.RemindersPending.Set(float64(len(s.pending)))
	s.mutex.Unlock()

	at := r.At
	s.timers.Schedule(r.NoteID, at, func() { s.fire(r.NoteID, at) })
}

// Cancel removes the trigger for noteID; unknown ids are ignored
func (s *Scheduler) Cancel(noteID string) {
	s.mutex.Lock()
	delete(s.pending, noteID)
	metrics.RemindersPending.Set(float64(len(s.pending)))
	s.mutex.Unlock()

	s.timers.Cancel(noteID)
	// The stored copy goes even when nothing was armed
	if err := s.store.Delete(noteID); err != nil {
		log.Warnf("Could not remove stored reminder for note %s: %v", noteID, err)
	}
}

// ResyncAll makes the armed triggers match notes: every to-do note with a
// future reminder is scheduled and every other trigger is cancelled. It
// returns how many triggers are armed afterwards.
func (s *Scheduler) ResyncAll(notes []*models.Note) int {
	wanted := make(map[string]*models.Note)
	for _, note := range notes {
		if note != nil && note.IsTodo && note.ReminderAt != nil {
			wanted[note.ID] = note
		}
	}

	for _, r := range s.Pending() {
		if _, ok := wanted[r.NoteID]; !ok {
			s.Cancel(r.NoteID)
		}
	}

	armed := 0
	for _, note := range notes {
		if note == nil || wanted[note.ID] != note {
			continue
		}
		if s.Schedule(note) {
			armed++
		} else {
			// A reminder that moved into the past no longer fires
			s.Cancel(note.ID)
		}
	}
	return armed
}

// Rearm restores stored triggers after a restart. Past-due entries are
// dropped without firing.
func (s *Scheduler) Rearm() (int, error) {
	stored, err := s.store.All()
	if err != nil {
		return 0, err
	}

	now := s.now()
	armed := 0
	for _, r := range stored {
		if !r.At.After(now) {
			log.Infof("Dropping past-due reminder for note %s (%s)", r.NoteID, r.At.Format(time.RFC3339))
			if err := s.store.Delete(r.NoteID); err != nil {
				log.Warnf("Could not remove stored reminder for note %s: %v", r.NoteID, err)
			}
			continue
		}
		s.arm(r)
		armed++
	}
	return armed, nil
}

// Pending lists armed triggers, soonest first
func (s *Scheduler) Pending() []Reminder {
	s.mutex.Lock()
	out := make([]Reminder, 0, len(s.pending))
	for _, r := range s.pending {
		out = append(out, r)
	}
	s.mutex.Unlock()

	sortByTime(out)
	return out
}

func (s *Scheduler) fire(noteID string, at time.Time) {
	s.mutex.Lock()
	r, ok := s.pending[noteID]
	if !ok || !r.At.Equal(at) {
		s.mutex.Unlock()
		return
	}
	delete(s.pending, noteID)
	metrics.RemindersPending.Set(float64(len(s.pending)))
	s.mutex.Unlock()

	if err := s.store.Delete(noteID); err != nil {
		log.Warnf("Could not remove stored reminder for note %s: %v", noteID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	// Delivery is fire-and-forget
	err := s.notifier.Notify(ctx, r)
	metrics.RemindersFired.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		log.Errorf("Reminder delivery for note %s failed: %v", noteID, err)
	}
}

// Stop disarms every in-process timer. Stored triggers are kept so the
// next Rearm restores them.
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	s.pending = make(map[string]Reminder)
	metrics.RemindersPending.Set(0)
	s.mutex.Unlock()

	for _, id := range ids {
		s.timers.Cancel(id)
	}
}
