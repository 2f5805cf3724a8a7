package reminder

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"

	apperrors "notepad/pkg/errors"
)

// TriggerStore remembers armed reminders so they can be re-armed after a
// restart
type TriggerStore interface {
	Put(r Reminder) error
	Delete(noteID string) error
	All() ([]Reminder, error)
	Close() error
}

// MemoryStore keeps triggers in a map; nothing survives the process
type MemoryStore struct {
	mutex     sync.Mutex
	reminders map[string]Reminder
}

// NewMemoryStore creates an empty in-process trigger store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reminders: make(map[string]Reminder)}
}

func (m *MemoryStore) Put(r Reminder) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.reminders[r.NoteID] = r
	return nil
}

func (m *MemoryStore) Delete(noteID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.reminders, noteID)
	return nil
}

func (m *MemoryStore) All() ([]Reminder, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	out := make([]Reminder, 0, len(m.reminders))
	for _, r := range m.reminders {
		out = append(out, r)
	}
	sortByTime(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

const keyPrefix = "reminder/"

// BadgerStore keeps triggers in a badger database
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if needed) the database at path. An
// empty path opens an in-memory database.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0750); err != nil {
			return nil, apperrors.ErrDirectoryCreationFailed.WithCause(err).WithContext("path", path)
		}
		opts = badger.DefaultOptions(path)
	}
	// Badger's own logger is too chatty for a notepad
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeFileSystem, "REMINDER_DB_OPEN_FAILED", "could not open reminder database").
			WithContext("path", path)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Put(r Reminder) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+r.NoteID), data)
	})
}

func (b *BadgerStore) Delete(noteID string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + noteID))
	})
}

func (b *BadgerStore) All() ([]Reminder, error) {
	out := make([]Reminder, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r Reminder
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByTime(out)
	return out, nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func sortByTime(rs []Reminder) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].At.Equal(rs[j].At) {
			return rs[i].At.Before(rs[j].At)
		}
		return rs[i].NoteID < rs[j].NoteID
	})
}
