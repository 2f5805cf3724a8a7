package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/labstack/gommon/log"
	"gopkg.in/yaml.v3"

	apperrors "notepad/pkg/errors"
	"notepad/pkg/models"
)

const (
	// PrefsFileName holds small key-value preferences
	PrefsFileName = "prefs.json"
	// SettingsFileName holds display settings
	SettingsFileName = "settings.yaml"

	// PrefCurrentUser names the logged-in user; absent means logged out
	PrefCurrentUser = "current_user"
)

// PrefsStore is a tiny persisted string map
type PrefsStore struct {
	path  string
	mutex sync.Mutex
}

// NewPrefsStore creates a preference store rooted at dataDir
func NewPrefsStore(dataDir string) *PrefsStore {
	return &PrefsStore{path: filepath.Join(dataDir, PrefsFileName)}
}

func (p *PrefsStore) read() map[string]string {
	prefs := make(map[string]string)
	data, err := os.ReadFile(p.path)
	if err != nil {
		return prefs
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		log.Warnf("Malformed preferences %s: %v", p.path, err)
		return make(map[string]string)
	}
	if prefs == nil {
		// A document holding just null
		prefs = make(map[string]string)
	}
	return prefs
}

// Get returns the value for key
func (p *PrefsStore) Get(key string) (string, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	v, ok := p.read()[key]
	return v, ok
}

// Set stores value under key
func (p *PrefsStore) Set(key, value string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	prefs := p.read()
	prefs[key] = value
	return writeJSON(p.path, prefs)
}

// Delete removes key; a missing key is not an error
func (p *PrefsStore) Delete(key string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	prefs := p.read()
	if _, ok := prefs[key]; !ok {
		return nil
	}
	delete(prefs, key)
	return writeJSON(p.path, prefs)
}

// SettingsStore persists display settings as YAML
type SettingsStore struct {
	path  string
	mutex sync.Mutex
}

// NewSettingsStore creates a settings store rooted at dataDir
func NewSettingsStore(dataDir string) *SettingsStore {
	return &SettingsStore{path: filepath.Join(dataDir, SettingsFileName)}
}

// Load returns the stored settings, filling unset fields with defaults
func (s *SettingsStore) Load() models.Settings {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	settings := models.DefaultSettings()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return settings
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		log.Warnf("Malformed settings %s, using defaults: %v", s.path, err)
		return models.DefaultSettings()
	}
	return settings
}

// Save writes settings to disk
func (s *SettingsStore) Save(settings models.Settings) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := yaml.Marshal(settings)
	if err != nil {
		return apperrors.ErrFileWriteFailed.WithCause(err).WithContext("path", s.path)
	}
	return writeFileAtomic(s.path, data)
}
