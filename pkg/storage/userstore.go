package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/labstack/gommon/log"

	"notepad/pkg/models"
)

// UsersFileName holds the registered accounts
const UsersFileName = "users.json"

// UserStore persists the account list, separately from notes
type UserStore struct {
	path  string
	mutex sync.Mutex
}

// NewUserStore creates a user store rooted at dataDir
func NewUserStore(dataDir string) *UserStore {
	return &UserStore{path: filepath.Join(dataDir, UsersFileName)}
}

// Load returns every stored user. Missing or corrupt files yield an empty list.
func (s *UserStore) Load() []*models.User {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("Could not read %s: %v", s.path, err)
		}
		return []*models.User{}
	}

	var users []*models.User
	if err := json.Unmarshal(data, &users); err != nil {
		log.Warnf("Malformed user file %s: %v", s.path, err)
		return []*models.User{}
	}
	result := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u != nil {
			result = append(result, u)
		}
	}
	return result
}

// Save overwrites the stored user list
func (s *UserStore) Save(users []*models.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if users == nil {
		users = []*models.User{}
	}
	return writeJSON(s.path, users)
}

// Find returns the user with the given name
func (s *UserStore) Find(username string) (*models.User, bool) {
	for _, u := range s.Load() {
		if u.Username == username {
			return u, true
		}
	}
	return nil, false
}
