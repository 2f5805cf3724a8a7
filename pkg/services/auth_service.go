package services

import (
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"notepad/pkg/auth"
	"notepad/pkg/errors"
	"notepad/pkg/models"
	"notepad/pkg/storage"
)

// RegisterRequest is the sign-up form
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// LoginRequest is the sign-in form
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthService handles authentication business logic
type AuthService struct {
	users     *storage.UserStore
	prefs     *storage.PrefsStore
	sessions  *auth.Manager
	validator *errors.Validator
	now       func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(users *storage.UserStore, prefs *storage.PrefsStore, sessions *auth.Manager) *AuthService {
	return &AuthService{
		users:     users,
		prefs:     prefs,
		sessions:  sessions,
		validator: errors.NewValidator(),
		now:       time.Now,
	}
}

// Register creates an account. Taken usernames fail without saying why.
func (s *AuthService) Register(req RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if result := s.validator.ValidateStruct(req); !result.IsValid {
		err := result.GetFirstError()
		err.Log()
		return nil, err
	}

	users := s.users.Load()
	for _, u := range users {
		if u.Username == req.Username {
			err := errors.ErrRegistrationFailed.WithContext("username", req.Username)
			err.Log()
			return nil, err
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		appErr := errors.Wrap(err, errors.ErrTypeApp, "PASSWORD_HASH_FAILED", "failed to hash password").
			WithUserMessage("Registration failed. Please try again")
		appErr.Log()
		return nil, appErr
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Email:        req.Email,
		CreatedAt:    s.now(),
	}
	if err := s.users.Save(append(users, user)); err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			appErr.Log()
		}
		return nil, err
	}

	log.Infof("User registered: %s", user.Username)
	c := *user
	return &c, nil
}

// Login checks credentials and opens a session
func (s *AuthService) Login(req LoginRequest) (*models.Session, error) {
	req.Username = strings.TrimSpace(req.Username)

	if result := s.validator.ValidateStruct(req); !result.IsValid {
		err := result.GetFirstError()
		err.Log()
		return nil, err
	}

	user, ok := s.users.Find(req.Username)
	if !ok || !auth.VerifyPassword(user.PasswordHash, req.Password) {
		// Log authentication failure for security monitoring
		err := errors.ErrInvalidCredentials.WithContext("username", req.Username)
		err.Log()
		return nil, err
	}

	session := s.sessions.CreateSession(user.Username)
	if err := s.prefs.Set(storage.PrefCurrentUser, user.Username); err != nil {
		log.Warnf("Could not record current user: %v", err)
	}

	log.Infof("User logged in: %s", user.Username)
	return session, nil
}

// Logout ends the session behind token
func (s *AuthService) Logout(token string) error {
	session := s.sessions.Lookup(token)
	if session == nil {
		return errors.ErrNotAuthenticated
	}
	s.sessions.DeleteSession(token)

	if current, ok := s.prefs.Get(storage.PrefCurrentUser); ok && current == session.Username {
		if err := s.prefs.Delete(storage.PrefCurrentUser); err != nil {
			log.Warnf("Could not clear current user: %v", err)
		}
	}

	log.Infof("User logged out: %s", session.Username)
	return nil
}

// CurrentUser returns the user recorded by the last login
func (s *AuthService) CurrentUser() (string, bool) {
	return s.prefs.Get(storage.PrefCurrentUser)
}

// ForgetCurrentUser clears the remembered login without touching sessions
func (s *AuthService) ForgetCurrentUser() error {
	return s.prefs.Delete(storage.PrefCurrentUser)
}

// Session returns the live session for token
func (s *AuthService) Session(token string) *models.Session {
	return s.sessions.Lookup(token)
}
