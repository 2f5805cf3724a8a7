package models

import "time"

// User is a registered account
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents a logged-in user. It is passed explicitly through the
// service and handler layers instead of living in a global.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Settings are user-visible display preferences
type Settings struct {
	Theme           string `yaml:"theme" json:"theme"`
	BackgroundColor string `yaml:"background_color" json:"background_color"`
	FontSize        int    `yaml:"font_size" json:"font_size"`
}

// DefaultSettings returns the settings used before anything is saved
func DefaultSettings() Settings {
	return Settings{
		Theme:           "light",
		BackgroundColor: "#FFFFFF",
		FontSize:        16,
	}
}
