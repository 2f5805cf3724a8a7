package services

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notepad/pkg/auth"
	"notepad/pkg/errors"
	"notepad/pkg/storage"
)

func newAuthService(t *testing.T) (*AuthService, *storage.UserStore) {
	t.Helper()
	dir := t.TempDir()
	users := storage.NewUserStore(dir)
	return NewAuthService(users, storage.NewPrefsStore(dir), auth.NewManager(time.Minute)), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users := newAuthService(t)

	user, err := svc.Register(RegisterRequest{Username: " ann ", Password: "secret1", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Username)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	stored, ok := users.Find("ann")
	require.True(t, ok)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)

	_, ok = svc.CurrentUser()
	assert.False(t, ok)

	session, err := svc.Login(LoginRequest{Username: "ann", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ann", session.Username)
	assert.NotNil(t, svc.Session(session.Token))

	current, ok := svc.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "ann", current)
}

func TestRegisterRejects(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(RegisterRequest{Username: "ann", Password: "short"})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrTypeValidation, appErr.Type)

	_, err = svc.Register(RegisterRequest{Username: "ann", Password: "secret1", Email: "not-an-email"})
	require.Error(t, err)

	_, err = svc.Register(RegisterRequest{Username: "ann", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(RegisterRequest{Username: "ann", Password: "secret2"})
	assert.True(t, stderrors.Is(err, errors.ErrRegistrationFailed))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(RegisterRequest{Username: "ann", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(LoginRequest{Username: "ann", Password: "wrong"})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidCredentials))

	_, err = svc.Login(LoginRequest{Username: "bob", Password: "secret1"})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidCredentials))

	_, ok := svc.CurrentUser()
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(RegisterRequest{Username: "ann", Password: "secret1"})
	require.NoError(t, err)
	session, err := svc.Login(LoginRequest{Username: "ann", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(session.Token))
	assert.Nil(t, svc.Session(session.Token))
	_, ok := svc.CurrentUser()
	assert.False(t, ok)

	assert.True(t, stderrors.Is(svc.Logout(session.Token), errors.ErrNotAuthenticated))
}

func TestForgetCurrentUser(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(RegisterRequest{Username: "ann", Password: "secret1"})
	require.NoError(t, err)
	session, err := svc.Login(LoginRequest{Username: "ann", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, svc.ForgetCurrentUser())
	_, ok := svc.CurrentUser()
	assert.False(t, ok)
	assert.NotNil(t, svc.Session(session.Token))
}

func TestRegisterAndLoginOverNullRecords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.UsersFileName), []byte("[null]"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.PrefsFileName), []byte("null"), 0644))
	svc := NewAuthService(storage.NewUserStore(dir), storage.NewPrefsStore(dir), auth.NewManager(time.Minute))

	require.NotPanics(t, func() {
		_, err := svc.Register(RegisterRequest{Username: "ann", Password: "secret1", Email: "ann@example.com"})
		require.NoError(t, err)
		_, err = svc.Login(LoginRequest{Username: "ann", Password: "secret1"})
		require.NoError(t, err)
	})
	current, ok := svc.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "ann", current)
}
