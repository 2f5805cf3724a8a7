package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/labstack/gommon/log"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// Authentication errors
	ErrTypeAuth ErrorType = "authentication"
	// File system errors
	ErrTypeFileSystem ErrorType = "filesystem"
	// Configuration errors
	ErrTypeConfig ErrorType = "configuration"
	// Validation errors
	ErrTypeValidation ErrorType = "validation"
	// Lookup misses
	ErrTypeNotFound ErrorType = "not_found"
	// Uniqueness conflicts
	ErrTypeConflict ErrorType = "conflict"
	// Generic application errors
	ErrTypeApp ErrorType = "application"
)

// AppError represents a structured application error
type AppError struct {
	Type        ErrorType              `json:"type"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	UserMessage string                 `json:"userMessage"`
	InternalErr error                  `json:"-"`
	Retryable   bool                   `json:"retryable"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.InternalErr != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.InternalErr)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap exposes the wrapped error
func (e *AppError) Unwrap() error {
	return e.InternalErr
}

// Is matches another AppError by type and code, so predefined errors work
// with errors.Is after With* copies have been made.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// GetUserMessage returns a user-friendly error message
func (e *AppError) GetUserMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

func (e *AppError) clone() *AppError {
	c := *e
	if e.Context != nil {
		c.Context = make(map[string]interface{}, len(e.Context))
		for k, v := range e.Context {
			c.Context[k] = v
		}
	}
	return &c
}

// WithContext returns a copy of the error with a context entry added
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	c := e.clone()
	if c.Context == nil {
		c.Context = make(map[string]interface{})
	}
	c.Context[key] = value
	return c
}

// WithUserMessage returns a copy with a user-friendly message
func (e *AppError) WithUserMessage(msg string) *AppError {
	c := e.clone()
	c.UserMessage = msg
	return c
}

// WithRetryable returns a copy marked as retryable or not
func (e *AppError) WithRetryable(retryable bool) *AppError {
	c := e.clone()
	c.Retryable = retryable
	return c
}

// WithCause returns a copy wrapping err
func (e *AppError) WithCause(err error) *AppError {
	c := e.clone()
	c.InternalErr = err
	return c
}

// IsRetryable checks if the error can be retried
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// Log logs the error with appropriate level
func (e *AppError) Log() {
	contextStr := ""
	if len(e.Context) > 0 {
		parts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		sort.Strings(parts)
		contextStr = fmt.Sprintf(" [%s]", strings.Join(parts, ", "))
	}

	switch e.Type {
	case ErrTypeValidation, ErrTypeNotFound, ErrTypeConflict:
		log.Warnf("%s%s", e.Error(), contextStr)
	default:
		log.Errorf("%s%s", e.Error(), contextStr)
	}
}

// New creates a new AppError
func New(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:        errType,
		Code:        code,
		Message:     message,
		InternalErr: err,
	}
}

// AsAppError extracts an *AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Predefined errors for common scenarios
var (
	// Authentication errors
	ErrNotAuthenticated = New(ErrTypeAuth, "NOT_AUTHENTICATED", "user not authenticated").
				WithUserMessage("Please log in to continue")

	ErrInvalidCredentials = New(ErrTypeAuth, "INVALID_CREDENTIALS", "invalid username or password").
				WithUserMessage("Invalid username or password")

	ErrRegistrationFailed = New(ErrTypeConflict, "REGISTRATION_FAILED", "registration failed").
				WithUserMessage("Registration failed. Please try a different username")

	ErrInvalidNotePassword = New(ErrTypeAuth, "INVALID_NOTE_PASSWORD", "invalid note password").
				WithUserMessage("Incorrect password for this note")

	// Validation errors
	ErrPasswordTooShort = New(ErrTypeValidation, "PASSWORD_TOO_SHORT", "password too short").
				WithUserMessage("Password must be at least 6 characters long")

	ErrNoteEmpty = New(ErrTypeValidation, "NOTE_EMPTY", "note has no title and no content").
			WithUserMessage("Nothing to save")

	// Lookup errors
	ErrNoteNotFound = New(ErrTypeNotFound, "NOTE_NOT_FOUND", "note not found").
			WithUserMessage("The requested note could not be found")

	ErrBackupNotFound = New(ErrTypeNotFound, "BACKUP_NOT_FOUND", "backup not found").
				WithUserMessage("The requested backup does not exist")

	// File system errors
	ErrBackupCorrupt = New(ErrTypeFileSystem, "BACKUP_CORRUPT", "backup is unreadable").
				WithUserMessage("The backup file is damaged and cannot be restored")

	ErrDirectoryCreationFailed = New(ErrTypeFileSystem, "DIR_CREATE_FAILED", "failed to create directory").
					WithUserMessage("Unable to create required directory. Check permissions")

	ErrFileReadFailed = New(ErrTypeFileSystem, "FILE_READ_FAILED", "failed to read file").
				WithUserMessage("Unable to read file. It may be corrupted or inaccessible")

	ErrFileWriteFailed = New(ErrTypeFileSystem, "FILE_WRITE_FAILED", "failed to write file").
				WithUserMessage("Unable to save file. Check disk space and permissions")

	ErrBackupFailed = New(ErrTypeFileSystem, "BACKUP_FAILED", "failed to write backup").
			WithUserMessage("Backup could not be created")

	ErrExportFailed = New(ErrTypeFileSystem, "EXPORT_FAILED", "failed to export notes").
			WithUserMessage("Export failed. Check disk space and permissions")

	// Configuration errors
	ErrConfigLoadFailed = New(ErrTypeConfig, "CONFIG_LOAD_FAILED", "failed to load configuration").
				WithUserMessage("Configuration file could not be loaded. Using defaults")

	ErrConfigSaveFailed = New(ErrTypeConfig, "CONFIG_SAVE_FAILED", "failed to save configuration").
				WithUserMessage("Unable to save settings. Check permissions")
)

// RetryHandler provides retry functionality for operations
type RetryHandler struct {
	MaxAttempts int
	OnRetry     func(attempt int, err error)
}

// NewRetryHandler creates a new retry handler
func NewRetryHandler(maxAttempts int) *RetryHandler {
	return &RetryHandler{
		MaxAttempts: maxAttempts,
		OnRetry: func(attempt int, err error) {
			log.Warnf("Retry attempt %d/%d failed: %v", attempt, maxAttempts, err)
		},
	}
}

// Execute runs a function with retry logic. Errors that are AppErrors
// without the retryable flag stop the loop immediately.
func (r *RetryHandler) Execute(fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if appErr, ok := AsAppError(err); ok && !appErr.IsRetryable() {
			return err
		}

		if attempt < r.MaxAttempts && r.OnRetry != nil {
			r.OnRetry(attempt, err)
		}
	}

	if appErr, ok := AsAppError(lastErr); ok {
		return appErr.WithRetryable(false).WithContext("attempts", r.MaxAttempts)
	}
	return Wrap(lastErr, ErrTypeApp, "MAX_RETRIES_EXCEEDED",
		fmt.Sprintf("operation failed after %d attempts", r.MaxAttempts)).
		WithUserMessage("Operation failed after multiple attempts. Please try again later")
}
