package errors

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationResult holds validation results
type ValidationResult struct {
	IsValid bool
	Errors  []*AppError
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(err *AppError) {
	vr.IsValid = false
	vr.Errors = append(vr.Errors, err)
}

// GetFirstError returns the first error or nil
func (vr *ValidationResult) GetFirstError() *AppError {
	if len(vr.Errors) > 0 {
		return vr.Errors[0]
	}
	return nil
}

// Validator wraps go-playground/validator and turns field errors into AppErrors
type Validator struct {
	validate *validator.Validate
}

var (
	sharedValidate     *validator.Validate
	sharedValidateOnce sync.Once
)

// NewValidator creates a new validator
func NewValidator() *Validator {
	sharedValidateOnce.Do(func() {
		sharedValidate = validator.New(validator.WithRequiredStructEnabled())
		// Report json field names rather than Go field names
		sharedValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return &Validator{validate: sharedValidate}
}

// ValidateStruct runs struct tag validation and reports one AppError per
// failing field, in declaration order.
func (v *Validator) ValidateStruct(s interface{}) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	err := v.validate.Struct(s)
	if err == nil {
		return result
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		result.AddError(Wrap(err, ErrTypeValidation, "INVALID_INPUT", "invalid input").
			WithUserMessage("The request could not be validated"))
		return result
	}

	for _, fe := range fieldErrs {
		result.AddError(fieldError(fe))
	}
	return result
}

func fieldError(fe validator.FieldError) *AppError {
	field := fe.Field()
	upper := strings.ToUpper(field)

	switch fe.Tag() {
	case "required":
		return New(ErrTypeValidation, upper+"_EMPTY", field+" cannot be empty").
			WithUserMessage(fmt.Sprintf("Please enter %s", field)).
			WithContext("field", field)
	case "min":
		if field == "password" {
			return ErrPasswordTooShort.WithContext("field", field)
		}
		return New(ErrTypeValidation, upper+"_TOO_SHORT", field+" too short").
			WithUserMessage(fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())).
			WithContext("field", field)
	case "max":
		return New(ErrTypeValidation, upper+"_TOO_LONG", field+" too long").
			WithUserMessage(fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())).
			WithContext("field", field)
	default:
		return New(ErrTypeValidation, upper+"_INVALID", field+" is invalid").
			WithUserMessage(fmt.Sprintf("%s is invalid", field)).
			WithContext("field", field).
			WithContext("rule", fe.Tag())
	}
}

// ValidateNoteID validates note ID format
func (v *Validator) ValidateNoteID(id string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if strings.TrimSpace(id) == "" {
		result.AddError(New(ErrTypeValidation, "ID_EMPTY", "note ID cannot be empty").
			WithUserMessage("Note ID is required"))
		return result
	}

	if err := v.validate.Var(id, "uuid"); err != nil {
		result.AddError(New(ErrTypeValidation, "ID_INVALID", "invalid note ID format").
			WithUserMessage("Invalid note ID format").
			WithContext("noteId", id))
	}

	return result
}

// ValidateNoteContent rejects oversized note bodies (> 1MB)
func (v *Validator) ValidateNoteContent(content string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if len(content) > 1024*1024 {
		result.AddError(New(ErrTypeValidation, "CONTENT_TOO_LARGE", "note content too large").
			WithUserMessage("Note content is too large. Maximum size is 1MB").
			WithContext("size", len(content)))
	}

	return result
}
