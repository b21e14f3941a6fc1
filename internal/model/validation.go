package model

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordLength = 72
)

var (
	phonePattern    = regexp.MustCompile(`^\d{9,15}$`)
	noSpacesPattern = regexp.MustCompile(`^\S+$`)
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every invalid field of a request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v *ValidationErrors) add(field, msg string) {
	*v = append(*v, FieldError{Field: field, Message: msg})
}

func (v ValidationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.add(field, field+" is required")
		return false
	}
	return true
}

func (v *ValidationErrors) email(field, value string) {
	if !v.required(field, value) {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.add(field, field+" must be a valid email address")
	}
}

func (v *ValidationErrors) password(field, value string) {
	switch {
	case utf8.RuneCountInString(value) < MinPasswordLength:
		v.add(field, field+" must contain at least 8 characters")
	case len(value) > MaxPasswordLength:
		v.add(field, field+" must contain at most 72 bytes")
	}
}

func (v *ValidationErrors) phone(field, value string) {
	if !phonePattern.MatchString(value) {
		v.add(field, field+" must contain only digits (min 9, max 15)")
	}
}

// Validate checks a signup request.
func (r CreateUserRequest) Validate() error {
	var errs ValidationErrors
	errs.required("name", r.Name)
	if errs.required("username", r.Username) && !noSpacesPattern.MatchString(r.Username) {
		errs.add("username", "username must not contain spaces")
	}
	errs.password("password", r.Password)
	errs.email("email", r.Email)
	errs.phone("phone", r.PhoneNumber)
	return errs.err()
}

func (r LoginRequest) Validate() error {
	var errs ValidationErrors
	errs.email("email", r.Email)
	errs.required("password", r.Password)
	return errs.err()
}

func (r UpdateUserRequest) Validate() error {
	var errs ValidationErrors
	if r.Name != nil {
		errs.required("name", *r.Name)
	}
	if r.PhoneNumber != nil {
		errs.phone("phone", *r.PhoneNumber)
	}
	return errs.err()
}

func (r ChangePasswordRequest) Validate() error {
	var errs ValidationErrors
	errs.required("current_password", r.CurrentPassword)
	errs.password("new_password", r.NewPassword)
	return errs.err()
}

func (r ResetPasswordRequest) Validate() error {
	var errs ValidationErrors
	errs.email("email", r.Email)
	errs.password("new_password", r.NewPassword)
	return errs.err()
}

func (r VerifyAccountRequest) Validate() error {
	var errs ValidationErrors
	errs.required("verification_code", r.Code)
	return errs.err()
}

func (r CreateTaskRequest) Validate() error {
	var errs ValidationErrors
	errs.required("name", r.Name)
	errs.required("content", r.Content)
	return errs.err()
}

func (r UpdateTaskRequest) Validate() error {
	var errs ValidationErrors
	if errs.required("id", r.ID) {
		ValidateID(&errs, "id", r.ID)
	}
	return errs.err()
}

// ValidateID records an error on errs when value is not a canonical uuid.
func ValidateID(errs *ValidationErrors, field, value string) {
	if err := uuid.Validate(value); err != nil {
		errs.add(field, field+" must be a valid id")
	}
}

// ValidateTaskID checks a task id taken from the URL path.
func ValidateTaskID(id string) error {
	var errs ValidationErrors
	ValidateID(&errs, "id", id)
	return errs.err()
}
