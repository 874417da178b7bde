package services

import (
	"errors"
	"fmt"
	"strings"

	"quill/app/models"
	"quill/app/repositories"
)

var (
	// ErrUnauthenticated means the action needs a signed in user.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the user may not perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned by Login for any email/password miss.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NotFoundError reports a missing record. It matches repositories.ErrNotFound.
type NotFoundError struct {
	Resource string
	ID       int64
}

// Error keeps the message format existing API clients match on, naming the
// record by its model class.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf(`No query results for model [App\Models\%s] %d`, modelName(e.Resource), e.ID)
}

// modelName turns a resource name such as "post" into "Post".
func modelName(resource string) string {
	if resource == "" {
		return resource
	}
	return strings.ToUpper(resource[:1]) + resource[1:]
}

func (e *NotFoundError) Unwrap() error {
	return repositories.ErrNotFound
}

// notFound turns a repository miss into a NotFoundError and wraps anything
// else with context.
func notFound(err error, resource string, id int64) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("load %s %d: %w", resource, id, err)
}

// uniqueViolation turns a store uniqueness failure into a field validation
// error. Other errors pass through.
func uniqueViolation(err error) error {
	var dup *repositories.DuplicateError
	if !errors.As(err, &dup) {
		return err
	}
	msg := models.Message(dup.Field, "unique")
	if msg == "" {
		msg = fmt.Sprintf("%s zaten kullanılıyor", dup.Field)
	}
	return models.NewValidationError(dup.Field, msg)
}
