package forum

import (
	"errors"
	"fmt"
	"strings"

	"boards/internal/forms"
)

var (
	// ErrNotFound means the referenced board, topic or post does not exist,
	// or (for edits) is not owned by the caller.
	ErrNotFound = errors.New("forum: not found")
	// ErrUnauthorized means the operation needs an authenticated user.
	ErrUnauthorized = errors.New("forum: authentication required")
	// ErrStorage wraps every failure of the storage collaborator.
	ErrStorage = errors.New("forum: storage failure")
)

// ValidationError carries field-level messages for a rejected form.
type ValidationError struct {
	Fields forms.FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	return fmt.Sprintf("forum: invalid fields: %s", strings.Join(names, ", "))
}

func storageFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
