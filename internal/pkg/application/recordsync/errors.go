package recordsync

import (
	"errors"
	"fmt"
)

var ErrUnknownEntity = errors.New("unknown entity type")
var ErrUnknownRecord = errors.New("unknown record")
var ErrInvalidForm = errors.New("invalid form")
var ErrInvalidTransition = errors.New("invalid transition")

type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// MutationError is returned when the record store rejects a create, update or delete
type MutationError struct {
	Op       Operation
	Entity   string
	RecordID string
	Err      error
}

func (e *MutationError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("%s %s failed: %s", e.Op, e.Entity, e.Err.Error())
	}
	return fmt.Sprintf("%s %s %s failed: %s", e.Op, e.Entity, e.RecordID, e.Err.Error())
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

func newFormError(field, format string, args ...any) error {
	return fmt.Errorf("%s: %s (%w)", field, fmt.Sprintf(format, args...), ErrInvalidForm)
}
