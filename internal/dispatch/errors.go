package dispatch

import (
	"fmt"

	"booksearch/internal/service"
	"booksearch/internal/validation"
)

// UnknownOperationError reports an operation name outside the enum.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	if e.Name == "" {
		return "operation is required"
	}
	return fmt.Sprintf("unknown operation %q", e.Name)
}

func (e *UnknownOperationError) Unwrap() error { return service.ErrInvalidInput }

// ArgsError reports arguments that failed to decode or validate.
type ArgsError struct {
	Op  Operation
	Err error
}

func (e *ArgsError) Error() string {
	return fmt.Sprintf("%s: invalid args: %v", e.Op, e.Err)
}

func (e *ArgsError) Unwrap() []error { return []error{service.ErrInvalidInput, e.Err} }

// Details renders the failure per field.
func (e *ArgsError) Details() map[string]string {
	return validation.ToDetails(e.Err)
}
