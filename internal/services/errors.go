package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Kind string

const (
	KindInvalidInput     Kind = "InvalidInput"
	KindNotFound         Kind = "NotFound"
	KindInvalidReference Kind = "InvalidReference"
	KindInvalidOperation Kind = "InvalidOperation"
	KindStorageFault     Kind = "StorageFault"
)

// Error is the only error type returned by the services. Handlers switch on
// Kind instead of comparing messages.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err, treating anything that is not an *Error as
// a storage fault.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindStorageFault
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind Kind) bool {
	var svcErr *Error
	return errors.As(err, &svcErr) && svcErr.Kind == kind
}

func invalidInput(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func notFound(entity string) error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func invalidReference(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidReference, Message: fmt.Sprintf(format, args...)}
}

func invalidOperation(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidOperation, Message: fmt.Sprintf(format, args...)}
}

func storageFault(message string, err error) error {
	return &Error{Kind: KindStorageFault, Message: message, Err: err}
}

// fromStore maps a gorm error onto the taxonomy. Errors that are already
// service errors pass through unchanged.
func fromStore(err error, entity string) error {
	if err == nil {
		return nil
	}

	var svcErr *Error
	switch {
	case errors.As(err, &svcErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(entity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &Error{Kind: KindInvalidReference, Message: "referenced record does not exist", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindInvalidInput, Message: entity + " already exists", Err: err}
	default:
		return storageFault("failed to access "+entity, err)
	}
}
