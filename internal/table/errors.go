package table

import "errors"

var (
	// ErrPrepare wraps failures to prepare a statement.
	ErrPrepare = errors.New("failed to prepare statement")
	// ErrExec wraps failures to execute a prepared statement.
	ErrExec = errors.New("failed to execute statement")

	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrNoValues          = errors.New("no values supplied")
	ErrBind              = errors.New("cannot bind value")
)
