package models

import "errors"

var (
	// ErrValidation marks a rejected input: blank required field or unknown match type.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an operation on a rule id that is not in the list.
	ErrNotFound = errors.New("rule not found")
	// ErrStorage marks a failure of the persistence substrate.
	ErrStorage = errors.New("storage failure")
	// ErrImport marks a rejected import payload. Nothing is written when it is returned.
	ErrImport = errors.New("import rejected")
)
