package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrMalformedDocument = errors.New("project document is not a JSON object")
	ErrSaveInProgress    = errors.New("a remote save is already in progress")
	ErrAlreadyHydrated   = errors.New("project state already hydrated")
)

// Storage tiers.
const (
	TierLocal  = "local"
	TierRemote = "remote"
)

// PersistenceError is a failed read or write against one storage tier.
type PersistenceError struct {
	Tier string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Tier, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// MalformedImportError rejects an imported file that is not a JSON object.
type MalformedImportError struct {
	Err error
}

func (e *MalformedImportError) Error() string {
	return fmt.Sprintf("import: %v", e.Err)
}

func (e *MalformedImportError) Unwrap() []error {
	return []error{ErrMalformedDocument, e.Err}
}
