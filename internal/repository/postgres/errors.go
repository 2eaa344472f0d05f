// Package postgres holds the error vocabulary shared by the PostgreSQL
// repositories and their callers.
package postgres

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when an insert violates a unique constraint.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotUpdated is returned when a conditional update matched no row.
	ErrNotUpdated = errors.New("no row matched the update")
)
