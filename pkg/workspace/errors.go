package workspace

import "errors"

var (
	// ErrNoteNotFound indicates the note does not exist at the current marker
	ErrNoteNotFound = errors.New("workspace: note not found")

	// ErrEmptyTitle indicates a note without a title
	ErrEmptyTitle = errors.New("workspace: note title is empty")

	// ErrLockNotFound indicates an unlock of a marker without a lock
	ErrLockNotFound = errors.New("workspace: no lock at marker")
)
