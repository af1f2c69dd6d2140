package store

import (
	"context"
	"errors"
	"fmt"

	"smarttodo/internal/models"
)

// LocalStore is the durable mirror of the whole task collection.
type LocalStore interface {
	// Load returns the stored collection. A missing file yields an empty
	// collection and no error; unreadable or malformed content yields an empty
	// collection together with the error.
	Load() ([]models.Task, error)
	// Save replaces the stored collection.
	Save(tasks []models.Task) error
}

// Remote is a hosted row store holding the shared copy of the task table.
type Remote interface {
	Insert(ctx context.Context, row models.Row) (models.Row, error)
	SelectAll(ctx context.Context) ([]models.Row, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) (models.Row, error)
	Delete(ctx context.Context, id int64) (models.Row, error)
	Close() error
}

// RemoteErrorKind classifies remote failures.
type RemoteErrorKind int

const (
	// RemoteUnavailable means the store could not be reached.
	RemoteUnavailable RemoteErrorKind = iota
	// RemoteOperationFailed means the store was reached but the operation failed.
	RemoteOperationFailed
	// RemoteNotFound means the targeted row does not exist.
	RemoteNotFound
)

func (k RemoteErrorKind) String() string {
	switch k {
	case RemoteUnavailable:
		return "unavailable"
	case RemoteOperationFailed:
		return "operation failed"
	case RemoteNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// RemoteError is returned by every Remote implementation.
type RemoteError struct {
	Op   string
	Kind RemoteErrorKind
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("remote %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("remote %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemoteKind reports whether err is a RemoteError of the given kind.
func IsRemoteKind(err error, kind RemoteErrorKind) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == kind
}

func remoteErr(op string, kind RemoteErrorKind, err error) error {
	return &RemoteError{Op: op, Kind: kind, Err: err}
}
