package db

import (
	"errors"
	"strconv"
)

// Sentinel errors for backend and storage operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
)

// Op names used for error context.
const (
	OpQuery      = "xapian.query"
	OpFix        = "xapian.fix"
	OpPing       = "xapian.ping"
	OpBlobOpen   = "blob.open"
	OpBlobExists = "blob.exists"
	OpBlobFetch  = "blob.fetch"
	OpShardOpen  = "shard.open"
	OpShardRead  = "shard.read"
	OpGet        = "GET"
	OpExists     = "EXISTS"
)

// Error wraps an underlying error with the operation name for diagnostics.
// Status is the HTTP status of a failed backend call, zero otherwise.
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return e.Op + ": status " + strconv.Itoa(e.Status) + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
