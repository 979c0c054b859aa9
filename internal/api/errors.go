package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is wrapped by lookups that find nothing.
var ErrNotFound = errors.New("not found")

// OperationError is the single failure shape of the remote client.
type OperationError struct {
	Entity     string
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *OperationError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("%s %s failed: %v", e.Entity, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s %s failed: status %d: %v", e.Entity, e.Op, e.StatusCode, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s %s failed: status %d: %s", e.Entity, e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s %s failed: status %d", e.Entity, e.Op, e.StatusCode)
	}
}

func (e *OperationError) Unwrap() error { return e.Err }

// RemoteStatus is the HTTP status of the response, zero when none arrived.
func (e *OperationError) RemoteStatus() int { return e.StatusCode }

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *OperationError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsStatus reports whether err is an OperationError carrying code.
func IsStatus(err error, code int) bool {
	var op *OperationError
	return errors.As(err, &op) && op.StatusCode == code
}
