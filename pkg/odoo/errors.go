package odoo

import (
	"errors"
	"fmt"
)

var (
	// ErrExecution matches every error returned by this package.
	ErrExecution = errors.New("odoo execution error")

	// ErrConfiguration matches configuration validation failures.
	ErrConfiguration = errors.New("odoo configuration error")

	// ErrNotFound matches single-record lookups that resolved nothing.
	ErrNotFound = errors.New("odoo record not found")
)

// ExecutionError reports a failed remote interaction: transport failure,
// malformed response, remote fault or rejected authentication.
type ExecutionError struct {
	// Op names the failing operation, e.g. "mrp.production.search_read".
	Op      string
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// ConfigurationError reports an invalid client configuration.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Message)
	}
	return "invalid configuration: " + e.Message
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration || target == ErrExecution
}

// RecordNotFoundError is returned by the Get helpers when the id does not
// resolve to a record.
type RecordNotFoundError struct {
	Model string
	ID    int64
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("%s record %d not found", e.Model, e.ID)
}

func (e *RecordNotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == ErrExecution
}

// Fault is a remote-declared error, from either the JSON-RPC error envelope
// or an XML-RPC fault response.
type Fault struct {
	Code    int
	Message string
	// Debug carries the server-side traceback when the remote sends one.
	Debug string
}

func (f *Fault) Error() string {
	if f.Code != 0 {
		return fmt.Sprintf("remote fault %d: %s", f.Code, f.Message)
	}
	return "remote fault: " + f.Message
}

func newExecutionError(op, msg string, err error) *ExecutionError {
	return &ExecutionError{Op: op, Message: msg, Err: err}
}

// wrapExecution adds op context to err unless it already is one of ours.
func wrapExecution(op string, err error) error {
	if err == nil {
		return nil
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		if execErr.Op == "" {
			execErr.Op = op
		}
		return err
	}
	if errors.Is(err, ErrExecution) {
		return err
	}
	return newExecutionError(op, "call failed", err)
}
