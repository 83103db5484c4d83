package domain

import "fmt"

// ValidationError covers malformed requests and unauthorized actors. It
// always aborts before any persistence.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// PreconditionError covers submissions rejected by ledger state, such as a
// non-bootstrap submission with no prior settlement or a resubmission
// inside the guard window.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

func Preconditionf(format string, args ...any) *PreconditionError {
	return &PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

// ExternalFetchError wraps a failed read from an external source. The
// whole submission aborts; no partial settlement is persisted.
type ExternalFetchError struct {
	Source string
	Err    error
}

func (e *ExternalFetchError) Error() string {
	return fmt.Sprintf("fetch from %s failed: %v", e.Source, e.Err)
}

func (e *ExternalFetchError) Unwrap() error { return e.Err }

// SyncError reports a failed inventory push after a successful settlement
// write. It rides inside a successful response and never fails the
// operation.
type SyncError struct {
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("inventory sync failed: %v", e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
