package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the retrieval pipeline. Store adapters wrap these so the
// orchestrator can classify a stage failure without knowing the store driver.
var (
	// ErrStoreUnavailable indicates a backing store could not be reached at all.
	ErrStoreUnavailable = errors.New("backing store unavailable")

	// ErrStoreTimeout indicates a backing store did not answer within the stage deadline.
	ErrStoreTimeout = errors.New("backing store timeout")
)

// StoreError wraps a backing-store failure with the store and operation that produced it.
type StoreError struct {
	Store string
	Op    string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err for the given store and operation.
func NewStoreError(store, op string, err error) *StoreError {
	return &StoreError{Store: store, Op: op, Err: err}
}

// IsStoreFailure reports whether err is a non-fatal backing-store failure that
// should trigger the documented per-stage fallback.
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrStoreTimeout)
}

// OwnerScopeViolationError is raised when a store hands back an entity outside the
// requesting owner's scope. The entity is dropped; this is treated as a security
// incident and alert-logged, never silently included.
type OwnerScopeViolationError struct {
	EntityID        string
	EntityOwner     string
	RequestingOwner string
}

func (e *OwnerScopeViolationError) Error() string {
	return fmt.Sprintf("owner scope violation: entity %s owned by %s surfaced for owner %s",
		e.EntityID, e.EntityOwner, e.RequestingOwner)
}

// DataInconsistencyError is raised when the graph references an entity with no
// matching relational row. Expected failure mode of polyglot storage: log and drop.
type DataInconsistencyError struct {
	EntityID string
}

func (e *DataInconsistencyError) Error() string {
	return fmt.Sprintf("data inconsistency: entity %s referenced but has no relational row", e.EntityID)
}

// ConfigError reports one or more invalid configuration values. Fatal at startup.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}
