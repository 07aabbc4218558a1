package goblin

import (
	"errors"
	"fmt"

	"github.com/dd0wney/goblin/pkg/edit"
)

// Common sentinel errors
var (
	ErrDomainViolation        = errors.New("outside constraint type domain")
	ErrConflictingTargets     = errors.New("constraint targets overlap")
	ErrInvalidRootOperation   = errors.New("operation not permitted on root")
	ErrConceptNotFound        = errors.New("concept not found")
	ErrHierarchyNotFound      = errors.New("hierarchy not found")
	ErrConstraintTypeNotFound = errors.New("constraint type not found")
	ErrDuplicateID            = errors.New("duplicate identifier")
	ErrInvalidMove            = errors.New("invalid move")
	ErrHasChildren            = errors.New("concept has children")
	ErrFixedIdentity          = errors.New("concept identity is fixed")
	ErrSemanticsDisabled      = errors.New("semantics not enabled for constraint type")
	ErrNoTargets              = errors.New("constraint requires at least one target")
	ErrNotAttached            = errors.New("entity is not attached to the model")

	ErrNothingToUndo = edit.ErrNothingToUndo
	ErrNothingToRedo = edit.ErrNothingToRedo
)

// EditError provides structured error information for model operations.
type EditError struct {
	Op      string // Operation that failed (e.g., "move", "add-constraint")
	Entity  string // Entity kind (e.g., "concept", "constraint", "hierarchy")
	ID      string // Entity identifier (if applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *EditError) Error() string {
	if e.ID != "" {
		if e.Context != "" {
			return fmt.Sprintf("%s %s %s (%s): %v", e.Op, e.Entity, e.ID, e.Context, e.Cause)
		}
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Entity, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *EditError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *EditError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building EditErrors.
type ErrorBuilder struct {
	err EditError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: EditError{Op: op}}
}

// Concept sets the entity to "concept" with the given ID.
func (b *ErrorBuilder) Concept(id EntityID) *ErrorBuilder {
	b.err.Entity = "concept"
	b.err.ID = id.String()
	return b
}

// Constraint sets the entity to "constraint", described by its string form.
func (b *ErrorBuilder) Constraint(k *Constraint) *ErrorBuilder {
	b.err.Entity = "constraint"
	b.err.ID = k.String()
	return b
}

// ConstraintType sets the entity to "constraint type" with the given name.
func (b *ErrorBuilder) ConstraintType(name string) *ErrorBuilder {
	b.err.Entity = "constraint type"
	b.err.ID = name
	return b
}

// Hierarchy sets the entity to "hierarchy" with the given root ID.
func (b *ErrorBuilder) Hierarchy(id EntityID) *ErrorBuilder {
	b.err.Entity = "hierarchy"
	b.err.ID = id.String()
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed EditError.
func (b *ErrorBuilder) Build() *EditError {
	return &b.err
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// ConceptNotFoundError creates a concept not found error.
func ConceptNotFoundError(id EntityID) error {
	return NewError("lookup").Concept(id).Cause(ErrConceptNotFound).Err()
}

// HierarchyNotFoundError creates a hierarchy not found error.
func HierarchyNotFoundError(id EntityID) error {
	return NewError("lookup").Hierarchy(id).Cause(ErrHierarchyNotFound).Err()
}

// ConstraintTypeNotFoundError creates a constraint type not found error.
func ConstraintTypeNotFoundError(name string) error {
	return NewError("lookup").ConstraintType(name).Cause(ErrConstraintTypeNotFound).Err()
}

// RootOperationError reports an attempt to move, rename or remove a root.
func RootOperationError(op string, id EntityID) error {
	return NewError(op).Concept(id).Cause(ErrInvalidRootOperation).Err()
}

// IsNotFound returns true for any of the lookup failures.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConceptNotFound) ||
		errors.Is(err, ErrHierarchyNotFound) ||
		errors.Is(err, ErrConstraintTypeNotFound)
}
