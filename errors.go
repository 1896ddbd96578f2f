package blocks

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("blocks: entity not found")

	// ErrValidation is matched by every ValidationFailure.
	ErrValidation = errors.New("blocks: validation failed")

	// ErrSchemaConflict is returned when creating a table, index or
	// foreign key that already exists.
	ErrSchemaConflict = errors.New("blocks: schema object already exists")

	// ErrUnresolvedType is returned when a type name has no registered model.
	ErrUnresolvedType = errors.New("blocks: unresolved model type")

	// ErrNotInstalled is returned by operations that need the database
	// while the system is not installed.
	ErrNotInstalled = errors.New("blocks: not installed")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("blocks: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("blocks: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the model name.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given model.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ValidationError is a single rule violation on an attribute.
type ValidationError struct {
	Attribute string // Attribute name
	Rule      string // Rule kind, for example "required" or "unique"
	Message   string
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("blocks: %s validator failed for attribute %q: %s", e.Rule, e.Attribute, e.Message)
}

// NewValidationError returns a new ValidationError.
func NewValidationError(attr, rule, msg string) *ValidationError {
	return &ValidationError{Attribute: attr, Rule: rule, Message: msg}
}

// ValidationFailure aborts a save. It lists every rule violation found.
type ValidationFailure struct {
	Model  string
	Errors []*ValidationError
}

// Error returns the error string.
func (e *ValidationFailure) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("blocks: validating %s: %s", e.Model, strings.TrimPrefix(e.Errors[0].Error(), "blocks: "))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "blocks: validating %s: %d errors:", e.Model, len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %s", i+1, strings.TrimPrefix(err.Error(), "blocks: "))
	}
	return sb.String()
}

// Is reports whether the target error is ErrValidation.
func (e *ValidationFailure) Is(err error) bool {
	return err == ErrValidation
}

// Attribute returns the violations on the given attribute.
func (e *ValidationFailure) Attribute(name string) []*ValidationError {
	var errs []*ValidationError
	for _, v := range e.Errors {
		if v.Attribute == name {
			errs = append(errs, v)
		}
	}
	return errs
}

// NewValidationFailure returns a ValidationFailure if there are violations,
// otherwise returns nil.
func NewValidationFailure(model string, errs []*ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationFailure{Model: model, Errors: errs}
}

// IsValidationError returns true if the error is a ValidationFailure or a
// single ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var (
		f *ValidationFailure
		e *ValidationError
	)
	return errors.As(err, &f) || errors.As(err, &e)
}

// SchemaConflictError is returned when a DDL statement creates an object
// that already exists.
type SchemaConflictError struct {
	Object string // "table", "index" or "foreign key"
	Name   string
	Err    error // Underlying driver error
}

// Error returns the error string.
func (e *SchemaConflictError) Error() string {
	return fmt.Sprintf("blocks: %s %q already exists: %v", e.Object, e.Name, e.Err)
}

// Is reports whether the target error is ErrSchemaConflict.
func (e *SchemaConflictError) Is(err error) bool {
	return err == ErrSchemaConflict
}

// Unwrap returns the underlying error.
func (e *SchemaConflictError) Unwrap() error {
	return e.Err
}

// NewSchemaConflictError returns a new SchemaConflictError.
func NewSchemaConflictError(object, name string, err error) *SchemaConflictError {
	return &SchemaConflictError{Object: object, Name: name, Err: err}
}

// IsSchemaConflict returns true if the error is a SchemaConflictError.
func IsSchemaConflict(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaConflictError
	return errors.As(err, &e)
}

// ResolutionError is returned when a type name, usually built from a "class"
// discriminator, has no registered model.
type ResolutionError struct {
	Type string
}

// Error returns the error string.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("blocks: unresolved model type %q", e.Type)
}

// Is reports whether the target error is ErrUnresolvedType.
func (e *ResolutionError) Is(err error) bool {
	return err == ErrUnresolvedType
}

// NewResolutionError returns a new ResolutionError.
func NewResolutionError(typ string) *ResolutionError {
	return &ResolutionError{Type: typ}
}

// IsResolutionError returns true if the error is a ResolutionError.
func IsResolutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ResolutionError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("blocks: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("blocks: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "blocks: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("blocks: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// QueryError wraps a query error with additional context.
type QueryError struct {
	Model string // Model being queried
	Op    string // Operation (e.g., "content", "blocks", "settings", "find")
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("blocks: querying %s (%s): %v", e.Model, e.Op, e.Err)
	}
	return fmt.Sprintf("blocks: querying %s: %v", e.Model, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(model, op string, err error) *QueryError {
	return &QueryError{Model: model, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a mutation error with additional context.
type MutationError struct {
	Model string // Model being mutated
	Op    string // Operation (e.g., "create", "update", "settings")
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("blocks: %s %s: %v", e.Op, e.Model, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(model, op string, err error) *MutationError {
	return &MutationError{Model: model, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}
