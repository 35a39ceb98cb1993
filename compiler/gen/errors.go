package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrUnsupportedShape indicates a declaration that is neither a struct nor a sealed interface.
	ErrUnsupportedShape = errors.New("arbgen: unsupported shape")
	// ErrInvalidDirective indicates an unknown, malformed or conflicting directive.
	ErrInvalidDirective = errors.New("arbgen: invalid directive")
	// ErrInvalidBound indicates a type parameter constraint that cannot be derived.
	ErrInvalidBound = errors.New("arbgen: invalid bound")
	// ErrNoBaseCase indicates a recursive union without a terminating variant.
	ErrNoBaseCase = errors.New("arbgen: recursion without base case")
	// ErrUngeneratable indicates a field whose type has no generator.
	ErrUngeneratable = errors.New("arbgen: ungeneratable field")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("arbgen: code generation failed")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("arbgen: missing configuration")
)

// ShapeError reports a declaration whose shape cannot be derived.
type ShapeError struct {
	Type    string
	Shape   string // e.g. "func", "interface"
	Message string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	var b strings.Builder
	b.WriteString("arbgen: shape error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Shape != "" {
		b.WriteString(" (")
		b.WriteString(e.Shape)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for ShapeError.
func (e *ShapeError) Is(target error) bool {
	return target == ErrUnsupportedShape
}

// NewShapeError creates a new ShapeError.
func NewShapeError(typeName, shape, message string) *ShapeError {
	return &ShapeError{
		Type:    typeName,
		Shape:   shape,
		Message: message,
	}
}

// DirectiveError reports an unknown, malformed or conflicting directive.
type DirectiveError struct {
	Item      string // "Type", "Type.Field" or "Union.Variant"
	Directive string
	Pos       string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *DirectiveError) Error() string {
	var b strings.Builder
	b.WriteString("arbgen: directive error")
	if e.Item != "" {
		b.WriteString(" on ")
		b.WriteString(e.Item)
	}
	if e.Directive != "" {
		b.WriteString(" directive ")
		b.WriteString(strconvQuote(e.Directive))
	}
	if e.Pos != "" {
		b.WriteString(" at ")
		b.WriteString(e.Pos)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *DirectiveError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for DirectiveError.
func (e *DirectiveError) Is(target error) bool {
	return target == ErrInvalidDirective
}

// NewDirectiveError creates a new DirectiveError.
func NewDirectiveError(item, directive, pos, message string, cause error) *DirectiveError {
	return &DirectiveError{
		Item:      item,
		Directive: directive,
		Pos:       pos,
		Message:   message,
		Cause:     cause,
	}
}

// BoundError reports a type parameter whose constraint cannot be derived.
type BoundError struct {
	Type    string
	Param   string
	Message string
}

// Error implements the error interface.
func (e *BoundError) Error() string {
	var b strings.Builder
	b.WriteString("arbgen: bound error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Param != "" {
		b.WriteString(" parameter ")
		b.WriteString(e.Param)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for BoundError.
func (e *BoundError) Is(target error) bool {
	return target == ErrInvalidBound
}

// NewBoundError creates a new BoundError.
func NewBoundError(typeName, param, message string) *BoundError {
	return &BoundError{
		Type:    typeName,
		Param:   param,
		Message: message,
	}
}

// RecursionError reports a recursive type that cannot terminate.
type RecursionError struct {
	Type    string
	Cycle   []string
	Message string
}

// Error implements the error interface.
func (e *RecursionError) Error() string {
	var b strings.Builder
	b.WriteString("arbgen: recursion error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if len(e.Cycle) > 0 {
		fmt.Fprintf(&b, " (cycle: %s)", strings.Join(e.Cycle, " -> "))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for RecursionError.
func (e *RecursionError) Is(target error) bool {
	return target == ErrNoBaseCase
}

// NewRecursionError creates a new RecursionError.
func NewRecursionError(typeName string, cycle []string, message string) *RecursionError {
	return &RecursionError{
		Type:    typeName,
		Cycle:   cycle,
		Message: message,
	}
}

// FieldError reports a field without a generator.
type FieldError struct {
	Type    string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	var b strings.Builder
	b.WriteString("arbgen: field error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for FieldError.
func (e *FieldError) Is(target error) bool {
	return target == ErrUngeneratable
}

// NewFieldError creates a new FieldError.
func NewFieldError(typeName, fieldName, message string) *FieldError {
	return &FieldError{
		Type:    typeName,
		Field:   fieldName,
		Message: message,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("arbgen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("arbgen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "emit", "format", "write"
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("arbgen: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsShapeError reports whether the error is a ShapeError.
func IsShapeError(err error) bool {
	var shapeErr *ShapeError
	return errors.As(err, &shapeErr)
}

// IsDirectiveError reports whether the error is a DirectiveError.
func IsDirectiveError(err error) bool {
	var dirErr *DirectiveError
	return errors.As(err, &dirErr)
}

// IsBoundError reports whether the error is a BoundError.
func IsBoundError(err error) bool {
	var boundErr *BoundError
	return errors.As(err, &boundErr)
}

// IsRecursionError reports whether the error is a RecursionError.
func IsRecursionError(err error) bool {
	var recErr *RecursionError
	return errors.As(err, &recErr)
}

// IsFieldError reports whether the error is a FieldError.
func IsFieldError(err error) bool {
	var fieldErr *FieldError
	return errors.As(err, &fieldErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

func strconvQuote(s string) string {
	return fmt.Sprintf("%q", s)
}
