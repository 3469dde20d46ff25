package query

import (
	"fmt"
	"strings"
)

// ErrorKind classifies query-building and compilation failures.
type ErrorKind int

const (
	// MalformedInput means an argument matched no recognized shape.
	MalformedInput ErrorKind = iota + 1
	// InvalidOperation means the operation is invalid for the current query state.
	InvalidOperation
	// UnsupportedFeature means the active dialect cannot express the construct.
	UnsupportedFeature
	// AliasConflict means a table or column alias is already in use.
	AliasConflict
	// MissingBindVariable means a prepared statement call omitted a placeholder value.
	MissingBindVariable
	// TypeMismatch means a value kind cannot be rendered as a literal.
	TypeMismatch
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case MalformedInput:
		return "malformed input"
	case InvalidOperation:
		return "invalid operation"
	case UnsupportedFeature:
		return "unsupported feature"
	case AliasConflict:
		return "alias conflict"
	case MissingBindVariable:
		return "missing bind variable"
	case TypeMismatch:
		return "type mismatch"
	default:
		return "unknown error"
	}
}

// Error is the single error type raised by query construction and compilation.
// Clause names the clause or operation being built and Value carries the
// offending input so the failure can be reproduced from the message alone.
type Error struct {
	Kind   ErrorKind
	Clause string
	Value  any
	Msg    string

	hasValue bool
}

// Sentinels for errors.Is matching by kind.
var (
	ErrMalformedInput      = &Error{Kind: MalformedInput}
	ErrInvalidOperation    = &Error{Kind: InvalidOperation}
	ErrUnsupportedFeature  = &Error{Kind: UnsupportedFeature}
	ErrAliasConflict       = &Error{Kind: AliasConflict}
	ErrMissingBindVariable = &Error{Kind: MissingBindVariable}
	ErrTypeMismatch        = &Error{Kind: TypeMismatch}
)

// NewError builds an Error without an offending value.
func NewError(kind ErrorKind, clause, format string, args ...any) *Error {
	return &Error{Kind: kind, Clause: clause, Msg: fmt.Sprintf(format, args...)}
}

// NewValueError builds an Error that records the offending value.
func NewValueError(kind ErrorKind, clause string, value any, format string, args ...any) *Error {
	return &Error{Kind: kind, Clause: clause, Value: value, Msg: fmt.Sprintf(format, args...), hasValue: true}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("sequel: ")
	b.WriteString(e.Kind.String())
	if e.Clause != "" {
		b.WriteString(" in ")
		b.WriteString(e.Clause)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.hasValue {
		fmt.Fprintf(&b, " (value: %#v)", e.Value)
	}
	return b.String()
}

// Is reports whether target is an Error of the same kind. Sentinels carry no
// message, so errors.Is(err, ErrUnsupportedFeature) matches any such error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Msg == "" || t.Msg == e.Msg
}
