package types

import (
	"fmt"
	"strings"
)

// Error tag constants.
const (
	TagTypeError         = "TypeError"
	TagValueError        = "ValueError"
	TagKeyError          = "KeyError"
	TagIndexError        = "IndexError"
	TagZeroDivisionError = "ZeroDivisionError"
	TagSyntaxError       = "SyntaxError"
)

// Error is a tscript runtime error with a message and classification tags.
type Error struct {
	Message string
	Tags    []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (tags=[%s])", e.Message, strings.Join(e.Tags, ", "))
}

// HasTag returns true if the error has the specified tag.
func (e *Error) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ToValue converts an Error to a map value with message and tags.
func (e *Error) ToValue() Value {
	m := NewOrderedMap()
	m.Set("message", NewString(e.Message))

	tags := make([]Value, len(e.Tags))
	for i, tag := range e.Tags {
		tags[i] = NewString(tag)
	}
	m.Set("tags", NewList(tags))
	return NewMap(m)
}

// TypeMismatchError reports an operator applied to a combination of operand
// types that has no handler.
type TypeMismatchError struct {
	Op    string
	Left  ValueType
	Right ValueType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("unsupported operand types for %s: '%s' and '%s'", e.Op, e.Left, e.Right)
}

// Tags lets callers classify a mismatch like any other TypeError.
func (e *TypeMismatchError) Tags() []string {
	return []string{TagTypeError}
}

// NewTypeMismatch creates a TypeMismatchError for op applied to left and right.
func NewTypeMismatch(op string, left, right Value) *TypeMismatchError {
	return &TypeMismatchError{Op: op, Left: left.Type(), Right: right.Type()}
}

// Common error constructors.

// NewTypeError creates a TypeError.
func NewTypeError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagTypeError}}
}

// NewValueError creates a ValueError.
func NewValueError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagValueError}}
}

// NewKeyError creates a KeyError.
func NewKeyError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagKeyError}}
}

// NewIndexError creates an IndexError.
func NewIndexError(msg string) *Error {
	return &Error{Message: msg, Tags: []string{TagIndexError}}
}

// NewZeroDivisionError creates a ZeroDivisionError.
func NewZeroDivisionError() *Error {
	return &Error{Message: "division by zero", Tags: []string{TagZeroDivisionError}}
}

// NewSyntaxError creates a SyntaxError located at line:offset.
func NewSyntaxError(line, offset int, msg string) *Error {
	return &Error{
		Message: fmt.Sprintf("%d:%d: %s", line, offset, msg),
		Tags:    []string{TagSyntaxError},
	}
}
