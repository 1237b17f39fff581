// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// ErrMaxDepth is returned when a conversion nests deeper than the configured
// limit.
var ErrMaxDepth = errors.New("maximum depth exceeded")

// ParseError records JSON/Extended JSON parsing errors.  It can include a small
// excerpt of text from the reader at the point of error.
type ParseError struct {
	msg string
	err error
}

func (pe *ParseError) Error() string {
	if pe.err != nil {
		return pe.msg + ": " + pe.err.Error()
	}
	return pe.msg
}

// Unwrap returns the underlying read error, if any.
func (pe *ParseError) Unwrap() error { return pe.err }

func newParseError(format string, args ...interface{}) *ParseError {
	return &ParseError{msg: fmt.Sprintf(format, args...)}
}

// TypeMismatchError is returned when a value's kind is not one a converter
// accepts.
type TypeMismatchError struct {
	Target   string
	Expected []Kind
	Actual   Kind
}

func (e *TypeMismatchError) Error() string {
	if e.Actual == 0 {
		return fmt.Sprintf("cannot convert nil value to %s", e.Target)
	}
	names := make([]string, len(e.Expected))
	for i, k := range e.Expected {
		names[i] = k.String()
	}
	return fmt.Sprintf("can only convert %s to %s, not %s", strings.Join(names, ", "), e.Target, e.Actual)
}

func mismatch(target string, actual Value, expected ...Kind) *TypeMismatchError {
	e := &TypeMismatchError{Target: target, Expected: expected}
	if actual != nil {
		e.Actual = actual.Kind()
	}
	return e
}

// ElementError wraps the failure of one element of a composite value.  Key is
// the element's document key.
type ElementError struct {
	Key string
	Err error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element %q: %v", e.Key, e.Err)
}

// Unwrap returns the element's error.
func (e *ElementError) Unwrap() error { return e.Err }

// Cause returns the element's error for github.com/pkg/errors.Cause.
func (e *ElementError) Cause() error { return e.Err }

// UnrepresentableError is returned when a value has no equivalent in the
// target representation, e.g. a Regex converted to JSON.
type UnrepresentableError struct {
	Kind   Kind
	Target string
}

func (e *UnrepresentableError) Error() string {
	return fmt.Sprintf("%s cannot be translated to %s", e.Kind, e.Target)
}

// UnsupportedTypeError is returned when no converter exists for a Go type.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	if e.Type == nil {
		return "no document conversion for untyped nil"
	}
	return fmt.Sprintf("no document conversion for type %s", e.Type)
}
