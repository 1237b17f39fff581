// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"bytes"
	"encoding/hex"
	"math"
)

// Value is a single document value.  The set of implementations is closed:
// exactly the types declared in this file satisfy it, one per Kind.
type Value interface {
	Kind() Kind
	isValue()
}

// Double is a 64-bit IEEE 754 floating point value.
type Double float64

// String is a UTF-8 string value.
type String string

// Embedded is a nested document used as a mapping.
type Embedded struct {
	Doc *Document
}

// Array is a nested document used as a sequence.  Its keys are the decimal
// positions "0", "1", ... in insertion order.
type Array struct {
	Doc *Document
}

// Binary is a byte payload tagged with a BSON binary subtype.
type Binary struct {
	Subtype byte
	Data    []byte
}

// ObjectID is a 12-byte MongoDB object identifier.
type ObjectID [12]byte

// Bool is a boolean value.
type Bool bool

// UTCDate is a point in time as milliseconds since the Unix epoch.
type UTCDate int64

// Null is the null value.
type Null struct{}

// Regex is a regular expression pattern with its option letters.
type Regex struct {
	Pattern string
	Options string
}

// JavaScript is JavaScript source code.
type JavaScript string

// JavaScriptWithScope is JavaScript source code with a scope document.
type JavaScriptWithScope struct {
	Code  string
	Scope *Document
}

// Timestamp is a MongoDB internal timestamp.  The high 32 bits hold the
// seconds and the low 32 bits the increment.
type Timestamp int64

// Int32 is a 32-bit signed integer.
type Int32 int32

// Int64 is a 64-bit signed integer.
type Int64 int64

// MinKey compares lower than all other values.
type MinKey struct{}

// MaxKey compares higher than all other values.
type MaxKey struct{}

func (Double) Kind() Kind              { return KindDouble }
func (String) Kind() Kind              { return KindString }
func (Embedded) Kind() Kind            { return KindEmbedded }
func (Array) Kind() Kind               { return KindArray }
func (Binary) Kind() Kind              { return KindBinary }
func (ObjectID) Kind() Kind            { return KindObjectID }
func (Bool) Kind() Kind                { return KindBool }
func (UTCDate) Kind() Kind             { return KindUTCDate }
func (Null) Kind() Kind                { return KindNull }
func (Regex) Kind() Kind               { return KindRegex }
func (JavaScript) Kind() Kind          { return KindJavaScript }
func (JavaScriptWithScope) Kind() Kind { return KindJavaScriptWithScope }
func (Timestamp) Kind() Kind           { return KindTimestamp }
func (Int32) Kind() Kind               { return KindInt32 }
func (Int64) Kind() Kind               { return KindInt64 }
func (MinKey) Kind() Kind              { return KindMinKey }
func (MaxKey) Kind() Kind              { return KindMaxKey }

func (Double) isValue()              {}
func (String) isValue()              {}
func (Embedded) isValue()            {}
func (Array) isValue()               {}
func (Binary) isValue()              {}
func (ObjectID) isValue()            {}
func (Bool) isValue()                {}
func (UTCDate) isValue()             {}
func (Null) isValue()                {}
func (Regex) isValue()               {}
func (JavaScript) isValue()          {}
func (JavaScriptWithScope) isValue() {}
func (Timestamp) isValue()           {}
func (Int32) isValue()               {}
func (Int64) isValue()               {}
func (MinKey) isValue()              {}
func (MaxKey) isValue()              {}

// Hex returns the ObjectID as 24 lowercase hex digits.
func (id ObjectID) Hex() string { return hex.EncodeToString(id[:]) }

// NewTimestamp packs seconds and an increment into a Timestamp.
func NewTimestamp(t, i uint32) Timestamp {
	return Timestamp(int64(t)<<32 | int64(i))
}

// Parts splits a Timestamp into seconds and increment.
func (ts Timestamp) Parts() (t, i uint32) {
	return uint32(uint64(ts) >> 32), uint32(uint64(ts))
}

// Equal reports whether two values are the same kind with the same content.
// Nested documents are compared in order.  NaN doubles are equal to each
// other.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Double:
		y := b.(Double)
		return x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y)))
	case Embedded:
		return x.Doc.Equal(b.(Embedded).Doc)
	case Array:
		return x.Doc.Equal(b.(Array).Doc)
	case Binary:
		y := b.(Binary)
		return x.Subtype == y.Subtype && bytes.Equal(x.Data, y.Data)
	case JavaScriptWithScope:
		y := b.(JavaScriptWithScope)
		return x.Code == y.Code && x.Scope.Equal(y.Scope)
	default:
		return a == b
	}
}
