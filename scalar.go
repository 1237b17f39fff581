// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import "fmt"

// FloatKind is the set of types converted through Double.
type FloatKind interface {
	~float32 | ~float64
}

// Int32Kind is the set of integer types narrower than 64 bits, all converted
// through Int32.  rune is int32, so characters are included.
type Int32Kind interface {
	~int8 | ~int16 | ~int32 | ~uint8 | ~uint16 | ~uint32
}

// Int64Kind is the set of 64-bit integer types, all converted through Int64.
// Go's int and uint are 64 bits wide on supported platforms.
type Int64Kind interface {
	~int | ~int64 | ~uint | ~uint64
}

// Narrowing conversions below never range check: a value that does not fit
// the target type wraps or truncates exactly like a Go conversion.

type floatCodec[T FloatKind] struct{}

// FloatCodec returns the Codec for a floating point type.
func FloatCodec[T FloatKind]() Codec[T] { return floatCodec[T]{} }

func (floatCodec[T]) Encode(v T) (Value, error) { return Double(v), nil }

func (floatCodec[T]) Decode(v Value) (T, error) {
	f, err := decodeDouble(v, typeName[T]())
	return T(f), err
}

type int32Codec[T Int32Kind] struct{}

// Int32Codec returns the Codec for an integer type narrower than 64 bits.
func Int32Codec[T Int32Kind]() Codec[T] { return int32Codec[T]{} }

func (int32Codec[T]) Encode(v T) (Value, error) { return Int32(int32(v)), nil }

func (int32Codec[T]) Decode(v Value) (T, error) {
	i, err := decodeInt32(v, typeName[T]())
	return T(i), err
}

type int64Codec[T Int64Kind] struct{}

// Int64Codec returns the Codec for a 64-bit integer type.  Decoding also accepts
// UTCDate and Timestamp, which share the 64-bit integer representation.
func Int64Codec[T Int64Kind]() Codec[T] { return int64Codec[T]{} }

func (int64Codec[T]) Encode(v T) (Value, error) { return Int64(int64(v)), nil }

func (int64Codec[T]) Decode(v Value) (T, error) {
	i, err := decodeInt64(v, typeName[T]())
	return T(i), err
}

type boolCodec struct{}

// BoolCodec returns the Codec for bool.
func BoolCodec() Codec[bool] { return boolCodec{} }

func (boolCodec) Encode(v bool) (Value, error) { return Bool(v), nil }

func (boolCodec) Decode(v Value) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, mismatch("bool", v, KindBool)
	}
	return bool(b), nil
}

func decodeDouble(v Value, target string) (float64, error) {
	f, ok := v.(Double)
	if !ok {
		return 0, mismatch(target, v, KindDouble)
	}
	return float64(f), nil
}

func decodeInt32(v Value, target string) (int32, error) {
	i, ok := v.(Int32)
	if !ok {
		return 0, mismatch(target, v, KindInt32)
	}
	return int32(i), nil
}

func decodeInt64(v Value, target string) (int64, error) {
	switch x := v.(type) {
	case Int64:
		return int64(x), nil
	case UTCDate:
		return int64(x), nil
	case Timestamp:
		return int64(x), nil
	default:
		return 0, mismatch(target, v, KindInt64, KindUTCDate, KindTimestamp)
	}
}

func typeName[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
