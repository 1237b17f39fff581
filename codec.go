// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

// Marshaler is implemented by types that can convert themselves into a
// document value.
type Marshaler interface {
	MarshalDocument() (Value, error)
}

// Unmarshaler is implemented by types that can populate themselves from a
// document value.  MarshalDocument and UnmarshalDocument are expected to
// round trip.
type Unmarshaler interface {
	UnmarshalDocument(Value) error
}

// Codec converts values of type T to and from document values.  Codecs
// exist for types that cannot carry methods of their own, such as built-in
// numbers, slices and maps.  They compose:
//
//	c := bsonfmt.SliceCodec(bsonfmt.MapCodec(bsonfmt.Int32Codec[int16]()))
//
// converts a []map[string]int16.
type Codec[T any] interface {
	Encode(T) (Value, error)
	Decode(Value) (T, error)
}

// CodecFuncs adapts a pair of functions to a Codec.
type CodecFuncs[T any] struct {
	EncodeFunc func(T) (Value, error)
	DecodeFunc func(Value) (T, error)
}

// Encode calls c.EncodeFunc.
func (c CodecFuncs[T]) Encode(v T) (Value, error) { return c.EncodeFunc(v) }

// Decode calls c.DecodeFunc.
func (c CodecFuncs[T]) Decode(v Value) (T, error) { return c.DecodeFunc(v) }

type selfCodec[T Marshaler, PT interface {
	*T
	Unmarshaler
}] struct{}

// SelfCodec returns the Codec of a type that implements the conversion protocol
// itself.  PT is inferred as *T:
//
//	c := bsonfmt.SelfCodec[Point]()
func SelfCodec[T Marshaler, PT interface {
	*T
	Unmarshaler
}]() Codec[T] {
	return selfCodec[T, PT]{}
}

func (selfCodec[T, PT]) Encode(v T) (Value, error) { return v.MarshalDocument() }

func (selfCodec[T, PT]) Decode(v Value) (T, error) {
	var out T
	if err := PT(&out).UnmarshalDocument(v); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
