// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"sort"
	"strconv"
)

type pointerCodec[T any] struct {
	elem Codec[T]
}

// PointerCodec returns a Codec for *T that forwards to elem.  A nil pointer
// encodes as Null and Null decodes as a nil pointer.
func PointerCodec[T any](elem Codec[T]) Codec[*T] { return pointerCodec[T]{elem: elem} }

func (c pointerCodec[T]) Encode(p *T) (Value, error) {
	if p == nil {
		return Null{}, nil
	}
	return c.elem.Encode(*p)
}

func (c pointerCodec[T]) Decode(v Value) (*T, error) {
	if _, ok := v.(Null); ok {
		return nil, nil
	}
	x, err := c.elem.Decode(v)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

type sliceCodec[T any] struct {
	elem Codec[T]
}

// SliceCodec returns a Codec for []T.  Elements are stored in an Array under
// their positions.  Decoding takes elements in the Array's stored order; the
// keys themselves are not interpreted.
func SliceCodec[T any](elem Codec[T]) Codec[[]T] { return sliceCodec[T]{elem: elem} }

func (c sliceCodec[T]) Encode(s []T) (Value, error) {
	doc := &Document{elems: make([]Element, 0, len(s))}
	for i, x := range s {
		key := strconv.Itoa(i)
		v, err := c.elem.Encode(x)
		if err != nil {
			return nil, &ElementError{Key: key, Err: err}
		}
		doc.elems = append(doc.elems, Element{Key: key, Value: v})
	}
	return Array{Doc: doc}, nil
}

func (c sliceCodec[T]) Decode(v Value) ([]T, error) {
	arr, ok := v.(Array)
	if !ok {
		return nil, mismatch(typeName[[]T](), v, KindArray)
	}
	out := make([]T, 0, arr.Doc.Len())
	for key, ev := range arr.Doc.All() {
		x, err := c.elem.Decode(ev)
		if err != nil {
			return nil, &ElementError{Key: key, Err: err}
		}
		out = append(out, x)
	}
	return out, nil
}

type mapCodec[V any] struct {
	elem Codec[V]
}

// MapCodec returns a Codec for map[string]V.  Maps encode as Embedded with
// keys in sorted order.  Decoding accepts Embedded and also Array, whose
// positional keys become map keys.
func MapCodec[V any](elem Codec[V]) Codec[map[string]V] { return mapCodec[V]{elem: elem} }

func (c mapCodec[V]) Encode(m map[string]V) (Value, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := &Document{elems: make([]Element, 0, len(m))}
	for _, k := range keys {
		v, err := c.elem.Encode(m[k])
		if err != nil {
			return nil, &ElementError{Key: k, Err: err}
		}
		doc.elems = append(doc.elems, Element{Key: k, Value: v})
	}
	return Embedded{Doc: doc}, nil
}

func (c mapCodec[V]) Decode(v Value) (map[string]V, error) {
	doc, ok := containerOf(v)
	if !ok {
		return nil, mismatch(typeName[map[string]V](), v, KindEmbedded, KindArray)
	}
	out := make(map[string]V, doc.Len())
	for key, ev := range doc.All() {
		x, err := c.elem.Decode(ev)
		if err != nil {
			return nil, &ElementError{Key: key, Err: err}
		}
		out[key] = x
	}
	return out, nil
}

type documentCodec struct{}

// DocumentCodec returns the Codec for *Document itself.  Encoding wraps a
// copy as Embedded; decoding accepts Embedded or Array and returns a copy of
// the container with its contents untouched.  A nil document is Null.
func DocumentCodec() Codec[*Document] { return documentCodec{} }

func (documentCodec) Encode(d *Document) (Value, error) {
	if d == nil {
		return Null{}, nil
	}
	return Embedded{Doc: d.Copy()}, nil
}

func (documentCodec) Decode(v Value) (*Document, error) {
	if _, ok := v.(Null); ok {
		return nil, nil
	}
	doc, ok := containerOf(v)
	if !ok {
		return nil, mismatch("*bsonfmt.Document", v, KindEmbedded, KindArray)
	}
	if doc == nil {
		return &Document{}, nil
	}
	return doc.Copy(), nil
}

func containerOf(v Value) (*Document, bool) {
	switch x := v.(type) {
	case Embedded:
		return x.Doc, true
	case Array:
		return x.Doc, true
	default:
		return nil, false
	}
}
