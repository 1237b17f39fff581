// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"encoding/json"
	"reflect"
	"sort"
	"strconv"

	"github.com/evergreen-ci/birch"
	"github.com/evergreen-ci/birch/jsonx"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultMaxDepth = 200

var (
	valueType       = reflect.TypeOf((*Value)(nil)).Elem()
	marshalerType   = reflect.TypeOf((*Marshaler)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
)

type typeCodec struct {
	encode func(reflect.Value) (Value, error)
	decode func(Value) (reflect.Value, error)
}

// Registry converts arbitrary Go values by looking up a converter for their
// dynamic type.  Lookup order is:
//
//  1. codecs added with Register
//  2. the document value types themselves, which convert to and from
//     themselves
//  3. types implementing Marshaler and (through a pointer) Unmarshaler
//  4. the type's kind: floats, integers, bool, string, pointer, slice,
//     array, string-keyed map and empty interface
//
// Pointers to document value types go through rule 4, so *Int32 converts
// like a pointer to any other type.  Strings and json.Numbers held in an
// empty interface convert as generic JSON (see JSONCodec), which makes
// FromDocument[interface{}] and ToDocument inverses for JSON values.
//
// A Registry is immutable once built and safe for concurrent use.
type Registry struct {
	codecs         map[reflect.Type]typeCodec
	maxDepth       int
	literalStrings bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxDepth limits how deeply nested slices, maps and pointers may be.
// Conversions past the limit fail with ErrMaxDepth.  The default is 200.
func WithMaxDepth(n int) Option {
	return func(r *Registry) { r.maxDepth = n }
}

// WithLiteralStrings stores Go strings as String values verbatim instead of
// parsing them as Extended JSON.
func WithLiteralStrings() Option {
	return func(r *Registry) { r.literalStrings = true }
}

// Register adds c as the converter for T, taking precedence over every
// other lookup rule.
func Register[T any](c Codec[T]) Option {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return func(r *Registry) {
		r.codecs[t] = typeCodec{
			encode: func(rv reflect.Value) (Value, error) {
				return c.Encode(rv.Interface().(T))
			},
			decode: func(v Value) (reflect.Value, error) {
				x, err := c.Decode(v)
				if err != nil {
					return reflect.Value{}, err
				}
				return reflect.ValueOf(&x).Elem(), nil
			},
		}
	}
}

// NewRegistry returns a Registry with converters for *Document, time.Time,
// *birch.Document, *jsonx.Value and the MongoDB driver's primitive types,
// then applies opts.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		codecs:   make(map[reflect.Type]typeCodec),
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range []Option{
		Register(DocumentCodec()),
		Register(TimeCodec()),
		Register(ObjectIDCodec()),
		Register[*birch.Document](BirchCodec()),
		Register[*jsonx.Value](JSONXCodec()),
		Register[primitive.DateTime](dateTimeCodec),
		Register[primitive.Binary](binaryCodec),
		Register[primitive.Regex](regexCodec),
		Register[primitive.Timestamp](timestampCodec),
		Register[primitive.JavaScript](javaScriptCodec),
		Register[primitive.CodeWithScope](codeWithScopeCodec),
		Register[primitive.MinKey](minKeyCodec),
		Register[primitive.MaxKey](maxKeyCodec),
		Register[primitive.Null](nullCodec),
	} {
		opt(r)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = NewRegistry()

// ToDocument converts v with the default Registry.
func ToDocument(v interface{}) (Value, error) {
	return defaultRegistry.Encode(v)
}

// FromDocument converts v into a T with the default Registry.
func FromDocument[T any](v Value) (T, error) {
	return DecodeAs[T](defaultRegistry, v)
}

// DecodeAs converts v into a T with r.
func DecodeAs[T any](r *Registry, v Value) (T, error) {
	var out T
	if err := r.Decode(v, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Encode converts v to a document value.
func (r *Registry) Encode(v interface{}) (Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, &UnsupportedTypeError{}
	}
	return r.encode(rv, 0)
}

// Decode stores the conversion of v in the value out points to.
func (r *Registry) Decode(v Value, out interface{}) error {
	pv := reflect.ValueOf(out)
	if pv.Kind() != reflect.Pointer || pv.IsNil() {
		return errors.Errorf("decode target must be a non-nil pointer, not %T", out)
	}
	x, err := r.decode(v, pv.Type().Elem(), 0)
	if err != nil {
		return err
	}
	pv.Elem().Set(x)
	return nil
}

func (r *Registry) encode(rv reflect.Value, depth int) (Value, error) {
	if depth > r.maxDepth {
		return nil, ErrMaxDepth
	}
	t := rv.Type()

	if tc, ok := r.codecs[t]; ok {
		return tc.encode(rv)
	}
	if t.Kind() != reflect.Pointer && t.Implements(valueType) {
		if t.Kind() == reflect.Interface && rv.IsNil() {
			return Null{}, nil
		}
		return copyValue(rv.Interface().(Value)), nil
	}
	if t.Implements(marshalerType) {
		if t.Kind() == reflect.Pointer && rv.IsNil() {
			return Null{}, nil
		}
		return rv.Interface().(Marshaler).MarshalDocument()
	}
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(marshalerType) {
		p := reflect.New(t)
		p.Elem().Set(rv)
		return p.Interface().(Marshaler).MarshalDocument()
	}

	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return Double(rv.Float()), nil
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return Int32(int32(rv.Int())), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Int32(int32(rv.Uint())), nil
	case reflect.Int, reflect.Int64:
		return Int64(rv.Int()), nil
	case reflect.Uint, reflect.Uint64:
		return Int64(int64(rv.Uint())), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		if r.literalStrings {
			return String(rv.String()), nil
		}
		return StringCodec().Encode(rv.String())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		// An empty interface holds generic JSON, as it does on decode.
		if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
			switch x := rv.Elem().Interface().(type) {
			case string, json.Number:
				return JSONCodec().Encode(x)
			}
		}
		return r.encode(rv.Elem(), depth+1)
	case reflect.Slice, reflect.Array:
		doc := &Document{elems: make([]Element, 0, rv.Len())}
		for i := 0; i < rv.Len(); i++ {
			key := strconv.Itoa(i)
			v, err := r.encode(rv.Index(i), depth+1)
			if err != nil {
				return nil, &ElementError{Key: key, Err: err}
			}
			doc.elems = append(doc.elems, Element{Key: key, Value: v})
		}
		return Array{Doc: doc}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			break
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		doc := &Document{elems: make([]Element, 0, len(keys))}
		for _, k := range keys {
			v, err := r.encode(rv.MapIndex(k), depth+1)
			if err != nil {
				return nil, &ElementError{Key: k.String(), Err: err}
			}
			doc.elems = append(doc.elems, Element{Key: k.String(), Value: v})
		}
		return Embedded{Doc: doc}, nil
	}
	return nil, &UnsupportedTypeError{Type: t}
}

func (r *Registry) decode(v Value, t reflect.Type, depth int) (reflect.Value, error) {
	if depth > r.maxDepth {
		return reflect.Value{}, ErrMaxDepth
	}

	if tc, ok := r.codecs[t]; ok {
		return tc.decode(v)
	}
	if t == valueType {
		out := reflect.New(t).Elem()
		if v != nil {
			out.Set(reflect.ValueOf(copyValue(v)))
		}
		return out, nil
	}
	if t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer && t.Implements(valueType) {
		if v == nil || reflect.TypeOf(v) != t {
			return reflect.Value{}, mismatch(t.String(), v, reflect.Zero(t).Interface().(Value).Kind())
		}
		return reflect.ValueOf(copyValue(v)), nil
	}
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(unmarshalerType) {
		p := reflect.New(t)
		if err := p.Interface().(Unmarshaler).UnmarshalDocument(v); err != nil {
			return reflect.Value{}, err
		}
		return p.Elem(), nil
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		f, err := decodeDouble(v, t.String())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetFloat(f)
		return out, nil
	case reflect.Int8, reflect.Int16, reflect.Int32:
		i, err := decodeInt32(v, t.String())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(int64(i))
		return out, nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		i, err := decodeInt32(v, t.String())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(uint64(i))
		return out, nil
	case reflect.Int, reflect.Int64:
		i, err := decodeInt64(v, t.String())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(i)
		return out, nil
	case reflect.Uint, reflect.Uint64:
		i, err := decodeInt64(v, t.String())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(uint64(i))
		return out, nil
	case reflect.Bool:
		b, ok := v.(Bool)
		if !ok {
			return reflect.Value{}, mismatch(t.String(), v, KindBool)
		}
		out.SetBool(bool(b))
		return out, nil
	case reflect.String:
		s, ok := v.(String)
		if !ok {
			return reflect.Value{}, mismatch(t.String(), v, KindString)
		}
		out.SetString(string(s))
		return out, nil
	case reflect.Pointer:
		if _, ok := v.(Null); ok {
			return out, nil
		}
		x, err := r.decode(v, t.Elem(), depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(x)
		return p, nil
	case reflect.Interface:
		if t.NumMethod() != 0 {
			break
		}
		j, err := JSONCodec().Decode(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if j != nil {
			out.Set(reflect.ValueOf(j))
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		arr, ok := v.(Array)
		if !ok {
			return reflect.Value{}, mismatch(t.String(), v, KindArray)
		}
		n := arr.Doc.Len()
		if t.Kind() == reflect.Slice {
			out = reflect.MakeSlice(t, n, n)
		} else if n > t.Len() {
			return reflect.Value{}, errors.Errorf("cannot decode %d elements into %s", n, t)
		}
		i := 0
		for key, ev := range arr.Doc.All() {
			x, err := r.decode(ev, t.Elem(), depth+1)
			if err != nil {
				return reflect.Value{}, &ElementError{Key: key, Err: err}
			}
			out.Index(i).Set(x)
			i++
		}
		return out, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			break
		}
		doc, ok := containerOf(v)
		if !ok {
			return reflect.Value{}, mismatch(t.String(), v, KindEmbedded, KindArray)
		}
		out = reflect.MakeMapWithSize(t, doc.Len())
		for key, ev := range doc.All() {
			x, err := r.decode(ev, t.Elem(), depth+1)
			if err != nil {
				return reflect.Value{}, &ElementError{Key: key, Err: err}
			}
			out.SetMapIndex(reflect.ValueOf(key).Convert(t.Key()), x)
		}
		return out, nil
	}
	return reflect.Value{}, &UnsupportedTypeError{Type: t}
}
