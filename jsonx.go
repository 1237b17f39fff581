// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"reflect"
	"strconv"

	"github.com/evergreen-ci/birch/jsonx"
)

type jsonxCodec struct{}

// JSONXCodec returns the Codec for birch's ordered JSON values.  It follows
// the same mapping as JSONCodec, except that object key order survives in
// both directions.
func JSONXCodec() Codec[*jsonx.Value] { return jsonxCodec{} }

func (c jsonxCodec) Encode(j *jsonx.Value) (Value, error) {
	if j == nil {
		return Null{}, nil
	}
	switch x := j.Interface().(type) {
	case nil:
		return Null{}, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Double(x), nil
	case int32:
		return Double(x), nil
	case int64:
		return Double(x), nil
	case float32:
		return Double(x), nil
	case float64:
		return Double(x), nil
	case *jsonx.Document:
		doc := &Document{elems: make([]Element, 0, x.Len())}
		for i := 0; i < x.Len(); i++ {
			elem := x.ElementAtIndex(i)
			v, err := c.Encode(elem.Value())
			if err != nil {
				return nil, &ElementError{Key: elem.Key(), Err: err}
			}
			doc.Insert(elem.Key(), v)
		}
		return Embedded{Doc: doc}, nil
	case *jsonx.Array:
		doc := &Document{elems: make([]Element, 0, x.Len())}
		iter := x.Iterator()
		for i := 0; iter.Next(); i++ {
			key := strconv.Itoa(i)
			v, err := c.Encode(iter.Value())
			if err != nil {
				return nil, &ElementError{Key: key, Err: err}
			}
			doc.elems = append(doc.elems, Element{Key: key, Value: v})
		}
		return Array{Doc: doc}, nil
	default:
		return nil, &UnsupportedTypeError{Type: reflect.TypeOf(x)}
	}
}

func (c jsonxCodec) Decode(v Value) (*jsonx.Value, error) {
	switch x := v.(type) {
	case Double:
		return jsonx.VC.Float64(float64(x)), nil
	case Int32:
		return jsonx.VC.Float64(float64(x)), nil
	case Int64:
		return jsonx.VC.Float64(float64(x)), nil
	case UTCDate:
		return jsonx.VC.Float64(float64(x)), nil
	case Timestamp:
		return jsonx.VC.Float64(float64(x)), nil
	case String:
		return jsonx.VC.String(string(x)), nil
	case JavaScript:
		return jsonx.VC.String(string(x)), nil
	case Bool:
		return jsonx.VC.Boolean(bool(x)), nil
	case Null:
		return jsonx.VC.Nil(), nil
	case Embedded:
		doc := jsonx.DC.Make(x.Doc.Len())
		for key, ev := range x.Doc.All() {
			jv, err := c.Decode(ev)
			if err != nil {
				return nil, &ElementError{Key: key, Err: err}
			}
			doc.Append(jsonx.EC.Value(key, jv))
		}
		return jsonx.VC.Object(doc), nil
	case Array:
		arr := jsonx.AC.Make(x.Doc.Len())
		for key, ev := range x.Doc.All() {
			jv, err := c.Decode(ev)
			if err != nil {
				return nil, &ElementError{Key: key, Err: err}
			}
			arr.Append(jv)
		}
		return jsonx.VC.Array(arr), nil
	case nil:
		return nil, mismatch("JSON", nil)
	default:
		return nil, &UnrepresentableError{Kind: v.Kind(), Target: "JSON"}
	}
}
