// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"encoding/json"
	"reflect"

	"github.com/pkg/errors"
)

type jsonCodec struct{}

// JSONCodec returns the Codec for generic JSON values as produced by
// encoding/json when decoding into an interface{}: nil, bool, float64,
// json.Number, string, []interface{} and map[string]interface{}.
//
// Every JSON value has a document equivalent; numbers always become Double.
// The reverse is partial: Binary, ObjectID, Regex, JavaScriptWithScope,
// MinKey and MaxKey have no JSON form and fail with *UnrepresentableError.
// Int32, Int64, UTCDate and Timestamp become float64, and JavaScript becomes
// a string.
func JSONCodec() Codec[interface{}] { return jsonCodec{} }

func (c jsonCodec) Encode(j interface{}) (Value, error) {
	switch x := j.(type) {
	case nil:
		return Null{}, nil
	case float64:
		return Double(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid JSON number %q", string(x))
		}
		return Double(f), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case []interface{}:
		return SliceCodec[interface{}](c).Encode(x)
	case map[string]interface{}:
		return MapCodec[interface{}](c).Encode(x)
	default:
		return nil, &UnsupportedTypeError{Type: reflect.TypeOf(j)}
	}
}

func (c jsonCodec) Decode(v Value) (interface{}, error) {
	switch x := v.(type) {
	case Double:
		return float64(x), nil
	case Int32:
		return float64(x), nil
	case Int64:
		return float64(x), nil
	case UTCDate:
		return float64(x), nil
	case Timestamp:
		return float64(x), nil
	case String:
		return string(x), nil
	case JavaScript:
		return string(x), nil
	case Bool:
		return bool(x), nil
	case Null:
		return nil, nil
	case Embedded:
		m, err := MapCodec[interface{}](c).Decode(x)
		if err != nil {
			return nil, err
		}
		return m, nil
	case Array:
		s, err := SliceCodec[interface{}](c).Decode(x)
		if err != nil {
			return nil, err
		}
		return s, nil
	case nil:
		return nil, mismatch("JSON", nil)
	default:
		return nil, &UnrepresentableError{Kind: v.Kind(), Target: "JSON"}
	}
}
