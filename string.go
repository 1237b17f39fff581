// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import "github.com/pkg/errors"

type stringCodec struct{}

// StringCodec returns the Codec that treats a Go string as Extended JSON
// text.  Encoding parses the text into the value it describes, so `{"a": 1}`
// becomes an Embedded document and `"x"` (with quotes) becomes a String;
// malformed text is an error wrapping *ParseError.  Decoding accepts only
// String and returns its content verbatim.
func StringCodec() Codec[string] { return stringCodec{} }

func (stringCodec) Encode(s string) (Value, error) {
	v, err := ParseText(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid string for parsing")
	}
	return v, nil
}

func (stringCodec) Decode(v Value) (string, error) { return decodeString(v) }

type textCodec struct{}

// TextCodec returns the Codec that stores a Go string as a String value
// without interpretation.  Unlike StringCodec it always round trips.
func TextCodec() Codec[string] { return textCodec{} }

func (textCodec) Encode(s string) (Value, error) { return String(s), nil }

func (textCodec) Decode(v Value) (string, error) { return decodeString(v) }

func decodeString(v Value) (string, error) {
	s, ok := v.(String)
	if !ok {
		return "", mismatch("string", v, KindString)
	}
	return string(s), nil
}
