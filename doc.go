// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package bsonfmt converts between JSON text, an in-memory BSON document
// model and Go values.
//
// Document model
//
// A Document is an ordered collection of unique keys, each mapped to a
// Value.  Value is a closed set of types, one per BSON type (Double, String,
// Embedded, Array, Binary, ObjectID, Bool, UTCDate, Null, Regex, JavaScript,
// JavaScriptWithScope, Timestamp, Int32, Int64, MinKey and MaxKey), and each
// Kind has the same byte as the BSON type it represents.  Arrays are stored
// as documents with the keys "0", "1", ... in order.
//
// Parsing
//
// A Decoder reads successive JSON objects from a buffered stream, separated
// by white space or wrapped in a single top-level array.  ParseText parses a
// single JSON value of any type.  Only UTF-8 is supported and the JSON
// grammar is enforced strictly.
//
// The parser optionally interprets MongoDB Extended JSON v2
// (https://docs.mongodb.com/manual/reference/mongodb-extended-json/index.html).
// There is limited support for the v1 format: the `$type` and `$regex` keys
// use heuristics to tell extended JSON apart from MongoDB query operators.
// Deprecated types are mapped onto the model: `$symbol` becomes a String,
// `$undefined` becomes Null and `$dbPointer` becomes a {$ref, $id} document.
// `$numberDecimal` has no representation and is an error.
//
// Codecs
//
// A Codec converts a Go type to and from a Value.  The package provides
// codecs for numbers, strings, booleans, pointers, slices, maps, documents,
// times, object IDs and generic encoding/json values.  A Registry picks a
// codec by the runtime type of a Go value; ToDocument and FromDocument use a
// default registry.
//
// Wire format
//
// Document implements MarshalBSON and UnmarshalBSON, so documents interoperate
// with the MongoDB Go driver's bson package.  MarshalExtJSON renders a
// document as canonical or relaxed Extended JSON.
package bsonfmt
