// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

func everyKind() *Document {
	oid := ObjectID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	return NewDocument(
		Element{Key: "double", Value: Double(math.Inf(-1))},
		Element{Key: "string", Value: String("héllo")},
		Element{Key: "embedded", Value: Embedded{Doc: NewDocument(Element{Key: "x", Value: Int32(1)})}},
		Element{Key: "array", Value: Array{Doc: NewArrayDocument(Bool(false), Null{})}},
		Element{Key: "binary", Value: Binary{Subtype: 0x80, Data: []byte{0xde, 0xad}}},
		Element{Key: "oid", Value: oid},
		Element{Key: "bool", Value: Bool(true)},
		Element{Key: "date", Value: UTCDate(-1)},
		Element{Key: "null", Value: Null{}},
		Element{Key: "regex", Value: Regex{Pattern: "^a.*", Options: "im"}},
		Element{Key: "code", Value: JavaScript("f()")},
		Element{Key: "cws", Value: JavaScriptWithScope{Code: "g()", Scope: NewDocument(Element{Key: "y", Value: Int64(2)})}},
		Element{Key: "int32", Value: Int32(math.MinInt32)},
		Element{Key: "ts", Value: NewTimestamp(100, 1)},
		Element{Key: "int64", Value: Int64(math.MaxInt64)},
		Element{Key: "min", Value: MinKey{}},
		Element{Key: "max", Value: MaxKey{}},
	)
}

func TestBSONRoundTrip(t *testing.T) {
	t.Parallel()

	doc := everyKind()
	raw, err := doc.MarshalBSON()
	require.NoError(t, err)
	require.NoError(t, bson.Raw(raw).Validate())

	var back Document
	require.NoError(t, back.UnmarshalBSON(raw))
	if diff := cmp.Diff(doc, &back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDriverInterop(t *testing.T) {
	t.Parallel()

	doc := everyKind()

	viaDriver, err := bson.Marshal(doc)
	require.NoError(t, err)
	direct, err := doc.MarshalBSON()
	require.NoError(t, err)
	assert.Equal(t, direct, viaDriver)

	var back Document
	require.NoError(t, bson.Unmarshal(direct, &back))
	assert.True(t, doc.Equal(&back))

	var d bson.D
	require.NoError(t, bson.Unmarshal(direct, &d))
	require.Len(t, d, doc.Len())
	assert.Equal(t, "double", d[0].Key)
	assert.Equal(t, primitive.Regex{Pattern: "^a.*", Options: "im"}, d[9].Value)
}

func TestDeprecatedWireTypes(t *testing.T) {
	t.Parallel()

	oid := primitive.ObjectID{0x56, 0xe1, 0xfc, 0x72, 0xe0, 0xc9, 0x17, 0xe9, 0xc4, 0x71, 0x41, 0x61}
	raw := bsoncore.BuildDocument(nil,
		bsoncore.AppendSymbolElement(nil, "sym", "abc"),
		bsoncore.AppendUndefinedElement(nil, "undef"),
		bsoncore.AppendDBPointerElement(nil, "ptr", "db.coll", oid),
	)

	var doc Document
	require.NoError(t, doc.UnmarshalBSON(raw))

	want := NewDocument(
		Element{Key: "sym", Value: String("abc")},
		Element{Key: "undef", Value: Null{}},
		Element{Key: "ptr", Value: Embedded{Doc: NewDocument(
			Element{Key: "$ref", Value: String("db.coll")},
			Element{Key: "$id", Value: ObjectID(oid)},
		)}},
	)
	if diff := cmp.Diff(want, &doc); diff != "" {
		t.Errorf("deprecated type mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestDecimal128Unrepresentable(t *testing.T) {
	t.Parallel()

	raw := bsoncore.BuildDocument(nil,
		bsoncore.AppendDecimal128Element(nil, "d", primitive.NewDecimal128(0, 1)),
	)

	var doc Document
	err := doc.UnmarshalBSON(raw)
	require.Error(t, err)

	var ue *UnrepresentableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "128-bit decimal", ue.Kind.String())
	var ee *ElementError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "d", ee.Key)
}

func TestMarshalBSONErrors(t *testing.T) {
	t.Parallel()

	t.Run("null byte in key", func(t *testing.T) {
		t.Parallel()
		_, err := NewDocument(Element{Key: "a\x00b", Value: Int32(1)}).MarshalBSON()
		assert.Error(t, err)
	})

	t.Run("nested null byte in key", func(t *testing.T) {
		t.Parallel()
		inner := NewDocument(Element{Key: "\x00", Value: Int32(1)})
		_, err := NewDocument(Element{Key: "a", Value: Embedded{Doc: inner}}).MarshalBSON()
		var ee *ElementError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, "a", ee.Key)
	})

	t.Run("null byte in regex", func(t *testing.T) {
		t.Parallel()
		for _, re := range []Regex{{Pattern: "a\x00b"}, {Pattern: "a", Options: "i\x00"}} {
			_, err := NewDocument(Element{Key: "r", Value: re}).MarshalBSON()
			var ee *ElementError
			require.True(t, errors.As(err, &ee), "regex %q", re.Pattern)
			assert.Equal(t, "r", ee.Key)
		}
	})

	t.Run("nil value", func(t *testing.T) {
		t.Parallel()
		_, err := NewDocument(Element{Key: "a"}).MarshalBSON()
		assert.Error(t, err)
	})

	t.Run("truncated input", func(t *testing.T) {
		t.Parallel()
		var doc Document
		assert.Error(t, doc.UnmarshalBSON([]byte{0x05, 0x00, 0x00}))
	})
}

func TestMarshalExtJSON(t *testing.T) {
	t.Parallel()

	doc := NewDocument(
		Element{Key: "a", Value: Int32(1)},
		Element{Key: "b", Value: String("<x>")},
	)

	canonical, err := MarshalExtJSON(doc, true)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"$numberInt":"1"},"b":"<x>"}`, string(canonical))

	relaxed, err := MarshalExtJSON(doc, false)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":"<x>"}`, string(relaxed))

	back, err := UnmarshalExtJSON(canonical)
	require.NoError(t, err)
	assert.True(t, doc.Equal(back))
}
