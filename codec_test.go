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
)

// point implements the conversion protocol itself.
type point struct {
	X, Y int32
}

func (p point) MarshalDocument() (Value, error) {
	return Embedded{Doc: NewDocument(
		Element{Key: "x", Value: Int32(p.X)},
		Element{Key: "y", Value: Int32(p.Y)},
	)}, nil
}

func (p *point) UnmarshalDocument(v Value) error {
	m, err := MapCodec(Int32Codec[int32]()).Decode(v)
	if err != nil {
		return err
	}
	p.X, p.Y = m["x"], m["y"]
	return nil
}

func TestScalarCodecs(t *testing.T) {
	t.Parallel()

	t.Run("float", func(t *testing.T) {
		t.Parallel()
		c := FloatCodec[float32]()
		v, err := c.Encode(1.5)
		require.NoError(t, err)
		assert.Equal(t, Double(1.5), v)
		f, err := c.Decode(Double(2.25))
		require.NoError(t, err)
		assert.Equal(t, float32(2.25), f)
		_, err = c.Decode(Int32(1))
		var tm *TypeMismatchError
		require.True(t, errors.As(err, &tm))
		assert.Equal(t, KindInt32, tm.Actual)
		assert.Equal(t, []Kind{KindDouble}, tm.Expected)
	})

	t.Run("int32 family", func(t *testing.T) {
		t.Parallel()
		v, err := Int32Codec[uint8]().Encode(200)
		require.NoError(t, err)
		assert.Equal(t, Int32(200), v)
		r, err := Int32Codec[rune]().Decode(Int32('x'))
		require.NoError(t, err)
		assert.Equal(t, 'x', r)
		_, err = Int32Codec[int16]().Decode(Int64(1))
		assert.Error(t, err)
	})

	t.Run("int32 narrowing wraps", func(t *testing.T) {
		t.Parallel()
		b, err := Int32Codec[int8]().Decode(Int32(200))
		require.NoError(t, err)
		assert.Equal(t, int8(-56), b)
	})

	t.Run("int64 family", func(t *testing.T) {
		t.Parallel()
		v, err := Int64Codec[uint64]().Encode(math.MaxUint64)
		require.NoError(t, err)
		assert.Equal(t, Int64(-1), v)
		u, err := Int64Codec[uint64]().Decode(v)
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64), u)
	})

	t.Run("int64 accepts dates and timestamps", func(t *testing.T) {
		t.Parallel()
		c := Int64Codec[int64]()
		n, err := c.Decode(UTCDate(5))
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
		n, err = c.Decode(NewTimestamp(1, 2))
		require.NoError(t, err)
		assert.Equal(t, int64(1)<<32|2, n)
		_, err = c.Decode(Int32(1))
		assert.Error(t, err)
	})

	t.Run("bool", func(t *testing.T) {
		t.Parallel()
		v, err := BoolCodec().Encode(true)
		require.NoError(t, err)
		b, err := BoolCodec().Decode(v)
		require.NoError(t, err)
		assert.True(t, b)
		_, err = BoolCodec().Decode(nil)
		assert.EqualError(t, err, "cannot convert nil value to bool")
	})
}

func TestStringCodecs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label  string
		input  string
		want   Value
		errStr string
	}{
		{label: "quoted", input: `"x"`, want: String("x")},
		{label: "number", input: `42`, want: Int32(42)},
		{label: "object", input: `{"a": 1}`, want: Embedded{Doc: NewDocument(Element{Key: "a", Value: Int32(1)})}},
		{label: "extended JSON", input: `{"$date": {"$numberLong": "10"}}`, want: UTCDate(10)},
		{label: "unquoted word", input: `x`, errStr: "invalid string for parsing"},
		{label: "empty", input: ``, errStr: "invalid string for parsing"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.label, func(t *testing.T) {
			t.Parallel()
			v, err := StringCodec().Encode(c.input)
			if c.errStr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.errStr)
				var pe *ParseError
				assert.True(t, errors.As(err, &pe))
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(c.want, v); diff != "" {
				t.Errorf("StringCodec mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("decode returns content", func(t *testing.T) {
		t.Parallel()
		s, err := StringCodec().Decode(String(`{"a": 1}`))
		require.NoError(t, err)
		assert.Equal(t, `{"a": 1}`, s)
		_, err = StringCodec().Decode(Int32(1))
		assert.Error(t, err)
	})

	t.Run("text round trips anything", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{"", "x", `{"a":`, "\x00"} {
			v, err := TextCodec().Encode(s)
			require.NoError(t, err)
			assert.Equal(t, String(s), v)
			got, err := TextCodec().Decode(v)
			require.NoError(t, err)
			assert.Equal(t, s, got)
		}
	})
}

func TestPointerCodec(t *testing.T) {
	t.Parallel()

	c := PointerCodec(BoolCodec())

	v, err := c.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, Null{}, v)

	b := true
	v, err = c.Encode(&b)
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	p, err := c.Decode(Null{})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = c.Decode(Bool(false))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.False(t, *p)
}

func TestSliceCodec(t *testing.T) {
	t.Parallel()

	c := SliceCodec(TextCodec())

	v, err := c.Encode([]string{"a", "b"})
	require.NoError(t, err)
	want := Array{Doc: NewArrayDocument(String("a"), String("b"))}
	assert.True(t, Equal(want, v))

	got, err := c.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	t.Run("keys are ignored", func(t *testing.T) {
		t.Parallel()
		odd := Array{Doc: NewDocument(
			Element{Key: "9", Value: String("x")},
			Element{Key: "z", Value: String("y")},
		)}
		got, err := c.Decode(odd)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, got)
	})

	t.Run("element error names key", func(t *testing.T) {
		t.Parallel()
		_, err := c.Decode(Array{Doc: NewArrayDocument(String("a"), Int32(1))})
		var ee *ElementError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, "1", ee.Key)
		var tm *TypeMismatchError
		require.True(t, errors.As(ee.Err, &tm))
		assert.Equal(t, []Kind{KindString}, tm.Expected)
		assert.Equal(t, KindInt32, tm.Actual)
	})

	t.Run("int32 round trip keys", func(t *testing.T) {
		t.Parallel()
		ic := SliceCodec(Int32Codec[int32]())
		in := []int32{7, -1, 0, 42}
		v, err := ic.Encode(in)
		require.NoError(t, err)
		arr, ok := v.(Array)
		require.True(t, ok)
		assert.Equal(t, []string{"0", "1", "2", "3"}, keysOf(arr.Doc))
		out, err := ic.Decode(v)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("embedded is not an array", func(t *testing.T) {
		t.Parallel()
		_, err := c.Decode(Embedded{Doc: NewDocument()})
		var tm *TypeMismatchError
		assert.True(t, errors.As(err, &tm))
	})

	t.Run("nil slice encodes empty", func(t *testing.T) {
		t.Parallel()
		v, err := c.Encode(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, v.(Array).Doc.Len())
	})
}

func TestMapCodec(t *testing.T) {
	t.Parallel()

	c := MapCodec(Int64Codec[int]())

	v, err := c.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keysOf(v.(Embedded).Doc))

	got, err := c.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, got)

	fromArray, err := c.Decode(Array{Doc: NewArrayDocument(Int64(7))})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"0": 7}, fromArray)

	shared := NewDocument(
		Element{Key: "x", Value: Int64(1)},
		Element{Key: "y", Value: Int64(2)},
	)
	asEmbedded, err := c.Decode(Embedded{Doc: shared})
	require.NoError(t, err)
	asArray, err := c.Decode(Array{Doc: shared})
	require.NoError(t, err)
	assert.Equal(t, asEmbedded, asArray)
	assert.Equal(t, map[string]int{"x": 1, "y": 2}, asArray)

	_, err = c.Decode(String("x"))
	assert.Error(t, err)
}

func TestNestedCodecs(t *testing.T) {
	t.Parallel()

	c := SliceCodec(MapCodec(Int32Codec[int16]()))
	in := []map[string]int16{{"a": 1}, {}, {"b": -2, "c": 3}}

	v, err := c.Encode(in)
	require.NoError(t, err)
	out, err := c.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDocumentCodec(t *testing.T) {
	t.Parallel()

	d := NewDocument(Element{Key: "a", Value: Int32(1)})
	v, err := DocumentCodec().Encode(d)
	require.NoError(t, err)

	d.Insert("b", Int32(2))
	assert.Equal(t, 1, v.(Embedded).Doc.Len(), "encoding should copy")

	got, err := DocumentCodec().Decode(Array{Doc: NewArrayDocument(Bool(true))})
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, keysOf(got))

	v, err = DocumentCodec().Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, Null{}, v)

	got, err = DocumentCodec().Decode(Null{})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = DocumentCodec().Decode(Int32(1))
	assert.Error(t, err)
}

func TestSelfCodec(t *testing.T) {
	t.Parallel()

	c := SelfCodec[point]()
	v, err := c.Encode(point{X: 1, Y: -1})
	require.NoError(t, err)

	got, err := c.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: -1}, got)

	_, err = c.Decode(Int32(3))
	assert.Error(t, err)
}

func TestCodecFuncs(t *testing.T) {
	t.Parallel()

	exclaim := CodecFuncs[string]{
		EncodeFunc: func(s string) (Value, error) { return String(s + "!"), nil },
		DecodeFunc: func(v Value) (string, error) { return decodeString(v) },
	}
	c := SliceCodec[string](exclaim)

	v, err := c.Encode([]string{"a"})
	require.NoError(t, err)
	got, err := c.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"a!"}, got)
}
