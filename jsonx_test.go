// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"errors"
	"testing"

	"github.com/evergreen-ci/birch/jsonx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONXCodec(t *testing.T) {
	t.Parallel()

	t.Run("encode keeps key order", func(t *testing.T) {
		t.Parallel()
		j := jsonx.VC.ObjectFromElements(
			jsonx.EC.String("z", "last"),
			jsonx.EC.Int("a", 1),
			jsonx.EC.ArrayFromElements("m", jsonx.VC.Boolean(true), jsonx.VC.Nil()),
		)

		v, err := JSONXCodec().Encode(j)
		require.NoError(t, err)

		want := Embedded{Doc: NewDocument(
			Element{Key: "z", Value: String("last")},
			Element{Key: "a", Value: Double(1)},
			Element{Key: "m", Value: Array{Doc: NewArrayDocument(Bool(true), Null{})}},
		)}
		assert.True(t, Equal(want, v), "got %#v", v)
	})

	t.Run("decode keeps key order", func(t *testing.T) {
		t.Parallel()
		v := Embedded{Doc: NewDocument(
			Element{Key: "b", Value: Int32(2)},
			Element{Key: "a", Value: String("x")},
		)}

		j, err := JSONXCodec().Decode(v)
		require.NoError(t, err)

		doc, ok := j.DocumentOK()
		require.True(t, ok)
		require.Equal(t, 2, doc.Len())
		assert.Equal(t, "b", doc.KeyAtIndex(0))
		assert.Equal(t, "a", doc.KeyAtIndex(1))
		assert.Equal(t, float64(2), doc.ElementAtIndex(0).Value().Float64())
		assert.Equal(t, "x", doc.ElementAtIndex(1).Value().StringValue())
	})

	t.Run("nil encodes as null", func(t *testing.T) {
		t.Parallel()
		v, err := JSONXCodec().Encode(nil)
		require.NoError(t, err)
		assert.Equal(t, Null{}, v)
	})

	t.Run("unrepresentable", func(t *testing.T) {
		t.Parallel()
		_, err := JSONXCodec().Decode(Array{Doc: NewArrayDocument(MinKey{})})
		var ue *UnrepresentableError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, KindMinKey, ue.Kind)
	})
}
