// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(d *Document) []string {
	var keys []string
	for k := range d.All() {
		keys = append(keys, k)
	}
	return keys
}

func TestDocument(t *testing.T) {
	t.Parallel()

	t.Run("insert keeps order", func(t *testing.T) {
		t.Parallel()
		d := NewDocument()
		d.Insert("b", Int32(1)).Insert("a", Int32(2)).Insert("c", Int32(3))
		assert.Equal(t, []string{"b", "a", "c"}, keysOf(d))
		assert.Equal(t, 3, d.Len())
	})

	t.Run("insert existing key replaces in place", func(t *testing.T) {
		t.Parallel()
		d := NewDocument(
			Element{Key: "a", Value: Int32(1)},
			Element{Key: "b", Value: Int32(2)},
		)
		d.Insert("a", String("x"))
		assert.Equal(t, []string{"a", "b"}, keysOf(d))
		v, ok := d.Lookup("a")
		require.True(t, ok)
		assert.Equal(t, String("x"), v)
	})

	t.Run("constructor with duplicate keys", func(t *testing.T) {
		t.Parallel()
		d := NewDocument(
			Element{Key: "a", Value: Int32(1)},
			Element{Key: "a", Value: Int32(2)},
		)
		assert.Equal(t, 1, d.Len())
		v, _ := d.Lookup("a")
		assert.Equal(t, Int32(2), v)
	})

	t.Run("lookup missing", func(t *testing.T) {
		t.Parallel()
		v, ok := NewDocument().Lookup("nope")
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("nil document reads as empty", func(t *testing.T) {
		t.Parallel()
		var d *Document
		assert.Equal(t, 0, d.Len())
		assert.Empty(t, keysOf(d))
		assert.Nil(t, d.Elements())
		assert.Nil(t, d.Copy())
		assert.True(t, d.Equal(NewDocument()))
		_, ok := d.Lookup("a")
		assert.False(t, ok)
	})

	t.Run("iteration stops early", func(t *testing.T) {
		t.Parallel()
		d := NewArrayDocument(Int32(0), Int32(1), Int32(2))
		var seen []string
		for k := range d.All() {
			seen = append(seen, k)
			if k == "1" {
				break
			}
		}
		assert.Equal(t, []string{"0", "1"}, seen)
	})

	t.Run("iteration is restartable", func(t *testing.T) {
		t.Parallel()
		d := NewArrayDocument(Int32(0), Int32(1))
		seq := d.All()
		var n int
		for range seq {
			n++
		}
		for range seq {
			n++
		}
		assert.Equal(t, 4, n)
	})

	t.Run("array document keys", func(t *testing.T) {
		t.Parallel()
		d := NewArrayDocument(String("a"), String("b"), String("c"))
		assert.Equal(t, []string{"0", "1", "2"}, keysOf(d))
	})

	t.Run("elements is a copy", func(t *testing.T) {
		t.Parallel()
		d := NewDocument(Element{Key: "a", Value: Int32(1)})
		elems := d.Elements()
		elems[0].Value = Int32(99)
		v, _ := d.Lookup("a")
		assert.Equal(t, Int32(1), v)
	})

	t.Run("copy is deep", func(t *testing.T) {
		t.Parallel()
		inner := NewDocument(Element{Key: "x", Value: Int32(1)})
		bin := Binary{Subtype: 0, Data: []byte{1, 2, 3}}
		d := NewDocument(
			Element{Key: "e", Value: Embedded{Doc: inner}},
			Element{Key: "b", Value: bin},
		)
		c := d.Copy()
		require.True(t, d.Equal(c))

		inner.Insert("y", Int32(2))
		bin.Data[0] = 9
		assert.False(t, d.Equal(c))

		ce, _ := c.Lookup("e")
		assert.Equal(t, 1, ce.(Embedded).Doc.Len())
		cb, _ := c.Lookup("b")
		assert.Equal(t, []byte{1, 2, 3}, cb.(Binary).Data)
	})
}

func TestDocumentEqual(t *testing.T) {
	t.Parallel()

	ab := NewDocument(Element{Key: "a", Value: Int32(1)}, Element{Key: "b", Value: Int32(2)})
	cases := []struct {
		label string
		other *Document
		want  bool
	}{
		{"same", NewDocument(Element{Key: "a", Value: Int32(1)}, Element{Key: "b", Value: Int32(2)}), true},
		{"reordered", NewDocument(Element{Key: "b", Value: Int32(2)}, Element{Key: "a", Value: Int32(1)}), false},
		{"different kind", NewDocument(Element{Key: "a", Value: Int64(1)}, Element{Key: "b", Value: Int32(2)}), false},
		{"shorter", NewDocument(Element{Key: "a", Value: Int32(1)}), false},
		{"nil", nil, false},
	}

	for _, c := range cases {
		c := c
		t.Run(c.label, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, c.want, ab.Equal(c.other))
		})
	}
}

func TestDocumentCmp(t *testing.T) {
	t.Parallel()

	got, err := Unmarshal([]byte(`{"a": [1, {"b": null}]}`))
	require.NoError(t, err)

	want := NewDocument(Element{Key: "a", Value: Array{Doc: NewArrayDocument(
		Int32(1),
		Embedded{Doc: NewDocument(Element{Key: "b", Value: Null{}})},
	)}})

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}
