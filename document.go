// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"iter"
	"strconv"
)

// Element is a single key/value pair of a Document.
type Element struct {
	Key   string
	Value Value
}

// Document is an ordered mapping from string keys to values.  Keys are
// unique; iteration follows insertion order.  A nil *Document reads as empty.
type Document struct {
	elems []Element
}

// NewDocument returns a document holding the given elements, inserted in
// order.
func NewDocument(elems ...Element) *Document {
	d := &Document{}
	for _, e := range elems {
		d.Insert(e.Key, e.Value)
	}
	return d
}

// NewArrayDocument returns a document keyed "0", "1", ... holding vals.
func NewArrayDocument(vals ...Value) *Document {
	d := &Document{elems: make([]Element, 0, len(vals))}
	for i, v := range vals {
		d.elems = append(d.elems, Element{Key: strconv.Itoa(i), Value: v})
	}
	return d
}

// Insert sets key to v.  A key that is already present keeps its position
// and takes the new value.  It returns the document for chaining.
func (d *Document) Insert(key string, v Value) *Document {
	for i := range d.elems {
		if d.elems[i].Key == key {
			d.elems[i].Value = v
			return d
		}
	}
	d.elems = append(d.elems, Element{Key: key, Value: v})
	return d
}

// Lookup returns the value stored under key.
func (d *Document) Lookup(key string) (Value, bool) {
	if d == nil {
		return nil, false
	}
	for _, e := range d.elems {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Len returns the number of elements.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.elems)
}

// All returns an iterator over the key/value pairs in insertion order.  Each
// call starts a fresh pass.
func (d *Document) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if d == nil {
			return
		}
		n := len(d.elems)
		for i := 0; i < n && i < len(d.elems); i++ {
			if !yield(d.elems[i].Key, d.elems[i].Value) {
				return
			}
		}
	}
}

// Elements returns a copy of the element list.
func (d *Document) Elements() []Element {
	if d == nil {
		return nil
	}
	out := make([]Element, len(d.elems))
	copy(out, d.elems)
	return out
}

// Copy returns a deep copy of the document.
func (d *Document) Copy() *Document {
	if d == nil {
		return nil
	}
	nd := &Document{elems: make([]Element, len(d.elems))}
	for i, e := range d.elems {
		nd.elems[i] = Element{Key: e.Key, Value: copyValue(e.Value)}
	}
	return nd
}

// Equal reports whether both documents hold equal values under the same keys
// in the same order.
func (d *Document) Equal(o *Document) bool {
	if d.Len() != o.Len() {
		return false
	}
	for i := 0; i < d.Len(); i++ {
		if d.elems[i].Key != o.elems[i].Key || !Equal(d.elems[i].Value, o.elems[i].Value) {
			return false
		}
	}
	return true
}

func copyValue(v Value) Value {
	switch x := v.(type) {
	case Embedded:
		return Embedded{Doc: x.Doc.Copy()}
	case Array:
		return Array{Doc: x.Doc.Copy()}
	case Binary:
		return Binary{Subtype: x.Subtype, Data: append([]byte(nil), x.Data...)}
	case JavaScriptWithScope:
		return JavaScriptWithScope{Code: x.Code, Scope: x.Scope.Copy()}
	default:
		return v
	}
}
