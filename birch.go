// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"github.com/evergreen-ci/birch"
	"github.com/pkg/errors"
)

type birchCodec struct{}

// BirchCodec returns the Codec for github.com/evergreen-ci/birch documents.
// Values cross over as BSON bytes, so every type birch can hold except
// Decimal128 has a document equivalent.  Decoding accepts Embedded and Array.
// A nil document is Null.
func BirchCodec() Codec[*birch.Document] { return birchCodec{} }

func (birchCodec) Encode(bd *birch.Document) (Value, error) {
	if bd == nil {
		return Null{}, nil
	}
	raw, err := bd.MarshalBSON()
	if err != nil {
		return nil, errors.Wrap(err, "marshaling birch document")
	}
	doc := &Document{}
	if err := doc.UnmarshalBSON(raw); err != nil {
		return nil, err
	}
	return Embedded{Doc: doc}, nil
}

func (birchCodec) Decode(v Value) (*birch.Document, error) {
	if _, ok := v.(Null); ok {
		return nil, nil
	}
	doc, ok := containerOf(v)
	if !ok {
		return nil, mismatch("*birch.Document", v, KindEmbedded, KindArray)
	}
	raw, err := doc.MarshalBSON()
	if err != nil {
		return nil, err
	}
	bd, err := birch.ReadDocument(raw)
	if err != nil {
		return nil, errors.Wrap(err, "reading birch document")
	}
	return bd, nil
}
