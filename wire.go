// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"strings"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// MarshalBSON encodes the document as BSON bytes.  It lets a *Document be
// passed to the MongoDB Go driver anywhere a bson.Marshaler is accepted.
func (d *Document) MarshalBSON() ([]byte, error) {
	return appendDocument(make([]byte, 0, 256), d)
}

// UnmarshalBSON replaces the document's contents with the decoded BSON
// bytes.
func (d *Document) UnmarshalBSON(b []byte) error {
	nd, err := documentFromCore(bsoncore.Document(b))
	if err != nil {
		return err
	}
	d.elems = nd.elems
	return nil
}

// MarshalExtJSON renders the document as Extended JSON, canonical or
// relaxed.
func MarshalExtJSON(d *Document, canonical bool) ([]byte, error) {
	raw, err := d.MarshalBSON()
	if err != nil {
		return nil, err
	}
	return bson.MarshalExtJSON(bson.Raw(raw), canonical, false)
}

func appendDocument(dst []byte, d *Document) ([]byte, error) {
	idx, dst := bsoncore.AppendDocumentStart(dst)
	var err error
	for key, v := range d.All() {
		if strings.IndexByte(key, 0) >= 0 {
			return nil, errors.Errorf("key %q contains a null byte", key)
		}
		dst, err = appendElement(dst, key, v)
		if err != nil {
			return nil, &ElementError{Key: key, Err: err}
		}
	}
	return bsoncore.AppendDocumentEnd(dst, idx)
}

func appendElement(dst []byte, key string, v Value) ([]byte, error) {
	switch x := v.(type) {
	case Double:
		return bsoncore.AppendDoubleElement(dst, key, float64(x)), nil
	case String:
		return bsoncore.AppendStringElement(dst, key, string(x)), nil
	case Embedded:
		sub, err := appendDocument(nil, x.Doc)
		if err != nil {
			return nil, err
		}
		return bsoncore.AppendDocumentElement(dst, key, sub), nil
	case Array:
		sub, err := appendDocument(nil, x.Doc)
		if err != nil {
			return nil, err
		}
		return bsoncore.AppendArrayElement(dst, key, sub), nil
	case Binary:
		return bsoncore.AppendBinaryElement(dst, key, x.Subtype, x.Data), nil
	case ObjectID:
		return bsoncore.AppendObjectIDElement(dst, key, primitive.ObjectID(x)), nil
	case Bool:
		return bsoncore.AppendBooleanElement(dst, key, bool(x)), nil
	case UTCDate:
		return bsoncore.AppendDateTimeElement(dst, key, int64(x)), nil
	case Null:
		return bsoncore.AppendNullElement(dst, key), nil
	case Regex:
		if strings.IndexByte(x.Pattern, 0) >= 0 || strings.IndexByte(x.Options, 0) >= 0 {
			return nil, errors.Errorf("regex %q contains a null byte", x.Pattern+"/"+x.Options)
		}
		return bsoncore.AppendRegexElement(dst, key, x.Pattern, x.Options), nil
	case JavaScript:
		return bsoncore.AppendJavaScriptElement(dst, key, string(x)), nil
	case JavaScriptWithScope:
		scope, err := appendDocument(nil, x.Scope)
		if err != nil {
			return nil, err
		}
		return bsoncore.AppendCodeWithScopeElement(dst, key, x.Code, scope), nil
	case Int32:
		return bsoncore.AppendInt32Element(dst, key, int32(x)), nil
	case Timestamp:
		t, i := x.Parts()
		return bsoncore.AppendTimestampElement(dst, key, t, i), nil
	case Int64:
		return bsoncore.AppendInt64Element(dst, key, int64(x)), nil
	case MinKey:
		return bsoncore.AppendMinKeyElement(dst, key), nil
	case MaxKey:
		return bsoncore.AppendMaxKeyElement(dst, key), nil
	default:
		return nil, errors.Errorf("cannot encode value of type %T", v)
	}
}

func documentFromCore(raw bsoncore.Document) (*Document, error) {
	elems, err := raw.Elements()
	if err != nil {
		return nil, errors.Wrap(err, "reading BSON document")
	}
	doc := &Document{elems: make([]Element, 0, len(elems))}
	for _, elem := range elems {
		key, err := elem.KeyErr()
		if err != nil {
			return nil, errors.Wrap(err, "reading BSON key")
		}
		v, err := valueFromCore(elem.Value())
		if err != nil {
			return nil, &ElementError{Key: key, Err: err}
		}
		doc.Insert(key, v)
	}
	return doc, nil
}

func valueFromCore(v bsoncore.Value) (Value, error) {
	switch v.Type {
	case bsontype.Double:
		return Double(v.Double()), nil
	case bsontype.String:
		return String(v.StringValue()), nil
	case bsontype.Symbol:
		return String(v.Symbol()), nil
	case bsontype.EmbeddedDocument:
		doc, err := documentFromCore(v.Document())
		if err != nil {
			return nil, err
		}
		return Embedded{Doc: doc}, nil
	case bsontype.Array:
		doc, err := documentFromCore(bsoncore.Document(v.Array()))
		if err != nil {
			return nil, err
		}
		return Array{Doc: doc}, nil
	case bsontype.Binary:
		subtype, data := v.Binary()
		return Binary{Subtype: subtype, Data: append([]byte(nil), data...)}, nil
	case bsontype.ObjectID:
		return ObjectID(v.ObjectID()), nil
	case bsontype.Boolean:
		return Bool(v.Boolean()), nil
	case bsontype.DateTime:
		return UTCDate(v.DateTime()), nil
	case bsontype.Null, bsontype.Undefined:
		return Null{}, nil
	case bsontype.Regex:
		pattern, options := v.Regex()
		return Regex{Pattern: pattern, Options: options}, nil
	case bsontype.DBPointer:
		ns, oid := v.DBPointer()
		return dbPointer(ns, ObjectID(oid)), nil
	case bsontype.JavaScript:
		return JavaScript(v.JavaScript()), nil
	case bsontype.CodeWithScope:
		code, scope := v.CodeWithScope()
		doc, err := documentFromCore(scope)
		if err != nil {
			return nil, err
		}
		return JavaScriptWithScope{Code: code, Scope: doc}, nil
	case bsontype.Int32:
		return Int32(v.Int32()), nil
	case bsontype.Timestamp:
		t, i := v.Timestamp()
		return NewTimestamp(t, i), nil
	case bsontype.Int64:
		return Int64(v.Int64()), nil
	case bsontype.MinKey:
		return MinKey{}, nil
	case bsontype.MaxKey:
		return MaxKey{}, nil
	case bsontype.Decimal128:
		return nil, &UnrepresentableError{Kind: Kind(v.Type), Target: "a document value"}
	default:
		return nil, errors.Errorf("unknown BSON type 0x%02x", byte(v.Type))
	}
}

// dbPointer maps the deprecated DBPointer type onto the DBRef convention.
func dbPointer(ns string, id ObjectID) Embedded {
	return Embedded{Doc: NewDocument(
		Element{Key: "$ref", Value: String(ns)},
		Element{Key: "$id", Value: id},
	)}
}
