// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimeCodec returns the Codec for time.Time.  Times are stored as UTCDate
// with millisecond precision; decoded times are in UTC.
func TimeCodec() Codec[time.Time] {
	return CodecFuncs[time.Time]{
		EncodeFunc: func(t time.Time) (Value, error) {
			return UTCDate(t.UnixMilli()), nil
		},
		DecodeFunc: func(v Value) (time.Time, error) {
			d, ok := v.(UTCDate)
			if !ok {
				return time.Time{}, mismatch("time.Time", v, KindUTCDate)
			}
			return time.UnixMilli(int64(d)).UTC(), nil
		},
	}
}

// ObjectIDCodec returns the Codec for the MongoDB driver's ObjectID.
func ObjectIDCodec() Codec[primitive.ObjectID] {
	return CodecFuncs[primitive.ObjectID]{
		EncodeFunc: func(id primitive.ObjectID) (Value, error) {
			return ObjectID(id), nil
		},
		DecodeFunc: func(v Value) (primitive.ObjectID, error) {
			id, ok := v.(ObjectID)
			if !ok {
				return primitive.NilObjectID, mismatch("primitive.ObjectID", v, KindObjectID)
			}
			return primitive.ObjectID(id), nil
		},
	}
}

// The remaining driver primitives are reachable through the default
// Registry.

var dateTimeCodec = CodecFuncs[primitive.DateTime]{
	EncodeFunc: func(d primitive.DateTime) (Value, error) { return UTCDate(d), nil },
	DecodeFunc: func(v Value) (primitive.DateTime, error) {
		d, ok := v.(UTCDate)
		if !ok {
			return 0, mismatch("primitive.DateTime", v, KindUTCDate)
		}
		return primitive.DateTime(d), nil
	},
}

var binaryCodec = CodecFuncs[primitive.Binary]{
	EncodeFunc: func(b primitive.Binary) (Value, error) {
		return Binary{Subtype: b.Subtype, Data: append([]byte(nil), b.Data...)}, nil
	},
	DecodeFunc: func(v Value) (primitive.Binary, error) {
		b, ok := v.(Binary)
		if !ok {
			return primitive.Binary{}, mismatch("primitive.Binary", v, KindBinary)
		}
		return primitive.Binary{Subtype: b.Subtype, Data: append([]byte(nil), b.Data...)}, nil
	},
}

var regexCodec = CodecFuncs[primitive.Regex]{
	EncodeFunc: func(r primitive.Regex) (Value, error) {
		return Regex{Pattern: r.Pattern, Options: r.Options}, nil
	},
	DecodeFunc: func(v Value) (primitive.Regex, error) {
		r, ok := v.(Regex)
		if !ok {
			return primitive.Regex{}, mismatch("primitive.Regex", v, KindRegex)
		}
		return primitive.Regex{Pattern: r.Pattern, Options: r.Options}, nil
	},
}

var timestampCodec = CodecFuncs[primitive.Timestamp]{
	EncodeFunc: func(ts primitive.Timestamp) (Value, error) { return NewTimestamp(ts.T, ts.I), nil },
	DecodeFunc: func(v Value) (primitive.Timestamp, error) {
		ts, ok := v.(Timestamp)
		if !ok {
			return primitive.Timestamp{}, mismatch("primitive.Timestamp", v, KindTimestamp)
		}
		t, i := ts.Parts()
		return primitive.Timestamp{T: t, I: i}, nil
	},
}

var javaScriptCodec = CodecFuncs[primitive.JavaScript]{
	EncodeFunc: func(js primitive.JavaScript) (Value, error) { return JavaScript(js), nil },
	DecodeFunc: func(v Value) (primitive.JavaScript, error) {
		js, ok := v.(JavaScript)
		if !ok {
			return "", mismatch("primitive.JavaScript", v, KindJavaScript)
		}
		return primitive.JavaScript(js), nil
	},
}

// The driver leaves a scope's Go type open.  A *Document is used as is and
// anything else goes through bson.Marshal; decoding always yields a
// *Document scope.
var codeWithScopeCodec = CodecFuncs[primitive.CodeWithScope]{
	EncodeFunc: func(cws primitive.CodeWithScope) (Value, error) {
		var scope *Document
		switch s := cws.Scope.(type) {
		case nil:
			scope = &Document{}
		case *Document:
			scope = s.Copy()
		default:
			raw, err := bson.Marshal(s)
			if err != nil {
				return nil, errors.Wrap(err, "marshaling JavaScript scope")
			}
			scope = &Document{}
			if err := scope.UnmarshalBSON(raw); err != nil {
				return nil, err
			}
		}
		return JavaScriptWithScope{Code: string(cws.Code), Scope: scope}, nil
	},
	DecodeFunc: func(v Value) (primitive.CodeWithScope, error) {
		cws, ok := v.(JavaScriptWithScope)
		if !ok {
			return primitive.CodeWithScope{}, mismatch("primitive.CodeWithScope", v, KindJavaScriptWithScope)
		}
		scope := cws.Scope.Copy()
		if scope == nil {
			scope = &Document{}
		}
		return primitive.CodeWithScope{Code: primitive.JavaScript(cws.Code), Scope: scope}, nil
	},
}

var minKeyCodec = CodecFuncs[primitive.MinKey]{
	EncodeFunc: func(primitive.MinKey) (Value, error) { return MinKey{}, nil },
	DecodeFunc: func(v Value) (primitive.MinKey, error) {
		if _, ok := v.(MinKey); !ok {
			return primitive.MinKey{}, mismatch("primitive.MinKey", v, KindMinKey)
		}
		return primitive.MinKey{}, nil
	},
}

var maxKeyCodec = CodecFuncs[primitive.MaxKey]{
	EncodeFunc: func(primitive.MaxKey) (Value, error) { return MaxKey{}, nil },
	DecodeFunc: func(v Value) (primitive.MaxKey, error) {
		if _, ok := v.(MaxKey); !ok {
			return primitive.MaxKey{}, mismatch("primitive.MaxKey", v, KindMaxKey)
		}
		return primitive.MaxKey{}, nil
	},
}

var nullCodec = CodecFuncs[primitive.Null]{
	EncodeFunc: func(primitive.Null) (Value, error) { return Null{}, nil },
	DecodeFunc: func(v Value) (primitive.Null, error) {
		if _, ok := v.(Null); !ok {
			return primitive.Null{}, mismatch("primitive.Null", v, KindNull)
		}
		return primitive.Null{}, nil
	},
}
