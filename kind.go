// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import "go.mongodb.org/mongo-driver/bson/bsontype"

// Kind identifies which case of the Value sum type is active.  Kind values
// are the BSON type bytes of the corresponding BSON types.
type Kind byte

// The document value kinds.
const (
	KindDouble              Kind = 0x01
	KindString              Kind = 0x02
	KindEmbedded            Kind = 0x03
	KindArray               Kind = 0x04
	KindBinary              Kind = 0x05
	KindObjectID            Kind = 0x07
	KindBool                Kind = 0x08
	KindUTCDate             Kind = 0x09
	KindNull                Kind = 0x0A
	KindRegex               Kind = 0x0B
	KindJavaScript          Kind = 0x0D
	KindJavaScriptWithScope Kind = 0x0F
	KindInt32               Kind = 0x10
	KindTimestamp           Kind = 0x11
	KindInt64               Kind = 0x12
	KindMaxKey              Kind = 0x7F
	KindMinKey              Kind = 0xFF
)

var kindNames = map[Kind]string{
	KindDouble:              "Double",
	KindString:              "String",
	KindEmbedded:            "Embedded",
	KindArray:               "Array",
	KindBinary:              "Binary",
	KindObjectID:            "ObjectID",
	KindBool:                "Bool",
	KindUTCDate:             "UTCDate",
	KindNull:                "Null",
	KindRegex:               "Regex",
	KindJavaScript:          "JavaScript",
	KindJavaScriptWithScope: "JavaScriptWithScope",
	KindInt32:               "Int32",
	KindTimestamp:           "Timestamp",
	KindInt64:               "Int64",
	KindMaxKey:              "MaxKey",
	KindMinKey:              "MinKey",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	// BSON types with no Value case, such as Decimal128, use the driver's
	// names.
	return bsontype.Type(k).String()
}

// BSONType returns the driver's type constant for the kind.
func (k Kind) BSONType() bsontype.Type { return bsontype.Type(k) }
