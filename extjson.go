// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Efficient extended JSON detection:
//
// The longest extended JSON key is $regularExpression at 18 letters
// The shortest extended JSON key is $oid at 3 letters.  Any $-prefixed
// key outside those lengths isn't extended JSON.

var (
	jsonOID               = []byte("$oid")
	jsonCode              = []byte("$code")
	jsonDate              = []byte("$date")
	jsonType              = []byte("$type")
	jsonScope             = []byte("$scope")
	jsonRegex             = []byte("$regex")
	jsonBinary            = []byte("$binary")
	jsonMaxKey            = []byte("$maxKey")
	jsonMinKey            = []byte("$minKey")
	jsonSymbol            = []byte("$symbol")
	jsonOptions           = []byte("$options")
	jsonDbPointer         = []byte("$dbPointer")
	jsonNumberInt         = []byte("$numberInt")
	jsonTimestamp         = []byte("$timestamp")
	jsonUndefined         = []byte("$undefined")
	jsonNumberLong        = []byte("$numberLong")
	jsonNumberDouble      = []byte("$numberDouble")
	jsonNumberDecimal     = []byte("$numberDecimal")
	jsonRegularExpression = []byte("$regularExpression")

	jsonSubType   = []byte("subType")
	jsonBase64    = []byte("base64")
	jsonRef       = []byte("$ref")
	jsonID        = []byte("$id")
	jsonREpattern = []byte("pattern")
	jsonREoptions = []byte("options")
)

// The NaN bit pattern the Extended JSON specification calls canonical.  Go's
// math.NaN carries a payload.
const canonicalNaN = 0x7FF8000000000000

// handleExtJSON starts after the opening quote of an object's first key.  It
// returns a nil Value, having consumed nothing, if the object is not an
// Extended JSON wrapper.
func (d *Decoder) handleExtJSON() (Value, error) {
	// Peek ahead for longest possible extjson key plus closing quote.
	buf, err := d.json.Peek(19)
	if err != nil {
		// May have peeked to end of input, so EOF is OK.
		if err != io.EOF {
			return nil, newReadError(err)
		}
	}

	// Common case: not extended JSON.
	if len(buf) == 0 || buf[0] != '$' {
		return nil, nil
	}

	// Isolate key
	quotePos := bytes.IndexByte(buf, '"')
	if quotePos < 0 {
		// Key is longer than `$regularExpression"`, so not valid extended JSON.
		return nil, nil
	}
	key := buf[0:quotePos]

	switch len(key) {
	case 4: // $oid
		if bytes.Equal(key, jsonOID) {
			_, _ = d.json.Discard(5)
			return d.convertOID()
		}
	case 5: // $code $date $type
		if bytes.Equal(key, jsonCode) {
			// Still don't know if this is code or code w/scope.
			_, _ = d.json.Discard(6)
			return d.convertCode()
		} else if bytes.Equal(key, jsonDate) {
			_, _ = d.json.Discard(6)
			return d.convertDate()
		} else if bytes.Equal(key, jsonType) {
			// Still don't know if this is binary or a $type query operator, so
			// can't discard anything yet.
			return d.convertType()
		}
	case 6: // $scope $regex
		if bytes.Equal(key, jsonScope) {
			_, _ = d.json.Discard(7)
			return d.convertScope()
		} else if bytes.Equal(key, jsonRegex) {
			// Still don't know if this is legacy $regex or a $regex query
			// operator so can't discard yet.
			return d.convertRegex()
		}
	case 7: // $binary $maxKey $minKey $symbol
		if bytes.Equal(key, jsonBinary) {
			_, _ = d.json.Discard(8)
			return d.convertBinary()
		} else if bytes.Equal(key, jsonMaxKey) {
			_, _ = d.json.Discard(8)
			return d.convertMinMaxKey(MaxKey{})
		} else if bytes.Equal(key, jsonMinKey) {
			_, _ = d.json.Discard(8)
			return d.convertMinMaxKey(MinKey{})
		} else if bytes.Equal(key, jsonSymbol) {
			_, _ = d.json.Discard(8)
			return d.convertSymbol()
		}
	case 8: // $options
		if bytes.Equal(key, jsonOptions) {
			// Still don't know if this is legacy $regex or non-extJSON
			// so can't discard yet.
			return d.convertOptions()
		}
	case 10: // $dbPointer $numberInt $timestamp $undefined
		if bytes.Equal(key, jsonDbPointer) {
			_, _ = d.json.Discard(11)
			return d.convertDBPointer()
		} else if bytes.Equal(key, jsonNumberInt) {
			_, _ = d.json.Discard(11)
			return d.convertNumberInt()
		} else if bytes.Equal(key, jsonTimestamp) {
			_, _ = d.json.Discard(11)
			return d.convertTimestamp()
		} else if bytes.Equal(key, jsonUndefined) {
			_, _ = d.json.Discard(11)
			return d.convertUndefined()
		}
	case 11: // $numberLong
		if bytes.Equal(key, jsonNumberLong) {
			_, _ = d.json.Discard(12)
			return d.convertNumberLong()
		}
	case 13: // $numberDouble
		if bytes.Equal(key, jsonNumberDouble) {
			_, _ = d.json.Discard(14)
			return d.convertNumberDouble()
		}
	case 14: // $numberDecimal
		if bytes.Equal(key, jsonNumberDecimal) {
			return nil, &ParseError{
				msg: "parse error: $numberDecimal",
				err: &UnrepresentableError{Kind: Kind(bsontype.Decimal128), Target: "a document value"},
			}
		}
	case 18: // $regularExpression
		if bytes.Equal(key, jsonRegularExpression) {
			_, _ = d.json.Discard(19)
			return d.convertRegularExpression()
		}
	}

	// Not an extended JSON key
	return nil, nil
}

func (d *Decoder) convertOID() (Value, error) {
	// consume ':'
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}

	// consume opening quote of string
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}

	// peek ahead for 24 bytes and closing quote
	buf, err := d.json.Peek(25)
	if err != nil {
		return nil, newReadError(err)
	}
	if buf[24] != '"' {
		return nil, d.parseError(buf[24], "ill-formed $oid")
	}

	// extract hex string and convert
	var oid ObjectID
	if _, err := hex.Decode(oid[:], buf[0:24]); err != nil {
		return nil, &ParseError{msg: "parse error: objectID conversion", err: err}
	}

	// look for object close
	_, _ = d.json.Discard(25)
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return oid, nil
}

// Starts after `"$code"`.  Need to find out if it's just $code or followed by
// $scope.
func (d *Decoder) convertCode() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	code, err := d.convertCString(nil)
	if err != nil {
		return nil, err
	}

	// Look for value separator or object terminator
	ch, err := d.readAfterWS()
	if err != nil {
		return nil, newReadError(err)
	}
	switch ch {
	case '}':
		return JavaScript(code), nil
	case ',':
		// Must be followed by $scope
		if err := d.readQuoteStart(); err != nil {
			return nil, err
		}
		if err := d.readSpecificKey(jsonScope); err != nil {
			return nil, err
		}
		if err := d.readCharAfterWS('{'); err != nil {
			return nil, err
		}
		scope, err := d.convertDocument()
		if err != nil {
			return nil, err
		}
		if err := d.readObjectTerminator(); err != nil {
			return nil, err
		}
		return JavaScriptWithScope{Code: string(code), Scope: scope}, nil
	default:
		return nil, d.parseError(ch, "expected value separator or end of object")
	}
}

func (d *Decoder) convertDate() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}

	ch, err := d.readAfterWS()
	if err != nil {
		return nil, newReadError(err)
	}

	var date UTCDate
	switch ch {
	case '"':
		// shortest ISO-8601 is `YYYY-MM-DDTHH:MM:SSZ` (20 chars); longest is
		// `YYYY-MM-DDTHH:MM:SS.sss+HH:MM` (29 chars).  Plus we need the closing
		// quote.  Peek a little further in case extra precision is given
		// (counter to the Extended JSON specification)
		buf, err := d.peekBoundedQuote(21, 48)
		if err != nil {
			return nil, err
		}
		epochMillis, err := parseISO8601toEpochMillis(buf)
		if err != nil {
			return nil, &ParseError{msg: "parse error", err: err}
		}
		_, _ = d.json.Discard(len(buf) + 1)
		date = UTCDate(epochMillis)
	case '{':
		if err := d.readQuoteStart(); err != nil {
			return nil, err
		}
		if err := d.readSpecificKey(jsonNumberLong); err != nil {
			return nil, err
		}
		n, err := d.readQuotedInt(64)
		if err != nil {
			return nil, err
		}
		if err := d.readObjectTerminator(); err != nil {
			return nil, err
		}
		date = UTCDate(n)
	default:
		// Legacy form with a bare integer
		if err := d.json.UnreadByte(); err != nil {
			return nil, newReadError(err)
		}
		v, err := d.convertNumber()
		if err != nil {
			return nil, err
		}
		switch x := v.(type) {
		case Int32:
			date = UTCDate(x)
		case Int64:
			date = UTCDate(x)
		default:
			return nil, d.parseError(ch, "$date must be a string, object or integer")
		}
	}

	// Must end with document terminator
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return date, nil
}

// Starts after `"` of `"$type"` for key.  Need to distinguish between
// Extended JSON $type or MongoDB $type query operator.
// If we can peek far enough, we can check with regular expresssions.

var dollarTypeExtJSONRe = regexp.MustCompile(`^\$type"\s*:\s*"[0-9a-fA-F]{1,2}"`)
var dollarTypeQueryOpRe = regexp.MustCompile(`^\$type"\s*:\s*(\d+|"\w+"|\{|\[)`)

func (d *Decoder) convertType() (Value, error) {
	isExtJSON, err := d.peekMatch(10, dollarTypeExtJSONRe, dollarTypeQueryOpRe)
	if err != nil || !isExtJSON {
		return nil, err
	}

	// Discard $type key and closing quote
	_, _ = d.json.Discard(6)
	// Read name separator and opening quote
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	subType, err := d.convertBinarySubType()
	if err != nil {
		return nil, err
	}

	// $binary key must be next
	if err := d.readCharAfterWS(','); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	if err := d.readSpecificKey(jsonBinary); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	data, err := d.convertBase64(nil)
	if err != nil {
		return nil, err
	}

	// Must end with document terminator
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return Binary{Subtype: subType, Data: data}, nil
}

// peekMatch peeks successively further until extRe or queryRe matches.  It
// reports whether extRe matched; if neither does the object is treated as
// ordinary JSON.
func (d *Decoder) peekMatch(minLen int, extRe, queryRe *regexp.Regexp) (bool, error) {
	// Peek ahead successively longer; shouldn't be necessary but
	// covers a pathological case with excessive white space
	for peekDistance := 64; peekDistance <= d.json.Size(); peekDistance *= 2 {
		buf, err := d.json.Peek(peekDistance)
		if err != nil && err != io.EOF {
			return false, newReadError(err)
		}
		if len(buf) < minLen {
			return false, newReadError(io.ErrUnexpectedEOF)
		}
		if extRe.Match(buf) {
			return true, nil
		} else if queryRe.Match(buf) {
			return false, nil
		}
		if len(buf) < peekDistance {
			break
		}
	}
	return false, nil
}

func (d *Decoder) convertBinarySubType() (byte, error) {
	subTypeBytes, err := d.peekBoundedQuote(2, 3)
	if err != nil {
		return 0, err
	}
	if len(subTypeBytes) == 0 {
		return 0, d.parseError('"', "empty binary subtype")
	}
	// Go requires even digits to decode hex.
	normalizedSubType := subTypeBytes
	if len(normalizedSubType) == 1 {
		normalizedSubType = []byte{'0', normalizedSubType[0]}
	}
	var x [1]byte
	if _, err := hex.Decode(x[:], normalizedSubType); err != nil {
		return 0, d.parseError(subTypeBytes[0], fmt.Sprintf("error parsing subtype: %v", err))
	}
	_, _ = d.json.Discard(len(subTypeBytes) + 1)

	return x[0], nil
}

// Leading $scope means code w/ scope with the scope document first.
func (d *Decoder) convertScope() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}
	if err := d.readCharAfterWS('{'); err != nil {
		return nil, err
	}
	scope, err := d.convertDocument()
	if err != nil {
		return nil, err
	}

	// Read $code
	if err := d.readCharAfterWS(','); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	if err := d.readSpecificKey(jsonCode); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	code, err := d.convertCString(nil)
	if err != nil {
		return nil, err
	}

	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return JavaScriptWithScope{Code: string(code), Scope: scope}, nil
}

var dollarRegexExtJSONRe = regexp.MustCompile(`^\$regex"\s*:\s*"`)
var dollarRegexQueryOpRe = regexp.MustCompile(`^\$regex"\s*:\s*\{`)

func (d *Decoder) convertRegex() (Value, error) {
	// Smallest possible matching buffer is 9 chars: `$regex":{`
	isExtJSON, err := d.peekMatch(9, dollarRegexExtJSONRe, dollarRegexQueryOpRe)
	if err != nil || !isExtJSON {
		return nil, err
	}

	// Discard $regex key and closing quote
	_, _ = d.json.Discard(7)
	// Read name separator and opening quote
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}

	pattern, err := d.convertCString(nil)
	if err != nil {
		return nil, err
	}

	// $options key must be next
	if err := d.readCharAfterWS(','); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	if err := d.readSpecificKey(jsonOptions); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	options, err := d.convertCString(nil)
	if err != nil {
		return nil, err
	}

	// Must end with document terminator.
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return Regex{Pattern: string(pattern), Options: string(options)}, nil
}

func (d *Decoder) convertBinary() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}

	// Determine if this is v1 or v2 $binary
	ch, err := d.readAfterWS()
	if err != nil {
		return nil, newReadError(err)
	}

	var bin Binary
	switch ch {
	case '{':
		bin, err = d.convertV2Binary()
	case '"':
		bin, err = d.convertV1Binary()
	default:
		return nil, d.parseError(ch, "expected object or string")
	}
	if err != nil {
		return nil, err
	}

	// Must end with document terminator
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return bin, nil
}

// v2 $binary is a document with keys "base64" and "subType".
// This function is called after the opening bracket is already read.
func (d *Decoder) convertV2Binary() (Binary, error) {
	var bin Binary

	// Need to see exactly 2 keys, subType and base64, in any order.
	var sawBase64 bool
	var sawSubType bool
	for !sawBase64 || !sawSubType {
		if err := d.readQuoteStart(); err != nil {
			return bin, err
		}

		key, err := d.peekBoundedQuote(7, 8)
		if err != nil {
			return bin, err
		}
		switch {
		case bytes.Equal(key, jsonSubType):
			if sawSubType {
				return bin, d.parseError(key[0], "subType repeated")
			}
			sawSubType = true
			_, _ = d.json.Discard(len(key) + 1)
			if err := d.readNameSeparator(); err != nil {
				return bin, err
			}
			if err := d.readQuoteStart(); err != nil {
				return bin, err
			}
			bin.Subtype, err = d.convertBinarySubType()
			if err != nil {
				return bin, err
			}
			if !sawBase64 {
				if err := d.readCharAfterWS(','); err != nil {
					return bin, err
				}
			}
		case bytes.Equal(key, jsonBase64):
			if sawBase64 {
				return bin, d.parseError(key[0], "base64 repeated")
			}
			sawBase64 = true
			_, _ = d.json.Discard(len(key) + 1)
			if err := d.readNameSeparator(); err != nil {
				return bin, err
			}
			if err := d.readQuoteStart(); err != nil {
				return bin, err
			}
			bin.Data, err = d.convertBase64(nil)
			if err != nil {
				return bin, err
			}
			if !sawSubType {
				if err := d.readCharAfterWS(','); err != nil {
					return bin, err
				}
			}
		default:
			return bin, d.parseError('"', "invalid key for $binary document")
		}
	}

	// Must end with document terminator
	if err := d.readObjectTerminator(); err != nil {
		return bin, err
	}

	return bin, nil
}

// v1 $binary is a string, followed by "$type" and no other keys.  This function
// is called after the opening quote of the base64 payload is already read.
func (d *Decoder) convertV1Binary() (Binary, error) {
	var bin Binary

	data, err := d.convertBase64(nil)
	if err != nil {
		return bin, err
	}
	bin.Data = data

	// $type key must be next
	if err := d.readCharAfterWS(','); err != nil {
		return bin, err
	}
	if err := d.readQuoteStart(); err != nil {
		return bin, err
	}
	if err := d.readSpecificKey(jsonType); err != nil {
		return bin, err
	}
	if err := d.readQuoteStart(); err != nil {
		return bin, err
	}
	bin.Subtype, err = d.convertBinarySubType()
	if err != nil {
		return bin, err
	}

	return bin, nil
}

func (d *Decoder) convertMinMaxKey(v Value) (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}

	// Rest must be `1` followed by object terminator
	if err := d.readCharAfterWS('1'); err != nil {
		return nil, err
	}
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return v, nil
}

// Symbols have no value of their own and become strings.
func (d *Decoder) convertSymbol() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}

	// Must have `"` followed by string followed by object terminator
	if err := d.readCharAfterWS('"'); err != nil {
		return nil, err
	}
	s, err := d.convertString()
	if err != nil {
		return nil, err
	}
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return s, nil
}

var dollarOptionsExtJSONRe = regexp.MustCompile(`^\$options"\s*:\s*"[a-z]*"\s*,\s*"\$regex"\s*:\s*"`)
var dollarOptionsQueryOpRe = regexp.MustCompile(`^\$options"\s*:\s*"[a-z]*"\s*,\s*"\$regex"\s*:\s*\{`)

func (d *Decoder) convertOptions() (Value, error) {
	// Smallest possible matching buffer is 23 chars: `$options":"","$regex":{`
	isExtJSON, err := d.peekMatch(23, dollarOptionsExtJSONRe, dollarOptionsQueryOpRe)
	if err != nil || !isExtJSON {
		return nil, err
	}

	// Discard $options key and closing quote
	_, _ = d.json.Discard(9)
	// Read name separator and opening quote
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	options, err := d.convertCString(nil)
	if err != nil {
		return nil, err
	}

	// $regex key must be next
	if err := d.readCharAfterWS(','); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	if err := d.readSpecificKey(jsonRegex); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	pattern, err := d.convertCString(nil)
	if err != nil {
		return nil, err
	}

	// Must end with document terminator.
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return Regex{Pattern: string(pattern), Options: string(options)}, nil
}

// DBPointers have no value of their own and become DBRef-style documents.
func (d *Decoder) convertDBPointer() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}

	// Inner object
	if err := d.readCharAfterWS('{'); err != nil {
		return nil, err
	}

	// Need to see exactly 2 keys, '$ref' and '$id', in any order.
	var ref []byte
	var id ObjectID
	var sawRef bool
	var sawID bool
	for !sawRef || !sawID {
		// Read key and skip ahead to start of value.
		if err := d.readQuoteStart(); err != nil {
			return nil, err
		}
		key, err := d.peekBoundedQuote(4, 5)
		if err != nil {
			return nil, err
		}

		// Handle the key.
		switch {
		case bytes.Equal(key, jsonRef):
			if sawRef {
				return nil, d.parseError(key[0], "key '$ref' repeated")
			}
			sawRef = true
			_, _ = d.json.Discard(len(key) + 1)
			if err := d.readNameSeparator(); err != nil {
				return nil, err
			}
			if err := d.readQuoteStart(); err != nil {
				return nil, err
			}
			ref, err = d.convertCString(nil)
			if err != nil {
				return nil, err
			}
			if !sawID {
				if err := d.readCharAfterWS(','); err != nil {
					return nil, err
				}
			}
		case bytes.Equal(key, jsonID):
			if sawID {
				return nil, d.parseError(key[0], "key '$id' repeated")
			}
			sawID = true
			_, _ = d.json.Discard(len(key) + 1)
			if err := d.readNameSeparator(); err != nil {
				return nil, err
			}
			// Value must be an object ID.
			v, err := d.convertValue()
			if err != nil {
				return nil, err
			}
			oid, ok := v.(ObjectID)
			if !ok {
				return nil, newParseError("parse error: $dbPointer.$id must be %s, not %s", KindObjectID, v.Kind())
			}
			id = oid
			if !sawRef {
				if err := d.readCharAfterWS(','); err != nil {
					return nil, err
				}
			}
		default:
			return nil, d.parseError('"', "invalid key for $dbPointer document")
		}
	}

	// Inner doc must end with document terminator
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	// Outer doc must end with document terminator
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return dbPointer(string(ref), id), nil
}

func (d *Decoder) convertNumberInt() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}
	n, err := d.readQuotedInt(32)
	if err != nil {
		return nil, err
	}
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}
	return Int32(n), nil
}

// readQuotedInt reads a quoted decimal integer of the given bit size.
func (d *Decoder) readQuotedInt(bitSize int) (int64, error) {
	if err := d.readQuoteStart(); err != nil {
		return 0, err
	}

	// Peek at least 2 and up to 21 chars (for '-9223372036854775808' plus
	// closing quote).
	buf, err := d.peekBoundedQuote(2, 21)
	if err != nil {
		return 0, err
	}

	if !isJSONNumber(buf) {
		return 0, d.parseError('"', fmt.Sprintf("invalid integer %q", buf))
	}
	n, err := strconv.ParseInt(string(buf), 10, bitSize)
	if err != nil {
		return 0, &ParseError{msg: "parse error: int conversion", err: err}
	}

	// Discard buffer and trailing quote
	_, _ = d.json.Discard(len(buf) + 1)

	return n, nil
}

func (d *Decoder) convertTimestamp() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}
	// Require object start
	if err := d.readCharAfterWS('{'); err != nil {
		return nil, err
	}

	// Need to see exactly 2 keys, 't' and 'i', in any order.
	var timestamp uint32
	var increment uint32
	var sawT bool
	var sawI bool
	for !sawT || !sawI {
		// Read key and skip ahead to start of value.
		if err := d.readQuoteStart(); err != nil {
			return nil, err
		}
		ch, err := d.json.ReadByte()
		if err != nil {
			return nil, newReadError(err)
		}
		if err := d.readNextChar('"'); err != nil {
			return nil, err
		}
		if err := d.readNameSeparator(); err != nil {
			return nil, err
		}
		if err := d.skipWS(); err != nil {
			return nil, err
		}

		// Handle the key.
		switch ch {
		case 't':
			if sawT {
				return nil, d.parseError(ch, "key 't' repeated")
			}
			sawT = true
			timestamp, err = d.readUInt32()
			if err != nil {
				return nil, err
			}
			if !sawI {
				if err := d.readCharAfterWS(','); err != nil {
					return nil, err
				}
			}
		case 'i':
			if sawI {
				return nil, d.parseError(ch, "key 'i' repeated")
			}
			sawI = true
			increment, err = d.readUInt32()
			if err != nil {
				return nil, err
			}
			if !sawT {
				if err := d.readCharAfterWS(','); err != nil {
					return nil, err
				}
			}
		default:
			return nil, d.parseError(ch, "invalid key for $timestamp document")
		}
	}

	// Inner and outer docs must end with document terminators
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return NewTimestamp(timestamp, increment), nil
}

// readUInt32 reads an unquoted, unsigned decimal integer.
func (d *Decoder) readUInt32() (uint32, error) {
	// Up to 10 digits for 4294967295 plus a terminator.
	buf, err := d.json.Peek(11)
	if err != nil && err != io.EOF {
		return 0, newReadError(err)
	}
	var i int
	for i < len(buf) && isDigit(buf[i]) {
		i++
	}
	if i == 0 {
		if len(buf) == 0 {
			return 0, newReadError(io.ErrUnexpectedEOF)
		}
		return 0, d.parseError(buf[0], "expecting unsigned integer")
	}
	n, err := strconv.ParseUint(string(buf[0:i]), 10, 32)
	if err != nil {
		return 0, &ParseError{msg: "parse error: uint32 conversion", err: err}
	}
	_, _ = d.json.Discard(i)
	return uint32(n), nil
}

// Undefined is deprecated and becomes Null.
func (d *Decoder) convertUndefined() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}

	// Rest must be `true` followed by object terminator
	if err := d.readCharAfterWS('t'); err != nil {
		return nil, err
	}
	if err := d.expectLiteral('t', "rue"); err != nil {
		return nil, err
	}
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return Null{}, nil
}

func (d *Decoder) convertNumberLong() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}
	n, err := d.readQuotedInt(64)
	if err != nil {
		return nil, err
	}
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}
	return Int64(n), nil
}

func (d *Decoder) convertNumberDouble() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}

	// Peek at least 2 and up to doublePeekWidth chars (for long '0.0000...1' plus closing quote).
	buf, err := d.peekBoundedQuote(2, doublePeekWidth)
	if err != nil {
		return nil, err
	}

	var n float64
	switch string(buf) {
	case "Infinity":
		n = math.Inf(1)
	case "-Infinity":
		n = math.Inf(-1)
	case "NaN":
		n = math.Float64frombits(canonicalNaN)
	default:
		if !isJSONNumber(buf) {
			return nil, d.parseError('"', fmt.Sprintf("invalid $numberDouble %q", buf))
		}
		n, err = strconv.ParseFloat(string(buf), 64)
		if err != nil {
			return nil, &ParseError{msg: "parse error: float conversion", err: err}
		}
	}

	// Discard buffer and trailing quote
	_, _ = d.json.Discard(len(buf) + 1)

	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return Double(n), nil
}

func (d *Decoder) convertRegularExpression() (Value, error) {
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}

	// Require object start
	if err := d.readCharAfterWS('{'); err != nil {
		return nil, err
	}

	// Need to see exactly 2 keys, 'pattern' and 'options', in any order.
	var pattern []byte
	var options []byte
	var sawPattern bool
	var sawOptions bool
	for !sawPattern || !sawOptions {
		// Read key and skip ahead to start of value.
		if err := d.readQuoteStart(); err != nil {
			return nil, err
		}
		key, err := d.peekBoundedQuote(8, 8)
		if err != nil {
			return nil, err
		}

		// Handle the key.
		switch {
		case bytes.Equal(key, jsonREpattern):
			if sawPattern {
				return nil, d.parseError(key[0], "key 'pattern' repeated")
			}
			sawPattern = true
			pattern, err = d.readRegexPart(len(key))
			if err != nil {
				return nil, err
			}
			if !sawOptions {
				if err := d.readCharAfterWS(','); err != nil {
					return nil, err
				}
			}
		case bytes.Equal(key, jsonREoptions):
			if sawOptions {
				return nil, d.parseError(key[0], "key 'options' repeated")
			}
			sawOptions = true
			options, err = d.readRegexPart(len(key))
			if err != nil {
				return nil, err
			}
			if !sawPattern {
				if err := d.readCharAfterWS(','); err != nil {
					return nil, err
				}
			}
		default:
			return nil, d.parseError('"', "invalid key for $regularExpression document")
		}
	}

	// Inner doc must end with document terminator
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	// Outer doc must end with document terminator
	if err := d.readObjectTerminator(); err != nil {
		return nil, err
	}

	return Regex{Pattern: string(pattern), Options: string(options)}, nil
}

// readRegexPart skips a key of keyLen bytes and reads its string value.
func (d *Decoder) readRegexPart(keyLen int) ([]byte, error) {
	_, _ = d.json.Discard(keyLen)
	if err := d.readNextChar('"'); err != nil {
		return nil, err
	}
	if err := d.readNameSeparator(); err != nil {
		return nil, err
	}
	if err := d.readQuoteStart(); err != nil {
		return nil, err
	}
	return d.convertCString(nil)
}

// starts after opening quote mark
func (d *Decoder) convertBase64(out []byte) ([]byte, error) {
	enc := base64.StdEncoding.WithPadding('=')
	var terminated bool
	var x [48]byte
	xs := x[0:48]

	for !terminated {
		// peek ahead 64 bytes.  N.B. Must be multiple of 4 because 4 base64
		// bytes become 3 decoded bytes.
		buf, err := d.json.Peek(64)
		if err != nil {
			// here, io.EOF is OK, since we're only peeking and may hit end of
			// object
			if err != io.EOF {
				return nil, newReadError(err)
			}
		}

		// if not enough chars, input ended before closing quote
		if len(buf) < 1 {
			return nil, newReadError(io.ErrUnexpectedEOF)
		}

		// Look for closing quote.  If found, mark terminated and truncate buf
		// to match.
		quotePos := bytes.IndexByte(buf, '"')
		if quotePos >= 0 {
			terminated = true
			buf = buf[0:quotePos]
		} else if len(buf) < 64 {
			return nil, newReadError(io.ErrUnexpectedEOF)
		}

		// If we have characters, decode and append them
		if len(buf) > 0 {
			n, err := enc.Decode(xs, buf)
			if err != nil {
				return nil, d.parseError(buf[0], fmt.Sprintf("error parsing base64 data: %s", err))
			}
			out = append(out, xs[0:n]...)
			_, _ = d.json.Discard(len(buf))
		}

		// If terminated, discard closing quote
		if terminated {
			_, _ = d.json.Discard(1)
		}
	}

	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// Date conversion adapted from the MongoDB Go Driver: https://github.com/mongodb/mongo-go-driver
// Licensed under the Apache 2 license.
var timeFormats = []string{"2006-01-02T15:04:05.999Z07:00", "2006-01-02T15:04:05.999Z0700"}

func parseISO8601toEpochMillis(data []byte) (int64, error) {
	var t time.Time
	var err error
	for _, format := range timeFormats {
		t, err = time.Parse(format, string(data))
		if err == nil {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("invalid $date value string: %s", string(data))
	}

	return t.Unix()*1e3 + int64(t.Nanosecond())/1e6, nil
}
