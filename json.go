// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/pkg/errors"
)

func (d *Decoder) convertValue() (Value, error) {
	ch, err := d.readAfterWS()
	if err != nil {
		return nil, newReadError(err)
	}

	switch ch {
	case '{':
		return d.convertObject()
	case '[':
		return d.convertArray()
	case 't':
		return d.convertTrue()
	case 'f':
		return d.convertFalse()
	case 'n':
		return d.convertNull()
	case '"':
		return d.convertString()
	default:
		// Either a number or an error.
		if err := d.json.UnreadByte(); err != nil {
			return nil, newReadError(err)
		}
		return d.convertNumber()
	}
}

// convertObject starts after the opening brace.  With extended JSON enabled,
// the first key decides whether the object is a wrapper for some other type.
func (d *Decoder) convertObject() (Value, error) {
	if d.extJSONAllowed {
		ch, err := d.readAfterWS()
		if err != nil {
			return nil, newReadError(err)
		}
		if ch == '"' {
			v, err := d.handleExtJSON()
			if err != nil {
				return nil, err
			}
			if v != nil {
				return v, nil
			}
		}
		doc, err := d.convertDocumentFrom(ch)
		if err != nil {
			return nil, err
		}
		return Embedded{Doc: doc}, nil
	}

	doc, err := d.convertDocument()
	if err != nil {
		return nil, err
	}
	return Embedded{Doc: doc}, nil
}

// convertDocument starts after the opening brace and reads an ordinary
// object.
func (d *Decoder) convertDocument() (*Document, error) {
	ch, err := d.readAfterWS()
	if err != nil {
		return nil, newReadError(err)
	}
	return d.convertDocumentFrom(ch)
}

// convertDocumentFrom reads an ordinary object given ch, the first
// non-white-space character after the opening brace.
func (d *Decoder) convertDocumentFrom(ch byte) (*Document, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.curDepth-- }()

	doc := &Document{}

	// Check for empty object or start of key
	switch ch {
	case '}':
		return doc, nil
	case '"':
	default:
		return nil, d.parseError(ch, "expecting key or end of object")
	}

	for {
		key, err := d.convertCString(nil)
		if err != nil {
			return nil, err
		}

		// Next non-WS char must be ':' for separator
		if err := d.readNameSeparator(); err != nil {
			return nil, err
		}

		v, err := d.convertValue()
		if err != nil {
			return nil, err
		}
		doc.Insert(string(key), v)

		ch, err = d.readAfterWS()
		if err != nil {
			return nil, newReadError(err)
		}
		switch ch {
		case ',':
			// Next non-WS character must be quote to start key
			ch, err = d.readAfterWS()
			if err != nil {
				return nil, newReadError(err)
			}
			if ch != '"' {
				return nil, d.parseError(ch, "expecting key")
			}
		case '}':
			return doc, nil
		default:
			return nil, d.parseError(ch, "expecting value-separator or end of object")
		}
	}
}

func (d *Decoder) convertArray() (Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.curDepth-- }()

	doc := &Document{}

	ch, err := d.readAfterWS()
	if err != nil {
		return nil, newReadError(err)
	}

	// Case: empty array
	if ch == ']' {
		return Array{Doc: doc}, nil
	}

	// Not empty: unread the byte for convertValue to check
	if err := d.json.UnreadByte(); err != nil {
		return nil, newReadError(err)
	}

	for index := 0; ; index++ {
		v, err := d.convertValue()
		if err != nil {
			return nil, err
		}
		doc.elems = append(doc.elems, Element{Key: strconv.Itoa(index), Value: v})

		ch, err = d.readAfterWS()
		if err != nil {
			return nil, newReadError(err)
		}
		switch ch {
		case ',':
		case ']':
			return Array{Doc: doc}, nil
		default:
			return nil, d.parseError(ch, "expecting value-separator or end of array")
		}
	}
}

func (d *Decoder) enter() error {
	d.curDepth++
	if d.curDepth > d.maxDepth {
		d.curDepth--
		return &ParseError{msg: "parse error", err: ErrMaxDepth}
	}
	return nil
}

func (d *Decoder) convertTrue() (Value, error) {
	if err := d.expectLiteral('t', "rue"); err != nil {
		return nil, err
	}
	return Bool(true), nil
}

func (d *Decoder) convertFalse() (Value, error) {
	if err := d.expectLiteral('f', "alse"); err != nil {
		return nil, err
	}
	return Bool(false), nil
}

func (d *Decoder) convertNull() (Value, error) {
	if err := d.expectLiteral('n', "ull"); err != nil {
		return nil, err
	}
	return Null{}, nil
}

// expectLiteral consumes rest, the remainder of a literal already begun with
// first.
func (d *Decoder) expectLiteral(first byte, rest string) error {
	buf, err := d.json.Peek(len(rest))
	if err != nil {
		return newReadError(err)
	}
	if string(buf) != rest {
		return d.parseError(first, fmt.Sprintf("expecting %c%s", first, rest))
	}
	_, _ = d.json.Discard(len(rest))
	return nil
}

func (d *Decoder) convertNumber() (Value, error) {
	var isFloat bool
	var terminated bool

	buf, err := d.json.Peek(doublePeekWidth)
	if err != nil {
		// here, io.EOF is OK, since we're peeking and may hit end of
		// object
		if err != io.EOF {
			return nil, newReadError(err)
		}
	}

	// Find where the number appears to end and if it's a float.
	var i int
LOOP:
	for i = 0; i < len(buf); i++ {
		switch buf[i] {
		case 'e', 'E', '.':
			isFloat = true
		case ' ', '\t', '\n', '\r', ',', ']', '}':
			terminated = true
			break LOOP
		}
	}

	if !terminated {
		switch {
		case len(buf) == doublePeekWidth:
			return nil, d.parseError(buf[i-1], "number too long")
		case d.curDepth > 0 || len(buf) == 0:
			// Only a bare top-level value may end at end of input.
			return nil, newReadError(io.ErrUnexpectedEOF)
		}
	}

	text := buf[0:i]
	if !isJSONNumber(text) {
		return nil, d.parseError(buf[0], "invalid number")
	}

	var v Value
	if isFloat {
		v, err = convertFloat(text)
	} else {
		v, err = convertInt(text)
	}
	if err != nil {
		return nil, err
	}

	// i is at terminator or whitespace, so discard just before that.
	_, _ = d.json.Discard(i)
	return v, nil
}

func convertFloat(buf []byte) (Value, error) {
	n, err := strconv.ParseFloat(string(buf), 64)
	if err != nil {
		return nil, &ParseError{msg: "parse error: float conversion", err: err}
	}
	return Double(n), nil
}

// convertInt returns Int32 if the integer fits, otherwise Int64.  Integers
// beyond 64 bits fall back to Double.
func convertInt(buf []byte) (Value, error) {
	n, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return convertFloat(buf)
		}
		return nil, &ParseError{msg: "parse error: int conversion", err: err}
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return Int64(n), nil
	}
	return Int32(n), nil
}

// isJSONNumber reports whether buf matches the JSON number grammar, which is
// stricter than strconv: no leading '+', no leading zeros, no hex, digits
// required on both sides of '.'.
func isJSONNumber(buf []byte) bool {
	i := 0
	if i < len(buf) && buf[i] == '-' {
		i++
	}
	switch {
	case i < len(buf) && buf[i] == '0':
		i++
	case i < len(buf) && buf[i] >= '1' && buf[i] <= '9':
		for i < len(buf) && isDigit(buf[i]) {
			i++
		}
	default:
		return false
	}
	if i < len(buf) && buf[i] == '.' {
		i++
		start := i
		for i < len(buf) && isDigit(buf[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(buf) && (buf[i] == 'e' || buf[i] == 'E') {
		i++
		if i < len(buf) && (buf[i] == '+' || buf[i] == '-') {
			i++
		}
		start := i
		for i < len(buf) && isDigit(buf[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(buf)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// convertCString appends the decoded text of a JSON string to out.  It starts
// after the opening quote and consumes the closing quote.
func (d *Decoder) convertCString(out []byte) ([]byte, error) {
	var terminated bool
	var charsNeeded = 1

	for !terminated {
		// peek ahead 64 bytes
		buf, err := d.json.Peek(64)
		if err != nil {
			// here, io.EOF is OK, since we're only peeking and may hit end of
			// object
			if err != io.EOF {
				return nil, newReadError(err)
			}
		}

		// if not enough chars, input ended before closing quote or end of
		// escape sequence
		if len(buf) < charsNeeded {
			return nil, newReadError(io.ErrUnexpectedEOF)
		}

		var i int
	INNER:
		for i = 0; i < len(buf); i++ {
			switch buf[i] {
			case '\\':
				// need at least two chars in buf
				if len(buf)-i < 2 {
					// backslash is last char in peek buffer, so back up one
					// and break out to repeat peek from the backslash, this
					// time, needing at least two characters
					charsNeeded = 2
					break INNER
				}

				switch buf[i+1] {
				case '"', '\\', '/':
					out = append(out, buf[i+1])
					i++
				case 'b':
					out = append(out, '\b')
					i++
				case 'f':
					out = append(out, '\f')
					i++
				case 'n':
					out = append(out, '\n')
					i++
				case 'r':
					out = append(out, '\r')
					i++
				case 't':
					out = append(out, '\t')
					i++
				case 'u':
					// "\uXXXX" needs 6 chars total from i, and a surrogate
					// pair needs 12; otherwise back up and repeek.
					if len(buf)-i < 6 {
						charsNeeded = 6
						break INNER
					}
					r, err := parseHex4(buf[i+2 : i+6])
					if err != nil {
						return nil, d.parseError(buf[i], fmt.Sprintf("converting unicode escape: %v", err))
					}
					if utf16.IsSurrogate(r) {
						// Repeek from the backslash unless already there, so
						// a following low surrogate is visible.
						if len(buf)-i < 12 && i > 0 {
							charsNeeded = 6
							break INNER
						}
						if len(buf)-i >= 12 && buf[i+6] == '\\' && buf[i+7] == 'u' {
							if r2, err := parseHex4(buf[i+8 : i+12]); err == nil {
								if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
									out = utf8.AppendRune(out, dec)
									i += 11
									break
								}
							}
						}
						r = utf8.RuneError
					}
					out = utf8.AppendRune(out, r)
					i += 5
				default:
					return nil, d.parseError(buf[i+1], "unknown escape")
				}
				// escape done, go back to needing only one char at a time
				charsNeeded = 1
			case '"':
				terminated = true
				break INNER
			default:
				if buf[i] < 0x20 {
					return nil, d.parseError(buf[i], "control character in string")
				}
				out = append(out, buf[i])
			}
		}

		// If terminated, closing quote is at index i, so discard i + 1 bytes to include it,
		// otherwise only discard i bytes to skip the text we've copied.
		if terminated {
			_, _ = d.json.Discard(i + 1)
		} else {
			_, _ = d.json.Discard(i)
		}
	}

	return out, nil
}

func parseHex4(b []byte) (rune, error) {
	n, err := strconv.ParseUint(string(b), 16, 16)
	if err != nil {
		return 0, err
	}
	return rune(n), nil
}

func (d *Decoder) convertString() (Value, error) {
	buf, err := d.convertCString(nil)
	if err != nil {
		return nil, err
	}
	return String(buf), nil
}
