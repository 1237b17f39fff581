// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

const (
	defaultBufferSize = 8192

	// Longest plausible textual double, e.g. a denormal written out in full,
	// plus a terminator.
	doublePeekWidth = 1080
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16BEBOM = []byte{0xFE, 0xFF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf32BEBOM = []byte{0x00, 0x00, 0xFE, 0xFF}
	utf32LEBOM = []byte{0xFF, 0xFE, 0x00, 0x00}
)

// Decoder reads and decodes JSON objects to documents from a buffered input
// stream.  Objects may be separated by optional white space or may be in a
// well-formed JSON array.
type Decoder struct {
	arrayFinished  bool
	arrayStarted   bool
	curDepth       int
	extJSONAllowed bool
	json           *bufio.Reader
	maxDepth       int
}

// NewDecoder returns a new decoder.  If a UTF-8 byte-order-mark (BOM) exists,
// it will be stripped.  Because only UTF-8 is supported, other BOMs are errors.
// This function consumes leading white space and checks if the first character
// is '['.  If so, the input format is expected to be a single JSON array of
// objects and the stream will consist of the objects in the array.  Any read
// error (including io.EOF) will be returned.
//
// If the the bufio.Reader's size is less than 8192, it will be rebuffered.
// This is necessary to account for lookahead for long numbers.
func NewDecoder(json *bufio.Reader) (*Decoder, error) {
	d, err := newDecoder(json)
	if err != nil {
		return nil, err
	}

	ch, err := d.readAfterWS()
	if err != nil {
		// Before an object is read, EOF is valid.
		if err == io.EOF {
			return nil, err
		}
		return nil, newReadError(err)
	}

	switch ch {
	case '[':
		d.arrayStarted = true
	default:
		if err := d.json.UnreadByte(); err != nil {
			return nil, newReadError(err)
		}
	}

	return d, nil
}

func newDecoder(json *bufio.Reader) (*Decoder, error) {
	if json.Size() < defaultBufferSize {
		json = bufio.NewReaderSize(json, defaultBufferSize)
	}
	if err := handleBOM(json); err != nil {
		return nil, err
	}
	return &Decoder{
		json:     json,
		maxDepth: defaultMaxDepth,
	}, nil
}

// ExtJSON toggles whether extended JSON is interpreted by the decoder.
func (d *Decoder) ExtJSON(b bool) {
	d.extJSONAllowed = b
}

// MaxDepth sets the maximum allowed depth of a JSON object.  The default is
// 200.
func (d *Decoder) MaxDepth(n int) {
	d.maxDepth = n
}

// Decode converts the next JSON object from the input stream into a document.
// Extended JSON is never interpreted at the top level, since the result must
// be a document.  The function returns io.EOF if no objects remain in the
// stream.
func (d *Decoder) Decode() (*Document, error) {
	if d.arrayFinished {
		return nil, io.EOF
	}

	ch, err := d.readAfterWS()
	if err != nil {
		// Before reading a new object, EOF is valid.
		if err == io.EOF {
			return nil, err
		}
		return nil, newReadError(err)
	}

	switch ch {
	case '{':
	case ']':
		if d.arrayStarted {
			d.arrayFinished = true
			return nil, io.EOF
		}
		return nil, d.parseError(ch, "Decode only supports object decoding")
	default:
		return nil, d.parseError(ch, "Decode only supports object decoding")
	}

	doc, err := d.convertDocument()
	if err != nil {
		return nil, err
	}

	// In array mode, consume the separator or the closing bracket.
	if d.arrayStarted {
		ch, err := d.readAfterWS()
		if err != nil {
			return nil, newReadError(err)
		}

		switch ch {
		case ',':
		case ']':
			d.arrayFinished = true
		default:
			return nil, d.parseError(ch, "expecting value-separator or end of array")
		}
	}

	return doc, nil
}

func (d *Decoder) readAfterWS() (byte, error) {
	for {
		ch, err := d.json.ReadByte()
		if err != nil {
			return 0, err
		}
		switch ch {
		case ' ', '\t', '\n', '\r':
		default:
			return ch, nil
		}
	}
}

func (d *Decoder) readCharAfterWS(b byte) error {
	ch, err := d.readAfterWS()
	if err != nil {
		return newReadError(err)
	}
	if ch != b {
		return d.parseError(ch, fmt.Sprintf("expecting '%c'", b))
	}
	return nil
}

// readNextChar requires the very next byte, without skipping white space, to
// be b.
func (d *Decoder) readNextChar(b byte) error {
	ch, err := d.json.ReadByte()
	if err != nil {
		return newReadError(err)
	}
	if ch != b {
		return d.parseError(ch, fmt.Sprintf("expecting '%c'", b))
	}
	return nil
}

// skipWS consumes white space up to, but not including, the next
// non-white-space character.
func (d *Decoder) skipWS() error {
	for {
		buf, err := d.json.Peek(1)
		if err != nil {
			return newReadError(err)
		}
		switch buf[0] {
		case ' ', '\t', '\n', '\r':
			_, _ = d.json.Discard(1)
		default:
			return nil
		}
	}
}

func (d *Decoder) readNameSeparator() error {
	return d.readCharAfterWS(':')
}

func (d *Decoder) readObjectTerminator() error {
	return d.readCharAfterWS('}')
}

func (d *Decoder) readQuoteStart() error {
	return d.readCharAfterWS('"')
}

func (d *Decoder) readSpecificKey(expected []byte) error {
	charsNeeded := len(expected) + 1
	key, err := d.peekBoundedQuote(charsNeeded, charsNeeded)
	if err != nil {
		return err
	}
	if !bytes.Equal(key, expected) {
		return d.parseError(key[0], fmt.Sprintf("expected %q", string(expected)))
	}
	_, _ = d.json.Discard(len(key) + 1)
	return d.readNameSeparator()
}

func (d *Decoder) peekBoundedQuote(minLen, maxLen int) ([]byte, error) {
	buf, err := d.json.Peek(maxLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, newReadError(err)
	}

	if len(buf) < minLen {
		return nil, newReadError(io.ErrUnexpectedEOF)
	}

	quotePos := bytes.IndexByte(buf, '"')
	if quotePos < 0 {
		return nil, d.parseError(buf[len(buf)-1], "string not terminated within expected length")
	}

	return buf[0:quotePos], nil
}

func (d *Decoder) parseError(ch byte, msg string) error {
	after, _ := d.json.Peek(20)
	return &ParseError{msg: fmt.Sprintf("parse error: %s on char '%s', followed by '%s...'", msg, string(ch), after)}
}

// ParseText parses a single JSON value of any type, with Extended JSON
// interpreted.  Surrounding white space is allowed; anything else after the
// value is an error.
func ParseText(s string) (Value, error) {
	d, err := newDecoder(bufio.NewReaderSize(strings.NewReader(s), defaultBufferSize))
	if err != nil {
		return nil, err
	}
	d.extJSONAllowed = true

	v, err := d.convertValue()
	if err != nil {
		return nil, err
	}

	ch, err := d.readAfterWS()
	if err == nil {
		return nil, d.parseError(ch, "unexpected text after value")
	}
	if err != io.EOF {
		return nil, newReadError(err)
	}
	return v, nil
}

// Unmarshal converts a single JSON object to a document.  The function
// returns io.EOF if the input is empty.
func Unmarshal(in []byte) (*Document, error) {
	jib, err := NewDecoder(bufio.NewReader(bytes.NewReader(in)))
	if err != nil {
		return nil, err
	}
	return jib.Decode()
}

// UnmarshalExtJSON converts a single Extended JSON object to a document.  It
// otherwise works like `Unmarshal`.
func UnmarshalExtJSON(in []byte) (*Document, error) {
	jib, err := NewDecoder(bufio.NewReader(bytes.NewReader(in)))
	if err != nil {
		return nil, err
	}
	jib.ExtJSON(true)
	return jib.Decode()
}

// detect/discard/error on BOM. Inability to peek is a NOP and
// will be handled by the normal parser
func handleBOM(r *bufio.Reader) error {
	// Peek 2 byte BOMs
	preamble, err := r.Peek(2)
	if err != nil {
		return nil
	}
	if bytes.Equal(preamble, utf16BEBOM) || bytes.Equal(preamble, utf16LEBOM) {
		return newParseError("error: detected unsupported UTF-16 BOM")
	}

	// Peek 3 byte BOM; UTF-8 is supported, so discard them if found.
	preamble, err = r.Peek(3)
	if err != nil {
		return nil
	}
	if bytes.Equal(preamble, utf8BOM) {
		_, _ = r.Discard(3)
	}

	// Peek 4 byte BOMs
	preamble, err = r.Peek(4)
	if err != nil {
		return nil
	}
	if bytes.Equal(preamble, utf32BEBOM) || bytes.Equal(preamble, utf32LEBOM) {
		return newParseError("error: detected unsupported UTF-32 BOM")
	}

	return nil
}

// newReadError is used when we expect to be able to read and fail.  If the
// error is EOF, we convert it to UnexpectedEOF because we aren't between
// top-level object.
func newReadError(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &ParseError{msg: "error reading json", err: err}
}
