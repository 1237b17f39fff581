// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bsonfmt

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type unmarshalTestCase struct {
	label  string
	input  string
	output string
	errStr string
}

// testWithUnmarshal parses each input, encodes the resulting document as
// BSON and compares it to the expected hex output.
func testWithUnmarshal(t *testing.T, cases []unmarshalTestCase, extJSON bool) {
	t.Helper()

	for _, c := range cases {
		c := c
		t.Run(c.label, func(t *testing.T) {
			t.Parallel()

			var doc *Document
			var err error
			if extJSON {
				doc, err = UnmarshalExtJSON([]byte(c.input))
			} else {
				doc, err = Unmarshal([]byte(c.input))
			}
			if c.errStr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.errStr)
				return
			}
			require.NoError(t, err)

			got, err := doc.MarshalBSON()
			require.NoError(t, err)
			expect, err := hex.DecodeString(strings.ToLower(c.output))
			require.NoError(t, err, "decoding test output")
			assert.Equal(t, hex.EncodeToString(expect), hex.EncodeToString(got))
		})
	}
}

func convertWithParser(input []byte) ([]byte, error) {
	doc, err := UnmarshalExtJSON(input)
	if err != nil {
		return nil, err
	}
	return doc.MarshalBSON()
}

func convertWithGoDriver(input []byte) ([]byte, error) {
	var got bson.Raw
	err := bson.UnmarshalExtJSON(input, false, &got)
	return got, err
}

func hexDoc(t *testing.T, doc *Document) string {
	t.Helper()
	b, err := doc.MarshalBSON()
	require.NoError(t, err)
	return hex.EncodeToString(b)
}
