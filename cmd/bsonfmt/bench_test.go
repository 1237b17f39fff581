// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarksCountDocuments(t *testing.T) {
	t.Parallel()

	stream := []byte(`{"a":1} {"b":"two"}` + "\n" + `{"c":[3]}`)

	n, err := benchDecoder(stream)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = benchNaive(stream)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = benchDriverRW([]byte(`[{"a":1},{"b":"two"},{"c":[3]}]`))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = benchDecoder(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBenchmarksReportErrors(t *testing.T) {
	t.Parallel()

	_, err := benchDecoder([]byte(`{"a":`))
	assert.Error(t, err)

	_, err = benchDriverRW([]byte(`"not a document"`))
	assert.Error(t, err)
}

func TestReportResult(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	reportResult(&out, "bsonfmt", 1000000, time.Second)
	assert.Contains(t, out.String(), "bsonfmt")
	assert.Contains(t, out.String(), "MB/s")
}
