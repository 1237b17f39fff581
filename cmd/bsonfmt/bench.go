// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"github.com/xdg-go/bsonfmt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type benchFunc func(input []byte) (int, error)

type benchmark struct {
	label string
	run   benchFunc
}

var benchmarks = []benchmark{
	{label: "bsonfmt", run: benchDecoder},
	{label: "driver bsonrw", run: benchDriverRW},
	{label: "naive json->bson", run: benchNaive},
}

// Bench times JSON to BSON conversion of a file with this package, the
// MongoDB driver's Extended JSON reader and encoding/json followed by
// bson.Marshal.
func Bench() cli.Command {
	return cli.Command{
		Name:      "bench",
		Usage:     "report JSON to BSON conversion throughput for a file",
		ArgsUsage: "FILE",
		Before: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("must specify exactly one input file")
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			input, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "reading '%s'", path)
			}

			catcher := grip.NewBasicCatcher()
			for _, b := range benchmarks {
				start := time.Now()
				n, err := b.run(input)
				elapsed := time.Since(start)
				if err != nil {
					catcher.Add(errors.Wrapf(err, "benchmark '%s'", b.label))
					continue
				}
				reportResult(c.App.Writer, b.label, len(input), elapsed)
				grip.Debug(message.Fields{
					"op":        "bench",
					"benchmark": b.label,
					"documents": n,
					"elapsed":   elapsed.String(),
				})
			}
			return catcher.Resolve()
		},
	}
}

func benchDecoder(input []byte) (int, error) {
	dec, err := bsonfmt.NewDecoder(bufio.NewReader(bytes.NewReader(input)))
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	dec.ExtJSON(true)

	var n int
	for {
		doc, err := dec.Decode()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if _, err := doc.MarshalBSON(); err != nil {
			return n, err
		}
		n++
	}
}

func benchDriverRW(input []byte) (int, error) {
	vr, err := bsonrw.NewExtJSONValueReader(bytes.NewReader(input), false)
	if err != nil {
		return 0, err
	}

	// The input is either documents separated by white space or a single
	// top-level array of documents.
	var ar bsonrw.ArrayReader
	switch vr.Type() {
	case bsontype.EmbeddedDocument:
	case bsontype.Array:
		ar, err = vr.ReadArray()
		if err != nil {
			return 0, err
		}
	default:
		return 0, errors.New("JSON format unsupported by Go driver")
	}

	copier := bsonrw.NewCopier()
	var n int
	for {
		if ar != nil {
			evr, err := ar.ReadValue()
			if err == bsonrw.ErrEOA {
				return n, nil
			}
			if err != nil {
				return n, err
			}
			if evr.Type() != bsontype.EmbeddedDocument {
				return n, errors.New("JSON format unsupported by Go driver")
			}
			if _, err := copier.CopyDocumentToBytes(evr); err != nil {
				return n, err
			}
		} else {
			_, err := copier.CopyDocumentToBytes(vr)
			if err == io.EOF {
				return n, nil
			}
			if err != nil {
				return n, err
			}
		}
		n++
	}
}

func benchNaive(input []byte) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(input))

	var n int
	for dec.More() {
		var m map[string]interface{}
		if err := dec.Decode(&m); err != nil {
			return n, err
		}
		if _, err := bson.Marshal(m); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func reportResult(w io.Writer, label string, size int, elapsed time.Duration) {
	throughput := float64(size) / float64(elapsed.Microseconds()+1)
	fmt.Fprintf(w, "%18s %.2f MB/s\n", label, throughput)
}
