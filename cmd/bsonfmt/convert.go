// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"slices"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"github.com/xdg-go/bsonfmt"
)

const (
	formatBSON      = "bson"
	formatHex       = "hex"
	formatExtJSON   = "extjson"
	formatCanonical = "canonical"
	formatJSON      = "json"
)

var formats = []string{formatBSON, formatHex, formatExtJSON, formatCanonical, formatJSON}

type convertOptions struct {
	format   string
	maxDepth int
	extJSON  bool
}

func (o convertOptions) validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.ErrorfWhen(!slices.Contains(formats, o.format), "unknown output format '%s'", o.format)
	catcher.ErrorfWhen(o.maxDepth < 1, "max depth must be positive, not %d", o.maxDepth)
	return catcher.Resolve()
}

// Convert reads a stream of JSON objects, or a JSON array of objects, and
// writes each one in the requested format.
func Convert() cli.Command {
	return cli.Command{
		Name:  "convert",
		Usage: "convert a stream of JSON objects to BSON, hex or Extended JSON",
		Flags: addInputFlag(addOutputFlag(addDecoderFlags(
			cli.StringFlag{
				Name:  joinFlagNames(formatFlagName, "f"),
				Usage: "output `FORMAT`: bson, hex, extjson, canonical or json",
				Value: formatHex,
			},
		)...)...),
		Action: func(c *cli.Context) error {
			opts := convertOptions{
				format:   c.String(formatFlagName),
				maxDepth: c.Int(maxDepthFlagName),
				extJSON:  !c.Bool(strictJSONFlagName),
			}
			if err := opts.validate(); err != nil {
				return errors.Wrap(err, "invalid options")
			}

			in, err := openInput(c.String(inputFlagName))
			if err != nil {
				return err
			}
			defer closeLogged(in)

			out, err := openOutput(c.String(outputFlagName))
			if err != nil {
				return err
			}
			defer closeLogged(out)

			n, err := convertStream(in, out, opts)
			grip.Info(message.Fields{
				"op":        "convert",
				"documents": n,
				"format":    opts.format,
				"ext_json":  opts.extJSON,
			})
			return err
		},
	}
}

func convertStream(r io.Reader, w io.Writer, opts convertOptions) (int, error) {
	dec, err := bsonfmt.NewDecoder(bufio.NewReader(r))
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "starting decoder")
	}
	dec.ExtJSON(opts.extJSON)
	dec.MaxDepth(opts.maxDepth)

	bw := bufio.NewWriter(w)
	var n int
	for {
		doc, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, errors.Wrapf(err, "decoding document %d", n+1)
		}
		if err := writeDocument(bw, doc, opts.format); err != nil {
			return n, errors.Wrapf(err, "writing document %d", n+1)
		}
		n++
		grip.Debug(message.Fields{
			"op":       "convert",
			"document": n,
			"keys":     doc.Len(),
		})
	}

	return n, errors.Wrap(bw.Flush(), "flushing output")
}

func writeDocument(w *bufio.Writer, doc *bsonfmt.Document, format string) error {
	var out []byte
	var err error
	switch format {
	case formatBSON:
		out, err = doc.MarshalBSON()
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case formatHex:
		out, err = doc.MarshalBSON()
		if err != nil {
			return err
		}
		out = []byte(hex.EncodeToString(out))
	case formatExtJSON, formatCanonical:
		out, err = bsonfmt.MarshalExtJSON(doc, format == formatCanonical)
		if err != nil {
			return err
		}
	case formatJSON:
		j, err := bsonfmt.JSONCodec().Decode(bsonfmt.Embedded{Doc: doc})
		if err != nil {
			return err
		}
		out, err = json.Marshal(j)
		if err != nil {
			return errors.Wrap(err, "rendering JSON")
		}
	default:
		return errors.Errorf("unknown output format '%s'", format)
	}

	if _, err := w.Write(out); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

func openInput(path string) (io.ReadCloser, error) {
	if path == stdioPath {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	return f, errors.Wrapf(err, "opening input '%s'", path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == stdioPath {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	return f, errors.Wrapf(err, "creating output '%s'", path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func closeLogged(c io.Closer) {
	grip.Warning(message.WrapError(c.Close(), message.Fields{
		"message": "problem closing file",
	}))
}
