// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"strings"

	"github.com/urfave/cli"
)

const (
	inputFlagName      = "input"
	outputFlagName     = "output"
	formatFlagName     = "format"
	maxDepthFlagName   = "max-depth"
	strictJSONFlagName = "strict-json"

	stdioPath = "-"
)

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func addInputFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(inputFlagName, "i"),
		Usage: "read JSON from `PATH` ('-' for standard input)",
		Value: stdioPath,
	})
}

func addOutputFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(outputFlagName, "o"),
		Usage: "write results to `PATH` ('-' for standard output)",
		Value: stdioPath,
	})
}

func addDecoderFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.IntFlag{
			Name:  maxDepthFlagName,
			Usage: "maximum nesting depth of an input object",
			Value: 200,
		},
		cli.BoolFlag{
			Name:  strictJSONFlagName,
			Usage: "treat $-prefixed keys as ordinary JSON rather than Extended JSON",
		},
	)
}
