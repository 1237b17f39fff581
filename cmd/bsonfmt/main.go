// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Command bsonfmt converts streams of JSON or Extended JSON objects to BSON
// and other renderings, and benchmarks the conversion.
package main

import (
	"os"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/send"
	"github.com/urfave/cli"
)

func main() {
	app := buildApp()
	grip.EmergencyFatal(app.Run(os.Args))
}

func buildApp() *cli.App {
	app := cli.NewApp()
	app.Name = "bsonfmt"
	app.Usage = "convert JSON and Extended JSON to BSON"
	app.Version = "0.1.0"

	app.Commands = []cli.Command{
		Convert(),
		Bench(),
	}

	// Global options, independent of sub commands.
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "level",
			Value:  "info",
			EnvVar: "BSONFMT_LOG_LEVEL",
			Usage:  "Specify lowest visible log level as string: 'emergency|alert|critical|error|warning|notice|info|debug|trace'",
		},
	}

	app.Before = func(c *cli.Context) error {
		return loggingSetup(app.Name, c.String("level"))
	}

	return app
}

func loggingSetup(name, l string) error {
	if err := grip.SetSender(send.MakeErrorLogger()); err != nil {
		return err
	}
	grip.SetName(name)

	sender := grip.GetSender()
	info := sender.Level()
	info.Threshold = level.FromString(l)

	return sender.SetLevel(info)
}
