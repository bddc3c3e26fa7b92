// Copyright (C) 2008-2019 by Nicolas Piganeau and the TS2 TEAM
// (See AUTHORS file)
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the
// Free Software Foundation, Inc.,
// 59 Temple Place - Suite 330, Boston, MA  02111-1307, USA.

// Command ts2trainsim runs a railway interlocking and train-motion
// simulation from a JSON input document, writing its history either as
// newline-delimited JSON or, with -serve, replaying it live over a
// websocket hub.
package main

import (
	"flag"
	"os"

	"github.com/ts2/ts2trainsim/server"
	"github.com/ts2/ts2trainsim/simulation"
	log "gopkg.in/inconshreveable/log15.v2"
)

func main() {
	var (
		inputPath = flag.String("input", "", "path to the simulator input JSON document (required)")
		verbose   = flag.Bool("v", false, "enable debug logging")
		serve     = flag.Bool("serve", false, "replay the recorded history over a websocket hub instead of printing it")
		addr      = flag.String("addr", server.DefaultAddr, "address to bind the server to, with -serve")
		port      = flag.String("port", server.DefaultPort, "port to bind the server to, with -serve")
		speed     = flag.Float64("speed", 1.0, "replay speed multiplier (virtual seconds per wall second), with -serve")
	)
	flag.Parse()

	logLevel := log.LvlInfo
	if *verbose {
		logLevel = log.LvlDebug
	}
	root := log.New()
	root.SetHandler(log.LvlFilterHandler(logLevel, log.StreamHandler(os.Stderr, log.TerminalFormat())))
	simulation.InitializeLogger(root)
	server.InitializeLogger(root)

	if *inputPath == "" {
		root.Crit("missing required -input flag")
		os.Exit(2)
	}

	f, err := os.Open(*inputPath)
	if err != nil {
		root.Crit("unable to open input", "path", *inputPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	input, err := simulation.NewJSONInputProvider(f).Provide()
	if err != nil {
		root.Crit("unable to parse input", "error", err)
		os.Exit(1)
	}

	sink := simulation.NewSliceSink()

	var outputSink simulation.OutputSink = sink
	if !*serve {
		outputSink = simulation.MultiSink{Sinks: []simulation.OutputSink{sink, simulation.NewJSONLinesSink(os.Stdout)}}
	}

	w, err := simulation.Simulate(input, outputSink)
	if err != nil {
		root.Crit("simulation failed", "error", err)
		os.Exit(1)
	}

	if *serve {
		server.Run(w, sink, *speed, *addr, *port)
	}
}
