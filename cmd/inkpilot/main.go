// Copyright 2025 The Inkpilot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the inkpilot inline completion engine binary.

Note: This is a BETA release. APIs and functionality may rapidly change.

inkpilot decides when an editor should ask for a completion, sends the text
around the cursor to a completion backend, cleans up what comes back and shows
it as ghost text that can be accepted whole, word by word, or typed through.
Without an external backend it completes words from a ranked offline
dictionary.

# Usage

Serve an editor over MessagePack on stdin/stdout:

	inkpilot serve

Try the engine interactively:

	inkpilot play -d

Print the context the classifier sees at the end of some text:

	printf '```go\nfunc' | inkpilot classify

Write the default config file:

	inkpilot config init

Build dictionary chunks from a "word [count]" list:

	inkpilot dict build words.txt --out data

# Configuration

Settings live in a TOML (or YAML) file, created with defaults on first run:

	[completion]
	enabled = true
	delay_ms = 500
	cache_suggestions = true

	[ignore]
	paths = ["private/**"]
	tags = ["draft"]

	[[triggers]]
	type = "regex"
	value = '[0-9]+\. $'

serve watches the file and applies changes without a restart. Invalid values
disable completion until they are fixed.

# IPC Protocol

See package server for requests, replies and effects:

	{"id": "1", "op": "change", "text": "Hello ", "cur": 6, "ev": ["type"], "focus": true}
	{"fx": "render", "text": "world"}

Logs always go to stderr.
*/
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bastiangx/inkpilot/internal/logger"
)

const (
	Version = "0.3.0-beta"
	AppName = "inkpilot"
	gh      = "https://github.com/bastiangx/inkpilot"
)

var (
	debugMode  bool
	logJSON    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           AppName,
	Short:         "Inline text completion engine for editors",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetJSON(logJSON)
		logger.SetDebug(debugMode)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&debugMode, "debug", "d", false, "Toggle debug logging")
	flags.BoolVar(&logJSON, "log-json", false, "Write logs as JSON lines")
	flags.StringVar(&configPath, "config", "", "Path to a config file (.toml, .yaml)")

	rootCmd.AddCommand(serveCmd, playCmd, classifyCmd, configCmd, dictCmd, versionCmd)
}

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()
	if err := rootCmd.Execute(); err != nil {
		l := logger.NewWithConfig(AppName, log.ErrorLevel, false, false, log.TextFormatter)
		l.Error(err)
		os.Exit(1)
	}
}
