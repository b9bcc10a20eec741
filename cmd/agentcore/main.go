// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements the agentcore binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jllopis/agentcore/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type globalFlags struct {
	ConfigArgs []string
	ConfigPath string
	Profile    string
	Output     string
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cmd := args[0]
	switch cmd {
	case "help":
		printUsage()
		return
	case "version":
		ensureNoArgs(args[1:])
		fmt.Println(version)
		return
	}

	cfg, err := config.LoadWithCLI(global.ConfigArgs)
	if err != nil {
		fatal(err)
	}

	switch cmd {
	case "serve":
		ensureNoArgs(args[1:])
		err = runServe(ctx, global, cfg)
	case "run":
		err = runTask(ctx, global, cfg, args[1:])
	case "notes":
		err = runNotes(ctx, global, cfg, args[1:])
	case "tools":
		ensureNoArgs(args[1:])
		err = runTools(ctx, global, cfg)
	case "mcp":
		ensureNoArgs(args[1:])
		err = runMCP(ctx, cfg)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fatal(err)
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	flags := globalFlags{Output: "text"}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		name, value, inline := strings.Cut(arg, "=")
		switch name {
		case "-h", "--help":
			flags.Help = true
			return flags, nil, nil
		case "--json":
			flags.Output = "json"
			continue
		case "--config", "--profile", "--set", "--output":
		default:
			return flags, nil, fmt.Errorf("unknown flag %s", name)
		}
		if !inline {
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for %s", name)
			}
			i++
			value = args[i]
		}
		switch name {
		case "--config":
			flags.ConfigPath = value
			flags.ConfigArgs = append(flags.ConfigArgs, name, value)
		case "--profile":
			flags.Profile = value
			flags.ConfigArgs = append(flags.ConfigArgs, name, value)
		case "--set":
			flags.ConfigArgs = append(flags.ConfigArgs, name, value)
		case "--output":
			switch value {
			case "text", "json", "yaml":
				flags.Output = value
			default:
				return flags, nil, fmt.Errorf("invalid --output %q (text, json, yaml)", value)
			}
		}
	}
	return flags, nil, nil
}

func printUsage() {
	fmt.Println(`agentcore - goal-driven capability execution service

Usage:
  agentcore [global flags] <command> [args]

Global flags:
  --config <path>      YAML config file
  --profile <name>     Overlay config.<name>.yaml (or AGENTCORE_PROFILE)
  --set key=value      Override config (repeatable)
  --output <format>    text, json or yaml (default text)
  --json               Same as --output json

Commands:
  serve                Start the HTTP API
  run [--tools a,b] [--context text] <goal>
                       Run one goal and print the result
  notes <proposal_id>  Print the governance notes of a proposal
  tools                List registered capabilities
  mcp                  Serve the capabilities as MCP tools over stdio
  version              Print the version`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func ensureNoArgs(args []string) {
	if len(args) > 0 {
		fatal(fmt.Errorf("unexpected args: %v", args))
	}
}
