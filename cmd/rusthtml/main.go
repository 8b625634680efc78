// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rusthtml compiles RustHtml templates into Go files.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
)

func main() {
	run(os.Args...)
}

// TestEnvironment is true when testing the command, false otherwise.
var TestEnvironment = false

// exit causes the current program to exit with the given status code. If
// running in a test environment, every exit call is a no-op.
func exit(status int) {
	if !TestEnvironment {
		os.Exit(status)
	}
}

// stderr prints lines on stderr.
func stderr(lines ...string) {
	for _, l := range lines {
		fmt.Fprint(os.Stderr, l+"\n")
	}
}

// exitError prints msg on stderr with a bold red color and exits with status
// code 1.
func exitError(format string, a ...interface{}) {
	msg := fmt.Errorf(format, a...)
	stderr("\033[1;31m"+msg.Error()+"\033[0m", `exit status 1`)
	exit(1)
}

// newLogger returns the logger of the commands. With verbose, debug records
// are written to stderr.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// run runs command 'rusthtml' with given args. First argument must be
// executable name.
func run(args ...string) {
	flag.CommandLine = flag.NewFlagSet(args[0], flag.ContinueOnError)
	flag.CommandLine.Usage = func() { flag.Usage() }
	flag.Usage = commandsHelp["rusthtml"]

	// No command provided.
	if len(args) == 1 {
		flag.Usage()
		exit(0)
		return
	}

	cmdArg := args[1]

	// Used by flag.Parse.
	os.Args = append(args[:1], args[2:]...)

	cmd, ok := commands[cmdArg]
	if !ok {
		stderr(
			fmt.Sprintf("rusthtml %s: unknown command", cmdArg),
			`Run 'rusthtml help' for usage.`,
		)
		exit(1)
		return
	}
	cmd()
}

// commandsHelp maps a command name to a function that prints help for that
// command.
var commandsHelp = map[string]func(){
	"rusthtml": func() {
		stderr(
			`rusthtml is a tool for compiling RustHtml templates into Go files`,
			``,
			`Usage:`,
			``,
			`	   rusthtml <command> [arguments]`,
			``,
			`The commands are:`,
			``,
			`	   generate    compile the templates of a directory`,
			`	   watch       compile the templates when they change`,
			`	   version     print rusthtml version`,
			``,
			`Use "rusthtml help <command>" for more information about a command.`,
		)
	},
	"generate": func() {
		stderr(
			`usage: rusthtml generate [-c config] [-check] [-v] [dir]`,
			``,
			`Generate compiles the templates in the directory dir, or in the current`,
			`directory, and writes a Go file next to each template, as "index.rhtml.go"`,
			`for "index.rhtml". Files whose names start with "." or "_" are not compiled.`,
			``,
			`The configuration is read from the file rusthtml.yaml in dir, if it exists.`,
			``,
			`The -check flag type checks the package of the generated files.`,
			``,
			`The -v flag prints the debug records of the compilation.`,
		)
	},
	"watch": func() {
		stderr(
			`usage: rusthtml watch [-c config] [-v] [dir]`,
			``,
			`Watch compiles the templates as generate does, then compiles them again`,
			`each time a file in the directory changes. Compilation errors are printed`,
			`and watching continues.`,
		)
	},
	"version": func() {
		stderr(
			`usage: rusthtml version`,
		)
	},
}

// commands maps a command name to a function that executes that command.
// Commands are called by command-line using:
//
//	rusthtml command
var commands = map[string]func(){
	"generate": func() {
		flag.Usage = commandsHelp["generate"]
		config := flag.String("c", "", "configuration file")
		check := flag.Bool("check", false, "type check the generated files")
		verbose := flag.Bool("v", false, "print debug records")
		dir, ok := parseDir()
		if !ok {
			return
		}
		err := generate(dir, *config, *check, newLogger(*verbose))
		if err != nil {
			exitError("%s", err)
		}
	},
	"watch": func() {
		flag.Usage = commandsHelp["watch"]
		config := flag.String("c", "", "configuration file")
		verbose := flag.Bool("v", false, "print debug records")
		dir, ok := parseDir()
		if !ok {
			return
		}
		err := watch(dir, *config, newLogger(*verbose))
		if err != nil {
			exitError("%s", err)
		}
	},
	"help": func() {
		if len(os.Args) == 1 {
			flag.Usage()
			exit(0)
			return
		}
		topic := os.Args[1]
		help, ok := commandsHelp[topic]
		if !ok {
			fmt.Fprintf(os.Stderr, "rusthtml help %s: unknown help topic. Run 'rusthtml help'.\n", topic)
			exit(1)
			return
		}
		help()
	},
	"version": func() {
		flag.Usage = commandsHelp["version"]
		version := "(devel)"
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			version = info.Main.Version
		}
		fmt.Printf("rusthtml version:                  %s\n", version)
		fmt.Printf("Go version used to build rusthtml: %s\n", runtime.Version())
	},
}

// parseDir parses the flags and returns the directory argument.
func parseDir() (string, bool) {
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		exit(2)
		return "", false
	}
	switch flag.NArg() {
	case 0:
		return ".", true
	case 1:
		return flag.Arg(0), true
	}
	stderr(`bad number of arguments`)
	flag.Usage()
	exit(1)
	return "", false
}
