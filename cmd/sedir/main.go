// Package main provides the entry point for the sedir CLI.
package main

import (
	"fmt"
	"os"
)

func main() {
	exitCode := run(os.Args)
	os.Exit(exitCode)
}

// run executes the CLI and returns an exit code.
// This is separated from main() to facilitate testing.
func run(args []string) int {
	if len(args) < 2 {
		printUsage(os.Stdout)
		return 1
	}

	switch args[1] {
	case "put":
		return putCmd(args[2:])
	case "get":
		return getCmd(args[2:])
	case "del":
		return delCmd(args[2:])
	case "scan":
		return scanCmd(args[2:])
	case "stats":
		return statsCmd(args[2:])
	case "check":
		return checkCmd(args[2:])
	case "dump":
		return dumpCmd(args[2:])
	case "restore":
		return restoreCmd(args[2:])
	case "version":
		return versionCmd(args[2:])
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[1])
		fmt.Fprintln(os.Stderr, "Run 'sedir help' for usage.")
		return 1
	}
}
