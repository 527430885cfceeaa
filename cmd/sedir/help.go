package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage information to the given writer.
func printUsage(w io.Writer) {
	fmt.Fprint(w, `sedir - Embedded B+ tree key/value store

Usage:
  sedir <command> [options]

Commands:
  put         Store a key/value pair
  get         Look up a key
  del         Delete a key
  scan        Print entries in key order
  stats       Show database statistics
  check       Validate the on-disk tree structure
  dump        Export all entries to a dump file
  restore     Import entries from a dump file
  version     Show version information

Use "sedir <command> -h" for more information about a command.
`)
}

// printPutUsage prints the put command usage.
func printPutUsage(w io.Writer) {
	fmt.Fprint(w, `Store a key/value pair

Usage:
  sedir put -key <key> -value <value> [options]

Options:
  -config string
        Path to configuration file
  -db string
        Database file path (overrides config, default "sedir.sdr")
  -key string
        Key to store (required)
  -value string
        Value to store
  -overwrite
        Replace the value if the key exists
  -h, -help
        Show this help message
`)
}

// printGetUsage prints the get command usage.
func printGetUsage(w io.Writer) {
	fmt.Fprint(w, `Look up a key

Usage:
  sedir get -key <key> [options]

Options:
  -config string
        Path to configuration file
  -db string
        Database file path (overrides config)
  -key string
        Key to look up (required)
  -h, -help
        Show this help message
`)
}

// printDelUsage prints the del command usage.
func printDelUsage(w io.Writer) {
	fmt.Fprint(w, `Delete a key

Usage:
  sedir del -key <key> [options]

Options:
  -config string
        Path to configuration file
  -db string
        Database file path (overrides config)
  -key string
        Key to delete (required)
  -h, -help
        Show this help message
`)
}

// printScanUsage prints the scan command usage.
func printScanUsage(w io.Writer) {
	fmt.Fprint(w, `Print entries in key order, one "key<TAB>value" line each

Usage:
  sedir scan [options]

Options:
  -config string
        Path to configuration file
  -db string
        Database file path (overrides config)
  -start string
        Smallest key to include (inclusive)
  -end string
        Largest key to include (inclusive)
  -reverse
        Scan in descending key order
  -limit int
        Maximum number of entries to print (0 = all)
  -h, -help
        Show this help message
`)
}

// printStatsUsage prints the stats command usage.
func printStatsUsage(w io.Writer) {
	fmt.Fprint(w, `Show database statistics

Usage:
  sedir stats [options]

Options:
  -config string
        Path to configuration file
  -db string
        Database file path (overrides config)
  -h, -help
        Show this help message
`)
}

// printCheckUsage prints the check command usage.
func printCheckUsage(w io.Writer) {
	fmt.Fprint(w, `Validate the on-disk tree structure

Usage:
  sedir check [options]

Options:
  -config string
        Path to configuration file
  -db string
        Database file path (overrides config)
  -h, -help
        Show this help message
`)
}

// printDumpUsage prints the dump command usage.
func printDumpUsage(w io.Writer) {
	fmt.Fprint(w, `Export all entries to a compressed, checksummed dump file

Usage:
  sedir dump -output <file> [options]

Options:
  -config string
        Path to configuration file
  -db string
        Database file path (overrides config)
  -output string
        Output file path (required)
  -h, -help
        Show this help message
`)
}

// printRestoreUsage prints the restore command usage.
func printRestoreUsage(w io.Writer) {
	fmt.Fprint(w, `Import entries from a dump file

Usage:
  sedir restore -input <file> [options]

Options:
  -config string
        Path to configuration file
  -db string
        Database file path (overrides config)
  -input string
        Input dump file path (required)
  -h, -help
        Show this help message
`)
}

// printVersionUsage prints the version command usage.
func printVersionUsage(w io.Writer) {
	fmt.Fprint(w, `Show version information

Usage:
  sedir version [options]

Options:
  -short
        Show only the version number
  -h, -help
        Show this help message
`)
}
