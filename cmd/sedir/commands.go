// Package main provides CLI commands for the sedir key/value store.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sedirdb/sedir"
	"github.com/sedirdb/sedir/internal/config"
	"github.com/sedirdb/sedir/internal/logging"
)

// dbFlags is the flag pair every data command shares.
type dbFlags struct {
	configPath *string
	dbPath     *string
}

func addDBFlags(fs *flag.FlagSet) dbFlags {
	return dbFlags{
		configPath: fs.String("config", "", "Path to configuration file"),
		dbPath:     fs.String("db", "", "Database file path (overrides config)"),
	}
}

// resolveConfig loads the configuration file if one was given and applies
// the command line override for the database path.
func (f dbFlags) resolveConfig() (*config.Config, error) {
	cfg := config.Default()
	if *f.configPath != "" {
		loaded, err := config.Load(*f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if *f.dbPath != "" {
		cfg.Database.Path = *f.dbPath
	}

	return cfg, nil
}

// openDB builds the logger and opens the database described by cfg.
func openDB(cfg *config.Config, readOnly bool) (*sedir.DB, *zap.Logger, error) {
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	db, err := sedir.Open(cfg.Database.Path, sedir.Options{
		BlockSize:    cfg.Database.BlockSize,
		Order:        cfg.Database.Order,
		MaxKeySize:   cfg.Database.MaxKeySize,
		MaxValueSize: cfg.Database.MaxValueSize,
		Overwrite:    cfg.Database.Overwrite,
		SyncOnWrite:  cfg.Database.SyncOnWrite,
		ReadOnly:     readOnly,
		Logger:       log,
	})
	if err != nil {
		return nil, nil, err
	}

	return db, log, nil
}

// putCmd handles the put command.
func putCmd(args []string) int {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	flags := addDBFlags(fs)
	key := fs.String("key", "", "Key to store")
	value := fs.String("value", "", "Value to store")
	overwrite := fs.Bool("overwrite", false, "Replace the value if the key exists")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printPutUsage(os.Stdout)
		return 0
	}

	if *key == "" {
		fmt.Fprintln(os.Stderr, "Error: -key is required")
		return 1
	}

	cfg, err := flags.resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *overwrite {
		cfg.Database.Overwrite = true
	}

	db, _, err := openDB(cfg, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return 1
	}
	defer db.Close()

	if err := db.Insert([]byte(*key), []byte(*value)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

// getCmd handles the get command.
func getCmd(args []string) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	flags := addDBFlags(fs)
	key := fs.String("key", "", "Key to look up")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printGetUsage(os.Stdout)
		return 0
	}

	if *key == "" {
		fmt.Fprintln(os.Stderr, "Error: -key is required")
		return 1
	}

	cfg, err := flags.resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	db, _, err := openDB(cfg, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return 1
	}
	defer db.Close()

	value, found, err := db.Search([]byte(*key))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !found {
		fmt.Fprintf(os.Stderr, "Key not found: %s\n", *key)
		return 1
	}

	fmt.Printf("%s\n", value)
	return 0
}

// delCmd handles the del command.
func delCmd(args []string) int {
	fs := flag.NewFlagSet("del", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	flags := addDBFlags(fs)
	key := fs.String("key", "", "Key to delete")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printDelUsage(os.Stdout)
		return 0
	}

	if *key == "" {
		fmt.Fprintln(os.Stderr, "Error: -key is required")
		return 1
	}

	cfg, err := flags.resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	db, _, err := openDB(cfg, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return 1
	}
	defer db.Close()

	removed, err := db.Delete([]byte(*key))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !removed {
		fmt.Fprintf(os.Stderr, "Key not found: %s\n", *key)
		return 1
	}

	return 0
}

// scanCmd handles the scan command.
func scanCmd(args []string) int {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	flags := addDBFlags(fs)
	start := fs.String("start", "", "Smallest key to include (inclusive)")
	end := fs.String("end", "", "Largest key to include (inclusive)")
	reverse := fs.Bool("reverse", false, "Scan in descending key order")
	limit := fs.Int("limit", 0, "Maximum number of entries to print (0 = all)")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printScanUsage(os.Stdout)
		return 0
	}

	cfg, err := flags.resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	db, _, err := openDB(cfg, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return 1
	}
	defer db.Close()

	var startKey, endKey []byte
	if *start != "" {
		startKey = []byte(*start)
	}
	if *end != "" {
		endKey = []byte(*end)
	}

	var cur sedir.Cursor
	if *reverse {
		cur, err = db.ReverseScan(startKey, endKey)
	} else {
		cur, err = db.RangeScan(startKey, endKey)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cur.Close()

	printed := 0
	for {
		if *limit > 0 && printed >= *limit {
			break
		}
		key, value, ok := cur.Next()
		if !ok {
			break
		}
		fmt.Printf("%s\t%s\n", key, value)
		printed++
	}
	if err := cur.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

// statsCmd handles the stats command.
func statsCmd(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	flags := addDBFlags(fs)
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printStatsUsage(os.Stdout)
		return 0
	}

	cfg, err := flags.resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	db, _, err := openDB(cfg, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return 1
	}
	defer db.Close()

	stats, err := db.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Printf("  Keys:           %d\n", stats.Keys)
	fmt.Printf("  Height:         %d\n", stats.Height)
	fmt.Printf("  Leaf nodes:     %d\n", stats.LeafNodes)
	fmt.Printf("  Internal nodes: %d\n", stats.InternalNodes)
	fmt.Printf("  Total blocks:   %d\n", stats.TotalBlocks)
	fmt.Printf("  Free blocks:    %d\n", stats.FreeBlocks)
	fmt.Printf("  Block size:     %d\n", stats.BlockSize)
	fmt.Printf("  Order:          %d\n", stats.Order)

	return 0
}

// checkCmd handles the check command.
func checkCmd(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	flags := addDBFlags(fs)
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printCheckUsage(os.Stdout)
		return 0
	}

	cfg, err := flags.resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	db, _, err := openDB(cfg, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return 1
	}
	defer db.Close()

	start := time.Now()
	if err := db.Check(); err != nil {
		fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
		return 1
	}

	fmt.Printf("Check passed in %v\n", time.Since(start).Round(time.Millisecond))
	return 0
}

// dumpCmd handles the dump command.
func dumpCmd(args []string) int {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	flags := addDBFlags(fs)
	output := fs.String("output", "", "Output file path")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printDumpUsage(os.Stdout)
		return 0
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: -output is required")
		return 1
	}

	cfg, err := flags.resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	db, _, err := openDB(cfg, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return 1
	}
	defer db.Close()

	start := time.Now()
	if err := db.ExportToFile(*output); err != nil {
		fmt.Fprintf(os.Stderr, "Dump failed: %v\n", err)
		return 1
	}

	fmt.Printf("Dump written to %s in %v\n", *output, time.Since(start).Round(time.Millisecond))
	return 0
}

// restoreCmd handles the restore command.
func restoreCmd(args []string) int {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	flags := addDBFlags(fs)
	input := fs.String("input", "", "Input dump file path")
	help := fs.Bool("h", false, "Show help message")
	helpLong := fs.Bool("help", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *help || *helpLong {
		printRestoreUsage(os.Stdout)
		return 0
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -input is required")
		return 1
	}

	cfg, err := flags.resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	db, _, err := openDB(cfg, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return 1
	}
	defer db.Close()

	start := time.Now()
	if err := db.ImportFromFile(*input); err != nil {
		fmt.Fprintf(os.Stderr, "Restore failed: %v\n", err)
		return 1
	}

	fmt.Printf("Restore finished in %v\n", time.Since(start).Round(time.Millisecond))
	return 0
}
