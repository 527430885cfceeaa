package main

import (
	"path/filepath"
	"testing"
)

func TestRun_NoArgs(t *testing.T) {
	exitCode := run([]string{"sedir"})
	if exitCode != 1 {
		t.Errorf("expected exit code 1 for no args, got %d", exitCode)
	}
}

func TestRun_Help(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"help command", []string{"sedir", "help"}},
		{"short flag", []string{"sedir", "-h"}},
		{"long flag", []string{"sedir", "--help"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exitCode := run(tt.args)
			if exitCode != 0 {
				t.Errorf("expected exit code 0 for help, got %d", exitCode)
			}
		})
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	exitCode := run([]string{"sedir", "unknown"})
	if exitCode != 1 {
		t.Errorf("expected exit code 1 for unknown command, got %d", exitCode)
	}
}

func TestRun_Version(t *testing.T) {
	exitCode := run([]string{"sedir", "version"})
	if exitCode != 0 {
		t.Errorf("expected exit code 0 for version, got %d", exitCode)
	}
}

func TestRun_CommandHelp(t *testing.T) {
	commands := []string{"put", "get", "del", "scan", "stats", "check", "dump", "restore", "version"}

	for _, cmd := range commands {
		t.Run(cmd, func(t *testing.T) {
			exitCode := run([]string{"sedir", cmd, "-h"})
			if exitCode != 0 {
				t.Errorf("expected exit code 0 for %s -h, got %d", cmd, exitCode)
			}
		})
	}
}

func TestRun_PutGetDelRoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.sdr")

	if code := run([]string{"sedir", "put", "-db", db, "-key", "name", "-value", "ada"}); code != 0 {
		t.Fatalf("put failed with exit code %d", code)
	}
	if code := run([]string{"sedir", "get", "-db", db, "-key", "name"}); code != 0 {
		t.Fatalf("get failed with exit code %d", code)
	}
	if code := run([]string{"sedir", "del", "-db", db, "-key", "name"}); code != 0 {
		t.Fatalf("del failed with exit code %d", code)
	}
	if code := run([]string{"sedir", "get", "-db", db, "-key", "name"}); code != 1 {
		t.Fatalf("expected exit code 1 for deleted key, got %d", code)
	}
}

func TestRun_PutRequiresKey(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.sdr")

	if code := run([]string{"sedir", "put", "-db", db}); code != 1 {
		t.Errorf("expected exit code 1 for missing key, got %d", code)
	}
}

func TestRun_StatsAndCheck(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.sdr")

	if code := run([]string{"sedir", "put", "-db", db, "-key", "k", "-value", "v"}); code != 0 {
		t.Fatalf("put failed with exit code %d", code)
	}
	if code := run([]string{"sedir", "stats", "-db", db}); code != 0 {
		t.Errorf("stats failed with exit code %d", code)
	}
	if code := run([]string{"sedir", "check", "-db", db}); code != 0 {
		t.Errorf("check failed with exit code %d", code)
	}
}

func TestRun_DumpRestore(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.sdr")
	dst := filepath.Join(dir, "dst.sdr")
	dump := filepath.Join(dir, "out.sdrb")

	if code := run([]string{"sedir", "put", "-db", src, "-key", "k", "-value", "v"}); code != 0 {
		t.Fatalf("put failed with exit code %d", code)
	}
	if code := run([]string{"sedir", "dump", "-db", src, "-output", dump}); code != 0 {
		t.Fatalf("dump failed with exit code %d", code)
	}
	if code := run([]string{"sedir", "restore", "-db", dst, "-input", dump}); code != 0 {
		t.Fatalf("restore failed with exit code %d", code)
	}
	if code := run([]string{"sedir", "get", "-db", dst, "-key", "k"}); code != 0 {
		t.Fatalf("get after restore failed with exit code %d", code)
	}
}
