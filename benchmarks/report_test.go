package benchmarks

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseBenchmarkOutput(t *testing.T) {
	input := `goos: linux
goarch: amd64
pkg: github.com/sedirdb/sedir/benchmarks
BenchmarkSedirInsert-8     215433    5532.10 ns/op    412 B/op    9 allocs/op
BenchmarkPebbleInsert-8    801294    1497.55 ns/op    188 B/op    4 allocs/op
PASS
ok  	github.com/sedirdb/sedir/benchmarks	8.035s`

	results, err := ParseBenchmarkOutput(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseBenchmarkOutput failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	if results[0].Name != "BenchmarkSedirInsert" {
		t.Errorf("Expected name 'BenchmarkSedirInsert', got '%s'", results[0].Name)
	}
	if results[0].Iterations != 215433 {
		t.Errorf("Expected iterations 215433, got %d", results[0].Iterations)
	}
	if results[0].NsPerOp < 5532.0 || results[0].NsPerOp > 5533.0 {
		t.Errorf("Expected ns/op ~5532.10, got %f", results[0].NsPerOp)
	}
	if results[0].BytesPerOp != 412 {
		t.Errorf("Expected bytes/op 412, got %d", results[0].BytesPerOp)
	}
	if results[0].AllocsPerOp != 9 {
		t.Errorf("Expected allocs/op 9, got %d", results[0].AllocsPerOp)
	}
}

func TestParseBenchmarkOutputWithoutMemStats(t *testing.T) {
	input := "BenchmarkSedirSearch-8    1000000    902.4 ns/op\n"

	results, err := ParseBenchmarkOutput(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseBenchmarkOutput failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].BytesPerOp != 0 || results[0].AllocsPerOp != 0 {
		t.Errorf("Expected zero mem stats, got %d B/op %d allocs/op",
			results[0].BytesPerOp, results[0].AllocsPerOp)
	}
}

func TestNewReport(t *testing.T) {
	report := NewReport()

	if report == nil {
		t.Fatal("NewReport returned nil")
	}
	if report.Timestamp.IsZero() {
		t.Error("Report timestamp should not be zero")
	}
}

func TestComparisons(t *testing.T) {
	report := NewReport()
	report.AddResults([]Result{
		{Name: "BenchmarkSedirInsert", NsPerOp: 2000.0},
		{Name: "BenchmarkPebbleInsert", NsPerOp: 1000.0},
		{Name: "BenchmarkSedirSearch", NsPerOp: 500.0},
		{Name: "BenchmarkPebbleSearch", NsPerOp: 1000.0},
		{Name: "BenchmarkSedirDelete", NsPerOp: 3000.0},
	})

	comparisons := report.Comparisons()

	// Delete has no pebble counterpart and must be skipped.
	if len(comparisons) != 2 {
		t.Fatalf("Expected 2 comparisons, got %d", len(comparisons))
	}

	if comparisons[0].Workload != "Insert" {
		t.Errorf("Expected first workload 'Insert', got '%s'", comparisons[0].Workload)
	}
	if ratio := comparisons[0].Ratio(); ratio != 2.0 {
		t.Errorf("Expected insert ratio 2.0, got %f", ratio)
	}
	if ratio := comparisons[1].Ratio(); ratio != 0.5 {
		t.Errorf("Expected search ratio 0.5, got %f", ratio)
	}
}

func TestGenerateTextReport(t *testing.T) {
	report := NewReport()
	report.GoVersion = "go1.22"
	report.AddResults([]Result{
		{Name: "BenchmarkSedirInsert", Iterations: 100, NsPerOp: 2000.0},
		{Name: "BenchmarkPebbleInsert", Iterations: 200, NsPerOp: 1000.0},
	})

	var buf bytes.Buffer
	if err := report.GenerateTextReport(&buf); err != nil {
		t.Fatalf("GenerateTextReport failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"BenchmarkSedirInsert", "sedir vs pebble", "Insert", "2.00x", "go1.22"} {
		if !strings.Contains(out, want) {
			t.Errorf("Report missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateMarkdownReport(t *testing.T) {
	report := NewReport()
	report.AddResults([]Result{
		{Name: "BenchmarkSedirScan", NsPerOp: 100.0},
		{Name: "BenchmarkPebbleScan", NsPerOp: 400.0},
	})

	var buf bytes.Buffer
	if err := report.GenerateMarkdownReport(&buf); err != nil {
		t.Fatalf("GenerateMarkdownReport failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "| Scan | 100.00 | 400.00 | 0.25x |") {
		t.Errorf("Markdown table row missing:\n%s", out)
	}
}
