// Package benchmarks holds the sedir-versus-pebble benchmark suite and a
// small report generator for its output.
package benchmarks

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Result represents a single parsed benchmark result line.
type Result struct {
	// Name is the benchmark name, e.g. "BenchmarkSedirInsert".
	Name string
	// Iterations is the number of iterations run.
	Iterations int
	// NsPerOp is nanoseconds per operation.
	NsPerOp float64
	// BytesPerOp is bytes allocated per operation.
	BytesPerOp int64
	// AllocsPerOp is allocations per operation.
	AllocsPerOp int64
}

// Comparison pairs the sedir and pebble results for one workload.
type Comparison struct {
	// Workload is the shared suffix, e.g. "Insert".
	Workload string
	Sedir    Result
	Pebble   Result
}

// Ratio is sedir's ns/op divided by pebble's. Below 1 sedir is faster.
func (c Comparison) Ratio() float64 {
	if c.Pebble.NsPerOp == 0 {
		return 0
	}
	return c.Sedir.NsPerOp / c.Pebble.NsPerOp
}

// Report collects parsed results and renders them.
type Report struct {
	// Timestamp is when the report was generated.
	Timestamp time.Time
	// GoVersion is the Go version used.
	GoVersion string
	// Results contains all benchmark results.
	Results []Result
}

// NewReport creates an empty benchmark report.
func NewReport() *Report {
	return &Report{Timestamp: time.Now()}
}

// Format: BenchmarkName-N    iterations    ns/op    B/op    allocs/op
var benchLine = regexp.MustCompile(`^(Benchmark\w+)(?:-\d+)?\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+(\d+)\s+B/op)?(?:\s+(\d+)\s+allocs/op)?`)

// ParseBenchmarkOutput parses `go test -bench` output.
func ParseBenchmarkOutput(r io.Reader) ([]Result, error) {
	var results []Result

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		matches := benchLine.FindStringSubmatch(scanner.Text())
		if matches == nil {
			continue
		}

		result := Result{Name: matches[1]}

		if iterations, err := strconv.Atoi(matches[2]); err == nil {
			result.Iterations = iterations
		}
		if nsPerOp, err := strconv.ParseFloat(matches[3], 64); err == nil {
			result.NsPerOp = nsPerOp
		}
		if matches[4] != "" {
			if bytesPerOp, err := strconv.ParseInt(matches[4], 10, 64); err == nil {
				result.BytesPerOp = bytesPerOp
			}
		}
		if matches[5] != "" {
			if allocsPerOp, err := strconv.ParseInt(matches[5], 10, 64); err == nil {
				result.AllocsPerOp = allocsPerOp
			}
		}

		results = append(results, result)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading benchmark output: %w", err)
	}

	return results, nil
}

// AddResults adds benchmark results to the report.
func (r *Report) AddResults(results []Result) {
	r.Results = append(r.Results, results...)
}

// Comparisons pairs up SedirX/PebbleX results by workload suffix.
func (r *Report) Comparisons() []Comparison {
	sedir := make(map[string]Result)
	pebble := make(map[string]Result)

	for _, result := range r.Results {
		if workload, ok := strings.CutPrefix(result.Name, "BenchmarkSedir"); ok {
			sedir[workload] = result
		}
		if workload, ok := strings.CutPrefix(result.Name, "BenchmarkPebble"); ok {
			pebble[workload] = result
		}
	}

	var comparisons []Comparison
	for workload, s := range sedir {
		p, ok := pebble[workload]
		if !ok {
			continue
		}
		comparisons = append(comparisons, Comparison{Workload: workload, Sedir: s, Pebble: p})
	}

	sort.Slice(comparisons, func(i, j int) bool {
		return comparisons[i].Workload < comparisons[j].Workload
	})

	return comparisons
}

// GenerateTextReport writes a plain-text report with all raw results and a
// sedir/pebble comparison table.
func (r *Report) GenerateTextReport(w io.Writer) error {
	fmt.Fprintf(w, "=== sedir Benchmark Report ===\n\n")
	fmt.Fprintf(w, "Generated: %s\n", r.Timestamp.Format(time.RFC3339))
	if r.GoVersion != "" {
		fmt.Fprintf(w, "Go Version: %s\n", r.GoVersion)
	}
	fmt.Fprintln(w)

	results := make([]Result, len(r.Results))
	copy(results, r.Results)
	sort.Slice(results, func(i, j int) bool {
		return results[i].Name < results[j].Name
	})

	fmt.Fprintf(w, "%-35s %12s %12s %12s %12s\n",
		"Benchmark", "Iterations", "ns/op", "B/op", "allocs/op")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 85))

	for _, result := range results {
		fmt.Fprintf(w, "%-35s %12d %12.2f %12d %12d\n",
			result.Name,
			result.Iterations,
			result.NsPerOp,
			result.BytesPerOp,
			result.AllocsPerOp)
	}
	fmt.Fprintln(w)

	comparisons := r.Comparisons()
	if len(comparisons) == 0 {
		return nil
	}

	fmt.Fprintln(w, "=== sedir vs pebble ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-12s %15s %15s %10s\n",
		"Workload", "sedir ns/op", "pebble ns/op", "ratio")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 55))

	for _, c := range comparisons {
		fmt.Fprintf(w, "%-12s %15.2f %15.2f %9.2fx\n",
			c.Workload, c.Sedir.NsPerOp, c.Pebble.NsPerOp, c.Ratio())
	}

	return nil
}

// GenerateMarkdownReport writes the comparison table as Markdown.
func (r *Report) GenerateMarkdownReport(w io.Writer) error {
	fmt.Fprintln(w, "# sedir Benchmark Report")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Generated: %s\n\n", r.Timestamp.Format(time.RFC3339))

	comparisons := r.Comparisons()
	if len(comparisons) == 0 {
		fmt.Fprintln(w, "No paired sedir/pebble results found.")
		return nil
	}

	fmt.Fprintln(w, "| Workload | sedir ns/op | pebble ns/op | ratio |")
	fmt.Fprintln(w, "|----------|-------------|--------------|-------|")
	for _, c := range comparisons {
		fmt.Fprintf(w, "| %s | %.2f | %.2f | %.2fx |\n",
			c.Workload, c.Sedir.NsPerOp, c.Pebble.NsPerOp, c.Ratio())
	}

	return nil
}
