// Package bench provides benchmarking primitives for the morpho bench command.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Analyzer is the subset of the tokenizer exercised by a benchmark run.
type Analyzer interface {
	TokenizeCount(text string) (int, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(text string) (int, error)

// TokenizeCount calls f.
func (f AnalyzerFunc) TokenizeCount(text string) (int, error) { return f(text) }

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing of one pass over the corpus.
type RunResult struct {
	Index    int
	Cold     bool // true for the first run, which also warms the lattice pool
	Duration time.Duration
	Bytes    int
	Tokens   int
}

// BytesPerSecond returns the input throughput of the run.
func (r RunResult) BytesPerSecond() float64 {
	return CalcThroughput(r.Bytes, r.Duration)
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		mn = min(mn, d)
		mx = max(mx, d)
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// StatsOf aggregates the durations of runs.
func StatsOf(runs []RunResult) Stats {
	durations := make([]time.Duration, len(runs))
	for i, r := range runs {
		durations[i] = r.Duration
	}
	return ComputeStats(durations)
}

// CalcThroughput returns n bytes per second over d, or 0 when d is zero.
func CalcThroughput(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

// ---------------------------------------------------------------------------
// Runner
// ---------------------------------------------------------------------------

// Run tokenizes every text in corpus once per run and times each pass.
func Run(ctx context.Context, a Analyzer, corpus []string, runs int) ([]RunResult, error) {
	if runs < 1 {
		return nil, fmt.Errorf("runs must be at least 1, got %d", runs)
	}

	size := 0
	for _, text := range corpus {
		size += len(text)
	}

	results := make([]RunResult, 0, runs)
	for i := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tokens := 0
		start := time.Now()
		for j, text := range corpus {
			n, err := a.TokenizeCount(text)
			if err != nil {
				return nil, fmt.Errorf("run %d input %d: %w", i+1, j, err)
			}
			tokens += n
		}

		results = append(results, RunResult{
			Index:    i,
			Cold:     i == 0,
			Duration: time.Since(start),
			Bytes:    size,
			Tokens:   tokens,
		})
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Latency gate
// ---------------------------------------------------------------------------

// CheckMeanThreshold returns an error if mean exceeds limit.
// A limit of 0 disables the gate.
func CheckMeanThreshold(mean, limit time.Duration) error {
	if limit <= 0 {
		return nil
	}
	if mean > limit {
		return fmt.Errorf("mean run time %s exceeds threshold %s", mean, limit)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

// FormatTable writes a human-readable table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	data := make([][]string, 0, len(runs)+3)
	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		data = append(data, []string{
			strconv.Itoa(r.Index + 1),
			cold,
			strconv.FormatFloat(ms(r.Duration), 'f', 2, 64),
			strconv.Itoa(r.Tokens),
			strconv.FormatFloat(r.BytesPerSecond()/1024, 'f', 1, 64),
		})
	}
	for _, row := range []struct {
		label string
		d     time.Duration
	}{{"min", stats.Min}, {"mean", stats.Mean}, {"max", stats.Max}} {
		data = append(data, []string{row.label, "", strconv.FormatFloat(ms(row.d), 'f', 2, 64), "", ""})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"RUN", "COLD", "MS", "TOKENS", "KIB/S"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("  ")
	table.AppendBulk(data)
	table.Render()
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index       int     `json:"index"`
	Cold        bool    `json:"cold"`
	DurationMS  float64 `json:"duration_ms"`
	Bytes       int     `json:"bytes"`
	Tokens      int     `json:"tokens"`
	BytesPerSec float64 `json:"bytes_per_sec"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) error {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:  ms(stats.Min),
			MeanMS: ms(stats.Mean),
			MaxMS:  ms(stats.Max),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:       r.Index,
			Cold:        r.Cold,
			DurationMS:  ms(r.Duration),
			Bytes:       r.Bytes,
			Tokens:      r.Tokens,
			BytesPerSec: r.BytesPerSecond(),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}
