// Package batch analyzes many independent inputs concurrently over one
// shared tokenizer. Results keep input order.
package batch

import (
	"cmp"
	"context"
	"fmt"
	"runtime"

	"github.com/example/go-morpho/internal/tokenizer"
	"golang.org/x/sync/errgroup"
)

// Analyzer is the subset of *tokenizer.Tokenizer used here.
type Analyzer interface {
	TokenizeNBestScored(text string, n int) ([]tokenizer.Scored, error)
}

// Options tune a batch run.
type Options struct {
	// NBest is the number of analyses per input; values below 1 mean 1.
	NBest int
	// Workers bounds concurrency; 0 means GOMAXPROCS.
	Workers int
}

// Result is the outcome for one input.
type Result struct {
	Index    int
	Text     string
	Analyses []tokenizer.Scored
}

// Run analyzes texts with at most opts.Workers concurrent calls. The first
// failure cancels the remaining work and is returned with the index of the
// input that caused it.
func Run(ctx context.Context, a Analyzer, texts []string, opts Options) ([]Result, error) {
	n := max(opts.NBest, 1)
	workers := cmp.Or(max(opts.Workers, 0), runtime.GOMAXPROCS(0))

	results := make([]Result, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			analyses, err := a.TokenizeNBestScored(text, n)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			results[i] = Result{Index: i, Text: text, Analyses: analyses}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// Best returns the first analysis of r, or nil if there is none.
func (r Result) Best() []tokenizer.Token {
	if len(r.Analyses) == 0 {
		return nil
	}
	return r.Analyses[0].Tokens
}
