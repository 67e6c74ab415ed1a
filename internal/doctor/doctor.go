// Package doctor provides dictionary and environment preflight checks for
// morpho.
package doctor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/go-morpho/internal/dict"
	"github.com/example/go-morpho/internal/tokenizer"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// DefaultSmokeText is analyzed after the dictionary loads.
const DefaultSmokeText = "すもももももももものうち"

// LoadFunc loads a dictionary directory.
type LoadFunc func(dir, charset string) (*dict.Store, error)

// ProbeFunc checks a running server.
type ProbeFunc func(addr string) error

// Config holds injectable dependencies for each doctor check.
type Config struct {
	DictionaryDir string
	Charset       string
	// Load defaults to dict.Load.
	Load LoadFunc
	// SmokeText is tokenized once the dictionary loads; empty skips the check.
	SmokeText string
	// ServerAddr, when set, is probed with Probe.
	ServerAddr string
	Probe      ProbeFunc
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark. File checks that
// fail stop the run before the dictionary is loaded.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- dictionary directory --------------------------------------------
	info, err := os.Stat(cfg.DictionaryDir)
	switch {
	case cfg.DictionaryDir == "":
		res.fail("dictionary directory: not configured")
		fmt.Fprintf(w, "%s dictionary directory: not configured\n", FailMark)
	case err != nil:
		res.fail(fmt.Sprintf("dictionary directory %q: %v", cfg.DictionaryDir, err))
		fmt.Fprintf(w, "%s dictionary directory %s: not found\n", FailMark, cfg.DictionaryDir)
	case !info.IsDir():
		res.fail(fmt.Sprintf("dictionary directory %q: not a directory", cfg.DictionaryDir))
		fmt.Fprintf(w, "%s dictionary directory %s: not a directory\n", FailMark, cfg.DictionaryDir)
	default:
		fmt.Fprintf(w, "%s dictionary directory: %s\n", PassMark, cfg.DictionaryDir)
	}

	// ---- charset ---------------------------------------------------------
	charset, err := dict.NormalizeCharset(cfg.Charset)
	if err != nil {
		res.fail(fmt.Sprintf("charset: %v", err))
		fmt.Fprintf(w, "%s charset: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s charset: %s\n", PassMark, charset)
	}

	if res.Failed() {
		return res
	}

	// ---- source files ----------------------------------------------------
	matrixPath := filepath.Join(cfg.DictionaryDir, dict.MatrixFile)
	if rs, ls, err := readMatrixHeader(matrixPath); err != nil {
		res.fail(fmt.Sprintf("%s: %v", dict.MatrixFile, err))
		fmt.Fprintf(w, "%s %s: %v\n", FailMark, dict.MatrixFile, err)
	} else {
		fmt.Fprintf(w, "%s %s: %dx%d\n", PassMark, dict.MatrixFile, rs, ls)
	}

	lexicon, _ := filepath.Glob(filepath.Join(cfg.DictionaryDir, dict.LexiconGlob))
	if len(lexicon) == 0 {
		res.fail(fmt.Sprintf("lexicon: no %s files", dict.LexiconGlob))
		fmt.Fprintf(w, "%s lexicon: no %s files\n", FailMark, dict.LexiconGlob)
	} else {
		fmt.Fprintf(w, "%s lexicon: %d file(s)\n", PassMark, len(lexicon))
	}

	if _, err := os.Stat(filepath.Join(cfg.DictionaryDir, dict.UnknownFile)); err != nil {
		fmt.Fprintf(w, "%s %s: absent, built-in unknown-word fallback\n", PassMark, dict.UnknownFile)
	} else {
		fmt.Fprintf(w, "%s %s: present\n", PassMark, dict.UnknownFile)
	}

	if res.Failed() {
		return res
	}

	// ---- load ------------------------------------------------------------
	load := cfg.Load
	if load == nil {
		load = func(dir, charset string) (*dict.Store, error) {
			return dict.Load(dir, dict.WithCharset(charset))
		}
	}
	store, err := load(cfg.DictionaryDir, charset)
	if err != nil {
		res.fail(fmt.Sprintf("dictionary load: %v", err))
		fmt.Fprintf(w, "%s dictionary load: %v\n", FailMark, err)
		return res
	}
	si := store.Info()
	fmt.Fprintf(w, "%s dictionary load: %d entries, %d surfaces, %d unknown-word categories\n",
		PassMark, si.Entries, si.Surfaces, len(si.Unknown))

	// ---- smoke test ------------------------------------------------------
	if cfg.SmokeText != "" {
		tokens, err := tokenizer.NewWithStore(store).Tokenize(cfg.SmokeText)
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("smoke test: %v", err))
			fmt.Fprintf(w, "%s smoke test: %v\n", FailMark, err)
		case strings.Join(tokenizer.Surfaces(tokens), "") != cfg.SmokeText:
			res.fail("smoke test: tokens do not reconstruct the input")
			fmt.Fprintf(w, "%s smoke test: tokens do not reconstruct the input\n", FailMark)
		default:
			fmt.Fprintf(w, "%s smoke test: %s\n", PassMark, strings.Join(tokenizer.Surfaces(tokens), " | "))
		}
	}

	// ---- running server --------------------------------------------------
	if cfg.ServerAddr != "" && cfg.Probe != nil {
		if err := cfg.Probe(cfg.ServerAddr); err != nil {
			res.fail(fmt.Sprintf("server %s: %v", cfg.ServerAddr, err))
			fmt.Fprintf(w, "%s server %s: %v\n", FailMark, cfg.ServerAddr, err)
		} else {
			fmt.Fprintf(w, "%s server %s: healthy\n", PassMark, cfg.ServerAddr)
		}
	}

	return res
}

// readMatrixHeader returns the sizes declared on the first non-empty line
// of a matrix.def file.
func readMatrixHeader(path string) (right, left int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		return parseMatrixHeader(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return 0, 0, err
	}
	return 0, 0, fmt.Errorf("empty file")
}

func parseMatrixHeader(line string) (right, left int, err error) {
	parts := strings.Fields(line)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected header format %q", line)
	}
	right, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad right size in %q: %w", line, err)
	}
	left, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad left size in %q: %w", line, err)
	}
	if right < 1 || left < 1 {
		return 0, 0, fmt.Errorf("sizes must be positive in %q", line)
	}
	return right, left, nil
}
