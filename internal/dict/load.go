package dict

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/go-morpho/internal/charcat"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// File names inside a dictionary directory.
const (
	MatrixFile  = "matrix.def"
	UnknownFile = "unk.def"
	LexiconGlob = "*.csv"
)

// Supported source charsets.
const (
	CharsetUTF8     = "utf-8"
	CharsetEUCJP    = "euc-jp"
	CharsetShiftJIS = "shift_jis"
)

// NormalizeCharset canonicalizes a charset name. An empty name means UTF-8.
func NormalizeCharset(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "utf-8", "utf8":
		return CharsetUTF8, nil
	case "euc-jp", "eucjp", "euc_jp":
		return CharsetEUCJP, nil
	case "shift_jis", "shift-jis", "sjis", "cp932":
		return CharsetShiftJIS, nil
	default:
		return "", fmt.Errorf("unsupported charset %q (expected %s|%s|%s)",
			raw, CharsetUTF8, CharsetEUCJP, CharsetShiftJIS)
	}
}

func charsetEncoding(name string) encoding.Encoding {
	switch name {
	case CharsetEUCJP:
		return japanese.EUCJP
	case CharsetShiftJIS:
		return japanese.ShiftJIS
	default:
		return nil
	}
}

type loadOptions struct {
	charset string
	logger  *slog.Logger
}

// Option configures Load.
type Option func(*loadOptions)

// WithCharset sets the charset of the dictionary source files.
func WithCharset(name string) Option {
	return func(o *loadOptions) { o.charset = name }
}

// WithLogger sets the logger used to report the load summary.
func WithLogger(l *slog.Logger) Option {
	return func(o *loadOptions) { o.logger = l }
}

// Load reads a dictionary directory holding one or more lexicon CSV files,
// matrix.def and an optional unk.def. Every failure wraps ErrDictionaryLoad.
func Load(dir string, optFns ...Option) (*Store, error) {
	opts := loadOptions{logger: slog.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()

	if dir == "" {
		return nil, fmt.Errorf("%w: dictionary directory must not be empty", ErrDictionaryLoad)
	}
	charset, err := NormalizeCharset(opts.charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDictionaryLoad, err)
	}
	enc := charsetEncoding(charset)

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDictionaryLoad, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is not a directory", ErrDictionaryLoad, dir)
	}

	var m *Matrix
	err = withDecodedFile(filepath.Join(dir, MatrixFile), enc, func(r io.Reader) error {
		var perr error
		m, perr = ParseMatrix(r)
		return perr
	})
	if err != nil {
		return nil, wrapLoad(err)
	}

	files, err := filepath.Glob(filepath.Join(dir, LexiconGlob))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDictionaryLoad, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no lexicon files matching %s in %q", ErrDictionaryLoad, LexiconGlob, dir)
	}
	sort.Strings(files)

	var entries []Entry
	for _, path := range files {
		err = withDecodedFile(path, enc, func(r io.Reader) error {
			var perr error
			entries, perr = parseLexicon(r, entries)
			return perr
		})
		if err != nil {
			return nil, wrapLoad(err)
		}
	}

	unknown := map[charcat.Category]Entry{}
	unkPath := filepath.Join(dir, UnknownFile)
	if _, statErr := os.Stat(unkPath); statErr == nil {
		err = withDecodedFile(unkPath, enc, func(r io.Reader) error {
			var perr error
			unknown, perr = parseUnknown(r)
			return perr
		})
		if err != nil {
			return nil, wrapLoad(err)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", ErrDictionaryLoad, statErr)
	}

	store, err := New(entries, m, unknown)
	if err != nil {
		return nil, err
	}
	store.source = dir
	store.charset = charset

	opts.logger.Info("dictionary loaded",
		slog.String("dir", dir),
		slog.String("charset", charset),
		slog.Int("entries", store.Len()),
		slog.Int("right_size", m.RightSize()),
		slog.Int("left_size", m.LeftSize()),
		slog.Int("unknown_defs", len(unknown)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return store, nil
}

func wrapLoad(err error) error {
	if errors.Is(err, ErrDictionaryLoad) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDictionaryLoad, err)
}

func withDecodedFile(path string, enc encoding.Encoding, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if enc != nil {
		r = transform.NewReader(f, enc.NewDecoder())
	}

	if err := fn(r); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// parseLexicon reads "surface,left_id,right_id,cost,feature..." records.
func parseLexicon(r io.Reader, dst []Entry) ([]Entry, error) {
	cr := newCSVReader(r)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return dst, nil
		}
		if err != nil {
			return nil, err
		}

		line, _ := cr.FieldPos(0)
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		dst = append(dst, e)
	}
}

// parseUnknown reads "CATEGORY,left_id,right_id,cost,feature..." records.
// The first definition of a category wins.
func parseUnknown(r io.Reader) (map[charcat.Category]Entry, error) {
	out := map[charcat.Category]Entry{}
	cr := newCSVReader(r)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		line, _ := cr.FieldPos(0)
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cat, err := charcat.Parse(e.Surface)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, dup := out[cat]; !dup {
			out[cat] = e
		}
	}
}

func parseRecord(rec []string) (Entry, error) {
	if len(rec) < 4 {
		return Entry{}, fmt.Errorf("want at least 4 fields, got %d", len(rec))
	}
	left, err := strconv.Atoi(strings.TrimSpace(rec[1]))
	if err != nil {
		return Entry{}, fmt.Errorf("left id: %w", err)
	}
	right, err := strconv.Atoi(strings.TrimSpace(rec[2]))
	if err != nil {
		return Entry{}, fmt.Errorf("right id: %w", err)
	}
	cost, err := strconv.ParseInt(strings.TrimSpace(rec[3]), 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("cost: %w", err)
	}

	return Entry{
		Surface: rec[0],
		LeftID:  left,
		RightID: right,
		Cost:    cost,
		Feature: strings.Join(rec[4:], ","),
	}, nil
}
