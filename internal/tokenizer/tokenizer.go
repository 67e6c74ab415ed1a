// Package tokenizer is the public face of the morphological analyzer: it owns
// a dictionary store and turns text into morpheme sequences using a freshly
// built lattice per call.
package tokenizer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/example/go-morpho/internal/dict"
	"github.com/example/go-morpho/internal/lattice"
)

// ErrInvalidArgument reports a recoverable caller error.
var ErrInvalidArgument = errors.New("invalid argument")

// Engine errors, re-exported so callers only need this package.
var (
	ErrDictionaryLoad   = dict.ErrDictionaryLoad
	ErrUnknownContextID = dict.ErrUnknownContextID
	ErrNoPath           = lattice.ErrNoPath
	ErrCostOverflow     = lattice.ErrCostOverflow
)

// Token is one morpheme of an analysis. Start and End are byte offsets into
// the input text.
type Token struct {
	Surface string `json:"surface"`
	Feature string `json:"feature"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Unknown bool   `json:"unknown,omitempty"`
}

// Scored is one analysis together with its total path cost.
type Scored struct {
	Tokens []Token `json:"tokens"`
	Cost   int64   `json:"cost"`
}

// Config describes how New loads a dictionary and tunes the analyzer.
type Config struct {
	DictionaryDir string
	Charset       string
	Lattice       lattice.Options
	// MaxInputBytes rejects longer inputs; 0 disables the limit.
	MaxInputBytes int
	Logger        *slog.Logger
}

// Option configures a Tokenizer built with NewWithStore.
type Option func(*Tokenizer)

// WithLatticeOptions sets the unknown-word options used for every call.
func WithLatticeOptions(o lattice.Options) Option {
	return func(t *Tokenizer) { t.opts = o }
}

// WithMaxInputBytes caps the accepted input size. n <= 0 disables the cap.
func WithMaxInputBytes(n int) Option {
	return func(t *Tokenizer) {
		if n < 0 {
			n = 0
		}
		t.maxInput = n
	}
}

// Tokenizer analyzes text against a shared, immutable dictionary. It is safe
// for concurrent use; each call works on its own lattice.
type Tokenizer struct {
	store    *dict.Store
	opts     lattice.Options
	maxInput int
	pool     sync.Pool
}

// New loads the dictionary named by cfg and returns a Tokenizer over it.
func New(cfg Config) (*Tokenizer, error) {
	loadOpts := []dict.Option{dict.WithCharset(cfg.Charset)}
	if cfg.Logger != nil {
		loadOpts = append(loadOpts, dict.WithLogger(cfg.Logger))
	}

	store, err := dict.Load(cfg.DictionaryDir, loadOpts...)
	if err != nil {
		return nil, err
	}

	return NewWithStore(store,
		WithLatticeOptions(cfg.Lattice),
		WithMaxInputBytes(cfg.MaxInputBytes),
	), nil
}

// NewWithStore returns a Tokenizer sharing an already loaded store.
func NewWithStore(store *dict.Store, opts ...Option) *Tokenizer {
	t := &Tokenizer{store: store, opts: lattice.DefaultOptions()}
	for _, fn := range opts {
		fn(t)
	}
	t.pool.New = func() any { return new(lattice.Lattice) }
	return t
}

// Store returns the dictionary the tokenizer reads from.
func (t *Tokenizer) Store() *dict.Store { return t.store }

// MaxInputBytes returns the configured input cap, 0 when unlimited.
func (t *Tokenizer) MaxInputBytes() int { return t.maxInput }

// Tokenize returns the lowest-cost segmentation of text. Empty text yields an
// empty, non-nil slice.
func (t *Tokenizer) Tokenize(text string) ([]Token, error) {
	var out []Token
	err := t.withLattice(text, func(l *lattice.Lattice) error {
		p, err := l.Viterbi()
		if err != nil {
			return err
		}
		out = render(l, p)
		return nil
	})
	return out, err
}

// TokenizeNBest returns up to n segmentations ordered by ascending cost. The
// first one always equals Tokenize(text).
func (t *Tokenizer) TokenizeNBest(text string, n int) ([][]Token, error) {
	scored, err := t.TokenizeNBestScored(text, n)
	if err != nil {
		return nil, err
	}
	out := make([][]Token, len(scored))
	for i, s := range scored {
		out[i] = s.Tokens
	}
	return out, nil
}

// TokenizeNBestScored is TokenizeNBest with path costs.
func (t *Tokenizer) TokenizeNBestScored(text string, n int) ([]Scored, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive, got %d", ErrInvalidArgument, n)
	}

	var out []Scored
	err := t.withLattice(text, func(l *lattice.Lattice) error {
		paths, err := l.NBest(n)
		if err != nil {
			return err
		}
		out = make([]Scored, len(paths))
		for i, p := range paths {
			out[i] = Scored{Tokens: render(l, p), Cost: p.Cost}
		}
		return nil
	})
	return out, err
}

func (t *Tokenizer) validate(text string) error {
	if t.maxInput > 0 && len(text) > t.maxInput {
		return fmt.Errorf("%w: input is %d bytes, limit is %d", ErrInvalidArgument, len(text), t.maxInput)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: input is not valid UTF-8", ErrInvalidArgument)
	}
	return nil
}

// withLattice builds the lattice of text on a pooled arena and hands it to
// fn. Nothing fn returns may alias lattice memory.
func (t *Tokenizer) withLattice(text string, fn func(*lattice.Lattice) error) error {
	if err := t.validate(text); err != nil {
		return err
	}

	l, _ := t.pool.Get().(*lattice.Lattice)
	if l == nil {
		l = new(lattice.Lattice)
	}
	defer t.pool.Put(l)

	if err := l.Rebuild(text, t.store, t.opts); err != nil {
		return err
	}
	return fn(l)
}

func render(l *lattice.Lattice, p lattice.Path) []Token {
	out := make([]Token, 0, len(p.Nodes))
	for _, idx := range p.Nodes {
		n := l.Node(idx)
		if n.Kind == lattice.KindBOS || n.Kind == lattice.KindEOS {
			continue
		}
		out = append(out, Token{
			Surface: l.Surface(idx),
			Feature: l.Feature(idx),
			Start:   n.Start,
			End:     n.End,
			Unknown: n.Kind == lattice.KindUnknown,
		})
	}
	return out
}
