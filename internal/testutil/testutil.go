// Package testutil provides fixture dictionaries and skip helpers shared by
// the engine, server and CLI tests.
//
// Typical usage:
//
//	func TestSomething(t *testing.T) {
//	    store := testutil.SampleStore(t)
//	    ...
//	}
//
// Integration tests that want a full-size MeCab dictionary call
// RequireDictionary, which skips when MORPHO_DICTIONARY_DIR is unset.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-morpho/internal/dict"
	"golang.org/x/text/encoding/japanese"
)

// Fixture is the text content of a dictionary directory.
type Fixture struct {
	Lexicon map[string][]string // file name -> csv lines
	Matrix  string
	Unknown []string // unk.def lines; nil means no unk.def file
}

// Context IDs used by the sample dictionary.
const (
	IDBoundary = 0
	IDNoun     = 1
	IDParticle = 2
)

// Sample lexicon costs, exported so tests can compute expected path costs.
const (
	CostSumomo  = 3000
	CostMomo    = 3000
	CostMo      = 1000
	CostNo      = 1000
	CostUchi    = 2000
	CostUnknown = 10000
	CostAlpha   = 8000
	CostNumeric = 6000
)

// SumomoText is the classic segmentation example, "plums and peaches are
// both kinds of peaches". Its best segmentation is SumomoBest.
const SumomoText = "すもももももももものうち"

// SumomoBest is the lowest-cost segmentation of SumomoText.
var SumomoBest = []string{"すもも", "も", "もも", "も", "もも", "の", "うち"}

// Path costs for SumomoText under the sample dictionary: one best path, then
// SumomoSecondTies paths sharing SumomoSecondCost, then SumomoThirdCost.
const (
	SumomoBestCost   = 14000
	SumomoSecondCost = 15500
	SumomoSecondTies = 4
	SumomoThirdCost  = 16000
)

// SampleFixture returns a small Japanese dictionary with nouns and particles.
//
// Connection costs (prev right id -> next left id):
//
//	boundary->noun 0, boundary->particle 1000
//	noun->boundary 0, noun->noun 500, noun->particle 0
//	particle->boundary 500, particle->noun 0, particle->particle 1000
func SampleFixture() Fixture {
	return Fixture{
		Lexicon: map[string][]string{
			"noun.csv": {
				"すもも,1,1,3000,名詞,一般,*,*,*,*,すもも,スモモ,スモモ",
				"もも,1,1,3000,名詞,一般,*,*,*,*,もも,モモ,モモ",
				"うち,1,1,2000,名詞,非自立,副詞可能,*,*,*,うち,ウチ,ウチ",
				"東,1,1,4000,名詞,一般,*,*,*,*,東,ヒガシ,ヒガシ",
				"東京,1,1,2000,名詞,固有名詞,地域,一般,*,*,東京,トウキョウ,トーキョー",
				"東京都,1,1,2800,名詞,固有名詞,地域,一般,*,*,東京都,トウキョウト,トーキョート",
				"京都,1,1,2000,名詞,固有名詞,地域,一般,*,*,京都,キョウト,キョート",
				"都,1,1,1500,名詞,接尾,地域,*,*,*,都,ト,ト",
			},
			"particle.csv": {
				"も,2,2,1000,助詞,係助詞,*,*,*,*,も,モ,モ",
				"の,2,2,1000,助詞,連体化,*,*,*,*,の,ノ,ノ",
				"に,2,2,1000,助詞,格助詞,一般,*,*,*,に,ニ,ニ",
			},
		},
		Matrix: strings.Join([]string{
			"3 3",
			"0 0 0",
			"0 1 0",
			"0 2 1000",
			"1 0 0",
			"1 1 500",
			"1 2 0",
			"2 0 500",
			"2 1 0",
			"2 2 1000",
		}, "\n") + "\n",
		Unknown: []string{
			"DEFAULT,1,1,10000,記号,一般,*,*,*,*,*",
			"SPACE,1,1,10000,記号,空白,*,*,*,*,*",
			"ALPHA,1,1,8000,名詞,固有名詞,組織,*,*,*,*",
			"NUMERIC,1,1,6000,名詞,数,*,*,*,*,*",
			"KANJI,1,1,10000,名詞,一般,*,*,*,*,*",
			"KANA,1,1,10000,名詞,一般,*,*,*,*,*",
		},
	}
}

// WriteDictionary writes f into a fresh temporary directory and returns it.
func WriteDictionary(tb testing.TB, f Fixture) string {
	tb.Helper()
	return writeFixture(tb, f, func(s string) (string, error) { return s, nil })
}

// WriteDictionaryEUCJP is WriteDictionary with every file encoded as EUC-JP.
func WriteDictionaryEUCJP(tb testing.TB, f Fixture) string {
	tb.Helper()
	enc := japanese.EUCJP.NewEncoder()
	return writeFixture(tb, f, enc.String)
}

func writeFixture(tb testing.TB, f Fixture, encode func(string) (string, error)) string {
	tb.Helper()

	dir := tb.TempDir()
	write := func(name, content string) {
		encoded, err := encode(content)
		if err != nil {
			tb.Fatalf("encode %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(encoded), 0o600); err != nil {
			tb.Fatalf("write %s: %v", name, err)
		}
	}

	for name, lines := range f.Lexicon {
		write(name, strings.Join(lines, "\n")+"\n")
	}
	if f.Matrix != "" {
		write(dict.MatrixFile, f.Matrix)
	}
	if f.Unknown != nil {
		write(dict.UnknownFile, strings.Join(f.Unknown, "\n")+"\n")
	}

	return dir
}

// SampleDir writes the sample fixture and returns its directory.
func SampleDir(tb testing.TB) string {
	tb.Helper()
	return WriteDictionary(tb, SampleFixture())
}

// SampleStore loads the sample fixture.
func SampleStore(tb testing.TB) *dict.Store {
	tb.Helper()

	store, err := dict.Load(SampleDir(tb), dict.WithLogger(DiscardLogger()))
	if err != nil {
		tb.Fatalf("load sample dictionary: %v", err)
	}
	return store
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RequireDictionary skips the test unless MORPHO_DICTIONARY_DIR names an
// existing directory, and returns that directory.
func RequireDictionary(tb testing.TB) string {
	tb.Helper()

	dir := os.Getenv("MORPHO_DICTIONARY_DIR")
	if dir == "" {
		tb.Skip("MORPHO_DICTIONARY_DIR not set; skipping full dictionary test")
		return ""
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		tb.Skipf("dictionary directory %q not available", dir)
		return ""
	}

	return dir
}
