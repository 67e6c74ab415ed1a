package lattice_test

import (
	"errors"
	"math"
	"testing"

	"github.com/example/go-morpho/internal/charcat"
	"github.com/example/go-morpho/internal/dict"
	"github.com/example/go-morpho/internal/lattice"
	"github.com/example/go-morpho/internal/testutil"
)

func build(t *testing.T, store *dict.Store, text string, opts lattice.Options) *lattice.Lattice {
	t.Helper()

	l, err := lattice.Build(text, store, opts)
	if err != nil {
		t.Fatalf("Build(%q): %v", text, err)
	}
	return l
}

func surfaces(l *lattice.Lattice, p lattice.Path) []string {
	out := make([]string, 0, len(p.Nodes))
	for _, i := range p.Nodes {
		if i == lattice.BOS || i == lattice.EOS {
			continue
		}
		out = append(out, l.Surface(i))
	}
	return out
}

func viterbi(t *testing.T, l *lattice.Lattice) lattice.Path {
	t.Helper()

	p, err := l.Viterbi()
	if err != nil {
		t.Fatalf("Viterbi(%q): %v", l.Text(), err)
	}
	return p
}

// ---------------------------------------------------------------------------
// Build
// ---------------------------------------------------------------------------

func TestBuild_EmptyText(t *testing.T) {
	l := build(t, testutil.SampleStore(t), "", lattice.DefaultOptions())

	if l.Len() != 2 {
		t.Fatalf("Len() = %d; want 2 (BOS, EOS)", l.Len())
	}

	p := viterbi(t, l)
	if len(p.Nodes) != 2 || p.Nodes[0] != lattice.BOS || p.Nodes[1] != lattice.EOS {
		t.Errorf("path = %v; want [BOS EOS]", p.Nodes)
	}
	if p.Cost != 0 {
		t.Errorf("cost = %d; want 0", p.Cost)
	}
}

func TestBuild_AllPrefixMatchesBecomeNodes(t *testing.T) {
	l := build(t, testutil.SampleStore(t), "東京都に", lattice.DefaultOptions())

	var got []string
	for _, i := range l.StartingAt(0) {
		n := l.Node(i)
		if n.Kind != lattice.KindKnown {
			t.Errorf("node %d at offset 0 has kind %s; want known", i, n.Kind)
		}
		got = append(got, l.Surface(i))
	}
	testutil.AssertSurfaces(t, got, []string{"東", "東京", "東京都"})
}

func TestBuild_SentinelPlacement(t *testing.T) {
	text := "東京"
	l := build(t, testutil.SampleStore(t), text, lattice.DefaultOptions())

	for _, i := range l.StartingAt(0) {
		if i == lattice.BOS {
			t.Error("BOS listed among nodes starting at 0")
		}
	}
	if got := l.EndingAt(0); len(got) != 1 || got[0] != lattice.BOS {
		t.Errorf("EndingAt(0) = %v; want [BOS]", got)
	}
	if got := l.StartingAt(len(text)); len(got) != 1 || got[0] != lattice.EOS {
		t.Errorf("StartingAt(%d) = %v; want [EOS]", len(text), got)
	}
}

func TestBuild_InvalidUTF8StaysInBounds(t *testing.T) {
	m, err := dict.NewMatrix(1, 1)
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	store, err := dict.New([]dict.Entry{
		{Surface: "\uFFFD", Cost: 1, Feature: "replacement"},
	}, m, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, text := range []string{"\xff", "a\xffb", "\xff\uFFFD"} {
		l := build(t, store, text, lattice.DefaultOptions())
		for i := 0; i < l.Len(); i++ {
			if n := l.Node(i); n.End > len(text) {
				t.Fatalf("%q: node %d ends at %d past %d", text, i, n.End, len(text))
			}
		}
		p := viterbi(t, l)
		testutil.AssertPartition(t, text, surfaces(l, p))
	}
}

func TestBuild_NoZeroWidthNodes(t *testing.T) {
	l := build(t, testutil.SampleStore(t), "abc すもも12!", lattice.DefaultOptions())

	for i := 0; i < l.Len(); i++ {
		if i == lattice.BOS || i == lattice.EOS {
			continue
		}
		n := l.Node(i)
		if n.End <= n.Start {
			t.Errorf("node %d spans [%d:%d]", i, n.Start, n.End)
		}
	}
}

func TestBuild_UnknownOnlyWhereNothingMatches(t *testing.T) {
	l := build(t, testutil.SampleStore(t), "もabc", lattice.DefaultOptions())

	for _, i := range l.StartingAt(0) {
		if l.Node(i).Kind == lattice.KindUnknown {
			t.Error("unexpected unknown node at an offset with a dictionary match")
		}
	}

	var unknown []int
	for _, i := range l.StartingAt(len("も")) {
		if l.Node(i).Kind == lattice.KindUnknown {
			unknown = append(unknown, i)
		}
	}
	if len(unknown) != 1 {
		t.Fatalf("want exactly one unknown node after も, got %d", len(unknown))
	}
	n := l.Node(unknown[0])
	if n.Category != charcat.Alpha || l.Surface(unknown[0]) != "abc" {
		t.Errorf("unknown node = %s %q; want ALPHA \"abc\"", n.Category, l.Surface(unknown[0]))
	}
}

func TestBuild_InvokeUnknownAddsNodeDespiteMatches(t *testing.T) {
	opts := lattice.DefaultOptions()
	opts.InvokeUnknown = []charcat.Category{charcat.Kanji}
	l := build(t, testutil.SampleStore(t), "東京", opts)

	count := 0
	for _, i := range l.StartingAt(0) {
		if l.Node(i).Kind == lattice.KindUnknown {
			count++
			if got := l.Surface(i); got != "東京" {
				t.Errorf("unknown surface = %q; want 東京", got)
			}
		}
	}
	if count != 1 {
		t.Errorf("unknown nodes at offset 0 = %d; want 1", count)
	}
}

func TestBuild_MaxUnknownLength(t *testing.T) {
	opts := lattice.DefaultOptions()
	opts.MaxUnknownLength = 2
	l := build(t, testutil.SampleStore(t), "abcde", opts)

	p := viterbi(t, l)
	testutil.AssertSurfaces(t, surfaces(l, p), []string{"ab", "cd", "e"})

	want := int64(3*testutil.CostAlpha + 2*500)
	if p.Cost != want {
		t.Errorf("cost = %d; want %d", p.Cost, want)
	}
}

func TestBuild_FallbackWithoutUnknownDefinitions(t *testing.T) {
	f := testutil.SampleFixture()
	f.Unknown = nil
	store, err := dict.Load(testutil.WriteDictionary(t, f), dict.WithLogger(testutil.DiscardLogger()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	l := build(t, store, "xyz", lattice.DefaultOptions())
	p := viterbi(t, l)
	if len(p.Nodes) != 3 {
		t.Fatalf("path = %v; want one token", p.Nodes)
	}
	if got := l.Feature(p.Nodes[1]); got != lattice.DefaultUnknownFeature {
		t.Errorf("feature = %q; want %q", got, lattice.DefaultUnknownFeature)
	}
	if p.Cost != lattice.DefaultUnknownCost {
		t.Errorf("cost = %d; want %d", p.Cost, lattice.DefaultUnknownCost)
	}
}

func TestBuild_ZeroOptionsUseDefaults(t *testing.T) {
	f := testutil.SampleFixture()
	f.Unknown = nil
	store, err := dict.Load(testutil.WriteDictionary(t, f), dict.WithLogger(testutil.DiscardLogger()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	l := build(t, store, "xyz", lattice.Options{})
	p := viterbi(t, l)
	if p.Cost != lattice.DefaultUnknownCost {
		t.Errorf("cost = %d; want %d for zero UnknownCost", p.Cost, lattice.DefaultUnknownCost)
	}
	if got := l.Feature(p.Nodes[1]); got != lattice.DefaultUnknownFeature {
		t.Errorf("feature = %q; want %q", got, lattice.DefaultUnknownFeature)
	}
}

func TestRebuild_ReusesBuffers(t *testing.T) {
	store := testutil.SampleStore(t)
	l := build(t, store, testutil.SumomoText, lattice.DefaultOptions())
	_ = viterbi(t, l)

	if err := l.Rebuild("に", store, lattice.DefaultOptions()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	p := viterbi(t, l)
	testutil.AssertSurfaces(t, surfaces(l, p), []string{"に"})
	if l.Len() != 3 {
		t.Errorf("Len() = %d after rebuild; want 3", l.Len())
	}
}

func TestBuild_NilStore(t *testing.T) {
	if _, err := lattice.Build("x", nil, lattice.DefaultOptions()); err == nil {
		t.Fatal("expected error for nil store")
	}
}

// ---------------------------------------------------------------------------
// Viterbi
// ---------------------------------------------------------------------------

func TestViterbi_Sumomo(t *testing.T) {
	l := build(t, testutil.SampleStore(t), testutil.SumomoText, lattice.DefaultOptions())
	p := viterbi(t, l)

	testutil.AssertSurfaces(t, surfaces(l, p), testutil.SumomoBest)
	if p.Cost != testutil.SumomoBestCost {
		t.Errorf("cost = %d; want %d", p.Cost, testutil.SumomoBestCost)
	}
}

func TestViterbi_PrefersLongestCheapCompound(t *testing.T) {
	l := build(t, testutil.SampleStore(t), "東京都に", lattice.DefaultOptions())
	p := viterbi(t, l)

	testutil.AssertSurfaces(t, surfaces(l, p), []string{"東京都", "に"})
	// 2800 + noun->particle 0 + 1000 + particle->EOS 500
	if p.Cost != 4300 {
		t.Errorf("cost = %d; want 4300", p.Cost)
	}
}

func TestViterbi_MixedUnknownRuns(t *testing.T) {
	l := build(t, testutil.SampleStore(t), "abc123", lattice.DefaultOptions())
	p := viterbi(t, l)

	testutil.AssertSurfaces(t, surfaces(l, p), []string{"abc", "123"})
	want := int64(testutil.CostAlpha + 500 + testutil.CostNumeric)
	if p.Cost != want {
		t.Errorf("cost = %d; want %d", p.Cost, want)
	}
}

func TestViterbi_BestCostExposed(t *testing.T) {
	l := build(t, testutil.SampleStore(t), "東京都に", lattice.DefaultOptions())

	if _, ok := l.BestCost(lattice.EOS); ok {
		t.Error("BestCost reported before scoring")
	}
	p := viterbi(t, l)
	got, ok := l.BestCost(lattice.EOS)
	if !ok || got != p.Cost {
		t.Errorf("BestCost(EOS) = (%d, %v); want (%d, true)", got, ok, p.Cost)
	}
}

func TestViterbi_CostOverflow(t *testing.T) {
	m, err := dict.NewMatrix(1, 1)
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	store, err := dict.New([]dict.Entry{
		{Surface: "あ", Cost: math.MaxInt64/2 + 1, Feature: "big"},
	}, m, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l := build(t, store, "ああ", lattice.DefaultOptions())
	if _, err := l.Viterbi(); !errors.Is(err, lattice.ErrCostOverflow) {
		t.Fatalf("Viterbi err = %v; want ErrCostOverflow", err)
	}

	l = build(t, store, "ああ", lattice.DefaultOptions())
	if _, err := l.NBest(2); !errors.Is(err, lattice.ErrCostOverflow) {
		t.Fatalf("NBest err = %v; want ErrCostOverflow", err)
	}
}

// ---------------------------------------------------------------------------
// NBest
// ---------------------------------------------------------------------------

func TestNBest_SumomoCostLadder(t *testing.T) {
	l := build(t, testutil.SampleStore(t), testutil.SumomoText, lattice.DefaultOptions())

	n := 2 + testutil.SumomoSecondTies
	paths, err := l.NBest(n)
	if err != nil {
		t.Fatalf("NBest: %v", err)
	}
	if len(paths) != n {
		t.Fatalf("len(paths) = %d; want %d", len(paths), n)
	}

	testutil.AssertSurfaces(t, surfaces(l, paths[0]), testutil.SumomoBest)
	if paths[0].Cost != testutil.SumomoBestCost {
		t.Errorf("paths[0].Cost = %d; want %d", paths[0].Cost, testutil.SumomoBestCost)
	}
	for i := 1; i <= testutil.SumomoSecondTies; i++ {
		if paths[i].Cost != testutil.SumomoSecondCost {
			t.Errorf("paths[%d].Cost = %d; want %d", i, paths[i].Cost, testutil.SumomoSecondCost)
		}
		testutil.AssertPartition(t, testutil.SumomoText, surfaces(l, paths[i]))
	}
	if last := paths[n-1]; last.Cost != testutil.SumomoThirdCost {
		t.Errorf("paths[%d].Cost = %d; want %d", n-1, last.Cost, testutil.SumomoThirdCost)
	}
}

func TestNBest_FirstEqualsViterbi(t *testing.T) {
	store := testutil.SampleStore(t)
	for _, text := range []string{"", "に", testutil.SumomoText, "東京都に", "abc123", "ももも", "京都の東"} {
		l := build(t, store, text, lattice.DefaultOptions())
		best := viterbi(t, l)

		paths, err := l.NBest(1)
		if err != nil {
			t.Fatalf("NBest(%q): %v", text, err)
		}
		if len(paths) != 1 {
			t.Fatalf("NBest(%q, 1) returned %d paths", text, len(paths))
		}
		if pathKey(paths[0]) != pathKey(best) || paths[0].Cost != best.Cost {
			t.Errorf("%q: NBest(1) = %v (%d); Viterbi = %v (%d)",
				text, paths[0].Nodes, paths[0].Cost, best.Nodes, best.Cost)
		}
	}
}

func TestNBest_PrefixConsistentAndSorted(t *testing.T) {
	store := testutil.SampleStore(t)
	const maxN = 12

	for _, text := range []string{testutil.SumomoText, "東京都に", "ももも"} {
		full, err := build(t, store, text, lattice.DefaultOptions()).NBest(maxN)
		if err != nil {
			t.Fatalf("NBest(%q, %d): %v", text, maxN, err)
		}

		seen := map[string]bool{}
		for i, p := range full {
			if i > 0 && p.Cost < full[i-1].Cost {
				t.Errorf("%q: path %d cost %d < previous %d", text, i, p.Cost, full[i-1].Cost)
			}
			key := pathKey(p)
			if seen[key] {
				t.Errorf("%q: duplicate path %v", text, p.Nodes)
			}
			seen[key] = true
		}

		for n := 1; n < maxN; n++ {
			prefix, err := build(t, store, text, lattice.DefaultOptions()).NBest(n)
			if err != nil {
				t.Fatalf("NBest(%q, %d): %v", text, n, err)
			}
			if len(prefix) != min(n, len(full)) {
				t.Fatalf("%q: NBest(%d) returned %d paths", text, n, len(prefix))
			}
			for i := range prefix {
				if pathKey(prefix[i]) != pathKey(full[i]) {
					t.Errorf("%q: NBest(%d)[%d] = %v; NBest(%d)[%d] = %v",
						text, n, i, prefix[i].Nodes, maxN, i, full[i].Nodes)
				}
			}
		}
	}
}

func TestNBest_FewerPathsThanRequested(t *testing.T) {
	l := build(t, testutil.SampleStore(t), "に", lattice.DefaultOptions())

	paths, err := l.NBest(5)
	if err != nil {
		t.Fatalf("NBest: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("len(paths) = %d; want 1", len(paths))
	}
}

func TestNBest_EmptyTextSinglePath(t *testing.T) {
	l := build(t, testutil.SampleStore(t), "", lattice.DefaultOptions())

	paths, err := l.NBest(3)
	if err != nil {
		t.Fatalf("NBest: %v", err)
	}
	if len(paths) != 1 || len(paths[0].Nodes) != 2 || paths[0].Cost != 0 {
		t.Errorf("paths = %+v; want a single BOS->EOS path of cost 0", paths)
	}
}

func TestNBest_NonPositiveN(t *testing.T) {
	l := build(t, testutil.SampleStore(t), "に", lattice.DefaultOptions())

	paths, err := l.NBest(0)
	if err != nil || len(paths) != 0 {
		t.Errorf("NBest(0) = (%v, %v); want no paths and no error", paths, err)
	}
}

func pathKey(p lattice.Path) string {
	b := make([]byte, 0, len(p.Nodes)*3)
	for _, n := range p.Nodes {
		b = append(b, byte(n), byte(n>>8), ',')
	}
	return string(b)
}
