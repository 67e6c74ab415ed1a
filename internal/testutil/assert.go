package testutil

import (
	"strings"
	"testing"
)

// AssertPartition checks that surfaces concatenate to exactly text and that
// no surface is empty.
func AssertPartition(tb testing.TB, text string, surfaces []string) {
	tb.Helper()

	for i, s := range surfaces {
		if s == "" {
			tb.Fatalf("surface %d is empty in %q", i, surfaces)
		}
	}

	if got := strings.Join(surfaces, ""); got != text {
		tb.Fatalf("surfaces do not reconstruct input: got %q, want %q (%q)", got, text, surfaces)
	}
}

// AssertSurfaces checks that got equals want element by element.
func AssertSurfaces(tb testing.TB, got, want []string) {
	tb.Helper()

	if len(got) != len(want) {
		tb.Fatalf("got %d surfaces %q; want %d %q", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			tb.Fatalf("surface %d = %q; want %q (got %q)", i, got[i], want[i], got)
		}
	}
}
