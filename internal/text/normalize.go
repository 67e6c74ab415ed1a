// Package text prepares raw input before it reaches the analyzer: line-ending
// cleanup, optional Unicode normalization and splitting into analysis units.
package text

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Mode selects the Unicode normalization applied by Normalize.
type Mode string

const (
	// ModeNone leaves characters untouched.
	ModeNone Mode = "none"
	// ModeNFKC folds compatibility variants such as half-width katakana and
	// full-width Latin letters into their canonical forms.
	ModeNFKC Mode = "nfkc"
)

// ParseMode validates a normalization mode name. An empty name means ModeNone.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeNone:
		return ModeNone, nil
	case ModeNFKC:
		return ModeNFKC, nil
	default:
		return "", fmt.Errorf("unsupported normalization %q (expected %s|%s)", raw, ModeNone, ModeNFKC)
	}
}

// Normalize rewrites CRLF and bare CR to LF and applies mode. It never trims:
// token offsets of the result refer to the normalized text.
func Normalize(s string, mode Mode) string {
	if strings.IndexByte(s, '\r') >= 0 {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}

	if mode == ModeNFKC {
		s = norm.NFKC.String(s)
	}

	return s
}
