// Package convert rewrites text typed in the wrong keyboard layout. A
// positional character map pairs the two configured scripts; a session
// captures the foreground text, detects its script, rewrites it in place
// and switches the keyboard layout to match the result.
package convert

import (
	"fmt"
	"strings"
	"unicode"
)

// Script identifies which of the two configured scripts a piece of text
// is written in.
type Script int

const (
	ScriptNone Script = iota
	ScriptPrimary
	ScriptSecondary
)

func (s Script) String() string {
	switch s {
	case ScriptPrimary:
		return "primary"
	case ScriptSecondary:
		return "secondary"
	default:
		return "none"
	}
}

// Charmap is a positional bijection between two equal-length character
// sequences. Characters outside both sequences pass through conversion
// untouched.
type Charmap struct {
	toSecondary map[rune]rune
	toPrimary   map[rune]rune
}

// NewCharmap pairs the characters of the two sequences by position. Both
// sequences must have the same rune count and no internal repeats, so
// conversion round-trips.
func NewCharmap(primary, secondary string) (*Charmap, error) {
	p := []rune(primary)
	s := []rune(secondary)
	if len(p) == 0 {
		return nil, fmt.Errorf("empty character sequence")
	}
	if len(p) != len(s) {
		return nil, fmt.Errorf("sequence lengths differ: %d vs %d", len(p), len(s))
	}
	m := &Charmap{
		toSecondary: make(map[rune]rune, len(p)),
		toPrimary:   make(map[rune]rune, len(s)),
	}
	for i := range p {
		if _, dup := m.toSecondary[p[i]]; dup {
			return nil, fmt.Errorf("primary sequence repeats %q", p[i])
		}
		if _, dup := m.toPrimary[s[i]]; dup {
			return nil, fmt.Errorf("secondary sequence repeats %q", s[i])
		}
		m.toSecondary[p[i]] = s[i]
		m.toPrimary[s[i]] = p[i]
	}
	return m, nil
}

// Detect reports which script dominates text. Whitespace is ignored and
// runes present in both sequences vote for both sides. A tie, including
// text with no recognizable characters at all, yields ScriptNone.
func (m *Charmap) Detect(text string) Script {
	var primary, secondary int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		if _, ok := m.toSecondary[r]; ok {
			primary++
		}
		if _, ok := m.toPrimary[r]; ok {
			secondary++
		}
	}
	switch {
	case primary > secondary:
		return ScriptPrimary
	case secondary > primary:
		return ScriptSecondary
	default:
		return ScriptNone
	}
}

// Convert rewrites text written in the from script into the opposite one.
func (m *Charmap) Convert(text string, from Script) string {
	table := m.toSecondary
	if from == ScriptSecondary {
		table = m.toPrimary
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if mapped, ok := table[r]; ok {
			b.WriteRune(mapped)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
