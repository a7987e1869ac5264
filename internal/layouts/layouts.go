package layouts

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is a keyboard layout handle (HKL) as reported by the window manager.
// The low word is the primary language identifier; the high word carries
// the device part, which distinguishes variants such as US-International
// from plain US within the same language.
type ID uint32

// Language returns the language word shared by all variants of a layout.
func (id ID) Language() uint16 { return uint16(id & 0xFFFF) }

func (id ID) String() string { return fmt.Sprintf("0x%08X", uint32(id)) }

// ParseID decodes a layout id written as hex, with or without the 0x
// prefix.
func ParseID(s string) (ID, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	trimmed = strings.TrimPrefix(trimmed, "0X")
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parse layout id %q: %w", s, err)
	}
	return ID(v), nil
}

// Color is an opaque sRGB triple.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// ParseColor decodes a #RRGGBB string. The hash is optional.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("parse color %q: want 6 hex digits", s)
	}
	r, errR := strconv.ParseUint(hex[0:2], 16, 8)
	g, errG := strconv.ParseUint(hex[2:4], 16, 8)
	b, errB := strconv.ParseUint(hex[4:6], 16, 8)
	if errR != nil || errG != nil || errB != nil {
		return Color{}, fmt.Errorf("parse color %q: invalid hex digits", s)
	}
	return Color{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

// Hex formats the color as #rrggbb.
func (c Color) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// Entry is the visual identity of a layout: the border color and the
// short label shown in the tray tooltip.
type Entry struct {
	Color Color
	Label string
}

// Table resolves layout ids to entries. Resolution checks the exact id
// first, then the language word, then falls back to the neutral entry.
type Table struct {
	exact    map[ID]Entry
	language map[uint16]Entry
	fallback Entry
}

// NewTable builds a resolution table. The maps may be nil.
func NewTable(exact map[ID]Entry, language map[uint16]Entry, fallback Entry) *Table {
	t := &Table{
		exact:    make(map[ID]Entry, len(exact)),
		language: make(map[uint16]Entry, len(language)),
		fallback: fallback,
	}
	for id, e := range exact {
		t.exact[id] = e
	}
	for lang, e := range language {
		t.language[lang] = e
	}
	return t
}

// Resolve returns the entry for id and whether the id was recognized.
// Unrecognized ids yield the fallback entry with known=false.
func (t *Table) Resolve(id ID) (entry Entry, known bool) {
	if e, ok := t.exact[id]; ok {
		return e, true
	}
	if e, ok := t.language[id.Language()]; ok {
		return e, true
	}
	return t.fallback, false
}

// Fallback returns the neutral entry used for unrecognized layouts.
func (t *Table) Fallback() Entry { return t.fallback }
