package layouts

import "testing"

func testTable() *Table {
	return NewTable(
		map[ID]Entry{
			0xF0010409: {Color: Color{R: 0x8B, B: 0x8B}, Label: "US-Intl"},
			0x04090409: {Color: Color{G: 0xCE, B: 0xD1}, Label: "US"},
		},
		map[uint16]Entry{
			0x0409: {Color: Color{R: 0x34, G: 0x98, B: 0xdb}, Label: "EN"},
			0x0419: {Color: Color{R: 0xDC, G: 0x14, B: 0x3C}, Label: "RU"},
		},
		Entry{Color: Color{R: 0x7f, G: 0x8c, B: 0x8d}, Label: "??"},
	)
}

func TestResolveExactBeatsLanguage(t *testing.T) {
	e, known := testTable().Resolve(0xF0010409)
	if !known {
		t.Fatalf("expected exact id to be known")
	}
	if e.Label != "US-Intl" {
		t.Fatalf("expected exact entry US-Intl, got %q", e.Label)
	}
}

func TestResolveFallsBackToLanguage(t *testing.T) {
	// Dvorak shares the English language word without an exact entry.
	e, known := testTable().Resolve(0xF0020409)
	if !known {
		t.Fatalf("expected language fallback to count as known")
	}
	if e.Label != "EN" {
		t.Fatalf("expected language entry EN, got %q", e.Label)
	}
}

func TestResolveUnknownYieldsFallback(t *testing.T) {
	e, known := testTable().Resolve(0x04070407)
	if known {
		t.Fatalf("expected unknown layout to be flagged")
	}
	if e.Label != "??" {
		t.Fatalf("expected fallback entry, got %q", e.Label)
	}
}

func TestLanguageWord(t *testing.T) {
	if got := ID(0xF0010409).Language(); got != 0x0409 {
		t.Fatalf("expected language 0x0409, got 0x%04X", got)
	}
}

func TestParseID(t *testing.T) {
	for _, s := range []string{"0x04190419", "04190419", "0X04190419"} {
		id, err := ParseID(s)
		if err != nil {
			t.Fatalf("ParseID(%q): %v", s, err)
		}
		if id != 0x04190419 {
			t.Fatalf("ParseID(%q) = %v", s, id)
		}
	}
	if _, err := ParseID("nope"); err == nil {
		t.Fatalf("expected error for malformed id")
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#8B008B")
	if err != nil {
		t.Fatalf("ParseColor: %v", err)
	}
	if (c != Color{R: 0x8B, G: 0, B: 0x8B}) {
		t.Fatalf("unexpected color %+v", c)
	}
	if c.Hex() != "#8b008b" {
		t.Fatalf("unexpected hex %q", c.Hex())
	}
	if _, err := ParseColor("8b008b"); err != nil {
		t.Fatalf("expected bare hex to parse, got %v", err)
	}
	for _, bad := range []string{"#8b008", "#8b008bb", "#zz0000", ""} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
