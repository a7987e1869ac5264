package hotkey

import "testing"

func TestParseKeyName(t *testing.T) {
	cases := []struct {
		name string
		want uint16
	}{
		{"pause", 0x13},
		{"break", 0x13},
		{"Pause", 0x13},
		{" f12 ", 0x7B},
		{"scrolllock", 0x91},
	}
	for _, tc := range cases {
		vk, err := ParseKeyName(tc.name)
		if err != nil {
			t.Fatalf("ParseKeyName(%q): %v", tc.name, err)
		}
		if vk != tc.want {
			t.Fatalf("ParseKeyName(%q) = 0x%02X, want 0x%02X", tc.name, vk, tc.want)
		}
	}
}

func TestParseKeyNameRejectsUnknown(t *testing.T) {
	for _, name := range []string{"", "q", "ctrl", "f25"} {
		if _, err := ParseKeyName(name); err == nil {
			t.Fatalf("expected error for %q", name)
		}
	}
}
