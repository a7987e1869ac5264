// Package hotkey registers the global conversion trigger and exposes its
// keydown events as a channel.
package hotkey

import (
	"fmt"
	"strings"
)

// ParseKeyName converts a configuration key name to a Windows virtual-key
// code. Only keys that work as a bare system-wide trigger are listed;
// letter and digit keys would shadow normal typing.
func ParseKeyName(name string) (uint16, error) {
	vk, ok := keyMap[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown key %q", name)
	}
	return vk, nil
}

var keyMap = map[string]uint16{
	"pause":       0x13,
	"break":       0x13,
	"scrolllock":  0x91,
	"insert":      0x2D,
	"home":        0x24,
	"end":         0x23,
	"pageup":      0x21,
	"pagedown":    0x22,
	"printscreen": 0x2C,
	"numlock":     0x90,
	"menu":        0x5D,
	"f1":          0x70,
	"f2":          0x71,
	"f3":          0x72,
	"f4":          0x73,
	"f5":          0x74,
	"f6":          0x75,
	"f7":          0x76,
	"f8":          0x77,
	"f9":          0x78,
	"f10":         0x79,
	"f11":         0x7A,
	"f12":         0x7B,
	"f13":         0x7C,
	"f14":         0x7D,
	"f15":         0x7E,
	"f16":         0x7F,
	"f17":         0x80,
	"f18":         0x81,
	"f19":         0x82,
	"f20":         0x83,
	"f21":         0x84,
	"f22":         0x85,
	"f23":         0x86,
	"f24":         0x87,
}
