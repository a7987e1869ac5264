package config

import "github.com/google/go-cmp/cmp"

// Changes classifies what differs between two configurations. Colors and
// Conversion apply to a running process; Geometry covers fields baked into
// the overlay windows at startup, which only a restart can change.
type Changes struct {
	Colors     bool
	Conversion bool
	Geometry   bool
}

// Any reports whether anything changed at all.
func (c Changes) Any() bool { return c.Colors || c.Conversion || c.Geometry }

// Diff compares two configurations section by section.
func Diff(previous, current *Config) Changes {
	var ch Changes
	if !cmp.Equal(previous.Colors, current.Colors) {
		ch.Colors = true
	}
	if previous.Border.HideUnknown != current.Border.HideUnknown {
		ch.Colors = true
	}
	if !cmp.Equal(previous.Conversion, current.Conversion) {
		ch.Conversion = true
	}
	if previous.PollIntervalMs != current.PollIntervalMs ||
		previous.Border.Thickness != current.Border.Thickness ||
		previous.Border.OuterOpacity != current.Border.OuterOpacity ||
		previous.Border.InnerOpacity != current.Border.InnerOpacity {
		ch.Geometry = true
	}
	return ch
}
