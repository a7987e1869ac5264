package config

import "testing"

func TestDiffDetectsColorChanges(t *testing.T) {
	prev := Default()
	curr := Default()
	curr.Colors.Fallback.Label = "?"
	ch := Diff(prev, curr)
	if !ch.Colors || ch.Conversion || ch.Geometry {
		t.Fatalf("expected colors-only change, got %+v", ch)
	}
}

func TestDiffTreatsHideUnknownAsColorChange(t *testing.T) {
	prev := Default()
	curr := Default()
	curr.Border.HideUnknown = false
	ch := Diff(prev, curr)
	if !ch.Colors || ch.Geometry {
		t.Fatalf("expected hideUnknown to classify as color change, got %+v", ch)
	}
}

func TestDiffDetectsGeometryChanges(t *testing.T) {
	prev := Default()
	curr := Default()
	curr.Border.Thickness = 10
	ch := Diff(prev, curr)
	if !ch.Geometry {
		t.Fatalf("expected geometry change, got %+v", ch)
	}
}

func TestDiffDetectsConversionChanges(t *testing.T) {
	prev := Default()
	curr := Default()
	curr.Conversion.Hotkey = "f12"
	ch := Diff(prev, curr)
	if !ch.Conversion {
		t.Fatalf("expected conversion change, got %+v", ch)
	}
}

func TestDiffNothingChanged(t *testing.T) {
	if ch := Diff(Default(), Default()); ch.Any() {
		t.Fatalf("expected no changes, got %+v", ch)
	}
}
