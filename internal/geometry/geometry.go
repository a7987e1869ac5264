package geometry

import "fmt"

// Rect is a rectangle in virtual-screen coordinates. Win32 hands out
// left/top/right/bottom corners; extent form is kept because every layer
// computation works in widths and heights.
type Rect struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// FromCorners converts a left/top/right/bottom quadruple into a Rect.
func FromCorners(left, top, right, bottom int32) Rect {
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

// Right returns the exclusive right coordinate.
func (r Rect) Right() int32 { return r.X + r.Width }

// Bottom returns the exclusive bottom coordinate.
func (r Rect) Bottom() int32 { return r.Y + r.Height }

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Covers reports whether win extends to or beyond every edge of area.
// Equality counts as covering, so a borderless window that matches the
// monitor exactly and an over-scanned one are treated the same.
func Covers(win, area Rect) bool {
	if win.Empty() || area.Empty() {
		return false
	}
	return win.X <= area.X && win.Y <= area.Y &&
		win.Right() >= area.Right() && win.Bottom() >= area.Bottom()
}

// Monitor describes one display as enumerated at startup. Bounds is the
// full monitor rect used for fullscreen comparisons; WorkArea excludes the
// taskbar and is where border layers are placed.
type Monitor struct {
	Index    int
	Device   string
	Bounds   Rect
	WorkArea Rect
	Primary  bool
}

// Edge identifies one side of a monitor work area.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
	EdgeLeft
	EdgeRight
)

var edgeNames = [...]string{"top", "bottom", "left", "right"}

func (e Edge) String() string {
	if e < 0 || int(e) >= len(edgeNames) {
		return fmt.Sprintf("edge(%d)", int(e))
	}
	return edgeNames[e]
}

// Edges lists the four edges in their canonical build order.
var Edges = [...]Edge{EdgeTop, EdgeBottom, EdgeLeft, EdgeRight}

// LayerSpec describes a single one-pixel strip of the border gradient.
// Depth 0 is the outermost strip of its edge.
type LayerSpec struct {
	Monitor int
	Edge    Edge
	Depth   int
	Opacity float64
	Rect    Rect
}

// BuildLayers computes every strip for every monitor: thickness strips per
// edge stepping inward from the work area boundary, opacity interpolated
// linearly from outer at depth 0 to inner at the innermost strip. The
// result order is deterministic: monitors in input order, edges in
// canonical order, depth ascending.
func BuildLayers(monitors []Monitor, thickness int, outer, inner float64) []LayerSpec {
	if thickness < 1 {
		thickness = 1
	}
	layers := make([]LayerSpec, 0, len(monitors)*len(Edges)*thickness)
	for mi, mon := range monitors {
		wa := mon.WorkArea
		for _, edge := range Edges {
			for depth := 0; depth < thickness; depth++ {
				layers = append(layers, LayerSpec{
					Monitor: mi,
					Edge:    edge,
					Depth:   depth,
					Opacity: fade(outer, inner, depth, thickness),
					Rect:    strip(wa, edge, int32(depth)),
				})
			}
		}
	}
	return layers
}

// fade interpolates the strip opacity. A single-strip border keeps the
// outer opacity.
func fade(outer, inner float64, depth, thickness int) float64 {
	if thickness <= 1 {
		return outer
	}
	t := float64(depth) / float64(thickness-1)
	return outer + (inner-outer)*t
}

func strip(wa Rect, edge Edge, depth int32) Rect {
	switch edge {
	case EdgeTop:
		return Rect{X: wa.X, Y: wa.Y + depth, Width: wa.Width, Height: 1}
	case EdgeBottom:
		return Rect{X: wa.X, Y: wa.Bottom() - 1 - depth, Width: wa.Width, Height: 1}
	case EdgeLeft:
		return Rect{X: wa.X + depth, Y: wa.Y, Width: 1, Height: wa.Height}
	default:
		return Rect{X: wa.Right() - 1 - depth, Y: wa.Y, Width: 1, Height: wa.Height}
	}
}
