// Package border owns the border state: which layers exist, the current
// tint and whether the frame is shown. All real drawing happens behind
// the Surface interface.
package border

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hior/keyborder/internal/geometry"
	"github.com/hior/keyborder/internal/layouts"
)

// Surface realizes border layers on screen. Realize is called once at
// startup; Tint and SetShown may be called from any goroutine and apply
// to every realized layer.
type Surface interface {
	Realize(layers []geometry.LayerSpec) error
	Tint(c layouts.Color)
	SetShown(shown bool)
	Close()
}

// Renderer tracks the desired border appearance and forwards changes to
// the surface. Repeated calls with unchanged state do not touch the
// surface, so callers can drive it from every poll tick.
type Renderer struct {
	surface Surface
	log     *zap.SugaredLogger

	mu       sync.Mutex
	layers   []geometry.LayerSpec
	color    layouts.Color
	hasColor bool
	shown    bool
}

// NewRenderer wires a renderer to its drawing surface. The border starts
// hidden and untinted.
func NewRenderer(surface Surface, log *zap.SugaredLogger) *Renderer {
	return &Renderer{surface: surface, log: log}
}

// Rebuild computes the gradient layers for the monitor set and realizes
// them. The layer count is fixed from here on.
func (r *Renderer) Rebuild(monitors []geometry.Monitor, thickness int, outer, inner float64) error {
	layers := geometry.BuildLayers(monitors, thickness, outer, inner)
	if err := r.surface.Realize(layers); err != nil {
		return fmt.Errorf("realize border: %w", err)
	}
	r.mu.Lock()
	r.layers = layers
	r.mu.Unlock()
	r.log.Infof("border ready: %d layer windows across %d monitors", len(layers), len(monitors))
	return nil
}

// LayerCount returns the number of realized layer windows.
func (r *Renderer) LayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.layers)
}

// ApplyColor tints every layer. Applying the current color again is a
// no-op.
func (r *Renderer) ApplyColor(c layouts.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasColor && r.color == c {
		return
	}
	r.color = c
	r.hasColor = true
	r.surface.Tint(c)
}

// SetVisible shows or hides every layer. Showing re-tints first so the
// frame always reappears in the current color.
func (r *Renderer) SetVisible(shown bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shown == shown {
		return
	}
	r.shown = shown
	if shown && r.hasColor {
		r.surface.Tint(r.color)
	}
	r.surface.SetShown(shown)
}

// Visible reports whether the frame is currently shown.
func (r *Renderer) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shown
}

// Close tears the surface down.
func (r *Renderer) Close() {
	r.surface.Close()
}
