// Package engine drives the daemon: it polls the foreground window for
// layout and fullscreen state, keeps the border and tray in sync, and
// dispatches hotkey presses and tray commands from a single loop.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hior/keyborder/internal/border"
	"github.com/hior/keyborder/internal/geometry"
	"github.com/hior/keyborder/internal/layouts"
	"github.com/hior/keyborder/internal/metrics"
)

// Foreground is one tick's snapshot of the foreground window: the active
// keyboard layout, the window rect and the full bounds of the monitor
// hosting it.
type Foreground struct {
	Window  uintptr
	Layout  layouts.ID
	Rect    geometry.Rect
	Monitor geometry.Rect
}

// DataSource supplies foreground snapshots.
type DataSource interface {
	Snapshot() (Foreground, error)
}

// StatusSink receives layout identity updates for the tray.
type StatusSink interface {
	SetStatus(entry layouts.Entry, known bool)
}

// Converter runs one text conversion session.
type Converter interface {
	Run(ctx context.Context) error
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	*time.Ticker
}

func (t realTicker) C() <-chan time.Time {
	return t.Ticker.C
}

// CommandKind enumerates inbound control events.
type CommandKind int

const (
	// ToggleBorders flips the manual border visibility flag.
	ToggleBorders CommandKind = iota
	// ApplyReload swaps in reloaded configuration state.
	ApplyReload
)

// Command is an inbound control event consumed by the dispatch loop.
type Command struct {
	Kind   CommandKind
	Reload *Reload
}

// Reload carries the reloadable part of the configuration.
type Reload struct {
	Table       *layouts.Table
	HideUnknown bool
	// SwapConverter installs Converter, which may be nil to disable
	// conversion. When false the current converter is kept.
	SwapConverter bool
	Converter     Converter
}

// Engine ties the data source, border renderer, tray and converter
// together. All side effects flow through the Run loop.
type Engine struct {
	source   DataSource
	renderer *border.Renderer
	tray     StatusSink
	log      *zap.SugaredLogger
	metrics  *metrics.Collector

	hotkeys      <-chan struct{}
	commands     chan Command
	pollInterval time.Duration

	mu            sync.Mutex
	table         *layouts.Table
	hideUnknown   bool
	conv          Converter
	manualVisible bool
	fullscreen    bool
	current       layouts.ID
	hasCurrent    bool
	currentKnown  bool

	tickerFactory func() ticker
}

// Options wires an engine. Tray, Converter and Hotkeys may be nil; the
// corresponding features simply stay inert.
type Options struct {
	Source       DataSource
	Renderer     *border.Renderer
	Tray         StatusSink
	Converter    Converter
	Hotkeys      <-chan struct{}
	Table        *layouts.Table
	HideUnknown  bool
	PollInterval time.Duration
	Logger       *zap.SugaredLogger
	Metrics      *metrics.Collector
}

// New creates an engine. Borders start manually enabled.
func New(opts Options) *Engine {
	e := &Engine{
		source:        opts.Source,
		renderer:      opts.Renderer,
		tray:          opts.Tray,
		log:           opts.Logger,
		metrics:       opts.Metrics,
		hotkeys:       opts.Hotkeys,
		commands:      make(chan Command, 8),
		pollInterval:  opts.PollInterval,
		table:         opts.Table,
		hideUnknown:   opts.HideUnknown,
		conv:          opts.Converter,
		manualVisible: true,
	}
	e.tickerFactory = func() ticker {
		return realTicker{time.NewTicker(e.pollInterval)}
	}
	return e
}

// Enqueue hands a command to the dispatch loop without blocking. Commands
// are dropped with a warning if the loop has fallen far behind.
func (e *Engine) Enqueue(cmd Command) {
	select {
	case e.commands <- cmd:
	default:
		e.log.Warnf("command queue full, dropping %v", cmd.Kind)
	}
}

// CurrentLayout returns the last observed layout id.
func (e *Engine) CurrentLayout() (layouts.ID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.hasCurrent
}

// BordersEnabled reports the manual visibility flag.
func (e *Engine) BordersEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manualVisible
}

// Run starts the dispatch loop until context cancellation. The first
// poll happens immediately so the border does not wait a full tick to
// appear.
func (e *Engine) Run(ctx context.Context) error {
	e.Poll(ctx)
	tick := e.newTicker()
	defer tick.Stop()

	hotkeys := e.hotkeys
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C():
			e.Poll(ctx)
		case _, ok := <-hotkeys:
			if !ok {
				hotkeys = nil
				continue
			}
			e.convert(ctx)
		case cmd := <-e.commands:
			e.handleCommand(ctx, cmd)
		}
	}
}

func (e *Engine) newTicker() ticker {
	if e.tickerFactory != nil {
		return e.tickerFactory()
	}
	return realTicker{time.NewTicker(e.pollInterval)}
}

// Poll refreshes the border and tray from a fresh foreground snapshot.
// On a failed snapshot the previous state is kept and the tick skipped.
func (e *Engine) Poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	snap, err := e.source.Snapshot()
	if err != nil {
		e.metrics.RecordPollError()
		e.log.Debugf("foreground poll failed, keeping last state: %v", err)
		return
	}
	e.apply(snap)
}

func (e *Engine) apply(snap Foreground) {
	e.mu.Lock()
	table := e.table
	hideUnknown := e.hideUnknown
	manual := e.manualVisible
	prev, hadPrev := e.current, e.hasCurrent
	e.mu.Unlock()

	entry, known := table.Resolve(snap.Layout)
	if !hadPrev || prev != snap.Layout {
		e.mu.Lock()
		e.current = snap.Layout
		e.hasCurrent = true
		e.currentKnown = known
		e.mu.Unlock()
		if hadPrev {
			e.metrics.RecordLayoutChange()
		}
		if known {
			e.log.Infof("layout %v (%s)", snap.Layout, entry.Label)
		} else {
			e.log.Warnf("layout %v not configured, using fallback", snap.Layout)
		}
		e.renderer.ApplyColor(entry.Color)
		if e.tray != nil {
			e.tray.SetStatus(entry, known)
		}
	}

	fullscreen := geometry.Covers(snap.Rect, snap.Monitor)
	e.mu.Lock()
	if fullscreen != e.fullscreen {
		if fullscreen {
			e.metrics.RecordFullscreenHide()
			e.log.Infof("fullscreen window, hiding border")
		} else {
			e.log.Infof("fullscreen cleared")
		}
	}
	e.fullscreen = fullscreen
	e.mu.Unlock()

	e.renderer.SetVisible(manual && !fullscreen && (known || !hideUnknown))
}

func (e *Engine) convert(ctx context.Context) {
	e.mu.Lock()
	conv := e.conv
	e.mu.Unlock()
	if conv == nil {
		e.log.Debugf("conversion disabled, ignoring hotkey")
		return
	}
	// The session runs inline: polling pauses and further hotkey
	// presses are dropped until it finishes.
	if err := conv.Run(ctx); err != nil {
		e.log.Debugf("conversion session ended: %v", err)
	}
}

func (e *Engine) handleCommand(ctx context.Context, cmd Command) {
	switch cmd.Kind {
	case ToggleBorders:
		e.mu.Lock()
		e.manualVisible = !e.manualVisible
		manual := e.manualVisible
		fullscreen := e.fullscreen
		known := e.currentKnown
		hideUnknown := e.hideUnknown
		e.mu.Unlock()
		e.log.Infof("borders %s by request", onOff(manual))
		e.renderer.SetVisible(manual && !fullscreen && (known || !hideUnknown))
	case ApplyReload:
		if cmd.Reload == nil {
			return
		}
		e.mu.Lock()
		e.table = cmd.Reload.Table
		e.hideUnknown = cmd.Reload.HideUnknown
		if cmd.Reload.SwapConverter {
			e.conv = cmd.Reload.Converter
		}
		// Forget the current layout so the next poll repaints under the
		// new table.
		e.hasCurrent = false
		e.mu.Unlock()
		e.log.Infof("configuration applied")
		e.Poll(ctx)
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
