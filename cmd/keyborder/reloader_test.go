package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hior/keyborder/internal/border"
	"github.com/hior/keyborder/internal/config"
	"github.com/hior/keyborder/internal/engine"
	"github.com/hior/keyborder/internal/geometry"
	"github.com/hior/keyborder/internal/layouts"
	"github.com/hior/keyborder/internal/metrics"
)

const baseConfig = `pollIntervalMs: 20
border:
  thickness: 2
  outerOpacity: 0.5
  innerOpacity: 0.1
colors:
  layouts:
    0x04090409: { color: "#00ced1", label: US }
  fallback: { color: "#7f8c8d", label: "??" }
conversion:
  enabled: false
`

type recordSurface struct {
	mu    sync.Mutex
	tints []layouts.Color
}

func (s *recordSurface) Realize([]geometry.LayerSpec) error { return nil }

func (s *recordSurface) Tint(c layouts.Color) {
	s.mu.Lock()
	s.tints = append(s.tints, c)
	s.mu.Unlock()
}

func (s *recordSurface) SetShown(bool) {}
func (s *recordSurface) Close()        {}

func (s *recordSurface) lastTint() (layouts.Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tints) == 0 {
		return layouts.Color{}, false
	}
	return s.tints[len(s.tints)-1], true
}

type staticSource struct{ layout layouts.ID }

func (s staticSource) Snapshot() (engine.Foreground, error) {
	return engine.Foreground{
		Window:  0x2000,
		Layout:  s.layout,
		Rect:    geometry.Rect{X: 40, Y: 40, Width: 640, Height: 480},
		Monitor: geometry.Rect{Width: 1920, Height: 1080},
	}, nil
}

type nullSink struct{}

func (nullSink) SetStatus(layouts.Entry, bool) {}

type reloadHarness struct {
	path         string
	cfg          *config.Config
	surface      *recordSurface
	reloader     *configReloader
	factoryCalls int
}

func newReloadHarness(t *testing.T) *reloadHarness {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, baseConfig)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	log := zap.NewNop().Sugar()
	surface := &recordSurface{}
	renderer := border.NewRenderer(surface, log)
	eng := engine.New(engine.Options{
		Source:       staticSource{layout: 0x04090409},
		Renderer:     renderer,
		Tray:         nullSink{},
		Table:        cfg.Colors.Table(),
		HideUnknown:  cfg.Border.HideUnknown,
		PollInterval: 10 * time.Millisecond,
		Logger:       log,
		Metrics:      metrics.NewCollector(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = eng.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	h := &reloadHarness{path: path, cfg: cfg, surface: surface}
	h.reloader = newConfigReloader(path, log, eng, func(*config.Config) (engine.Converter, error) {
		h.factoryCalls++
		return nil, nil
	}, false, cfg)
	return h
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestReloadAppliesColorChange(t *testing.T) {
	h := newReloadHarness(t)

	teal := layouts.Color{G: 0xCE, B: 0xD1}
	waitFor(t, "initial paint", func() bool {
		c, ok := h.surface.lastTint()
		return ok && c == teal
	})

	writeConfig(t, h.path, strings.Replace(baseConfig, "#00ced1", "#ff8800", 1))
	if err := h.reloader.Reload("test edit"); err != nil {
		t.Fatalf("reload: %v", err)
	}

	orange := layouts.Color{R: 0xFF, G: 0x88}
	waitFor(t, "repaint under the new color", func() bool {
		c, ok := h.surface.lastTint()
		return ok && c == orange
	})
	if h.factoryCalls != 0 {
		t.Fatalf("color-only reload must not rebuild the converter, factory ran %d times", h.factoryCalls)
	}
}

func TestReloadRejectsInvalidFileAndKeepsConfig(t *testing.T) {
	h := newReloadHarness(t)

	teal := layouts.Color{G: 0xCE, B: 0xD1}
	waitFor(t, "initial paint", func() bool {
		c, ok := h.surface.lastTint()
		return ok && c == teal
	})

	writeConfig(t, h.path, strings.Replace(baseConfig, "thickness: 2", "thickness: 99", 1))
	if err := h.reloader.Reload("bad edit"); err == nil {
		t.Fatalf("expected reload error for an invalid config")
	}
	if h.reloader.last != h.cfg {
		t.Fatalf("failed reload must keep the previous config")
	}
	if h.factoryCalls != 0 {
		t.Fatalf("failed reload must not rebuild the converter")
	}
	if c, ok := h.surface.lastTint(); !ok || c != teal {
		t.Fatalf("failed reload must keep the previous color, got %v", c)
	}
}

func TestReloadRebuildsConverterOnConversionChange(t *testing.T) {
	h := newReloadHarness(t)

	writeConfig(t, h.path, baseConfig+"  timings:\n    settleMs: 90\n")
	if err := h.reloader.Reload("conversion edit"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if h.factoryCalls != 1 {
		t.Fatalf("conversion change must rebuild the converter once, factory ran %d times", h.factoryCalls)
	}
	if h.reloader.last.Conversion.Timings.SettleMs != 90 {
		t.Fatalf("reloader should track the new config, got settleMs=%d", h.reloader.last.Conversion.Timings.SettleMs)
	}
}

func TestReloadGeometryChangeSkipsEngine(t *testing.T) {
	h := newReloadHarness(t)

	writeConfig(t, h.path, strings.Replace(baseConfig, "thickness: 2", "thickness: 4", 1))
	if err := h.reloader.Reload("geometry edit"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if h.factoryCalls != 0 {
		t.Fatalf("geometry change must not rebuild the converter")
	}
	if h.reloader.last.Border.Thickness != 4 {
		t.Fatalf("reloader should track the new baseline, got thickness=%d", h.reloader.last.Border.Thickness)
	}
}
