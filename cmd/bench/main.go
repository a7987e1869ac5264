// Command bench replays a stream of foreground snapshots through the
// poll engine and reports per-tick latency, surface operations and
// allocation statistics. Drawing is stubbed out, so it runs on any
// platform and measures only the resolve and repaint logic.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hior/keyborder/internal/border"
	"github.com/hior/keyborder/internal/config"
	"github.com/hior/keyborder/internal/engine"
	"github.com/hior/keyborder/internal/geometry"
	"github.com/hior/keyborder/internal/layouts"
	"github.com/hior/keyborder/internal/metrics"
)

type benchFixture struct {
	Name     string
	Monitors []geometry.Monitor
	Ticks    []benchTick
}

type benchTick struct {
	Layout  layouts.ID
	Window  geometry.Rect
	Monitor int
	Delay   time.Duration
}

type benchLatencyStats struct {
	Min    float64 `json:"minMs"`
	Mean   float64 `json:"meanMs"`
	Median float64 `json:"medianMs"`
	P95    float64 `json:"p95Ms"`
	Max    float64 `json:"maxMs"`
}

type benchAllocationStats struct {
	Total            uint64  `json:"totalAllocations"`
	PerTick          float64 `json:"allocationsPerTick"`
	BytesTotal       uint64  `json:"bytesTotal"`
	BytesPerTick     float64 `json:"bytesPerTick"`
	MiBTotal         float64 `json:"miBTotal"`
	HeapAllocDelta   int64   `json:"heapAllocDeltaBytes"`
	HeapObjectsDelta int64   `json:"heapObjectsDelta"`
}

type benchSurfaceStats struct {
	Total        int     `json:"total"`
	PerIteration float64 `json:"perIteration"`
	PerTick      float64 `json:"perTick"`
}

type benchSummary struct {
	Fixture           string               `json:"fixture"`
	Iterations        int                  `json:"iterations"`
	WarmupIterations  int                  `json:"warmupIterations"`
	TicksPerIteration int                  `json:"ticksPerIteration"`
	TotalTicks        int                  `json:"totalTicks"`
	Layers            int                  `json:"layers"`
	SurfaceOps        benchSurfaceStats    `json:"surfaceOps"`
	Latency           benchLatencyStats    `json:"latency"`
	IterationDuration benchLatencyStats    `json:"iterationDuration"`
	Allocations       benchAllocationStats `json:"allocations"`
	TotalDurationMs   float64              `json:"totalDurationMs"`
	TicksPerSecond    float64              `json:"ticksPerSecond"`
}

type benchReport struct {
	Summary     benchSummary     `json:"summary"`
	DurationsMs []float64        `json:"durationsMs"`
	Iterations  []benchIteration `json:"iterations,omitempty"`
}

type benchIteration struct {
	Index      int     `json:"index"`
	DurationMs float64 `json:"durationMs"`
	SurfaceOps int     `json:"surfaceOps"`
	Ticks      int     `json:"ticks"`
}

type benchTickTrace struct {
	Iteration  int     `json:"iteration"`
	Tick       int     `json:"tick"`
	Layout     string  `json:"layout"`
	DurationMs float64 `json:"durationMs"`
	SurfaceOps int     `json:"surfaceOps"`
}

// benchSurface counts tint and visibility calls instead of drawing.
// The renderer suppresses no-op updates, so the count reflects actual
// visual churn.
type benchSurface struct {
	mu     sync.Mutex
	layers int
	ops    int
}

func (s *benchSurface) Realize(layers []geometry.LayerSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = len(layers)
	return nil
}

func (s *benchSurface) Tint(layouts.Color) {
	s.mu.Lock()
	s.ops++
	s.mu.Unlock()
}

func (s *benchSurface) SetShown(bool) {
	s.mu.Lock()
	s.ops++
	s.mu.Unlock()
}

func (s *benchSurface) Close() {}

func (s *benchSurface) Ops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ops
}

// benchSource hands the engine whatever snapshot the replay loop last
// staged.
type benchSource struct {
	mu   sync.Mutex
	snap engine.Foreground
}

func (s *benchSource) set(f engine.Foreground) {
	s.mu.Lock()
	s.snap = f
	s.mu.Unlock()
}

func (s *benchSource) Snapshot() (engine.Foreground, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (built-in defaults when empty)")
	fixturePath := flag.String("fixture", "", "path to replay fixture (JSON, built-in stream when empty)")
	iterations := flag.Int("iterations", 10, "number of times to replay the fixture")
	warmup := flag.Int("warmup", 0, "number of warm-up iterations to run before timing")
	cpuProfile := flag.String("cpu-profile", "", "write CPU profile to file")
	memProfile := flag.String("mem-profile", "", "write heap profile to file")
	logLevel := flag.String("log-level", "warn", "log level (debug|info|warn|error)")
	respectDelays := flag.Bool("respect-delays", false, "sleep for tick delays declared in the fixture")
	outputPath := flag.String("output", "-", "write JSON report to file ('-' for stdout)")
	humanSummary := flag.Bool("human", false, "print a tabular summary alongside the JSON output")
	tickTracePath := flag.String("tick-trace", "", "write per-tick timings to file (JSON array, '-' for stdout)")
	flag.Parse()

	if *iterations <= 0 {
		fmt.Fprintln(os.Stderr, "iterations must be positive")
		os.Exit(1)
	}
	if *warmup < 0 {
		fmt.Fprintln(os.Stderr, "warmup must be zero or positive")
		os.Exit(1)
	}

	logger, err := newLogger(*logLevel)
	if err != nil {
		exitErr(err)
	}
	defer logger.Sync()

	cfg := config.Default()
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			exitErr(fmt.Errorf("load config: %w", err))
		}
	}

	fixture := defaultFixture()
	if *fixturePath != "" {
		fixture, err = loadFixture(*fixturePath)
		if err != nil {
			exitErr(fmt.Errorf("load fixture: %w", err))
		}
	}
	if len(fixture.Ticks) == 0 {
		exitErr(errors.New("fixture contains no ticks"))
	}

	traceEnabled := strings.TrimSpace(*tickTracePath) != ""

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			exitErr(fmt.Errorf("create cpu profile: %w", err))
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			exitErr(fmt.Errorf("start cpu profile: %w", err))
		}
		defer pprof.StopCPUProfile()
	}

	ctx := context.Background()

	for i := 0; i < *warmup; i++ {
		if _, _, _, _, err := replayIteration(ctx, fixture, cfg, logger, *respectDelays, i+1, false, false); err != nil {
			exitErr(fmt.Errorf("warmup iteration %d: %w", i+1, err))
		}
	}

	runtime.GC()
	var startMem runtime.MemStats
	runtime.ReadMemStats(&startMem)

	ticksPerIteration := len(fixture.Ticks)
	durations := make([]time.Duration, 0, ticksPerIteration*(*iterations))
	iterationDurations := make([]time.Duration, 0, *iterations)
	iterationOps := make([]int, 0, *iterations)
	totalOps := 0
	var tickTraces []benchTickTrace
	if traceEnabled {
		tickTraces = make([]benchTickTrace, 0, ticksPerIteration*(*iterations))
	}

	for i := 0; i < *iterations; i++ {
		iterationDuration, ops, tickDurations, traces, err := replayIteration(ctx, fixture, cfg, logger, *respectDelays, i+1, true, traceEnabled)
		if err != nil {
			exitErr(fmt.Errorf("iteration %d: %w", i+1, err))
		}
		iterationDurations = append(iterationDurations, iterationDuration)
		iterationOps = append(iterationOps, ops)
		totalOps += ops
		durations = append(durations, tickDurations...)
		if traceEnabled {
			tickTraces = append(tickTraces, traces...)
		}
	}

	runtime.GC()
	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			exitErr(fmt.Errorf("create mem profile: %w", err))
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			exitErr(fmt.Errorf("write heap profile: %w", err))
		}
	}

	layers := len(geometry.BuildLayers(fixture.Monitors, cfg.Border.Thickness, cfg.Border.OuterOpacity, cfg.Border.InnerOpacity))
	report := buildReport(fixture, *iterations, *warmup, layers, durations, iterationDurations, iterationOps, totalOps, startMem, endMem)
	if err := writeReport(report, *outputPath); err != nil {
		exitErr(fmt.Errorf("encode report: %w", err))
	}
	if err := writeTickTrace(tickTraces, *tickTracePath); err != nil {
		exitErr(fmt.Errorf("write tick trace: %w", err))
	}
	if *humanSummary {
		if err := printHumanSummary(report.Summary, os.Stdout); err != nil {
			exitErr(fmt.Errorf("print human summary: %w", err))
		}
	}
}

func replayIteration(ctx context.Context, fixture benchFixture, cfg *config.Config, logger *zap.SugaredLogger, respectDelays bool, iteration int, capture, trace bool) (time.Duration, int, []time.Duration, []benchTickTrace, error) {
	iterationStart := time.Now()
	surface := &benchSurface{}
	renderer := border.NewRenderer(surface, logger)
	if err := renderer.Rebuild(fixture.Monitors, cfg.Border.Thickness, cfg.Border.OuterOpacity, cfg.Border.InnerOpacity); err != nil {
		return 0, 0, nil, nil, err
	}
	src := &benchSource{}
	eng := engine.New(engine.Options{
		Source:       src,
		Renderer:     renderer,
		Table:        cfg.Colors.Table(),
		HideUnknown:  cfg.Border.HideUnknown,
		PollInterval: cfg.PollInterval(),
		Logger:       logger,
		Metrics:      metrics.NewCollector(),
	})

	var tickDurations []time.Duration
	if capture {
		tickDurations = make([]time.Duration, 0, len(fixture.Ticks))
	}
	var traces []benchTickTrace
	if capture && trace {
		traces = make([]benchTickTrace, 0, len(fixture.Ticks))
	}

	for idx, tick := range fixture.Ticks {
		if tick.Monitor < 0 || tick.Monitor >= len(fixture.Monitors) {
			return 0, 0, nil, nil, fmt.Errorf("tick %d: monitor %d out of range", idx+1, tick.Monitor)
		}
		if respectDelays && tick.Delay > 0 {
			time.Sleep(tick.Delay)
		}
		src.set(engine.Foreground{
			Window:  0x1,
			Layout:  tick.Layout,
			Rect:    tick.Window,
			Monitor: fixture.Monitors[tick.Monitor].Bounds,
		})
		beforeOps := surface.Ops()
		start := time.Now()
		eng.Poll(ctx)
		elapsed := time.Since(start)
		if capture {
			tickDurations = append(tickDurations, elapsed)
			if trace {
				traces = append(traces, benchTickTrace{
					Iteration:  iteration,
					Tick:       idx + 1,
					Layout:     tick.Layout.String(),
					DurationMs: toMillis(elapsed),
					SurfaceOps: surface.Ops() - beforeOps,
				})
			}
		}
	}

	return time.Since(iterationStart), surface.Ops(), tickDurations, traces, nil
}

func buildReport(fixture benchFixture, iterations, warmup, layers int, durations, iterationDurations []time.Duration, iterationOps []int, totalOps int, start, end runtime.MemStats) benchReport {
	totalTicks := len(fixture.Ticks) * iterations
	latencyStats, totalTickDuration := buildLatencyStats(durations)
	iterationStats, _ := buildLatencyStats(iterationDurations)

	allocs := end.Mallocs - start.Mallocs
	bytesAllocated := end.TotalAlloc - start.TotalAlloc

	durationsMs := make([]float64, len(durations))
	for i, d := range durations {
		durationsMs[i] = toMillis(d)
	}

	iterationsData := make([]benchIteration, 0, len(iterationDurations))
	for i, d := range iterationDurations {
		ops := 0
		if i < len(iterationOps) {
			ops = iterationOps[i]
		}
		iterationsData = append(iterationsData, benchIteration{
			Index:      i + 1,
			DurationMs: toMillis(d),
			SurfaceOps: ops,
			Ticks:      len(fixture.Ticks),
		})
	}

	summary := benchSummary{
		Fixture:           fixture.Name,
		Iterations:        iterations,
		WarmupIterations:  warmup,
		TicksPerIteration: len(fixture.Ticks),
		TotalTicks:        totalTicks,
		Layers:            layers,
		SurfaceOps: benchSurfaceStats{
			Total:        totalOps,
			PerIteration: safeDivide(totalOps, iterations),
			PerTick:      safeDivide(totalOps, totalTicks),
		},
		Latency:           latencyStats,
		IterationDuration: iterationStats,
		Allocations: benchAllocationStats{
			Total:            allocs,
			PerTick:          safeDivide(int(allocs), totalTicks),
			BytesTotal:       bytesAllocated,
			BytesPerTick:     safeDivide(int(bytesAllocated), totalTicks),
			MiBTotal:         float64(bytesAllocated) / (1024 * 1024),
			HeapAllocDelta:   int64(end.HeapAlloc) - int64(start.HeapAlloc),
			HeapObjectsDelta: int64(end.HeapObjects) - int64(start.HeapObjects),
		},
		TotalDurationMs: toMillis(totalTickDuration),
		TicksPerSecond:  ticksPerSecond(totalTickDuration, totalTicks),
	}

	return benchReport{Summary: summary, DurationsMs: durationsMs, Iterations: iterationsData}
}

func buildLatencyStats(durations []time.Duration) (benchLatencyStats, time.Duration) {
	stats := benchLatencyStats{}
	if len(durations) == 0 {
		return stats, 0
	}
	total := time.Duration(0)
	for _, d := range durations {
		total += d
	}
	mean := total / time.Duration(len(durations))
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	stats.Min = toMillis(sorted[0])
	stats.Mean = toMillis(mean)
	stats.Median = toMillis(percentile(sorted, 0.50))
	stats.P95 = toMillis(percentile(sorted, 0.95))
	stats.Max = toMillis(sorted[len(sorted)-1])
	return stats, total
}

func safeDivide(total, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func writeReport(report benchReport, outputPath string) error {
	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeTickTrace(traces []benchTickTrace, outputPath string) error {
	if strings.TrimSpace(outputPath) == "" {
		return nil
	}
	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(traces)
}

func openOutput(path string) (io.Writer, func(), error) {
	switch strings.TrimSpace(path) {
	case "", "-":
		return os.Stdout, func() {}, nil
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return out, func() { out.Close() }, nil
}

func printHumanSummary(summary benchSummary, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Fixture:\t%s\n", summary.Fixture); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Iterations:\t%d\n", summary.Iterations); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Warmup iterations:\t%d\n", summary.WarmupIterations); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Ticks/iteration:\t%d\n", summary.TicksPerIteration); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Total ticks:\t%d\n", summary.TotalTicks); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Layer windows:\t%d\n", summary.Layers); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Surface ops:\t%d (%.2f / iter, %.2f / tick)\n", summary.SurfaceOps.Total, summary.SurfaceOps.PerIteration, summary.SurfaceOps.PerTick); err != nil {
		return err
	}
	latency := summary.Latency
	if _, err := fmt.Fprintf(tw, "Tick latency (ms):\tmin %.3f | mean %.3f | median %.3f | p95 %.3f | max %.3f\n", latency.Min, latency.Mean, latency.Median, latency.P95, latency.Max); err != nil {
		return err
	}
	iteration := summary.IterationDuration
	if _, err := fmt.Fprintf(tw, "Iteration duration (ms):\tmin %.3f | mean %.3f | median %.3f | p95 %.3f | max %.3f\n", iteration.Min, iteration.Mean, iteration.Median, iteration.P95, iteration.Max); err != nil {
		return err
	}
	allocs := summary.Allocations
	if _, err := fmt.Fprintf(tw, "Allocations:\t%d total (%.2f / tick)\n", allocs.Total, allocs.PerTick); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Bytes allocated:\t%s (%.2f / tick)\n", formatBytesUnsigned(allocs.BytesTotal), allocs.BytesPerTick); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Heap delta:\t%s change, %d objects\n", formatBytesSigned(allocs.HeapAllocDelta), allocs.HeapObjectsDelta); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Ticks/sec:\t%.0f\n", summary.TicksPerSecond); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func formatBytesUnsigned(bytes uint64) string {
	const miB = 1024 * 1024
	if bytes == 0 {
		return "0 B (0.00 MiB)"
	}
	return fmt.Sprintf("%d B (%.2f MiB)", bytes, float64(bytes)/float64(miB))
}

func formatBytesSigned(delta int64) string {
	if delta == 0 {
		return "0 B (0.00 MiB)"
	}
	sign := ""
	if delta < 0 {
		sign = "-"
		delta = -delta
	}
	return fmt.Sprintf("%s%s", sign, formatBytesUnsigned(uint64(delta)))
}

func ticksPerSecond(total time.Duration, ticks int) float64 {
	if total <= 0 || ticks == 0 {
		return 0
	}
	seconds := total.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(ticks) / seconds
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(p*float64(len(sorted)-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func loadFixture(path string) (benchFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return benchFixture{}, err
	}
	var payload struct {
		Name     string `json:"name"`
		Monitors []struct {
			X       int32 `json:"x"`
			Y       int32 `json:"y"`
			Width   int32 `json:"width"`
			Height  int32 `json:"height"`
			Primary bool  `json:"primary"`
		} `json:"monitors"`
		Ticks []struct {
			Layout     string `json:"layout"`
			Window     *rect  `json:"window"`
			Monitor    int    `json:"monitor"`
			Fullscreen bool   `json:"fullscreen"`
			Delay      string `json:"delay"`
		} `json:"ticks"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return benchFixture{}, err
	}

	fixture := benchFixture{Name: payload.Name}
	if fixture.Name == "" {
		fixture.Name = filepath.Base(path)
	}
	if len(payload.Monitors) == 0 {
		fixture.Monitors = defaultFixture().Monitors
	} else {
		for i, m := range payload.Monitors {
			bounds := geometry.Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
			fixture.Monitors = append(fixture.Monitors, geometry.Monitor{
				Index:    i,
				Device:   fmt.Sprintf(`\\.\BENCH%d`, i+1),
				Bounds:   bounds,
				WorkArea: bounds,
				Primary:  m.Primary || i == 0,
			})
		}
	}
	for i, raw := range payload.Ticks {
		id, err := layouts.ParseID(raw.Layout)
		if err != nil {
			return benchFixture{}, fmt.Errorf("tick %d: %w", i+1, err)
		}
		if raw.Monitor < 0 || raw.Monitor >= len(fixture.Monitors) {
			return benchFixture{}, fmt.Errorf("tick %d: monitor %d out of range", i+1, raw.Monitor)
		}
		bounds := fixture.Monitors[raw.Monitor].Bounds
		window := windowedRect(bounds)
		if raw.Fullscreen {
			window = bounds
		} else if raw.Window != nil {
			window = geometry.Rect{X: raw.Window.X, Y: raw.Window.Y, Width: raw.Window.Width, Height: raw.Window.Height}
		}
		delay := time.Duration(0)
		if raw.Delay != "" {
			delay, err = time.ParseDuration(raw.Delay)
			if err != nil {
				return benchFixture{}, fmt.Errorf("tick %d: parse delay %q: %w", i+1, raw.Delay, err)
			}
		}
		fixture.Ticks = append(fixture.Ticks, benchTick{
			Layout:  id,
			Window:  window,
			Monitor: raw.Monitor,
			Delay:   delay,
		})
	}
	return fixture, nil
}

type rect struct {
	X      int32 `json:"x"`
	Y      int32 `json:"y"`
	Width  int32 `json:"width"`
	Height int32 `json:"height"`
}

// windowedRect is the stand-in rect for ticks that do not specify one: a
// centered window covering a quarter of the monitor.
func windowedRect(bounds geometry.Rect) geometry.Rect {
	return geometry.Rect{
		X:      bounds.X + bounds.Width/4,
		Y:      bounds.Y + bounds.Height/4,
		Width:  bounds.Width / 2,
		Height: bounds.Height / 2,
	}
}

func defaultFixture() benchFixture {
	primary := geometry.Monitor{
		Index:    0,
		Device:   `\\.\BENCH1`,
		Bounds:   geometry.Rect{X: 0, Y: 0, Width: 2560, Height: 1440},
		WorkArea: geometry.Rect{X: 0, Y: 0, Width: 2560, Height: 1392},
		Primary:  true,
	}
	side := geometry.Monitor{
		Index:    1,
		Device:   `\\.\BENCH2`,
		Bounds:   geometry.Rect{X: 2560, Y: 360, Width: 1920, Height: 1080},
		WorkArea: geometry.Rect{X: 2560, Y: 360, Width: 1920, Height: 1032},
	}
	editor := geometry.Rect{X: 200, Y: 140, Width: 1760, Height: 1100}
	sideWindow := geometry.Rect{X: 2700, Y: 500, Width: 1280, Height: 720}

	const (
		us     layouts.ID = 0x04090409
		usIntl layouts.ID = 0xF0010409
		ru     layouts.ID = 0x04190419
		fr     layouts.ID = 0x040C040C
	)

	tick := func(layout layouts.ID, window geometry.Rect, monitor int) benchTick {
		return benchTick{Layout: layout, Window: window, Monitor: monitor}
	}
	return benchFixture{
		Name:     "synthetic-typing",
		Monitors: []geometry.Monitor{primary, side},
		Ticks: []benchTick{
			tick(us, editor, 0),
			tick(us, editor, 0),
			tick(ru, editor, 0),
			tick(ru, editor, 0),
			tick(us, editor, 0),
			// Unconfigured layout, fallback entry path.
			tick(fr, editor, 0),
			tick(us, editor, 0),
			// Fullscreen episode hides and restores the border.
			tick(us, primary.Bounds, 0),
			tick(us, primary.Bounds, 0),
			tick(us, editor, 0),
			tick(ru, sideWindow, 1),
			tick(usIntl, editor, 0),
		},
	}
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func exitErr(err error) {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		fmt.Fprintf(os.Stderr, "error: %v\n", pathErr)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
