package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hior/keyborder/internal/clipboard"
	"github.com/hior/keyborder/internal/layouts"
	"github.com/hior/keyborder/internal/metrics"
)

// State names the phases of a conversion session.
type State int

const (
	StateIdle State = iota
	StateCapture
	StateDetect
	StateRemap
	StateWriteBack
	StateSwitchLayout
)

var stateNames = [...]string{"idle", "capture", "detect", "remap", "writeback", "switch"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Session abort conditions. Each aborts without a layout switch and, on
// the clipboard paths, with the previous contents restored.
var (
	ErrNothingCaptured = errors.New("nothing captured")
	ErrAmbiguousScript = errors.New("ambiguous script")
	ErrUnchanged       = errors.New("conversion changes nothing")
)

// Automator simulates the input gestures a session needs. Implementations
// live in winapi; tests supply fakes.
type Automator interface {
	ForegroundWindow() (uintptr, error)
	WindowClass(hwnd uintptr) (string, error)
	CopySelection() error
	CopySelectionTerminal() error
	SelectPreviousWord() error
	Paste() error
	PressEnd() error
	Backspace(count int) error
	TypeText(text string) error
	ConsoleLine(hwnd uintptr) (string, error)
	ActivateLayout(hwnd uintptr, layout layouts.ID) error
}

// Settings carries the per-session parameters.
type Settings struct {
	Map             *Charmap
	PrimaryLayout   layouts.ID
	SecondaryLayout layouts.ID
	ConsoleClasses  []string
	TerminalClasses []string
	Settle          time.Duration
	CopyWait        time.Duration
	PasteWait       time.Duration
	Timeout         time.Duration
}

const copyPollInterval = 15 * time.Millisecond

// Engine runs conversion sessions. Callers serialize Run; the engine
// keeps no cross-session state beyond counters.
type Engine struct {
	settings  Settings
	consoles  map[string]struct{}
	terminals map[string]struct{}
	auto      Automator
	dev       clipboard.Device
	log       *zap.SugaredLogger
	metrics   *metrics.Collector

	mu    sync.Mutex
	state State
}

// NewEngine wires a conversion engine.
func NewEngine(settings Settings, auto Automator, dev clipboard.Device, log *zap.SugaredLogger, collector *metrics.Collector) *Engine {
	e := &Engine{
		settings:  settings,
		consoles:  make(map[string]struct{}, len(settings.ConsoleClasses)),
		terminals: make(map[string]struct{}, len(settings.TerminalClasses)),
		auto:      auto,
		dev:       dev,
		log:       log,
		metrics:   collector,
	}
	for _, c := range settings.ConsoleClasses {
		e.consoles[c] = struct{}{}
	}
	for _, c := range settings.TerminalClasses {
		e.terminals[c] = struct{}{}
	}
	return e
}

// State returns the current session phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Run executes one conversion session against the current foreground
// window. The whole session is bounded by the configured timeout and the
// engine is back in the idle state when Run returns, whatever the
// outcome.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.settings.Timeout)
	defer cancel()
	defer e.setState(StateIdle)

	id := uuid.NewString()
	log := e.log.With("session", id)
	started := time.Now()
	if err := e.run(ctx, log); err != nil {
		e.metrics.RecordSession(id, outcomeOf(err), time.Since(started))
		log.Warnf("conversion aborted: %v", err)
		return err
	}
	e.metrics.RecordSession(id, metrics.Converted, time.Since(started))
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrNothingCaptured):
		return "nothing-captured"
	case errors.Is(err, ErrAmbiguousScript):
		return "ambiguous"
	case errors.Is(err, ErrUnchanged):
		return "unchanged"
	case errors.Is(err, clipboard.ErrBusy):
		return "clipboard-busy"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func (e *Engine) run(ctx context.Context, log *zap.SugaredLogger) error {
	hwnd, err := e.auto.ForegroundWindow()
	if err != nil {
		return fmt.Errorf("foreground window: %w", err)
	}
	class, err := e.auto.WindowClass(hwnd)
	if err != nil {
		return fmt.Errorf("window class: %w", err)
	}
	log.Debugf("session start: window class %q", class)
	if _, ok := e.consoles[class]; ok {
		return e.runConsole(ctx, log, hwnd)
	}
	_, terminal := e.terminals[class]
	return e.runClipboard(ctx, log, hwnd, terminal)
}

// runConsole reads the word behind the cursor straight from the console
// screen buffer, so the clipboard is never involved.
func (e *Engine) runConsole(ctx context.Context, log *zap.SugaredLogger, hwnd uintptr) error {
	e.setState(StateCapture)
	line, err := e.auto.ConsoleLine(hwnd)
	if err != nil {
		return fmt.Errorf("read console: %w", err)
	}
	word := lastWord(line)
	if word == "" {
		return ErrNothingCaptured
	}
	converted, target, err := e.translate(word)
	if err != nil {
		return err
	}
	e.setState(StateWriteBack)
	if err := e.auto.Backspace(len([]rune(word))); err != nil {
		return fmt.Errorf("erase word: %w", err)
	}
	if err := e.settle(ctx); err != nil {
		return err
	}
	if err := e.auto.TypeText(converted); err != nil {
		return fmt.Errorf("retype word: %w", err)
	}
	return e.switchLayout(log, hwnd, target)
}

func (e *Engine) runClipboard(ctx context.Context, log *zap.SugaredLogger, hwnd uintptr, terminal bool) error {
	guard, err := clipboard.Acquire(ctx, e.dev, e.log)
	if err != nil {
		return err
	}
	defer guard.Restore()

	e.setState(StateCapture)
	text, err := e.capture(ctx, terminal)
	if err != nil {
		return err
	}
	converted, target, err := e.translate(text)
	if err != nil {
		return err
	}
	e.setState(StateWriteBack)
	if terminal {
		// Terminals treat a paste of multi-line text as submitted input,
		// so the converted word is retyped instead.
		if err := e.auto.PressEnd(); err != nil {
			return fmt.Errorf("collapse selection: %w", err)
		}
		if err := e.settle(ctx); err != nil {
			return err
		}
		if err := e.auto.Backspace(len([]rune(text))); err != nil {
			return fmt.Errorf("erase selection: %w", err)
		}
		if err := e.settle(ctx); err != nil {
			return err
		}
		if err := e.auto.TypeText(converted); err != nil {
			return fmt.Errorf("retype: %w", err)
		}
	} else {
		err := clipboard.WithRetry(ctx, func() error { return e.dev.WriteText(converted) })
		if err != nil {
			return fmt.Errorf("stage converted text: %w", err)
		}
		if err := e.settle(ctx); err != nil {
			return err
		}
		if err := e.auto.Paste(); err != nil {
			return fmt.Errorf("paste: %w", err)
		}
		// The paste must reach the target before the guard puts the old
		// contents back.
		if err := sleepCtx(ctx, e.settings.PasteWait); err != nil {
			return err
		}
	}
	return e.switchLayout(log, hwnd, target)
}

// capture copies the current selection and reads it off the clipboard. A
// sequence number change is the signal that the copy landed; nothing is
// cleared, so non-text clipboard content survives an empty capture. When
// a plain copy yields nothing, the selection is extended one word to the
// left and the copy retried.
func (e *Engine) capture(ctx context.Context, terminal bool) (string, error) {
	copyFn := e.auto.CopySelection
	if terminal {
		copyFn = e.auto.CopySelectionTerminal
	}
	text, err := e.captureOnce(ctx, copyFn)
	if err != nil {
		return "", err
	}
	if text != "" {
		return text, nil
	}
	if terminal {
		return "", ErrNothingCaptured
	}
	if err := e.auto.SelectPreviousWord(); err != nil {
		return "", fmt.Errorf("select previous word: %w", err)
	}
	if err := e.settle(ctx); err != nil {
		return "", err
	}
	text, err = e.captureOnce(ctx, e.auto.CopySelection)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrNothingCaptured
	}
	return text, nil
}

func (e *Engine) captureOnce(ctx context.Context, copyFn func() error) (string, error) {
	var before uint32
	err := clipboard.WithRetry(ctx, func() error {
		var err error
		before, err = e.dev.Sequence()
		return err
	})
	if err != nil {
		return "", err
	}
	if err := copyFn(); err != nil {
		return "", fmt.Errorf("copy: %w", err)
	}
	deadline := time.Now().Add(e.settings.CopyWait)
	for {
		seq, err := e.dev.Sequence()
		if err != nil {
			return "", err
		}
		if seq != before {
			break
		}
		if time.Now().After(deadline) {
			return "", nil
		}
		if err := sleepCtx(ctx, copyPollInterval); err != nil {
			return "", err
		}
	}
	var text string
	var ok bool
	err = clipboard.WithRetry(ctx, func() error {
		var err error
		text, ok, err = e.dev.ReadText()
		return err
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return text, nil
}

// translate detects the script and produces the converted text plus the
// layout to activate afterwards.
func (e *Engine) translate(text string) (string, layouts.ID, error) {
	e.setState(StateDetect)
	script := e.settings.Map.Detect(text)
	if script == ScriptNone {
		return "", 0, ErrAmbiguousScript
	}
	e.setState(StateRemap)
	converted := e.settings.Map.Convert(text, script)
	if converted == text {
		return "", 0, ErrUnchanged
	}
	target := e.settings.SecondaryLayout
	if script == ScriptSecondary {
		target = e.settings.PrimaryLayout
	}
	return converted, target, nil
}

func (e *Engine) switchLayout(log *zap.SugaredLogger, hwnd uintptr, target layouts.ID) error {
	e.setState(StateSwitchLayout)
	if err := e.auto.ActivateLayout(hwnd, target); err != nil {
		return fmt.Errorf("switch layout: %w", err)
	}
	log.Infof("converted, layout switched to %v", target)
	return nil
}

func (e *Engine) settle(ctx context.Context) error {
	return sleepCtx(ctx, e.settings.Settle)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func lastWord(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
