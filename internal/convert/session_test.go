package convert

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hior/keyborder/internal/clipboard"
	"github.com/hior/keyborder/internal/config"
	"github.com/hior/keyborder/internal/layouts"
	"github.com/hior/keyborder/internal/metrics"
)

// fakeDevice is an in-memory clipboard with a sequence counter.
type fakeDevice struct {
	seq       uint32
	text      string
	hasText   bool
	busySnaps int
	snapshots int
	restores  int
	restored  *clipboard.Contents
	writes    []string
}

func (d *fakeDevice) put(text string) {
	d.text = text
	d.hasText = true
	d.seq++
}

func (d *fakeDevice) ReadText() (string, bool, error) { return d.text, d.hasText, nil }

func (d *fakeDevice) WriteText(text string) error {
	d.writes = append(d.writes, text)
	d.put(text)
	return nil
}

func (d *fakeDevice) Snapshot() (*clipboard.Contents, error) {
	d.snapshots++
	if d.busySnaps > 0 {
		d.busySnaps--
		return nil, clipboard.ErrBusy
	}
	return &clipboard.Contents{Text: d.text, HasText: d.hasText}, nil
}

func (d *fakeDevice) Restore(c *clipboard.Contents) error {
	d.restores++
	d.restored = c
	d.text = c.Text
	d.hasText = c.HasText
	d.seq++
	return nil
}

func (d *fakeDevice) Sequence() (uint32, error) { return d.seq, nil }

// fakeAutomator simulates the foreground window and records gestures.
type fakeAutomator struct {
	dev *fakeDevice

	class      string
	selection  string
	nearCursor string

	copyCalls     int
	termCopyCalls int
	selectedWord  bool
	pasted        bool
	endPressed    bool
	backspaces    int
	typed         []string
	consoleLine   string

	copyErr error

	activated    layouts.ID
	activatedWin uintptr
}

func (a *fakeAutomator) ForegroundWindow() (uintptr, error) { return 0x4242, nil }

func (a *fakeAutomator) WindowClass(uintptr) (string, error) { return a.class, nil }

func (a *fakeAutomator) CopySelection() error {
	a.copyCalls++
	if a.copyErr != nil {
		return a.copyErr
	}
	if a.selection != "" {
		a.dev.put(a.selection)
	}
	return nil
}

func (a *fakeAutomator) CopySelectionTerminal() error {
	a.termCopyCalls++
	if a.selection != "" {
		a.dev.put(a.selection)
	}
	return nil
}

func (a *fakeAutomator) SelectPreviousWord() error {
	a.selectedWord = true
	a.selection = a.nearCursor
	return nil
}

func (a *fakeAutomator) Paste() error {
	a.pasted = true
	return nil
}

func (a *fakeAutomator) PressEnd() error {
	a.endPressed = true
	return nil
}

func (a *fakeAutomator) Backspace(count int) error {
	a.backspaces += count
	return nil
}

func (a *fakeAutomator) TypeText(text string) error {
	a.typed = append(a.typed, text)
	return nil
}

func (a *fakeAutomator) ConsoleLine(uintptr) (string, error) { return a.consoleLine, nil }

func (a *fakeAutomator) ActivateLayout(hwnd uintptr, layout layouts.ID) error {
	a.activated = layout
	a.activatedWin = hwnd
	return nil
}

func testSettings(t *testing.T) Settings {
	t.Helper()
	scripts := config.Default().Conversion.Scripts
	m, err := NewCharmap(scripts.Primary.Chars, scripts.Secondary.Chars)
	if err != nil {
		t.Fatalf("NewCharmap: %v", err)
	}
	return Settings{
		Map:             m,
		PrimaryLayout:   0x04090409,
		SecondaryLayout: 0x04190419,
		ConsoleClasses:  []string{"ConsoleWindowClass"},
		TerminalClasses: []string{"CASCADIA_HOSTING_WINDOW_CLASS"},
		CopyWait:        100 * time.Millisecond,
		Timeout:         2 * time.Second,
	}
}

func newTestEngine(t *testing.T, auto *fakeAutomator, dev *fakeDevice) *Engine {
	t.Helper()
	return NewEngine(testSettings(t), auto, dev, zap.NewNop().Sugar(), metrics.NewCollector())
}

func TestSessionConvertsSelection(t *testing.T) {
	dev := &fakeDevice{}
	dev.put("original")
	auto := &fakeAutomator{dev: dev, class: "Chrome_WidgetWin_1", selection: "ghbdtn"}
	e := newTestEngine(t, auto, dev)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !auto.pasted {
		t.Fatalf("expected paste")
	}
	if len(dev.writes) != 1 || dev.writes[0] != "привет" {
		t.Fatalf("expected converted text staged, got %v", dev.writes)
	}
	if auto.activated != 0x04190419 {
		t.Fatalf("expected switch to secondary layout, got %v", auto.activated)
	}
	if auto.activatedWin != 0x4242 {
		t.Fatalf("expected switch posted to foreground window, got %#x", auto.activatedWin)
	}
	if dev.restored == nil || dev.restored.Text != "original" {
		t.Fatalf("expected original clipboard back, got %+v", dev.restored)
	}
	if e.State() != StateIdle {
		t.Fatalf("expected idle state after session, got %v", e.State())
	}
	snap := e.metrics.Snapshot()
	if snap.Totals.Converted != 1 {
		t.Fatalf("expected one converted session, got %+v", snap.Totals)
	}
	if len(snap.Recent) != 1 || snap.Recent[0].Outcome != metrics.Converted {
		t.Fatalf("expected session journaled, got %+v", snap.Recent)
	}
}

func TestSessionConvertsToPrimaryDirection(t *testing.T) {
	dev := &fakeDevice{}
	auto := &fakeAutomator{dev: dev, class: "Notepad", selection: "привет"}
	e := newTestEngine(t, auto, dev)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(dev.writes) != 1 || dev.writes[0] != "ghbdtn" {
		t.Fatalf("expected latin text staged, got %v", dev.writes)
	}
	if auto.activated != 0x04090409 {
		t.Fatalf("expected switch to primary layout, got %v", auto.activated)
	}
}

func TestSessionFallsBackToPreviousWord(t *testing.T) {
	dev := &fakeDevice{}
	auto := &fakeAutomator{dev: dev, class: "Notepad", nearCursor: "ghbdtn"}
	e := newTestEngine(t, auto, dev)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !auto.selectedWord {
		t.Fatalf("expected previous-word selection fallback")
	}
	if auto.copyCalls != 2 {
		t.Fatalf("expected two copy attempts, got %d", auto.copyCalls)
	}
	if !auto.pasted {
		t.Fatalf("expected paste after fallback capture")
	}
}

func TestSessionAbortsWhenNothingCaptured(t *testing.T) {
	dev := &fakeDevice{}
	dev.put("original")
	auto := &fakeAutomator{dev: dev, class: "Notepad"}
	e := newTestEngine(t, auto, dev)

	err := e.Run(context.Background())
	if !errors.Is(err, ErrNothingCaptured) {
		t.Fatalf("expected ErrNothingCaptured, got %v", err)
	}
	if auto.pasted || auto.activated != 0 {
		t.Fatalf("expected no paste and no layout switch on abort")
	}
	if dev.restores != 1 || dev.restored.Text != "original" {
		t.Fatalf("expected clipboard restored exactly once, got %d", dev.restores)
	}
	if e.State() != StateIdle {
		t.Fatalf("expected idle state after abort, got %v", e.State())
	}
}

func TestSessionAbortsOnAmbiguousScript(t *testing.T) {
	dev := &fakeDevice{}
	dev.put("original")
	auto := &fakeAutomator{dev: dev, class: "Notepad", selection: "12345"}
	e := newTestEngine(t, auto, dev)

	err := e.Run(context.Background())
	if !errors.Is(err, ErrAmbiguousScript) {
		t.Fatalf("expected ErrAmbiguousScript, got %v", err)
	}
	if auto.activated != 0 {
		t.Fatalf("expected no layout switch on ambiguous text")
	}
	if dev.restored == nil || dev.restored.Text != "original" {
		t.Fatalf("expected clipboard restored on abort")
	}
	snap := e.metrics.Snapshot()
	if snap.Totals.Sessions != 1 || snap.Totals.Converted != 0 {
		t.Fatalf("expected one aborted session recorded, got %+v", snap.Totals)
	}
}

func TestSessionAbortsOnPersistentClipboardContention(t *testing.T) {
	dev := &fakeDevice{busySnaps: 100}
	auto := &fakeAutomator{dev: dev, class: "Notepad", selection: "ghbdtn"}
	e := newTestEngine(t, auto, dev)

	err := e.Run(context.Background())
	if !errors.Is(err, clipboard.ErrBusy) {
		t.Fatalf("expected clipboard contention abort, got %v", err)
	}
	if auto.copyCalls != 0 {
		t.Fatalf("expected no copy before the clipboard was secured")
	}
	if auto.activated != 0 {
		t.Fatalf("expected no layout switch")
	}
}

func TestSessionSurfacesGestureErrors(t *testing.T) {
	dev := &fakeDevice{}
	dev.put("original")
	boom := errors.New("send input failed")
	auto := &fakeAutomator{dev: dev, class: "Notepad", selection: "ghbdtn", copyErr: boom}
	e := newTestEngine(t, auto, dev)

	err := e.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected gesture error surfaced, got %v", err)
	}
	if dev.restores != 1 {
		t.Fatalf("expected clipboard restored after failure, got %d restores", dev.restores)
	}
}

func TestSessionTerminalPathRetypes(t *testing.T) {
	dev := &fakeDevice{}
	dev.put("original")
	auto := &fakeAutomator{dev: dev, class: "CASCADIA_HOSTING_WINDOW_CLASS", selection: "ghbdtn"}
	e := newTestEngine(t, auto, dev)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if auto.termCopyCalls != 1 || auto.copyCalls != 0 {
		t.Fatalf("expected terminal copy gesture, got term=%d plain=%d", auto.termCopyCalls, auto.copyCalls)
	}
	if auto.pasted {
		t.Fatalf("expected no paste in terminal path")
	}
	if !auto.endPressed {
		t.Fatalf("expected selection collapsed before retyping")
	}
	if auto.backspaces != 6 {
		t.Fatalf("expected 6 backspaces, got %d", auto.backspaces)
	}
	if len(auto.typed) != 1 || auto.typed[0] != "привет" {
		t.Fatalf("expected retyped converted text, got %v", auto.typed)
	}
	if dev.restored == nil || dev.restored.Text != "original" {
		t.Fatalf("expected clipboard restored after terminal session")
	}
	if auto.activated != 0x04190419 {
		t.Fatalf("expected layout switch, got %v", auto.activated)
	}
}

func TestSessionConsolePathSkipsClipboard(t *testing.T) {
	dev := &fakeDevice{}
	auto := &fakeAutomator{dev: dev, class: "ConsoleWindowClass", consoleLine: "git commit -m ghbdtn"}
	e := newTestEngine(t, auto, dev)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dev.snapshots != 0 {
		t.Fatalf("expected console path to leave the clipboard alone, got %d snapshots", dev.snapshots)
	}
	if auto.backspaces != 6 {
		t.Fatalf("expected the last word erased, got %d backspaces", auto.backspaces)
	}
	if len(auto.typed) != 1 || auto.typed[0] != "привет" {
		t.Fatalf("expected converted word typed, got %v", auto.typed)
	}
	if auto.activated != 0x04190419 {
		t.Fatalf("expected layout switch, got %v", auto.activated)
	}
}

func TestSessionConsolePathEmptyLineAborts(t *testing.T) {
	dev := &fakeDevice{}
	auto := &fakeAutomator{dev: dev, class: "ConsoleWindowClass", consoleLine: "   "}
	e := newTestEngine(t, auto, dev)

	err := e.Run(context.Background())
	if !errors.Is(err, ErrNothingCaptured) {
		t.Fatalf("expected ErrNothingCaptured, got %v", err)
	}
	if auto.backspaces != 0 || len(auto.typed) != 0 {
		t.Fatalf("expected no console edits on empty line")
	}
}

func TestSessionHonorsDeadline(t *testing.T) {
	dev := &fakeDevice{}
	dev.put("original")
	auto := &fakeAutomator{dev: dev, class: "Notepad", selection: "ghbdtn"}
	settings := testSettings(t)
	settings.Settle = 50 * time.Millisecond
	settings.Timeout = time.Nanosecond
	e := NewEngine(settings, auto, dev, zap.NewNop().Sugar(), metrics.NewCollector())

	err := e.Run(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline abort, got %v", err)
	}
	if auto.pasted {
		t.Fatalf("expected no paste after deadline")
	}
	if dev.restores != 1 {
		t.Fatalf("expected clipboard restored after deadline abort, got %d", dev.restores)
	}
	if e.State() != StateIdle {
		t.Fatalf("expected idle state after deadline, got %v", e.State())
	}
}

func TestLastWord(t *testing.T) {
	cases := []struct {
		line string
		want string
	}{
		{"git commit -m ghbdtn", "ghbdtn"},
		{"ghbdtn", "ghbdtn"},
		{"  trailing  ", "trailing"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := lastWord(tc.line); got != tc.want {
			t.Fatalf("lastWord(%q) = %q, want %q", tc.line, got, tc.want)
		}
	}
}
