//go:build windows

package winapi

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/hior/keyborder/internal/geometry"
	"github.com/hior/keyborder/internal/layouts"
)

const overlayClass = "KeyborderOverlay"

const (
	wsExLayered     = 0x00080000
	wsExTransparent = 0x00000020
	wsExToolWindow  = 0x00000080
	wsExNoActivate  = 0x08000000
	wsExTopmost     = 0x00000008
	wsPopup         = 0x80000000

	swHide           = 0
	swShowNoActivate = 4

	lwaAlpha = 0x2
	pmRemove = 0x0001

	wmEraseBkgnd = 0x0014
)

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   uintptr
	Icon       uintptr
	Cursor     uintptr
	Background uintptr
	MenuName   *uint16
	ClassName  *uint16
	IconSm     uintptr
}

type point struct {
	X, Y int32
}

type message struct {
	HWnd    uintptr
	Msg     uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

// OverlayHost owns the border strip windows. All window calls run on a
// single locked OS thread; public methods marshal onto it through the
// command channel. The strips are layered, click-through, topmost tool
// windows that never take activation.
type OverlayHost struct {
	log      *zap.SugaredLogger
	commands chan func()
	quit     chan struct{}
	done     chan struct{}
	stop     sync.Once

	// Owned by the window thread.
	instance uintptr
	class    *uint16
	brush    uintptr
	hwnds    []uintptr
	shown    bool
}

// activeHost carries the host into the window procedure. Only the window
// thread touches it after construction.
var activeHost *OverlayHost

var overlayProcCallback = windows.NewCallback(overlayProc)

func NewOverlayHost(log *zap.SugaredLogger) (*OverlayHost, error) {
	h := &OverlayHost{
		log:      log,
		commands: make(chan func(), 16),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	activeHost = h
	ready := make(chan error, 1)
	go h.loop(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return h, nil
}

func (h *OverlayHost) loop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.done)

	if err := h.register(); err != nil {
		ready <- err
		return
	}
	ready <- nil

	pump := time.NewTicker(5 * time.Millisecond)
	defer pump.Stop()
	for {
		select {
		case fn := <-h.commands:
			fn()
		case <-h.quit:
			h.teardown()
			return
		case <-pump.C:
		}
		h.drainMessages()
	}
}

func (h *OverlayHost) register() error {
	inst, _, _ := procGetModuleHandleW.Call(0)
	h.instance = inst

	name, err := windows.UTF16PtrFromString(overlayClass)
	if err != nil {
		return err
	}
	h.class = name

	wc := wndClassEx{
		Size:      uint32(unsafe.Sizeof(wndClassEx{})),
		WndProc:   overlayProcCallback,
		Instance:  inst,
		ClassName: name,
	}
	if atom, _, callErr := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); atom == 0 {
		return fmt.Errorf("winapi: RegisterClassExW: %v", callErr)
	}
	return nil
}

// do runs fn on the window thread and waits for it to finish.
func (h *OverlayHost) do(fn func()) {
	ran := make(chan struct{})
	select {
	case h.commands <- func() { fn(); close(ran) }:
	case <-h.quit:
		return
	}
	select {
	case <-ran:
	case <-h.done:
	}
}

// Realize replaces the strip windows with one window per layer spec. The
// new strips inherit the current visibility; tinting is driven separately.
func (h *OverlayHost) Realize(layers []geometry.LayerSpec) error {
	var err error
	h.do(func() { err = h.realize(layers) })
	return err
}

func (h *OverlayHost) realize(layers []geometry.LayerSpec) error {
	h.destroyWindows()
	h.hwnds = make([]uintptr, 0, len(layers))
	for _, spec := range layers {
		hwnd, err := h.createStrip(spec)
		if err != nil {
			h.destroyWindows()
			return err
		}
		h.hwnds = append(h.hwnds, hwnd)
	}
	if h.shown {
		h.applyVisibility()
	}
	h.log.Debugw("overlay strips realized", "count", len(h.hwnds))
	return nil
}

func (h *OverlayHost) createStrip(spec geometry.LayerSpec) (uintptr, error) {
	hwnd, _, err := procCreateWindowExW.Call(
		wsExLayered|wsExTransparent|wsExToolWindow|wsExNoActivate|wsExTopmost,
		uintptr(unsafe.Pointer(h.class)),
		0,
		wsPopup,
		uintptr(spec.Rect.X),
		uintptr(spec.Rect.Y),
		uintptr(spec.Rect.Width),
		uintptr(spec.Rect.Height),
		0, 0, h.instance, 0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("winapi: CreateWindowExW: %v", err)
	}

	alpha := int(math.Round(spec.Opacity * 255))
	if alpha < 0 {
		alpha = 0
	} else if alpha > 255 {
		alpha = 255
	}
	procSetLayeredWindowAttributes.Call(hwnd, 0, uintptr(alpha), lwaAlpha)
	return hwnd, nil
}

// Tint repaints every strip in the given color.
func (h *OverlayHost) Tint(c layouts.Color) {
	h.do(func() { h.tint(c) })
}

func (h *OverlayHost) tint(c layouts.Color) {
	// COLORREF is 0x00BBGGRR.
	ref := uintptr(uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R))
	brush, _, _ := procCreateSolidBrush.Call(ref)
	if brush == 0 {
		h.log.Warnw("solid brush creation failed", "color", c.Hex())
		return
	}
	old := h.brush
	h.brush = brush
	for _, hwnd := range h.hwnds {
		procInvalidateRect.Call(hwnd, 0, 1)
	}
	if old != 0 {
		procDeleteObject.Call(old)
	}
}

// SetShown shows or hides every strip without taking activation.
func (h *OverlayHost) SetShown(shown bool) {
	h.do(func() {
		h.shown = shown
		h.applyVisibility()
	})
}

func (h *OverlayHost) applyVisibility() {
	cmd := uintptr(swHide)
	if h.shown {
		cmd = swShowNoActivate
	}
	for _, hwnd := range h.hwnds {
		procShowWindow.Call(hwnd, cmd)
	}
}

// Close tears down the strips and stops the window thread.
func (h *OverlayHost) Close() {
	h.stop.Do(func() { close(h.quit) })
	<-h.done
}

func (h *OverlayHost) teardown() {
	h.destroyWindows()
	if h.brush != 0 {
		procDeleteObject.Call(h.brush)
		h.brush = 0
	}
}

func (h *OverlayHost) destroyWindows() {
	for _, hwnd := range h.hwnds {
		procDestroyWindow.Call(hwnd)
	}
	h.hwnds = nil
	h.drainMessages()
}

func (h *OverlayHost) drainMessages() {
	var m message
	for {
		ret, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
		if ret == 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func overlayProc(hwnd uintptr, msg uint32, wparam, lparam uintptr) uintptr {
	if msg == wmEraseBkgnd {
		if h := activeHost; h != nil && h.brush != 0 {
			var rc winRect
			procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&rc)))
			procFillRect.Call(wparam, uintptr(unsafe.Pointer(&rc)), h.brush)
			return 1
		}
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, uintptr(msg), wparam, lparam)
	return ret
}
