//go:build windows

package winapi

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/hior/keyborder/internal/engine"
	"github.com/hior/keyborder/internal/geometry"
	"github.com/hior/keyborder/internal/layouts"
)

// Source reads the foreground window, its keyboard layout and its monitor
// in one pass. It satisfies the engine's data source contract.
type Source struct{}

func NewSource() *Source { return &Source{} }

var errNoForeground = errors.New("winapi: no foreground window")

func (s *Source) Snapshot() (engine.Foreground, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		// Happens on the secure desktop and during session switches.
		return engine.Foreground{}, errNoForeground
	}

	threadID, _, _ := procGetWindowThreadProcessId.Call(hwnd, 0)
	hkl, _, _ := procGetKeyboardLayout.Call(threadID)

	var wr winRect
	if ret, _, err := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&wr))); ret == 0 {
		return engine.Foreground{}, fmt.Errorf("winapi: GetWindowRect: %w", err)
	}

	monitor, err := monitorBounds(hwnd)
	if err != nil {
		return engine.Foreground{}, err
	}

	return engine.Foreground{
		Window:  hwnd,
		Layout:  layouts.ID(hkl & 0xFFFFFFFF),
		Rect:    wr.toRect(),
		Monitor: monitor,
	}, nil
}

func monitorBounds(hwnd uintptr) (geometry.Rect, error) {
	hMonitor, _, _ := procMonitorFromWindow.Call(hwnd, monitorDefaultToNearest)
	if hMonitor == 0 {
		return geometry.Rect{}, errors.New("winapi: MonitorFromWindow failed")
	}
	var mi monitorInfoEx
	mi.Size = uint32(unsafe.Sizeof(mi))
	if ret, _, err := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&mi))); ret == 0 {
		return geometry.Rect{}, fmt.Errorf("winapi: GetMonitorInfoW: %w", err)
	}
	return mi.Monitor.toRect(), nil
}
