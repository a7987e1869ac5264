//go:build windows

package winapi

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/hior/keyborder/internal/geometry"
)

const (
	monitorinfofPrimary     = 0x1
	monitorDefaultToNearest = 0x2
	smCxScreen              = 0
	smCyScreen              = 1
	spiGetWorkArea          = 0x0030
)

type winRect struct {
	Left, Top, Right, Bottom int32
}

func (r winRect) toRect() geometry.Rect {
	return geometry.FromCorners(r.Left, r.Top, r.Right, r.Bottom)
}

type monitorInfoEx struct {
	Size    uint32
	Monitor winRect
	Work    winRect
	Flags   uint32
	Device  [32]uint16
}

// EnumMonitors lists every active display with its bounds and taskbar-free
// work area. When enumeration yields nothing it falls back to a single
// synthetic monitor built from the primary screen metrics.
func EnumMonitors() ([]geometry.Monitor, error) {
	var monitors []geometry.Monitor
	cb := windows.NewCallback(func(hMonitor, hdc, lprc, data uintptr) uintptr {
		var mi monitorInfoEx
		mi.Size = uint32(unsafe.Sizeof(mi))
		ret, _, _ := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&mi)))
		if ret != 0 {
			monitors = append(monitors, geometry.Monitor{
				Index:    len(monitors),
				Device:   windows.UTF16ToString(mi.Device[:]),
				Bounds:   mi.Monitor.toRect(),
				WorkArea: mi.Work.toRect(),
				Primary:  mi.Flags&monitorinfofPrimary != 0,
			})
		}
		return 1
	})
	ret, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if ret == 0 {
		return nil, fmt.Errorf("winapi: EnumDisplayMonitors: %w", err)
	}
	if len(monitors) == 0 {
		return []geometry.Monitor{primaryMonitor()}, nil
	}
	return monitors, nil
}

func primaryMonitor() geometry.Monitor {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	bounds := geometry.Rect{Width: int32(w), Height: int32(h)}
	work := bounds
	var r winRect
	if ret, _, _ := procSystemParametersInfoW.Call(spiGetWorkArea, 0, uintptr(unsafe.Pointer(&r)), 0); ret != 0 {
		work = r.toRect()
	}
	return geometry.Monitor{Bounds: bounds, WorkArea: work, Primary: true}
}
