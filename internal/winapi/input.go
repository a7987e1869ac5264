//go:build windows

package winapi

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/hior/keyborder/internal/layouts"
)

const (
	inputKeyboard = 1

	keyeventfExtended = 0x0001
	keyeventfKeyUp    = 0x0002
	keyeventfUnicode  = 0x0004

	vkBackspace = 0x08
	vkShift     = 0x10
	vkControl   = 0x11
	vkEnd       = 0x23
	vkLeft      = 0x25
	vkInsert    = 0x2D
	vkC         = 0x43
	vkV         = 0x56

	wmInputLangChangeRequest = 0x0050
)

type keyboardInput struct {
	VK        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// input matches the 64-bit INPUT layout: 4 bytes of alignment padding
// after Type, and a tail reserving the rest of the MOUSEINPUT union arm.
type input struct {
	Type uint32
	_    uint32
	KI   keyboardInput
	_    uint64
}

// Keys whose hardware events carry the extended-key flag: arrows, Insert,
// Delete, Home, End, Page Up and Page Down.
func isExtendedKey(vk uint16) bool {
	switch vk {
	case 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28, 0x2D, 0x2E:
		return true
	}
	return false
}

// Scan codes for the keys synthesized here. Some applications ignore
// events whose scan code is zero, so fill them in where known.
var scanCodes = map[uint16]uint16{
	vkBackspace: 0x0E,
	vkControl:   0x1D,
	vkShift:     0x2A,
	vkEnd:       0x4F,
	vkLeft:      0x4B,
	vkC:         0x2E,
	vkV:         0x2F,
	vkInsert:    0x52,
}

type keyEvent struct {
	vk    uint16
	flags uint32
}

// Automation synthesizes keystrokes into whatever window holds focus and
// drives per-window layout activation. keyGap spaces out repeated events
// so slow applications keep up.
type Automation struct {
	keyGap time.Duration
}

func NewAutomation() *Automation {
	return &Automation{keyGap: 10 * time.Millisecond}
}

func submit(batch []input) error {
	if len(batch) == 0 {
		return nil
	}
	sent, _, err := procSendInput.Call(
		uintptr(len(batch)),
		uintptr(unsafe.Pointer(&batch[0])),
		unsafe.Sizeof(input{}),
	)
	if int(sent) != len(batch) {
		return fmt.Errorf("winapi: SendInput inserted %d of %d events: %v", sent, len(batch), err)
	}
	return nil
}

func (a *Automation) send(events []keyEvent) error {
	batch := make([]input, len(events))
	for i, ev := range events {
		batch[i] = input{
			Type: inputKeyboard,
			KI: keyboardInput{
				VK:    ev.vk,
				Scan:  scanCodes[ev.vk],
				Flags: ev.flags,
			},
		}
	}
	return submit(batch)
}

func keyFlags(vk uint16) uint32 {
	if isExtendedKey(vk) {
		return keyeventfExtended
	}
	return 0
}

// tap presses and releases a single key in one batch.
func (a *Automation) tap(vk uint16) error {
	flags := keyFlags(vk)
	return a.send([]keyEvent{
		{vk, flags},
		{vk, flags | keyeventfKeyUp},
	})
}

// combo wraps a key press in one or two held modifiers, all submitted as a
// single batch so no foreign event can interleave.
func (a *Automation) combo(mods []uint16, vk uint16) error {
	flags := keyFlags(vk)
	events := make([]keyEvent, 0, 2*len(mods)+2)
	for _, mod := range mods {
		events = append(events, keyEvent{mod, 0})
	}
	events = append(events, keyEvent{vk, flags}, keyEvent{vk, flags | keyeventfKeyUp})
	for i := len(mods) - 1; i >= 0; i-- {
		events = append(events, keyEvent{mods[i], keyeventfKeyUp})
	}
	return a.send(events)
}

func (a *Automation) ForegroundWindow() (uintptr, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return 0, errNoForeground
	}
	return hwnd, nil
}

func (a *Automation) WindowClass(hwnd uintptr) (string, error) {
	var buf [256]uint16
	n, _, err := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return "", fmt.Errorf("winapi: GetClassNameW: %v", err)
	}
	return windows.UTF16ToString(buf[:n]), nil
}

func (a *Automation) CopySelection() error {
	return a.combo([]uint16{vkControl}, vkInsert)
}

func (a *Automation) CopySelectionTerminal() error {
	return a.combo([]uint16{vkControl, vkShift}, vkC)
}

func (a *Automation) SelectPreviousWord() error {
	return a.combo([]uint16{vkControl, vkShift}, vkLeft)
}

func (a *Automation) Paste() error {
	return a.combo([]uint16{vkControl}, vkV)
}

func (a *Automation) PressEnd() error {
	return a.tap(vkEnd)
}

func (a *Automation) Backspace(count int) error {
	for i := 0; i < count; i++ {
		if err := a.tap(vkBackspace); err != nil {
			return err
		}
		time.Sleep(a.keyGap)
	}
	return nil
}

// TypeText injects text as unicode key events, one UTF-16 unit at a time.
// Unicode injection carries the character in the scan field and is layout
// independent, so the replacement lands correctly no matter which layout
// becomes active underneath it.
func (a *Automation) TypeText(text string) error {
	for _, unit := range utf16.Encode([]rune(text)) {
		err := submit([]input{
			{Type: inputKeyboard, KI: keyboardInput{Scan: unit, Flags: keyeventfUnicode}},
			{Type: inputKeyboard, KI: keyboardInput{Scan: unit, Flags: keyeventfUnicode | keyeventfKeyUp}},
		})
		if err != nil {
			return err
		}
		time.Sleep(a.keyGap)
	}
	return nil
}

func (a *Automation) ActivateLayout(hwnd uintptr, layout layouts.ID) error {
	if hwnd == 0 {
		return errors.New("winapi: no window to switch layout for")
	}
	ret, _, err := procPostMessageW.Call(hwnd, wmInputLangChangeRequest, 0, uintptr(layout))
	if ret == 0 {
		return fmt.Errorf("winapi: posting layout change: %v", err)
	}
	return nil
}
