//go:build windows

package winapi

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ConsoleLine attaches to the console that owns hwnd and reads the current
// input line, from column zero up to the cursor. It returns an empty string
// when the cursor sits at the start of the line.
func (a *Automation) ConsoleLine(hwnd uintptr) (string, error) {
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return "", errors.New("winapi: console window has no process")
	}

	// A process can only hold one console at a time.
	windows.FreeConsole()
	if err := windows.AttachConsole(pid); err != nil {
		return "", fmt.Errorf("winapi: AttachConsole: %w", err)
	}
	defer windows.FreeConsole()

	handle, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE)
	if err != nil || handle == windows.InvalidHandle {
		return "", fmt.Errorf("winapi: console output handle: %v", err)
	}

	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(handle, &info); err != nil {
		return "", fmt.Errorf("winapi: GetConsoleScreenBufferInfo: %w", err)
	}

	cursor := info.CursorPosition
	if cursor.X <= 0 {
		return "", nil
	}

	buf := make([]uint16, cursor.X)
	var read uint32
	// COORD is passed by value, packed into a single machine word. The read
	// starts at column zero of the cursor row.
	origin := uintptr(uint32(uint16(cursor.Y)) << 16)
	ret, _, callErr := procReadConsoleOutputCharacterW.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(cursor.X),
		origin,
		uintptr(unsafe.Pointer(&read)),
	)
	if ret == 0 {
		return "", fmt.Errorf("winapi: ReadConsoleOutputCharacterW: %v", callErr)
	}

	line := string(utf16.Decode(buf[:read]))
	return strings.TrimRight(line, " "), nil
}
