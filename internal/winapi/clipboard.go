//go:build windows

package winapi

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/hior/keyborder/internal/clipboard"
)

const (
	cfUnicodeText = 13
	gmemMoveable  = 0x0002
)

// Clipboard talks to the system clipboard directly. Every method opens and
// closes the clipboard so no call leaves it held; a failed open maps to
// clipboard.ErrBusy for the retry layer above.
type Clipboard struct{}

func NewClipboard() *Clipboard { return &Clipboard{} }

func openClipboard() error {
	ret, _, _ := procOpenClipboard.Call(0)
	if ret == 0 {
		return clipboard.ErrBusy
	}
	return nil
}

func closeClipboard() {
	procCloseClipboard.Call()
}

func (c *Clipboard) ReadText() (string, bool, error) {
	if err := openClipboard(); err != nil {
		return "", false, err
	}
	defer closeClipboard()

	if avail, _, _ := procIsClipboardFormatAvailable.Call(cfUnicodeText); avail == 0 {
		return "", false, nil
	}
	h, _, _ := procGetClipboardData.Call(cfUnicodeText)
	if h == 0 {
		return "", false, nil
	}
	p, _, _ := procGlobalLock.Call(h)
	if p == 0 {
		return "", false, errors.New("winapi: GlobalLock failed")
	}
	defer procGlobalUnlock.Call(h)

	return windows.UTF16PtrToString((*uint16)(unsafe.Pointer(p))), true, nil
}

func (c *Clipboard) WriteText(text string) error {
	units, err := windows.UTF16FromString(text)
	if err != nil {
		return fmt.Errorf("winapi: encoding clipboard text: %w", err)
	}
	if err := openClipboard(); err != nil {
		return err
	}
	defer closeClipboard()

	procEmptyClipboard.Call()
	return setData(cfUnicodeText, unsafe.Pointer(&units[0]), len(units)*2)
}

// Snapshot captures every clipboard format whose payload lives in movable
// global memory. Handle-based formats such as bitmaps and metafiles cannot
// be duplicated byte for byte and are skipped; the delay-rendered copies
// Windows synthesizes for them are picked up instead.
func (c *Clipboard) Snapshot() (*clipboard.Contents, error) {
	if err := openClipboard(); err != nil {
		return nil, err
	}
	defer closeClipboard()

	contents := &clipboard.Contents{}
	var format uintptr
	for {
		format, _, _ = procEnumClipboardFormats.Call(format)
		if format == 0 {
			break
		}
		id := uint32(format)
		if !copyableFormat(id) {
			continue
		}
		data, ok := copyFormat(format)
		if !ok {
			continue
		}
		contents.Formats = append(contents.Formats, clipboard.Format{ID: id, Data: data})
		if id == cfUnicodeText {
			contents.Text = decodeTextPayload(data)
			contents.HasText = true
		}
	}
	return contents, nil
}

func (c *Clipboard) Restore(contents *clipboard.Contents) error {
	if contents == nil {
		return nil
	}
	if err := openClipboard(); err != nil {
		return err
	}
	defer closeClipboard()

	procEmptyClipboard.Call()
	var firstErr error
	for _, f := range contents.Formats {
		if len(f.Data) == 0 {
			continue
		}
		if err := setData(uintptr(f.ID), unsafe.Pointer(&f.Data[0]), len(f.Data)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Sequence returns the global clipboard sequence number, which Windows
// bumps on every clipboard change.
func (c *Clipboard) Sequence() (uint32, error) {
	seq, _, _ := procGetClipboardSequenceNumber.Call()
	return uint32(seq), nil
}

// setData copies size bytes into fresh movable global memory and hands the
// block to the clipboard. Ownership transfers on success; on failure the
// block is freed here.
func setData(format uintptr, src unsafe.Pointer, size int) error {
	h, _, _ := procGlobalAlloc.Call(gmemMoveable, uintptr(size))
	if h == 0 {
		return errors.New("winapi: GlobalAlloc failed")
	}
	p, _, _ := procGlobalLock.Call(h)
	if p == 0 {
		procGlobalFree.Call(h)
		return errors.New("winapi: GlobalLock failed")
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), size), unsafe.Slice((*byte)(src), size))
	procGlobalUnlock.Call(h)

	if ret, _, err := procSetClipboardData.Call(format, h); ret == 0 {
		procGlobalFree.Call(h)
		return fmt.Errorf("winapi: SetClipboardData(%d): %v", format, err)
	}
	return nil
}

func copyFormat(format uintptr) ([]byte, bool) {
	h, _, _ := procGetClipboardData.Call(format)
	if h == 0 {
		return nil, false
	}
	size, _, _ := procGlobalSize.Call(h)
	if size == 0 {
		return nil, false
	}
	p, _, _ := procGlobalLock.Call(h)
	if p == 0 {
		return nil, false
	}
	defer procGlobalUnlock.Call(h)

	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(p)), size))
	return data, true
}

// copyableFormat filters out formats whose clipboard handle is not global
// memory: GDI objects, owner display and the private range.
func copyableFormat(id uint32) bool {
	switch id {
	case 2, 3, 9, 14: // CF_BITMAP, CF_METAFILEPICT, CF_PALETTE, CF_ENHMETAFILE
		return false
	case 0x0080, 0x0082, 0x0083, 0x008E: // owner display and display variants
		return false
	}
	if id >= 0x0200 && id <= 0x02FF { // CF_PRIVATEFIRST..CF_PRIVATELAST
		return false
	}
	return true
}

func decodeTextPayload(data []byte) string {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		u := uint16(data[i]) | uint16(data[i+1])<<8
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}
