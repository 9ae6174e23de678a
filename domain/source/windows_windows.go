//go:build windows

package source

import (
	"image"
	"strings"
	"syscall"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	procEnumWindows     = user32.NewProc("EnumWindows")
	procGetWindowTextW  = user32.NewProc("GetWindowTextW")
	procIsWindowVisible = user32.NewProc("IsWindowVisible")
	procIsWindow        = user32.NewProc("IsWindow")
	procIsIconic        = user32.NewProc("IsIconic")
	procGetWindowRect   = user32.NewProc("GetWindowRect")
)

type rect32 struct {
	Left, Top, Right, Bottom int32
}

// listWindows returns visible, non-minimized top-level windows with a title.
func listWindows() ([]WindowInfo, error) {
	var out []WindowInfo
	cb := syscall.NewCallback(func(hwnd uintptr, lparam uintptr) uintptr {
		if vis, _, _ := procIsWindowVisible.Call(hwnd); vis == 0 {
			return 1
		}
		if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
			return 1
		}
		title := windowTitle(hwnd)
		if title == "" {
			return 1
		}
		b, ok := windowRect(hwnd)
		if !ok {
			return 1
		}
		out = append(out, WindowInfo{Handle: hwnd, Title: title, Bounds: b})
		return 1 // continue enumeration
	})
	if r, _, callErr := procEnumWindows.Call(cb, 0); r == 0 {
		if callErr != nil && callErr != windows.ERROR_SUCCESS {
			return nil, callErr
		}
	}
	return out, nil
}

// windowInfo resolves a handle to its current title and bounds. Destroyed or
// minimized windows do not resolve.
func windowInfo(handle uintptr) (WindowInfo, bool) {
	if ok, _, _ := procIsWindow.Call(handle); ok == 0 {
		return WindowInfo{}, false
	}
	if iconic, _, _ := procIsIconic.Call(handle); iconic != 0 {
		return WindowInfo{}, false
	}
	b, ok := windowRect(handle)
	if !ok {
		return WindowInfo{}, false
	}
	return WindowInfo{Handle: handle, Title: windowTitle(handle), Bounds: b}, true
}

func windowTitle(hwnd uintptr) string {
	const maxChars = 256
	buf := make([]uint16, maxChars)
	r, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r == 0 {
		return ""
	}
	end := int(r)
	for i, v := range buf[:end] {
		if v == 0 {
			end = i
			break
		}
	}
	return strings.TrimSpace(string(utf16.Decode(buf[:end])))
}

func windowRect(hwnd uintptr) (image.Rectangle, bool) {
	var r rect32
	ok, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return image.Rectangle{}, false
	}
	b := image.Rect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom))
	return b, !b.Empty()
}
