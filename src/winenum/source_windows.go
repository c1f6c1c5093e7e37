//go:build windows

package winenum

import (
	"fmt"
	"image"
	"syscall"
	"unsafe"

	"github.com/lxn/win"
)

var (
	user32DLL                 = syscall.NewLazyDLL("user32.dll")
	dwmapiDLL                 = syscall.NewLazyDLL("dwmapi.dll")
	procEnumWindows           = user32DLL.NewProc("EnumWindows")
	procIsWindowVisible       = user32DLL.NewProc("IsWindowVisible")
	procGetWindowTextW        = user32DLL.NewProc("GetWindowTextW")
	procGetWindow             = user32DLL.NewProc("GetWindow")
	procGetWindowRect         = user32DLL.NewProc("GetWindowRect")
	procDwmGetWindowAttribute = dwmapiDLL.NewProc("DwmGetWindowAttribute")
)

const (
	gwHwndNext               = 2
	gwChild                  = 5
	dwmwaExtendedFrameBounds = 9
)

type win32Source struct{}

func newPlatformSource() (Source, error) {
	return &win32Source{}, nil
}

type enumContext struct {
	exclude Handle
	out     []Window
}

// Created once: syscall.NewCallback allocations are never released.
var enumWindowsCallback = syscall.NewCallback(func(hwnd uintptr, lparam uintptr) uintptr {
	ctx := (*enumContext)(unsafe.Pointer(lparam))
	if Handle(hwnd) == ctx.exclude {
		return 1
	}
	if !isWindowVisible(hwnd) {
		return 1
	}
	bounds, ok := windowBounds(hwnd)
	if !ok {
		return 1
	}
	ctx.out = append(ctx.out, Window{
		Handle: Handle(hwnd),
		Bounds: bounds,
		Title:  windowTitle(hwnd),
	})
	return 1
})

// TopLevel walks EnumWindows, which reports top-level windows starting with
// the topmost, so the result is already front-to-back.
func (s *win32Source) TopLevel(exclude Handle) ([]Window, error) {
	ctx := &enumContext{exclude: exclude}
	ret, _, _ := procEnumWindows.Call(enumWindowsCallback, uintptr(unsafe.Pointer(ctx)))
	if ret == 0 {
		return nil, fmt.Errorf("EnumWindows failed: %d", win.GetLastError())
	}
	return ctx.out, nil
}

// Children walks GetWindow(GW_CHILD) then GW_HWNDNEXT, which descends the
// sibling chain from the highest child in z-order.
func (s *win32Source) Children(parent Handle) ([]Window, error) {
	var out []Window
	hwnd, _, _ := procGetWindow.Call(uintptr(parent), gwChild)
	for hwnd != 0 {
		if isWindowVisible(hwnd) {
			if bounds, ok := windowBounds(hwnd); ok {
				out = append(out, Window{
					Handle: Handle(hwnd),
					Bounds: bounds,
					Title:  windowTitle(hwnd),
				})
			}
		}
		hwnd, _, _ = procGetWindow.Call(hwnd, gwHwndNext)
	}
	return out, nil
}

func isWindowVisible(hwnd uintptr) bool {
	ret, _, _ := procIsWindowVisible.Call(hwnd)
	return ret != 0
}

func windowTitle(hwnd uintptr) string {
	var buf [512]uint16
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf[:n])
}

// windowBounds prefers the DWM extended frame bounds, which exclude the
// invisible resize margins Windows 10+ adds around each frame. Raw
// GetWindowRect is the fallback when DWM refuses (older systems, cloaked
// windows).
func windowBounds(hwnd uintptr) (image.Rectangle, bool) {
	var r win.RECT
	hr, _, _ := procDwmGetWindowAttribute.Call(
		hwnd,
		dwmwaExtendedFrameBounds,
		uintptr(unsafe.Pointer(&r)),
		unsafe.Sizeof(r),
	)
	if hr != 0 {
		ret, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
		if ret == 0 {
			return image.Rectangle{}, false
		}
	}
	rect := image.Rect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom))
	if rect.Empty() {
		return image.Rectangle{}, false
	}
	return rect, true
}
