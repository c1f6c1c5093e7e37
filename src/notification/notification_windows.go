//go:build windows

package notification

import (
	"syscall"
	"unsafe"
)

var (
	user32         = syscall.NewLazyDLL("user32.dll")
	procMessageBox = user32.NewProc("MessageBoxW")
)

// ShowBlockingError displays a modal error dialog and returns after the user
// dismisses it. Used for fatal startup failures before the tray exists.
func ShowBlockingError(title, message string) {
	titlePtr, _ := syscall.UTF16PtrFromString(title)
	msgPtr, _ := syscall.UTF16PtrFromString(message)
	const MB_OK = 0x00000000
	const MB_ICONERROR = 0x00000010
	const MB_SYSTEMMODAL = 0x00001000
	procMessageBox.Call(0, uintptr(unsafe.Pointer(msgPtr)), uintptr(unsafe.Pointer(titlePtr)), MB_OK|MB_ICONERROR|MB_SYSTEMMODAL)
}
