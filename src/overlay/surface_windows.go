//go:build windows

package overlay

import (
	"fmt"
	"image"
	"log"
	"os"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"

	"github.com/SysAdminDoc/SwiftShot/src/winenum"
)

var (
	user32DLL                    = syscall.NewLazyDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32DLL.NewProc("GetAsyncKeyState")
	procGetCursorPos             = user32DLL.NewProc("GetCursorPos")
	procSetCursorPos             = user32DLL.NewProc("SetCursorPos")
)

const (
	refreshTimerID    = 1
	refreshIntervalMs = 16 // ~60Hz animation tick

	// Surface control messages, posted to the pump thread so every USER
	// call happens on the thread that owns the window.
	wmShowSurface = win.WM_APP + 1
	wmHideSurface = win.WM_APP + 2
	wmRepaint     = win.WM_APP + 3

	eventBuffer = 256
)

// The wndproc callback is created once for the process; syscall.NewCallback
// allocations are never released. It finds its surface through the registry.
var (
	overlayWndProcPtr uintptr
	wndProcOnce       sync.Once

	surfacesMu sync.Mutex
	surfaces   = map[win.HWND]*win32Surface{}
)

// win32Surface is a WS_POPUP | WS_EX_TOPMOST window spanning the virtual
// screen. A dedicated locked OS thread creates the window and pumps its
// messages; input is translated into Events there. The back buffer is an
// RGBA frame converted into a top-down 32bpp DIB section on Repaint and
// blitted in WM_PAINT.
type win32Surface struct {
	bounds image.Rectangle
	frame  *image.RGBA
	events chan Event
	done   chan struct{}

	hwnd    win.HWND
	memDC   win.HDC
	hBitmap win.HBITMAP
	oldBmp  win.HGDIOBJ
	bits    []byte

	closeOnce sync.Once
}

func newPlatformSurface(bounds image.Rectangle) (Surface, error) {
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("overlay surface: degenerate bounds %v", bounds)
	}
	wndProcOnce.Do(func() {
		overlayWndProcPtr = syscall.NewCallback(overlayWndProc)
	})
	s := &win32Surface{
		bounds: bounds,
		frame:  image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy())),
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
	ready := make(chan error, 1)
	go s.pump(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	log.Printf("Overlay surface created at (%d,%d) size %dx%d",
		bounds.Min.X, bounds.Min.Y, bounds.Dx(), bounds.Dy())
	return s, nil
}

// pump creates the window and runs its message loop on a locked OS thread.
// The window and its GDI resources live and die on this thread.
func (s *win32Surface) pump(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	className := syscall.StringToUTF16Ptr(fmt.Sprintf("SwiftShotOverlay_%d", time.Now().UnixNano()))
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   overlayWndProcPtr,
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS)),
		HbrBackground: 0, // every pixel comes from the back buffer
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		ready <- fmt.Errorf("overlay surface: register window class failed")
		return
	}
	defer win.UnregisterClass(className)

	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST,
		className,
		syscall.StringToUTF16Ptr("SwiftShot"),
		win.WS_POPUP,
		int32(s.bounds.Min.X), int32(s.bounds.Min.Y),
		int32(s.bounds.Dx()), int32(s.bounds.Dy()),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		ready <- fmt.Errorf("overlay surface: create window failed")
		return
	}
	s.hwnd = hwnd

	if err := s.setupBackBuffer(); err != nil {
		win.DestroyWindow(hwnd)
		ready <- err
		return
	}

	surfacesMu.Lock()
	surfaces[hwnd] = s
	surfacesMu.Unlock()
	ready <- nil

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 { // WM_QUIT
			break
		}
		if ret == -1 {
			log.Printf("Overlay surface: GetMessage error")
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}

	surfacesMu.Lock()
	delete(surfaces, hwnd)
	surfacesMu.Unlock()
	s.teardownBackBuffer()
	close(s.events)
}

func (s *win32Surface) setupBackBuffer() error {
	w, h := s.bounds.Dx(), s.bounds.Dy()
	s.memDC = win.CreateCompatibleDC(0)
	if s.memDC == 0 {
		return fmt.Errorf("overlay surface: create memory DC failed")
	}
	bitmapInfo := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(w),
			BiHeight:      -int32(h), // negative for top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}
	var pBits unsafe.Pointer
	s.hBitmap = win.CreateDIBSection(s.memDC, &bitmapInfo.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if s.hBitmap == 0 || pBits == nil {
		win.DeleteDC(s.memDC)
		return fmt.Errorf("overlay surface: create DIB section failed")
	}
	s.oldBmp = win.SelectObject(s.memDC, win.HGDIOBJ(s.hBitmap))
	s.bits = unsafe.Slice((*byte)(pBits), w*h*4)
	return nil
}

func (s *win32Surface) teardownBackBuffer() {
	if s.memDC != 0 {
		win.SelectObject(s.memDC, s.oldBmp)
		win.DeleteObject(win.HGDIOBJ(s.hBitmap))
		win.DeleteDC(s.memDC)
		s.memDC = 0
	}
}

func (s *win32Surface) Show() error {
	if win.PostMessage(s.hwnd, wmShowSurface, 0, 0) == 0 {
		return fmt.Errorf("overlay surface: show request failed")
	}
	return nil
}

func (s *win32Surface) Hide() {
	win.PostMessage(s.hwnd, wmHideSurface, 0, 0)
}

func (s *win32Surface) Frame() *image.RGBA { return s.frame }

// Repaint converts the RGBA frame to the DIB's BGRA layout and schedules a
// paint on the pump thread.
func (s *win32Surface) Repaint() {
	pix := s.frame.Pix
	bits := s.bits
	if len(bits) < len(pix) {
		return
	}
	for i := 0; i+3 < len(pix); i += 4 {
		bits[i] = pix[i+2]
		bits[i+1] = pix[i+1]
		bits[i+2] = pix[i]
		bits[i+3] = pix[i+3]
	}
	win.PostMessage(s.hwnd, wmRepaint, 0, 0)
}

func (s *win32Surface) Events() <-chan Event { return s.events }

func (s *win32Surface) MoveCursor(dx, dy int) {
	var pt win.POINT
	procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	procSetCursorPos.Call(uintptr(pt.X+int32(dx)), uintptr(pt.Y+int32(dy)))
}

func (s *win32Surface) CursorPos() image.Point {
	var pt win.POINT
	procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	return image.Point{X: int(pt.X) - s.bounds.Min.X, Y: int(pt.Y) - s.bounds.Min.Y}
}

func (s *win32Surface) Bounds() image.Rectangle { return s.bounds }

func (s *win32Surface) Handle() winenum.Handle { return winenum.Handle(s.hwnd) }

func (s *win32Surface) Close() {
	s.closeOnce.Do(func() {
		win.PostMessage(s.hwnd, win.WM_CLOSE, 0, 0)
	})
	<-s.done
}

// post hands an event to the session without ever blocking the pump thread.
// Moves and ticks are lossy; a full buffer drops the event.
func (s *win32Surface) post(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	surfacesMu.Lock()
	s := surfaces[hwnd]
	surfacesMu.Unlock()
	if s == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case wmShowSurface:
		win.ShowWindow(hwnd, win.SW_SHOW)
		procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
		win.SetForegroundWindow(hwnd)
		win.BringWindowToTop(hwnd)
		win.SetFocus(hwnd)
		win.UpdateWindow(hwnd)
		if win.SetTimer(hwnd, refreshTimerID, refreshIntervalMs, 0) == 0 {
			log.Printf("Overlay surface: refresh timer failed to start")
		}
		return 0

	case wmHideSurface:
		win.KillTimer(hwnd, refreshTimerID)
		win.ShowWindow(hwnd, win.SW_HIDE)
		return 0

	case wmRepaint:
		win.InvalidateRect(hwnd, nil, false)
		win.UpdateWindow(hwnd)
		return 0

	case win.WM_MOUSEMOVE:
		s.post(PointerEvent{Pos: pointFromLParam(lParam), Kind: PointerMove})
		return 0

	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
		s.post(PointerEvent{Pos: pointFromLParam(lParam), Button: ButtonLeft, Kind: PointerDown})
		return 0

	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
		s.post(PointerEvent{Pos: pointFromLParam(lParam), Button: ButtonLeft, Kind: PointerUp})
		return 0

	case win.WM_RBUTTONDOWN:
		s.post(PointerEvent{Pos: pointFromLParam(lParam), Button: ButtonRight, Kind: PointerDown})
		return 0

	case win.WM_KEYDOWN:
		if key, ok := keyFromVK(wParam); ok {
			s.post(KeyEvent{Key: key, Ctrl: ctrlDown()})
		}
		return 0

	case win.WM_TIMER:
		if wParam == refreshTimerID {
			s.post(TickEvent{Now: time.Now()})
		}
		return 0

	case win.WM_PAINT:
		s.paint()
		return 0

	case win.WM_ERASEBKGND:
		// The back buffer covers everything; skipping the erase kills the
		// flicker at 60Hz.
		return 1

	case win.WM_CLOSE:
		win.KillTimer(hwnd, refreshTimerID)
		win.DestroyWindow(hwnd)
		return 0

	case win.WM_DESTROY:
		s.post(CloseEvent{})
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func (s *win32Surface) paint() {
	var ps win.PAINTSTRUCT
	hdc := win.BeginPaint(s.hwnd, &ps)
	if hdc == 0 {
		return
	}
	win.BitBlt(hdc, 0, 0, int32(s.bounds.Dx()), int32(s.bounds.Dy()), s.memDC, 0, 0, win.SRCCOPY)
	win.EndPaint(s.hwnd, &ps)
}

func pointFromLParam(lParam uintptr) image.Point {
	return image.Point{
		X: int(win.GET_X_LPARAM(lParam)),
		Y: int(win.GET_Y_LPARAM(lParam)),
	}
}

func ctrlDown() bool {
	ret, _, _ := procGetAsyncKeyState.Call(uintptr(win.VK_CONTROL))
	return uint16(ret)&0x8000 != 0
}

func keyFromVK(vk uintptr) (Key, bool) {
	switch vk {
	case win.VK_ESCAPE:
		return KeyEscape, true
	case win.VK_RETURN:
		return KeyEnter, true
	case win.VK_SPACE:
		return KeySpace, true
	case win.VK_PRIOR:
		return KeyPageUp, true
	case win.VK_NEXT:
		return KeyPageDown, true
	case win.VK_UP:
		return KeyUp, true
	case win.VK_DOWN:
		return KeyDown, true
	case win.VK_LEFT:
		return KeyLeft, true
	case win.VK_RIGHT:
		return KeyRight, true
	case 'S':
		return KeyS, true
	case 'C':
		return KeyC, true
	case 'Z':
		return KeyZ, true
	}
	return KeyNone, false
}
