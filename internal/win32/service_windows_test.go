//go:build windows

package win32

import (
	"runtime"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

var (
	procCreateWindowExW = user32.NewProc("CreateWindowExW")
	procDestroyWindow   = user32.NewProc("DestroyWindow")
	procSetWindowTextW  = user32.NewProc("SetWindowTextW")
	procGetShellWindow  = user32.NewProc("GetShellWindow")
)

const (
	_WS_OVERLAPPED  = 0x00000000
	_WS_CHILD       = 0x40000000
	_WS_VISIBLE     = 0x10000000
	_ES_AUTOHSCROLL = 0x0080
)

// createWindow makes a real window on the calling (locked) thread and
// destroys it when the test ends.
func createWindow(t *testing.T, class, text string, style uint32, parent HWND, x, y, w, h int32) HWND {
	t.Helper()
	classPtr, err := windows.UTF16PtrFromString(class)
	require.NoError(t, err)
	textPtr, err := windows.UTF16PtrFromString(text)
	require.NoError(t, err)

	ret, _, callErr := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(classPtr)),
		uintptr(unsafe.Pointer(textPtr)),
		uintptr(style),
		uintptr(x), uintptr(y), uintptr(w), uintptr(h),
		uintptr(parent),
		0, 0, 0,
	)
	require.NotZero(t, ret, "CreateWindowExW(%s): %v", class, callErr)

	hwnd := HWND(ret)
	t.Cleanup(func() { destroyWindow(hwnd) })
	return hwnd
}

func destroyWindow(hwnd HWND) {
	procDestroyWindow.Call(uintptr(hwnd))
}

func setText(t *testing.T, hwnd HWND, text string) {
	t.Helper()
	p, err := windows.UTF16PtrFromString(text)
	require.NoError(t, err)
	ret, _, callErr := procSetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(p)))
	require.NotZero(t, ret, "SetWindowTextW: %v", callErr)
}

func lockThread(t *testing.T) {
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)
}

func TestNative_RootAncestorAndOwnership(t *testing.T) {
	lockThread(t)
	svc := New()

	top := createWindow(t, "STATIC", "host", _WS_OVERLAPPED, 0, 0, 0, 200, 100)
	child := createWindow(t, "EDIT", "", _WS_CHILD, top, 0, 0, 100, 20)

	assert.Equal(t, top, svc.GetRootAncestor(child))
	assert.Equal(t, top, svc.GetRootAncestor(top))

	own, err := svc.IsOwnWindow(child)
	require.NoError(t, err)
	assert.True(t, own)

	shell, _, _ := procGetShellWindow.Call()
	if shell == 0 {
		t.Skip("no shell window in this session")
	}
	own, err = svc.IsOwnWindow(HWND(shell))
	require.NoError(t, err)
	assert.False(t, own)
}

func TestNative_WindowBounds(t *testing.T) {
	lockThread(t)
	svc := New()

	hwnd := createWindow(t, "STATIC", "", _WS_OVERLAPPED, 0, 0, 0, 100, 50)

	b := svc.GetWindowBounds(hwnd)
	require.False(t, b.IsEmpty())
	// CreateWindow sizes are exclusive, so right-left == 100 and the
	// inclusive convention adds one.
	assert.Equal(t, 101, b.Width)
	assert.Equal(t, 51, b.Height)

	destroyWindow(hwnd)
	assert.True(t, svc.GetWindowBounds(hwnd).IsEmpty())
}

func TestNative_TextExtraction(t *testing.T) {
	lockThread(t)
	svc := New()

	top := createWindow(t, "STATIC", "", _WS_OVERLAPPED, 0, 0, 0, 400, 100)
	edit := createWindow(t, "EDIT", "", _WS_CHILD|_ES_AUTOHSCROLL, top, 0, 0, 300, 20)

	for _, text := range []string{"", "SUM(", strings.Repeat("=A1+", 750)} {
		setText(t, edit, text)
		assert.Equal(t, text, svc.GetText(edit))
		assert.Equal(t, text, svc.GetWindowTextRaw(edit))
	}
}

func TestNative_ClassNames(t *testing.T) {
	lockThread(t)
	svc := New()

	top := createWindow(t, "STATIC", "", _WS_OVERLAPPED, 0, 0, 0, 200, 100)
	edit := createWindow(t, "EDIT", "", _WS_CHILD, top, 0, 0, 100, 20)
	button := createWindow(t, "BUTTON", "", _WS_CHILD, top, 0, 30, 100, 20)

	assert.Equal(t, "Static", svc.GetClassName(top))
	assert.Equal(t, "Edit", svc.GetClassName(edit))
	assert.Equal(t, "Button", svc.GetClassName(button))
	assert.Equal(t, "Static", svc.GetClassName(top))
}

func TestNative_HideWindow(t *testing.T) {
	lockThread(t)
	svc := New()

	hwnd := createWindow(t, "STATIC", "", _WS_OVERLAPPED|_WS_VISIBLE, 0, 0, 0, 100, 50)

	res := svc.HideWindow(hwnd)
	assert.True(t, res.Ok())
	assert.NoError(t, res.Err)

	destroyWindow(hwnd)
	res = svc.HideWindow(hwnd)
	assert.False(t, res.Ok())
	assert.ErrorIs(t, res.Err, ErrInvalidWindow)
}

func TestNative_PosFromChar(t *testing.T) {
	lockThread(t)
	svc := New()

	top := createWindow(t, "STATIC", "", _WS_OVERLAPPED, 0, 0, 0, 400, 100)
	edit := createWindow(t, "EDIT", "", _WS_CHILD, top, 0, 0, 300, 20)
	setText(t, edit, "=SUM(A1")

	first, ok := DecodePosFromChar(svc.GetPosFromChar(edit, 0))
	require.True(t, ok)
	later, ok := DecodePosFromChar(svc.GetPosFromChar(edit, 4))
	require.True(t, ok)
	assert.Greater(t, later.X, first.X)
	assert.Equal(t, first.Y, later.Y)
}

func TestNative_ProcessAndModule(t *testing.T) {
	svc := New()
	assert.Equal(t, ProcessID(windows.GetCurrentProcessId()), svc.GetHostProcessID())

	h, err := svc.GetAddInModuleHandle()
	require.NoError(t, err)
	assert.NotZero(t, h)

	_, err = New(WithAddInPath(`C:\definitely\not\loaded.xll`)).GetAddInModuleHandle()
	assert.ErrorIs(t, err, ErrQueryFailed)
}

func TestNative_FindAndClickThrough(t *testing.T) {
	lockThread(t)
	svc := New()

	title := "xlsense-popup-test"
	popup := createWindow(t, "STATIC", title, _WS_OVERLAPPED, 0, 0, 0, 120, 80)

	require.Equal(t, popup, svc.FindWindowByTitle(title))

	require.NoError(t, svc.SetClickThrough(popup, true))
	style := user32API{}.GetWindowLong(popup, _GWL_EXSTYLE)
	assert.NotZero(t, style&_WS_EX_TRANSPARENT)
	assert.NotZero(t, style&_WS_EX_LAYERED)

	require.NoError(t, svc.SetClickThrough(popup, false))
	style = user32API{}.GetWindowLong(popup, _GWL_EXSTYLE)
	assert.Zero(t, style&_WS_EX_TRANSPARENT)
}

func TestNative_PlaceAndReparentPopup(t *testing.T) {
	lockThread(t)
	svc := New()

	popup := createWindow(t, "STATIC", "xlsense-place-test", _WS_OVERLAPPED, 0, 0, 0, 120, 80)
	before := svc.GetWindowBounds(popup)
	require.NoError(t, svc.PlacePopup(popup, Point{X: 200, Y: 150}))

	b := svc.GetWindowBounds(popup)
	assert.Equal(t, 200, b.X)
	assert.Equal(t, 150, b.Y)
	assert.Equal(t, before.Width, b.Width, "size is kept")
	assert.Equal(t, before.Height, b.Height)

	first := createWindow(t, "STATIC", "host-a", _WS_OVERLAPPED, 0, 0, 0, 400, 300)
	second := createWindow(t, "STATIC", "host-b", _WS_OVERLAPPED, 0, 300, 300, 400, 300)
	child := createWindow(t, "STATIC", "", _WS_CHILD, first, 0, 0, 60, 20)

	prev, err := svc.SetParent(child, second)
	require.NoError(t, err)
	assert.Equal(t, first, prev)
	assert.Equal(t, second, svc.GetRootAncestor(child))

	origin, ok := svc.ClientToScreen(second, Point{X: 10, Y: 20})
	require.True(t, ok)
	require.NoError(t, svc.PlacePopup(child, origin))

	b = svc.GetWindowBounds(child)
	assert.Equal(t, int(origin.X), b.X)
	assert.Equal(t, int(origin.Y), b.Y)
}
