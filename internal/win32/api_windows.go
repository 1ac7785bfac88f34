//go:build windows

package win32

import (
	"errors"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazyDLL("user32.dll")
	kernel32 = windows.NewLazyDLL("kernel32.dll")

	procGetGUIThreadInfo         = user32.NewProc("GetGUIThreadInfo")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetAncestor              = user32.NewProc("GetAncestor")
	procGetCursorPos             = user32.NewProc("GetCursorPos")
	procScreenToClient           = user32.NewProc("ScreenToClient")
	procClientToScreen           = user32.NewProc("ClientToScreen")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procSendMessageW             = user32.NewProc("SendMessageW")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procShowWindow               = user32.NewProc("ShowWindow")
	procIsWindow                 = user32.NewProc("IsWindow")
	procFindWindowW              = user32.NewProc("FindWindowW")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
	procSetWindowLongW           = user32.NewProc("SetWindowLongW")
	procMoveWindow               = user32.NewProc("MoveWindow")
	procSetParent                = user32.NewProc("SetParent")

	procSetLastError = kernel32.NewProc("SetLastError")
)

// GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT: look up without pinning.
const _GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT = 0x00000002

var errNoErrorCode = errors.New("call failed without an error code")

type user32API struct{}

func newPlatformAPI() API { return user32API{} }

// callError turns the lastErr of a failed proc call into something useful.
// Many user32 calls fail without setting an error code.
func callError(err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) && errno == 0 {
		return errNoErrorCode
	}
	return err
}

func (user32API) GetGUIThreadInfo(thread ThreadID) (GUIThreadInfo, error) {
	var info GUIThreadInfo
	info.Size = uint32(unsafe.Sizeof(info))
	ret, _, err := procGetGUIThreadInfo.Call(uintptr(thread), uintptr(unsafe.Pointer(&info)))
	if ret == 0 {
		return GUIThreadInfo{}, callError(err)
	}
	return info, nil
}

func (user32API) GetWindowThreadProcessID(hwnd HWND) (ThreadID, ProcessID, error) {
	var pid uint32
	tid, _, err := procGetWindowThreadProcessId.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&pid)))
	if tid == 0 {
		return 0, 0, callError(err)
	}
	return ThreadID(tid), ProcessID(pid), nil
}

func (user32API) GetCurrentProcessID() ProcessID {
	return ProcessID(windows.GetCurrentProcessId())
}

func (user32API) GetAncestor(hwnd HWND, flags uint32) HWND {
	ret, _, _ := procGetAncestor.Call(uintptr(hwnd), uintptr(flags))
	return HWND(ret)
}

func (user32API) GetCursorPos() (Point, error) {
	var pt Point
	ret, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return pt, callError(err)
	}
	return pt, nil
}

func (user32API) ScreenToClient(hwnd HWND, pt Point) (Point, error) {
	client := pt
	ret, _, err := procScreenToClient.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&client)))
	if ret == 0 {
		return pt, callError(err)
	}
	return client, nil
}

func (user32API) ClientToScreen(hwnd HWND, pt Point) (Point, error) {
	screen := pt
	ret, _, err := procClientToScreen.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&screen)))
	if ret == 0 {
		return pt, callError(err)
	}
	return screen, nil
}

func (user32API) GetWindowRect(hwnd HWND) (Rect, error) {
	var r Rect
	ret, _, err := procGetWindowRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return Rect{}, callError(err)
	}
	return r, nil
}

func (user32API) GetWindowTextLength(hwnd HWND) int {
	ret, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	return int(int32(ret))
}

func (user32API) GetWindowText(hwnd HWND, buf []uint16) int {
	if len(buf) == 0 {
		return 0
	}
	ret, _, _ := procGetWindowTextW.Call(
		uintptr(hwnd),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	return int(int32(ret))
}

func (user32API) SendMessage(hwnd HWND, msg uint32, wParam, lParam uintptr) uintptr {
	ret, _, _ := procSendMessageW.Call(uintptr(hwnd), uintptr(msg), wParam, lParam)
	return ret
}

func (user32API) SendMessageBuffer(hwnd HWND, msg uint32, buf []uint16) uintptr {
	if len(buf) == 0 {
		return 0
	}
	ret, _, _ := procSendMessageW.Call(
		uintptr(hwnd),
		uintptr(msg),
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&buf[0])),
	)
	return ret
}

func (user32API) GetClassName(hwnd HWND, buf []uint16) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	ret, _, err := procGetClassNameW.Call(
		uintptr(hwnd),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if ret == 0 {
		return 0, callError(err)
	}
	return int(ret), nil
}

func (user32API) ShowWindow(hwnd HWND, cmd int32) (bool, error) {
	ret, _, err := procShowWindow.Call(uintptr(hwnd), uintptr(cmd))
	if ret == 0 {
		// Zero also means "was already hidden", which is not a failure.
		var errno syscall.Errno
		if errors.As(err, &errno) && errno == windows.ERROR_INVALID_WINDOW_HANDLE {
			return false, err
		}
	}
	return ret != 0, nil
}

func (user32API) IsWindow(hwnd HWND) bool {
	ret, _, _ := procIsWindow.Call(uintptr(hwnd))
	return ret != 0
}

func (user32API) GetModuleHandle(name string) (ModuleHandle, error) {
	var namePtr *uint16
	if name != "" {
		p, err := windows.UTF16PtrFromString(name)
		if err != nil {
			return 0, err
		}
		namePtr = p
	}
	var h windows.Handle
	if err := windows.GetModuleHandleEx(_GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT, namePtr, &h); err != nil {
		return 0, err
	}
	return ModuleHandle(h), nil
}

func (user32API) FindWindow(className, title string) HWND {
	classPtr, err := optionalUTF16Ptr(className)
	if err != nil {
		return 0
	}
	titlePtr, err := optionalUTF16Ptr(title)
	if err != nil {
		return 0
	}
	ret, _, _ := procFindWindowW.Call(
		uintptr(unsafe.Pointer(classPtr)),
		uintptr(unsafe.Pointer(titlePtr)),
	)
	return HWND(ret)
}

func (user32API) GetWindowLong(hwnd HWND, index int32) int32 {
	ret, _, _ := procGetWindowLongW.Call(uintptr(hwnd), uintptr(index))
	return int32(ret)
}

func (user32API) SetWindowLong(hwnd HWND, index int32, value int32) (int32, error) {
	procSetLastError.Call(0)
	ret, _, err := procSetWindowLongW.Call(uintptr(hwnd), uintptr(index), uintptr(value))
	if ret == 0 && failed(err) {
		return 0, err
	}
	return int32(ret), nil
}

func (user32API) MoveWindow(hwnd HWND, x, y, width, height int32, repaint bool) error {
	var bRepaint uintptr
	if repaint {
		bRepaint = 1
	}
	ret, _, err := procMoveWindow.Call(
		uintptr(hwnd),
		uintptr(x), uintptr(y),
		uintptr(width), uintptr(height),
		bRepaint,
	)
	if ret == 0 {
		return callError(err)
	}
	return nil
}

func (user32API) SetParent(child, parent HWND) (HWND, error) {
	procSetLastError.Call(0)
	ret, _, err := procSetParent.Call(uintptr(child), uintptr(parent))
	if ret == 0 && failed(err) {
		return 0, err
	}
	return HWND(ret), nil
}

// failed reports whether err carries a real error code. Use it for calls
// whose zero return is also a legitimate value, after clearing the code.
func failed(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno != 0
}

// optionalUTF16Ptr returns nil for "" so the call treats it as a wildcard.
func optionalUTF16Ptr(s string) (*uint16, error) {
	if s == "" {
		return nil, nil
	}
	return windows.UTF16PtrFromString(s)
}
