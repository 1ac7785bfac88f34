//go:build !windows

package win32

// unsupportedAPI fails every call so the hard-fail and soft-fail paths of
// Service behave the same way they do when a window has gone away.
type unsupportedAPI struct{}

func newPlatformAPI() API { return unsupportedAPI{} }

func (unsupportedAPI) GetGUIThreadInfo(ThreadID) (GUIThreadInfo, error) {
	return GUIThreadInfo{}, ErrNotSupported
}

func (unsupportedAPI) GetWindowThreadProcessID(HWND) (ThreadID, ProcessID, error) {
	return 0, 0, ErrNotSupported
}

func (unsupportedAPI) GetCurrentProcessID() ProcessID { return 0 }

func (unsupportedAPI) GetAncestor(HWND, uint32) HWND { return 0 }

func (unsupportedAPI) GetCursorPos() (Point, error) { return Point{}, ErrNotSupported }

func (unsupportedAPI) ScreenToClient(_ HWND, pt Point) (Point, error) {
	return pt, ErrNotSupported
}

func (unsupportedAPI) ClientToScreen(_ HWND, pt Point) (Point, error) {
	return pt, ErrNotSupported
}

func (unsupportedAPI) GetWindowRect(HWND) (Rect, error) { return Rect{}, ErrNotSupported }

func (unsupportedAPI) GetWindowTextLength(HWND) int { return 0 }

func (unsupportedAPI) GetWindowText(HWND, []uint16) int { return 0 }

func (unsupportedAPI) SendMessage(HWND, uint32, uintptr, uintptr) uintptr { return 0 }

func (unsupportedAPI) SendMessageBuffer(HWND, uint32, []uint16) uintptr { return 0 }

func (unsupportedAPI) GetClassName(HWND, []uint16) (int, error) { return 0, ErrNotSupported }

func (unsupportedAPI) ShowWindow(HWND, int32) (bool, error) { return false, ErrNotSupported }

func (unsupportedAPI) IsWindow(HWND) bool { return false }

func (unsupportedAPI) GetModuleHandle(string) (ModuleHandle, error) {
	return 0, ErrNotSupported
}

func (unsupportedAPI) FindWindow(string, string) HWND { return 0 }

func (unsupportedAPI) GetWindowLong(HWND, int32) int32 { return 0 }

func (unsupportedAPI) SetWindowLong(HWND, int32, int32) (int32, error) {
	return 0, ErrNotSupported
}

func (unsupportedAPI) MoveWindow(HWND, int32, int32, int32, int32, bool) error {
	return ErrNotSupported
}

func (unsupportedAPI) SetParent(HWND, HWND) (HWND, error) { return 0, ErrNotSupported }
