package win32

// Native message and flag numbers. These must match the platform headers.
const (
	_WM_GETTEXT       uint32 = 0x000D
	_WM_GETTEXTLENGTH uint32 = 0x000E
	_EM_POSFROMCHAR   uint32 = 0x00D6

	_SW_HIDE int32 = 0

	_GA_PARENT uint32 = 1
	_GA_ROOT   uint32 = 2

	_GWL_EXSTYLE       int32 = -20
	_WS_EX_TRANSPARENT int32 = 0x00000020
	_WS_EX_LAYERED     int32 = 0x00080000
)

// API is the set of raw windowing calls the Service is built on. The
// Windows implementation binds them to user32/kernel32; other platforms
// get a stub that fails every call with ErrNotSupported.
//
// Implementations are thin: no retries, no caching, no logging.
type API interface {
	GetGUIThreadInfo(thread ThreadID) (GUIThreadInfo, error)
	GetWindowThreadProcessID(hwnd HWND) (ThreadID, ProcessID, error)
	GetCurrentProcessID() ProcessID
	GetAncestor(hwnd HWND, flags uint32) HWND
	GetCursorPos() (Point, error)
	ScreenToClient(hwnd HWND, pt Point) (Point, error)
	ClientToScreen(hwnd HWND, pt Point) (Point, error)
	GetWindowRect(hwnd HWND) (Rect, error)
	GetWindowTextLength(hwnd HWND) int
	// GetWindowText fills buf and returns the number of units copied,
	// excluding the terminator.
	GetWindowText(hwnd HWND, buf []uint16) int
	SendMessage(hwnd HWND, msg uint32, wParam, lParam uintptr) uintptr
	// SendMessageBuffer sends msg with wParam=len(buf) and lParam=&buf[0].
	SendMessageBuffer(hwnd HWND, msg uint32, buf []uint16) uintptr
	GetClassName(hwnd HWND, buf []uint16) (int, error)
	ShowWindow(hwnd HWND, cmd int32) (bool, error)
	IsWindow(hwnd HWND) bool
	// GetModuleHandle resolves a loaded module by path; "" means the
	// process executable.
	GetModuleHandle(name string) (ModuleHandle, error)
	// FindWindow matches top-level windows; "" leaves a criterion out.
	FindWindow(className, title string) HWND
	GetWindowLong(hwnd HWND, index int32) int32
	// SetWindowLong returns the previous value. A zero previous value is
	// not a failure on its own.
	SetWindowLong(hwnd HWND, index int32, value int32) (int32, error)
	// MoveWindow takes the new origin and size in the parent's client
	// coordinates, or screen coordinates for a top-level window.
	MoveWindow(hwnd HWND, x, y, width, height int32, repaint bool) error
	// SetParent returns the previous parent.
	SetParent(child, parent HWND) (HWND, error)
}
