package win32

import (
	"errors"
	"sync"
	"unicode/utf16"
)

type fakeWindow struct {
	pid     ProcessID
	tid     ThreadID
	parent  HWND
	class   string
	caption string
	text    string
	rect    Rect
	visible bool
	exStyle int32
}

// fakeAPI is an in-memory window tree standing in for user32.
type fakeAPI struct {
	mu sync.Mutex

	windows map[HWND]*fakeWindow
	self    ProcessID
	focus   HWND
	cursor  Point
	modules map[string]ModuleHandle

	caretOwner HWND
	caretRect  Rect

	guiErr       error
	cursorErr    error
	translateErr error
	setLongErr   error
	moveErr      error
	panicOnShow  bool

	calls []string
}

func newFakeAPI(self ProcessID) *fakeAPI {
	return &fakeAPI{
		windows: make(map[HWND]*fakeWindow),
		self:    self,
		modules: make(map[string]ModuleHandle),
	}
}

func (f *fakeAPI) add(hwnd HWND, w *fakeWindow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w.tid == 0 {
		w.tid = 1
	}
	f.windows[hwnd] = w
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) lookup(hwnd HWND) (*fakeWindow, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[hwnd]
	return w, ok
}

var errNoWindow = errors.New("no such window")

func (f *fakeAPI) GetGUIThreadInfo(ThreadID) (GUIThreadInfo, error) {
	f.record("GetGUIThreadInfo")
	if f.guiErr != nil {
		return GUIThreadInfo{}, f.guiErr
	}
	return GUIThreadInfo{Focus: f.focus, CaretOwner: f.caretOwner, CaretRect: f.caretRect}, nil
}

func (f *fakeAPI) GetWindowThreadProcessID(hwnd HWND) (ThreadID, ProcessID, error) {
	f.record("GetWindowThreadProcessID")
	w, ok := f.lookup(hwnd)
	if !ok {
		return 0, 0, errNoWindow
	}
	return w.tid, w.pid, nil
}

func (f *fakeAPI) GetCurrentProcessID() ProcessID { return f.self }

func (f *fakeAPI) GetAncestor(hwnd HWND, flags uint32) HWND {
	w, ok := f.lookup(hwnd)
	if !ok {
		return 0
	}
	if flags == _GA_PARENT {
		return w.parent
	}
	for w.parent != 0 {
		hwnd = w.parent
		if w, ok = f.lookup(hwnd); !ok {
			return 0
		}
	}
	return hwnd
}

func (f *fakeAPI) GetCursorPos() (Point, error) {
	if f.cursorErr != nil {
		return Point{}, f.cursorErr
	}
	return f.cursor, nil
}

func (f *fakeAPI) ScreenToClient(hwnd HWND, pt Point) (Point, error) {
	if f.translateErr != nil {
		return pt, f.translateErr
	}
	w, ok := f.lookup(hwnd)
	if !ok {
		return pt, errNoWindow
	}
	return Point{X: pt.X - w.rect.Left, Y: pt.Y - w.rect.Top}, nil
}

func (f *fakeAPI) ClientToScreen(hwnd HWND, pt Point) (Point, error) {
	if f.translateErr != nil {
		return pt, f.translateErr
	}
	w, ok := f.lookup(hwnd)
	if !ok {
		return pt, errNoWindow
	}
	return Point{X: pt.X + w.rect.Left, Y: pt.Y + w.rect.Top}, nil
}

func (f *fakeAPI) GetWindowRect(hwnd HWND) (Rect, error) {
	w, ok := f.lookup(hwnd)
	if !ok {
		return Rect{}, errNoWindow
	}
	return w.rect, nil
}

func (f *fakeAPI) GetWindowTextLength(hwnd HWND) int {
	w, ok := f.lookup(hwnd)
	if !ok {
		return 0
	}
	return len(utf16.Encode([]rune(w.caption)))
}

func (f *fakeAPI) GetWindowText(hwnd HWND, buf []uint16) int {
	w, ok := f.lookup(hwnd)
	if !ok {
		return 0
	}
	return fill(buf, w.caption)
}

func (f *fakeAPI) SendMessage(hwnd HWND, msg uint32, wParam, lParam uintptr) uintptr {
	w, ok := f.lookup(hwnd)
	if !ok {
		return 0
	}
	switch msg {
	case _WM_GETTEXTLENGTH:
		return uintptr(len(utf16.Encode([]rune(w.text))))
	case _EM_POSFROMCHAR:
		index := int(wParam)
		if index > len(utf16.Encode([]rune(w.text))) {
			return ^uintptr(0)
		}
		x := uint32(index * 8)
		y := uint32(3)
		return uintptr(y<<16 | x)
	}
	return 0
}

func (f *fakeAPI) SendMessageBuffer(hwnd HWND, msg uint32, buf []uint16) uintptr {
	w, ok := f.lookup(hwnd)
	if !ok || msg != _WM_GETTEXT {
		return 0
	}
	return uintptr(fill(buf, w.text))
}

func (f *fakeAPI) GetClassName(hwnd HWND, buf []uint16) (int, error) {
	w, ok := f.lookup(hwnd)
	if !ok {
		return 0, errNoWindow
	}
	return fill(buf, w.class), nil
}

func (f *fakeAPI) ShowWindow(hwnd HWND, cmd int32) (bool, error) {
	if f.panicOnShow {
		panic("proc not found")
	}
	w, ok := f.lookup(hwnd)
	if !ok {
		return false, errNoWindow
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	was := w.visible
	w.visible = cmd != _SW_HIDE
	return was, nil
}

func (f *fakeAPI) IsWindow(hwnd HWND) bool {
	_, ok := f.lookup(hwnd)
	return ok
}

func (f *fakeAPI) GetModuleHandle(name string) (ModuleHandle, error) {
	h, ok := f.modules[name]
	if !ok {
		return 0, errors.New("module not found")
	}
	return h, nil
}

func (f *fakeAPI) FindWindow(className, title string) HWND {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hwnd, w := range f.windows {
		if w.parent != 0 {
			continue
		}
		if (className == "" || w.class == className) && (title == "" || w.caption == title) {
			return hwnd
		}
	}
	return 0
}

func (f *fakeAPI) GetWindowLong(hwnd HWND, index int32) int32 {
	w, ok := f.lookup(hwnd)
	if !ok || index != _GWL_EXSTYLE {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return w.exStyle
}

func (f *fakeAPI) SetWindowLong(hwnd HWND, index int32, value int32) (int32, error) {
	f.record("SetWindowLong")
	if f.setLongErr != nil {
		return 0, f.setLongErr
	}
	w, ok := f.lookup(hwnd)
	if !ok {
		return 0, errNoWindow
	}
	if index != _GWL_EXSTYLE {
		return 0, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := w.exStyle
	w.exStyle = value
	return prev, nil
}

// MoveWindow takes parent-relative coordinates like the native call. The
// fake stores screen rects, so child origins are shifted by the parent's.
func (f *fakeAPI) MoveWindow(hwnd HWND, x, y, width, height int32, repaint bool) error {
	f.record("MoveWindow")
	if f.moveErr != nil {
		return f.moveErr
	}
	w, ok := f.lookup(hwnd)
	if !ok {
		return errNoWindow
	}
	if w.parent != 0 {
		if p, ok := f.lookup(w.parent); ok {
			x += p.rect.Left
			y += p.rect.Top
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w.rect = Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
	return nil
}

func (f *fakeAPI) SetParent(child, parent HWND) (HWND, error) {
	f.record("SetParent")
	w, ok := f.lookup(child)
	if !ok {
		return 0, errNoWindow
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := w.parent
	w.parent = parent
	return prev, nil
}

// fill copies s into buf the way the native calls do: truncate to leave room
// for the terminator, write the terminator, return units copied.
func fill(buf []uint16, s string) int {
	if len(buf) == 0 {
		return 0
	}
	units := utf16.Encode([]rune(s))
	n := copy(buf[:len(buf)-1], units)
	buf[n] = 0
	return n
}
