// Package win32 locates, measures and reads native windows that belong to
// the host process, and tells them apart from windows owned by anything else
// on the desktop.
//
// Every Service method is a synchronous round-trip into the windowing
// subsystem. Callers must invoke them from a thread with an active UI
// message context; in Go that means a goroutine that has called
// runtime.LockOSThread. Nothing here spawns goroutines or applies timeouts,
// and a target window that stops pumping messages can block GetWindowTextRaw
// and GetPosFromChar.
package win32

import (
	"fmt"
	"sync"
	"unicode/utf16"

	"go.uber.org/zap"
)

// classNameCapacity is the scratch size for class-name lookups, in UTF-16 units.
const classNameCapacity = 65000

// Service is the window introspection service. It holds no window state;
// the only owned resource is a pool of class-name scratch buffers.
type Service struct {
	api       API
	logger    *zap.Logger
	addInPath string
	classBufs sync.Pool
}

// Option configures a Service.
type Option func(*Service)

// WithAPI replaces the platform API.
func WithAPI(api API) Option {
	return func(s *Service) { s.api = api }
}

// WithLogger sets the logger used for soft-fail diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAddInPath sets the path of the add-in binary loaded into the host.
func WithAddInPath(path string) Option {
	return func(s *Service) { s.addInPath = path }
}

// New creates a new introspection service over the platform API.
func New(opts ...Option) *Service {
	s := &Service{
		api:    newPlatformAPI(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "win32"))
	s.classBufs.New = func() any {
		buf := make([]uint16, classNameCapacity)
		return &buf
	}
	return s
}

// GetFocusedWindowHandle returns the window holding keyboard focus if it
// belongs to this process, and 0 otherwise. A failed OS query is reported
// as a *QueryError matching ErrQueryFailed.
func (s *Service) GetFocusedWindowHandle() (HWND, error) {
	info, err := s.api.GetGUIThreadInfo(0)
	if err != nil {
		return 0, &QueryError{Op: "GetGUIThreadInfo", Err: err}
	}

	focused := info.Focus
	if focused == 0 {
		return 0, nil
	}

	own, err := s.IsOwnWindow(focused)
	if err != nil {
		return 0, err
	}
	if !own {
		return 0, nil
	}
	return focused, nil
}

// IsOwnWindow reports whether hwnd is owned by the calling process.
func (s *Service) IsOwnWindow(hwnd HWND) (bool, error) {
	threadID, processID, err := s.api.GetWindowThreadProcessID(hwnd)
	if err != nil || threadID == 0 {
		return false, &QueryError{Op: "GetWindowThreadProcessId", Err: err}
	}
	return processID == s.api.GetCurrentProcessID(), nil
}

// IsWindow reports whether hwnd still names an existing window.
func (s *Service) IsWindow(hwnd HWND) bool {
	if !hwnd.IsValid() {
		return false
	}
	return s.api.IsWindow(hwnd)
}

// GetRootAncestor walks the parent chain to the top-level window. A
// top-level window is its own root; an invalid handle yields 0.
func (s *Service) GetRootAncestor(hwnd HWND) HWND {
	return s.api.GetAncestor(hwnd, _GA_ROOT)
}

// GetClientCursorPos returns the pointer position in hwnd's client
// coordinates. Cursor tracking is advisory: if either query fails the
// best-effort point is returned.
func (s *Service) GetClientCursorPos(hwnd HWND) Point {
	pt, err := s.api.GetCursorPos()
	if err != nil {
		s.logger.Debug("GetCursorPos failed", zap.Error(err))
		return pt
	}
	client, err := s.api.ScreenToClient(hwnd, pt)
	if err != nil {
		s.logger.Debug("ScreenToClient failed", zap.Stringer("hwnd", hwnd), zap.Error(err))
		return pt
	}
	return client
}

// ClientToScreen converts a point in hwnd's client coordinates to screen
// coordinates. ok is false when the window is gone.
func (s *Service) ClientToScreen(hwnd HWND, pt Point) (Point, bool) {
	screen, err := s.api.ClientToScreen(hwnd, pt)
	if err != nil {
		s.logger.Debug("ClientToScreen failed", zap.Stringer("hwnd", hwnd), zap.Error(err))
		return pt, false
	}
	return screen, true
}

// GetCaretHeight returns the height of the caret hwnd is showing, which is
// the height of the text line it sits on. It is 0 when hwnd does not own
// the caret of its thread.
func (s *Service) GetCaretHeight(hwnd HWND) int {
	threadID, _, err := s.api.GetWindowThreadProcessID(hwnd)
	if err != nil || threadID == 0 {
		return 0
	}
	info, err := s.api.GetGUIThreadInfo(threadID)
	if err != nil {
		s.logger.Debug("GetGUIThreadInfo failed", zap.Stringer("hwnd", hwnd), zap.Error(err))
		return 0
	}
	if info.CaretOwner != hwnd {
		return 0
	}
	return max(int(info.CaretRect.Bottom-info.CaretRect.Top), 0)
}

// GetWindowBounds returns hwnd's screen-space bounds, or EmptyBounds when
// the window is gone or inaccessible.
func (s *Service) GetWindowBounds(hwnd HWND) Bounds {
	r, err := s.api.GetWindowRect(hwnd)
	if err != nil {
		s.logger.Debug("GetWindowRect failed", zap.Stringer("hwnd", hwnd), zap.Error(err))
		return EmptyBounds
	}
	return BoundsFromRect(r)
}

// GetText reads a window's caption: measure with GetWindowTextLength, then
// fill a buffer of exactly that size.
func (s *Service) GetText(hwnd HWND) string {
	length := s.api.GetWindowTextLength(hwnd)
	if length <= 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	n := s.api.GetWindowText(hwnd, buf)
	return decode(buf, n)
}

// GetWindowTextRaw reads a control's text with WM_GETTEXTLENGTH and
// WM_GETTEXT. It works on controls that answer the text message but do
// not expose a caption, and marshals across process boundaries.
func (s *Service) GetWindowTextRaw(hwnd HWND) string {
	length := int(s.api.SendMessage(hwnd, _WM_GETTEXTLENGTH, 0, 0))
	if length <= 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	n := int(s.api.SendMessageBuffer(hwnd, _WM_GETTEXT, buf))
	return decode(buf, n)
}

// GetClassName returns the registered window class of hwnd, or "" if the
// lookup fails. Safe for concurrent use.
func (s *Service) GetClassName(hwnd HWND) string {
	bufp := s.classBufs.Get().(*[]uint16)
	defer s.classBufs.Put(bufp)

	n, err := s.api.GetClassName(hwnd, *bufp)
	if err != nil {
		s.logger.Debug("GetClassName failed", zap.Stringer("hwnd", hwnd), zap.Error(err))
		return ""
	}
	return decode(*bufp, n)
}

// HideWindow asks the windowing system to hide hwnd. It never panics and
// never returns an error directly; failures are carried in the result.
func (s *Service) HideWindow(hwnd HWND) (result HideResult) {
	defer func() {
		if r := recover(); r != nil {
			result = HideResult{Err: fmt.Errorf("ShowWindow panicked: %v", r)}
		}
	}()

	if !s.IsWindow(hwnd) {
		return HideResult{Err: fmt.Errorf("failed to hide %s: %w", hwnd, ErrInvalidWindow)}
	}
	hidden, err := s.api.ShowWindow(hwnd, _SW_HIDE)
	if err != nil {
		return HideResult{Hidden: hidden, Err: fmt.Errorf("failed to hide %s: %w", hwnd, err)}
	}
	return HideResult{Hidden: hidden}
}

// FindWindowByTitle returns the top-level window with the given caption,
// or 0 when there is none.
func (s *Service) FindWindowByTitle(title string) HWND {
	if title == "" {
		return 0
	}
	return s.api.FindWindow("", title)
}

// SetClickThrough makes hwnd let mouse input fall through to whatever is
// underneath it, or restores normal hit-testing. The window is left
// layered either way.
func (s *Service) SetClickThrough(hwnd HWND, enable bool) error {
	if !s.IsWindow(hwnd) {
		return fmt.Errorf("failed to set click-through on %s: %w", hwnd, ErrInvalidWindow)
	}

	cur := s.api.GetWindowLong(hwnd, _GWL_EXSTYLE)
	style := cur | _WS_EX_LAYERED
	if enable {
		style |= _WS_EX_TRANSPARENT
	} else {
		style &^= _WS_EX_TRANSPARENT
	}
	if style == cur {
		return nil
	}

	if _, err := s.api.SetWindowLong(hwnd, _GWL_EXSTYLE, style); err != nil {
		return fmt.Errorf("failed to set click-through on %s: %w", hwnd, err)
	}
	s.logger.Debug("Window style updated",
		zap.Stringer("hwnd", hwnd),
		zap.Bool("click_through", enable))
	return nil
}

// PlacePopup moves hwnd so its top-left corner is at pt, in screen
// coordinates, keeping its size. A popup that has been reparented into
// another window is positioned relative to that window's client area.
func (s *Service) PlacePopup(hwnd HWND, pt Point) error {
	if !s.IsWindow(hwnd) {
		return fmt.Errorf("failed to place %s: %w", hwnd, ErrInvalidWindow)
	}

	r, err := s.api.GetWindowRect(hwnd)
	if err != nil {
		return &QueryError{Op: "GetWindowRect", Err: err}
	}

	origin := pt
	if root := s.api.GetAncestor(hwnd, _GA_ROOT); root != hwnd {
		parent := s.api.GetAncestor(hwnd, _GA_PARENT)
		if origin, err = s.api.ScreenToClient(parent, pt); err != nil {
			return &QueryError{Op: "ScreenToClient", Err: err}
		}
	}

	if err := s.api.MoveWindow(hwnd, origin.X, origin.Y, r.Right-r.Left, r.Bottom-r.Top, true); err != nil {
		return fmt.Errorf("failed to place %s: %w", hwnd, err)
	}
	return nil
}

// SetParent makes parent the new parent of child and returns the previous
// one. A zero parent detaches child back to the desktop.
func (s *Service) SetParent(child, parent HWND) (HWND, error) {
	if !s.IsWindow(child) {
		return 0, fmt.Errorf("failed to reparent %s: %w", child, ErrInvalidWindow)
	}
	if parent.IsValid() && !s.IsWindow(parent) {
		return 0, fmt.Errorf("failed to reparent %s under %s: %w", child, parent, ErrInvalidWindow)
	}

	prev, err := s.api.SetParent(child, parent)
	if err != nil {
		return 0, fmt.Errorf("failed to reparent %s under %s: %w", child, parent, err)
	}
	s.logger.Debug("Window reparented",
		zap.Stringer("hwnd", child),
		zap.Stringer("parent", parent),
		zap.Stringer("previous", prev))
	return prev, nil
}

// GetHostProcessID returns the identifier of the process this code runs in.
func (s *Service) GetHostProcessID() ProcessID {
	return s.api.GetCurrentProcessID()
}

// GetAddInModuleHandle resolves the module handle of the add-in binary.
func (s *Service) GetAddInModuleHandle() (ModuleHandle, error) {
	h, err := s.api.GetModuleHandle(s.addInPath)
	if err != nil {
		return 0, &QueryError{Op: "GetModuleHandle", Err: err}
	}
	return h, nil
}

// GetPosFromChar sends EM_POSFROMCHAR for the character at index and
// returns the packed client coordinates. See DecodePosFromChar.
func (s *Service) GetPosFromChar(hwnd HWND, index int) int {
	return int(int32(s.api.SendMessage(hwnd, _EM_POSFROMCHAR, uintptr(index), 0)))
}

// DecodePosFromChar unpacks an EM_POSFROMCHAR result: x in the low word,
// y in the high word, both signed. -1 means the index is past the end.
func DecodePosFromChar(packed int) (Point, bool) {
	if packed == -1 {
		return Point{}, false
	}
	return Point{
		X: int32(int16(uint32(packed) & 0xFFFF)),
		Y: int32(int16(uint32(packed) >> 16)),
	}, true
}

// decode converts the first n units of buf, clamped to the buffer and cut
// at the first NUL.
func decode(buf []uint16, n int) string {
	if n <= 0 {
		return ""
	}
	if n > len(buf) {
		n = len(buf)
	}
	for i, c := range buf[:n] {
		if c == 0 {
			n = i
			break
		}
	}
	return string(utf16.Decode(buf[:n]))
}
