package win32

import (
	"errors"
	"fmt"
)

// HWND is an opaque native window handle. It is borrowed from the windowing
// system and is only valid until the window is destroyed.
type HWND uintptr

// IsValid reports whether the handle is non-null. It does not ask the OS
// whether the window still exists; use Service.IsWindow for that.
func (h HWND) IsValid() bool { return h != 0 }

// String formats the handle the way Spy++ and friends print it.
func (h HWND) String() string { return fmt.Sprintf("0x%08X", uintptr(h)) }

// ProcessID identifies the OS process owning a window.
type ProcessID uint32

// ThreadID identifies the OS thread owning a window.
type ThreadID uint32

// ModuleHandle is a loaded module base address (HMODULE).
type ModuleHandle uintptr

// Point is a coordinate in screen or client space. Layout matches POINT.
type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Rect is an axis-aligned box in screen coordinates. Layout matches RECT.
type Rect struct {
	Left   int32 `json:"left"`
	Top    int32 `json:"top"`
	Right  int32 `json:"right"`
	Bottom int32 `json:"bottom"`
}

// Bounds is a window's screen-space origin and size.
type Bounds struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	Width  int  `json:"width"`
	Height int  `json:"height"`
	empty  bool
}

// EmptyBounds is returned when a window's geometry could not be queried.
// It is distinct from a zero-sized window.
var EmptyBounds = Bounds{empty: true}

// IsEmpty reports whether b is the EmptyBounds sentinel.
func (b Bounds) IsEmpty() bool { return b.empty }

// Right returns the inclusive right edge.
func (b Bounds) Right() int { return b.X + b.Width - 1 }

// Bottom returns the inclusive bottom edge.
func (b Bounds) Bottom() int { return b.Y + b.Height - 1 }

// BoundsFromRect converts a RECT using the inclusive-coordinate convention
// the host uses for its own window sizing: width = right-left+1.
func BoundsFromRect(r Rect) Bounds {
	return Bounds{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right-r.Left) + 1,
		Height: int(r.Bottom-r.Top) + 1,
	}
}

// GUIThreadInfo mirrors GUITHREADINFO.
type GUIThreadInfo struct {
	Size       uint32
	Flags      uint32
	Active     HWND
	Focus      HWND
	Capture    HWND
	MenuOwner  HWND
	MoveSize   HWND
	CaretOwner HWND
	CaretRect  Rect
}

var (
	// ErrQueryFailed marks a failed OS query on a hard-fail path. It is
	// transient: callers treat it as "unknown right now" and retry later.
	ErrQueryFailed = errors.New("os query failed")

	// ErrNotSupported is returned by every platform call on systems without
	// the native windowing API.
	ErrNotSupported = errors.New("window introspection not supported on this platform")

	// ErrInvalidWindow is reported when a handle no longer names a window.
	ErrInvalidWindow = errors.New("invalid window handle")
)

// QueryError records which OS call failed.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrQueryFailed)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrQueryFailed, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is makes every QueryError match ErrQueryFailed.
func (e *QueryError) Is(target error) bool { return target == ErrQueryFailed }

// HideResult is the outcome of HideWindow. Hidden mirrors the platform
// return value; Err carries the failure, if any, for the caller to log.
type HideResult struct {
	Hidden bool
	Err    error
}

// Ok reports whether the window was hidden.
func (r HideResult) Ok() bool { return r.Hidden }
