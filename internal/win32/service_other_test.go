//go:build !windows

package win32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsupportedPlatform(t *testing.T) {
	svc := New()

	h, err := svc.GetFocusedWindowHandle()
	assert.Equal(t, HWND(0), h)
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.ErrorIs(t, err, ErrNotSupported)

	assert.Equal(t, EmptyBounds, svc.GetWindowBounds(1))
	assert.Equal(t, "", svc.GetText(1))
	assert.Equal(t, "", svc.GetWindowTextRaw(1))
	assert.Equal(t, "", svc.GetClassName(1))
	assert.Equal(t, HWND(0), svc.GetRootAncestor(1))
	assert.Equal(t, Point{}, svc.GetClientCursorPos(1))

	res := svc.HideWindow(1)
	assert.False(t, res.Ok())
	assert.ErrorIs(t, res.Err, ErrInvalidWindow)

	_, err = svc.GetAddInModuleHandle()
	assert.ErrorIs(t, err, ErrNotSupported)

	_, ok := svc.ClientToScreen(1, Point{X: 4, Y: 5})
	assert.False(t, ok)
	assert.Zero(t, svc.GetCaretHeight(1))
	assert.ErrorIs(t, svc.PlacePopup(1, Point{}), ErrInvalidWindow)
	_, err = svc.SetParent(1, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
