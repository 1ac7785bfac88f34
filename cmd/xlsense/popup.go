package main

import (
	"go.uber.org/zap"

	"intellisense-overlay/internal/overlay"
	"intellisense-overlay/internal/watcher"
	"intellisense-overlay/internal/win32"
)

// popupPlacer is the part of win32.Service that moves the popup
type popupPlacer interface {
	PlacePopup(hwnd win32.HWND, pt win32.Point) error
	SetParent(child, parent win32.HWND) (win32.HWND, error)
}

// popupFollower keeps the popup window at the computed placement
type popupFollower struct {
	win    popupPlacer
	popup  win32.HWND
	attach bool
	parent win32.HWND // host window the popup is currently attached to
	logger *zap.Logger
}

func newPopupFollower(win popupPlacer, popup win32.HWND, attach bool, logger *zap.Logger) *popupFollower {
	return &popupFollower{
		win:    win,
		popup:  popup,
		attach: attach,
		logger: logger.With(zap.String("component", "popup")),
	}
}

// Follow moves the popup for ev. Focus loss is left to the watcher, which
// hides the popup.
func (f *popupFollower) Follow(ev watcher.Event, placement *overlay.Placement) {
	if f == nil || !f.popup.IsValid() || ev.Type == watcher.EventFocusLost {
		return
	}
	if placement == nil || !placement.Visible {
		return
	}

	if f.attach && ev.Target != nil && ev.Target.Root.IsValid() && ev.Target.Root != f.parent {
		if _, err := f.win.SetParent(f.popup, ev.Target.Root); err != nil {
			f.logger.Warn("Failed to attach popup", zap.Stringer("root", ev.Target.Root), zap.Error(err))
		} else {
			f.parent = ev.Target.Root
		}
	}

	pt := win32.Point{X: int32(placement.X), Y: int32(placement.Y)}
	if err := f.win.PlacePopup(f.popup, pt); err != nil {
		f.logger.Warn("Failed to move popup", zap.Stringer("hwnd", f.popup), zap.Error(err))
	}
}

// Detach returns an attached popup to the desktop
func (f *popupFollower) Detach() {
	if f == nil || !f.parent.IsValid() {
		return
	}
	if _, err := f.win.SetParent(f.popup, 0); err != nil {
		f.logger.Warn("Failed to detach popup", zap.Stringer("hwnd", f.popup), zap.Error(err))
		return
	}
	f.parent = 0
}
