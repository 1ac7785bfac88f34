package overlay

import (
	"fmt"
	"sync"
	"time"

	"intellisense-overlay/internal/config"
	"intellisense-overlay/internal/win32"
)

// Service holds the current edit target and the popup's visibility
type Service struct {
	config        *config.Service
	mu            sync.RWMutex
	currentTarget *Target
	isVisible     bool
	lastUpdate    time.Time
}

// Target is a snapshot of the host edit control that has keyboard focus
type Target struct {
	Control       win32.HWND   `json:"control"`
	Root          win32.HWND   `json:"root"`
	ClassName     string       `json:"class_name"`
	Text          string       `json:"text"`
	Caret         win32.Point  `json:"caret"` // client coordinates of the last character of Text
	CaretScreen   win32.Point  `json:"caret_screen"`
	HasCaret      bool         `json:"has_caret"`
	LineHeight    int          `json:"line_height"` // 0 when the control's caret could not be measured
	Cursor        win32.Point  `json:"cursor"` // mouse, client coordinates of Control
	ControlBounds win32.Bounds `json:"control_bounds"`
	RootBounds    win32.Bounds `json:"root_bounds"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// SameControl reports whether t and other describe the same window
func (t *Target) SameControl(other *Target) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Control == other.Control
}

// Placement is the screen position the popup should be shown at
type Placement struct {
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Visible  bool       `json:"visible"`
	Control  win32.HWND `json:"control,omitempty"`
	AtCaret  bool       `json:"at_caret"`
	Anchored time.Time  `json:"anchored_at"`
}

// New creates a new overlay service
func New(configSvc *config.Service) (*Service, error) {
	service := &Service{
		config:    configSvc,
		isVisible: configSvc.Get().Overlay.Visible,
	}

	return service, nil
}

// GetTarget returns the current edit target, or nil when nothing is focused
func (s *Service) GetTarget() *Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTarget
}

// SetTarget replaces the current edit target. nil clears it.
func (s *Service) SetTarget(target *Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentTarget = target
	s.lastUpdate = time.Now()
}

// LastUpdate returns when the target was last set
func (s *Service) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// GetPlacement returns where the popup should be anchored
func (s *Service) GetPlacement() *Placement {
	s.mu.RLock()
	target := s.currentTarget
	visible := s.isVisible
	s.mu.RUnlock()

	if target == nil || target.ControlBounds.IsEmpty() {
		return &Placement{Visible: false}
	}

	offsets := s.config.Get().Overlay
	bounds := target.ControlBounds

	placement := &Placement{
		Visible:  visible,
		Control:  target.Control,
		Anchored: target.UpdatedAt,
	}

	if target.HasCaret {
		// Caret marks the top of the text line; the popup goes under it
		placement.X = int(target.CaretScreen.X) + offsets.OffsetX
		if target.LineHeight > 0 {
			placement.Y = int(target.CaretScreen.Y) + target.LineHeight + offsets.OffsetY
		} else {
			placement.Y = bounds.Bottom() + 1 + offsets.OffsetY
		}
		placement.AtCaret = true
	} else {
		// No caret position; hang the popup off the control's bottom-left
		placement.X = bounds.X + offsets.OffsetX
		placement.Y = bounds.Bottom() + 1 + offsets.OffsetY
	}

	return placement
}

// ToggleVisibility toggles the overlay visibility and returns the new
// state. The toggle stands even when saving it fails.
func (s *Service) ToggleVisibility() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isVisible = !s.isVisible
	if err := s.persistVisibility(); err != nil {
		return s.isVisible, fmt.Errorf("failed to save visibility: %w", err)
	}

	return s.isVisible, nil
}

// IsVisible returns current visibility state
func (s *Service) IsVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isVisible
}

// SetVisibility sets the overlay visibility
func (s *Service) SetVisibility(visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isVisible = visible
	return s.persistVisibility()
}

// persistVisibility must be called with s.mu held
func (s *Service) persistVisibility() error {
	cfg := s.config.Get()
	cfg.Overlay.Visible = s.isVisible
	return s.config.UpdateOverlay(cfg.Overlay)
}

// GetOverlayConfig returns current overlay configuration
func (s *Service) GetOverlayConfig() config.OverlayConfig {
	return s.config.Get().Overlay
}

// UpdateOverlayConfig updates overlay configuration
func (s *Service) UpdateOverlayConfig(overlayConfig config.OverlayConfig) error {
	if err := s.config.UpdateOverlay(overlayConfig); err != nil {
		return err
	}

	s.mu.Lock()
	s.isVisible = overlayConfig.Visible
	s.mu.Unlock()
	return nil
}

// Shutdown saves the current state
func (s *Service) Shutdown() error {
	s.mu.Lock()
	s.currentTarget = nil
	s.mu.Unlock()

	return s.config.Save()
}
