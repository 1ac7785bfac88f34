// Package watcher polls keyboard focus and keeps the overlay's edit target
// in step with the host's formula bar and in-cell editor.
package watcher

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"sync"
	"time"
	"unicode/utf16"

	"go.uber.org/zap"

	"intellisense-overlay/internal/cache"
	"intellisense-overlay/internal/config"
	"intellisense-overlay/internal/overlay"
	"intellisense-overlay/internal/win32"
)

// ErrAlreadyRunning is returned by Start when the poll loop is active.
var ErrAlreadyRunning = errors.New("watcher already running")

const (
	backoffFactor   = 1.5
	backoffAfter    = 3 // consecutive failures before slowing down
	clearAfter      = 5 // consecutive failures before dropping the target
	idleMultiplier  = 3
	defaultEventBuf = 64
	defaultInterval = 100 * time.Millisecond
)

// Introspector is the subset of win32.Service the watcher needs
type Introspector interface {
	GetFocusedWindowHandle() (win32.HWND, error)
	GetRootAncestor(hwnd win32.HWND) win32.HWND
	GetClientCursorPos(hwnd win32.HWND) win32.Point
	ClientToScreen(hwnd win32.HWND, pt win32.Point) (win32.Point, bool)
	GetCaretHeight(hwnd win32.HWND) int
	GetWindowBounds(hwnd win32.HWND) win32.Bounds
	GetText(hwnd win32.HWND) string
	GetWindowTextRaw(hwnd win32.HWND) string
	GetClassName(hwnd win32.HWND) string
	GetPosFromChar(hwnd win32.HWND, index int) int
	HideWindow(hwnd win32.HWND) win32.HideResult
}

// Service polls focus and publishes edit targets to the overlay
type Service struct {
	win     Introspector
	classes *cache.Service
	overlay *overlay.Service
	logger  *zap.Logger
	events  chan Event

	mu                sync.Mutex
	isPolling         bool
	stopChan          chan struct{}
	done              chan struct{}
	baseInterval      time.Duration
	currentInterval   time.Duration
	maxInterval       time.Duration
	editClasses       []string
	hideOnFocusLoss   bool
	popup             win32.HWND
	consecutiveErrors int

	// pollMu serializes Poll between the loop and one-shot callers
	pollMu sync.Mutex
}

// New creates a new focus watcher
func New(win Introspector, classes *cache.Service, overlaySvc *overlay.Service, cfg *config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	buf := cfg.Watcher.EventBuffer
	if buf <= 0 {
		buf = defaultEventBuf
	}

	s := &Service{
		win:     win,
		classes: classes,
		overlay: overlaySvc,
		logger:  logger.With(zap.String("component", "watcher")),
		events:  make(chan Event, buf),
	}
	s.applyConfig(cfg)
	s.currentInterval = s.baseInterval
	return s
}

// UpdateConfig applies a reloaded configuration. The current interval is
// reset to the new base.
func (s *Service) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyConfig(cfg)
	s.currentInterval = s.baseInterval
	s.logger.Info("Watcher config updated",
		zap.Duration("poll_interval", s.baseInterval),
		zap.Duration("max_interval", s.maxInterval),
		zap.Strings("edit_classes", s.editClasses))
}

// applyConfig must be called with s.mu held or before the service is shared
func (s *Service) applyConfig(cfg *config.Config) {
	s.baseInterval = cfg.Watcher.PollInterval.Duration
	if s.baseInterval <= 0 {
		s.baseInterval = defaultInterval
	}
	s.maxInterval = cfg.Watcher.MaxInterval.Duration
	if s.maxInterval < s.baseInterval {
		s.maxInterval = s.baseInterval
	}
	s.editClasses = slices.Clone(cfg.Host.EditClasses)
	s.hideOnFocusLoss = cfg.Watcher.HidePopupOnFocusLoss
}

// SetPopup registers the popup window to hide when focus leaves the editor
func (s *Service) SetPopup(hwnd win32.HWND) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popup = hwnd
}

// Events returns the channel focus changes are delivered on. It is never
// closed. Events are dropped when the buffer is full.
func (s *Service) Events() <-chan Event {
	return s.events
}

// Start begins polling on a goroutine locked to its OS thread. Polling
// stops when ctx is done or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isPolling {
		return ErrAlreadyRunning
	}

	s.isPolling = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	go s.pollLoop(ctx, s.stopChan, s.done)

	s.logger.Info("Focus watcher started", zap.Duration("interval", s.currentInterval))
	return nil
}

// Stop stops polling and waits for the loop to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isPolling {
		s.mu.Unlock()
		return
	}
	s.isPolling = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("Focus watcher stopped")
}

// IsPolling returns whether the poll loop is running
func (s *Service) IsPolling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isPolling
}

// Interval returns the delay before the next poll
func (s *Service) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentInterval
}

// pollLoop is the main polling loop
func (s *Service) pollLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	// Window queries must come from one thread for the life of the loop.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ticker := time.NewTicker(s.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			s.mu.Lock()
			s.isPolling = false
			s.mu.Unlock()
			s.logger.Info("Focus watcher stopped", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			if _, err := s.Poll(); err != nil {
				s.logger.Debug("Poll failed", zap.Error(err))
			}

			// Update ticker with current interval
			ticker.Reset(s.Interval())
		}
	}
}

// Poll performs one focus check, publishes the result to the overlay and
// returns the current target (nil when no host edit control has focus).
// The error is non-nil only when the focus query itself failed.
func (s *Service) Poll() (*overlay.Target, error) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	hwnd, err := s.win.GetFocusedWindowHandle()
	if err != nil {
		s.handleError(err)
		return s.overlay.GetTarget(), err
	}

	s.mu.Lock()
	s.consecutiveErrors = 0
	s.mu.Unlock()

	if !hwnd.IsValid() {
		// Focus is in another process or nowhere at all
		s.clearTarget()
		s.adjustInterval(false, false)
		return nil, nil
	}

	className := s.classes.GetOrLoad(hwnd, s.win.GetClassName)
	if !s.isEditClass(className) {
		s.clearTarget()
		s.adjustInterval(true, false)
		return nil, nil
	}

	target := s.readTarget(hwnd, className)
	s.publish(target)
	s.adjustInterval(true, false)
	return target, nil
}

// readTarget gathers text, caret and geometry for an edit control
func (s *Service) readTarget(hwnd win32.HWND, className string) *overlay.Target {
	text := s.win.GetWindowTextRaw(hwnd)
	if text == "" {
		text = s.win.GetText(hwnd)
	}

	// Edit controls answer -1 for an index past the end, so anchor on the
	// last character.
	caret, hasCaret := win32.DecodePosFromChar(s.win.GetPosFromChar(hwnd, max(utf16Len(text)-1, 0)))

	var caretScreen win32.Point
	lineHeight := 0
	if hasCaret {
		caretScreen, hasCaret = s.win.ClientToScreen(hwnd, caret)
	}
	if hasCaret {
		lineHeight = s.win.GetCaretHeight(hwnd)
	}

	root := s.win.GetRootAncestor(hwnd)

	return &overlay.Target{
		Control:       hwnd,
		Root:          root,
		ClassName:     className,
		Text:          text,
		Caret:         caret,
		CaretScreen:   caretScreen,
		HasCaret:      hasCaret,
		LineHeight:    lineHeight,
		Cursor:        s.win.GetClientCursorPos(hwnd),
		ControlBounds: s.win.GetWindowBounds(hwnd),
		RootBounds:    s.win.GetWindowBounds(root),
		UpdatedAt:     time.Now(),
	}
}

// publish stores target and emits an event if anything changed
func (s *Service) publish(target *overlay.Target) {
	prev := s.overlay.GetTarget()
	s.overlay.SetTarget(target)

	switch {
	case prev == nil || !prev.SameControl(target):
		s.logger.Debug("Edit control focused",
			zap.Stringer("hwnd", target.Control),
			zap.String("class", target.ClassName))
		s.emit(Event{Type: EventFocusGained, Target: target, At: target.UpdatedAt})
	case prev.Text != target.Text:
		s.emit(Event{Type: EventTextChanged, Target: target, At: target.UpdatedAt})
	}
}

// clearTarget drops the current target and hides the popup if it was showing
func (s *Service) clearTarget() {
	prev := s.overlay.GetTarget()
	if prev == nil {
		return
	}

	s.overlay.SetTarget(nil)
	s.logger.Debug("Edit control lost focus", zap.Stringer("hwnd", prev.Control))
	s.emit(Event{Type: EventFocusLost, Target: prev, At: time.Now()})

	s.mu.Lock()
	popup, hide := s.popup, s.hideOnFocusLoss
	s.mu.Unlock()

	if !hide || !popup.IsValid() {
		return
	}
	result := s.win.HideWindow(popup)
	if result.Err != nil {
		s.logger.Warn("Failed to hide popup", zap.Stringer("hwnd", popup), zap.Error(result.Err))
		return
	}
	s.logger.Debug("Popup hidden", zap.Stringer("hwnd", popup), zap.Bool("was_visible", result.Hidden))
}

// emit delivers ev without blocking the poll loop
func (s *Service) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Debug("Event dropped, buffer full", zap.String("type", string(ev.Type)))
	}
}

// handleError handles focus query failures with backoff
func (s *Service) handleError(err error) {
	s.mu.Lock()
	s.consecutiveErrors++
	attempts := s.consecutiveErrors
	s.mu.Unlock()

	s.logger.Warn("Focus query failed", zap.Int("attempt", attempts), zap.Error(err))

	// Exponential backoff for repeated failures
	if attempts >= backoffAfter {
		s.adjustInterval(false, true)
	}

	// Clear the target on persistent errors
	if attempts >= clearAfter {
		s.clearTarget()
	}
}

// adjustInterval adjusts the polling interval based on current state
func (s *Service) adjustInterval(inHost, hasError bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hasError {
		s.currentInterval = time.Duration(float64(s.currentInterval) * backoffFactor)
		if s.currentInterval > s.maxInterval {
			s.currentInterval = s.maxInterval
		}
	} else if inHost {
		// Poll at full rate while the user is in the host
		s.currentInterval = s.baseInterval
	} else {
		// Slower polling while focus is elsewhere
		s.currentInterval = s.baseInterval * idleMultiplier
	}
}

func (s *Service) isEditClass(className string) bool {
	if className == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.editClasses, className)
}

// utf16Len returns the length of text in UTF-16 code units, which is what
// character indices in edit controls count.
func utf16Len(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}
