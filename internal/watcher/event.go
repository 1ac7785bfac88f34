package watcher

import (
	"time"

	"intellisense-overlay/internal/overlay"
)

// EventType identifies what changed between two polls
type EventType string

const (
	EventFocusGained EventType = "focus_gained"
	EventTextChanged EventType = "text_changed"
	EventFocusLost   EventType = "focus_lost"
)

// Event reports a change in the focused edit control. For FocusLost,
// Target is the control that lost focus.
type Event struct {
	Type   EventType       `json:"type"`
	Target *overlay.Target `json:"target"`
	At     time.Time       `json:"at"`
}
