package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Event Interface and Base Event
// -----------------------------------------------------------------------------

// Event represents something that happened to a learner's session
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
	// SessionID returns the session that produced this event
	SessionID() string
}

// Event types
const (
	EventSessionStarted   = "session.started"
	EventCodeChecked      = "session.checked"
	EventHintToggled      = "session.hint_toggled"
	EventSolutionRevealed = "session.solution_revealed"
	EventSessionReset     = "session.reset"
	EventSessionEnded     = "session.ended"
)

// BaseEvent provides common event fields
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Session   string    `json:"session_id"`
}

// NewBaseEvent creates a new BaseEvent
func NewBaseEvent(eventType, sessionID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		Session:   sessionID,
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) SessionID() string     { return e.Session }

// -----------------------------------------------------------------------------
// Event Handler and Dispatcher
// -----------------------------------------------------------------------------

// EventHandler processes domain events
type EventHandler func(event Event)

// EventDispatcher manages event subscriptions and publishing
type EventDispatcher struct {
	mu          sync.RWMutex
	handlers    map[string][]EventHandler
	allHandlers []EventHandler // handlers for all events
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// SubscribeAll registers a handler for all event types
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allHandlers = append(d.allHandlers, handler)
}

// Publish dispatches an event to all registered handlers. A nil dispatcher
// drops the event.
func (d *EventDispatcher) Publish(event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	// Call type-specific handlers
	if handlers, ok := d.handlers[event.EventType()]; ok {
		for _, h := range handlers {
			h(event)
		}
	}

	// Call all-event handlers
	for _, h := range d.allHandlers {
		h(event)
	}
}

// -----------------------------------------------------------------------------
// Session Events
// -----------------------------------------------------------------------------

// SessionStartedEvent is emitted when a learner opens an exercise
type SessionStartedEvent struct {
	BaseEvent
	Exercise string   `json:"exercise"`
	Language Language `json:"language"`
}

// NewSessionStartedEvent creates a new SessionStartedEvent
func NewSessionStartedEvent(sessionID string, ex *Exercise) SessionStartedEvent {
	return SessionStartedEvent{
		BaseEvent: NewBaseEvent(EventSessionStarted, sessionID),
		Exercise:  ex.Key(),
		Language:  ex.Language,
	}
}

// CodeCheckedEvent is emitted after every comparison
type CodeCheckedEvent struct {
	BaseEvent
	Exercise string `json:"exercise"`
	Matched  bool   `json:"matched"`
	Messages int    `json:"messages"`
	Attempt  int    `json:"attempt"`
}

// NewCodeCheckedEvent creates a new CodeCheckedEvent
func NewCodeCheckedEvent(sessionID, exercise string, matched bool, messages, attempt int) CodeCheckedEvent {
	return CodeCheckedEvent{
		BaseEvent: NewBaseEvent(EventCodeChecked, sessionID),
		Exercise:  exercise,
		Matched:   matched,
		Messages:  messages,
		Attempt:   attempt,
	}
}

// HintToggledEvent is emitted when the hint panel is shown or hidden
type HintToggledEvent struct {
	BaseEvent
	Visible bool `json:"visible"`
}

// NewHintToggledEvent creates a new HintToggledEvent
func NewHintToggledEvent(sessionID string, visible bool) HintToggledEvent {
	return HintToggledEvent{
		BaseEvent: NewBaseEvent(EventHintToggled, sessionID),
		Visible:   visible,
	}
}

// SolutionRevealedEvent is emitted when the learner gives up and loads the
// solution
type SolutionRevealedEvent struct {
	BaseEvent
	Exercise string `json:"exercise"`
}

// NewSolutionRevealedEvent creates a new SolutionRevealedEvent
func NewSolutionRevealedEvent(sessionID, exercise string) SolutionRevealedEvent {
	return SolutionRevealedEvent{
		BaseEvent: NewBaseEvent(EventSolutionRevealed, sessionID),
		Exercise:  exercise,
	}
}

// SessionResetEvent is emitted when the starting code is restored
type SessionResetEvent struct {
	BaseEvent
}

// NewSessionResetEvent creates a new SessionResetEvent
func NewSessionResetEvent(sessionID string) SessionResetEvent {
	return SessionResetEvent{BaseEvent: NewBaseEvent(EventSessionReset, sessionID)}
}

// SessionEndedEvent is emitted when a session is closed
type SessionEndedEvent struct {
	BaseEvent
	Duration time.Duration `json:"duration"`
}

// NewSessionEndedEvent creates a new SessionEndedEvent
func NewSessionEndedEvent(sessionID string, duration time.Duration) SessionEndedEvent {
	return SessionEndedEvent{
		BaseEvent: NewBaseEvent(EventSessionEnded, sessionID),
		Duration:  duration,
	}
}
