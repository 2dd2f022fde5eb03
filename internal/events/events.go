package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated   = "booking_created"
	EventResponseRecorded = "response_recorded"
	EventBookingClosed    = "booking_closed"
)

// BookingEventPayload is the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID     int64     `json:"booking_id"`
	LandownerID   int64     `json:"landowner_id"`
	LandownerName string    `json:"landowner_name"`
	ServiceType   string    `json:"service_type"`
	ServiceDate   time.Time `json:"service_date"`
	NumLabor      int       `json:"num_labor,omitempty"`
	MachineType   string    `json:"machine_type,omitempty"`
}

// ResponseEventPayload describes a recorded response and the booking status
// evaluated right after it.
type ResponseEventPayload struct {
	BookingID     int64  `json:"booking_id"`
	ResponderID   int64  `json:"responder_id"`
	ResponderName string `json:"responder_name"`
	ResponderRole string `json:"responder_role"`
	Decision      string `json:"decision"`
	LaborStatus   string `json:"labor_status"`
	MachineStatus string `json:"machinery_status"`
	Action        string `json:"action"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
