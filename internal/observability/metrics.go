package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/spec-kit/ticket-bot/internal/events"
)

// Metrics provides basic in-memory counters for ops API requests and
// domain events.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	eventCount   map[events.EventType]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		eventCount:   make(map[events.EventType]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// ObserveEvents subscribes the counters to every domain event type.
func (m *Metrics) ObserveEvents(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketClaimed,
		events.EventTicketUnclaimed,
		events.EventTicketClosed,
		events.EventTicketDeleted,
		events.EventAppealStarted,
		events.EventAppealSubmitted,
		events.EventAppealDecided,
		events.EventMemberBlacklisted,
		events.EventMemberUnblacklisted,
	} {
		dispatcher.Subscribe(eventType, m.countEvent)
	}
}

func (m *Metrics) countEvent(_ context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCount[event.Type]++
	return nil
}

// EventCount returns the running count for one event type.
func (m *Metrics) EventCount(eventType events.EventType) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventCount[eventType]
}
