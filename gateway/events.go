package gateway

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paybridge/paybridge/infra/logger"
)

// EventName is one of the closed set of lifecycle events.
type EventName string

const (
	EventGatewayInitializing EventName = "gateway:initializing"
	EventGatewayInitialized  EventName = "gateway:initialized"
	EventGatewayFailed       EventName = "gateway:failed"
	EventTokenizationStarted EventName = "tokenization:started"
	EventTokenizationSuccess EventName = "tokenization:success"
	EventTokenizationFailed  EventName = "tokenization:failed"
	EventValidationFailed    EventName = "validation:failed"
	EventSdkLoadStarted      EventName = "sdk:load-started"
	EventSdkLoadCompleted    EventName = "sdk:load-completed"
	EventError               EventName = "error"
	EventWarning             EventName = "warning"
)

// Event is the payload delivered to listeners.
type Event struct {
	ID        string         `json:"id"`
	Name      EventName      `json:"name"`
	Gateway   GatewayName    `json:"gateway,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Listener handles a single event.
type Listener func(Event)

type subscription struct {
	id   string
	fn   Listener
	once bool
}

// Emitter is a typed pub/sub for lifecycle events. Emission is
// fire-and-forget relative to the operation that triggered it: a panicking
// listener is recovered and logged, never propagated.
type Emitter struct {
	mu        sync.Mutex
	listeners map[EventName][]*subscription
	any       []*subscription
}

// NewEmitter creates an emitter with no listeners.
func NewEmitter() *Emitter {
	return &Emitter{
		listeners: make(map[EventName][]*subscription),
	}
}

// On subscribes fn to an event and returns a subscription id for Off.
func (e *Emitter) On(name EventName, fn Listener) string {
	return e.subscribe(name, fn, false)
}

// Once subscribes fn for a single delivery.
func (e *Emitter) Once(name EventName, fn Listener) string {
	return e.subscribe(name, fn, true)
}

func (e *Emitter) subscribe(name EventName, fn Listener, once bool) string {
	sub := &subscription{id: uuid.New().String(), fn: fn, once: once}
	e.mu.Lock()
	e.listeners[name] = append(e.listeners[name], sub)
	e.mu.Unlock()
	return sub.id
}

// OnAny subscribes fn to every event.
func (e *Emitter) OnAny(fn Listener) string {
	sub := &subscription{id: uuid.New().String(), fn: fn}
	e.mu.Lock()
	e.any = append(e.any, sub)
	e.mu.Unlock()
	return sub.id
}

// Off removes a subscription previously returned by On or Once.
func (e *Emitter) Off(name EventName, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	subs := e.listeners[name]
	for i, sub := range subs {
		if sub.id == id {
			e.listeners[name] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// OffAny removes a subscription previously returned by OnAny.
func (e *Emitter) OffAny(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, sub := range e.any {
		if sub.id == id {
			e.any = append(e.any[:i], e.any[i+1:]...)
			return
		}
	}
}

// Emit delivers asynchronously; the caller never waits on listeners.
func (e *Emitter) Emit(name EventName, gatewayName GatewayName, data map[string]any) {
	event := e.buildEvent(name, gatewayName, data)
	go e.deliver(event)
}

// EmitSync delivers on the calling goroutine. Listener panics are still
// recovered, so emission cannot fail the triggering operation.
func (e *Emitter) EmitSync(name EventName, gatewayName GatewayName, data map[string]any) {
	e.deliver(e.buildEvent(name, gatewayName, data))
}

func (e *Emitter) buildEvent(name EventName, gatewayName GatewayName, data map[string]any) Event {
	return Event{
		ID:        uuid.New().String(),
		Name:      name,
		Gateway:   gatewayName,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func (e *Emitter) deliver(event Event) {
	e.mu.Lock()
	targets := make([]*subscription, 0, len(e.listeners[event.Name])+len(e.any))
	targets = append(targets, e.listeners[event.Name]...)
	targets = append(targets, e.any...)

	// Drop once-subscriptions before invoking so a re-entrant Emit cannot
	// deliver them twice.
	remaining := e.listeners[event.Name][:0]
	for _, sub := range e.listeners[event.Name] {
		if !sub.once {
			remaining = append(remaining, sub)
		}
	}
	e.listeners[event.Name] = remaining
	e.mu.Unlock()

	for _, sub := range targets {
		e.invoke(sub.fn, event)
	}
}

func (e *Emitter) invoke(fn Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("event listener panicked", logger.LogContext{
				Fields: map[string]any{
					"event": string(event.Name),
					"panic": r,
				},
			})
		}
	}()
	fn(event)
}
