// Package events provides the registry's in-process event bus: manifest
// push/delete and garbage-collection lifecycle notifications, published
// over a github.com/docker/go-events broadcaster for any interested
// in-process consumer. The registry itself subscribes no sink.
package events

import (
	"time"

	gevents "github.com/docker/go-events"
)

// Action names published on the bus.
const (
	ActionPush   = "push"
	ActionDelete = "delete"
	ActionGC     = "gc"
)

// Event describes one registry lifecycle occurrence.
type Event struct {
	Action     string
	Repository string
	Digest     string
	Tag        string
	Timestamp  time.Time
}

// Bus fans registry events out to every registered sink.
type Bus struct {
	broadcaster *gevents.Broadcaster
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{broadcaster: gevents.NewBroadcaster()}
}

// Subscribe registers sink to receive every future published Event.
func (b *Bus) Subscribe(sink gevents.Sink) {
	b.broadcaster.Add(sink)
}

// Unsubscribe stops delivering events to sink.
func (b *Bus) Unsubscribe(sink gevents.Sink) error {
	return b.broadcaster.Remove(sink)
}

// Publish writes e to every subscribed sink. Delivery errors from
// individual sinks are not surfaced to the caller; event delivery is
// best-effort observability, not part of the request's correctness.
func (b *Bus) Publish(e Event) {
	_ = b.broadcaster.Write(e)
}

// Close shuts the bus down, closing every registered sink.
func (b *Bus) Close() error {
	return b.broadcaster.Close()
}

// LoggingSink is a gevents.Sink that logs each event via a Logger-shaped
// callback, so a logger can tap the bus without the events package
// depending on dcontext or logrus directly.
type LoggingSink struct {
	Log func(Event)
}

// Write implements gevents.Sink.
func (s *LoggingSink) Write(e gevents.Event) error {
	if ev, ok := e.(Event); ok && s.Log != nil {
		s.Log(ev)
	}
	return nil
}

// Close implements gevents.Sink.
func (s *LoggingSink) Close() error {
	return nil
}
