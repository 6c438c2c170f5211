package events

import (
	"testing"
	"time"
)

func TestPublishDeliversToSink(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	received := make(chan Event, 1)
	sink := &LoggingSink{Log: func(e Event) { received <- e }}
	bus.Subscribe(sink)

	want := Event{Action: ActionPush, Repository: "app", Digest: "sha256:abc", Tag: "v1", Timestamp: time.Unix(0, 0)}
	bus.Publish(want)

	select {
	case got := <-received:
		if got != want {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	received := make(chan Event, 1)
	sink := &LoggingSink{Log: func(e Event) { received <- e }}
	bus.Subscribe(sink)
	if err := bus.Unsubscribe(sink); err != nil {
		t.Fatal(err)
	}

	bus.Publish(Event{Action: ActionGC})

	select {
	case <-received:
		t.Fatal("did not expect event after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}
