package eventbus

import (
	"sync/atomic"
	"testing"
	"time"

	"rimoserver/component"
)

func TestEventBusSubscribeAndPublish(t *testing.T) {
	eb := NewEventBus()

	var got atomic.Int32
	sub := eb.Subscribe(ComponentStateChangedType, nil, func(event Event) {
		cs, ok := event.Data().(ComponentStateChanged)
		if !ok {
			t.Errorf("expected ComponentStateChanged, got %T", event.Data())
			return
		}
		if cs.Component != "contec" {
			t.Errorf("expected component %q, got %q", "contec", cs.Component)
		}
		got.Add(1)
	})
	if sub == nil {
		t.Fatal("expected a non-nil subscriber")
	}

	eb.Publish(ComponentStateChanged{Component: "contec", Old: component.StateNormal, New: component.StateError})
	time.Sleep(10 * time.Millisecond)

	if got.Load() != 1 {
		t.Errorf("expected handler to run once, ran %d times", got.Load())
	}
}

func TestEventBusUnsubscribeStopsDelivery(t *testing.T) {
	eb := NewEventBus()

	var count atomic.Int32
	sub := eb.Subscribe("x", nil, func(Event) { count.Add(1) })

	eb.PublishData("x", 1)
	time.Sleep(10 * time.Millisecond)

	eb.Unsubscribe("x", sub)
	eb.PublishData("x", 2)
	time.Sleep(10 * time.Millisecond)

	if count.Load() != 1 {
		t.Errorf("expected 1 delivery before unsubscribe, got %d", count.Load())
	}
}

func TestEventBusPublishDataWrapsEvent(t *testing.T) {
	eb := NewEventBus()

	done := make(chan any, 1)
	eb.Subscribe("payload", nil, func(event Event) {
		done <- event.Data()
	})

	eb.PublishData("payload", map[string]int{"n": 3})

	select {
	case data := <-done:
		m, ok := data.(map[string]int)
		if !ok || m["n"] != 3 {
			t.Errorf("unexpected payload: %#v", data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for handler")
	}
}

func TestEventBusPublishWithNoSubscribersDoesNotPanic(t *testing.T) {
	eb := NewEventBus()
	eb.Publish(DefaultEvent{EventType: "nobody-listening", EventData: nil})
}

func TestEventBusPublishNilEventIsNoOp(t *testing.T) {
	eb := NewEventBus()
	eb.Publish(nil)
}

func TestEventBusMultipleSubscribersAllNotified(t *testing.T) {
	eb := NewEventBus()

	var a, b atomic.Int32
	eb.Subscribe("fanout", nil, func(Event) { a.Add(1) })
	eb.Subscribe("fanout", nil, func(Event) { b.Add(1) })

	eb.PublishData("fanout", nil)
	time.Sleep(10 * time.Millisecond)

	if a.Load() != 1 || b.Load() != 1 {
		t.Errorf("expected both subscribers notified once, got a=%d b=%d", a.Load(), b.Load())
	}
}
