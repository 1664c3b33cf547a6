package eventbus

// Subscribe registers handler for eventType, creating a Subscriber if
// subscriber is nil, and returns the Subscriber so the caller can
// Unsubscribe later.
func (eb *EventBus) Subscribe(eventType string, subscriber *Subscriber, handler Handler) *Subscriber {
	if subscriber == nil {
		subscriber = NewSubscriber()
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[*subscriber] = handler
	set, ok := eb.subscriptions[eventType]
	if !ok {
		set = make(map[Subscriber]struct{})
		eb.subscriptions[eventType] = set
	}
	set[*subscriber] = struct{}{}
	return subscriber
}

// Unsubscribe removes subscriber from eventType and drops its handler.
// No-op if subscriber is nil or not registered.
func (eb *EventBus) Unsubscribe(eventType string, subscriber *Subscriber) {
	if subscriber == nil {
		return
	}
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if set, ok := eb.subscriptions[eventType]; ok {
		delete(set, *subscriber)
		if len(set) == 0 {
			delete(eb.subscriptions, eventType)
		}
	}
	delete(eb.handlers, *subscriber)
}

// Publish dispatches event to every subscriber of its type, each in its
// own goroutine so a slow handler never delays a status-critical
// caller (a component flipping to Error, say). No-op if event is nil
// or has no subscribers.
func (eb *EventBus) Publish(event Event) {
	if event == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for sub := range eb.subscriptions[event.Type()] {
		if handler, ok := eb.handlers[sub]; ok {
			go handler(event)
		}
	}
}

// PublishData wraps data in a DefaultEvent and Publishes it, for
// callers with no need for a dedicated Event type.
func (eb *EventBus) PublishData(eventType string, data any) {
	eb.Publish(DefaultEvent{EventType: eventType, EventData: data})
}
