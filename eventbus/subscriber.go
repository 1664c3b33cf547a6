package eventbus

import "github.com/google/uuid"

// NewSubscriber mints a Subscriber with a fresh random ID.
func NewSubscriber() *Subscriber {
	return &Subscriber{ID: uuid.New().String()}
}
