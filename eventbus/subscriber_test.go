package eventbus

import "testing"

func TestNewSubscriberIsUnique(t *testing.T) {
	a := NewSubscriber()
	b := NewSubscriber()
	if a.ID == "" {
		t.Fatal("expected a non-empty subscriber ID")
	}
	if a.ID == b.ID {
		t.Errorf("expected distinct subscriber IDs, got %q twice", a.ID)
	}
}
