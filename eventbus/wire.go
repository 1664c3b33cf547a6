package eventbus

import (
	"rimoserver/component"
	"rimoserver/types"
)

// WireComponents hooks bus.Publish(ComponentStateChanged{...}) into
// every component's state transitions, so Contec flipping to Error (or
// any component recovering to Normal) is observable the instant it
// happens rather than on the next status tick.
func WireComponents(bus Bus, components map[types.RobotComponent]component.Component) {
	for id, c := range components {
		if c == nil {
			continue
		}
		name := id.String()
		c.OnStateChange(func(old, new_ component.State) {
			bus.Publish(ComponentStateChanged{Component: name, Old: old, New: new_})
		})
	}
}
