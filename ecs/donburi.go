// Package ecs provides ECS adapters for flourish.
package ecs

import (
	"github.com/phanxgames/flourish"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// InteractionEventType is the Donburi event type for flourish events.
// Subscribe to this in your ECS systems to receive pointer, click and
// reveal events.
var InteractionEventType = events.NewEventType[flourish.InteractionEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Events are published to InteractionEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) flourish.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event flourish.InteractionEvent) {
	InteractionEventType.Publish(s.world, event)
}

// Revealed is a convenience filter for systems that only care about
// sections entering the viewport.
func Revealed(e flourish.InteractionEvent) bool {
	return e.Type == flourish.EventReveal
}
