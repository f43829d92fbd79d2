// Package ecs provides ECS adapters for flourish's event system.
//
// The primary adapter is [NewDonburiStore], which bridges flourish
// interaction and visibility events (pointer, click, reveal, hide) into a
// [Donburi] world as typed events. Subscribe to [InteractionEventType] in
// your ECS systems to receive them. Only nodes with a non-zero EntityID
// produce events.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	scene.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
