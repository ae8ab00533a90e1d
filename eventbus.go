package hibana

import "reflect"

// MaxEventTypes defines the maximum number of unique message types that can
// be registered in an EventBus.
const MaxEventTypes = 256

// EventBus is a type-keyed publish/subscribe hub. The World publishes
// lifecycle notifications such as SystemDespawned on it; applications may
// publish their own message types too.
//
// Publish is allocation-free. The bus is not safe for concurrent use; the
// World only publishes from the goroutine calling Update.
type EventBus struct {
	typeIDs  map[reflect.Type]uint8
	handlers [MaxEventTypes][]any
	nextID   uint16
}

// Subscribe registers a handler called for every published message of
// type T, in subscription order.
//
// Parameters:
//   - bus: The EventBus to subscribe to.
//   - handler: A function taking a single argument of type T.
func Subscribe[T any](bus *EventBus, handler func(T)) {
	id := bus.typeID(reflect.TypeFor[T]())
	if cap(bus.handlers[id]) == 0 {
		bus.handlers[id] = make([]any, 0, 4)
	}
	bus.handlers[id] = append(bus.handlers[id], handler)
}

// Publish calls every handler subscribed to T with msg, synchronously.
//
// Parameters:
//   - bus: The EventBus to publish to.
//   - msg: The message delivered to handlers.
func Publish[T any](bus *EventBus, msg T) {
	id, ok := bus.typeIDs[reflect.TypeFor[T]()]
	if !ok {
		return
	}
	for _, h := range bus.handlers[id] {
		h.(func(T))(msg)
	}
}

// Subscribers returns the number of handlers subscribed to T.
func Subscribers[T any](bus *EventBus) int {
	id, ok := bus.typeIDs[reflect.TypeFor[T]()]
	if !ok {
		return 0
	}
	return len(bus.handlers[id])
}

func (bus *EventBus) typeID(t reflect.Type) uint8 {
	if bus.typeIDs == nil {
		bus.typeIDs = make(map[reflect.Type]uint8)
	}
	if id, ok := bus.typeIDs[t]; ok {
		return id
	}
	if bus.nextID >= MaxEventTypes {
		panic("hibana: too many event types")
	}
	id := uint8(bus.nextID)
	bus.nextID++
	bus.typeIDs[t] = id
	return id
}
