package hibana

import (
	"reflect"

	"github.com/go-gl/mathgl/mgl32"
)

// Event records the death of a particle. Events are collected during a
// system's update when an event log is attached and consumed by
// event-systems in the same frame.
type Event struct {
	Position mgl32.Vec3
	Tangent  mgl32.Vec3
	Seed     float32
	Lifetime float32
	Index    uint32
	Kind     Expiration
}

func eventOf(kind Expiration, p Particle) Event {
	return Event{
		Kind:     kind,
		Seed:     p.Seed(),
		Index:    IndexOf(p),
		Lifetime: p.Lifetime(),
		Position: PositionOf(p),
		Tangent:  TangentOf(p),
	}
}

// EventLog is an append-only list of events, cleared once per frame.
type EventLog struct {
	events []Event
}

// Push appends an event.
func (l *EventLog) Push(e Event) {
	l.events = append(l.events, e)
}

// Events returns the events logged since the last Clear. The slice is
// owned by the log.
func (l *EventLog) Events() []Event {
	return l.events
}

// Len returns the number of logged events.
func (l *EventLog) Len() int {
	return len(l.events)
}

// Clear drops every event, keeping the allocation.
func (l *EventLog) Clear() {
	l.events = l.events[:0]
}

// SubSpawner spawns child records from every live record of a parent
// system whose records are of type Q.
type SubSpawner[P, Q any] interface {
	Spawner[P]
	// SpawnStepSub returns how many children to create for parent this
	// frame. It may mutate parent, for example to advance a per-parent
	// spawn accumulator.
	SpawnStepSub(parent *Q, dt float32) int
	// BuildFromParent creates a child of parent from a seed.
	BuildFromParent(parent *Q, seed float32) P
}

// EventSpawner spawns reaction records from a parent's death events.
type EventSpawner[P any] interface {
	Spawner[P]
	// SpawnOnEvent returns how many records to create for e.
	SpawnOnEvent(e Event) int
	// BuildFromEvent creates a record reacting to e from a seed.
	BuildFromEvent(e Event, seed float32) P
}

// SubSystem is a System driven by the live records of a parent system.
type SubSystem interface {
	System
	// SpawnFromParent spawns children from parent's live records. Parent
	// records are read, never removed. It panics if parent is the system
	// itself or stores a different record type.
	SpawnFromParent(dt float32, parent System)
	// ParentType returns the record type the parent must store.
	ParentType() reflect.Type
}

// EventSystem is a System driven by a parent's death events.
type EventSystem interface {
	System
	// SpawnOnEvents spawns reaction records for every event in log.
	SpawnOnEvents(log *EventLog)
}

type subSystem[P, Q any, PP ParticlePtr[P], QQ ParticlePtr[Q]] struct {
	*system[P, PP]
	sub SubSpawner[P, Q]
}

// NewSubSystem wraps a sub-spawner. Its parent must store records of type
// Q; the World connects the two with WithParent.
//
// Example:
//
//	sparks := hibana.NewSubSystem[Spark, Rocket](SparkStream{})
//	world.Spawn(sparks, hibana.WithParent(rockets))
func NewSubSystem[P, Q any, PP ParticlePtr[P], QQ ParticlePtr[Q]](spawner SubSpawner[P, Q], opts ...Option[P]) SubSystem {
	return &subSystem[P, Q, PP, QQ]{
		system: newSystem[P, PP](spawner, opts),
		sub:    spawner,
	}
}

func (s *subSystem[P, Q, PP, QQ]) ParentType() reflect.Type {
	return reflect.TypeFor[Q]()
}

func (s *subSystem[P, Q, PP, QQ]) SpawnFromParent(dt float32, parent System) {
	pa := parent.Arena()
	if pa == &s.arena {
		panic("hibana: system is its own parent")
	}
	if pa.IsUninit() {
		return
	}
	s.initArena()
	parents := Live[Q](pa)
	ring := pa.kind == arenaRing
	for i := range parents {
		q := &parents[i]
		if ring && QQ(q).Expiration().Expired() {
			continue
		}
		n := s.sub.SpawnStepSub(q, dt)
		for range n {
			if s.arena.full() {
				break
			}
			s.store(s.sub.BuildFromParent(q, s.seed()))
		}
	}
}

type eventSystem[P any, PP ParticlePtr[P]] struct {
	*system[P, PP]
	ev EventSpawner[P]
}

// NewEventSystem wraps an event spawner. Its parent's death events are
// delivered by the World once it is connected with WithParent.
func NewEventSystem[P any, PP ParticlePtr[P]](spawner EventSpawner[P], opts ...Option[P]) EventSystem {
	return &eventSystem[P, PP]{
		system: newSystem[P, PP](spawner, opts),
		ev:     spawner,
	}
}

func (s *eventSystem[P, PP]) SpawnOnEvents(log *EventLog) {
	if log == nil || log.Len() == 0 {
		return
	}
	s.initArena()
	for _, e := range log.Events() {
		n := s.ev.SpawnOnEvent(e)
		for range n {
			if s.arena.full() {
				break
			}
			s.store(s.ev.BuildFromEvent(e, s.seed()))
		}
	}
}
