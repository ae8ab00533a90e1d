package hibana

// Noop is a particle that never moves and never dies.
type Noop struct{}

func (*Noop) Seed() float32 { return 0 }
func (*Noop) Lifetime() float32 { return 0 }
func (*Noop) Transform() Transform { return Identity }
func (*Noop) Update(float32) {}
func (*Noop) Expiration() Expiration { return ExpirationNone }

// NoopSpawner spawns nothing. It is useful as a placeholder system, for
// example as the parent slot of a scene that is not loaded yet.
type NoopSpawner struct{}

func (NoopSpawner) Capacity() int { return 0 }
func (NoopSpawner) SpawnStep(float32) int { return 0 }
func (NoopSpawner) Build(float32) Noop { return Noop{} }
func (NoopSpawner) NextSeed() float32 { return 0 }

// NewNoopSystem returns an inert system.
func NewNoopSystem() System {
	return NewSystem[Noop](NoopSpawner{})
}
