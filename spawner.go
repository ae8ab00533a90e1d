package hibana

import "math"

// spawnEpsilon is the relative slack, a few float32 ulps, given to the
// accumulated count before flooring. It absorbs the rounding of float32
// steps, so that six steps of 1/60s at 10/s spawn one record, without
// moving floor(rate*T) anywhere else.
const spawnEpsilon = 1.0 / (1 << 21)

// dueCount returns floor(acc) with a relative tolerance of spawnEpsilon.
func dueCount(acc float64) float64 {
	return math.Floor(acc * (1 + spawnEpsilon))
}

// Spawner describes how records of type P are created.
//
// Optional behaviour is discovered through interfaces the spawner may also
// implement: [StrategySpawner], [WorldSpaceSpawner], [SeedSource],
// [UpdateHook], [PositionSyncer] and [Commander].
type Spawner[P any] interface {
	// Capacity returns the nominal arena capacity. It is read once, when
	// the arena is created.
	Capacity() int
	// SpawnStep returns how many records to create this frame.
	SpawnStep(dt float32) int
	// Build creates a record from a seed in [0, 1).
	Build(seed float32) P
}

// StrategySpawner overrides the default StrategyRetain.
type StrategySpawner interface {
	Strategy() Strategy
}

// WorldSpaceSpawner marks systems whose records live in world space. Their
// extracted transforms ignore the host transform, and the host pose is
// pushed into the spawner through [PositionSyncer] instead.
type WorldSpaceSpawner interface {
	WorldSpace() bool
}

// SeedSource replaces the system's random number generator as the source
// of record seeds.
type SeedSource interface {
	NextSeed() float32
}

// UpdateHook is called once per frame after spawning.
type UpdateHook interface {
	OnUpdate(dt float32)
}

// PositionSyncer receives the host pose after it changed.
type PositionSyncer interface {
	SyncPosition(t Transform)
}

// Commander handles typed commands. Apply reports whether the command was
// understood.
type Commander interface {
	Apply(cmd Command) bool
}

// Command is a message delivered to a spawner through [System.Apply]. The
// set of commands is closed; spawners dispatch with a type switch.
type Command interface {
	command()
}

// SetTransform moves the emitter.
type SetTransform struct {
	Transform Transform
}

// SetRate changes the emission rate, in records per second.
type SetRate struct {
	PerSecond float32
}

// SetEnabled pauses or resumes emission.
type SetEnabled struct {
	Enabled bool
}

// Burst requests Count extra records on the next frame.
type Burst struct {
	Count int
}

func (SetTransform) command() {}
func (SetRate) command() {}
func (SetEnabled) command() {}
func (Burst) command() {}

// Accumulator turns a continuous rate into whole spawn counts, carrying the
// fractional remainder between frames. Splitting a time span into smaller
// steps yields the same total up to one record.
type Accumulator struct {
	Rate      float32
	remainder float64
}

// Step advances the accumulator by dt and returns the whole number of
// records due.
func (a *Accumulator) Step(dt float32) int {
	if dt <= 0 || a.Rate <= 0 {
		return 0
	}
	a.remainder += float64(a.Rate) * float64(dt)
	n := dueCount(a.remainder)
	a.remainder = max(a.remainder-n, 0)
	return int(n)
}

// Remainder returns the fractional record carried to the next step.
func (a *Accumulator) Remainder() float32 {
	return float32(a.remainder)
}

// Reset drops the carried remainder.
func (a *Accumulator) Reset() {
	a.remainder = 0
}

// SpawnAccum applies the accumulator rule to a remainder stored elsewhere,
// typically inside a parent record.
func SpawnAccum(acc *float32, rate, dt float32) int {
	if dt <= 0 || rate <= 0 {
		return 0
	}
	*acc += rate * dt
	n := float32(dueCount(float64(*acc)))
	*acc = max(*acc-n, 0)
	return int(n)
}
