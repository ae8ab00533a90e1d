// Profiling:
// go build ./profile/frames
// go tool pprof -http=":8000" -nodefraction=0.001 ./frames mem.pprof

package main

import (
	"flag"

	"github.com/edwinsyarief/hibana"
	"github.com/edwinsyarief/hibana/presets"
	"github.com/pkg/profile"
)

func main() {
	rounds := flag.Int("rounds", 20, "number of fresh worlds")
	frames := flag.Int("frames", 2000, "frames per world")
	workers := flag.Int("workers", 4, "goroutines used by the base sweep")
	rate := flag.Float64("rate", 5000, "fountain drops per second")
	flag.Parse()

	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(*rounds, *frames, *workers, float32(*rate))
	p.Stop()
}

func run(rounds, frames, workers int, rate float32) {
	for range rounds {
		w := hibana.NewWorld(8)
		w.SetWorkers(workers)
		for range 4 {
			f := presets.NewFountain(rate)
			f.Cap = 16384
			w.Spawn(presets.NewFountainSystem(f))
		}
		presets.NewFireworks(w, 8)

		for range frames {
			w.Update(1.0 / 60)
		}
	}
}
