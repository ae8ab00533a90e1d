// Profiling:
// go build ./profile/extract
// go tool pprof -http=":8000" -nodefraction=0.001 ./extract cpu.prof

package main

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/edwinsyarief/hibana"
	"github.com/edwinsyarief/hibana/presets"
)

func main() {
	// CPU Profiling
	f, _ := os.Create("cpu.prof")
	_ = pprof.StartCPUProfile(f)
	defer pprof.StopCPUProfile()

	run(50, 2000)

	// Memory Profiling
	memFile, _ := os.Create("mem.prof")
	defer memFile.Close()
	runtime.GC()
	_ = pprof.WriteHeapProfile(memFile)
}

func run(rounds, iters int) {
	var out []hibana.ExtractedParticle
	var mesh hibana.RibbonMesh
	for range rounds {
		w := hibana.NewWorld(4)
		fountain := presets.NewFountain(0)
		fountain.Cap = 50000
		id := w.Spawn(presets.NewFountainSystem(fountain))
		w.Apply(id, hibana.Burst{Count: 50000})
		fw := presets.NewFireworks(w, 20)
		w.Update(1.0 / 60)

		for range iters {
			out = w.Extract(out[:0], nil)
			hibana.BuildRibbons(&mesh, w.System(fw.Rockets))
		}
	}
}
