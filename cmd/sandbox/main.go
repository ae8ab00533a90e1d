// Command sandbox renders particle systems in the terminal.
//
// Particles are projected onto the screen with +X to the right and +Y up.
// Every rocket explosion plays a short tone.
//
// Keys: space bursts the fountain, p pauses it, + and - change its rate,
// Esc or q quits.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/edwinsyarief/hibana"
	"github.com/edwinsyarief/hibana/presets"
	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	toneHz     = 880
	toneMs     = 50
	worldScale = 2.5
)

type sandbox struct {
	screen    tcell.Screen
	world     *hibana.World
	fountain  hibana.SystemID
	fireworks presets.Fireworks
	extracted []hibana.ExtractedParticle
	width     int
	height    int
	fps       int
	rate      float32
	paused    bool
	hasFount  bool
	hasFire   bool
	audioInit bool
}

func newSandbox(mode string, rate float32, workers, fps int, mute bool) (*sandbox, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}

	s := &sandbox{
		screen: screen,
		world:  hibana.NewWorld(8),
		fps:    fps,
		rate:   rate,
	}
	s.world.SetWorkers(workers)
	s.width, s.height = screen.Size()

	switch mode {
	case "fountain":
		s.hasFount = true
	case "fireworks":
		s.hasFire = true
	case "both":
		s.hasFount, s.hasFire = true, true
	default:
		screen.Fini()
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	if s.hasFount {
		s.fountain = s.world.Spawn(presets.NewFountainSystem(presets.NewFountain(rate)),
			hibana.WithTransform(hibana.FromXYZ(0, 0, 0)))
	}
	if s.hasFire {
		s.fireworks = presets.NewFireworks(s.world, 1)
	}

	if !mute {
		if err := s.initAudio(); err != nil {
			// Non-fatal, the sandbox runs without sound
			log.Printf("audio initialization failed: %v", err)
		}
	}
	return s, nil
}

func (s *sandbox) initAudio() error {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	s.audioInit = true
	return nil
}

func (s *sandbox) playExplosion() {
	if !s.audioInit {
		return
	}
	sine, err := generators.SineTone(sampleRate, toneHz)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(toneMs*time.Millisecond), sine))
}

// project maps a world position to a screen cell.
func (s *sandbox) project(x, y float32) (int, int, bool) {
	col := s.width/2 + int(x*worldScale*2)
	row := s.height - 2 - int(y*worldScale)
	return col, row, col >= 0 && col < s.width && row >= 0 && row < s.height-1
}

func shade(c [4]float32) tcell.Color {
	a := min(max(c[3], 0.2), 1)
	return tcell.NewRGBColor(int32(c[0]*a*255), int32(c[1]*a*255), int32(c[2]*a*255))
}

func (s *sandbox) draw() {
	s.screen.Clear()

	if s.hasFire {
		if rockets := s.world.System(s.fireworks.Rockets); rockets != nil {
			rockets.VisitTrails(func(t hibana.TrailBuffer) bool {
				t.Points(func(p hibana.TrailPoint) bool {
					col, row, ok := s.project(p.Position[0], p.Position[1])
					if ok {
						g := int32(80 + 800*p.Width)
						s.screen.SetContent(col, row, '·', nil,
							tcell.StyleDefault.Foreground(tcell.NewRGBColor(min(g, 255), min(g, 255)/2, 0)))
					}
					return true
				})
				return true
			})
		}
	}

	s.extracted = s.world.Extract(s.extracted[:0], nil)
	for i := range s.extracted {
		e := &s.extracted[i]
		pos := e.Position()
		col, row, ok := s.project(pos[0], pos[1])
		if !ok {
			continue
		}
		s.screen.SetContent(col, row, '*', nil, tcell.StyleDefault.Foreground(shade(e.Color)))
	}

	status := fmt.Sprintf(" systems %d  particles %d  rate %.0f/s  frame %d ",
		s.world.Len(), len(s.extracted), s.rate, s.world.Frame())
	if s.paused {
		status += " [paused]"
	}
	for i, r := range status {
		if i >= s.width {
			break
		}
		s.screen.SetContent(i, s.height-1, r, nil, tcell.StyleDefault.Reverse(true))
	}
	s.screen.Show()
}

func (s *sandbox) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune || !s.hasFount {
			return ev.Rune() != 'q'
		}
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			s.world.Apply(s.fountain, hibana.Burst{Count: 64})
		case 'p':
			s.paused = !s.paused
			s.world.Apply(s.fountain, hibana.SetEnabled{Enabled: !s.paused})
		case '+':
			s.rate += 50
			s.world.Apply(s.fountain, hibana.SetRate{PerSecond: s.rate})
		case '-':
			s.rate = max(s.rate-50, 0)
			s.world.Apply(s.fountain, hibana.SetRate{PerSecond: s.rate})
		}
	case *tcell.EventResize:
		s.width, s.height = s.screen.Size()
		s.screen.Sync()
	}
	return true
}

func (s *sandbox) step(dt float32) {
	s.world.Update(dt)
	if !s.hasFire {
		return
	}
	if events := s.world.Events(s.fireworks.Rockets); events != nil {
		for _, e := range events.Events() {
			if e.Kind == hibana.ExpirationExplode {
				s.playExplosion()
				break
			}
		}
	}
}

func (s *sandbox) run() {
	frame := time.Second / time.Duration(s.fps)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- s.screen.PollEvent()
		}
	}()

	last := time.Now()
	for {
		select {
		case ev := <-eventChan:
			if !s.handleInput(ev) {
				return
			}
		case now := <-ticker.C:
			s.step(float32(now.Sub(last).Seconds()))
			last = now
			s.draw()
		}
	}
}

func (s *sandbox) cleanup() {
	if s.audioInit {
		speaker.Close()
	}
	s.screen.Fini()
}

func main() {
	mode := flag.String("mode", "both", "scene to run: fountain, fireworks or both")
	rate := flag.Float64("rate", 200, "fountain drops per second")
	workers := flag.Int("workers", 4, "goroutines used by the base sweep")
	fps := flag.Int("fps", 60, "frames per second")
	mute := flag.Bool("mute", false, "disable sound")
	flag.Parse()

	if *fps <= 0 {
		fmt.Fprintf(os.Stderr, "invalid -fps %d\n", *fps)
		os.Exit(2)
	}

	sb, err := newSandbox(*mode, float32(*rate), *workers, *fps, *mute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer sb.cleanup()

	sb.run()
}
