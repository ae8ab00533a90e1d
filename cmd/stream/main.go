// Command stream simulates particle systems and streams the extracted
// records of every frame to websocket viewers.
//
// Each binary message holds the frame number as a little-endian uint64
// followed by 80-byte extracted records. Viewers may send JSON commands,
// for example {"type":"burst","count":64}, which are applied to the
// fountain.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
)

func run(addr string, fps int, cfg HubConfig) error {
	if fps <= 0 {
		return fmt.Errorf("invalid fps %d", fps)
	}
	hub := NewHub(cfg)
	stop := make(chan struct{})
	go hub.Run(fps, stop)
	defer close(stop)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.Handle)
	srv := &http.Server{Addr: addr, Handler: mux}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		srv.Close()
	}()

	cfg.Logger.Printf("streaming on %s/ws at %d fps", addr, fps)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	fps := flag.Int("fps", 30, "frames per second")
	rate := flag.Float64("rate", 200, "fountain drops per second")
	workers := flag.Int("workers", 4, "goroutines used by the base sweep")
	flag.Parse()

	logger := log.New(os.Stderr, "stream: ", log.LstdFlags)
	cfg := HubConfig{Logger: logger, Rate: float32(*rate), Workers: *workers}
	if err := run(*addr, *fps, cfg); err != nil {
		logger.Fatal(err)
	}
}
