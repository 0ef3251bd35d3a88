// ════════════════════════════════════════════════════════════════════════════════════════════════
// isrqueue - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Soak Harness & Interactive Shell
//
// Description:
//   Two modes over the counted SPSC ring:
//     isrqueue [-config file] [-metrics addr]   producer/pinned-consumer soak run
//     isrqueue -repl [-capacity n]               interactive shell over one ring
//     isrqueue -dump-config                      print the effective configuration
//
// Phases (soak):
//   - Phase 0: configuration (defaults + JSON overlay)
//   - Phase 1: optional Prometheus endpoint
//   - Phase 2: soak run until the entry budget is spent or SIGINT/SIGTERM
//   - Phase 3: report
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"isrqueue/config"
	"isrqueue/control"
	"isrqueue/debug"
	"isrqueue/metrics"
	"isrqueue/repl"
	"isrqueue/soak"
	"isrqueue/utils"
)

func main() {
	var (
		configPath  = flag.String("config", "", "JSON config file overlaying the defaults")
		metricsAddr = flag.String("metrics", "", "Prometheus listen address, overrides config")
		replMode    = flag.Bool("repl", false, "start the interactive ring shell")
		capacity    = flag.Int("capacity", 4, "ring capacity for -repl")
		dumpConfig  = flag.Bool("dump-config", false, "print the effective configuration and exit")
	)
	flag.Parse()

	if *replMode {
		os.Exit(runREPL(*capacity))
	}

	// PHASE 0: configuration
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			debug.DropError("CONFIG", err)
			os.Exit(2)
		}
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *dumpConfig {
		b, err := config.Encode(cfg)
		if err != nil {
			debug.DropError("CONFIG", err)
			os.Exit(2)
		}
		utils.PrintInfo(utils.B2s(b) + "\n")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	// PHASE 1: metrics endpoint
	m := metrics.New("isrqueue")
	srv := serveMetrics(cfg.MetricsAddr, m)

	// PHASE 2: soak
	debug.DropMessage("SOAK", "capacity "+utils.Itoa(cfg.Capacity)+", "+utils.Itoa(cfg.Entries)+" entries, lock "+cfg.Lock)
	rep, err := soak.Run(ctx, cfg, m)

	// PHASE 3: report
	debug.DropMessage("PRODUCED", utils.Utoa(rep.Produced))
	debug.DropMessage("CONSUMED", utils.Utoa(rep.Consumed))
	debug.DropMessage("BACKOFFS", utils.Utoa(rep.FullBackoffs))
	if rep.Journaled >= 0 {
		debug.DropMessage("JOURNALED", utils.Itoa(int(rep.Journaled)))
	}
	debug.DropMessage("ELAPSED", rep.Elapsed.String())

	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			debug.DropError("METRICS", serr)
		}
		done()
	}

	if err != nil {
		debug.DropError("SOAK_ERROR", err)
		os.Exit(1)
	}
}

// runREPL serves the interactive shell on stdin/stdout.
func runREPL(capacity int) int {
	r, err := repl.New(capacity)
	if err != nil {
		debug.DropError("REPL", err)
		return 2
	}
	utils.PrintInfo(r.HelpString())
	if err := r.Run(os.Stdin, os.Stdout); err != nil {
		debug.DropError("REPL", err)
		return 1
	}
	return 0
}

// serveMetrics starts the Prometheus endpoint when addr is set.
func serveMetrics(addr string, m *metrics.Metrics) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			debug.DropError("METRICS", err)
		}
	}()
	debug.DropMessage("METRICS", "listening on "+addr)
	return srv
}

// setupSignalHandling stops the producer and the pinned consumer on
// SIGINT/SIGTERM. The soak run then drains and reports normally.
func setupSignalHandling(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		debug.DropMessage("SIGNAL", "Received interrupt, shutting down...")
		control.Shutdown()
		cancel()
	}()
}
