package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "airace/internal/persistence/log"
	"airace/internal/sim/tuning"
	"airace/internal/sim/world"
	"airace/internal/transport/observer"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		raceID      = flag.String("race", "race_1", "race (world) id")
		tuningPath  = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		circuitPath = flag.String("circuit", "./configs/circuits/oval.yaml", "circuit file (yaml or json)")
		circuitDB   = flag.String("circuit_db", "", "sqlite circuit store; when set, -circuit_name is loaded from it")
		circuitName = flag.String("circuit_name", "", "circuit name in -circuit_db")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		tickLog     = flag.Bool("tick_log", true, "write per-tick jsonl.zst logs under <data>/races/<race>/events")
		exitOnWin   = flag.Bool("exit_on_finish", false, "shut down shortly after the race has a winner")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}

	ctx, cancel := signalContext()
	defer cancel()

	circ, err := loadCircuit(ctx, circuitSource{Path: *circuitPath, DB: *circuitDB, Name: *circuitName})
	if err != nil {
		logger.Fatalf("load circuit: %v", err)
	}
	logger.Printf("circuit %s anchors=%d length=%.1f", circ.Name(), circ.Count(), circ.Length())

	w, err := buildRace(*raceID, tune, circ, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	if *tickLog {
		raceDir := filepath.Join(*dataDir, "races", *raceID)
		if err := os.MkdirAll(raceDir, 0o755); err != nil {
			logger.Fatalf("data dir: %v", err)
		}
		tl := persistlog.NewTickLogger(raceDir)
		defer tl.Close()
		w.SetTickLogger(tl)
	}

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	if *exitOnWin {
		go func() {
			select {
			case <-w.Done():
				winner, _ := w.Session().Winner()
				logger.Printf("race finished winner=%s; shutting down", winner)
				// Let observers receive the final tick.
				time.Sleep(time.Second)
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	obsSrv := observer.NewServer(w, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(w, obsSrv))

	enableAdminHTTP := envBool("AIRACE_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("AIRACE_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			winner, finished := w.Session().Winner()
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				RaceID    string             `json:"race_id"`
				SessionID string             `json:"session_id"`
				Tick      uint64             `json:"tick"`
				Finished  bool               `json:"finished"`
				Winner    string             `json:"winner,omitempty"`
				Metrics   world.WorldMetrics `json:"metrics"`
			}{
				RaceID:    *raceID,
				SessionID: w.Session().ID(),
				Tick:      w.CurrentTick(),
				Finished:  finished,
				Winner:    winner,
				Metrics:   w.Metrics(),
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	} else {
		logger.Printf("admin endpoints disabled (AIRACE_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	<-worldDone
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
