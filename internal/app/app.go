package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	server "emberfall/server"
	"emberfall/server/internal/telemetry"
	"emberfall/server/logging"
	loggingSinks "emberfall/server/logging/sinks"
)

// Config carries the overridable pieces of the standalone binary. Zero
// values fall back to defaults, so app.Run(ctx, app.Config{}) is valid.
type Config struct {
	Addr       string
	Logger     telemetry.Logger
	Simulation server.Config
}

// Run wires the logging router, simulation and observer hub together and
// serves until the context ends.
func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	logConfig := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout)},
	}
	if path := os.Getenv("EMBERFALL_EVENT_LOG"); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		defer file.Close()
		logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSONSink(file, logConfig.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metrics := logging.NewMetrics()

	simCfg := applyEnv(cfg.Simulation, telemetryLogger)
	sim, err := server.NewSimulation(simCfg, server.Deps{
		Publisher: router,
		Metrics:   telemetry.WrapMetrics(metrics),
		Logger:    telemetryLogger,
	})
	if err != nil {
		return fmt.Errorf("construct simulation: %w", err)
	}

	hub := server.NewHub(telemetryLogger)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go sim.Run(runCtx, hub.Broadcast)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		snapshot := sim.Snapshot()
		stats := router.Stats()
		payload := struct {
			Status        string            `json:"status"`
			ServerTime    int64             `json:"serverTime"`
			Tick          uint64            `json:"tick"`
			Agents        int               `json:"agents"`
			Observers     int               `json:"observers"`
			Counters      map[string]uint64 `json:"counters"`
			EventsTotal   uint64            `json:"eventsTotal"`
			EventsDropped uint64            `json:"eventsDropped"`
		}{
			Status:        "ok",
			ServerTime:    time.Now().UnixMilli(),
			Tick:          snapshot.Tick,
			Agents:        len(snapshot.Agents),
			Observers:     hub.ObserverCount(),
			Counters:      metrics.TelemetrySnapshot(),
			EventsTotal:   stats.EventsTotal,
			EventsDropped: stats.DroppedTotal,
		}
		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	telemetryLogger.Printf("server listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			telemetryLogger.Printf("shutdown: %v", serr)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}

// applyEnv folds environment overrides into the simulation config.
func applyEnv(cfg server.Config, logger telemetry.Logger) server.Config {
	if cfg == (server.Config{}) {
		cfg = server.DefaultConfig()
	}
	if raw := os.Getenv("EMBERFALL_SEED"); raw != "" {
		cfg.Seed = raw
	}
	if raw := os.Getenv("EMBERFALL_AGENTS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.AgentCount = value
		} else {
			logger.Printf("invalid EMBERFALL_AGENTS=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("EMBERFALL_TUNING"); raw != "" {
		cfg.TuningPath = raw
	}
	if raw := os.Getenv("EMBERFALL_DOSSIERS"); raw != "" {
		cfg.DossierPath = raw
	}
	if raw := os.Getenv("EMBERFALL_JOURNAL"); raw != "" {
		cfg.JournalPath = raw
	}
	if raw := os.Getenv("EMBERFALL_JOURNAL_INDEX"); raw != "" {
		cfg.JournalIndexPath = raw
	}
	return cfg
}
