package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	server "emberfall/server"
	"emberfall/server/internal/app"
)

func main() {
	cfg := app.Config{Simulation: server.DefaultConfig()}
	flag.StringVar(&cfg.Addr, "addr", ":8080", "listen address")
	flag.StringVar(&cfg.Simulation.Seed, "seed", cfg.Simulation.Seed, "world seed")
	flag.IntVar(&cfg.Simulation.AgentCount, "agents", cfg.Simulation.AgentCount, "hostile agent count")
	flag.StringVar(&cfg.Simulation.TuningPath, "tuning", "", "path to a tuning YAML override")
	flag.StringVar(&cfg.Simulation.DossierPath, "dossiers", "", "path to a dossier catalogue JSON")
	flag.StringVar(&cfg.Simulation.JournalPath, "journal", "", "path for the zstd decision journal")
	flag.StringVar(&cfg.Simulation.JournalIndexPath, "journal-index", "", "path for the sqlite tick index")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
