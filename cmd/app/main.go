package main

import (
	"flag"
	"log"
	"os"

	_ "time/tzdata"

	"StoreMonitor/internal/di"
	"StoreMonitor/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s storage=%s registry=%s dispatch=%s",
		cfg.Environment, cfg.Storage.Type, cfg.Report.Registry, cfg.Report.Dispatch)

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run blocks until a shutdown signal.
	runErr := app.Run()
	cleanup()
	if runErr != nil {
		log.Printf("app error: %v", runErr)
		os.Exit(1)
	}
}
