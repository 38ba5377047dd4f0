package main

import (
	"flag"
	"log"
	"os"

	"github.com/BurhanCantCode/BaqiAI/internal/di"
	"github.com/BurhanCantCode/BaqiAI/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s store=%s stocks=%d", cfg.Environment, cfg.Store.Backend, len(cfg.Stocks))

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Blocks until signal
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
