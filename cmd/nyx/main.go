// Command nyx starts the engine and its operational HTTP endpoints.
package main

import (
	"log"

	"nyx/internal/bootstrap"
	"nyx/internal/config"
	"nyx/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	engine, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	if err := server.Run(engine, cfg.OpsAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
