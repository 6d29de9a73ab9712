package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"retailcast/internal/app"
	"retailcast/internal/config"
)

func main() {
	configFile := flag.String("config", "", "path to an optional YAML config file")
	port := flag.Int("port", 0, "listen port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	fmt.Printf("retailcast listening on http://localhost:%d\n", cfg.Server.Port)

	if err := application.Run(); err != nil {
		slog.Error("Application exited with error", "error", err)
		os.Exit(1)
	}
}
