// cmd/tpsa-server/main.go: standalone HTTP tool server for tpsa
//
// Usage:
//
//	go run ./cmd/tpsa-server -port 8080 -config tpsa.toml
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/njchilds90/gotpsa/internal/config"
	"github.com/njchilds90/gotpsa/internal/server"
)

func main() {
	cfgPath := flag.String("config", "", "Settings file (.toml or .yaml); defaults to $TPSA_CONFIG")
	port := flag.Int("port", 0, "Port to listen on (overrides the settings file)")
	flag.Parse()

	settings, err := loadSettings(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if *port != 0 {
		settings.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "tpsa-server ", log.LstdFlags)
	if err := server.Run(ctx, settings.Server, logger); err != nil {
		log.Fatal(err)
	}
}

// loadSettings reads path, or the file named by TPSA_CONFIG when path is empty.
func loadSettings(path string) (config.Settings, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}
