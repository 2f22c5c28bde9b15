package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/telemetry_sender/internal/app"
	"github.com/relabs-tech/telemetry_sender/internal/config"
)

func main() {
	configPath := flag.String("config", "telemetry_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting telemetry console (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsoleMQTT(ctx, config.Get(), os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
