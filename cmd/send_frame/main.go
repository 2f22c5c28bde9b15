// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"

	"github.com/relabs-tech/telemetry_sender/internal/app"
	"github.com/relabs-tech/telemetry_sender/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (built-in defaults when empty)")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSendFrame(context.Background(), config.Get()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
