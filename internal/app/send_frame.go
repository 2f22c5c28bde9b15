// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/telemetry_sender/internal/config"
	"github.com/relabs-tech/telemetry_sender/internal/frame"
	"github.com/relabs-tech/telemetry_sender/internal/transport"
)

// RunSendFrame builds one sensor frame, sends it as a single UDP datagram
// to the configured receiver and returns. Diagnostics go to stderr.
func RunSendFrame(ctx context.Context, cfg *config.Config) error {
	f := BuildFrame(ctx, cfg)
	return SendFrame(ctx, cfg.UDPAddr(), f.Values()...)
}

// BuildFrame returns the fixed diagnostic frame, with the GPS block taken
// from the serial receiver when GPS_SERIAL_PORT is configured and a
// position arrives within GPS_WAIT.
func BuildFrame(ctx context.Context, cfg *config.Config) frame.SensorFrame {
	f := frame.Default()
	if cfg.GPSSerialPort == "" {
		return f
	}

	port, err := OpenGPSPort(cfg)
	if err != nil {
		log.Printf("sender: %v; keeping fixed GPS block", err)
		return f
	}
	defer port.Close()

	fix, ok := collectFix(ctx, port, time.Duration(cfg.GPSWait)*time.Millisecond)
	if !ok {
		log.Printf("sender: no GPS position within %dms; keeping fixed GPS block", cfg.GPSWait)
		return f
	}
	log.Printf("sender: using live GPS fix %s", fix)
	f.GPS = fix
	return f
}

// SendFrame encodes values in frame layout order and sends them to addr.
// An encoding error aborts before any socket is opened.
func SendFrame(ctx context.Context, addr string, values ...any) error {
	payload, err := frame.Pack(values...)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	log.Printf("sending %q %v", hex.EncodeToString(payload), values)
	defer log.Println("closing socket")

	if err := transport.SendDatagram(ctx, addr, payload); err != nil {
		return err
	}
	return nil
}
