package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/telemetry_sender/internal/config"
	"github.com/relabs-tech/telemetry_sender/internal/gps"
)

// OpenGPSPort opens the configured GPS serial port (8N1).
func OpenGPSPort(cfg *config.Config) (io.ReadWriteCloser, error) {
	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("open GPS serial port %s: %w", cfg.GPSSerialPort, err)
	}
	log.Printf("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)
	return port, nil
}

// ReadGPS feeds NMEA lines from r into tracker until EOF or ctx is done.
// Unparseable sentences are skipped.
func ReadGPS(ctx context.Context, r io.Reader, tracker *gps.Tracker) error {
	reader := bufio.NewReader(r)
	skipped := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := reader.ReadString('\n')
		if line != "" {
			if ferr := tracker.Feed(line); ferr != nil {
				// noisy GPS or partial sentences at power-up
				skipped++
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if skipped > 0 {
					log.Printf("gps: skipped %d unparseable sentences", skipped)
				}
				return nil
			}
			return fmt.Errorf("gps read: %w", err)
		}
	}
}

// collectFix reads from port for at most wait and returns the best fix seen.
// It returns early once the receiver reports both a position and a fix
// status. The caller owns port and must close it, which also unblocks a
// reader still waiting on the device.
func collectFix(ctx context.Context, port io.Reader, wait time.Duration) (gps.Fix, bool) {
	tracker := gps.NewTracker()

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ReadGPS(ctx, port, tracker) }()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				log.Printf("gps: %v", err)
			}
			return tracker.Fix(), tracker.HasPosition()
		case <-ctx.Done():
			return tracker.Fix(), tracker.HasPosition()
		case <-ticker.C:
			if tracker.HasPosition() && tracker.Fix().Status != gps.FixUnknown {
				return tracker.Fix(), true
			}
		}
	}
}
