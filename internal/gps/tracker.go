package gps

import (
	"fmt"
	"strings"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
)

// GGA fix quality "0": the position fields are stale.
const ggaInvalid = "0"

// Tracker accumulates NMEA sentences into the latest Fix.
// GSA supplies the fix status, GGA the satellite count, time and position,
// RMC refreshes time and position while the receiver reports valid data.
type Tracker struct {
	mu          sync.RWMutex
	fix         Fix
	hasPosition bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Feed parses one NMEA line. Lines not starting with '$' and sentence types
// the tracker does not use are ignored without error.
func (t *Tracker) Feed(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return fmt.Errorf("nmea parse: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch sentence.DataType() {
	case nmea.TypeGSA:
		m := sentence.(nmea.GSA)
		switch m.FixType {
		case nmea.FixNone:
			t.fix.Status = FixNone
		case nmea.Fix2D:
			t.fix.Status = Fix2D
		case nmea.Fix3D:
			t.fix.Status = Fix3D
		}

	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		t.fix.Satellites = int32(m.NumSatellites)
		if m.Time.Valid {
			t.fix.TimeMs = timeOfDayMs(m.Time)
		}
		if m.FixQuality != ggaInvalid {
			t.fix.Latitude = m.Latitude
			t.fix.Longitude = m.Longitude
			t.fix.Altitude = m.Altitude
			t.hasPosition = true
		}

	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		if m.Validity != nmea.ValidRMC {
			return nil
		}
		if m.Time.Valid {
			t.fix.TimeMs = timeOfDayMs(m.Time)
		}
		t.fix.Latitude = m.Latitude
		t.fix.Longitude = m.Longitude
		t.hasPosition = true
	}

	return nil
}

// Fix returns a copy of the current fix.
func (t *Tracker) Fix() Fix {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fix
}

// HasPosition reports whether any sentence has supplied a usable position.
func (t *Tracker) HasPosition() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hasPosition
}

func timeOfDayMs(tm nmea.Time) int32 {
	return int32(((tm.Hour*60+tm.Minute)*60+tm.Second)*1000 + tm.Millisecond)
}
