package gps

import (
	"encoding/json"
	"fmt"

	"github.com/relabs-tech/telemetry_sender/internal/jsonfloat"
)

// FixStatus is the receiver fix state as carried in a sensor frame.
// 0 means unknown; values outside 0..3 are still legal on the wire.
type FixStatus int8

const (
	FixUnknown FixStatus = 0
	FixNone    FixStatus = 1
	Fix2D      FixStatus = 2
	Fix3D      FixStatus = 3
)

func (s FixStatus) String() string {
	switch s {
	case FixUnknown:
		return "unknown"
	case FixNone:
		return "none"
	case Fix2D:
		return "2d"
	case Fix3D:
		return "3d"
	}
	return fmt.Sprintf("status(%d)", int8(s))
}

// Fix is the GPS block of a sensor frame.
type Fix struct {
	Status     FixStatus `json:"fix_status"`
	Satellites int32     `json:"satellites"`
	TimeMs     int32     `json:"time_ms"`  // time of day, milliseconds
	Latitude   float64   `json:"lat"`      // decimal degrees
	Longitude  float64   `json:"lon"`      // decimal degrees
	Altitude   float64   `json:"altitude"` // meters MSL
}

func (f Fix) String() string {
	return fmt.Sprintf("[fix=%s sats=%d t=%d lat=%.6f lon=%.6f alt=%.1f]",
		f.Status, f.Satellites, f.TimeMs, f.Latitude, f.Longitude, f.Altitude)
}

// MarshalJSON writes a non-finite position as strings so the frame still relays.
func (f Fix) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status     FixStatus `json:"fix_status"`
		Satellites int32     `json:"satellites"`
		TimeMs     int32     `json:"time_ms"`
		Latitude   any       `json:"lat"`
		Longitude  any       `json:"lon"`
		Altitude   any       `json:"altitude"`
	}{
		Status:     f.Status,
		Satellites: f.Satellites,
		TimeMs:     f.TimeMs,
		Latitude:   jsonfloat.Value(f.Latitude),
		Longitude:  jsonfloat.Value(f.Longitude),
		Altitude:   jsonfloat.Value(f.Altitude),
	})
}

func (f *Fix) UnmarshalJSON(data []byte) error {
	var raw struct {
		Status     FixStatus       `json:"fix_status"`
		Satellites int32           `json:"satellites"`
		TimeMs     int32           `json:"time_ms"`
		Latitude   json.RawMessage `json:"lat"`
		Longitude  json.RawMessage `json:"lon"`
		Altitude   json.RawMessage `json:"altitude"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Fix{Status: raw.Status, Satellites: raw.Satellites, TimeMs: raw.TimeMs}
	var err error
	if out.Latitude, err = jsonfloat.Parse(raw.Latitude); err != nil {
		return fmt.Errorf("gps lat: %w", err)
	}
	if out.Longitude, err = jsonfloat.Parse(raw.Longitude); err != nil {
		return fmt.Errorf("gps lon: %w", err)
	}
	if out.Altitude, err = jsonfloat.Parse(raw.Altitude); err != nil {
		return fmt.Errorf("gps altitude: %w", err)
	}
	*f = out
	return nil
}
