// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"encoding/json"
	"fmt"

	"github.com/relabs-tech/telemetry_sender/internal/jsonfloat"
)

// Triad is one timestamped three-axis reading. The same shape carries the
// gyroscope (deg/s), accelerometer (g) and inclinometer (g) blocks.
type Triad struct {
	TimeMs int32   `json:"time_ms"` // sensor timestamp, milliseconds
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Z      float32 `json:"z"`
}

func (t Triad) String() string {
	return fmt.Sprintf("[t=%d x=%g y=%g z=%g]", t.TimeMs, t.X, t.Y, t.Z)
}

// MarshalJSON writes NaN and ±Inf axes as strings so the frame still relays.
func (t Triad) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TimeMs int32 `json:"time_ms"`
		X      any   `json:"x"`
		Y      any   `json:"y"`
		Z      any   `json:"z"`
	}{
		TimeMs: t.TimeMs,
		X:      jsonfloat.Value(float64(t.X)),
		Y:      jsonfloat.Value(float64(t.Y)),
		Z:      jsonfloat.Value(float64(t.Z)),
	})
}

func (t *Triad) UnmarshalJSON(data []byte) error {
	var raw struct {
		TimeMs int32           `json:"time_ms"`
		X      json.RawMessage `json:"x"`
		Y      json.RawMessage `json:"y"`
		Z      json.RawMessage `json:"z"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var axes [3]float64
	for i, r := range []json.RawMessage{raw.X, raw.Y, raw.Z} {
		v, err := jsonfloat.Parse(r)
		if err != nil {
			return fmt.Errorf("imu triad axis %d: %w", i, err)
		}
		axes[i] = v
	}

	*t = Triad{TimeMs: raw.TimeMs, X: float32(axes[0]), Y: float32(axes[1]), Z: float32(axes[2])}
	return nil
}
