// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/telemetry_sender/internal/gps"
	"github.com/relabs-tech/telemetry_sender/internal/imu"
)

// ErrFrameLength is returned when a buffer is not exactly Size bytes.
var ErrFrameLength = errors.New("frame: invalid frame length")

// SensorFrame is one gyroscope, accelerometer, inclinometer and GPS record.
type SensorFrame struct {
	Gyro  imu.Triad `json:"gyro"`
	Accel imu.Triad `json:"accel"`
	Incl  imu.Triad `json:"incl"`
	GPS   gps.Fix   `json:"gps"`
}

// Default returns the fixed frame the diagnostic sender transmits.
func Default() SensorFrame {
	return SensorFrame{
		Gyro:  imu.Triad{TimeMs: 1000, X: 1.0, Y: 2.0, Z: 3.0},
		Accel: imu.Triad{TimeMs: 1000, X: 4.0, Y: 5.0, Z: 6.0},
		Incl:  imu.Triad{TimeMs: 1000, X: 7.0, Y: 8.0, Z: 9.0},
		GPS: gps.Fix{
			Status:     gps.Fix3D,
			Satellites: 9,
			TimeMs:     1000,
			Latitude:   32.777928,
			Longitude:  -117.070138,
			Altitude:   2000.0,
		},
	}
}

// Values returns the 18 field values in wire order using their wire types.
func (f SensorFrame) Values() []any {
	return []any{
		f.Gyro.TimeMs, f.Gyro.X, f.Gyro.Y, f.Gyro.Z,
		f.Accel.TimeMs, f.Accel.X, f.Accel.Y, f.Accel.Z,
		f.Incl.TimeMs, f.Incl.X, f.Incl.Y, f.Incl.Z,
		int8(f.GPS.Status), f.GPS.Satellites, f.GPS.TimeMs,
		f.GPS.Latitude, f.GPS.Longitude, f.GPS.Altitude,
	}
}

// MarshalBinary encodes the frame. It never fails.
func (f SensorFrame) MarshalBinary() ([]byte, error) {
	return f.AppendBinary(make([]byte, 0, Size))
}

// AppendBinary appends the encoded frame to b.
func (f SensorFrame) AppendBinary(b []byte) ([]byte, error) {
	b = appendTriad(b, f.Gyro)
	b = appendTriad(b, f.Accel)
	b = appendTriad(b, f.Incl)
	b = append(b, byte(f.GPS.Status))
	b = binary.BigEndian.AppendUint32(b, uint32(f.GPS.Satellites))
	b = binary.BigEndian.AppendUint32(b, uint32(f.GPS.TimeMs))
	b = binary.BigEndian.AppendUint64(b, math.Float64bits(f.GPS.Latitude))
	b = binary.BigEndian.AppendUint64(b, math.Float64bits(f.GPS.Longitude))
	b = binary.BigEndian.AppendUint64(b, math.Float64bits(f.GPS.Altitude))
	return b, nil
}

func appendTriad(b []byte, t imu.Triad) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(t.TimeMs))
	b = binary.BigEndian.AppendUint32(b, math.Float32bits(t.X))
	b = binary.BigEndian.AppendUint32(b, math.Float32bits(t.Y))
	b = binary.BigEndian.AppendUint32(b, math.Float32bits(t.Z))
	return b
}

// UnmarshalBinary decodes exactly Size bytes into f.
func (f *SensorFrame) UnmarshalBinary(data []byte) error {
	if len(data) != Size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameLength, len(data), Size)
	}

	r := reader{buf: data}
	f.Gyro = r.triad()
	f.Accel = r.triad()
	f.Incl = r.triad()
	f.GPS.Status = gps.FixStatus(r.int8())
	f.GPS.Satellites = r.int32()
	f.GPS.TimeMs = r.int32()
	f.GPS.Latitude = r.float64()
	f.GPS.Longitude = r.float64()
	f.GPS.Altitude = r.float64()
	return nil
}

// Decode is a convenience wrapper around UnmarshalBinary.
func Decode(data []byte) (SensorFrame, error) {
	var f SensorFrame
	if err := f.UnmarshalBinary(data); err != nil {
		return SensorFrame{}, err
	}
	return f, nil
}

func (f SensorFrame) String() string {
	return fmt.Sprintf("{gyro=%s, acc=%s, incl=%s, gps=%s}", f.Gyro, f.Accel, f.Incl, f.GPS)
}

// reader walks a buffer whose length has already been checked.
type reader struct {
	buf []byte
	off int
}

func (r *reader) int8() int8 {
	v := int8(r.buf[r.off])
	r.off++
	return v
}

func (r *reader) int32() int32 {
	v := int32(binary.BigEndian.Uint32(r.buf[r.off:]))
	r.off += 4
	return v
}

func (r *reader) float32() float32 {
	v := math.Float32frombits(binary.BigEndian.Uint32(r.buf[r.off:]))
	r.off += 4
	return v
}

func (r *reader) float64() float64 {
	v := math.Float64frombits(binary.BigEndian.Uint64(r.buf[r.off:]))
	r.off += 8
	return v
}

func (r *reader) triad() imu.Triad {
	return imu.Triad{
		TimeMs: r.int32(),
		X:      r.float32(),
		Y:      r.float32(),
		Z:      r.float32(),
	}
}
