// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package frame encodes and decodes the fixed 81-byte sensor frame sent to
// the telemetry receiver. All fields are big-endian with no padding.
//
//	| Type    | Name           | Description                               | Unit         |
//	|---------|----------------|-------------------------------------------|--------------|
//	| int32   | gyro_time_ms   | Gyroscope timestamp                       | milliseconds |
//	| float32 | gx, gy, gz     | Gyroscope X, Y, Z                         | deg/s        |
//	| int32   | accel_time_ms  | Accelerometer timestamp                   | milliseconds |
//	| float32 | ax, ay, az     | Accelerometer X, Y, Z                     | g            |
//	| int32   | incl_time_ms   | Inclinometer timestamp                    | milliseconds |
//	| float32 | ix, iy, iz     | Inclinometer X, Y, Z                      | g            |
//	| int8    | gps_fix_status | GPS fix status (1 = none, 2 = 2d, 3 = 3d) |              |
//	| int32   | gps_sat_count  | GPS number of satellites                  |              |
//	| int32   | gps_time_ms    | GPS timestamp                             | milliseconds |
//	| float64 | lat, lng, alt  | GPS latitude, longitude, altitude         | deg, deg, m  |
//
// Millisecond timestamps overflow int32 after about 24 days.
package frame

// Kind is the wire type of a single field.
type Kind uint8

const (
	Int8 Kind = iota + 1
	Int32
	Float32
	Float64
)

// Width returns the encoded size of the kind in bytes.
func (k Kind) Width() int {
	switch k {
	case Int8:
		return 1
	case Int32, Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

func (k Kind) String() string {
	switch k {
	case Int8:
		return "int8"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return "invalid"
}

// Field describes one slot of the frame.
type Field struct {
	Name   string
	Kind   Kind
	Offset int
}

// Layout lists the fields in wire order. Order and widths are fixed.
var Layout = buildLayout([]fieldDef{
	{"gyro_time_ms", Int32},
	{"gx", Float32},
	{"gy", Float32},
	{"gz", Float32},
	{"accel_time_ms", Int32},
	{"ax", Float32},
	{"ay", Float32},
	{"az", Float32},
	{"incl_time_ms", Int32},
	{"ix", Float32},
	{"iy", Float32},
	{"iz", Float32},
	{"gps_fix_status", Int8},
	{"gps_sat_count", Int32},
	{"gps_time_ms", Int32},
	{"latitude", Float64},
	{"longitude", Float64},
	{"altitude", Float64},
})

// Size is the encoded length of a frame.
const Size = 81

// NumFields is the number of values in a frame.
const NumFields = 18

type fieldDef struct {
	name string
	kind Kind
}

func buildLayout(defs []fieldDef) []Field {
	fields := make([]Field, len(defs))
	off := 0
	for i, d := range defs {
		fields[i] = Field{Name: d.name, Kind: d.kind, Offset: off}
		off += d.kind.Width()
	}
	return fields
}
