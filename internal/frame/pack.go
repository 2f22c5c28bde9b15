package frame

import (
	"fmt"
	"math"
	"reflect"

	"github.com/relabs-tech/telemetry_sender/internal/gps"
	"github.com/relabs-tech/telemetry_sender/internal/imu"
)

// EncodingError reports a value that cannot be represented in its field.
// Index is -1 when the number of values is wrong.
type EncodingError struct {
	Index  int
	Field  string
	Value  any
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Index < 0 {
		return "frame: " + e.Reason
	}
	return fmt.Sprintf("frame: cannot encode %s=%v (field %d): %s", e.Field, e.Value, e.Index, e.Reason)
}

// Pack encodes NumFields loosely typed values in Layout order. Integer
// fields take any Go integer, float fields take any Go integer or float.
// Values that do not fit their field fail with *EncodingError; nothing is
// clamped or truncated.
func Pack(values ...any) ([]byte, error) {
	f, err := FromValues(values...)
	if err != nil {
		return nil, err
	}
	return f.MarshalBinary()
}

// FromValues builds a frame from NumFields values in Layout order with the
// same range checks as Pack.
func FromValues(values ...any) (SensorFrame, error) {
	if len(values) != NumFields {
		return SensorFrame{}, &EncodingError{
			Index:  -1,
			Reason: fmt.Sprintf("got %d values, want %d", len(values), NumFields),
		}
	}

	var (
		ints   [NumFields]int64
		floats [NumFields]float64
	)
	for i, field := range Layout {
		switch field.Kind {
		case Int8, Int32:
			n, err := checkInt(field, values[i])
			if err != nil {
				return SensorFrame{}, newEncodingError(i, field, values[i], err)
			}
			ints[i] = n
		case Float32, Float64:
			x, err := checkFloat(field, values[i])
			if err != nil {
				return SensorFrame{}, newEncodingError(i, field, values[i], err)
			}
			floats[i] = x
		}
	}

	triad := func(at int) imu.Triad {
		return imu.Triad{
			TimeMs: int32(ints[at]),
			X:      float32(floats[at+1]),
			Y:      float32(floats[at+2]),
			Z:      float32(floats[at+3]),
		}
	}
	return SensorFrame{
		Gyro:  triad(0),
		Accel: triad(4),
		Incl:  triad(8),
		GPS: gps.Fix{
			Status:     gps.FixStatus(ints[12]),
			Satellites: int32(ints[13]),
			TimeMs:     int32(ints[14]),
			Latitude:   floats[15],
			Longitude:  floats[16],
			Altitude:   floats[17],
		},
	}, nil
}

func newEncodingError(i int, field Field, v any, err error) *EncodingError {
	return &EncodingError{Index: i, Field: field.Name, Value: v, Reason: err.Error()}
}

func checkInt(field Field, v any) (int64, error) {
	lo, hi := int64(math.MinInt32), int64(math.MaxInt32)
	if field.Kind == Int8 {
		lo, hi = math.MinInt8, math.MaxInt8
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < lo || n > hi {
			return 0, fmt.Errorf("out of %s range [%d, %d]", field.Kind, lo, hi)
		}
		return n, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > uint64(hi) {
			return 0, fmt.Errorf("out of %s range [%d, %d]", field.Kind, lo, hi)
		}
		return int64(u), nil
	}
	return 0, fmt.Errorf("%s field requires an integer, got %T", field.Kind, v)
}

func checkFloat(field Field, v any) (float64, error) {
	var x float64
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		x = rv.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x = float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		x = float64(rv.Uint())
	default:
		return 0, fmt.Errorf("%s field requires a number, got %T", field.Kind, v)
	}

	if field.Kind == Float32 && !math.IsInf(x, 0) && math.IsInf(float64(float32(x)), 0) {
		return 0, fmt.Errorf("too large for %s", field.Kind)
	}
	return x, nil
}
