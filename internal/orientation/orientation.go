package orientation

import (
	"math"

	"github.com/relabs-tech/telemetry_sender/internal/imu"
)

// Pose is a roll/pitch estimate in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Any unit works since only the ratios matter.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// FromAccel is ComputePoseFromAccel for an accelerometer triad.
func FromAccel(t imu.Triad) Pose {
	return ComputePoseFromAccel(float64(t.X), float64(t.Y), float64(t.Z))
}
