package gps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ggaSanDiego = "$GPGGA,000001.000,3246.6757,N,11704.2083,W,1,07,0.9,120.5,M,46.9,M,,*46"
	ggaNorth    = "$GPGGA,123519.250,4846.6757,N,11704.2083,W,1,09,0.9,2000.0,M,46.9,M,,*7A"
	gsa3D       = "$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1*39"
	gsa2D       = "$GPGSA,A,2,04,05,,09,,,,,,,,,2.5,1.3,2.1*3D"
	rmcValid    = "$GPRMC,123520.000,A,3246.6757,N,11704.2083,W,0.5,54.7,151026,,,A*43"
	rmcVoid     = "$GPRMC,123521.000,V,4846.6757,N,11704.2083,W,0.5,54.7,151026,,,A*58"
)

func TestTracker_GGAAndGSA(t *testing.T) {
	tr := NewTracker()
	require.False(t, tr.HasPosition())

	require.NoError(t, tr.Feed(gsa3D))
	require.NoError(t, tr.Feed(ggaSanDiego))

	fix := tr.Fix()
	assert.True(t, tr.HasPosition())
	assert.Equal(t, Fix3D, fix.Status)
	assert.Equal(t, int32(7), fix.Satellites)
	assert.Equal(t, int32(1000), fix.TimeMs)
	assert.InDelta(t, 32.777928, fix.Latitude, 1e-6)
	assert.InDelta(t, -117.070138, fix.Longitude, 1e-6)
	assert.InDelta(t, 120.5, fix.Altitude, 1e-9)
}

func TestTracker_LaterSentencesOverwrite(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Feed(gsa3D))
	require.NoError(t, tr.Feed(ggaSanDiego))
	require.NoError(t, tr.Feed(gsa2D))
	require.NoError(t, tr.Feed(ggaNorth))

	fix := tr.Fix()
	assert.Equal(t, Fix2D, fix.Status)
	assert.Equal(t, int32(9), fix.Satellites)
	assert.Equal(t, int32((12*3600+35*60+19)*1000+250), fix.TimeMs)
	assert.InDelta(t, 48.777928, fix.Latitude, 1e-6)
	assert.InDelta(t, 2000.0, fix.Altitude, 1e-9)
}

func TestTracker_RMC(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Feed(rmcVoid))
	assert.False(t, tr.HasPosition())

	require.NoError(t, tr.Feed(rmcValid))
	fix := tr.Fix()
	assert.True(t, tr.HasPosition())
	assert.Equal(t, int32((12*3600+35*60+20)*1000), fix.TimeMs)
	assert.InDelta(t, 32.777928, fix.Latitude, 1e-6)
	assert.InDelta(t, -117.070138, fix.Longitude, 1e-6)
	assert.Equal(t, FixUnknown, fix.Status)
}

func TestTracker_IgnoresNoise(t *testing.T) {
	tr := NewTracker()
	assert.NoError(t, tr.Feed(""))
	assert.NoError(t, tr.Feed("   "))
	assert.NoError(t, tr.Feed("garbage without dollar"))
	assert.False(t, tr.HasPosition())
	assert.Equal(t, Fix{}, tr.Fix())
}

func TestTracker_BadChecksum(t *testing.T) {
	tr := NewTracker()
	err := tr.Feed("$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1*00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nmea parse")
	assert.Equal(t, FixUnknown, tr.Fix().Status)
}

func TestFixStatus_String(t *testing.T) {
	assert.Equal(t, "none", FixNone.String())
	assert.Equal(t, "2d", Fix2D.String())
	assert.Equal(t, "3d", Fix3D.String())
	assert.Equal(t, "unknown", FixUnknown.String())
	assert.Equal(t, "status(-5)", FixStatus(-5).String())
}
