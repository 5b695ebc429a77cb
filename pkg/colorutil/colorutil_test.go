package colorutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHSVToRGBPrimaries(t *testing.T) {
	require.Equal(t, Green, HSVToRGB(120, 1, 1))
	require.Equal(t, Blue, HSVToRGB(240, 1, 1))
	require.Equal(t, Black, HSVToRGB(0, 1, 0))
	require.Equal(t, White, HSVToRGB(0, 0, 1))
}

func TestRGBToHSVRoundTrip(t *testing.T) {
	h, s, v := RGBToHSV(255, 0, 0)
	require.InDelta(t, 0.0, h, 1e-9)
	require.InDelta(t, 1.0, s, 1e-9)
	require.InDelta(t, 1.0, v, 1e-9)

	h, _, _ = RGBToHSV(0, 0, 255)
	require.InDelta(t, 240.0, h, 1e-9)
}

func TestFromStringStable(t *testing.T) {
	a := FromString("deer")
	b := FromString("deer")
	require.Equal(t, a, b)
	require.EqualValues(t, 255, a.A)
}
