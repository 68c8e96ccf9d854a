package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValid(MPS))
	assert.True(t, IsValid(KMH))
	assert.True(t, IsValid(MPH))
	assert.False(t, IsValid("knots"))
	assert.False(t, IsValid(""))
}

func TestConvertSpeed(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 36.0, ConvertSpeed(10, KMH), 1e-9)
	assert.InDelta(t, 22.369362920544, ConvertSpeed(10, MPH), 1e-9)
	assert.Equal(t, 10.0, ConvertSpeed(10, MPS))
	// Unknown units fall back to m/s rather than guessing.
	assert.Equal(t, 10.0, ConvertSpeed(10, "furlongs"))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 7.3, KmhToMps(MpsToKmh(7.3)), 1e-12)
}
