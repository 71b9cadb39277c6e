package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tzneal/coordconv"
)

func TestFromFixedToFixedRoundTrip(t *testing.T) {
	// Seattle, roughly: 47.6205 N, -122.3493 W.
	latI := int32(47.6205 * FixedPointScale)
	lonI := int32(-122.3493 * FixedPointScale)

	f := FromFixed(latI, lonI, 56, true)
	assert.Equal(t, int32(56), f.AltitudeM)
	assert.True(t, f.HasAlt)

	gotLatI, gotLonI := ToFixed(f)
	assert.InDelta(t, latI, gotLatI, 1)
	assert.InDelta(t, lonI, gotLonI, 1)
}

func TestValidRejectsNoFixSentinel(t *testing.T) {
	noFix := FromFixed(0, 0, 0, false)
	assert.False(t, noFix.Valid())

	real := FromFixed(476205000, -1223493000, 0, false)
	assert.True(t, real.Valid())
}

func TestString(t *testing.T) {
	f := FromFixed(476205000, -1223493000, 0, false)
	assert.Equal(t, "47.620500,-122.349300", f.String())
}

func TestHemisphereRuneRoundTrip(t *testing.T) {
	assert.Equal(t, 'N', HemisphereToRune(coordconv.HemisphereNorth))
	assert.Equal(t, 'S', HemisphereToRune(coordconv.HemisphereSouth))
	assert.Equal(t, coordconv.HemisphereNorth, HemisphereFromRune('N'))
	assert.Equal(t, coordconv.HemisphereSouth, HemisphereFromRune('S'))
}
