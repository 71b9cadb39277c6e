// Package position decodes and formats the fixed-point coordinates carried
// by pb.Position and pb.Waypoint, grounded on the teacher's coordconv.go
// hemisphere helpers and cmd/ll2utm's "convert, then print in every
// notation the caller might want" shape, generalized from a one-shot CLI
// conversion tool to an always-available decode step in the packet
// pipeline (spec.md §4.4.5's Position/Waypoint cases).
package position

import (
	"fmt"

	"github.com/golang/geo/s2"
	"github.com/tzneal/coordconv"
)

// FixedPointScale is the divisor Meshtastic uses to pack a latitude or
// longitude into a schema int32 (degrees * 1e7).
const FixedPointScale = 1e7

// Fix is a decoded geographic position, independent of which schema message
// (Position or Waypoint) it came from.
type Fix struct {
	LatLng    s2.LatLng
	AltitudeM int32
	HasAlt    bool
}

// FromFixed converts Meshtastic's fixed-point latitude/longitude integers
// into a Fix. altitude/hasAltitude mirror Position's optional altitude
// field; Waypoint callers that have no altitude pass (0, false).
func FromFixed(latI, lonI, altitude int32, hasAltitude bool) Fix {
	lat := float64(latI) / FixedPointScale
	lon := float64(lonI) / FixedPointScale
	return Fix{
		LatLng:    s2.LatLngFromDegrees(lat, lon),
		AltitudeM: altitude,
		HasAlt:    hasAltitude,
	}
}

// ToFixed packs a Fix back into Meshtastic's fixed-point representation,
// the inverse of FromFixed, for building outbound Position/Waypoint
// payloads (spec.md §4.3's setPosition/sendWaypoint request builders).
func ToFixed(f Fix) (latI, lonI int32) {
	lat := f.LatLng.Lat.Degrees()
	lon := f.LatLng.Lng.Degrees()
	return int32(lat * FixedPointScale), int32(lon * FixedPointScale)
}

// Valid reports whether f's coordinates are within range and not the
// Meshtastic "no fix" sentinel (0, 0).
func (f Fix) Valid() bool {
	if !f.LatLng.IsValid() {
		return false
	}
	return f.LatLng.Lat.Degrees() != 0 || f.LatLng.Lng.Degrees() != 0
}

// String renders a decimal-degree form, e.g. "47.620500,-122.349300".
func (f Fix) String() string {
	return fmt.Sprintf("%.6f,%.6f", f.LatLng.Lat.Degrees(), f.LatLng.Lng.Degrees())
}

// UTM converts f to UTM zone/hemisphere/easting/northing using
// github.com/tzneal/coordconv, the pure-Go library the teacher's
// coordconv.go wraps only the hemisphere-rune translation of; this
// generalizes that wrapper to the actual coordinate conversion the
// teacher's cgo geotranz tools (cmd/ll2utm, cmd/samoyed-ll2utm) performed
// through the C library, without depending on cgo.
func (f Fix) UTM() (utm coordconv.UTMCoord, err error) {
	ll := coordconv.LatLon{
		Lat: f.LatLng.Lat.Degrees(),
		Lon: f.LatLng.Lng.Degrees(),
	}
	return coordconv.LatLonToUTM(ll)
}

// UTMString formats f as "<zone><hemisphere> <easting>E <northing>N", the
// same field order cmd/ll2utm printed, built on coordconv's conversion and
// the teacher's HemisphereToRune helper.
func (f Fix) UTMString() (string, error) {
	utm, err := f.UTM()
	if err != nil {
		return "", fmt.Errorf("position: utm: %w", err)
	}
	h := HemisphereToRune(utm.Hemisphere)
	return fmt.Sprintf("%d%c %.0fE %.0fN", utm.Zone, h, utm.Easting, utm.Northing), nil
}

// HemisphereToRune mirrors the teacher's coordconv.go helper of the same
// name, translating coordconv's Hemisphere enum to the conventional N/S
// letter used in UTM/MGRS notation.
func HemisphereToRune(h coordconv.Hemisphere) rune {
	switch h {
	case coordconv.HemisphereNorth:
		return 'N'
	case coordconv.HemisphereSouth:
		return 'S'
	default:
		return '?'
	}
}

// HemisphereFromRune is the inverse, mirroring the teacher's
// HemisphereRuneToCoordconvHemisphere.
func HemisphereFromRune(r rune) coordconv.Hemisphere {
	switch r {
	case 'N':
		return coordconv.HemisphereNorth
	case 'S':
		return coordconv.HemisphereSouth
	default:
		return coordconv.HemisphereInvalid
	}
}
