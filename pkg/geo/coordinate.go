// Package geo holds small helpers for WGS 84 coordinates.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon is the tolerance used when matching a coordinate against a stored pin.
const Epsilon = 1e-9

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Validate reports whether lat/lon is a usable coordinate.
func Validate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("%w: not a number", ErrInvalidCoordinate)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range [-90, 90]", ErrInvalidCoordinate, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %f out of range [-180, 180]", ErrInvalidCoordinate, lon)
	}
	return nil
}

// Same reports whether two coordinates are equal within Epsilon.
func Same(lat1, lon1, lat2, lon2 float64) bool {
	return math.Abs(lat1-lat2) < Epsilon && math.Abs(lon1-lon2) < Epsilon
}
