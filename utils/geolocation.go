package utils

import (
	"math"
)

const (
	EarthRadiusKm = 6371.0
	DegToRad      = math.Pi / 180.0
)

// DistanceKm is the haversine distance between two coordinates.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dlat := (lat2 - lat1) * DegToRad
	dlng := (lng2 - lng1) * DegToRad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1*DegToRad)*math.Cos(lat2*DegToRad)*math.Sin(dlng/2)*math.Sin(dlng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func IsValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// HasCoordinate treats 0,0 as "not set"; officers created without a
// location carry zero values.
func HasCoordinate(lat, lng float64) bool {
	return (lat != 0 || lng != 0) && IsValidCoordinate(lat, lng)
}
