package entity

import (
	"errors"
	"fmt"
	"math"
)

const GeometryPoint = "Point"

const earthRadiusMeters = 6371008.8

var ErrInvalidGeoPoint = errors.New("invalid geo point")

// GeoPoint is a GeoJSON point. Coordinates are ordered [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

func NewGeoPoint(longitude, latitude float64) (GeoPoint, error) {
	p := GeoPoint{
		Type:        GeometryPoint,
		Coordinates: [2]float64{longitude, latitude},
	}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

func (p GeoPoint) Longitude() float64 {
	return p.Coordinates[0]
}

func (p GeoPoint) Latitude() float64 {
	return p.Coordinates[1]
}

func (p GeoPoint) Validate() error {
	if p.Type != GeometryPoint {
		return fmt.Errorf("%w: geometry type must be %q", ErrInvalidGeoPoint, GeometryPoint)
	}

	lon, lat := p.Longitude(), p.Latitude()
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidGeoPoint)
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidGeoPoint)
	}
	return nil
}

// DistanceMeters returns the great-circle distance between two points.
func (p GeoPoint) DistanceMeters(other GeoPoint) float64 {
	lat1 := p.Latitude() * math.Pi / 180
	lat2 := other.Latitude() * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (other.Longitude() - p.Longitude()) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
