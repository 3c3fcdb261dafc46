package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"yogastudio/internal/models"
)

var ErrNoAPIKey = errors.New("google maps api key not configured")

// Geocoder resolves studio venues from Google Maps place ids
type Geocoder struct {
	client *maps.Client
	log    *zap.Logger
}

// NewGeocoder returns a disabled geocoder when apiKey is empty
func NewGeocoder(apiKey string, log *zap.Logger, opts ...maps.ClientOption) (*Geocoder, error) {
	g := &Geocoder{log: log.With(zap.String("component", "geocoder"))}
	if apiKey == "" {
		return g, nil
	}
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}
	g.client = client
	return g, nil
}

func (g *Geocoder) Enabled() bool {
	return g != nil && g.client != nil
}

// ResolvePlace validates and standardizes a place id into a studio location
func (g *Geocoder) ResolvePlace(ctx context.Context, placeID string) (*models.Location, error) {
	if !g.Enabled() {
		return nil, ErrNoAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	request := &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskGeometry,
			maps.PlaceDetailsFieldMaskFormattedAddress,
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskPlaceID,
		},
	}

	response, err := g.client.PlaceDetails(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("place details %s: %w", placeID, err)
	}

	return &models.Location{
		Type:             models.LocationStudio,
		Name:             response.Name,
		FormattedAddress: response.FormattedAddress,
		PlaceID:          response.PlaceID,
		Latitude:         response.Geometry.Location.Lat,
		Longitude:        response.Geometry.Location.Lng,
	}, nil
}

// Complete fills a studio location from its place id when coordinates are
// missing. Lookup failures leave the location as submitted.
func (g *Geocoder) Complete(ctx context.Context, loc models.Location) models.Location {
	if loc.Type == models.LocationOnline || loc.PlaceID == "" || loc.HasCoordinates() || !g.Enabled() {
		return loc
	}
	resolved, err := g.ResolvePlace(ctx, loc.PlaceID)
	if err != nil {
		g.log.Warn("place lookup failed", zap.String("place_id", loc.PlaceID), zap.Error(err))
		return loc
	}
	if loc.Name != "" {
		resolved.Name = loc.Name
	}
	return *resolved
}
