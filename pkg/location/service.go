package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const DefaultEndpoint = "https://nominatim.openstreetmap.org"

// ErrNoPlace is returned when a coordinate does not resolve to a named place.
var ErrNoPlace = errors.New("no place found")

// Place holds the reverse-geocoded info about a coordinate.
type Place struct {
	Name        string
	DisplayName string
	City        string
	Country     string
	Type        string
}

// NominatimReverseResponse is shaped for the /reverse API response.
type NominatimReverseResponse struct {
	PlaceID     int64  `json:"place_id"`
	Licence     string `json:"licence"`
	OsmType     string `json:"osm_type"`
	OsmID       int64  `json:"osm_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	PlaceRank   int    `json:"place_rank"`
	AddressType string `json:"addresstype"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		Tourism      string `json:"tourism"`
		Road         string `json:"road"`
		Suburb       string `json:"suburb"`
		CityDistrict string `json:"city_district"`
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		State        string `json:"state"`
		Postcode     string `json:"postcode"`
		Country      string `json:"country"`
		CountryCode  string `json:"country_code"`
	} `json:"address"`
}

type Geocoder struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	language   string
}

func NewGeocoder(endpoint, userAgent, language string) *Geocoder {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if userAgent == "" {
		userAgent = "golang-nominatim-client/1.0"
	}
	if language == "" {
		language = "en"
	}
	return &Geocoder{
		httpClient: http.DefaultClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
		userAgent:  userAgent,
		language:   language,
	}
}

// Reverse looks up the place at lat/lon.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("accept-language", g.language)

	reqURL := fmt.Sprintf("%s/reverse?%s", g.endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var result NominatimReverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoPlace, result.Error)
	}

	city := result.Address.City
	if city == "" {
		city = result.Address.Town
	}
	if city == "" {
		city = result.Address.Village
	}

	place := &Place{
		Name:        result.Name,
		DisplayName: result.DisplayName,
		City:        city,
		Country:     result.Address.Country,
		Type:        result.Type,
	}
	if place.Label() == "" {
		return nil, fmt.Errorf("%w at %f,%f", ErrNoPlace, lat, lon)
	}
	return place, nil
}

// Label is the most specific human-readable name of the place: its own name,
// else its city, town or village, else the full display name.
func (p *Place) Label() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.City != "":
		return p.City
	default:
		return p.DisplayName
	}
}
