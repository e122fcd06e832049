package flickr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	DefaultEndpoint = "https://api.flickr.com/services/rest/"
	DefaultSort     = "interestingness-desc"
	// DefaultSize is the "small square" size suffix.
	DefaultSize = "s"

	searchMethod = "flickr.photos.search"
	imageHost    = "https://live.staticflickr.com"
)

// ErrSearch marks every failed photos.search call: transport errors, non-200
// answers, undecodable bodies and stat=fail responses.
var ErrSearch = errors.New("flickr photo search failed")

type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	userAgent  string
}

func NewClient(apiKey, endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient: http.DefaultClient,
		apiKey:     apiKey,
		endpoint:   endpoint,
		userAgent:  "virtualtourist/1.0",
	}
}

// SearchParams are the query parameters of one photos.search call.
type SearchParams struct {
	Lat     float64
	Lon     float64
	PerPage int
	Page    int
	Sort    string
}

func (c *Client) searchURL(p SearchParams) string {
	params := url.Values{}
	params.Set("method", searchMethod)
	params.Set("api_key", c.apiKey)
	params.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(p.Lon, 'f', -1, 64))
	params.Set("per_page", strconv.Itoa(p.PerPage))
	params.Set("page", strconv.Itoa(p.Page))
	params.Set("sort", p.Sort)
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")
	return fmt.Sprintf("%s?%s", c.endpoint, params.Encode())
}

// SearchPhotos performs a single flickr.photos.search request.
func (c *Client) SearchPhotos(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(p), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status: %s", ErrSearch, resp.Status)
	}

	var apiResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode search response: %w", ErrSearch, err)
	}
	if apiResp.Stat != "ok" {
		return nil, &APIError{Code: apiResp.Code, Message: apiResp.Message}
	}
	return &apiResp, nil
}

// ImageURL builds the static image URL of a photo for the given size suffix.
func ImageURL(p Photo, size string) string {
	if size == "" {
		size = DefaultSize
	}
	return fmt.Sprintf("%s/%s/%s_%s_%s.jpg", imageHost, p.Server, p.ID, p.Secret, size)
}
