package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	DefaultGeoapifyURL = "https://api.geoapify.com/v1/geocode/search"
	DefaultTimeout     = 5 * time.Second
)

// GeoapifyClient calls the Geoapify forward geocoding API. One attempt per
// lookup, first result wins.
type GeoapifyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGeoapifyClient(apiKey, baseURL string) *GeoapifyClient {
	if baseURL == "" {
		baseURL = DefaultGeoapifyURL
	}
	return &GeoapifyClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

type geoapifyResponse struct {
	Results []geoapifyResult `json:"results"`
}

type geoapifyResult struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Formatted string  `json:"formatted"`
	City      string  `json:"city"`
	County    string  `json:"county"`
	Country   string  `json:"country"`
	PlaceID   string  `json:"place_id"`
	Timezone  struct {
		Name string `json:"name"`
	} `json:"timezone"`
}

func (c *GeoapifyClient) Geocode(ctx context.Context, text string) (*Location, error) {
	if c.apiKey == "" {
		return nil, ErrUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNotFound
	}

	q := url.Values{}
	q.Set("text", text)
	q.Set("apiKey", c.apiKey)
	q.Set("limit", "1")
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geoapify: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the request URL, and with it the API key.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("geoapify: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geoapify: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out geoapifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("geoapify: decode response: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, ErrNotFound
	}

	r := out.Results[0]
	loc := &Location{
		Latitude:         r.Lat,
		Longitude:        r.Lon,
		FormattedAddress: r.Formatted,
		City:             r.City,
		Country:          r.Country,
		Timezone:         r.Timezone.Name,
		PlaceID:          r.PlaceID,
	}
	if loc.City == "" {
		loc.City = r.County
	}
	if loc.Timezone == "" {
		loc.Timezone = DefaultTimezone
	}
	return loc, nil
}
