package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeoapifyClientGeocode(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"text":   q.Get("text"),
			"apiKey": q.Get("apiKey"),
			"limit":  q.Get("limit"),
			"format": q.Get("format"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"lat":28.6139,"lon":77.209,"formatted":"New Delhi, India","county":"New Delhi","country":"India","place_id":"abc","timezone":{"name":"Asia/Kolkata"}},
			{"lat":1,"lon":2,"formatted":"ignored"}
		]}`))
	}))
	defer srv.Close()

	c := NewGeoapifyClient("key-1", srv.URL)
	loc, err := c.Geocode(context.Background(), "  Delhi ")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}

	if gotQuery["text"] != "Delhi" || gotQuery["apiKey"] != "key-1" || gotQuery["limit"] != "1" || gotQuery["format"] != "json" {
		t.Errorf("unexpected query: %v", gotQuery)
	}
	if loc.Latitude != 28.6139 || loc.Longitude != 77.209 {
		t.Errorf("coordinates = %v,%v", loc.Latitude, loc.Longitude)
	}
	if loc.City != "New Delhi" {
		t.Errorf("city should fall back to county, got %q", loc.City)
	}
	if loc.Timezone != "Asia/Kolkata" || loc.PlaceID != "abc" || loc.FormattedAddress != "New Delhi, India" {
		t.Errorf("unexpected location: %+v", loc)
	}
}

func TestGeoapifyClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "no results", status: http.StatusOK, body: `{"results":[]}`, wantErr: ErrNotFound},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`},
		{name: "bad json", status: http.StatusOK, body: `{"results":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewGeoapifyClient("key", srv.URL).Geocode(context.Background(), "Zzzzznotaplace")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && errors.Is(err, ErrNotFound) {
				t.Errorf("transport failure reported as not found: %v", err)
			}
		})
	}
}

func TestGeoapifyClientDefaultsTimezone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"lat":1,"lon":2,"city":"Pune","country":"India"}]}`))
	}))
	defer srv.Close()

	loc, err := NewGeoapifyClient("key", srv.URL).Geocode(context.Background(), "Pune")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if loc.Timezone != DefaultTimezone || loc.City != "Pune" {
		t.Errorf("unexpected location: %+v", loc)
	}
}

func TestGeoapifyClientWithoutKey(t *testing.T) {
	_, err := NewGeoapifyClient("", "").Geocode(context.Background(), "Delhi")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestGeoapifyClientTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewGeoapifyClient("secret-geo-key", addr).Geocode(context.Background(), "Delhi")
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if strings.Contains(err.Error(), "secret-geo-key") || strings.Contains(err.Error(), "apiKey") {
		t.Errorf("error exposes request URL: %v", err)
	}
}
