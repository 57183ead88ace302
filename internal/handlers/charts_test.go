package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/AnshRaj112/astravedam-backend/internal/handlers"
	"github.com/AnshRaj112/astravedam-backend/internal/middleware"
	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"github.com/AnshRaj112/astravedam-backend/internal/services"
	"github.com/AnshRaj112/astravedam-backend/internal/testutil"
)

type chartEnv struct {
	charts   *testutil.ChartStore
	accounts *testutil.AccountStore
	geocoder *testutil.Geocoder
	svc      *services.ChartService
	h        *handlers.ChartHandler
}

func newChartEnv() *chartEnv {
	e := &chartEnv{
		charts:   testutil.NewChartStore(),
		accounts: testutil.NewAccountStore(),
		geocoder: testutil.NewGeocoder(),
	}
	e.svc = services.NewChartService(services.ChartServiceConfig{
		Charts:   e.charts,
		Accounts: e.accounts,
		Geocoder: e.geocoder,
	})
	e.h = handlers.NewChartHandler(e.svc)
	return e
}

func postJSON(t *testing.T, h http.HandlerFunc, body string, acc *models.Account) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/calculate-chart", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if acc != nil {
		req = req.WithContext(middleware.WithAccount(req.Context(), acc))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestCalculateChart(t *testing.T) {
	e := newChartEnv()

	rec := postJSON(t, e.h.CalculateChart, `{"date":"1990-01-01","time":"12:00","location":"Delhi","userId":"anon-1","setAsPrimary":true}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp handlers.CalculateChartResponse
	decode(t, rec, &resp)
	if !resp.Success || resp.ChartID == "" || !resp.IsPrimary {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Chart.Lagna == "" || resp.Chart.Summary == "" {
		t.Errorf("chart payload missing: %+v", resp.Chart)
	}
	loc := resp.LocationData
	if loc.Coordinates.Lat != 28.6139 || loc.Timezone != "Asia/Kolkata" || loc.City != "New Delhi" {
		t.Errorf("locationData = %+v", loc)
	}

	stored := e.charts.All()
	if len(stored) != 1 || stored[0].AnonymousID() != "anon-1" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestCalculateChartAuthenticatedOwner(t *testing.T) {
	e := newChartEnv()
	acc := e.accounts.Add(models.NewGoogleAccount("g-1", "a@example.com", "A", "", time.Now()))

	rec := postJSON(t, e.h.CalculateChart, `{"date":"1990-01-01","time":"12:00","location":"Delhi","userId":"legacy-anon"}`, acc)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	c := e.charts.All()[0]
	if c.UserID != nil || c.OwnerUserID == nil || *c.OwnerUserID != acc.ID {
		t.Errorf("owner fields: userId=%v ownerUserId=%v", c.UserID, c.OwnerUserID)
	}
}

func TestCalculateChartErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "malformed", body: `{"date":`, wantStatus: http.StatusBadRequest, wantError: "Invalid request body"},
		{name: "missing fields", body: `{"name":"x"}`, wantStatus: http.StatusBadRequest, wantError: "date is required"},
		{name: "bad date", body: `{"date":"yesterday","time":"12:00","location":"Delhi"}`, wantStatus: http.StatusBadRequest, wantError: "Invalid date"},
		{name: "unknown place", body: `{"date":"1990-01-01","time":"12:00","location":"Zzzzznotaplace"}`, wantStatus: http.StatusBadRequest, wantError: "Location not found"},
		{name: "bad latitude", body: `{"date":"1990-01-01","time":"12:00","location":"X","latitude":123,"longitude":1}`, wantStatus: http.StatusBadRequest, wantError: "latitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newChartEnv()
			rec := postJSON(t, e.h.CalculateChart, tt.body, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var resp handlers.ErrorResponse
			decode(t, rec, &resp)
			if resp.Success || !strings.Contains(resp.Error, tt.wantError) {
				t.Errorf("error = %q, want it to contain %q", resp.Error, tt.wantError)
			}
			if n := len(e.charts.All()); n != 0 {
				t.Errorf("no chart should be stored, got %d", n)
			}
		})
	}
}

func TestCalculateChartStoreFailure(t *testing.T) {
	e := newChartEnv()
	e.charts.InsertErr = bytes.ErrTooLarge

	rec := postJSON(t, e.h.CalculateChart, `{"date":"1990-01-01","time":"12:00","location":"Delhi"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp handlers.ErrorResponse
	decode(t, rec, &resp)
	if resp.Details == "" {
		t.Error("500 responses carry details")
	}
}

func TestCalculateChartBodyTooLarge(t *testing.T) {
	e := newChartEnv()
	body := `{"name":"` + strings.Repeat("a", handlers.MaxBodyBytes) + `"}`
	rec := postJSON(t, e.h.CalculateChart, body, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestGetCharts(t *testing.T) {
	e := newChartEnv()
	for i := 0; i < 2; i++ {
		postJSON(t, e.h.CalculateChart, `{"date":"1990-01-01","time":"12:00","location":"Delhi","userId":"anon-1"}`, nil)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/charts?userId=anon-1", nil)
	rec := httptest.NewRecorder()
	e.h.GetCharts(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp handlers.GetChartsResponse
	decode(t, rec, &resp)
	if resp.Count != 2 || len(resp.Charts) != 2 || resp.Source != services.SourceAnonymous {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestGetChartsWithoutIdentifier(t *testing.T) {
	e := newChartEnv()
	rec := httptest.NewRecorder()
	e.h.GetCharts(rec, httptest.NewRequest(http.MethodGet, "/api/charts", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
