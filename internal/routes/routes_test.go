package routes_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/AnshRaj112/astravedam-backend/internal/geocode"
	"github.com/AnshRaj112/astravedam-backend/internal/handlers"
	"github.com/AnshRaj112/astravedam-backend/internal/logging"
	"github.com/AnshRaj112/astravedam-backend/internal/middleware"
	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"github.com/AnshRaj112/astravedam-backend/internal/routes"
	"github.com/AnshRaj112/astravedam-backend/internal/services"
	"github.com/AnshRaj112/astravedam-backend/internal/testutil"
	"github.com/AnshRaj112/astravedam-backend/pkg/clientip"
)

type upDB struct{}

func (upDB) Ping(context.Context) error { return nil }

type server struct {
	*httptest.Server
	charts   *testutil.ChartStore
	accounts *testutil.AccountStore
	tokens   *services.TokenManager
}

func newServer(t *testing.T) *server {
	t.Helper()
	return newServerWithGeocoder(t, testutil.NewGeocoder())
}

func newServerWithGeocoder(t *testing.T, geocoder geocode.Geocoder) *server {
	t.Helper()
	s := &server{
		charts:   testutil.NewChartStore(),
		accounts: testutil.NewAccountStore(),
	}
	cfg := services.AuthConfig{JWTSecret: "routes-secret", FrontendURL: "http://localhost:3000"}
	tokens, err := services.NewTokenManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	s.tokens = tokens

	chartSvc := services.NewChartService(services.ChartServiceConfig{
		Charts:   s.charts,
		Accounts: s.accounts,
		Geocoder: geocoder,
	})
	router := routes.NewRouter(routes.Options{AllowedOrigins: []string{"http://localhost:3000"}}, routes.Deps{
		Charts: handlers.NewChartHandler(chartSvc),
		Auth: handlers.NewAuthHandler(handlers.AuthHandlerConfig{
			Auth:     cfg,
			Accounts: services.NewAccountService(s.accounts),
			Tokens:   tokens,
			Charts:   chartSvc,
		}),
		Health:        handlers.NewHealthHandler(upDB{}, "test", "test"),
		Authenticator: middleware.NewAuthenticator(tokens, s.accounts),
		ClientIP:      clientip.RealClientIP,
	})
	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Close)
	return s
}

func (s *server) do(t *testing.T, method, path, body, token string) (int, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out := map[string]interface{}{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode, out
}

func (s *server) login(t *testing.T) (*models.Account, string) {
	t.Helper()
	acc := s.accounts.Add(models.NewGoogleAccount("g-1", "asha@example.com", "Asha", "", time.Now()))
	token, err := s.tokens.Issue(acc.ID)
	if err != nil {
		t.Fatal(err)
	}
	return acc, token
}

func TestAnonymousSubmissionWithoutIdentity(t *testing.T) {
	s := newServer(t)
	code, body := s.do(t, http.MethodPost, "/api/calculate-chart", `{"date":"1990-01-01","time":"12:00","location":"Delhi"}`, "")
	if code != http.StatusOK || body["isPrimary"] != true {
		t.Fatalf("got %d %v", code, body)
	}
	all := s.charts.All()
	if len(all) != 1 || all[0].UserID != nil || all[0].OwnerUserID != nil {
		t.Errorf("stored %+v", all)
	}
}

func TestRepeatSubmissionMovesPrimary(t *testing.T) {
	s := newServer(t)
	req := `{"date":"1990-01-01","time":"12:00","location":"Delhi","userId":"anon-1","setAsPrimary":true}`
	s.do(t, http.MethodPost, "/api/calculate-chart", req, "")
	_, second := s.do(t, http.MethodPost, "/api/calculate-chart", req, "")

	var primaries []string
	for _, c := range s.charts.All() {
		if c.IsPrimary {
			primaries = append(primaries, c.ID.Hex())
		}
	}
	if len(primaries) != 1 || primaries[0] != second["chartId"] {
		t.Errorf("primaries = %v, second chart %v", primaries, second["chartId"])
	}
}

func TestAuthenticatedSubmissionIgnoresAnonymousID(t *testing.T) {
	s := newServer(t)
	acc, token := s.login(t)

	code, _ := s.do(t, http.MethodPost, "/api/calculate-chart", `{"date":"1990-01-01","time":"12:00","location":"Delhi","userId":"legacy-anon"}`, token)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	c := s.charts.All()[0]
	if c.OwnerUserID == nil || *c.OwnerUserID != acc.ID || c.UserID != nil {
		t.Errorf("owner fields = %v / %v", c.OwnerUserID, c.UserID)
	}
}

func TestListWithoutIdentifier(t *testing.T) {
	s := newServer(t)
	code, body := s.do(t, http.MethodGet, "/api/charts", "", "")
	if code != http.StatusBadRequest || body["success"] != false {
		t.Errorf("got %d %v", code, body)
	}
}

func TestUnknownPlaceIsRejected(t *testing.T) {
	s := newServer(t)
	code, body := s.do(t, http.MethodPost, "/api/calculate-chart", `{"date":"1990-01-01","time":"12:00","location":"Zzzzznotaplace","userId":"anon-1"}`, "")
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d", code)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "Location not found") {
		t.Errorf("error = %q", msg)
	}
	if n := len(s.charts.All()); n != 0 {
		t.Errorf("%d charts persisted", n)
	}
}

func TestSignInThenLinkAndList(t *testing.T) {
	s := newServer(t)
	s.do(t, http.MethodPost, "/api/calculate-chart", `{"date":"1990-01-01","time":"12:00","location":"Delhi","userId":"anon-1"}`, "")
	_, token := s.login(t)

	code, body := s.do(t, http.MethodPost, "/api/auth/link-charts", `{"anonymousUserId":"anon-1"}`, token)
	if code != http.StatusOK || body["linkedCount"] != float64(1) {
		t.Fatalf("link: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/api/charts?userId=anon-1", "", token)
	if code != http.StatusOK || body["count"] != float64(1) || body["source"] != services.SourceMerged {
		t.Errorf("list: %d %v", code, body)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newServer(t)
	for _, path := range []string{"/api/auth/me", "/api/auth/link-charts"} {
		method := http.MethodGet
		if strings.HasSuffix(path, "link-charts") {
			method = http.MethodPost
		}
		code, body := s.do(t, method, path, `{}`, "")
		if code != http.StatusUnauthorized || body["success"] != false {
			t.Errorf("%s: %d %v", path, code, body)
		}
		code, _ = s.do(t, method, path, `{}`, "not-a-token")
		if code != http.StatusUnauthorized {
			t.Errorf("%s with bad token: %d", path, code)
		}
	}
}

func TestOperationalEndpoints(t *testing.T) {
	s := newServer(t)

	code, body := s.do(t, http.MethodGet, "/api/health", "", "")
	if code != http.StatusOK || body["database"] != "Connected" {
		t.Errorf("health: %d %v", code, body)
	}

	s.do(t, http.MethodGet, "/health", "", "")
	resp, err := http.Get(s.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}

	code, _ = s.do(t, http.MethodGet, "/api/auth/google", "", "")
	if code != http.StatusServiceUnavailable {
		t.Errorf("google login without provider: %d", code)
	}
}

func TestGeocoderFailureDoesNotExposeAPIKey(t *testing.T) {
	var logs bytes.Buffer
	logging.Init(logging.Config{Level: "debug", Format: "json", Output: &logs})
	t.Cleanup(func() { logging.Init(logging.Config{}) })

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL + "/v1/geocode/search"
	dead.Close()

	const key = "geo-secret-123"
	s := newServerWithGeocoder(t, geocode.NewBreakerGeocoder("routes-dead", geocode.NewGeoapifyClient(key, deadURL)))

	req, err := http.NewRequest(http.MethodPost, s.URL+"/api/calculate-chart",
		strings.NewReader(`{"date":"1990-01-01","time":"12:00","location":"Delhi"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if strings.Contains(string(body), key) || strings.Contains(string(body), "geoapify") {
		t.Errorf("response leaks collaborator error: %s", body)
	}
	s.Close()
	if strings.Contains(logs.String(), key) {
		t.Errorf("log contains API key: %s", logs.String())
	}
}
