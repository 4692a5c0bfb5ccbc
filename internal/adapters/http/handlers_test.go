package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/tzmonths/internal/adapters/http"
	"github.com/samirrijal/tzmonths/internal/core/domain"
	"github.com/samirrijal/tzmonths/internal/core/ports"
	"github.com/samirrijal/tzmonths/internal/core/usecases"
	"github.com/samirrijal/tzmonths/internal/pkg/civiltime"
)

// ---- Mocks ----

type mockResolver struct {
	resolveFn func(ctx context.Context, lat, lon float64) (string, error)
}

func (m *mockResolver) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, lat, lon)
	}
	return "Europe/London", nil
}

// brokenConverter fails for a single month and defers to the real converter otherwise.
type brokenConverter struct {
	year, month int
	real        *civiltime.Converter
}

func (b *brokenConverter) ToUTC(civil domain.CivilDateTime, zone string) (time.Time, error) {
	if civil.Year == b.year && civil.Month == b.month {
		return time.Time{}, errors.New("conversion failed")
	}
	return b.real.ToUTC(civil, zone)
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(resolver *mockResolver, converter ...ports.InstantConverter) *handler.Dependencies {
	if resolver == nil {
		resolver = &mockResolver{}
	}
	var conv ports.InstantConverter = civiltime.NewConverter()
	if len(converter) > 0 {
		conv = converter[0]
	}
	zones := usecases.NewTimeZoneService(resolver, 0)
	return &handler.Dependencies{
		Months:  usecases.NewMonthService(zones, conv, usecases.NewRequestParser(nil), 1200),
		Zones:   zones,
		Backend: "mock",
	}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func decodeMonths(t *testing.T, body io.Reader) []*string {
	t.Helper()
	var result struct {
		MonthStarts []*string `json:"monthStarts"`
	}
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return result.MonthStarts
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var apiErr handler.APIError
	if err := json.NewDecoder(body).Decode(&apiErr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return apiErr.Error
}

// ---- Month starts ----

func TestMonths_London(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("GET", "/api/months?lon=-0.1278&lat=51.5074&from=2024-01-15&to=2024-03-20", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	starts := decodeMonths(t, resp.Body)
	want := []string{
		"2024-01-01T00:00:00.000Z",
		"2024-02-01T00:00:00.000Z",
		"2024-03-01T00:00:00.000Z",
	}
	if len(starts) != len(want) {
		t.Fatalf("expected %d month starts, got %d", len(want), len(starts))
	}
	for i, w := range want {
		if starts[i] == nil || *starts[i] != w {
			t.Errorf("month %d: expected %s, got %v", i, w, starts[i])
		}
	}
}

func TestMonths_VersionedAlias(t *testing.T) {
	deps := makeDeps(&mockResolver{
		resolveFn: func(ctx context.Context, lat, lon float64) (string, error) {
			return "America/New_York", nil
		},
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/months?lon=-74.006&lat=40.7128&from=2024-03-01&to=2024-04-01", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	starts := decodeMonths(t, resp.Body)
	if len(starts) != 2 {
		t.Fatalf("expected 2 month starts, got %d", len(starts))
	}
	// EST before the spring-forward, EDT after.
	if *starts[0] != "2024-03-01T05:00:00.000Z" {
		t.Errorf("expected March at 05:00Z, got %s", *starts[0])
	}
	if *starts[1] != "2024-04-01T04:00:00.000Z" {
		t.Errorf("expected April at 04:00Z, got %s", *starts[1])
	}
}

func TestMonths_EmptyRange(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("GET", "/api/months?lon=0&lat=51.5&from=2024-05-01&to=2024-02-01", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp.Body)
	if string(body) != `{"monthStarts":[]}` {
		t.Errorf("expected empty list, got %s", body)
	}
}

func TestMonths_NullSlot(t *testing.T) {
	deps := makeDeps(nil, &brokenConverter{year: 2024, month: 2, real: civiltime.NewConverter()})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/api/months?lon=0&lat=51.5&from=2024-01-01&to=2024-03-01", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp.Body)
	want := `{"monthStarts":["2024-01-01T00:00:00.000Z",null,"2024-03-01T00:00:00.000Z"]}`
	if string(body) != want {
		t.Errorf("expected %s, got %s", want, body)
	}
}

func TestMonths_InvalidParams(t *testing.T) {
	app := setupApp(makeDeps(nil))

	cases := []string{
		"/api/months?lon=abc&lat=51.5&from=2024-01-01&to=2024-02-01",
		"/api/months?lon=0&lat=&from=2024-01-01&to=2024-02-01",
		"/api/months?lat=51.5&from=2024-01-01&to=2024-02-01",
		"/api/months?lon=0&lat=51.5&from=yesterday&to=2024-02-01",
		"/api/months?lon=0&lat=51.5&from=2024-01-01",
		"/api/months?lon=NaN&lat=51.5&from=2024-01-01&to=2024-02-01",
	}

	for _, target := range cases {
		req := httptest.NewRequest("GET", target, nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 400 {
			t.Errorf("%s: expected 400, got %d", target, resp.StatusCode)
			continue
		}
		if msg := decodeError(t, resp.Body); msg != "Invalid parameters" {
			t.Errorf("%s: expected 'Invalid parameters', got %q", target, msg)
		}
	}
}

func TestMonths_InvalidParamsSkipResolution(t *testing.T) {
	called := false
	deps := makeDeps(&mockResolver{
		resolveFn: func(ctx context.Context, lat, lon float64) (string, error) {
			called = true
			return "Europe/London", nil
		},
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/api/months?lon=abc&lat=51.5&from=2024-01-01&to=2024-02-01", nil)
	if _, err := app.Test(req, -1); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("resolver should not be called for invalid parameters")
	}
}

func TestMonths_RangeTooLarge(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("GET", "/api/months?lon=0&lat=51.5&from=1900-01-01&to=2024-01-01", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if msg := decodeError(t, resp.Body); msg != "Range too large" {
		t.Errorf("expected 'Range too large', got %q", msg)
	}
}

func TestMonths_TimeZoneFailure(t *testing.T) {
	deps := makeDeps(&mockResolver{
		resolveFn: func(ctx context.Context, lat, lon float64) (string, error) {
			return "", errors.New("no zone in the middle of the ocean")
		},
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/api/months?lon=-30&lat=0&from=2024-01-01&to=2024-02-01", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if msg := decodeError(t, resp.Body); msg != "Unable to get time zone" {
		t.Errorf("expected 'Unable to get time zone', got %q", msg)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected no-store on 5xx, got %q", cc)
	}
}

func TestMonths_MethodNotAllowed(t *testing.T) {
	app := setupApp(makeDeps(nil))

	for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
		req := httptest.NewRequest(method, "/api/months?lon=0&lat=51.5&from=2024-01-01&to=2024-02-01", nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 405 {
			t.Errorf("%s: expected 405, got %d", method, resp.StatusCode)
			continue
		}
		if allow := resp.Header.Get("Allow"); allow != "GET" {
			t.Errorf("%s: expected Allow: GET, got %q", method, allow)
		}
		body := readBody(t, resp.Body)
		if string(body) != "Method "+method+" Not Allowed" {
			t.Errorf("%s: unexpected body %q", method, body)
		}
	}
}

func TestMonths_CacheHeaders(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("GET", "/api/months?lon=0&lat=51.5&from=2024-01-01&to=2024-02-01", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("expected public max-age=3600, got %q", cc)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req = httptest.NewRequest("GET", "/api/months?lon=0&lat=51.5&from=2024-01-01&to=2024-02-01", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- Time zone ----

func TestTimeZone_Success(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("GET", "/v1/timezone?lat=51.5&lon=-0.12", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		TimeZone string `json:"timeZone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.TimeZone != "Europe/London" {
		t.Errorf("expected Europe/London, got %s", result.TimeZone)
	}
}

func TestTimeZone_BadCoordinates(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("GET", "/v1/timezone?lat=north&lon=0", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result["status"] != "healthy" {
		t.Errorf("expected healthy, got %s", result["status"])
	}
	if result["timezone"] != "mock" {
		t.Errorf("expected backend mock, got %s", result["timezone"])
	}
}

func TestReady_NothingConfigured(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

// ---- GraphQL ----

func TestGraphQL_MonthStarts(t *testing.T) {
	app := setupApp(makeDeps(nil))

	body := `{"query":"{ monthStarts(lon: \"0\", lat: \"51.5\", from: \"2024-06-10\", to: \"2024-07-02\") { timeZone monthStarts } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			MonthStarts struct {
				TimeZone    string    `json:"timeZone"`
				MonthStarts []*string `json:"monthStarts"`
			} `json:"monthStarts"`
		} `json:"data"`
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %s", result.Errors[0])
	}
	if result.Data.MonthStarts.TimeZone != "Europe/London" {
		t.Errorf("expected Europe/London, got %s", result.Data.MonthStarts.TimeZone)
	}
	got := result.Data.MonthStarts.MonthStarts
	if len(got) != 2 || *got[0] != "2024-05-31T23:00:00.000Z" || *got[1] != "2024-06-30T23:00:00.000Z" {
		t.Errorf("unexpected month starts %v", got)
	}
}

func TestGraphQL_InvalidParams(t *testing.T) {
	app := setupApp(makeDeps(nil))

	body := `{"query":"{ monthStarts(lon: \"abc\", lat: \"51.5\", from: \"2024-06-10\", to: \"2024-07-02\") { monthStarts } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}

	var result struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Message != "Invalid parameters" {
		t.Errorf("expected 'Invalid parameters' error, got %+v", result.Errors)
	}
}

func TestGraphQL_BadBody(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}
