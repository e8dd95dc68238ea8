package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/fundlens/internal/app"
	"github.com/bobmcallan/fundlens/internal/server"
)

// fakeEODHD serves fundamentals and daily bars for a small set of ETFs.
func fakeEODHD(t *testing.T) *httptest.Server {
	t.Helper()

	fundamentals := map[string]string{
		"AAA.US": `{"General":{"Name":"Alpha Growth ETF","Type":"ETF","Category":"Large Growth"},
			"ETF_Data":{"Holdings":{
				"AAPL.US":{"Code":"AAPL","Exchange":"US","Name":"Apple","Assets_%":12},
				"MSFT.US":{"Code":"MSFT","Exchange":"US","Name":"Microsoft","Assets_%":10},
				"NVDA.US":{"Code":"NVDA","Exchange":"US","Name":"Nvidia","Assets_%":8}},
			"Sector_Weights":{"Technology":{"Equity_%":"60"},"Healthcare":{"Equity_%":"40"}}}}`,
		"BBB.US": `{"General":{"Name":"Beta Blend ETF","Type":"ETF","Category":"Large Blend"},
			"ETF_Data":{"Holdings":{
				"AAPL.US":{"Code":"AAPL","Exchange":"US","Name":"Apple","Assets_%":6},
				"JNJ.US":{"Code":"JNJ","Exchange":"US","Name":"Johnson & Johnson","Assets_%":5}},
			"Sector_Weights":{"Technology":{"Equity_%":"30"},"Healthcare":{"Equity_%":"70"}}}}`,
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/fundamentals/"):
			body, ok := fundamentals[strings.TrimPrefix(r.URL.Path, "/fundamentals/")]
			if !ok {
				http.Error(w, "Ticker Not Found.", http.StatusNotFound)
				return
			}
			w.Write([]byte(body))
		case strings.HasPrefix(r.URL.Path, "/eod/"):
			ticker := strings.TrimPrefix(r.URL.Path, "/eod/")
			phase := 0.0
			if ticker == "BBB.US" {
				phase = 0.3
			}
			end := time.Now().UTC()
			var bars []map[string]interface{}
			for i := 60; i >= 0; i-- {
				d := end.AddDate(0, 0, -i)
				nav := 100 + 5*math.Sin(float64(i)/3+phase) + float64(60-i)*0.1
				bars = append(bars, map[string]interface{}{
					"date":           d.Format("2006-01-02"),
					"close":          nav,
					"adjusted_close": nav,
				})
			}
			json.NewEncoder(w).Encode(bars)
		default:
			http.NotFound(w, r)
		}
	}))
}

func writeTestConfig(t *testing.T, eodhdURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fundlens.toml")
	content := fmt.Sprintf(`
[storage]
backend = "eodhd"

[cache]
enabled = true

[clients.eodhd]
api_key = "test-key"
base_url = %q
rate_limit = 100

[logging]
level = "disabled"
`, eodhdURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// testServer creates an httptest.Server with the full fundlens-server handler for testing.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	upstream := fakeEODHD(t)
	t.Cleanup(upstream.Close)

	a, err := app.NewApp(writeTestConfig(t, upstream.URL))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	srv := server.NewServer(a)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// TestHealthEndpoint verifies GET /api/health returns 200 with {"status":"ok"}.
func TestHealthEndpoint(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status=ok, got %v", body["status"])
	}
}

// TestCompareEndToEnd runs a two-fund comparison against the fake EODHD upstream.
func TestCompareEndToEnd(t *testing.T) {
	ts := testServer(t)

	payload := []byte(`{"fund_ids":["AAA.US","BBB.US"],"correlation_period":"3M"}`)

	resp, err := http.Post(ts.URL+"/api/compare", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /api/compare failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body struct {
		Comparison struct {
			HoldingsOverlap struct {
				CommonHoldings []struct {
					Identifier string `json:"identifier"`
				} `json:"common_holdings"`
				OverlapPercentage float64 `json:"overlap_percentage"`
			} `json:"holdings_overlap"`
			ReturnsCorrelation *struct {
				Correlation *float64 `json:"correlation"`
				DataPoints  int      `json:"data_points"`
			} `json:"returns_correlation"`
			Recommendations *struct {
				OverlapLevel string `json:"overlap_level"`
			} `json:"recommendations"`
		} `json:"comparison"`
		Trace struct {
			ComparisonID string            `json:"comparison_id"`
			Sources      map[string]string `json:"sources"`
		} `json:"trace"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	common := body.Comparison.HoldingsOverlap.CommonHoldings
	if len(common) != 1 || common[0].Identifier != "aaplus" {
		t.Errorf("Expected AAPL as the single common holding, got %+v", common)
	}
	// 1 shared of 4 distinct
	if body.Comparison.HoldingsOverlap.OverlapPercentage != 25 {
		t.Errorf("Expected overlap 25%%, got %v", body.Comparison.HoldingsOverlap.OverlapPercentage)
	}
	rc := body.Comparison.ReturnsCorrelation
	if rc == nil || rc.Correlation == nil {
		t.Fatalf("Expected a correlation coefficient, got %+v", rc)
	}
	if *rc.Correlation < -1 || *rc.Correlation > 1 {
		t.Errorf("Correlation out of range: %v", *rc.Correlation)
	}
	if body.Comparison.Recommendations == nil || body.Comparison.Recommendations.OverlapLevel != "LOW" {
		t.Errorf("Expected LOW overlap recommendation, got %+v", body.Comparison.Recommendations)
	}
	if body.Trace.ComparisonID == "" {
		t.Error("Expected a comparison id in the trace")
	}
	if body.Trace.Sources["AAA.US"] != "external" {
		t.Errorf("Expected external source, got %q", body.Trace.Sources["AAA.US"])
	}
}

// TestCompareUnknownFund verifies unresolvable ids map to 404.
func TestCompareUnknownFund(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/compare?ids=AAA.US,ZZZ.US")
	if err != nil {
		t.Fatalf("GET /api/compare failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["code"] != "fund_not_found" {
		t.Errorf("Expected code=fund_not_found, got %v", body["code"])
	}
}

// TestCompareTooFewFunds verifies cardinality errors map to 400.
func TestCompareTooFewFunds(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/compare?ids=AAA.US")
	if err != nil {
		t.Fatalf("GET /api/compare failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}
