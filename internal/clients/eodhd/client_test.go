package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobmcallan/fundlens/internal/interfaces"
)

func TestGetEOD_ParsesBarsAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/eod/VAS.AU" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_token") != "test-key" {
			t.Errorf("expected api_token=test-key, got %q", q.Get("api_token"))
		}
		if q.Get("from") != "2025-01-01" || q.Get("to") != "2025-01-31" {
			t.Errorf("unexpected range: from=%s to=%s", q.Get("from"), q.Get("to"))
		}
		if q.Get("order") != "a" {
			t.Errorf("expected order=a, got %q", q.Get("order"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2025-01-02","close":100.5,"adjusted_close":99.5,"volume":1200},
			{"date":"2025-01-03","close":"101.25","adjusted_close":"N/A","volume":"900"},
			{"date":"bad-date","close":1,"adjusted_close":1,"volume":1}
		]`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	resp, err := client.GetEOD(context.Background(), "VAS.AU", interfaces.WithDateRange(from, to))
	if err != nil {
		t.Fatalf("GetEOD failed: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 bars (bad date skipped), got %d", len(resp.Data))
	}
	if resp.Data[0].NAV() != 99.5 {
		t.Errorf("expected adjusted close 99.5 as NAV, got %v", resp.Data[0].NAV())
	}
	if resp.Data[1].NAV() != 101.25 {
		t.Errorf("expected close fallback 101.25 as NAV, got %v", resp.Data[1].NAV())
	}
	if resp.Data[1].Volume != 900 {
		t.Errorf("expected volume 900, got %d", resp.Data[1].Volume)
	}
}

func TestGetFundFundamentals_ParsesETFData(t *testing.T) {
	mock := map[string]interface{}{
		"General": map[string]interface{}{
			"Code":     "VAS",
			"Name":     "Vanguard Australian Shares Index ETF",
			"Type":     "ETF",
			"Category": "Equity Australia Large Blend",
		},
		"ETF_Data": map[string]interface{}{
			"Holdings": map[string]interface{}{
				"BHP.AU": map[string]interface{}{"Code": "BHP", "Exchange": "AU", "Name": "BHP Group Ltd", "Assets_%": 9.8},
				"CBA.AU": map[string]interface{}{"Code": "CBA", "Exchange": "AU", "Name": "Commonwealth Bank", "Assets_%": "8.1"},
				"CSL.AU": map[string]interface{}{"Name": "CSL Ltd", "Assets_%": 5.2},
			},
			"Sector_Weights": map[string]interface{}{
				"Financial Services": map[string]interface{}{"Equity_%": "30.5"},
				"Basic Materials":    map[string]interface{}{"Equity_%": 22.0},
				"Utilities":          map[string]interface{}{"Equity_%": 0},
			},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fundamentals/VAS.AU" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mock)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	f, err := client.GetFundFundamentals(context.Background(), "VAS.AU")
	if err != nil {
		t.Fatalf("GetFundFundamentals failed: %v", err)
	}

	if f.Name != "Vanguard Australian Shares Index ETF" || f.Type != "ETF" {
		t.Errorf("unexpected general fields: %+v", f)
	}
	if len(f.Holdings) != 3 {
		t.Fatalf("expected 3 holdings, got %d", len(f.Holdings))
	}
	want := []string{"BHP.AU", "CBA.AU", "CSL.AU"}
	for i, h := range f.Holdings {
		if h.Ticker != want[i] {
			t.Errorf("holding %d: expected %s, got %s", i, want[i], h.Ticker)
		}
	}
	if f.Holdings[1].Weight != 8.1 {
		t.Errorf("expected string weight parsed to 8.1, got %v", f.Holdings[1].Weight)
	}

	if len(f.SectorWeights) != 2 {
		t.Fatalf("expected zero-weight sector dropped, got %d sectors", len(f.SectorWeights))
	}
	if f.SectorWeights[0].Sector != "Financial Services" || f.SectorWeights[0].Weight != 30.5 {
		t.Errorf("unexpected top sector: %+v", f.SectorWeights[0])
	}

	p := f.Projection("VAS.AU")
	if p.FundID != "VAS.AU" || p.Category != "ETF" || p.SubCategory != "Equity Australia Large Blend" {
		t.Errorf("unexpected projection ref: %+v", p.FundRef)
	}
}

func TestGet_NonOKReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Ticker Not Found.", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.GetFundFundamentals(context.Background(), "NOPE.AU")
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if !apiErr.IsNotFound() {
		t.Errorf("expected IsNotFound, status %d", apiErr.StatusCode)
	}
	if apiErr.Message != "Ticker Not Found." {
		t.Errorf("unexpected message: %q", apiErr.Message)
	}
}

func TestFlexFloat64(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`"7.25"`, 7.25},
		{`""`, 0},
		{`"N/A"`, 0},
		{`"garbage"`, 0},
		{`"NaN"`, 0},
		{`"Inf"`, 0},
		{`"-Infinity"`, 0},
		{`"1e999"`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		var f flexFloat64
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Errorf("%s: unexpected error %v", tt.in, err)
			continue
		}
		if float64(f) != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.in, tt.want, float64(f))
		}
	}
}
