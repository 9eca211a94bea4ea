package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"uvpaint-review/internal/config"
)

func testClient(baseURL string) *Client {
	return NewClient(config.UpstreamConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	}, zerolog.Nop())
}

func TestFetchInspection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inspections/insp-1" {
			t.Errorf("request path = %q, want /inspections/insp-1", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer test key", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"uvpaintInspection":{"vehicleInfo":{"year":2021,"make":"Ford","model":"F-150"}}}`))
	}))
	defer srv.Close()

	rec, err := testClient(srv.URL).FetchInspection(context.Background(), "insp-1")
	if err != nil {
		t.Fatalf("FetchInspection() error = %v", err)
	}
	if rec.UvpaintInspection == nil || rec.UvpaintInspection.VehicleInfo == nil {
		t.Fatal("vehicle info missing from decoded record")
	}
	if rec.UvpaintInspection.VehicleInfo.Make != "Ford" {
		t.Errorf("vehicle make = %q, want Ford", rec.UvpaintInspection.VehicleInfo.Make)
	}
}

func TestFetchInspectionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchInspection(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFetchInspectionServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchInspection(context.Background(), "insp-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}
