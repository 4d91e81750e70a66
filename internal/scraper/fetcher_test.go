package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/scholartrend/internal/fingerprint"
	"github.com/FranksOps/scholartrend/internal/trend"
	"github.com/FranksOps/scholartrend/pkg/useragent"
)

func TestFetcher_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "TestBrowser/1.0" {
			t.Errorf("expected User-Agent header from pool, got %q", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("Accept-Language") == "" {
			t.Errorf("expected Accept-Language header")
		}
		w.Header().Set("X-Test", "true")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("About 12 results"))
	}))
	defer ts.Close()

	fetcher, err := NewFetcher(FetchConfig{
		Timeout:     5 * time.Second,
		Fingerprint: fingerprint.ProfileGo,
		UAPool:      useragent.NewPool([]string{"TestBrowser/1.0"}, useragent.Sticky),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer fetcher.Close()

	page, err := fetcher.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", page.StatusCode)
	}
	if string(page.Body) != "About 12 results" {
		t.Errorf("unexpected body %q", string(page.Body))
	}
	if len(page.Headers["X-Test"]) == 0 || page.Headers["X-Test"][0] != "true" {
		t.Errorf("expected X-Test header 'true', got %v", page.Headers["X-Test"])
	}
	if page.Duration == 0 {
		t.Errorf("expected non-zero duration")
	}
	if page.ID == "" {
		t.Errorf("expected non-empty UUID")
	}
}

func TestFetcher_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{
		Timeout:     10 * time.Millisecond,
		Fingerprint: fingerprint.ProfileGo,
	})
	defer fetcher.Close()

	page, err := fetcher.Fetch(context.Background(), ts.URL)
	if page != nil {
		t.Errorf("expected no page on timeout")
	}

	var fe *trend.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *trend.FetchError, got %T %v", err, err)
	}
	if fe.Page != nil {
		t.Errorf("expected no page attached to a timeout")
	}
	if !strings.Contains(err.Error(), "request failed") {
		t.Errorf("expected request failed error, got %v", err)
	}
}

func TestFetcher_NonSuccessStatusCarriesPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("Our systems have detected unusual traffic"))
	}))
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{Timeout: 5 * time.Second, Fingerprint: fingerprint.ProfileGo})
	defer fetcher.Close()

	_, err := fetcher.Fetch(context.Background(), ts.URL)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}

	var fe *trend.FetchError
	if !errors.As(err, &fe) || fe.Page == nil {
		t.Fatalf("expected FetchError with page, got %v", err)
	}
	if fe.Page.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 on attached page, got %d", fe.Page.StatusCode)
	}
	if !strings.Contains(string(fe.Page.Body), "unusual traffic") {
		t.Errorf("expected body on attached page")
	}
}

func TestFetcher_CookieJarAcrossFetches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/first", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "GSP", Value: "LM=1", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/second", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("GSP"); err != nil || c.Value != "LM=1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{
		Timeout:      5 * time.Second,
		Fingerprint:  fingerprint.ProfileGo,
		UseCookieJar: true,
	})
	defer fetcher.Close()

	if _, err := fetcher.Fetch(context.Background(), ts.URL+"/first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fetcher.Fetch(context.Background(), ts.URL+"/second"); err != nil {
		t.Fatalf("expected cookie to persist across fetches, got %v", err)
	}
}

func TestFetcher_RespectRobots(t *testing.T) {
	var scholarHits int
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /scholar\n"))
	})
	mux.HandleFunc("/scholar", func(w http.ResponseWriter, r *http.Request) {
		scholarHits++
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/open", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{
		Timeout:       5 * time.Second,
		Fingerprint:   fingerprint.ProfileGo,
		RespectRobots: true,
	})
	defer fetcher.Close()

	_, err := fetcher.Fetch(context.Background(), ts.URL+"/scholar?q=x&as_ylo=2020")
	if !errors.Is(err, ErrDisallowed) {
		t.Fatalf("expected ErrDisallowed, got %v", err)
	}
	if scholarHits != 0 {
		t.Errorf("expected disallowed URL not to be requested, got %d hits", scholarHits)
	}

	if _, err := fetcher.Fetch(context.Background(), ts.URL+"/open"); err != nil {
		t.Errorf("expected /open to be allowed, got %v", err)
	}
}

func TestNewFetcher_UnknownProfile(t *testing.T) {
	if _, err := NewFetcher(FetchConfig{Fingerprint: fingerprint.Profile("mosaic")}); err == nil {
		t.Fatal("expected error for unknown fingerprint profile")
	}
}
