package asset_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/assetsync/asset"
)

func TestClientFetch(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jcr:uuid":"u-1","metadata":{"a2b__customers":"brand-a,brand-b"}}`))
	}))
	defer srv.Close()

	c := asset.NewClient(5*time.Second, asset.WithBaseURL(srv.URL), asset.WithToken("tok"))
	a, err := c.Fetch(context.Background(), srv.URL+"/", "/content/dam/hero.jpg")
	if err != nil {
		t.Fatal(err)
	}

	if gotPath != "/content/dam/hero.jpg.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if a.UUID != "u-1" || a.Path != "/content/dam/hero.jpg" {
		t.Errorf("asset = %+v", a)
	}
	ids, _ := a.Customers()
	if len(ids) != 2 {
		t.Errorf("customers = %v", ids)
	}
}

func TestClientFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := asset.NewClient(time.Second).Fetch(context.Background(), srv.URL, "/missing")
	if !errors.Is(err, asset.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestClientFetchRequiresPath(t *testing.T) {
	_, err := asset.NewClient(time.Second).Fetch(context.Background(), "http://dam", "")
	if !errors.Is(err, asset.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestClientFetchRejectsForeignHost(t *testing.T) {
	var hits atomic.Int32
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer foreign.Close()

	c := asset.NewClient(time.Second, asset.WithBaseURL("https://author.example.com"), asset.WithToken("tok"))
	_, err := c.Fetch(context.Background(), foreign.URL, "/content/dam/x.jpg")
	if !errors.Is(err, asset.ErrHostNotAllowed) {
		t.Fatalf("expected ErrHostNotAllowed, got %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("foreign host was contacted %d times", n)
	}
}

func TestClientFetchDefaultsToBaseURL(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"jcr:uuid":"u-2"}`))
	}))
	defer srv.Close()

	c := asset.NewClient(time.Second, asset.WithBaseURL(srv.URL+"/"), asset.WithToken("tok"))
	a, err := c.Fetch(context.Background(), "", "/content/dam/x.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if a.UUID != "u-2" || gotAuth != "Bearer tok" {
		t.Errorf("asset = %+v, authorization = %q", a, gotAuth)
	}
}

func TestClientTokenNeedsBaseURL(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"jcr:uuid":"u-3"}`))
	}))
	defer srv.Close()

	c := asset.NewClient(time.Second, asset.WithToken("tok"))
	if _, err := c.Fetch(context.Background(), srv.URL, "/content/dam/x.jpg"); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Errorf("token sent without a base URL: %q", gotAuth)
	}
}
