package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xraph/assetsync"
	"github.com/xraph/assetsync/api"
	"github.com/xraph/assetsync/bus"
	"github.com/xraph/assetsync/catalog"
	"github.com/xraph/assetsync/delivery"
	"github.com/xraph/assetsync/store/memory"
)

// testServer creates a Handler backed by memory stores and returns the test server.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	s, err := assetsync.New(
		assetsync.WithStore(memory.New()),
		assetsync.WithPublisher(bus.NewMemory()),
		assetsync.WithMaxAttempts(1),
		assetsync.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(api.NewHandler(s, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(srv.Close)
	return srv
}

// brandEndpoint answers every delivery with a well-formed brand response.
func brandEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"eventType":     r.Header.Get(delivery.HeaderEventType),
			"routingResult": map[string]any{},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, headers ...string) *http.Response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func registerBrand(t *testing.T, srv *httptest.Server, brandID, endpoint string) string {
	t.Helper()
	resp := doJSON(t, "POST", srv.URL+"/brands", map[string]any{
		"brandId":     brandID,
		"name":        "Brand " + brandID,
		"endPointUrl": endpoint,
	})
	expectStatus(t, resp, http.StatusCreated)

	var out map[string]any
	decodeBody(t, resp, &out)
	secret, _ := out["secret"].(string)
	if secret == "" {
		t.Fatalf("registration response carries no secret: %v", out)
	}
	return secret
}

// --- Brands ---

func TestBrands_Lifecycle(t *testing.T) {
	srv := testServer(t)
	endpoint := brandEndpoint(t)

	registerBrand(t, srv, "brandA", endpoint.URL)

	// Get never exposes the secret.
	resp := doJSON(t, "GET", srv.URL+"/brands/brandA", nil)
	expectStatus(t, resp, http.StatusOK)
	var got map[string]any
	decodeBody(t, resp, &got)
	if _, ok := got["secret"]; ok {
		t.Error("GET /brands/{id} exposed the secret")
	}
	if got["enabled"] != false {
		t.Errorf("new brand should start disabled: %v", got)
	}

	// Enable notifies the brand.
	resp = doJSON(t, "PATCH", srv.URL+"/brands/brandA/enable", nil)
	expectStatus(t, resp, http.StatusOK)
	var state struct {
		Brand        map[string]any   `json:"brand"`
		Notification *delivery.Report `json:"notification"`
	}
	decodeBody(t, resp, &state)
	if state.Brand["enabled"] != true || state.Notification == nil || state.Notification.Delivered() != 1 {
		t.Errorf("enable response = %+v", state)
	}

	// Endpoint URL is immutable.
	resp = doJSON(t, "PUT", srv.URL+"/brands/brandA", map[string]any{"endPointUrl": "https://elsewhere.example.com"})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = doJSON(t, "PUT", srv.URL+"/brands/brandA", map[string]any{"name": "Renamed"})
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &got)
	if got["name"] != "Renamed" {
		t.Errorf("update response = %v", got)
	}

	resp = doJSON(t, "GET", srv.URL+"/brands", nil)
	expectStatus(t, resp, http.StatusOK)
	var list []map[string]any
	decodeBody(t, resp, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 brand, got %d", len(list))
	}

	resp = doJSON(t, "DELETE", srv.URL+"/brands/brandA", nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = doJSON(t, "GET", srv.URL+"/brands/brandA", nil)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestBrands_RegisterValidation(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "POST", srv.URL+"/brands", map[string]any{"name": "x", "endPointUrl": "ftp://nope"})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/brands", []byte("{"))
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestBrands_RotateSecret(t *testing.T) {
	srv := testServer(t)
	old := registerBrand(t, srv, "brandA", brandEndpoint(t).URL)

	resp := doJSON(t, "POST", srv.URL+"/brands/brandA/rotate-secret", nil)
	expectStatus(t, resp, http.StatusOK)
	var out map[string]any
	decodeBody(t, resp, &out)
	if out["secret"] == "" || out["secret"] == old {
		t.Errorf("rotate response = %v", out)
	}
}

// --- Rules ---

func TestRules_CRUDAndEvaluate(t *testing.T) {
	srv := testServer(t)
	registerBrand(t, srv, "brandA", brandEndpoint(t).URL)
	base := srv.URL + "/brands/brandA/rules/" + catalog.BrandAssetFeedback

	resp := doJSON(t, "POST", base, map[string]any{
		"name":     "rejected",
		"priority": 10,
		"enabled":  true,
		"conditions": []map[string]any{
			{"field": "status", "operator": "equals", "value": "rejected"},
		},
		"actions": []map[string]any{{"type": "notify", "target": "review"}},
	})
	expectStatus(t, resp, http.StatusCreated)
	var rule map[string]any
	decodeBody(t, resp, &rule)
	ruleID, _ := rule["id"].(string)
	if ruleID == "" {
		t.Fatalf("rule has no id: %v", rule)
	}

	resp = doJSON(t, "POST", base, map[string]any{"id": ruleID, "name": "dup"})
	expectStatus(t, resp, http.StatusConflict)
	resp.Body.Close()

	resp = doJSON(t, "POST", base+"/evaluate", map[string]any{"status": "rejected"})
	expectStatus(t, resp, http.StatusOK)
	var result map[string]any
	decodeBody(t, resp, &result)
	if matched, _ := result["matchedRules"].([]any); len(matched) != 1 {
		t.Errorf("evaluate = %v", result)
	}

	resp = doJSON(t, "PUT", base+"/"+ruleID, map[string]any{"name": "renamed", "enabled": false})
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doJSON(t, "DELETE", base+"/"+ruleID, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = doJSON(t, "DELETE", base+"/"+ruleID, nil)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = doJSON(t, "GET", base, nil)
	expectStatus(t, resp, http.StatusOK)
	var rules []any
	decodeBody(t, resp, &rules)
	if len(rules) != 0 {
		t.Errorf("expected no rules, got %v", rules)
	}
}

// --- Events ---

func TestEvents_AssetSync(t *testing.T) {
	srv := testServer(t)
	registerBrand(t, srv, "brandA", brandEndpoint(t).URL)
	resp := doJSON(t, "PATCH", srv.URL+"/brands/brandA/enable", nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/events/asset-sync", map[string]any{
		"path": "/content/dam/hero.jpg",
		"asset": map[string]any{
			"jcr:uuid": "abc",
			"metadata": map[string]any{
				"a2b__sync_on_change": true,
				"a2b__customers":      []string{"brandA", "brandB"},
			},
		},
	})
	expectStatus(t, resp, http.StatusOK)

	var res struct {
		Kind   string          `json:"kind"`
		Report delivery.Report `json:"report"`
	}
	decodeBody(t, resp, &res)
	if res.Kind != "new" || res.Report.Delivered() != 1 || len(res.Report.Brands) != 2 {
		t.Errorf("sync response = %+v", res)
	}
}

func TestEvents_AssetSyncBadCustomers(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "POST", srv.URL+"/events/asset-sync", map[string]any{
		"asset": map[string]any{
			"jcr:uuid": "abc",
			"metadata": map[string]any{"a2b__sync_on_change": true, "a2b__customers": 7},
		},
	})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestEvents_BrandEvent(t *testing.T) {
	srv := testServer(t)
	secret := registerBrand(t, srv, "brandA", brandEndpoint(t).URL)

	body, _ := json.Marshal(map[string]any{
		"specversion": "1.0",
		"id":          "evt_in",
		"type":        catalog.BrandAssetSyncComplete,
		"source":      "urn:brand:brandA",
		"data": map[string]any{
			"app_runtime_info": map[string]any{"brandId": "brandA"},
			"brandId":          "brandA",
			"asset_id":         "abc",
		},
	})

	resp := doJSON(t, "POST", srv.URL+"/events/brand", body, delivery.HeaderBrandSecret, "bsec_wrong")
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/events/brand", body, delivery.HeaderBrandSecret, secret)
	expectStatus(t, resp, http.StatusOK)
	var out map[string]any
	decodeBody(t, resp, &out)
	if out["eventType"] != catalog.BrandAssetSyncComplete {
		t.Errorf("response = %v", out)
	}
	if _, ok := out["routingResult"].(map[string]any); !ok {
		t.Errorf("routingResult missing: %v", out)
	}
}

// --- Event types ---

func TestEventTypes_ListAndRegister(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "GET", srv.URL+"/event-types?pattern=com.adobe.a2b.registration.*", nil)
	expectStatus(t, resp, http.StatusOK)
	var defs []map[string]any
	decodeBody(t, resp, &defs)
	if len(defs) != 3 {
		t.Errorf("expected 3 registration definitions, got %d", len(defs))
	}

	resp = doJSON(t, "POST", srv.URL+"/event-types", map[string]any{
		"code":           "com.example.b2a.review.requested",
		"category":       "brand",
		"requiredFields": []string{"brandId"},
	})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/event-types", map[string]any{"code": "x", "category": "nope"})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

// --- DLQ ---

func TestDLQ_EmptyAndErrors(t *testing.T) {
	srv := testServer(t)

	resp := doJSON(t, "GET", srv.URL+"/dlq", nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/dlq/not-an-id/replay", nil)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = doJSON(t, "DELETE", srv.URL+"/dlq", nil)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = doJSON(t, "DELETE", srv.URL+"/dlq?before=2030-01-01T00:00:00Z", nil)
	expectStatus(t, resp, http.StatusOK)
	var out map[string]int
	decodeBody(t, resp, &out)
	if out["purged"] != 0 {
		t.Errorf("purge = %v", out)
	}
}

func TestStatsAndHealth(t *testing.T) {
	srv := testServer(t)
	registerBrand(t, srv, "brandA", brandEndpoint(t).URL)

	resp := doJSON(t, "GET", srv.URL+"/stats", nil)
	expectStatus(t, resp, http.StatusOK)
	var stats map[string]any
	decodeBody(t, resp, &stats)
	if stats["brands"] != float64(1) || stats["enabled_brands"] != float64(0) {
		t.Errorf("stats = %v", stats)
	}

	resp = doJSON(t, "GET", srv.URL+"/healthz", nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}
