package delivery_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/xraph/assetsync/catalog"
	"github.com/xraph/assetsync/delivery"
	"github.com/xraph/assetsync/event"
	"github.com/xraph/assetsync/registry"
	"github.com/xraph/assetsync/signature"
)

const testSecret = "bsec_test_secret_1234567890abcdef1234567890abcdef"

func newTestBrand(brandID, url string) *registry.Brand {
	return &registry.Brand{
		ID:          brandID,
		Secret:      testSecret,
		Name:        "Brand " + brandID,
		EndpointURL: url,
		Enabled:     true,
	}
}

func newTestEnvelope(t *testing.T, brandID string) *event.Envelope {
	t.Helper()
	b := event.NewBuilder(catalog.New(), nil)
	env, err := b.Build(catalog.AssetSyncNew, map[string]any{
		"asset_id":   "urn:aaid:aem:1",
		"asset_path": "/content/dam/a.jpg",
		"metadata":   map[string]any{"dc:title": "A"},
		"brandId":    brandID,
	}, event.Runtime{Namespace: "agency", ActionName: "sync", AgencyID: "agency-1"})
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"eventType":"com.adobe.a2b.assetsync.new","routingResult":{"queue":"default"}}`))
}

func TestSenderHappyPath(t *testing.T) {
	var got *http.Request
	var body []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		body, _ = io.ReadAll(r.Body)
		okHandler(w, r)
	}))
	defer srv.Close()

	sender := delivery.NewSender(5*time.Second, delivery.WithAgencyID("agency-1"))
	env := newTestEnvelope(t, "brand-a")

	res := sender.Send(context.Background(), newTestBrand("brand-a", srv.URL), env)

	if res.StatusCode != 200 || res.Error != "" || res.InvalidResponse {
		t.Fatalf("result = %+v", res)
	}
	if delivery.Classify(res) != delivery.OutcomeDelivered {
		t.Fatalf("outcome = %q", delivery.Classify(res))
	}
	if res.EventType != catalog.AssetSyncNew || res.RoutingResult["queue"] != "default" {
		t.Errorf("parsed response = %q %v", res.EventType, res.RoutingResult)
	}

	wantHeaders := map[string]string{
		"Content-Type":             "application/json",
		"User-Agent":               delivery.DefaultUserAgent,
		delivery.HeaderBrandID:     "brand-a",
		delivery.HeaderBrandSecret: testSecret,
		delivery.HeaderEventID:     env.ID,
		delivery.HeaderEventType:   catalog.AssetSyncNew,
		delivery.HeaderAgencyID:    "agency-1",
	}
	for k, v := range wantHeaders {
		if got.Header.Get(k) != v {
			t.Errorf("header %s = %q, want %q", k, got.Header.Get(k), v)
		}
	}

	ts, err := strconv.ParseInt(got.Header.Get(delivery.HeaderSignatureTimestamp), 10, 64)
	if err != nil {
		t.Fatal(err)
	}
	if !signature.Verify(body, testSecret, ts, got.Header.Get(delivery.HeaderSignature)) {
		t.Error("signature does not verify")
	}

	decoded, err := event.Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.ID != env.ID || decoded.BrandID() != "brand-a" {
		t.Errorf("body envelope = %+v", decoded)
	}

	if res.Headers[delivery.HeaderBrandSecret] != "[REDACTED]" || res.Headers[delivery.HeaderSignature] != "[REDACTED]" {
		t.Errorf("credentials not redacted: %v", res.Headers)
	}
}

func TestSenderInvalidResponses(t *testing.T) {
	bodies := map[string]string{
		"not json":             `hello`,
		"array":                `[1,2]`,
		"missing eventType":    `{"routingResult":{}}`,
		"eventType not string": `{"eventType":1,"routingResult":{}}`,
		"routingResult list":   `{"eventType":"x","routingResult":[]}`,
		"empty":                ``,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			res := delivery.NewSender(5*time.Second).Send(context.Background(), newTestBrand("b", srv.URL), newTestEnvelope(t, "b"))
			if !res.InvalidResponse {
				t.Fatalf("expected invalid response, got %+v", res)
			}
			if delivery.Classify(res) != delivery.OutcomeInvalidResponse {
				t.Errorf("outcome = %q", delivery.Classify(res))
			}
		})
	}
}

func TestSenderStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		want   delivery.Outcome
	}{
		{http.StatusBadRequest, delivery.OutcomeRejected},
		{http.StatusUnauthorized, delivery.OutcomeRejected},
		{http.StatusGone, delivery.OutcomeGone},
		{http.StatusTooManyRequests, delivery.OutcomeFailed},
		{http.StatusInternalServerError, delivery.OutcomeFailed},
		{http.StatusBadGateway, delivery.OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			res := delivery.NewSender(5*time.Second).Send(context.Background(), newTestBrand("b", srv.URL), newTestEnvelope(t, "b"))
			if res.StatusCode != tt.status || res.Response != "nope" {
				t.Fatalf("result = %+v", res)
			}
			if got := delivery.Classify(res); got != tt.want {
				t.Errorf("outcome = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSenderTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(okHandler))
	url := srv.URL
	srv.Close()

	res := delivery.NewSender(time.Second).Send(context.Background(), newTestBrand("b", url), newTestEnvelope(t, "b"))
	if res.StatusCode != 0 || res.Error == "" {
		t.Fatalf("result = %+v", res)
	}
	if delivery.Classify(res) != delivery.OutcomeFailed {
		t.Errorf("outcome = %q", delivery.Classify(res))
	}
}

func TestSanitizeHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer x")
	h.Set("x-brand-secret", "s")
	h.Set("X-Brand-Id", "b")

	got := delivery.SanitizeHeaders(h)
	if got["Authorization"] != "[REDACTED]" || got["X-Brand-Secret"] != "[REDACTED]" {
		t.Errorf("not redacted: %v", got)
	}
	if got["X-Brand-Id"] != "b" {
		t.Errorf("X-Brand-Id = %q", got["X-Brand-Id"])
	}
}
