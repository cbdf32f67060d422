package event_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/xraph/assetsync/catalog"
	"github.com/xraph/assetsync/event"
)

func testRuntime() event.Runtime {
	return event.Runtime{
		Namespace:    "agency-prod",
		ActionName:   "asset-sync",
		ActivationID: "act-1",
		AgencyID:     "agency-1",
		AgencyName:   "Acme Agency",
	}
}

func assetData() map[string]any {
	return map[string]any{
		"asset_id":   "urn:aaid:aem:1",
		"asset_path": "/content/dam/a.jpg",
		"metadata":   map[string]any{"dc:title": "A"},
		"brandId":    "brand-a",
	}
}

func newBuilder() *event.Builder {
	return event.NewBuilder(catalog.New(), catalog.NewValidator())
}

func TestBuildHappyPath(t *testing.T) {
	env, err := newBuilder().Build(catalog.AssetSyncNew, assetData(), testRuntime())
	if err != nil {
		t.Fatal(err)
	}

	if env.SpecVersion != event.SpecVersion {
		t.Errorf("specversion = %q", env.SpecVersion)
	}
	if env.Type != catalog.AssetSyncNew {
		t.Errorf("type = %q", env.Type)
	}
	if !strings.HasPrefix(env.ID, "evt_") {
		t.Errorf("id = %q, want evt_ prefix", env.ID)
	}
	if env.DataContentType != event.ContentTypeJSON {
		t.Errorf("datacontenttype = %q", env.DataContentType)
	}
	if env.Source != "urn:assetsync:agency-prod:asset-sync" {
		t.Errorf("source = %q", env.Source)
	}
	if env.Time.IsZero() {
		t.Error("time should be set")
	}

	info, ok := env.Data[catalog.FieldAppRuntimeInfo].(map[string]any)
	if !ok || info["activationId"] != "act-1" {
		t.Errorf("app_runtime_info = %v", env.Data[catalog.FieldAppRuntimeInfo])
	}
	agency, ok := env.Data[catalog.FieldAgencyIdentification].(map[string]any)
	if !ok || agency["agencyId"] != "agency-1" {
		t.Errorf("agency_identification = %v", env.Data[catalog.FieldAgencyIdentification])
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	data := assetData()
	if _, err := newBuilder().Build(catalog.AssetSyncNew, data, testRuntime()); err != nil {
		t.Fatal(err)
	}
	if _, ok := data[catalog.FieldAppRuntimeInfo]; ok {
		t.Fatal("Build must not inject into the caller's map")
	}
}

func TestBuildKeepsCallerContext(t *testing.T) {
	data := assetData()
	data[catalog.FieldAppRuntimeInfo] = map[string]any{"namespace": "caller"}

	env, err := newBuilder().Build(catalog.AssetSyncNew, data, testRuntime())
	if err != nil {
		t.Fatal(err)
	}
	info := env.Data[catalog.FieldAppRuntimeInfo].(map[string]any)
	if info["namespace"] != "caller" {
		t.Errorf("caller-supplied context was overwritten: %v", info)
	}
}

func TestBuildUnknownCode(t *testing.T) {
	_, err := newBuilder().Build("com.adobe.a2b.unknown", assetData(), testRuntime())
	if !errors.Is(err, catalog.ErrUnknownEventCode) {
		t.Fatalf("expected ErrUnknownEventCode, got %v", err)
	}
}

func TestBuildMissingFieldsNamesAll(t *testing.T) {
	_, err := newBuilder().Build(catalog.AssetSyncNew, map[string]any{"asset_id": "x"}, testRuntime())
	if !errors.Is(err, event.ErrMissingRequiredFields) {
		t.Fatalf("expected ErrMissingRequiredFields, got %v", err)
	}

	var mfe *event.MissingFieldsError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected *MissingFieldsError, got %T", err)
	}
	want := []string{"asset_path", "brandId", "metadata"}
	if strings.Join(mfe.Fields, ",") != strings.Join(want, ",") {
		t.Errorf("missing = %v, want %v", mfe.Fields, want)
	}
}

func TestBuildAcceptsPresentEmptyValues(t *testing.T) {
	data := map[string]any{"asset_id": "x", "asset_path": "", "metadata": nil, "brandId": "brand-a"}
	env, err := newBuilder().Build(catalog.AssetSyncNew, data, testRuntime())
	if err != nil {
		t.Fatalf("present keys with empty values should validate: %v", err)
	}
	if _, ok := env.Data["asset_path"]; !ok {
		t.Error("asset_path dropped from data")
	}
}

func TestBuildSourceFromCaller(t *testing.T) {
	env, err := newBuilder().Build(catalog.AssetSyncNew, assetData(), testRuntime(),
		event.WithSource("3f6c1c9e-8b1a-4c55-9e47-2f0d7a1b9c10"))
	if err != nil {
		t.Fatal(err)
	}
	if env.Source != "urn:uuid:3f6c1c9e-8b1a-4c55-9e47-2f0d7a1b9c10" {
		t.Errorf("source = %q", env.Source)
	}
}

func TestBuildSourceFromProvider(t *testing.T) {
	rt := testRuntime()
	rt.ProviderID = "3f6c1c9e-8b1a-4c55-9e47-2f0d7a1b9c10"

	env, err := newBuilder().Build(catalog.AssetSyncNew, assetData(), rt)
	if err != nil {
		t.Fatal(err)
	}
	if env.Source != "urn:uuid:3f6c1c9e-8b1a-4c55-9e47-2f0d7a1b9c10" {
		t.Errorf("source = %q", env.Source)
	}
}

func TestSetSourceOnce(t *testing.T) {
	env, err := newBuilder().Build(catalog.AssetSyncNew, assetData(), testRuntime())
	if err != nil {
		t.Fatal(err)
	}
	if err := env.SetSource("https://other.example.com"); !errors.Is(err, event.ErrSourceAlreadySet) {
		t.Fatalf("expected ErrSourceAlreadySet, got %v", err)
	}
}

func TestBuildWithSchema(t *testing.T) {
	cat := catalog.New(catalog.Definition{
		Code:           "com.adobe.a2b.campaign.launched",
		Category:       catalog.CategoryAgency,
		RequiredFields: []string{"campaign_id"},
		Schema:         json.RawMessage(`{"type":"object","properties":{"campaign_id":{"type":"string","minLength":3}}}`),
	})
	b := event.NewBuilder(cat, catalog.NewValidator())

	if _, err := b.Build("com.adobe.a2b.campaign.launched", map[string]any{"campaign_id": "c-100"}, testRuntime()); err != nil {
		t.Fatal(err)
	}

	_, err := b.Build("com.adobe.a2b.campaign.launched", map[string]any{"campaign_id": "c"}, testRuntime())
	if !errors.Is(err, event.ErrPayloadValidationFailed) {
		t.Fatalf("expected ErrPayloadValidationFailed, got %v", err)
	}
}

func TestEnvelopeJSONShape(t *testing.T) {
	env, err := newBuilder().Build(catalog.AssetSyncUpdate, assetData(), testRuntime(), event.WithID("evt-fixed"))
	if err != nil {
		t.Fatal(err)
	}

	raw, err := env.JSON()
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"specversion", "id", "type", "source", "datacontenttype", "time", "data"} {
		if _, ok := doc[k]; !ok {
			t.Errorf("missing %q in %s", k, raw)
		}
	}
	if doc["id"] != "evt-fixed" {
		t.Errorf("id = %v", doc["id"])
	}

	decoded, err := event.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Type != env.Type || decoded.BrandID() != "brand-a" {
		t.Errorf("decoded = %+v", decoded)
	}
	if err := decoded.SetSource("x"); !errors.Is(err, event.ErrSourceAlreadySet) {
		t.Errorf("decoded envelope with a source should refuse SetSource, got %v", err)
	}
}

func TestRuntimeMerge(t *testing.T) {
	rt := event.Runtime{Namespace: "ns"}.Merge(event.Runtime{Namespace: "default", AgencyID: "ag"})
	if rt.Namespace != "ns" || rt.AgencyID != "ag" {
		t.Errorf("Merge = %+v", rt)
	}
	if (event.Runtime{}).RuntimeInfo() != nil {
		t.Error("empty runtime should not produce app_runtime_info")
	}
	if (event.Runtime{}).Source() != "" {
		t.Error("empty runtime should not produce a source")
	}
}
