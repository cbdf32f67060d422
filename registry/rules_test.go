package registry_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/xraph/assetsync/registry"
	"github.com/xraph/assetsync/routing"
)

const code = "com.adobe.a2b.assetsync.new"

func TestRuleLifecycle(t *testing.T) {
	reg, _, _ := newRegistry(t)
	if _, err := reg.Save(ctx(), testBrand("brand-a", "s1")); err != nil {
		t.Fatal(err)
	}

	added, err := reg.AddRule(ctx(), "brand-a", code, routing.Rule{Name: "emea", Priority: 5, Enabled: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(added.ID, "rule_") {
		t.Errorf("generated id = %q", added.ID)
	}

	if _, err := reg.AddRule(ctx(), "brand-a", code, routing.Rule{ID: added.ID, Name: "dup"}); !errors.Is(err, registry.ErrRuleConflict) {
		t.Fatalf("expected ErrRuleConflict, got %v", err)
	}

	upd := *added
	upd.Name = "emea-2"
	if _, err := reg.UpdateRule(ctx(), "brand-a", code, upd); err != nil {
		t.Fatal(err)
	}
	got, err := reg.GetRule(ctx(), "brand-a", code, added.ID)
	if err != nil || got.Name != "emea-2" {
		t.Fatalf("GetRule = %v, %v", got, err)
	}

	second, err := reg.AddRule(ctx(), "brand-a", code, routing.Rule{ID: "custom", Name: "apac"})
	if err != nil {
		t.Fatal(err)
	}
	list, _ := reg.ListRules(ctx(), "brand-a", code)
	if len(list) != 2 || list[0].ID != added.ID || list[1].ID != second.ID {
		t.Fatalf("ListRules = %v", list)
	}

	if err := reg.DeleteRule(ctx(), "brand-a", code, added.ID); err != nil {
		t.Fatal(err)
	}
	if err := reg.DeleteRule(ctx(), "brand-a", code, added.ID); !errors.Is(err, registry.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
	if _, err := reg.UpdateRule(ctx(), "brand-a", code, routing.Rule{ID: "missing", Name: "x"}); !errors.Is(err, registry.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}

	if err := reg.DeleteRule(ctx(), "brand-a", code, "custom"); err != nil {
		t.Fatal(err)
	}
	b, _ := reg.Get(ctx(), "brand-a")
	if _, ok := b.RoutingRules[code]; ok {
		t.Error("empty rule list should be removed from the map")
	}
}

func TestAddRuleValidates(t *testing.T) {
	reg, _, _ := newRegistry(t)
	_, _ = reg.Save(ctx(), testBrand("brand-a", "s1"))

	_, err := reg.AddRule(ctx(), "brand-a", code, routing.Rule{Name: "bad", Conditions: []routing.Condition{{Field: "x", Operator: "nope"}}})
	if !errors.Is(err, routing.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
}

func TestAddRuleUnknownBrand(t *testing.T) {
	reg, _, _ := newRegistry(t)
	if _, err := reg.AddRule(ctx(), "ghost", code, routing.Rule{Name: "x"}); !errors.Is(err, registry.ErrBrandNotFound) {
		t.Fatalf("expected ErrBrandNotFound, got %v", err)
	}
}
