package routing_test

import (
	"errors"
	"testing"

	"github.com/xraph/assetsync/routing"
)

func sampleData() map[string]any {
	return map[string]any{
		"asset_id":   "urn:aaid:aem:1234",
		"asset_path": "/content/dam/brand-a/hero.jpg",
		"size":       float64(2048),
		"metadata": map[string]any{
			"region": "emea",
			"tags":   []any{"hero", "campaign"},
		},
	}
}

func TestConditionOperators(t *testing.T) {
	tests := []struct {
		name string
		cond routing.Condition
		want bool
	}{
		{"equals string", routing.Condition{Field: "metadata.region", Operator: routing.OpEquals, Value: "emea"}, true},
		{"equals mismatch", routing.Condition{Field: "metadata.region", Operator: routing.OpEquals, Value: "apac"}, false},
		{"equals number", routing.Condition{Field: "size", Operator: routing.OpEquals, Value: 2048}, true},
		{"contains substring", routing.Condition{Field: "asset_path", Operator: routing.OpContains, Value: "brand-a"}, true},
		{"contains list element", routing.Condition{Field: "metadata.tags", Operator: routing.OpContains, Value: "hero"}, true},
		{"contains list missing", routing.Condition{Field: "metadata.tags", Operator: routing.OpContains, Value: "print"}, false},
		{"startsWith", routing.Condition{Field: "asset_path", Operator: routing.OpStartsWith, Value: "/content/dam"}, true},
		{"endsWith", routing.Condition{Field: "asset_path", Operator: routing.OpEndsWith, Value: ".jpg"}, true},
		{"regex", routing.Condition{Field: "asset_id", Operator: routing.OpRegex, Value: `^urn:aaid:aem:\d+$`}, true},
		{"regex invalid", routing.Condition{Field: "asset_id", Operator: routing.OpRegex, Value: `(`}, false},
		{"exists", routing.Condition{Field: "metadata.region", Operator: routing.OpExists}, true},
		{"exists missing", routing.Condition{Field: "metadata.channel", Operator: routing.OpExists}, false},
		{"notExists", routing.Condition{Field: "metadata.channel", Operator: routing.OpNotExists}, true},
		{"slice index", routing.Condition{Field: "metadata.tags.1", Operator: routing.OpEquals, Value: "campaign"}, true},
		{"missing field", routing.Condition{Field: "nope", Operator: routing.OpEquals, Value: ""}, false},
		{"unknown operator", routing.Condition{Field: "asset_id", Operator: "between", Value: 1}, false},
	}

	ev := routing.NewEvaluator(0, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := []routing.Rule{{ID: "r1", Name: "r1", Enabled: true, Conditions: []routing.Condition{tt.cond}}}
			res := ev.Evaluate(rules, sampleData())
			if got := len(res.Matched) == 1; got != tt.want {
				t.Errorf("matched = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogicalChaining(t *testing.T) {
	matchRegion := routing.Condition{Field: "metadata.region", Operator: routing.OpEquals, Value: "emea"}
	missRegion := routing.Condition{Field: "metadata.region", Operator: routing.OpEquals, Value: "apac"}

	tests := []struct {
		name  string
		conds []routing.Condition
		want  bool
	}{
		{"and true", []routing.Condition{withLogic(matchRegion, routing.LogicAnd), matchRegion}, true},
		{"and false", []routing.Condition{withLogic(matchRegion, routing.LogicAnd), missRegion}, false},
		{"default is and", []routing.Condition{matchRegion, missRegion}, false},
		{"or true", []routing.Condition{withLogic(missRegion, routing.LogicOr), matchRegion}, true},
		{"or false", []routing.Condition{withLogic(missRegion, routing.LogicOr), missRegion}, false},
		{"left to right", []routing.Condition{withLogic(missRegion, routing.LogicOr), withLogic(matchRegion, routing.LogicAnd), matchRegion}, true},
	}

	ev := routing.NewEvaluator(0, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ev.Evaluate([]routing.Rule{{ID: "r", Name: "r", Enabled: true, Conditions: tt.conds}}, sampleData())
			if got := len(res.Matched) == 1; got != tt.want {
				t.Errorf("matched = %v, want %v", got, tt.want)
			}
		})
	}
}

func withLogic(c routing.Condition, l routing.Logic) routing.Condition {
	c.LogicalOperator = l
	return c
}

func TestPriorityOrderAndDisabled(t *testing.T) {
	rules := []routing.Rule{
		{ID: "low", Name: "low", Priority: 1, Enabled: true, Actions: []routing.Action{{Type: "tag", Target: "low"}}},
		{ID: "off", Name: "off", Priority: 50, Enabled: false, Actions: []routing.Action{{Type: "tag", Target: "off"}}},
		{ID: "mid", Name: "mid", Priority: 10, Enabled: true, Actions: []routing.Action{{Type: "tag", Target: "mid"}}},
		{ID: "mid2", Name: "mid2", Priority: 10, Enabled: true},
	}

	res := routing.NewEvaluator(0, nil).Evaluate(rules, sampleData())

	want := []string{"mid", "mid2", "low"}
	if len(res.Matched) != len(want) {
		t.Fatalf("matched = %v, want %v", res.Matched, want)
	}
	for i := range want {
		if res.Matched[i] != want[i] {
			t.Errorf("matched[%d] = %q, want %q", i, res.Matched[i], want[i])
		}
	}
	if res.Evaluated != 3 {
		t.Errorf("evaluated = %d, want 3", res.Evaluated)
	}
	if len(res.Actions) != 2 || res.Actions[0].Target != "mid" || res.Actions[1].Target != "low" {
		t.Errorf("actions = %+v", res.Actions)
	}
}

func TestHighPriorityShortCircuit(t *testing.T) {
	rules := []routing.Rule{
		{ID: "normal", Name: "normal", Priority: 5, Enabled: true},
		{ID: "urgent", Name: "urgent", Priority: 150, Enabled: true, Actions: []routing.Action{{Type: "route", Target: "priority-queue"}}},
	}

	res := routing.NewEvaluator(100, nil).Evaluate(rules, sampleData())

	if !res.ShortCircuited {
		t.Fatal("expected short circuit")
	}
	if len(res.Matched) != 1 || res.Matched[0] != "urgent" {
		t.Fatalf("matched = %v, want [urgent]", res.Matched)
	}
}

func TestEmptyRuleList(t *testing.T) {
	res := routing.NewEvaluator(0, nil).Evaluate(nil, sampleData())
	if len(res.Matched) != 0 || len(res.Actions) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}

	m := res.AsMap()
	if _, ok := m["matchedRules"].([]any); !ok {
		t.Errorf("matchedRules should be a list, got %T", m["matchedRules"])
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    routing.Rule
		wantErr bool
	}{
		{"valid", routing.Rule{Name: "ok", Conditions: []routing.Condition{{Field: "a", Operator: routing.OpExists}}, Actions: []routing.Action{{Type: "tag"}}}, false},
		{"missing name", routing.Rule{}, true},
		{"missing field", routing.Rule{Name: "x", Conditions: []routing.Condition{{Operator: routing.OpExists}}}, true},
		{"bad operator", routing.Rule{Name: "x", Conditions: []routing.Condition{{Field: "a", Operator: "gt"}}}, true},
		{"bad regex", routing.Rule{Name: "x", Conditions: []routing.Condition{{Field: "a", Operator: routing.OpRegex, Value: "("}}}, true},
		{"regex not string", routing.Rule{Name: "x", Conditions: []routing.Condition{{Field: "a", Operator: routing.OpRegex, Value: 3}}}, true},
		{"bad logic", routing.Rule{Name: "x", Conditions: []routing.Condition{{Field: "a", Operator: routing.OpExists, LogicalOperator: "XOR"}}}, true},
		{"action without type", routing.Rule{Name: "x", Actions: []routing.Action{{Target: "t"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, routing.ErrInvalidRule) {
				t.Errorf("expected ErrInvalidRule, got %v", err)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	data := sampleData()

	if v, ok := routing.Lookup(data, "metadata.tags.0"); !ok || v != "hero" {
		t.Errorf("Lookup(metadata.tags.0) = %v, %v", v, ok)
	}
	if _, ok := routing.Lookup(data, "metadata.tags.9"); ok {
		t.Error("out of range index should not resolve")
	}
	if _, ok := routing.Lookup(data, "asset_id.x"); ok {
		t.Error("path through a scalar should not resolve")
	}
	if _, ok := routing.Lookup(data, ""); ok {
		t.Error("empty path should not resolve")
	}
}

func TestRuleMethodsOnValues(t *testing.T) {
	// Rules are stored by value in brand rule lists.
	var v interface {
		Validate() error
		Clone() routing.Rule
	} = routing.Rule{Name: "value", Actions: []routing.Action{{Type: "tag", Params: map[string]any{"k": "v"}}}}

	if err := v.Validate(); err != nil {
		t.Fatal(err)
	}
	cp := v.Clone()
	cp.Actions[0].Params["k"] = "changed"
	if v.(routing.Rule).Actions[0].Params["k"] != "v" {
		t.Error("Clone shares action params")
	}
}
