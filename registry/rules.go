package registry

import (
	"context"
	"fmt"

	"github.com/xraph/assetsync/id"
	"github.com/xraph/assetsync/internal/entity"
	"github.com/xraph/assetsync/routing"
)

// Rule edits read the whole brand, change its rule map in memory and save it
// back. Concurrent edits to one brand are last-writer-wins unless optimistic
// locking is enabled.

// ListRules returns the rules registered for code, in stored order.
func (r *Registry) ListRules(ctx context.Context, brandID, code string) ([]routing.Rule, error) {
	b, err := r.Get(ctx, brandID)
	if err != nil {
		return nil, err
	}
	rules := b.Rules(code)
	out := make([]routing.Rule, len(rules))
	copy(out, rules)
	return out, nil
}

// GetRule returns one rule.
func (r *Registry) GetRule(ctx context.Context, brandID, code, ruleID string) (*routing.Rule, error) {
	b, err := r.Get(ctx, brandID)
	if err != nil {
		return nil, err
	}
	i := indexOfRule(b.Rules(code), ruleID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrRuleNotFound, brandID, code, ruleID)
	}
	rule := b.Rules(code)[i]
	return &rule, nil
}

// AddRule appends rule to the brand's list for code. An empty rule id is
// generated; an id already present is ErrRuleConflict.
func (r *Registry) AddRule(ctx context.Context, brandID, code string, rule routing.Rule) (*routing.Rule, error) {
	if rule.ID == "" {
		rule.ID = id.NewRuleID().String()
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	rule.Entity = entity.New()

	err := r.modify(ctx, brandID, func(b *Brand) error {
		if indexOfRule(b.Rules(code), rule.ID) >= 0 {
			return fmt.Errorf("%w: %s", ErrRuleConflict, rule.ID)
		}
		if b.RoutingRules == nil {
			b.RoutingRules = map[string][]routing.Rule{}
		}
		b.RoutingRules[code] = append(b.RoutingRules[code], rule)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// UpdateRule replaces the rule with the same id, keeping its position.
func (r *Registry) UpdateRule(ctx context.Context, brandID, code string, rule routing.Rule) (*routing.Rule, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	err := r.modify(ctx, brandID, func(b *Brand) error {
		rules := b.Rules(code)
		i := indexOfRule(rules, rule.ID)
		if i < 0 {
			return fmt.Errorf("%w: %s/%s/%s", ErrRuleNotFound, brandID, code, rule.ID)
		}
		rule.CreatedAt = rules[i].CreatedAt
		rule.Touch()
		rules[i] = rule
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// DeleteRule removes the rule with ruleID. Removing the last rule for a code
// drops the code from the map.
func (r *Registry) DeleteRule(ctx context.Context, brandID, code, ruleID string) error {
	return r.modify(ctx, brandID, func(b *Brand) error {
		rules := b.Rules(code)
		i := indexOfRule(rules, ruleID)
		if i < 0 {
			return fmt.Errorf("%w: %s/%s/%s", ErrRuleNotFound, brandID, code, ruleID)
		}
		rules = append(rules[:i], rules[i+1:]...)
		if len(rules) == 0 {
			delete(b.RoutingRules, code)
		} else {
			b.RoutingRules[code] = rules
		}
		return nil
	})
}

func (r *Registry) modify(ctx context.Context, brandID string, fn func(*Brand) error) error {
	b, err := r.Get(ctx, brandID)
	if err != nil {
		return err
	}
	b = b.Clone()
	if err := fn(b); err != nil {
		return err
	}
	_, err = r.Save(ctx, b)
	return err
}

func indexOfRule(rules []routing.Rule, ruleID string) int {
	for i := range rules {
		if rules[i].ID == ruleID {
			return i
		}
	}
	return -1
}
