// Package routing evaluates per-brand condition/action rules against event
// data.
//
// A rule matches when its chained conditions hold. Rules are evaluated in
// descending priority and a match at or above the high-priority threshold
// ends evaluation early.
package routing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xraph/assetsync/internal/entity"
)

// Operator compares a field value with a condition value.
type Operator string

// Supported operators.
const (
	OpEquals     Operator = "equals"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
	OpRegex      Operator = "regex"
	OpExists     Operator = "exists"
	OpNotExists  Operator = "notExists"
)

// Logic joins a condition with the one that follows it.
type Logic string

// Logical operators. An empty value means AND.
const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// ErrInvalidRule is wrapped by every Validate failure.
var ErrInvalidRule = errors.New("routing: invalid rule")

// Condition tests one field of the event data.
type Condition struct {
	// Field is a dot-separated path into the data, e.g. "metadata.region".
	Field string `json:"field"`

	Operator Operator `json:"operator"`

	// Value is ignored by exists and notExists.
	Value any `json:"value,omitempty"`

	// LogicalOperator combines this condition's result with the next one.
	LogicalOperator Logic `json:"logicalOperator,omitempty"`
}

// Action is an opaque instruction returned to the caller when a rule matches.
type Action struct {
	Type   string         `json:"type"`
	Target string         `json:"target,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// Rule is a named, prioritized set of conditions and actions.
type Rule struct {
	entity.Entity

	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Priority    int         `json:"priority"`
	Enabled     bool        `json:"enabled"`
	Conditions  []Condition `json:"conditions,omitempty"`
	Actions     []Action    `json:"actions,omitempty"`
}

// Validate checks operators, logical operators and regex syntax.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRule)
	}

	for i, c := range r.Conditions {
		if c.Field == "" {
			return fmt.Errorf("%w: condition %d: field is required", ErrInvalidRule, i)
		}
		switch c.Operator {
		case OpEquals, OpContains, OpStartsWith, OpEndsWith, OpExists, OpNotExists:
		case OpRegex:
			pattern, ok := c.Value.(string)
			if !ok {
				return fmt.Errorf("%w: condition %d: regex value must be a string", ErrInvalidRule, i)
			}
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("%w: condition %d: %v", ErrInvalidRule, i, err)
			}
		default:
			return fmt.Errorf("%w: condition %d: unknown operator %q", ErrInvalidRule, i, c.Operator)
		}
		switch c.LogicalOperator {
		case "", LogicAnd, LogicOr:
		default:
			return fmt.Errorf("%w: condition %d: unknown logical operator %q", ErrInvalidRule, i, c.LogicalOperator)
		}
	}

	for i, a := range r.Actions {
		if a.Type == "" {
			return fmt.Errorf("%w: action %d: type is required", ErrInvalidRule, i)
		}
	}

	return nil
}

// Clone returns a deep copy of the rule's slices and maps.
func (r Rule) Clone() Rule {
	out := r
	if r.Conditions != nil {
		out.Conditions = make([]Condition, len(r.Conditions))
		copy(out.Conditions, r.Conditions)
	}
	if r.Actions != nil {
		out.Actions = make([]Action, len(r.Actions))
		for i, a := range r.Actions {
			out.Actions[i] = a
			if a.Params != nil {
				params := make(map[string]any, len(a.Params))
				for k, v := range a.Params {
					params[k] = v
				}
				out.Actions[i].Params = params
			}
		}
	}
	return out
}
