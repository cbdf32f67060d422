package routing

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// DefaultHighPriorityThreshold stops evaluation once a rule at or above this
// priority matches.
const DefaultHighPriorityThreshold = 100

// Result is the outcome of evaluating a rule list.
type Result struct {
	// Matched lists matching rule IDs in evaluation order.
	Matched []string `json:"matchedRules"`

	// Actions concatenates the actions of the matching rules.
	Actions []Action `json:"actions"`

	// Evaluated is the number of enabled rules that were tested.
	Evaluated int `json:"evaluated"`

	// ShortCircuited reports that a high-priority match ended evaluation.
	ShortCircuited bool `json:"shortCircuited,omitempty"`
}

// AsMap returns the result in the generic shape carried on the wire as
// "routingResult".
func (r Result) AsMap() map[string]any {
	matched := make([]any, len(r.Matched))
	for i, m := range r.Matched {
		matched[i] = m
	}
	actions := make([]any, len(r.Actions))
	for i, a := range r.Actions {
		am := map[string]any{"type": a.Type}
		if a.Target != "" {
			am["target"] = a.Target
		}
		if len(a.Params) > 0 {
			am["params"] = a.Params
		}
		actions[i] = am
	}
	return map[string]any{
		"matchedRules":   matched,
		"actions":        actions,
		"evaluated":      r.Evaluated,
		"shortCircuited": r.ShortCircuited,
	}
}

// Evaluator applies rules to event data. It is safe for concurrent use.
type Evaluator struct {
	threshold int
	logger    *slog.Logger

	mu      sync.RWMutex
	regexes map[string]*regexp.Regexp
}

// NewEvaluator creates an evaluator. A threshold of 0 selects
// DefaultHighPriorityThreshold.
func NewEvaluator(threshold int, logger *slog.Logger) *Evaluator {
	if threshold == 0 {
		threshold = DefaultHighPriorityThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		threshold: threshold,
		logger:    logger,
		regexes:   make(map[string]*regexp.Regexp),
	}
}

// Evaluate tests rules against data in descending priority order. Rules with
// equal priority keep their stored order. Disabled rules are skipped and a
// rule without conditions always matches.
func (e *Evaluator) Evaluate(rules []Rule, data map[string]any) Result {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	res := Result{Matched: []string{}, Actions: []Action{}}
	for _, rule := range ordered {
		if !rule.Enabled {
			continue
		}
		res.Evaluated++

		if !e.matches(rule.Conditions, data) {
			continue
		}

		res.Matched = append(res.Matched, rule.ID)
		res.Actions = append(res.Actions, rule.Actions...)

		if rule.Priority >= e.threshold {
			res.ShortCircuited = true
			break
		}
	}
	return res
}

// matches folds the conditions left to right; each condition's logical
// operator joins it to the next condition.
func (e *Evaluator) matches(conds []Condition, data map[string]any) bool {
	if len(conds) == 0 {
		return true
	}

	result := e.test(conds[0], data)
	for i := 1; i < len(conds); i++ {
		next := e.test(conds[i], data)
		if conds[i-1].LogicalOperator == LogicOr {
			result = result || next
		} else {
			result = result && next
		}
	}
	return result
}

func (e *Evaluator) test(c Condition, data map[string]any) bool {
	actual, found := Lookup(data, c.Field)

	switch c.Operator {
	case OpExists:
		return found && actual != nil
	case OpNotExists:
		return !found || actual == nil
	}

	if !found || actual == nil {
		return false
	}

	switch c.Operator {
	case OpEquals:
		return equal(actual, c.Value)
	case OpContains:
		return contains(actual, c.Value)
	case OpStartsWith:
		return strings.HasPrefix(stringify(actual), stringify(c.Value))
	case OpEndsWith:
		return strings.HasSuffix(stringify(actual), stringify(c.Value))
	case OpRegex:
		re, err := e.compile(stringify(c.Value))
		if err != nil {
			e.logger.Warn("routing: invalid regex", "field", c.Field, "pattern", c.Value, "error", err)
			return false
		}
		return re.MatchString(stringify(actual))
	default:
		e.logger.Warn("routing: unknown operator", "field", c.Field, "operator", c.Operator)
		return false
	}
}

func (e *Evaluator) compile(pattern string) (*regexp.Regexp, error) {
	e.mu.RLock()
	re, ok := e.regexes[pattern]
	e.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.regexes[pattern] = re
	e.mu.Unlock()
	return re, nil
}

// Lookup resolves a dot-separated path through nested maps and slices.
// Numeric segments index into slices.
func Lookup(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var cur any = data
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func equal(actual, expected any) bool {
	if af, ok := toFloat(actual); ok {
		if ef, ok := toFloat(expected); ok {
			return af == ef
		}
	}
	return stringify(actual) == stringify(expected)
}

func contains(actual, expected any) bool {
	if list, ok := actual.([]any); ok {
		for _, item := range list {
			if equal(item, expected) {
				return true
			}
		}
		return false
	}
	return strings.Contains(stringify(actual), stringify(expected))
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
