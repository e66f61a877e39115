// Package conditions compiles simple textual predicates over workflow state
// into domain.Condition functions. Expressions have the form
// "key op literal" (e.g. "anomaly_count > 1", "status == 'ready'") or a bare
// key name, which tests truthiness. This is intentionally not a full
// expression language: graph files and API-defined edges only need flat
// comparisons against top-level state keys.
package conditions

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Two-character operators must be matched before their one-character
// prefixes.
var operators = []string{"==", "!=", ">=", "<=", ">", "<"}

// Compile parses an expression and returns the predicate it describes.
func Compile(expr string) (domain.Condition, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty condition expression")
	}

	for _, op := range operators {
		idx := strings.Index(expr, op)
		if idx < 0 {
			continue
		}

		key := strings.TrimSpace(expr[:idx])
		rawLit := strings.TrimSpace(expr[idx+len(op):])
		if key == "" || rawLit == "" {
			return nil, fmt.Errorf("malformed condition %q", expr)
		}

		lit, err := parseLiteral(rawLit)
		if err != nil {
			return nil, fmt.Errorf("condition %q: %w", expr, err)
		}
		return comparison(key, op, lit)
	}

	// Bare key: truthy test.
	if strings.ContainsAny(expr, " \t") {
		return nil, fmt.Errorf("malformed condition %q", expr)
	}
	key := expr
	return func(state domain.State) bool {
		return truthy(state[key])
	}, nil
}

func comparison(key, op string, lit any) (domain.Condition, error) {
	switch op {
	case "==":
		return func(state domain.State) bool {
			return equal(state[key], lit)
		}, nil
	case "!=":
		return func(state domain.State) bool {
			return !equal(state[key], lit)
		}, nil
	}

	// Ordering operators are numeric only.
	want, ok := ToFloat(lit)
	if !ok {
		return nil, fmt.Errorf("operator %q requires a numeric literal", op)
	}
	return func(state domain.State) bool {
		got, ok := ToFloat(state[key])
		if !ok {
			return false
		}
		switch op {
		case ">":
			return got > want
		case ">=":
			return got >= want
		case "<":
			return got < want
		case "<=":
			return got <= want
		}
		return false
	}, nil
}

func parseLiteral(raw string) (any, error) {
	if len(raw) >= 2 {
		if (raw[0] == '\'' && raw[len(raw)-1] == '\'') || (raw[0] == '"' && raw[len(raw)-1] == '"') {
			return raw[1 : len(raw)-1], nil
		}
	}
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "nil":
		return nil, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("unrecognized literal %q", raw)
}

func equal(value, lit any) bool {
	if vf, ok := ToFloat(value); ok {
		if lf, ok := ToFloat(lit); ok {
			return vf == lf
		}
	}
	return value == lit
}

// ToFloat coerces the numeric types a state value may arrive as, including
// float64 from JSON decoding and json.Number, into a float64. It reports
// false for non-numeric values.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	default:
		if f, ok := ToFloat(val); ok {
			return f != 0
		}
		return true
	}
}
