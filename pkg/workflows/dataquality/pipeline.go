// Package dataquality ships the built-in data quality pipeline: a practical
// workflow exercising the engine's branching and looping capabilities.
//
// The pipeline profiles a dataset, identifies anomalies, generates quality
// rules, applies them, and loops back while anomalies remain. The loop is
// bounded by a conditional cycle, with the executor's iteration cap as backstop.
package dataquality

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/aretw0/arbor/pkg/conditions"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/mitchellh/mapstructure"
)

// intAt reads a numeric state value as an int. Counters written by these
// transforms are ints, but arrive as float64 once a state has round-tripped
// through JSON (the HTTP run endpoint, the redis store).
func intAt(state domain.State, key string) int {
	f, ok := conditions.ToFloat(state[key])
	if !ok {
		return 0
	}
	return int(f)
}

// Profile summarizes the dataset under inspection.
type Profile struct {
	RecordCount     int  `mapstructure:"record_count" json:"record_count"`
	NullCount       int  `mapstructure:"null_count" json:"null_count"`
	FieldCount      int  `mapstructure:"field_count" json:"field_count"`
	ProfileComplete bool `mapstructure:"profile_complete" json:"profile_complete"`
}

// Anomaly is a single detected data quality issue.
type Anomaly struct {
	Type     string `mapstructure:"type" json:"type"`
	Severity string `mapstructure:"severity" json:"severity"`
	Count    int    `mapstructure:"count" json:"count"`
}

// Rule is a quality rule produced for a class of anomalies.
type Rule struct {
	ID          string `mapstructure:"id" json:"id"`
	Description string `mapstructure:"description" json:"description"`
	CheckFunc   string `mapstructure:"check_function" json:"check_function"`
}

// ProfileData gathers statistics about the dataset in state["data"].
func ProfileData(ctx context.Context, state domain.State) (domain.State, error) {
	data, _ := state["data"].(map[string]any)

	nullCount := 0
	for _, v := range data {
		if v == nil {
			nullCount++
		}
	}

	return domain.State{
		"profile": map[string]any{
			"record_count":     len(data),
			"null_count":       nullCount,
			"field_count":      len(data),
			"profile_complete": true,
		},
		"iteration": intAt(state, "iteration") + 1,
	}, nil
}

// IdentifyAnomalies inspects the profile and flags quality issues. Part of
// the detection is randomized to simulate real data quality drift, which is
// exactly why loop bounds must come from conditions, not from node output.
func IdentifyAnomalies(ctx context.Context, state domain.State) (domain.State, error) {
	var profile Profile
	if raw, ok := state["profile"]; ok {
		if err := mapstructure.Decode(raw, &profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile: %w", err)
		}
	}

	var anomalies []any

	if profile.RecordCount > 0 && float64(profile.NullCount) > float64(profile.RecordCount)*0.1 {
		anomalies = append(anomalies, map[string]any{
			"type":     "high_null_count",
			"severity": "warning",
			"count":    profile.NullCount,
		})
	}

	samples := []map[string]any{
		{"type": "out_of_range_values", "severity": "error", "count": 1 + rand.Intn(10)},
		{"type": "duplicate_records", "severity": "warning", "count": rand.Intn(6)},
		{"type": "format_mismatch", "severity": "error", "count": rand.Intn(4)},
	}
	for _, sample := range samples {
		if rand.Float64() > 0.5 {
			anomalies = append(anomalies, sample)
		}
	}

	return domain.State{
		"anomalies":     anomalies,
		"anomaly_count": len(anomalies),
	}, nil
}

// GenerateRules derives quality rules from the detected anomalies.
func GenerateRules(ctx context.Context, state domain.State) (domain.State, error) {
	var anomalies []Anomaly
	if raw, ok := state["anomalies"]; ok && raw != nil {
		if err := mapstructure.Decode(raw, &anomalies); err != nil {
			return nil, fmt.Errorf("failed to decode anomalies: %w", err)
		}
	}

	var rules []any
	for _, anomaly := range anomalies {
		switch anomaly.Type {
		case "high_null_count":
			rules = append(rules, map[string]any{
				"id":             "rule_null_check",
				"description":    "Null values should be < 10% of records",
				"check_function": "check_null_count",
			})
		case "out_of_range_values":
			rules = append(rules, map[string]any{
				"id":             "rule_range_check",
				"description":    "Values must be within expected range",
				"check_function": "check_value_range",
			})
		case "duplicate_records":
			rules = append(rules, map[string]any{
				"id":             "rule_uniqueness",
				"description":    "Records should be unique",
				"check_function": "check_uniqueness",
			})
		case "format_mismatch":
			rules = append(rules, map[string]any{
				"id":             "rule_format",
				"description":    "Values must match expected format",
				"check_function": "check_format",
			})
		}
	}

	return domain.State{
		"rules":      rules,
		"rule_count": len(rules),
	}, nil
}

// ApplyRules enforces the generated rules and reports how many issues the
// pass resolved.
func ApplyRules(ctx context.Context, state domain.State) (domain.State, error) {
	var rules []Rule
	if raw, ok := state["rules"]; ok && raw != nil {
		if err := mapstructure.Decode(raw, &rules); err != nil {
			return nil, fmt.Errorf("failed to decode rules: %w", err)
		}
	}

	applied := 0
	fixed := 0
	for range rules {
		applied++
		if rand.Float64() > 0.3 {
			fixed++
		}
	}

	return domain.State{
		"rules_applied":   applied,
		"anomalies_fixed": fixed,
	}, nil
}

// Summarize produces the final report of the quality pass.
func Summarize(ctx context.Context, state domain.State) (domain.State, error) {
	return domain.State{
		"summary": map[string]any{
			"total_iterations":      intAt(state, "iteration"),
			"final_anomaly_count":   intAt(state, "anomaly_count"),
			"total_rules_applied":   intAt(state, "rules_applied"),
			"final_anomalies_fixed": intAt(state, "anomalies_fixed"),
		},
	}, nil
}

// ShouldLoop reports whether another quality pass is worthwhile: anomalies
// remain and the pipeline has iterated fewer than five times.
func ShouldLoop(state domain.State) bool {
	return intAt(state, "anomaly_count") > 1 && intAt(state, "iteration") < 5
}

// Register adds the pipeline's transforms to a registry so API- and
// file-defined graphs can reference them by name.
func Register(reg *registry.Registry) {
	reg.Register("profile_data", ProfileData, "Profile the dataset to gather statistics")
	reg.Register("identify_anomalies", IdentifyAnomalies, "Identify data quality anomalies")
	reg.Register("generate_rules", GenerateRules, "Generate data quality rules based on anomalies")
	reg.Register("apply_rules", ApplyRules, "Apply generated rules to fix quality issues")
	reg.Register("summarize_results", Summarize, "Summarize the results of the quality pipeline")
}

// New builds the data quality pipeline graph:
//
//	profile -> identify_anomalies -> generate_rules -> apply_rules
//	   ^                                                   |
//	   +------------- anomalies remain --------------------+
//	                                                       |
//	                                                       v
//	                                                  summarize
func New() (*domain.Graph, error) {
	g := domain.NewGraph("data_quality_pipeline")

	steps := []struct {
		name        string
		fn          domain.Transform
		description string
	}{
		{"profile", ProfileData, "Profile the dataset to understand its characteristics"},
		{"identify_anomalies", IdentifyAnomalies, "Identify data quality issues and anomalies"},
		{"generate_rules", GenerateRules, "Generate quality rules based on detected anomalies"},
		{"apply_rules", ApplyRules, "Apply quality rules to fix issues"},
		{"summarize", Summarize, "Summarize the results of the quality pipeline"},
	}
	for _, step := range steps {
		if err := g.AddNode(step.name, step.fn, step.description); err != nil {
			return nil, err
		}
	}

	edges := []struct {
		from, to    string
		cond        domain.Condition
		description string
	}{
		{"profile", "identify_anomalies", nil, "Always proceed to anomaly detection"},
		{"identify_anomalies", "generate_rules", nil, "Always proceed to rule generation"},
		{"generate_rules", "apply_rules", nil, "Always proceed to rule application"},
		{"apply_rules", "profile", ShouldLoop, "Loop back while anomalies remain"},
		{"apply_rules", "summarize", func(s domain.State) bool { return !ShouldLoop(s) }, "Proceed to summary when quality goals are met"},
	}
	for _, edge := range edges {
		if err := g.AddEdge(edge.from, edge.to, edge.cond, edge.description); err != nil {
			return nil, err
		}
	}

	if err := g.SetEntryPoint("profile"); err != nil {
		return nil, err
	}
	return g, nil
}
