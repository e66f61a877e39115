package domain

// State is the open, schema-free mapping that flows through a workflow run.
// Values are JSON-like: nil, bool, numbers, strings, []any and nested maps.
// A State is exclusively owned by the Run that carries it.
type State map[string]any

// Clone returns a deep copy of the state. Nested maps and slices are copied
// recursively so the result shares no structure with the original. This is
// what makes log snapshots a trustworthy audit trail even when later steps
// mutate nested values in place.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = deepCopyValue(v)
	}
	return out
}

// Merge applies a partial state update using shallow, top-level,
// last-writer-wins semantics: each key in update overwrites the corresponding
// key in s, keys absent from update are left untouched, and nested structures
// are replaced wholesale, never deep-merged. Workflow correctness depends on
// these exact semantics.
func (s State) Merge(update State) {
	for k, v := range update {
		s[k] = v
	}
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case State:
		return val.Clone()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return val
	}
}
