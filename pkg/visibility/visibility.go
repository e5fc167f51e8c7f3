package visibility

// Evaluator decides whether a field is visible (and therefore validated)
// given a rule string and the current model values.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context gives an Evaluator read access to the bound model. Lookup resolves
// dotted paths against the model; Extras holds caller supplied values (roles,
// feature flags) addressed with the `extras.` prefix.
type Context struct {
	Lookup func(path string) (any, bool)
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}

// Values builds a Context over a plain value map.
func Values(values map[string]any) Context {
	return Context{Lookup: func(path string) (any, bool) {
		return lookupMap(values, path)
	}}
}

func lookupMap(values map[string]any, path string) (any, bool) {
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}
	var current any = values
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '.' {
			continue
		}
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[path[start:i]]
		if !ok {
			return nil, false
		}
		start = i + 1
	}
	return current, true
}
