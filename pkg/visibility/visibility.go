package visibility

import "github.com/goliatone/go-formcond/pkg/valuepath"

// Evaluator decides whether a declarative rule matches for a field. Rules used
// as hide options hide the field when they match.
type Evaluator interface {
	Eval(fieldPath, rule string, ctx Context) (bool, error)
}

// Context provides the inputs a predicate or rule sees: the document being
// edited, the ancestors of the field (nearest first) and the field's value
// path. Extras lets callers inject arbitrary context such as user roles or
// feature flags.
type Context struct {
	Document map[string]any
	Parents  []any
	Path     valuepath.Path
	Extras   map[string]any
}

// Parent returns the nearest ancestor, or nil when the field sits at the top
// of the document.
func (c Context) Parent() any {
	if len(c.Parents) == 0 {
		return nil
	}
	return c.Parents[0]
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldPath, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldPath, rule string, ctx Context) (bool, error) {
	return fn(fieldPath, rule, ctx)
}
