package visibility

import (
	"context"
	"strings"
)

// Predicate computes a field's visibility. It may block (for example on a
// remote lookup) and should honour ctx.
type Predicate func(ctx context.Context, c Context) (Visibility, error)

// BoolPredicate adapts a predicate answering "hidden?" with a boolean.
func BoolPredicate(fn func(ctx context.Context, c Context) (bool, error)) Predicate {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context, c Context) (Visibility, error) {
		hidden, err := fn(ctx, c)
		if err != nil {
			return Show(), err
		}
		return FromHidden(hidden), nil
	}
}

// LoosePredicate adapts a predicate returning either a boolean or a
// {hidden, clearOnHidden} mapping. See Normalize.
func LoosePredicate(fn func(ctx context.Context, c Context) (any, error)) Predicate {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context, c Context) (Visibility, error) {
		value, err := fn(ctx, c)
		if err != nil {
			return Show(), err
		}
		return Normalize(value), nil
	}
}

// Condition is the deprecated single-argument form. It returns true when the
// field should render.
type Condition func(document map[string]any) bool

type optionKind uint8

const (
	optionNone optionKind = iota
	optionStatic
	optionFunc
	optionRule
)

// HideOption is the `hide` setting of a field type. The zero value means the
// field is always visible.
type HideOption struct {
	kind          optionKind
	hidden        bool
	predicate     Predicate
	rule          string
	clearOnHidden bool
}

// Static hides the field unconditionally when hidden is true.
func Static(hidden bool) HideOption {
	return HideOption{kind: optionStatic, hidden: hidden}
}

// Func evaluates fn on every refresh. A nil fn yields the zero option.
func Func(fn Predicate) HideOption {
	if fn == nil {
		return HideOption{}
	}
	return HideOption{kind: optionFunc, predicate: fn}
}

// Rule hides the field when the declarative expression matches. Blank rules
// yield the zero option.
func Rule(expr string, clearOnHidden bool) HideOption {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return HideOption{}
	}
	return HideOption{kind: optionRule, rule: expr, clearOnHidden: clearOnHidden}
}

// IsZero reports whether no hide behaviour is configured.
func (o HideOption) IsZero() bool {
	return o.kind == optionNone
}

// RuleText returns the configured rule expression, if any.
func (o HideOption) RuleText() string {
	return o.rule
}

func (o HideOption) String() string {
	switch o.kind {
	case optionStatic:
		if o.hidden {
			return "static(hidden)"
		}
		return "static(shown)"
	case optionFunc:
		return "func"
	case optionRule:
		return "rule(" + o.rule + ")"
	default:
		return "none"
	}
}
