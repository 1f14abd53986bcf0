package visibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-formcond/pkg/valuepath"
)

func observedEngine(options ...Option) (*Engine, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	options = append([]Option{WithLogger(zap.New(core))}, options...)
	return NewEngine(options...), logs
}

func TestEvaluateStaticAndMissing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hide HideOption
		want Result
	}{
		{name: "absent", hide: HideOption{}, want: Result{Visible: true}},
		{name: "static true", hide: Static(true), want: Result{Visible: false}},
		{name: "static false", hide: Static(false), want: Result{Visible: true}},
		{name: "nil func", hide: Func(nil), want: Result{Visible: true}},
		{name: "blank rule", hide: Rule("   ", true), want: Result{Visible: true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(context.Background(), Input{Document: map[string]any{}, Hide: tt.hide})
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Evaluate mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluatePredicateShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   Predicate
		want Result
	}{
		{
			name: "hidden with clear",
			fn: func(context.Context, Context) (Visibility, error) {
				return Hide(true), nil
			},
			want: Result{Visible: false, ClearOnHidden: true},
		},
		{
			name: "bool true hides",
			fn: BoolPredicate(func(context.Context, Context) (bool, error) {
				return true, nil
			}),
			want: Result{Visible: false},
		},
		{
			name: "bool false shows",
			fn: BoolPredicate(func(context.Context, Context) (bool, error) {
				return false, nil
			}),
			want: Result{Visible: true},
		},
		{
			name: "mapping with clear",
			fn: LoosePredicate(func(context.Context, Context) (any, error) {
				return map[string]any{"hidden": true, "clearOnHidden": true}, nil
			}),
			want: Result{Visible: false, ClearOnHidden: true},
		},
		{
			name: "mapping with non boolean hidden",
			fn: LoosePredicate(func(context.Context, Context) (any, error) {
				return map[string]any{"hidden": "yes", "clearOnHidden": true}, nil
			}),
			want: Result{Visible: true},
		},
		{
			name: "mapping without clear",
			fn: LoosePredicate(func(context.Context, Context) (any, error) {
				return map[string]any{"hidden": true}, nil
			}),
			want: Result{Visible: false},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(context.Background(), Input{Hide: Func(tt.fn)})
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Evaluate mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluatePredicateReceivesDocumentAndParents(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"kind": "promo",
		"cta":  map[string]any{"enabled": false},
	}
	path := valuepath.MustParse("cta.label")
	parents := valuepath.ResolveParents(doc, path)

	var seen Context
	fn := func(_ context.Context, c Context) (Visibility, error) {
		seen = c
		parent, _ := c.Parent().(map[string]any)
		enabled, _ := parent["enabled"].(bool)
		return FromHidden(!enabled), nil
	}

	got := Evaluate(context.Background(), Input{Document: doc, Parents: parents, Path: path, Hide: Func(fn)})
	if got.Visible {
		t.Fatalf("expected hidden result, got %+v", got)
	}
	if diff := cmp.Diff(parents, seen.Parents); diff != "" {
		t.Fatalf("parents mismatch (-want +got):\n%s", diff)
	}
	if seen.Document["kind"] != "promo" {
		t.Fatalf("document not forwarded: %#v", seen.Document)
	}
	if !seen.Path.Equal(path) {
		t.Fatalf("path = %q, want %q", seen.Path, path)
	}
}

func TestEvaluatePredicateFailureRecovers(t *testing.T) {
	t.Parallel()

	failures := map[string]Predicate{
		"error": func(context.Context, Context) (Visibility, error) {
			return Hide(true), errors.New("lookup failed")
		},
		"panic": func(context.Context, Context) (Visibility, error) {
			panic("boom")
		},
	}

	for name, fn := range failures {
		fn := fn
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			engine, logs := observedEngine()
			got := engine.Evaluate(context.Background(), Input{
				Path: valuepath.Path{valuepath.Key("title")},
				Hide: Func(fn),
			})
			if diff := cmp.Diff(Default(), got); diff != "" {
				t.Fatalf("Evaluate mismatch (-want +got):\n%s", diff)
			}
			if logs.Len() != 1 {
				t.Fatalf("expected one diagnostic, got %d", logs.Len())
			}
			entry := logs.All()[0]
			if entry.ContextMap()["path"] != "title" {
				t.Fatalf("diagnostic missing path: %#v", entry.ContextMap())
			}
		})
	}
}

func TestEvaluateCancelledWhileAwaiting(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	fn := func(ctx context.Context, _ Context) (Visibility, error) {
		<-release
		return Hide(true), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	engine, logs := observedEngine()
	got := engine.Evaluate(ctx, Input{Hide: Func(fn)})
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Fatalf("Evaluate mismatch (-want +got):\n%s", diff)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one diagnostic, got %d", logs.Len())
	}
}

func TestEvaluateRule(t *testing.T) {
	t.Parallel()

	rules := EvaluatorFunc(func(fieldPath, rule string, c Context) (bool, error) {
		if rule == "broken" {
			return false, errors.New("parse error")
		}
		return c.Document["kind"] == rule, nil
	})
	engine, logs := observedEngine(WithRuleEvaluator(rules))
	doc := map[string]any{"kind": "draft"}

	if got := engine.Evaluate(context.Background(), Input{Document: doc, Hide: Rule("draft", true)}); got != (Result{Visible: false, ClearOnHidden: true}) {
		t.Fatalf("matching rule = %+v", got)
	}
	if got := engine.Evaluate(context.Background(), Input{Document: doc, Hide: Rule("published", true)}); got != Default() {
		t.Fatalf("non matching rule = %+v", got)
	}
	if got := engine.Evaluate(context.Background(), Input{Document: doc, Hide: Rule("broken", false)}); got != Default() {
		t.Fatalf("broken rule = %+v", got)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one diagnostic, got %d", logs.Len())
	}

	bare, bareLogs := observedEngine()
	if got := bare.Evaluate(context.Background(), Input{Hide: Rule("draft", false)}); got != Default() {
		t.Fatalf("rule without evaluator = %+v", got)
	}
	if bareLogs.Len() != 1 {
		t.Fatalf("expected missing evaluator diagnostic")
	}
}

func TestEvaluateLegacyCondition(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"published": true}
	render := func(d map[string]any) bool { return d["published"] == true }
	hideRender := func(d map[string]any) bool { return d["published"] != true }

	if got := Evaluate(context.Background(), Input{Document: doc, Condition: render}); !got.Visible {
		t.Fatalf("condition returning true should render")
	}
	if got := Evaluate(context.Background(), Input{Document: doc, Condition: hideRender}); got.Visible {
		t.Fatalf("condition returning false should hide")
	}
	if got := Evaluate(context.Background(), Input{Document: doc, Condition: hideRender, Hide: Static(false)}); !got.Visible {
		t.Fatalf("hide option should take precedence over condition")
	}

	engine, logs := observedEngine()
	panicking := func(map[string]any) bool { panic("bad condition") }
	if got := engine.Evaluate(context.Background(), Input{Document: doc, Condition: panicking}); got != Default() {
		t.Fatalf("panicking condition = %+v", got)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one diagnostic, got %d", logs.Len())
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"kind": "promo"}
	fn := func(_ context.Context, c Context) (Visibility, error) {
		return Hide(c.Document["kind"] == "promo"), nil
	}
	engine := NewEngine()
	first := engine.Evaluate(context.Background(), Input{Document: doc, Hide: Func(fn)})
	for i := 0; i < 5; i++ {
		if got := engine.Evaluate(context.Background(), Input{Document: doc, Hide: Func(fn)}); got != first {
			t.Fatalf("evaluation %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  Visibility
	}{
		{name: "nil", value: nil, want: Show()},
		{name: "true", value: true, want: Hide(false)},
		{name: "false", value: false, want: Show()},
		{name: "variant", value: Hide(true), want: Hide(true)},
		{name: "result", value: Result{Visible: false, ClearOnHidden: true}, want: Hide(true)},
		{name: "typed map", value: map[string]bool{"hidden": true, "clearOnHidden": true}, want: Hide(true)},
		{name: "shown ignores clear", value: map[string]any{"hidden": false, "clearOnHidden": true}, want: Show()},
		{name: "unknown shape", value: 42, want: Show()},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, Normalize(tt.value)); diff != "" {
			t.Fatalf("%s: Normalize mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}
