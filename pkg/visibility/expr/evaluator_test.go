package expr

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-formcond/pkg/valuepath"
	"github.com/goliatone/go-formcond/pkg/visibility"
)

func articleContext() visibility.Context {
	doc := map[string]any{
		"kind":     "promo",
		"featured": true,
		"count":    float64(4),
		"tags":     []any{"a", "b", "c"},
		"sections": []any{
			map[string]any{"_key": "intro", "title": "Hello", "cta": map[string]any{"enabled": false}},
		},
	}
	path := valuepath.MustParse(`sections[_key=="intro"].cta.label`)
	return visibility.Context{
		Document: doc,
		Parents:  valuepath.ResolveParents(doc, path),
		Path:     path,
		Extras:   map[string]any{"role": "editor"},
	}
}

func TestEvaluatorRules(t *testing.T) {
	t.Parallel()

	ctx := articleContext()
	eval := New()

	tests := []struct {
		rule string
		want bool
	}{
		{rule: `kind == "promo"`, want: true},
		{rule: `document.kind != 'promo'`, want: false},
		{rule: `featured`, want: true},
		{rule: `!featured`, want: false},
		{rule: `featured == true && kind == promo`, want: true},
		{rule: `missing || featured`, want: true},
		{rule: `missing == null`, want: true},
		{rule: `count >= 4 && count < 5`, want: true},
		{rule: `count > 4`, want: false},
		{rule: `tags > 2`, want: true},
		{rule: `parent.enabled`, want: false},
		{rule: `!parent.enabled`, want: true},
		{rule: `parents.1.title == "Hello"`, want: true},
		{rule: `parents.9.title`, want: false},
		{rule: `sections[_key=="intro"].title == "Hello"`, want: true},
		{rule: `sections[_key=="outro"].title == "Hello"`, want: false},
		{rule: `extras.role == "editor" && (kind == "news" || featured)`, want: true},
		{rule: `   `, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.rule, func(t *testing.T) {
			t.Parallel()
			got, err := eval.Eval(ctx.Path.String(), tt.rule, ctx)
			if err != nil {
				t.Fatalf("Eval returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Eval(%q) = %v, want %v", tt.rule, got, tt.want)
			}
		})
	}
}

func TestEvaluatorErrors(t *testing.T) {
	t.Parallel()

	eval := New()
	for _, rule := range []string{
		`kind = "promo"`,
		`kind == "promo`,
		`a & b`,
		`(a || b`,
		`a ==`,
		`kind > "promo"`,
		`parents.x.title`,
		`sections[_key=="intro"`,
		`== 3`,
	} {
		if _, err := eval.Eval("field", rule, visibility.Context{}); err == nil {
			t.Fatalf("expected error for %q", rule)
		}
	}
}

func TestEvalErrorNamesField(t *testing.T) {
	t.Parallel()

	_, err := New().Eval("cta.label", `kind = "promo"`, visibility.Context{})
	if err == nil || !strings.Contains(err.Error(), "cta.label") {
		t.Fatalf("expected error naming the field path, got %v", err)
	}
}

func TestCompileReuse(t *testing.T) {
	t.Parallel()

	compiled, err := Compile(`kind == "promo"`)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	ok, err := compiled.Match(articleContext())
	if err != nil || !ok {
		t.Fatalf("Match = %v, %v", ok, err)
	}
	ok, err = compiled.Match(visibility.Context{Document: map[string]any{"kind": "news"}})
	if err != nil || ok {
		t.Fatalf("Match on other document = %v, %v", ok, err)
	}
}

func TestEvaluatorWithEngine(t *testing.T) {
	t.Parallel()

	ctx := articleContext()
	engine := visibility.NewEngine(visibility.WithRuleEvaluator(New()))
	got := engine.Evaluate(context.Background(), visibility.Input{
		Document: ctx.Document,
		Parents:  ctx.Parents,
		Path:     ctx.Path,
		Hide:     visibility.Rule("!parent.enabled", true),
	})
	if got != (visibility.Result{Visible: false, ClearOnHidden: true}) {
		t.Fatalf("Evaluate = %+v", got)
	}
}
