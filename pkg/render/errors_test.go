package render_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcond/pkg/form"
	"github.com/goliatone/go-formcond/pkg/render"
	"github.com/goliatone/go-formcond/pkg/testsupport"
	"github.com/goliatone/go-formcond/pkg/visibility/expr"
)

func articleReport(t *testing.T) (form.Report, map[string]any) {
	t.Helper()
	doc := testsupport.ArticleDocument(t)
	eval := form.New(
		form.WithRegistry(testsupport.ArticleRegistry(t)),
		form.WithRuleEvaluator(expr.New()),
	)
	report, err := eval.Evaluate(context.Background(), testsupport.ArticleType(t), doc)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	return report, doc
}

func TestMapErrorPayload(t *testing.T) {
	t.Parallel()

	report, doc := articleReport(t)
	payload := map[string][]string{
		"/body/sections/1/image":       {"Image too large"},
		"body.title":                   {"Title is required", " Title is required "},
		`sections[_key=="s1"].heading`: {"Heading too long"},
		"cta.label.extra":              {"Label invalid"},
		"non_field_errors":             {"Form level error"},
		"request/body/unknown-field":   {"Should fall back to form errors"},
		"":                             {"Unscoped form error"},
		"sections/9/image":             {"Out of range"},
	}

	mapped := render.MapErrorPayload(report, doc, payload)

	got := make(map[string][]string)
	for _, m := range mapped.Markers {
		if m.Level != render.ErrorLevel {
			t.Fatalf("unexpected level %q", m.Level)
		}
		got[m.Path.String()] = append(got[m.Path.String()], m.Message)
	}
	wantFields := map[string][]string{
		`sections[_key=="s2"].image`:   {"Image too large"},
		"title":                        {"Title is required"},
		`sections[_key=="s1"].heading`: {"Heading too long"},
		"cta.label":                    {"Label invalid"},
		"sections":                     {"Out of range"},
	}
	if diff := cmp.Diff(wantFields, got); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Unscoped form error", "Form level error", "Should fall back to form errors"}
	if diff := cmp.Diff(wantForm, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	t.Parallel()

	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
