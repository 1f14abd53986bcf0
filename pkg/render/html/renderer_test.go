package html_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formcond/pkg/field"
	"github.com/goliatone/go-formcond/pkg/form"
	"github.com/goliatone/go-formcond/pkg/render"
	"github.com/goliatone/go-formcond/pkg/render/html"
	"github.com/goliatone/go-formcond/pkg/schema"
	"github.com/goliatone/go-formcond/pkg/testsupport"
	"github.com/goliatone/go-formcond/pkg/valuepath"
	"github.com/goliatone/go-formcond/pkg/visibility"
	"github.com/goliatone/go-formcond/pkg/visibility/expr"
)

func renderArticle(t *testing.T, opts html.RenderOptions) string {
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

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if opts.Document == nil {
		opts.Document = doc
	}
	out, err := renderer.Render(context.Background(), report, opts)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	return string(out)
}

func TestRenderPlaceholdersAndFields(t *testing.T) {
	t.Parallel()

	out := renderArticle(t, html.RenderOptions{})

	mustContain := []string{
		`<form class="formcond" data-type="article">`,
		`<div class="formcond-placeholder" data-field-path="summary" aria-hidden="true" hidden></div>`,
		`<div class="formcond-placeholder" data-field-path="internalNotes" aria-hidden="true" hidden></div>`,
		`<input id="fc-title" name="title" type="text" value="Spring launch">`,
		`<input id="fc-discount" name="discount" type="number" value="15">`,
		`<input id="fc-cta-enabled" name="cta.enabled" type="checkbox" value="true">`,
		`<p class="formcond-help">One of <em>news</em>, <em>promo</em> or <em>long</em>.</p>`,
		`id="fc-sections-s2-image"`,
	}
	for _, want := range mustContain {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "A summary that should be cleared") {
		t.Fatalf("hidden field value leaked into output")
	}
	if strings.Contains(out, `id="fc-sections-s1-image"`) {
		t.Fatalf("hidden item field rendered as input")
	}
}

func TestRenderMarkers(t *testing.T) {
	t.Parallel()

	out := renderArticle(t, html.RenderOptions{
		Markers: []field.Marker{{Path: valuepath.MustParse("title"), Level: "error", Message: "Title is <required>"}},
	})
	want := `<p class="formcond-marker formcond-marker-error">Title is &lt;required&gt;</p>`
	if !strings.Contains(out, want) {
		t.Fatalf("output missing escaped marker %q:\n%s", want, out)
	}
}

func TestRenderSanitizesLabels(t *testing.T) {
	t.Parallel()

	report := form.Report{Type: "t", Entries: []form.Entry{{
		Path:   valuepath.MustParse("a"),
		Field:  "a",
		Type:   schema.FieldTypeString,
		Label:  `<script>alert(1)</script><strong>Name</strong>`,
		Result: visibility.Result{Visible: true},
	}}}

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	out, err := renderer.Render(context.Background(), report, html.RenderOptions{})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if strings.Contains(string(out), "<script>") || !strings.Contains(string(out), "<strong>Name</strong>") {
		t.Fatalf("label not sanitized:\n%s", out)
	}
}

func TestRenderCustomTemplates(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"form.tpl": {Data: []byte(`{% for field in fields %}{{ field.path }}:{{ field.hidden }};{% endfor %}`)},
	}
	renderer, err := html.New(html.WithTemplatesFS(fsys))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	report := form.Report{Entries: []form.Entry{{Path: valuepath.MustParse("a"), Skipped: true}}}
	out, err := renderer.Render(context.Background(), report, html.RenderOptions{})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if string(out) != "a:True;" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderRequiresContext(t *testing.T) {
	t.Parallel()

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := renderer.Render(ctx, form.Report{}, html.RenderOptions{}); err == nil {
		t.Fatalf("expected cancelled context error")
	}
}

func TestRenderWidgets(t *testing.T) {
	t.Parallel()

	report := form.Report{Type: "t", Entries: []form.Entry{
		{
			Path:   valuepath.MustParse("kind"),
			Type:   schema.FieldTypeString,
			Label:  "Kind",
			Result: visibility.Result{Visible: true},
			Schema: schema.Field{
				Name:     "kind",
				Type:     schema.FieldTypeString,
				Metadata: map[string]string{"options": "news, promo"},
			},
		},
		{
			Path:   valuepath.MustParse("color"),
			Type:   schema.FieldTypeString,
			Label:  "Color",
			Result: visibility.Result{Visible: true},
			Schema: schema.Field{Name: "color", Type: schema.FieldTypeString, InputComponent: "color-picker"},
		},
	}}

	renderer, err := html.New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	out, err := renderer.Render(context.Background(), report, html.RenderOptions{
		Document: map[string]any{"kind": "promo", "color": "red"},
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	mustContain := []string{
		`<select id="fc-kind" name="kind">`,
		`<option value="news">news</option>`,
		`<option value="promo" selected>promo</option>`,
		`data-widget="color-picker"`,
		`<input id="fc-color" name="color" type="text" value="red">`,
	}
	for _, want := range mustContain {
		if !strings.Contains(string(out), want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderFormErrorsAndHiddenFields(t *testing.T) {
	t.Parallel()

	out := renderArticle(t, html.RenderOptions{
		FormErrors:   []string{"Revision is stale", " Revision is stale "},
		HiddenFields: []render.HiddenField{render.CSRFToken("_csrf", "tok<en>")},
	})

	mustContain := []string{
		`<li>Revision is stale</li>`,
		`<input type="hidden" name="_csrf" value="tok&lt;en&gt;">`,
	}
	for _, want := range mustContain {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "<li>") != 1 {
		t.Fatalf("form errors not deduplicated:\n%s", out)
	}
}
