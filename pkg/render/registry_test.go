package render_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcond/pkg/field"
	"github.com/goliatone/go-formcond/pkg/render"
	"github.com/goliatone/go-formcond/pkg/valuepath"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := render.NewRegistry()
	if err := reg.Register(render.NewJSON()); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := reg.Register(render.NewJSON()); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatal("expected error for nil renderer")
	}

	if _, err := reg.Get("json"); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if _, err := reg.Get("pdf"); !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("expected ErrUnknownRenderer, got %v", err)
	}
	if diff := cmp.Diff([]string{"json"}, reg.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONRenderer(t *testing.T) {
	t.Parallel()

	report, doc := articleReport(t)
	out, err := render.NewJSON().Render(context.Background(), report, render.RenderOptions{
		Document:   doc,
		Markers:    []field.Marker{{Path: valuepath.MustParse("title"), Level: "error", Message: "required"}},
		FormErrors: []string{"stale revision"},
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	var decoded struct {
		Type    string `json:"type"`
		Entries []struct {
			Field   string `json:"field"`
			Skipped bool   `json:"skipped"`
		} `json:"entries"`
		Markers    []map[string]any `json:"markers"`
		FormErrors []string         `json:"formErrors"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if decoded.Type != "article" || len(decoded.Entries) != len(report.Entries) {
		t.Fatalf("unexpected report %+v", decoded)
	}
	if len(decoded.Markers) != 1 || decoded.FormErrors[0] != "stale revision" {
		t.Fatalf("options not carried: %+v", decoded)
	}
}
