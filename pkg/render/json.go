package render

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-formcond/pkg/form"
)

// JSON renders the report itself, for tooling and debugging.
type JSON struct{}

// NewJSON returns the JSON report renderer.
func NewJSON() *JSON { return &JSON{} }

func (*JSON) Name() string        { return "json" }
func (*JSON) ContentType() string { return "application/json" }

// Render marshals the report. Field markers and form errors from options are
// included when present.
func (*JSON) Render(ctx context.Context, report form.Report, options RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := struct {
		form.Report
		Markers    any      `json:"markers,omitempty"`
		FormErrors []string `json:"formErrors,omitempty"`
	}{Report: report, FormErrors: options.FormErrors}
	if len(options.Markers) > 0 {
		out.Markers = options.Markers
	}
	return json.MarshalIndent(out, "", "  ")
}
