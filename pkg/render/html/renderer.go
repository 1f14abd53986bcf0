// Package html renders form reports as HTML. Hidden fields collapse into an
// empty placeholder so the surrounding layout does not reserve space for
// them; visible fields render a labelled input shell.
package html

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formcond/pkg/field"
	"github.com/goliatone/go-formcond/pkg/form"
	"github.com/goliatone/go-formcond/pkg/render"
	"github.com/goliatone/go-formcond/pkg/valuepath"
	"github.com/goliatone/go-formcond/pkg/widgets"
)

//go:embed templates/*.tpl
var templatesFS embed.FS

const formTemplate = "form.tpl"

// RenderOptions aliases render.RenderOptions.
type RenderOptions = render.RenderOptions

var _ render.Renderer = (*Renderer)(nil)

// Renderer renders form reports through a pongo2 template set.
type Renderer struct {
	templates fs.FS
	policy    *bluemonday.Policy
	widgets   *widgets.Registry
	tmpl      *pongo2.Template
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplatesFS overrides the embedded templates. The filesystem must
// provide form.tpl at its root.
func WithTemplatesFS(fsys fs.FS) Option {
	return func(r *Renderer) {
		if fsys != nil {
			r.templates = fsys
		}
	}
}

// WithPolicy overrides the sanitizer applied to labels and descriptions.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(r *Renderer) {
		if policy != nil {
			r.policy = policy
		}
	}
}

// WithWidgets overrides the registry choosing each field's input markup.
func WithWidgets(reg *widgets.Registry) Option {
	return func(r *Renderer) {
		if reg != nil {
			r.widgets = reg
		}
	}
}

// New constructs a Renderer, parsing templates eagerly.
func New(options ...Option) (*Renderer, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("html: templates: %w", err)
	}
	r := &Renderer{
		templates: sub,
		policy:    labelPolicy(),
		widgets:   widgets.NewRegistry(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	set := pongo2.NewSet("formcond", pongo2.NewFSLoader(r.templates))
	tmpl, err := set.FromFile(formTemplate)
	if err != nil {
		return nil, fmt.Errorf("html: load template %q: %w", formTemplate, err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "html"
}

// ContentType reports the output media type.
func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the HTML for report.
func (r *Renderer) Render(ctx context.Context, report form.Report, opts RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("html: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.tmpl == nil {
		return nil, errors.New("html: renderer not initialised")
	}

	markers := groupMarkers(opts.Markers)
	fields := make([]any, 0, len(report.Entries))
	for _, entry := range report.Entries {
		fields = append(fields, r.view(entry, opts.Document, markers))
	}

	formErrors := []any{}
	for _, msg := range render.MergeFormErrors(opts.FormErrors) {
		formErrors = append(formErrors, msg)
	}
	hidden := []any{}
	for _, hf := range render.SortedHiddenFields(opts.HiddenFields) {
		hidden = append(hidden, map[string]any{"name": hf.Name, "value": hf.Value})
	}

	var buf bytes.Buffer
	err := r.tmpl.ExecuteWriter(pongo2.Context{
		"type":         report.Type,
		"fields":       fields,
		"formErrors":   formErrors,
		"hiddenFields": hidden,
	}, &buf)
	if err != nil {
		return nil, fmt.Errorf("html: execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) view(entry form.Entry, doc map[string]any, markers map[string][]field.Marker) map[string]any {
	path := entry.Path.String()
	value, _ := valuepath.Lookup(doc, entry.Path)

	own := make([]field.Marker, 0, len(markers[path]))
	for _, m := range markers[path] {
		m.Path = nil
		own = append(own, m)
	}
	decision := entry.Decision(field.Props{Value: value, Markers: own})
	if decision.Placeholder {
		return map[string]any{"hidden": true, "path": path}
	}
	params := decision.Params

	fieldMarkers := []any{}
	for _, m := range params.Markers {
		fieldMarkers = append(fieldMarkers, map[string]any{"level": m.Level, "message": m.Message})
	}

	// The widget is chosen before stripping: an explicit inputComponent names it.
	def := entry.Schema
	if def.Type == "" {
		def.Type = entry.Type
	}
	widget := r.widgets.ResolveOr(def, widgets.WidgetInput)
	if isItem(params.Path) {
		widget = widgets.WidgetFieldset
	}
	current := scalarString(params.Value)
	choices := []any{}
	for _, c := range params.Type.Choices() {
		choices = append(choices, map[string]any{"value": c, "selected": c == current})
	}

	return map[string]any{
		"hidden":      false,
		"path":        path,
		"id":          elementID(params.Path),
		"depth":       params.Level,
		"type":        string(entry.Type),
		"widget":      widget,
		"label":       r.policy.Sanitize(entry.Label),
		"description": strings.TrimSpace(r.policy.Sanitize(entry.Description)),
		"checked":     params.Value == true,
		"input":       inputType(widget),
		"value":       current,
		"choices":     choices,
		"markers":     fieldMarkers,
	}
}

func groupMarkers(markers []field.Marker) map[string][]field.Marker {
	out := make(map[string][]field.Marker, len(markers))
	for _, m := range markers {
		key := m.Path.String()
		out[key] = append(out[key], m)
	}
	return out
}

func isItem(path valuepath.Path) bool {
	return len(path) > 0 && path[len(path)-1].IsRef()
}

func inputType(widget string) string {
	if widget == widgets.WidgetNumber {
		return "number"
	}
	return "text"
}

// elementID flattens a value path into an HTML id.
func elementID(path valuepath.Path) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, "fc")
	for _, seg := range path {
		parts = append(parts, seg.Name())
	}
	id := strings.Join(parts, "-")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
