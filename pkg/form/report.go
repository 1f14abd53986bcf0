package form

import (
	"github.com/goliatone/go-formcond/pkg/field"
	"github.com/goliatone/go-formcond/pkg/patch"
	"github.com/goliatone/go-formcond/pkg/schema"
	"github.com/goliatone/go-formcond/pkg/valuepath"
	"github.com/goliatone/go-formcond/pkg/visibility"
)

// Entry is the evaluation outcome of one field instance.
type Entry struct {
	Path        valuepath.Path    `json:"path"`
	Field       string            `json:"field"`
	Type        schema.FieldType  `json:"type"`
	Label       string            `json:"label,omitempty"`
	Description string            `json:"description,omitempty"`
	Depth       int               `json:"depth"`
	Conditional bool              `json:"conditional,omitempty"`
	State       field.State       `json:"state"`
	Result      visibility.Result `json:"result"`
	Effect      field.Effect      `json:"effect"`
	// Schema is the field definition the instance was built from.
	Schema schema.Field `json:"-"`
	// Skipped is set for descendants of a hidden field; they were not
	// evaluated and render as hidden.
	Skipped bool `json:"skipped,omitempty"`
}

// Shown reports whether the instance renders.
func (e Entry) Shown() bool {
	return !e.Skipped && e.Result.Visible
}

// Decision builds the presentation output of the instance. Skipped
// descendants of hidden fields collapse to the placeholder like hidden ones.
func (e Entry) Decision(props field.Props) field.Decision {
	if props.Level == 0 {
		props.Level = e.Depth
	}
	return field.Decide(e.Path, e.Schema, e.Shown(), props)
}

// Report lists entries in schema order, array items in document order.
type Report struct {
	Type    string  `json:"type"`
	Entries []Entry `json:"entries"`
}

// Lookup finds the entry for path.
func (r Report) Lookup(path valuepath.Path) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Path.Equal(path) {
			return e, true
		}
	}
	return Entry{}, false
}

// Hidden lists the paths of instances that do not render.
func (r Report) Hidden() []valuepath.Path {
	var out []valuepath.Path
	for _, e := range r.Entries {
		if !e.Shown() {
			out = append(out, e.Path)
		}
	}
	return out
}

// Patches collects the unset patches requested during the refresh.
func (r Report) Patches() []patch.Patch {
	var out []patch.Patch
	for _, e := range r.Entries {
		if e.Effect.Kind == field.EffectUnset {
			out = append(out, patch.Unset(e.Effect.Path))
		}
	}
	return out
}

// Apply returns a copy of doc with the report's patches applied.
func (r Report) Apply(doc map[string]any) (map[string]any, error) {
	return patch.Apply(doc, r.Patches()...)
}
