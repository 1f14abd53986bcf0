package render

import "github.com/goliatone/go-formcond/pkg/field"

// RenderOptions carry per-request data renderers combine with the report.
type RenderOptions struct {
	// Document supplies field values. Hidden fields never render theirs.
	Document map[string]any
	// Markers attach validation messages to field instances by path.
	Markers []field.Marker
	// FormErrors are messages that could not be tied to a field.
	FormErrors []string
	// HiddenFields are emitted as hidden inputs, e.g. CSRF tokens.
	HiddenFields []HiddenField
}
