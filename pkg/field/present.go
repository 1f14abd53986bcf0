package field

import (
	"github.com/goliatone/go-formcond/pkg/patch"
	"github.com/goliatone/go-formcond/pkg/schema"
	"github.com/goliatone/go-formcond/pkg/valuepath"
)

// Marker is a validation message attached to a path. Markers handed to a
// controller are relative to the field; decisions carry absolute paths.
type Marker struct {
	Path    valuepath.Path `json:"path"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
}

// Presence marks another editor focused somewhere inside the field.
type Presence struct {
	User string         `json:"user"`
	Path valuepath.Path `json:"path"`
}

// Props are the render parameters a host passes to the wrapped field.
type Props struct {
	Level        int
	Value        any
	FocusPath    valuepath.Path
	Markers      []Marker
	Presence     []Presence
	CompareValue any
	OnFocus      func(valuepath.Path)
	OnBlur       func()
	OnChange     func(patch.Event)
}

// RenderParams are forwarded to the host's default input when the field is
// visible.
type RenderParams struct {
	Level        int
	Type         schema.Field
	Value        any
	Path         valuepath.Path
	FocusPath    valuepath.Path
	Markers      []Marker
	Presence     []Presence
	CompareValue any
	OnFocus      func(valuepath.Path)
	OnBlur       func()
	OnChange     func(patch.Event)
}

// Decision is what the presentation layer renders: either the placeholder
// that collapses the field's slot, or the default input with Params.
type Decision struct {
	Placeholder bool
	Path        valuepath.Path
	Params      *RenderParams
}

// Decision builds the presentation output for the last decided state. While
// an evaluation is in flight the previous decision is kept.
func (c *Controller) Decision(props Props) Decision {
	return Decide(c.cfg.Path, c.cfg.Type, c.Visible(), props)
}

// Decide builds the presentation output of the field instance at path. Marker
// paths in props are relative to the field and come back absolute; typ is
// forwarded without the options that made the field conditional.
func Decide(path valuepath.Path, typ schema.Field, visible bool, props Props) Decision {
	if !visible {
		return Decision{Placeholder: true, Path: path}
	}

	markers := make([]Marker, 0, len(props.Markers))
	for _, m := range props.Markers {
		m.Path = path.Append(m.Path...)
		markers = append(markers, m)
	}

	return Decision{
		Path: path,
		Params: &RenderParams{
			Level:        props.Level,
			Type:         typ.Stripped(),
			Value:        props.Value,
			Path:         path,
			FocusPath:    props.FocusPath,
			Markers:      markers,
			Presence:     props.Presence,
			CompareValue: props.CompareValue,
			OnFocus:      props.OnFocus,
			OnBlur:       props.OnBlur,
			OnChange:     props.OnChange,
		},
	}
}

// Focuser is implemented by rendered inputs that can take focus.
type Focuser interface {
	Focus()
}

// FocusFunc adapts a function into a Focuser.
type FocusFunc func()

// Focus calls fn.
func (fn FocusFunc) Focus() { fn() }

// SetFocusTarget registers the rendered input focus should be delegated to.
func (c *Controller) SetFocusTarget(target Focuser) {
	c.mu.Lock()
	c.focus = target
	c.mu.Unlock()
}

// Focus forwards to the focus target when the field is visible. It reports
// whether focus was delegated.
func (c *Controller) Focus() bool {
	c.mu.Lock()
	target := c.focus
	visible := c.decided != Hidden
	c.mu.Unlock()

	if target == nil || !visible {
		return false
	}
	target.Focus()
	return true
}
