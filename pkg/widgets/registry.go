package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formcond/pkg/schema"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetToggle   = "toggle"
	WidgetSelect   = "select"
	WidgetTextarea = "textarea"
	WidgetNumber   = "number"
	WidgetFieldset = "fieldset"
	WidgetInput    = "input"
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field schema.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry picks the input widget for a field. An explicit inputComponent or
// `widget` metadata wins; otherwise the highest priority matcher decides and
// ties fall back to registration order.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher. Blank names and nil matchers are ignored.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for field, or false when nothing matched.
func (r *Registry) Resolve(field schema.Field) (string, bool) {
	if explicit := explicitWidget(field); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// ResolveOr is Resolve with a fallback for unmatched fields.
func (r *Registry) ResolveOr(field schema.Field, fallback string) string {
	if name, ok := r.Resolve(field); ok {
		return name
	}
	return fallback
}

func explicitWidget(field schema.Field) string {
	if widget := strings.TrimSpace(field.InputComponent); widget != "" {
		return widget
	}
	if field.Metadata != nil {
		return strings.TrimSpace(field.Metadata["widget"])
	}
	return ""
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetFieldset, 100, func(field schema.Field) bool {
		return field.Type.Container()
	})
	r.Register(WidgetSelect, 90, func(field schema.Field) bool {
		return len(field.Choices()) > 0
	})
	r.Register(WidgetToggle, 80, func(field schema.Field) bool {
		return field.Type == schema.FieldTypeBoolean
	})
	r.Register(WidgetTextarea, 70, func(field schema.Field) bool {
		return field.Type == schema.FieldTypeText
	})
	r.Register(WidgetNumber, 60, func(field schema.Field) bool {
		return field.Type == schema.FieldTypeInteger || field.Type == schema.FieldTypeNumber
	})
}
