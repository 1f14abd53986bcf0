package widgets

import (
	"testing"

	"github.com/goliatone/go-formcond/pkg/schema"
)

func TestResolve_ExplicitWidgetWins(t *testing.T) {
	reg := NewRegistry()

	cases := map[string]schema.Field{
		"input component": {Type: schema.FieldTypeBoolean, InputComponent: "custom-toggle"},
		"metadata":        {Type: schema.FieldTypeBoolean, Metadata: map[string]string{"widget": "custom-toggle"}},
	}
	for name, field := range cases {
		if got, ok := reg.Resolve(field); !ok || got != "custom-toggle" {
			t.Fatalf("%s: expected explicit widget to win, got %q (ok=%v)", name, got, ok)
		}
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name   string
		field  schema.Field
		expect string
	}{
		{name: "boolean toggle", field: schema.Field{Type: schema.FieldTypeBoolean}, expect: WidgetToggle},
		{name: "text area", field: schema.Field{Type: schema.FieldTypeText}, expect: WidgetTextarea},
		{name: "integer", field: schema.Field{Type: schema.FieldTypeInteger}, expect: WidgetNumber},
		{name: "number", field: schema.Field{Type: schema.FieldTypeNumber}, expect: WidgetNumber},
		{name: "object", field: schema.Field{Type: schema.FieldTypeObject}, expect: WidgetFieldset},
		{name: "array", field: schema.Field{Type: schema.FieldTypeArray}, expect: WidgetFieldset},
		{
			name: "select options",
			field: schema.Field{
				Type:     schema.FieldTypeString,
				Metadata: map[string]string{"options": "news, promo"},
			},
			expect: WidgetSelect,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := reg.Resolve(tc.field)
			if !ok {
				t.Fatalf("expected resolution for %s", tc.name)
			}
			if got != tc.expect {
				t.Fatalf("resolve %s: want %q, got %q", tc.name, tc.expect, got)
			}
		})
	}
}

func TestResolve_PlainStringFallsBack(t *testing.T) {
	reg := NewRegistry()

	if got, ok := reg.Resolve(schema.Field{Type: schema.FieldTypeString}); ok {
		t.Fatalf("expected no match, got %q", got)
	}
	if got := reg.ResolveOr(schema.Field{Type: schema.FieldTypeString}, WidgetInput); got != WidgetInput {
		t.Fatalf("expected fallback %q, got %q", WidgetInput, got)
	}
}

func TestResolve_PriorityOverride(t *testing.T) {
	reg := NewRegistry()
	reg.Register("custom", 999, func(field schema.Field) bool {
		return field.Type == schema.FieldTypeBoolean
	})

	got, ok := reg.Resolve(schema.Field{Type: schema.FieldTypeBoolean})
	if !ok || got != "custom" {
		t.Fatalf("priority matcher should win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_NilRegistry(t *testing.T) {
	var reg *Registry
	if _, ok := reg.Resolve(schema.Field{Type: schema.FieldTypeBoolean}); ok {
		t.Fatal("nil registry should not resolve builtins")
	}
}
