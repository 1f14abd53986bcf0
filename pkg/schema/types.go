package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeText    FieldType = "text"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
)

// Container reports whether the type holds nested fields.
func (t FieldType) Container() bool {
	return t == FieldTypeArray || t == FieldTypeObject
}

// Type is a document type: the root of a field tree.
type Type struct {
	Name   string  `yaml:"name" json:"name"`
	Title  string  `yaml:"title,omitempty" json:"title,omitempty"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Field models a single input of a document type.
type Field struct {
	Name           string            `yaml:"name" json:"name"`
	Type           FieldType         `yaml:"type" json:"type"`
	Title          string            `yaml:"title,omitempty" json:"title,omitempty"`
	Description    string            `yaml:"description,omitempty" json:"description,omitempty"`
	Hide           Hide              `yaml:"hide,omitempty" json:"-"`
	ClearOnHidden  bool              `yaml:"clearOnHidden,omitempty" json:"clearOnHidden,omitempty"`
	Condition      string            `yaml:"condition,omitempty" json:"condition,omitempty"`
	InputComponent string            `yaml:"inputComponent,omitempty" json:"inputComponent,omitempty"`
	Fields         []Field           `yaml:"fields,omitempty" json:"fields,omitempty"`
	Of             []Field           `yaml:"of,omitempty" json:"of,omitempty"`
	Metadata       map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Label returns the title, falling back to the field name.
func (f Field) Label() string {
	if strings.TrimSpace(f.Title) != "" {
		return f.Title
	}
	return f.Name
}

// Conditional reports whether the field carries a hide option or a legacy
// condition.
func (f Field) Conditional() bool {
	return !f.Hide.IsZero() || strings.TrimSpace(f.Condition) != ""
}

// Choices lists the allowed values declared in the `options` metadata as a
// comma separated list.
func (f Field) Choices() []string {
	raw := strings.TrimSpace(f.Metadata["options"])
	if raw == "" {
		return nil
	}
	var out []string
	for _, opt := range strings.Split(raw, ",") {
		if opt = strings.TrimSpace(opt); opt != "" {
			out = append(out, opt)
		}
	}
	return out
}

// Stripped returns the type metadata forwarded to the default input: the
// options that made the field conditional are removed.
func (f Field) Stripped() Field {
	f.Hide = Hide{}
	f.ClearOnHidden = false
	f.Condition = ""
	f.InputComponent = ""
	return f
}

// Member selects the array member type for an item. Items pick the member
// whose name matches their `_type`; a single member type matches everything.
func (f Field) Member(item map[string]any) (Field, bool) {
	if len(f.Of) == 0 {
		return Field{}, false
	}
	typeName, _ := item["_type"].(string)
	for _, member := range f.Of {
		if typeName != "" && member.Name == typeName {
			return member, true
		}
	}
	if len(f.Of) == 1 {
		return f.Of[0], true
	}
	return Field{}, false
}

// Hide is the `hide` option as written in a schema file: a boolean, a rule
// string, or a mapping referencing a registered predicate.
type Hide struct {
	static    *bool
	rule      string
	predicate string
	clear     *bool
}

// StaticHide builds a boolean hide option.
func StaticHide(hidden bool) Hide {
	return Hide{static: &hidden}
}

// RuleHide builds a rule hide option.
func RuleHide(rule string) Hide {
	return Hide{rule: strings.TrimSpace(rule)}
}

// PredicateHide builds a hide option referencing a registered predicate.
func PredicateHide(name string) Hide {
	return Hide{predicate: strings.TrimSpace(name)}
}

// IsZero reports whether no hide option was configured.
func (h Hide) IsZero() bool {
	return h.static == nil && h.rule == "" && h.predicate == ""
}

// Static returns the boolean form, if configured.
func (h Hide) Static() (bool, bool) {
	if h.static == nil {
		return false, false
	}
	return *h.static, true
}

// Rule returns the rule expression, if configured.
func (h Hide) Rule() string { return h.rule }

// Predicate returns the registered predicate name, if configured.
func (h Hide) Predicate() string { return h.predicate }

type hideMapping struct {
	Predicate     string `yaml:"predicate"`
	Rule          string `yaml:"rule"`
	ClearOnHidden *bool  `yaml:"clearOnHidden"`
}

// UnmarshalYAML accepts `true`, `"rule"` or `{predicate: name}` /
// `{rule: expr, clearOnHidden: true}`.
func (h *Hide) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!bool" {
			var hidden bool
			if err := node.Decode(&hidden); err != nil {
				return fmt.Errorf("schema: hide: %w", err)
			}
			*h = StaticHide(hidden)
			return nil
		}
		if node.Tag == "!!null" {
			*h = Hide{}
			return nil
		}
		*h = RuleHide(node.Value)
		return nil
	case yaml.MappingNode:
		var raw hideMapping
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("schema: hide: %w", err)
		}
		if raw.Predicate != "" && raw.Rule != "" {
			return fmt.Errorf("schema: hide at line %d sets both predicate and rule", node.Line)
		}
		if raw.Predicate == "" && raw.Rule == "" {
			return fmt.Errorf("schema: hide at line %d needs a predicate or rule", node.Line)
		}
		*h = Hide{predicate: strings.TrimSpace(raw.Predicate), rule: strings.TrimSpace(raw.Rule), clear: raw.ClearOnHidden}
		return nil
	default:
		return fmt.Errorf("schema: hide at line %d must be a boolean, string or mapping", node.Line)
	}
}

// MarshalYAML mirrors UnmarshalYAML.
func (h Hide) MarshalYAML() (any, error) {
	switch {
	case h.static != nil:
		return *h.static, nil
	case h.predicate != "" || h.clear != nil:
		out := map[string]any{}
		if h.predicate != "" {
			out["predicate"] = h.predicate
		}
		if h.rule != "" {
			out["rule"] = h.rule
		}
		if h.clear != nil {
			out["clearOnHidden"] = *h.clear
		}
		return out, nil
	case h.rule != "":
		return h.rule, nil
	default:
		return nil, nil
	}
}
