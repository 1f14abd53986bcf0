package schema

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/goliatone/go-formcond/pkg/visibility"
)

// Validate checks a type for structural problems and unresolved predicate
// references. Every problem is reported; use multierr.Errors to split them.
// rules, when non-nil, compiles rule strings so syntax errors surface at load
// time rather than as runtime diagnostics.
func Validate(t Type, reg *Registry, rules visibility.Evaluator) error {
	var err error
	if strings.TrimSpace(t.Name) == "" {
		err = multierr.Append(err, fmt.Errorf("schema: type name is required"))
	}
	err = multierr.Append(err, validateFields(t.Fields, t.Name, reg, rules))
	return err
}

func validateFields(fields []Field, prefix string, reg *Registry, rules visibility.Evaluator) error {
	var err error
	seen := make(map[string]struct{}, len(fields))
	for i, field := range fields {
		name := strings.TrimSpace(field.Name)
		location := fmt.Sprintf("%s[%d]", prefix, i)
		if name == "" {
			err = multierr.Append(err, fmt.Errorf("schema: %s: field name is required", location))
		} else {
			location = prefix + "." + name
			if _, dup := seen[name]; dup {
				err = multierr.Append(err, fmt.Errorf("schema: %s: duplicate field name", location))
			}
			seen[name] = struct{}{}
		}

		if _, _, optErr := field.Options(reg); optErr != nil {
			err = multierr.Append(err, fmt.Errorf("schema: %s: %w", location, optErr))
		}
		if rule := field.Hide.Rule(); rule != "" && rules != nil {
			if _, ruleErr := rules.Eval(location, rule, visibility.Context{}); ruleErr != nil {
				err = multierr.Append(err, fmt.Errorf("schema: %s: hide rule: %w", location, ruleErr))
			}
		}

		switch field.Type {
		case FieldTypeObject:
			if len(field.Fields) == 0 {
				err = multierr.Append(err, fmt.Errorf("schema: %s: object needs fields", location))
			}
		case FieldTypeArray:
			if len(field.Fields) > 0 {
				err = multierr.Append(err, fmt.Errorf("schema: %s: array declares members with `of`, not `fields`", location))
			}
		}
		err = multierr.Append(err, validateFields(field.Fields, location, reg, rules))
		err = multierr.Append(err, validateFields(field.Of, location, reg, rules))
	}
	return err
}

// Deprecations lists fields still using the legacy `condition` option.
func Deprecations(t Type) []string {
	var out []string
	var walk func(fields []Field, prefix string)
	walk = func(fields []Field, prefix string) {
		for _, field := range fields {
			location := prefix + "." + field.Name
			if strings.TrimSpace(field.Condition) != "" {
				out = append(out, fmt.Sprintf("%s: `condition` is deprecated, use `hide`", location))
			}
			walk(field.Fields, location)
			walk(field.Of, location)
		}
	}
	walk(t.Fields, t.Name)
	return out
}
