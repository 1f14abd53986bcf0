package render

import (
	"fmt"
	"sort"
	"strings"
)

// HiddenField is a hidden input emitted alongside the form fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken returns a hidden field carrying token under the backend's
// expected input name.
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// RevisionField carries the document revision the form was rendered from so
// the backend can reject stale submissions.
func RevisionField(name string, revision any) HiddenField {
	return Hidden(name, revision)
}

// SortedHiddenFields drops blank names, keeps the last value per name and
// sorts by name.
func SortedHiddenFields(fields []HiddenField) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	byName := make(map[string]string, len(fields))
	for _, f := range fields {
		if name := strings.TrimSpace(f.Name); name != "" {
			byName[name] = f.Value
		}
	}
	if len(byName) == 0 {
		return nil
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: name, Value: byName[name]})
	}
	return out
}
