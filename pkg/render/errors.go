package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formcond/pkg/field"
	"github.com/goliatone/go-formcond/pkg/form"
	"github.com/goliatone/go-formcond/pkg/valuepath"
)

// ErrorLevel is the marker level assigned to mapped server errors.
const ErrorLevel = "error"

// ErrorMapping splits a server error payload into field markers and
// form-level messages.
type ErrorMapping struct {
	Markers []field.Marker
	Form    []string
}

// MapErrorPayload maps server errors onto the field instances of report.
// Keys may use value path syntax (`sections[_key=="s1"].image`), dotted
// paths or JSON pointers; numeric segments address array items by position
// in doc and are translated to keyed references. Errors are attached to the
// deepest matching instance. Unknown paths become form-level messages so
// nothing is lost.
func MapErrorPayload(report form.Report, doc map[string]any, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	if len(payload) == 0 {
		return mapping
	}

	known := make(map[string]valuepath.Path, len(report.Entries))
	for _, e := range report.Entries {
		known[e.Path.String()] = e.Path
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, raw := range keys {
		messages := normalizeMessages(payload[raw])
		if len(messages) == 0 {
			continue
		}
		path, ok := mapErrorPath(raw, doc, known)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		for _, msg := range messages {
			mapping.Markers = append(mapping.Markers, field.Marker{Path: path, Level: ErrorLevel, Message: msg})
		}
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func mapErrorPath(raw string, doc map[string]any, known map[string]valuepath.Path) (valuepath.Path, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return nil, false
	}
	if p, err := valuepath.Parse(trimmed); err == nil {
		if match, ok := longestKnownPrefix(p, known); ok {
			return match, true
		}
	}

	segments := dropWrapperSegments(splitSegments(trimmed))
	if len(segments) == 0 {
		return nil, false
	}
	return longestKnownPrefix(toValuePath(segments, doc), known)
}

// toValuePath walks doc alongside segments so positional indexes can be
// replaced by the `_key` of the item they address.
func toValuePath(segments []string, doc map[string]any) valuepath.Path {
	var (
		path    valuepath.Path
		current any = doc
	)
	for _, seg := range segments {
		if items, ok := current.([]any); ok {
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(items) {
				return path
			}
			item, _ := items[idx].(map[string]any)
			key, _ := item[valuepath.RefKey].(string)
			if key == "" {
				return path
			}
			path = path.Append(valuepath.KeyRef(key))
			current = item
			continue
		}
		path = path.Append(valuepath.Key(seg))
		m, _ := current.(map[string]any)
		current = m[seg]
	}
	return path
}

func longestKnownPrefix(p valuepath.Path, known map[string]valuepath.Path) (valuepath.Path, bool) {
	for end := len(p); end > 0; end-- {
		if match, ok := known[p[:end].String()]; ok {
			return match, true
		}
	}
	return nil, false
}

func splitSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for _, prefix := range []string{"#/", "$/", "$."} {
		clean = strings.TrimPrefix(clean, prefix)
	}
	clean = strings.TrimLeft(clean, "#/.$")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	for len(segments) > 0 {
		switch strings.ToLower(segments[0]) {
		case "body", "request", "payload", "data", "attributes":
			segments = segments[1:]
		default:
			return segments
		}
	}
	return segments
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
