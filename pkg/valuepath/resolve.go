package valuepath

import (
	"errors"
	"fmt"
)

// ErrSegmentNotFound marks a segment that resolution would replace with the
// empty-mapping fallback.
var ErrSegmentNotFound = errors.New("valuepath: segment not found")

// ResolveParent applies prefix to doc and returns the value it reaches.
//
// Keys are looked up on mappings and keyed references on sequences. A missing
// entry, a falsy value (nil, false, zero or "") or an unmatched reference
// yields an empty mapping. Any other combination, such as a key applied to a
// sequence, leaves the current value unchanged.
func ResolveParent(doc any, prefix Path) any {
	context := doc
	for _, seg := range prefix {
		context, _ = step(context, seg)
	}
	return context
}

// ResolveParents returns the values reached by every proper prefix of path,
// nearest ancestor first. The last entry is the document itself.
func ResolveParents(doc any, path Path) []any {
	parents := make([]any, 0, len(path))
	for i := range path {
		parent := ResolveParent(doc, path[:i])
		if parent == nil {
			continue
		}
		parents = append(parents, parent)
	}
	for i, j := 0, len(parents)-1; i < j; i, j = i+1, j-1 {
		parents[i], parents[j] = parents[j], parents[i]
	}
	return parents
}

// ResolveAncestor returns the value level steps above the field located by
// path. Level 1 is the immediate parent and negative levels count by
// magnitude. Level 0 returns the document, as does a path that is not deep
// enough.
func ResolveAncestor(doc any, path Path, level int) any {
	if level < 0 {
		level = -level
	}
	remaining := len(path) - level
	if level == 0 || remaining <= 0 {
		return doc
	}
	return ResolveParent(doc, path[:remaining])
}

// Lookup returns the value stored at path. Unlike ResolveParent it does not
// fall back to empty mappings: the boolean is false as soon as a segment
// cannot be followed.
func Lookup(doc any, path Path) (any, bool) {
	current := doc
	for _, seg := range path {
		if seg.ref {
			item, ok := findRef(current, seg.name)
			if !ok {
				return nil, false
			}
			current = item
			continue
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg.name]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Validate walks path against doc and reports the first segment that
// ResolveParent would silently replace with an empty mapping.
func Validate(doc any, path Path) error {
	context := doc
	for i, seg := range path {
		next, found := step(context, seg)
		if !found {
			return fmt.Errorf("%w: %s at index %d of %s", ErrSegmentNotFound, seg, i, path)
		}
		context = next
	}
	return nil
}

// step applies one segment. found is false when the empty-mapping fallback was
// used.
func step(context any, seg Segment) (next any, found bool) {
	if isSequence(context) {
		if !seg.ref || seg.name == "" {
			return context, true
		}
		item, ok := findRef(context, seg.name)
		if !ok {
			return map[string]any{}, false
		}
		return item, true
	}

	if seg.ref {
		return context, true
	}
	m, ok := context.(map[string]any)
	if !ok {
		return context, true
	}
	value, ok := m[seg.name]
	if !ok || falsy(value) {
		return map[string]any{}, false
	}
	return value, true
}

// falsy reports the scalar values a key lookup treats as absent.
func falsy(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case float64:
		return v == 0 || v != v
	case float32:
		return v == 0 || v != v
	case int:
		return v == 0
	case int64:
		return v == 0
	case int32:
		return v == 0
	case uint:
		return v == 0
	case uint64:
		return v == 0
	default:
		return false
	}
}

func isSequence(value any) bool {
	switch value.(type) {
	case []any, []map[string]any:
		return true
	default:
		return false
	}
}

func findRef(value any, key string) (any, bool) {
	if key == "" {
		return nil, false
	}
	switch items := value.(type) {
	case []any:
		for _, item := range items {
			if m, ok := item.(map[string]any); ok && itemKey(m) == key {
				return m, true
			}
		}
	case []map[string]any:
		for _, m := range items {
			if itemKey(m) == key {
				return m, true
			}
		}
	}
	return nil, false
}

func itemKey(item map[string]any) string {
	key, _ := item[RefKey].(string)
	return key
}
