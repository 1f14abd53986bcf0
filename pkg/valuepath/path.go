package valuepath

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RefKey is the identity property keyed references match on.
const RefKey = "_key"

// ErrInvalidPath is returned when a textual path cannot be parsed.
var ErrInvalidPath = errors.New("valuepath: invalid path")

// Segment is a single step of a value path: either a plain mapping key or a
// keyed reference to a sequence element.
type Segment struct {
	name string
	ref  bool
}

// Key builds a plain key segment.
func Key(name string) Segment {
	return Segment{name: name}
}

// KeyRef builds a keyed reference segment matching elements by `_key`.
func KeyRef(key string) Segment {
	return Segment{name: key, ref: true}
}

// IsRef reports whether the segment is a keyed reference.
func (s Segment) IsRef() bool { return s.ref }

// Name returns the mapping key, or the referenced `_key` for keyed references.
func (s Segment) Name() string { return s.name }

func (s Segment) String() string {
	if s.ref {
		return "[" + RefKey + "==" + strconv.Quote(s.name) + "]"
	}
	return s.name
}

// MarshalJSON encodes keys as strings and keyed references as {"_key": ...}.
func (s Segment) MarshalJSON() ([]byte, error) {
	if s.ref {
		return json.Marshal(map[string]string{RefKey: s.name})
	}
	return json.Marshal(s.name)
}

// UnmarshalJSON accepts either a string or an object carrying `_key`.
func (s *Segment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("valuepath: decode key segment: %w", err)
		}
		*s = Key(name)
		return nil
	}

	var ref map[string]any
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("valuepath: decode segment: %w", err)
	}
	key, ok := ref[RefKey].(string)
	if !ok || key == "" {
		return fmt.Errorf("%w: segment %s has no %s", ErrInvalidPath, string(data), RefKey)
	}
	*s = KeyRef(key)
	return nil
}

// Path is an ordered sequence of segments locating a field in a document.
type Path []Segment

// Append returns a new path with the provided segments added. The receiver is
// left untouched even when it has spare capacity.
func (p Path) Append(segments ...Segment) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[: len(p)-1 : len(p)-1]
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the path in dotted form, e.g. `a.b[_key=="k1"].c`.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if i > 0 && !seg.ref {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}

// Parse reads the dotted form produced by Path.String. Keys may not contain
// '.', '[' or ']'.
func Parse(raw string) (Path, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Path{}, nil
	}

	var (
		path Path
		i    int
	)
	for i < len(raw) {
		switch raw[i] {
		case '.':
			if i == 0 || i == len(raw)-1 || raw[i+1] == '.' || raw[i+1] == '[' {
				return nil, fmt.Errorf("%w: unexpected '.' at %d in %q", ErrInvalidPath, i, raw)
			}
			i++
		case '[':
			end := strings.IndexByte(raw[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated reference in %q", ErrInvalidPath, raw)
			}
			seg, err := parseRef(raw[i+1 : i+end])
			if err != nil {
				return nil, fmt.Errorf("%w: %v in %q", ErrInvalidPath, err, raw)
			}
			path = append(path, seg)
			i += end + 1
			if i < len(raw) && raw[i] != '.' && raw[i] != '[' {
				return nil, fmt.Errorf("%w: unexpected %q after reference in %q", ErrInvalidPath, raw[i], raw)
			}
		default:
			start := i
			for i < len(raw) && raw[i] != '.' && raw[i] != '[' {
				if raw[i] == ']' {
					return nil, fmt.Errorf("%w: unexpected ']' at %d in %q", ErrInvalidPath, i, raw)
				}
				i++
			}
			path = append(path, Key(raw[start:i]))
		}
	}
	return path, nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and package-level fixtures.
func MustParse(raw string) Path {
	path, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return path
}

func parseRef(body string) (Segment, error) {
	name, value, ok := strings.Cut(body, "==")
	if !ok || strings.TrimSpace(name) != RefKey {
		return Segment{}, fmt.Errorf("reference %q must look like %s==\"key\"", body, RefKey)
	}
	key, err := strconv.Unquote(strings.TrimSpace(value))
	if err != nil {
		return Segment{}, fmt.Errorf("reference key %s: %v", value, err)
	}
	if key == "" {
		return Segment{}, errors.New("reference key is empty")
	}
	return KeyRef(key), nil
}
