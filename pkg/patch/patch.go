// Package patch describes document mutations and applies them to copies of
// content documents.
package patch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-formcond/pkg/valuepath"
)

// Op identifies a patch operation.
type Op string

const (
	OpSet   Op = "set"
	OpUnset Op = "unset"
)

var (
	// ErrEmptyPath is returned for patches targeting the document root.
	ErrEmptyPath = errors.New("patch: path is empty")
	// ErrPathNotFound is returned when a set cannot reach its target.
	ErrPathNotFound = errors.New("patch: path not found")
	// ErrUnknownOp is returned for operations other than set and unset.
	ErrUnknownOp = errors.New("patch: unknown operation")
)

// Patch is a single mutation of the value stored at Path.
type Patch struct {
	Op    Op             `json:"op"`
	Path  valuepath.Path `json:"path"`
	Value any            `json:"value,omitempty"`
}

// Set replaces the value at path.
func Set(path valuepath.Path, value any) Patch {
	return Patch{Op: OpSet, Path: path, Value: value}
}

// Unset removes the value at path.
func Unset(path valuepath.Path) Patch {
	return Patch{Op: OpUnset, Path: path}
}

func (p Patch) String() string {
	return fmt.Sprintf("%s %s", p.Op, p.Path)
}

// Event groups patches emitted together, e.g. every clear triggered by one
// document refresh.
type Event struct {
	Origin  string  `json:"origin,omitempty"`
	Patches []Patch `json:"patches"`
}

// Apply returns a copy of doc with patches applied in order. doc itself is
// never modified. Unsetting a missing value is a no-op.
func Apply(doc map[string]any, patches ...Patch) (map[string]any, error) {
	out, _ := Clone(doc).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	for _, p := range patches {
		if len(p.Path) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyPath, p.Op)
		}
		var err error
		switch p.Op {
		case OpSet:
			_, err = set(out, p.Path, Clone(p.Value))
		case OpUnset:
			_ = unset(out, p.Path)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownOp, p.Op)
		}
		if err != nil {
			return nil, fmt.Errorf("patch: apply %s: %w", p, err)
		}
	}
	return out, nil
}

func set(node any, path valuepath.Path, value any) (any, error) {
	seg := path[0]
	last := len(path) == 1

	if seg.IsRef() {
		items, idx := indexOf(node, seg.Name())
		if idx < 0 {
			return node, fmt.Errorf("%w: %s", ErrPathNotFound, seg)
		}
		if last {
			items[idx] = value
			return items, nil
		}
		next, err := set(items[idx], path[1:], value)
		if err != nil {
			return node, err
		}
		items[idx] = next
		return items, nil
	}

	m, ok := node.(map[string]any)
	if !ok {
		return node, fmt.Errorf("%w: %s is not an object", ErrPathNotFound, seg)
	}
	if last {
		m[seg.Name()] = value
		return m, nil
	}
	child, ok := m[seg.Name()]
	if !ok || child == nil {
		if path[1].IsRef() {
			return node, fmt.Errorf("%w: %s", ErrPathNotFound, seg)
		}
		child = map[string]any{}
	}
	next, err := set(child, path[1:], value)
	if err != nil {
		return node, err
	}
	m[seg.Name()] = next
	return m, nil
}

func unset(node any, path valuepath.Path) any {
	seg := path[0]
	last := len(path) == 1

	if seg.IsRef() {
		items, idx := indexOf(node, seg.Name())
		if idx < 0 {
			return node
		}
		if last {
			return append(items[:idx:idx], items[idx+1:]...)
		}
		items[idx] = unset(items[idx], path[1:])
		return items
	}

	m, ok := node.(map[string]any)
	if !ok {
		return node
	}
	if last {
		delete(m, seg.Name())
		return m
	}
	child, ok := m[seg.Name()]
	if !ok {
		return m
	}
	m[seg.Name()] = unset(child, path[1:])
	return m
}

// indexOf finds the element carrying key. Typed []map[string]any sequences are
// normalised to []any by Clone before patches run.
func indexOf(node any, key string) ([]any, int) {
	items, ok := node.([]any)
	if !ok {
		return nil, -1
	}
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if k, _ := m[valuepath.RefKey].(string); k != "" && k == key {
			return items, i
		}
	}
	return items, -1
}

// Clone deep-copies JSON-like values. Typed []map[string]any sequences become
// []any.
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	default:
		return v
	}
}

// Recorder collects unset requests and events in memory. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// RequestUnset records a single-patch event for path.
func (r *Recorder) RequestUnset(ctx context.Context, path valuepath.Path) error {
	return r.Submit(ctx, Event{Origin: "visibility", Patches: []Patch{Unset(path)}})
}

// Submit records ev.
func (r *Recorder) Submit(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a snapshot of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Patches flattens the recorded events.
func (r *Recorder) Patches() []Patch {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Patch
	for _, ev := range r.events {
		out = append(out, ev.Patches...)
	}
	return out
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
