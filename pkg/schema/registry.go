package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-formcond/pkg/visibility"
)

var (
	// ErrUnknownPredicate is returned when a field references an unregistered
	// predicate or condition.
	ErrUnknownPredicate = errors.New("schema: unknown predicate")
	// ErrDuplicatePredicate is returned when a name is registered twice.
	ErrDuplicatePredicate = errors.New("schema: duplicate predicate")
)

// Registry maps predicate and condition names used in schema files to Go
// functions. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	predicates map[string]visibility.Predicate
	conditions map[string]visibility.Condition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		predicates: make(map[string]visibility.Predicate),
		conditions: make(map[string]visibility.Condition),
	}
}

// RegisterPredicate adds a hide predicate under name.
func (r *Registry) RegisterPredicate(name string, fn visibility.Predicate) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("schema: predicate name and function are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.predicates[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicatePredicate, name)
	}
	r.predicates[name] = fn
	return nil
}

// RegisterCondition adds a legacy condition under name.
func (r *Registry) RegisterCondition(name string, fn visibility.Condition) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("schema: condition name and function are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conditions[name]; exists {
		return fmt.Errorf("%w: condition %q", ErrDuplicatePredicate, name)
	}
	r.conditions[name] = fn
	return nil
}

// Predicate looks up a hide predicate.
func (r *Registry) Predicate(name string) (visibility.Predicate, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.predicates[name]
	return fn, ok
}

// Condition looks up a legacy condition.
func (r *Registry) Condition(name string) (visibility.Condition, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.conditions[name]
	return fn, ok
}

// Options resolves the field's hide option and legacy condition against reg.
func (f Field) Options(reg *Registry) (visibility.HideOption, visibility.Condition, error) {
	var cond visibility.Condition
	if name := strings.TrimSpace(f.Condition); name != "" {
		fn, ok := reg.Condition(name)
		if !ok {
			return visibility.HideOption{}, nil, fmt.Errorf("%w: condition %q on field %q", ErrUnknownPredicate, name, f.Name)
		}
		cond = fn
	}

	clear := f.ClearOnHidden
	if f.Hide.clear != nil {
		clear = *f.Hide.clear
	}

	switch {
	case f.Hide.static != nil:
		return visibility.Static(*f.Hide.static), cond, nil
	case f.Hide.predicate != "":
		fn, ok := reg.Predicate(f.Hide.predicate)
		if !ok {
			return visibility.HideOption{}, nil, fmt.Errorf("%w: %q on field %q", ErrUnknownPredicate, f.Hide.predicate, f.Name)
		}
		if clear {
			fn = forceClear(fn)
		}
		return visibility.Func(fn), cond, nil
	case f.Hide.rule != "":
		return visibility.Rule(f.Hide.rule, clear), cond, nil
	default:
		return visibility.HideOption{}, cond, nil
	}
}

// forceClear makes a predicate's Hidden answers clear the value, used when the
// schema sets clearOnHidden for a named predicate.
func forceClear(fn visibility.Predicate) visibility.Predicate {
	return func(ctx context.Context, c visibility.Context) (visibility.Visibility, error) {
		v, err := fn(ctx, c)
		if err == nil && v.Kind == visibility.Hidden {
			v.ClearOnHidden = true
		}
		return v, err
	}
}
