package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formcond/pkg/field"
	"github.com/goliatone/go-formcond/pkg/schema"
	"github.com/goliatone/go-formcond/pkg/valuepath"
	"github.com/goliatone/go-formcond/pkg/visibility"
)

const defaultConcurrency = 8

// ErrHost wraps the unset failures a host reported during a refresh. The
// report returned alongside it is complete.
var ErrHost = errors.New("form: host rejected unset")

// Evaluator walks document types and decides visibility for each field
// instance.
type Evaluator struct {
	registry    *schema.Registry
	rules       visibility.Evaluator
	logger      *zap.Logger
	host        field.Host
	extras      map[string]any
	concurrency int
	engine      *visibility.Engine
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRegistry resolves named predicates and conditions.
func WithRegistry(reg *schema.Registry) Option {
	return func(e *Evaluator) {
		e.registry = reg
	}
}

// WithRuleEvaluator evaluates rule strings in hide options.
func WithRuleEvaluator(rules visibility.Evaluator) Option {
	return func(e *Evaluator) {
		e.rules = rules
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHost delivers unset effects as they happen instead of only reporting
// them.
func WithHost(host field.Host) Option {
	return func(e *Evaluator) {
		e.host = host
	}
}

// WithExtras injects caller context visible to predicates and rules.
func WithExtras(extras map[string]any) Option {
	return func(e *Evaluator) {
		e.extras = extras
	}
}

// WithConcurrency bounds how many predicates run at once. Values below one
// are ignored.
func WithConcurrency(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New constructs an Evaluator.
func New(options ...Option) *Evaluator {
	e := &Evaluator{
		logger:      zap.NewNop(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	e.engine = visibility.NewEngine(
		visibility.WithLogger(e.logger),
		visibility.WithRuleEvaluator(e.rules),
	)
	return e
}

// Evaluate runs a one-off evaluation. Use NewSession to keep field state
// across document updates.
func (e *Evaluator) Evaluate(ctx context.Context, typ schema.Type, doc map[string]any) (Report, error) {
	return e.NewSession(typ).Refresh(ctx, doc)
}

// Session keeps one controller per field instance so clear effects fire once
// per hidden episode across refreshes.
type Session struct {
	eval *Evaluator
	typ  schema.Type

	mu          sync.Mutex
	controllers map[string]*field.Controller
}

// NewSession starts a session for typ.
func (e *Evaluator) NewSession(typ schema.Type) *Session {
	return &Session{
		eval:        e,
		typ:         typ,
		controllers: make(map[string]*field.Controller),
	}
}

// Type returns the document type the session evaluates.
func (s *Session) Type() schema.Type {
	return s.typ
}

// Refresh re-evaluates every field against doc. Fields below a hidden field
// are not evaluated and are reported as Skipped. Host failures are collected
// into an error wrapping ErrHost; the report is complete either way. Any other
// error means the type could not be planned and the report is empty.
func (s *Session) Refresh(ctx context.Context, doc map[string]any) (Report, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	roots, order, err := s.plan(s.typ.Fields, valuepath.Path{}, doc, 0)
	if err != nil {
		return Report{}, err
	}

	var hostErrs []error
	level := roots
	for len(level) > 0 {
		errs := s.evaluateLevel(ctx, level, doc)
		hostErrs = append(hostErrs, errs...)

		var next []*node
		for _, n := range level {
			if n.entry.Result.Visible {
				next = append(next, n.children...)
				continue
			}
			markSkipped(n.children)
		}
		level = next
	}

	report := Report{Type: s.typ.Name, Entries: make([]Entry, 0, len(order))}
	for _, n := range order {
		report.Entries = append(report.Entries, n.entry)
	}
	if err := multierr.Combine(hostErrs...); err != nil {
		return report, fmt.Errorf("%w: %w", ErrHost, err)
	}
	return report, nil
}

func (s *Session) evaluateLevel(ctx context.Context, level []*node, doc map[string]any) []error {
	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.eval.concurrency)
	for _, n := range level {
		n := n
		g.Go(func() error {
			tr, err := n.ctrl.Refresh(gctx, doc)
			n.entry.State = tr.To
			n.entry.Result = n.ctrl.Result()
			n.entry.Effect = tr.Effect
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func markSkipped(nodes []*node) {
	for _, n := range nodes {
		n.entry.Skipped = true
		n.entry.State = n.ctrl.State()
		markSkipped(n.children)
	}
}

type node struct {
	entry    Entry
	ctrl     *field.Controller
	children []*node
}

// plan builds the field instance tree for doc and returns it alongside a
// pre-order listing.
func (s *Session) plan(fields []schema.Field, base valuepath.Path, doc map[string]any, depth int) ([]*node, []*node, error) {
	var (
		nodes []*node
		order []*node
	)
	for _, f := range fields {
		path := base.Append(valuepath.Key(f.Name))
		n, err := s.instance(f, path, depth)
		if err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
		order = append(order, n)

		var children, childOrder []*node
		switch f.Type {
		case schema.FieldTypeObject:
			children, childOrder, err = s.plan(f.Fields, path, doc, depth+1)
		case schema.FieldTypeArray:
			children, childOrder, err = s.planItems(f, path, doc, depth+1)
		}
		if err != nil {
			return nil, nil, err
		}
		n.children = children
		order = append(order, childOrder...)
	}
	return nodes, order, nil
}

func (s *Session) planItems(f schema.Field, path valuepath.Path, doc map[string]any, depth int) ([]*node, []*node, error) {
	value, _ := valuepath.Lookup(doc, path)
	items, _ := value.([]any)

	var nodes, order []*node
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		key, _ := item[valuepath.RefKey].(string)
		if key == "" {
			s.eval.logger.Debug("form: skipping array item without _key", zap.String("path", path.String()))
			continue
		}
		member, ok := f.Member(item)
		if !ok {
			s.eval.logger.Debug("form: no member type for array item",
				zap.String("path", path.String()),
				zap.String("key", key),
			)
			continue
		}

		itemPath := path.Append(valuepath.KeyRef(key))
		n, err := s.instance(member, itemPath, depth)
		if err != nil {
			return nil, nil, err
		}
		children, childOrder, err := s.plan(member.Fields, itemPath, doc, depth+1)
		if err != nil {
			return nil, nil, err
		}
		n.children = children
		nodes = append(nodes, n)
		order = append(order, n)
		order = append(order, childOrder...)
	}
	return nodes, order, nil
}

func (s *Session) instance(f schema.Field, path valuepath.Path, depth int) (*node, error) {
	ctrl, err := s.controller(f, path)
	if err != nil {
		return nil, err
	}
	return &node{
		ctrl: ctrl,
		entry: Entry{
			Path:        path,
			Field:       f.Name,
			Type:        f.Type,
			Label:       f.Label(),
			Description: f.Description,
			Depth:       depth,
			Conditional: f.Conditional(),
			State:       ctrl.State(),
			Result:      ctrl.Result(),
			Schema:      f,
		},
	}, nil
}

func (s *Session) controller(f schema.Field, path valuepath.Path) (*field.Controller, error) {
	key := path.String()

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctrl, ok := s.controllers[key]; ok {
		return ctrl, nil
	}

	hide, cond, err := f.Options(s.eval.registry)
	if err != nil {
		return nil, fmt.Errorf("form: field %s: %w", key, err)
	}
	ctrl := field.New(field.Config{
		Path:      path,
		Type:      f,
		Hide:      hide,
		Condition: cond,
		Extras:    s.eval.extras,
	},
		field.WithEngine(s.eval.engine),
		field.WithHost(s.eval.host),
		field.WithLogger(s.eval.logger),
	)
	s.controllers[key] = ctrl
	return ctrl, nil
}

// Controller returns the controller of a field instance seen by a previous
// Refresh.
func (s *Session) Controller(path valuepath.Path) (*field.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, ok := s.controllers[path.String()]
	return ctrl, ok
}
