package formcond

import (
	"context"

	"go.uber.org/zap"

	"github.com/goliatone/go-formcond/pkg/field"
	"github.com/goliatone/go-formcond/pkg/form"
	"github.com/goliatone/go-formcond/pkg/render"
	"github.com/goliatone/go-formcond/pkg/render/html"
	"github.com/goliatone/go-formcond/pkg/schema"
	"github.com/goliatone/go-formcond/pkg/valuepath"
	"github.com/goliatone/go-formcond/pkg/visibility"
	"github.com/goliatone/go-formcond/pkg/visibility/expr"
)

// Path aliases valuepath.Path so callers can address values without importing
// the subpackage.
type Path = valuepath.Path

// Segment aliases valuepath.Segment.
type Segment = valuepath.Segment

// Report aliases form.Report.
type Report = form.Report

// RenderOptions aliases render.RenderOptions.
type RenderOptions = render.RenderOptions

// Key returns a named path segment.
func Key(name string) Segment { return valuepath.Key(name) }

// KeyRef returns a segment selecting the array item whose `_key` equals key.
func KeyRef(key string) Segment { return valuepath.KeyRef(key) }

// ParsePath parses the textual path form, e.g. `sections[_key=="s1"].image`.
func ParsePath(raw string) (Path, error) { return valuepath.Parse(raw) }

// ResolveParent returns the container addressed by prefix. Missing segments
// resolve to an empty mapping.
func ResolveParent(doc any, prefix Path) any { return valuepath.ResolveParent(doc, prefix) }

// ResolveParents lists the containers enclosing path, nearest first and the
// document last.
func ResolveParents(doc any, path Path) []any { return valuepath.ResolveParents(doc, path) }

// ResolveAncestor returns the container level steps above path.
func ResolveAncestor(doc any, path Path, level int) any {
	return valuepath.ResolveAncestor(doc, path, level)
}

// Formcond bundles the configuration shared by evaluation, rendering and
// schema validation.
type Formcond struct {
	registry    *schema.Registry
	rules       visibility.Evaluator
	logger      *zap.Logger
	host        field.Host
	extras      map[string]any
	concurrency int
	htmlOptions []html.Option
}

// Option configures a Formcond.
type Option func(*Formcond)

// WithRegistry resolves named predicates and conditions referenced by
// schemas.
func WithRegistry(reg *schema.Registry) Option {
	return func(f *Formcond) {
		f.registry = reg
	}
}

// WithRuleEvaluator replaces the built-in rule language.
func WithRuleEvaluator(rules visibility.Evaluator) Option {
	return func(f *Formcond) {
		if rules != nil {
			f.rules = rules
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Formcond) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithHost receives unset requests as fields become hidden.
func WithHost(host field.Host) Option {
	return func(f *Formcond) {
		f.host = host
	}
}

// WithExtras exposes caller context to predicates and rules.
func WithExtras(extras map[string]any) Option {
	return func(f *Formcond) {
		f.extras = extras
	}
}

// WithConcurrency bounds concurrent predicate evaluation.
func WithConcurrency(n int) Option {
	return func(f *Formcond) {
		f.concurrency = n
	}
}

// WithHTMLOptions forwards options to the HTML renderer.
func WithHTMLOptions(options ...html.Option) Option {
	return func(f *Formcond) {
		f.htmlOptions = append(f.htmlOptions, options...)
	}
}

// New constructs a Formcond. Rules use the built-in expression language
// unless WithRuleEvaluator is given.
func New(options ...Option) *Formcond {
	f := &Formcond{
		registry: schema.NewRegistry(),
		rules:    expr.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f
}

// Registry returns the predicate registry.
func (f *Formcond) Registry() *schema.Registry {
	return f.registry
}

// Evaluator returns a form evaluator carrying the configuration.
func (f *Formcond) Evaluator() *form.Evaluator {
	return form.New(
		form.WithRegistry(f.registry),
		form.WithRuleEvaluator(f.rules),
		form.WithLogger(f.logger),
		form.WithHost(f.host),
		form.WithExtras(f.extras),
		form.WithConcurrency(f.concurrency),
	)
}

// EvaluateVisibility decides the visibility of a single field.
func (f *Formcond) EvaluateVisibility(ctx context.Context, in visibility.Input) visibility.Result {
	return visibility.Evaluate(ctx, in,
		visibility.WithLogger(f.logger),
		visibility.WithRuleEvaluator(f.rules),
	)
}

// Validate checks typ against the registry and the rule language.
func (f *Formcond) Validate(typ schema.Type) error {
	return schema.Validate(typ, f.registry, f.rules)
}

// EvaluateDocument evaluates every field of doc.
func (f *Formcond) EvaluateDocument(ctx context.Context, typ schema.Type, doc map[string]any) (Report, error) {
	return f.Evaluator().Evaluate(ctx, typ, doc)
}

// Clean evaluates doc and returns a copy with the values of hidden
// clear-on-hidden fields removed.
func (f *Formcond) Clean(ctx context.Context, typ schema.Type, doc map[string]any) (map[string]any, Report, error) {
	report, err := f.EvaluateDocument(ctx, typ, doc)
	if err != nil {
		return nil, report, err
	}
	cleaned, err := report.Apply(doc)
	if err != nil {
		return nil, report, err
	}
	return cleaned, report, nil
}

// Renderers returns a registry holding the html and json renderers.
func (f *Formcond) Renderers() (*render.Registry, error) {
	htmlRenderer, err := html.New(f.htmlOptions...)
	if err != nil {
		return nil, err
	}
	reg := render.NewRegistry()
	if err := reg.Register(htmlRenderer); err != nil {
		return nil, err
	}
	if err := reg.Register(render.NewJSON()); err != nil {
		return nil, err
	}
	return reg, nil
}

// Render evaluates doc and renders the form with the named renderer. The
// document doubles as the value source unless opts carries one.
func (f *Formcond) Render(ctx context.Context, name string, typ schema.Type, doc map[string]any, opts RenderOptions) ([]byte, error) {
	reg, err := f.Renderers()
	if err != nil {
		return nil, err
	}
	renderer, err := reg.Get(name)
	if err != nil {
		return nil, err
	}
	report, err := f.EvaluateDocument(ctx, typ, doc)
	if err != nil {
		return nil, err
	}
	if opts.Document == nil {
		opts.Document = doc
	}
	return renderer.Render(ctx, report, opts)
}

// RenderHTML evaluates doc and renders the form as HTML.
func (f *Formcond) RenderHTML(ctx context.Context, typ schema.Type, doc map[string]any, opts RenderOptions) ([]byte, error) {
	return f.Render(ctx, "html", typ, doc, opts)
}

// MapErrors attaches a server error payload to the field instances of doc.
func (f *Formcond) MapErrors(ctx context.Context, typ schema.Type, doc map[string]any, payload map[string][]string) (render.ErrorMapping, error) {
	report, err := f.EvaluateDocument(ctx, typ, doc)
	if err != nil {
		return render.ErrorMapping{}, err
	}
	return render.MapErrorPayload(report, doc, payload), nil
}
