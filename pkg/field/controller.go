// Package field holds the per-field visibility state machine.
//
// A Controller moves through Unevaluated → Evaluating → {Visible, Hidden}.
// Each evaluation takes a ticket; results carrying an older ticket than the
// latest applied one are discarded so slow predicates cannot flip a field
// back to an outdated state. Transitions into Hidden with clearOnHidden set
// return an unset Effect instead of mutating anything themselves.
package field

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formcond/pkg/schema"
	"github.com/goliatone/go-formcond/pkg/valuepath"
	"github.com/goliatone/go-formcond/pkg/visibility"
)

// Host applies effects on behalf of a controller.
type Host interface {
	RequestUnset(ctx context.Context, path valuepath.Path) error
}

// Effect is a side effect requested by a transition.
type Effect struct {
	Kind EffectKind     `json:"kind"`
	Path valuepath.Path `json:"path,omitempty"`
}

// Transition describes the outcome of completing an evaluation.
type Transition struct {
	From   State             `json:"from"`
	To     State             `json:"to"`
	Result visibility.Result `json:"result"`
	Effect Effect            `json:"effect"`
	// Stale is set when the result was discarded because a newer evaluation
	// had already been applied.
	Stale bool `json:"stale,omitempty"`
}

// Config describes one field instance.
type Config struct {
	Path      valuepath.Path
	Type      schema.Field
	Hide      visibility.HideOption
	Condition visibility.Condition
	Extras    map[string]any
}

// Controller tracks visibility for a single field instance. It is safe for
// concurrent use; evaluations may overlap.
type Controller struct {
	cfg    Config
	engine *visibility.Engine
	host   Host
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	decided State
	result  visibility.Result
	issued  uint64
	applied uint64
	cleared bool
	focus   Focuser
}

// Option configures a Controller.
type Option func(*Controller)

// WithEngine sets the visibility engine used by Refresh.
func WithEngine(engine *visibility.Engine) Option {
	return func(c *Controller) {
		if engine != nil {
			c.engine = engine
		}
	}
}

// WithHost sets the host that receives unset effects during Refresh.
func WithHost(host Host) Option {
	return func(c *Controller) {
		c.host = host
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns an Unevaluated controller.
func New(cfg Config, options ...Option) *Controller {
	c := &Controller{
		cfg:    cfg,
		logger: zap.NewNop(),
		result: visibility.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.engine == nil {
		c.engine = visibility.NewEngine(visibility.WithLogger(c.logger))
	}
	return c
}

// Path returns the field's value path.
func (c *Controller) Path() valuepath.Path {
	return c.cfg.Path
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() Config {
	return c.cfg
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the last applied result. Before the first evaluation it is
// visibility.Default().
func (c *Controller) Result() visibility.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Visible reports the last decided visibility. Fields that were never
// evaluated count as visible.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decided != Hidden
}

// Begin starts an evaluation and returns its ticket.
func (c *Controller) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	c.state = Evaluating
	return c.issued
}

// Complete applies res for ticket. hasValue reports whether the field holds
// a value in the document the evaluation ran against.
func (c *Controller) Complete(ticket uint64, res visibility.Result, hasValue bool) Transition {
	c.mu.Lock()
	defer c.mu.Unlock()

	tr := Transition{From: c.state, Result: res}
	if ticket <= c.applied || ticket > c.issued {
		tr.To = c.state
		tr.Result = c.result
		tr.Stale = true
		return tr
	}

	c.applied = ticket
	c.result = res
	if res.Visible {
		c.decided = Visible
		c.cleared = false
	} else {
		c.decided = Hidden
		if res.ClearOnHidden && hasValue && !c.cleared {
			c.cleared = true
			tr.Effect = Effect{Kind: EffectUnset, Path: c.cfg.Path}
		}
	}

	// A newer evaluation is still in flight; keep reporting Evaluating.
	if ticket == c.issued {
		c.state = c.decided
	}
	tr.To = c.state
	return tr
}

// Evaluate runs the hide option against doc and completes the evaluation. It
// does not deliver effects; see Refresh.
func (c *Controller) Evaluate(ctx context.Context, doc map[string]any) Transition {
	ticket := c.Begin()
	res := c.engine.Evaluate(ctx, visibility.Input{
		Document:  doc,
		Parents:   valuepath.ResolveParents(doc, c.cfg.Path),
		Path:      c.cfg.Path,
		Hide:      c.cfg.Hide,
		Condition: c.cfg.Condition,
		Extras:    c.cfg.Extras,
	})
	value, ok := valuepath.Lookup(doc, c.cfg.Path)
	return c.Complete(ticket, res, ok && value != nil)
}

// Refresh evaluates against doc and hands any unset effect to the host. When
// the host fails, the effect is re-armed so the next refresh retries it.
func (c *Controller) Refresh(ctx context.Context, doc map[string]any) (Transition, error) {
	tr := c.Evaluate(ctx, doc)
	if tr.Effect.Kind != EffectUnset || c.host == nil {
		return tr, nil
	}
	if err := c.host.RequestUnset(ctx, tr.Effect.Path); err != nil {
		c.mu.Lock()
		c.cleared = false
		c.mu.Unlock()
		c.logger.Warn("field: unset request failed",
			zap.String("path", tr.Effect.Path.String()),
			zap.Error(err),
		)
		return tr, fmt.Errorf("field: request unset %s: %w", tr.Effect.Path, err)
	}
	return tr, nil
}
