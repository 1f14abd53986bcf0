package visibility

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formcond/pkg/valuepath"
)

// ErrNoRuleEvaluator is reported when a rule option is evaluated by an engine
// configured without a rule Evaluator.
var ErrNoRuleEvaluator = errors.New("visibility: no rule evaluator configured")

// Input bundles everything needed to decide one field's visibility.
type Input struct {
	Document  map[string]any
	Parents   []any
	Path      valuepath.Path
	Hide      HideOption
	Condition Condition
	Extras    map[string]any
}

// Engine evaluates hide options. It holds no per-field state, so repeated
// evaluation of the same input always yields the same Result.
type Engine struct {
	logger *zap.Logger
	rules  Evaluator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the sink for predicate diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRuleEvaluator sets the evaluator used for Rule options.
func WithRuleEvaluator(rules Evaluator) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// NewEngine constructs an Engine. Without options diagnostics are discarded
// and rule options fall back to the default result.
func NewEngine(options ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// Evaluate is a convenience wrapper around NewEngine(options...).Evaluate.
func Evaluate(ctx context.Context, in Input, options ...Option) Result {
	return NewEngine(options...).Evaluate(ctx, in)
}

// Evaluate decides visibility for in. Failures never propagate: a predicate
// or rule that errors, panics or is cancelled produces Default() and a
// warning on the engine's logger.
func (e *Engine) Evaluate(ctx context.Context, in Input) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	switch in.Hide.kind {
	case optionStatic:
		return FromHidden(in.Hide.hidden).Result()
	case optionFunc:
		v, err := e.await(ctx, in)
		if err != nil {
			e.report(in, err)
			return Default()
		}
		return v.Result()
	case optionRule:
		hidden, err := e.evalRule(in)
		if err != nil {
			e.report(in, err)
			return Default()
		}
		if !hidden {
			return Default()
		}
		return Hide(in.Hide.clearOnHidden).Result()
	}

	if in.Condition != nil {
		render, err := e.evalCondition(in)
		if err != nil {
			e.report(in, err)
			return Default()
		}
		return FromHidden(!render).Result()
	}
	return Default()
}

type outcome struct {
	v   Visibility
	err error
}

func (e *Engine) await(ctx context.Context, in Input) (Visibility, error) {
	if err := ctx.Err(); err != nil {
		return Show(), err
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{v: Show(), err: fmt.Errorf("visibility: predicate panicked: %v", r)}
			}
		}()
		v, err := in.Hide.predicate(ctx, e.context(in))
		done <- outcome{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return Show(), fmt.Errorf("visibility: predicate abandoned: %w", ctx.Err())
	case res := <-done:
		return res.v, res.err
	}
}

func (e *Engine) evalRule(in Input) (hidden bool, err error) {
	if e.rules == nil {
		return false, ErrNoRuleEvaluator
	}
	defer func() {
		if r := recover(); r != nil {
			hidden, err = false, fmt.Errorf("visibility: rule panicked: %v", r)
		}
	}()
	return e.rules.Eval(in.Path.String(), in.Hide.rule, e.context(in))
}

func (e *Engine) evalCondition(in Input) (render bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			render, err = true, fmt.Errorf("visibility: condition panicked: %v", r)
		}
	}()
	return in.Condition(in.Document), nil
}

func (e *Engine) context(in Input) Context {
	return Context{
		Document: in.Document,
		Parents:  in.Parents,
		Path:     in.Path,
		Extras:   in.Extras,
	}
}

func (e *Engine) report(in Input, err error) {
	e.logger.Warn("visibility: condition failed, keeping field visible",
		zap.String("path", in.Path.String()),
		zap.Stringer("hide", in.Hide),
		zap.Error(err),
	)
}
