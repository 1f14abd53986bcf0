package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formcond/pkg/form"
	"github.com/goliatone/go-formcond/pkg/patch"
	"github.com/goliatone/go-formcond/pkg/schema"
	"github.com/goliatone/go-formcond/pkg/valuepath"
	"github.com/goliatone/go-formcond/pkg/widgets"
)

// Session walks the visible scalar fields of a document and asks for a value
// for each one. The form is re-evaluated after every answer, so fields appear
// and disappear as the document changes and clear effects land on the working
// copy.
type Session struct {
	driver  PromptDriver
	eval    *form.Evaluator
	widgets *widgets.Registry
	logger  *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithDriver overrides the survey driver.
func WithDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithWidgets overrides the registry deciding which prompt a field gets.
func WithWidgets(reg *widgets.Registry) Option {
	return func(s *Session) {
		if reg != nil {
			s.widgets = reg
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a Session evaluating forms with eval.
func New(eval *form.Evaluator, options ...Option) (*Session, error) {
	if eval == nil {
		return nil, errors.New("prompt: evaluator is required")
	}
	s := &Session{
		eval:    eval,
		widgets: widgets.NewRegistry(),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver()
	}
	return s, nil
}

// Run edits a copy of doc and returns it. Each field instance is asked at
// most once; fields hidden at the time they would be asked are skipped.
func (s *Session) Run(ctx context.Context, typ schema.Type, doc map[string]any) (map[string]any, error) {
	working, err := patch.Apply(doc)
	if err != nil {
		return nil, err
	}
	fs := s.eval.NewSession(typ)
	asked := make(map[string]struct{})

	for {
		report, err := fs.Refresh(ctx, working)
		if err != nil {
			if !errors.Is(err, form.ErrHost) {
				return nil, err
			}
			s.logger.Warn("prompt: refresh reported host errors", zap.Error(err))
		}
		if cleared := report.Patches(); len(cleared) > 0 {
			if working, err = patch.Apply(working, cleared...); err != nil {
				return nil, err
			}
			for _, p := range cleared {
				s.logger.Debug("prompt: cleared hidden value", zap.String("path", p.Path.String()))
			}
		}

		entry, ok := next(report, asked)
		if !ok {
			return working, nil
		}
		asked[entry.Path.String()] = struct{}{}

		value, set, err := s.ask(ctx, entry, working)
		if err != nil {
			return nil, err
		}
		if !set {
			continue
		}
		if working, err = patch.Apply(working, patch.Set(entry.Path, value)); err != nil {
			return nil, err
		}
	}
}

func next(report form.Report, asked map[string]struct{}) (form.Entry, bool) {
	for _, e := range report.Entries {
		if !e.Shown() || e.Type.Container() {
			continue
		}
		if _, done := asked[e.Path.String()]; done {
			continue
		}
		return e, true
	}
	return form.Entry{}, false
}

func (s *Session) ask(ctx context.Context, entry form.Entry, doc map[string]any) (any, bool, error) {
	f := entry.Schema
	current, hasCurrent := valuepath.Lookup(doc, entry.Path)
	message := entry.Label
	help := f.Description
	if h := f.Metadata["cli.help"]; h != "" {
		help = h
	}

	widget := s.widgets.ResolveOr(f, widgets.WidgetInput)
	switch widget {
	case widgets.WidgetSelect:
		options := f.Choices()
		def := indexOf(options, fmt.Sprint(current))
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      options,
			DefaultIndex: def,
			Help:         help,
		})
		if err != nil || idx < 0 {
			return nil, false, err
		}
		return options[idx], true, nil

	case widgets.WidgetToggle:
		def, _ := current.(bool)
		resp, err := s.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: help})
		if err != nil {
			return nil, false, err
		}
		return resp, true, nil

	case widgets.WidgetNumber:
		def := ""
		if hasCurrent && current != nil {
			def = fmt.Sprint(current)
		}
		for {
			input, err := s.driver.Input(ctx, InputConfig{Message: message, Default: def, Help: help})
			if err != nil {
				return nil, false, err
			}
			input = strings.TrimSpace(input)
			if input == "" {
				return nil, false, nil
			}
			parsed, err := parseNumber(input, f.Type == schema.FieldTypeInteger)
			if err != nil {
				_ = s.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", entry.Path, err))
				continue
			}
			return parsed, true, nil
		}

	default:
		def, _ := current.(string)
		resp, err := s.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   def,
			Help:      help,
			Multiline: widget == widgets.WidgetTextarea,
		})
		if err != nil {
			return nil, false, err
		}
		if resp == "" && !hasCurrent {
			return nil, false, nil
		}
		return resp, true, nil
	}
}

func parseNumber(input string, integer bool) (any, error) {
	if integer {
		return strconv.ParseInt(input, 10, 64)
	}
	return strconv.ParseFloat(input, 64)
}
