package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"go.uber.org/zap"

	formcond "github.com/goliatone/go-formcond"
	"github.com/goliatone/go-formcond/pkg/prompt"
	"github.com/goliatone/go-formcond/pkg/schema"
)

func main() {
	schemaPath := flag.String("schema", "", "document type file (YAML or JSON)")
	documentPath := flag.String("document", "", "document JSON file (empty document if unset)")
	mode := flag.String("mode", "report", "output mode: report, html or interactive")
	apply := flag.Bool("apply", false, "in report mode, print the document with hidden values cleared")
	output := flag.String("output", "", "output file (stdout if empty)")
	errorsPath := flag.String("errors", "", "server error payload JSON (path -> messages) shown next to fields")
	verbose := flag.Bool("verbose", false, "log evaluation diagnostics")
	flag.Parse()

	if *schemaPath == "" {
		log.Fatal("missing -schema")
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	typ, err := schema.LoadFile(*schemaPath)
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}
	doc, err := loadDocument(*documentPath)
	if err != nil {
		log.Fatalf("Failed to load document: %v", err)
	}

	fc := formcond.New(formcond.WithLogger(logger))
	if err := fc.Validate(typ); err != nil {
		log.Fatalf("Invalid schema: %v", err)
	}
	for _, msg := range schema.Deprecations(typ) {
		logger.Warn(msg)
	}

	opts, err := renderOptions(ctx, fc, typ, doc, *errorsPath)
	if err != nil {
		log.Fatalf("Failed to load errors: %v", err)
	}

	var out []byte
	switch *mode {
	case "report":
		if *apply {
			out, err = cleaned(ctx, fc, typ, doc)
		} else {
			out, err = fc.Render(ctx, "json", typ, doc, opts)
		}
	case "html":
		out, err = fc.RenderHTML(ctx, typ, doc, opts)
	case "interactive":
		out, err = interactive(ctx, fc, typ, doc, logger)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatalf("Failed to run %s: %v", *mode, err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Output written to %s\n", *output)
		return
	}
	fmt.Println(string(out))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadDocument(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

func cleaned(ctx context.Context, fc *formcond.Formcond, typ schema.Type, doc map[string]any) ([]byte, error) {
	out, _, err := fc.Clean(ctx, typ, doc)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(out, "", "  ")
}

func renderOptions(ctx context.Context, fc *formcond.Formcond, typ schema.Type, doc map[string]any, path string) (formcond.RenderOptions, error) {
	var opts formcond.RenderOptions
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	var payload map[string][]string
	if err := json.Unmarshal(data, &payload); err != nil {
		return opts, fmt.Errorf("decode %s: %w", path, err)
	}
	mapping, err := fc.MapErrors(ctx, typ, doc, payload)
	if err != nil {
		return opts, err
	}
	opts.Markers = mapping.Markers
	opts.FormErrors = mapping.Form
	return opts, nil
}

func interactive(ctx context.Context, fc *formcond.Formcond, typ schema.Type, doc map[string]any, logger *zap.Logger) ([]byte, error) {
	session, err := prompt.New(fc.Evaluator(), prompt.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	edited, err := session.Run(ctx, typ, doc)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(edited, "", "  ")
}
