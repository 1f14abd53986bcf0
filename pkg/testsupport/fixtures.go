// Package testsupport exposes shared fixtures for package tests and examples.
package testsupport

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/goliatone/go-formcond/pkg/schema"
	"github.com/goliatone/go-formcond/pkg/visibility"
)

//go:embed fixtures/*
var fixtures embed.FS

// ArticleType loads the article schema fixture.
func ArticleType(t testing.TB) schema.Type {
	t.Helper()

	data, err := fixtures.ReadFile("fixtures/article.yaml")
	if err != nil {
		t.Fatalf("read article schema: %v", err)
	}
	typ, err := schema.Load(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("load article schema: %v", err)
	}
	return typ
}

// ArticleDocument decodes a fresh copy of the article document fixture.
func ArticleDocument(t testing.TB) map[string]any {
	t.Helper()

	doc, err := DecodeDocument("fixtures/article.json")
	if err != nil {
		t.Fatalf("%v", err)
	}
	return doc
}

// DecodeDocument reads a JSON document fixture by its embedded path.
func DecodeDocument(name string) (map[string]any, error) {
	data, err := fixtures.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read %s: %w", name, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("testsupport: decode %s: %w", name, err)
	}
	return doc, nil
}

// ArticleRegistry registers the predicates and conditions the article schema
// references.
func ArticleRegistry(t testing.TB) *schema.Registry {
	t.Helper()

	reg := schema.NewRegistry()
	notPromo := visibility.BoolPredicate(func(_ context.Context, c visibility.Context) (bool, error) {
		return c.Document["kind"] != "promo", nil
	})
	if err := reg.RegisterPredicate("notPromo", notPromo); err != nil {
		t.Fatalf("register predicate: %v", err)
	}
	isPublished := func(doc map[string]any) bool {
		published, _ := doc["published"].(bool)
		return published
	}
	if err := reg.RegisterCondition("isPublished", isPublished); err != nil {
		t.Fatalf("register condition: %v", err)
	}
	return reg
}
