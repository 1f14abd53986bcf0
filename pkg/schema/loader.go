package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrDuplicateType is returned by LoadFS when two files define the same type.
var ErrDuplicateType = errors.New("schema: duplicate type")

// Load decodes a single type from r. JSON input is accepted as well since it
// is a subset of YAML.
func Load(r io.Reader) (Type, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Type{}, fmt.Errorf("schema: read: %w", err)
	}
	return parse(data, "<reader>")
}

// LoadFile reads a type from a YAML or JSON file.
func LoadFile(path string) (Type, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Type{}, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return parse(data, path)
}

// LoadFS walks fsys and parses every YAML/JSON schema file, keyed by type
// name.
func LoadFS(fsys fs.FS) (map[string]Type, error) {
	types := make(map[string]Type)
	if fsys == nil {
		return types, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		t, err := parse(data, path)
		if err != nil {
			return err
		}
		if _, exists := types[t.Name]; exists {
			return fmt.Errorf("%w: %q (file %s)", ErrDuplicateType, t.Name, path)
		}
		types[t.Name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return types, nil
}

// Names returns the sorted type names of a LoadFS result.
func Names(types map[string]Type) []string {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parse(data []byte, source string) (Type, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Type{}, fmt.Errorf("schema: %s is empty", source)
	}
	var t Type
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return Type{}, fmt.Errorf("schema: decode %s: %w", source, err)
	}
	if strings.TrimSpace(t.Name) == "" {
		return Type{}, fmt.Errorf("schema: %s defines a type without a name", source)
	}
	return t, nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
