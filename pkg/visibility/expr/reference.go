package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formcond/pkg/valuepath"
	"github.com/goliatone/go-formcond/pkg/visibility"
)

type scope int

const (
	scopeDocument scope = iota
	scopeParent
	scopeExtras
)

// reference is an identifier compiled into a scope plus a value path.
type reference struct {
	scope scope
	index int
	path  valuepath.Path
}

func parseReference(raw string) (reference, error) {
	head, rest, _ := strings.Cut(raw, ".")
	ref := reference{}
	switch head {
	case "document":
		ref.scope = scopeDocument
	case "parent":
		ref.scope = scopeParent
	case "extras":
		ref.scope = scopeExtras
	case "parents":
		ref.scope = scopeParent
		idx, tail, _ := strings.Cut(rest, ".")
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return reference{}, fmt.Errorf("visibility/expr: %q needs a non-negative ancestor index", raw)
		}
		ref.index = n
		rest = tail
	default:
		rest = raw
	}

	path, err := valuepath.Parse(rest)
	if err != nil {
		return reference{}, fmt.Errorf("visibility/expr: identifier %q: %w", raw, err)
	}
	ref.path = path
	return ref, nil
}

func (r reference) lookup(ctx visibility.Context) (any, bool) {
	var root any
	switch r.scope {
	case scopeParent:
		if r.index >= len(ctx.Parents) {
			return nil, false
		}
		root = ctx.Parents[r.index]
	case scopeExtras:
		if ctx.Extras == nil {
			return nil, false
		}
		root = ctx.Extras
	default:
		if ctx.Document == nil {
			return nil, false
		}
		root = ctx.Document
	}
	return valuepath.Lookup(root, r.path)
}
