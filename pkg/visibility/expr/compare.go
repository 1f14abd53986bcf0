package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formcond/pkg/visibility"
)

type literalKind int

const (
	litString literalKind = iota
	litNumber
	litBool
	litNull
)

type literal struct {
	kind literalKind
	raw  string
}

type exprCompare struct {
	ref     reference
	op      tokenKind
	literal literal
}

func (n exprCompare) eval(ctx visibility.Context) (bool, error) {
	value, ok := n.ref.lookup(ctx)
	if !ok {
		value = nil
	}

	switch n.literal.kind {
	case litNull:
		return n.equality(value == nil)
	case litBool:
		got, _ := coerceBool(value)
		return n.equality(got == (n.literal.raw == "true"))
	case litString:
		return n.equality(coerceString(value) == n.literal.raw)
	case litNumber:
		want, err := strconv.ParseFloat(n.literal.raw, 64)
		if err != nil {
			return false, fmt.Errorf("visibility/expr: invalid number literal %q", n.literal.raw)
		}
		got, ok := coerceNumber(value)
		if !ok {
			got = 0
		}
		switch n.op {
		case tokenEq:
			return got == want, nil
		case tokenNeq:
			return got != want, nil
		case tokenLt:
			return got < want, nil
		case tokenLte:
			return got <= want, nil
		case tokenGt:
			return got > want, nil
		case tokenGte:
			return got >= want, nil
		}
	}
	return false, fmt.Errorf("visibility/expr: unsupported operator %q", opString(n.op))
}

func (n exprCompare) equality(equal bool) (bool, error) {
	switch n.op {
	case tokenEq:
		return equal, nil
	case tokenNeq:
		return !equal, nil
	default:
		return false, fmt.Errorf("visibility/expr: unsupported operator %q", opString(n.op))
	}
}

func opString(op tokenKind) string {
	switch op {
	case tokenEq:
		return "=="
	case tokenNeq:
		return "!="
	case tokenLt:
		return "<"
	case tokenLte:
		return "<="
	case tokenGt:
		return ">"
	case tokenGte:
		return ">="
	default:
		return "?"
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed, true
		}
		return strings.TrimSpace(v) != "", true
	default:
		return truthy(value), true
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case []any:
		// Sequences compare by length so `tags > 2` reads naturally.
		return float64(len(v)), true
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
