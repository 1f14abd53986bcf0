package visibility

// Result is the normalized outcome consumed by field controllers.
type Result struct {
	Visible       bool `json:"visible"`
	ClearOnHidden bool `json:"clearOnHidden"`
}

// Default is the outcome used when no condition applies or a condition fails.
func Default() Result {
	return Result{Visible: true}
}

// Kind tags a Visibility value.
type Kind uint8

const (
	// Shown renders the field.
	Shown Kind = iota
	// Hidden collapses the field, optionally clearing its stored value.
	Hidden
)

func (k Kind) String() string {
	if k == Hidden {
		return "hidden"
	}
	return "shown"
}

// Visibility is what predicates return. ClearOnHidden only carries meaning for
// the Hidden kind.
type Visibility struct {
	Kind          Kind
	ClearOnHidden bool
}

// Show returns the Shown variant.
func Show() Visibility {
	return Visibility{Kind: Shown}
}

// Hide returns the Hidden variant.
func Hide(clearOnHidden bool) Visibility {
	return Visibility{Kind: Hidden, ClearOnHidden: clearOnHidden}
}

// FromHidden converts a plain boolean "hidden" answer.
func FromHidden(hidden bool) Visibility {
	if hidden {
		return Hide(false)
	}
	return Show()
}

// Result converts the variant into a Result.
func (v Visibility) Result() Result {
	if v.Kind == Hidden {
		return Result{Visible: false, ClearOnHidden: v.ClearOnHidden}
	}
	return Default()
}

// Normalize converts loosely typed predicate answers into a Visibility.
// Booleans mean "hidden". Mappings read `hidden` and `clearOnHidden`, where a
// missing or non-boolean `hidden` counts as false. Anything else is Shown.
func Normalize(value any) Visibility {
	switch v := value.(type) {
	case nil:
		return Show()
	case Visibility:
		return v
	case *Visibility:
		if v == nil {
			return Show()
		}
		return *v
	case Result:
		if v.Visible {
			return Show()
		}
		return Hide(v.ClearOnHidden)
	case bool:
		return FromHidden(v)
	case map[string]any:
		hidden, _ := v["hidden"].(bool)
		if !hidden {
			return Show()
		}
		clear, _ := v["clearOnHidden"].(bool)
		return Hide(clear)
	case map[string]bool:
		if !v["hidden"] {
			return Show()
		}
		return Hide(v["clearOnHidden"])
	default:
		return Show()
	}
}
