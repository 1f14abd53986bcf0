package field

// State is the lifecycle position of a field instance.
type State uint8

const (
	Unevaluated State = iota
	Evaluating
	Visible
	Hidden
)

func (s State) String() string {
	switch s {
	case Evaluating:
		return "evaluating"
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	default:
		return "unevaluated"
	}
}

// MarshalText encodes the state name for JSON reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EffectKind identifies a side effect a transition asks the host to perform.
type EffectKind uint8

const (
	EffectNone EffectKind = iota
	EffectUnset
)

func (k EffectKind) String() string {
	if k == EffectUnset {
		return "unset"
	}
	return "none"
}

// MarshalText encodes the effect name for JSON reports.
func (k EffectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
