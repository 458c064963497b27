package condition

import (
	"fmt"

	"github.com/joeycumines/go-htn/internal/htn"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// Match is a key/predicate condition, usable both as an htn.Condition and as a
// go-pabt condition. The predicate receives the fact's plain value (see
// htn.Variant.Interface), or nil if the fact is absent.
type Match struct {
	key   string
	match func(value any) bool
}

var (
	_ htn.Condition     = (*Match)(nil)
	_ pabtpkg.Condition = (*Match)(nil)
)

// NewMatch returns a condition testing the fact under key with match.
func NewMatch(key string, match func(value any) bool) *Match {
	return &Match{key: key, match: match}
}

// Equals matches when the fact under key equals want.
func Equals(key string, want htn.Variant) *Match {
	return NewMatch(key, func(value any) bool {
		got, err := htn.VariantOf(value)
		return err == nil && got.Equal(want)
	})
}

// Present matches when key holds any fact.
func Present(key string) *Match {
	return NewMatch(key, func(value any) bool { return value != nil })
}

// Absent matches when key holds no fact.
func Absent(key string) *Match {
	return NewMatch(key, func(value any) bool { return value == nil })
}

// IsTrue matches when key holds Bool(true).
func IsTrue(key string) *Match {
	return Equals(key, htn.BoolValue(true))
}

// Key implements pabt.Condition.Key.
func (c *Match) Key() any { return c.key }

// Match implements pabt.Condition.Match.
func (c *Match) Match(value any) bool {
	if c == nil || c.match == nil {
		return false
	}
	return c.match(value)
}

// IsValid implements htn.Condition.
func (c *Match) IsValid(ctx *htn.Context) bool {
	if c == nil {
		return false
	}
	return c.Match(lookup(ctx, c.key))
}

// Fact is a key/value effect, usable both as an htn.Effect and as a go-pabt
// effect.
type Fact struct {
	key   string
	value htn.Variant
}

var (
	_ htn.Effect     = (*Fact)(nil)
	_ pabtpkg.Effect = (*Fact)(nil)
)

// Set returns an effect storing value under key.
func Set(key string, value htn.Variant) *Fact {
	return &Fact{key: key, value: value}
}

// Key implements pabt.Effect.Key.
func (e *Fact) Key() any { return e.key }

// Value implements pabt.Effect.Value.
func (e *Fact) Value() any { return e.value.Interface() }

// Apply implements htn.Effect.
func (e *Fact) Apply(ctx *htn.Context) { ctx.Set(e.key, e.value) }

// Forget returns an effect removing the fact under key.
func Forget(key string) htn.EffectFunc {
	return func(ctx *htn.Context) { ctx.Remove(key) }
}

// FromPABT adapts a go-pabt condition to htn. The condition's key is
// normalized with KeyString and looked up in the fact store on every check.
func FromPABT(c pabtpkg.Condition) (htn.Condition, error) {
	if c == nil {
		return nil, fmt.Errorf("condition: nil pabt condition")
	}
	key, err := KeyString(c.Key())
	if err != nil {
		return nil, err
	}
	return htn.ConditionFunc(func(ctx *htn.Context) bool {
		return c.Match(lookup(ctx, key))
	}), nil
}

// AllFromPABT adapts a go-pabt condition group; the result holds when every
// member does, which is how go-pabt reads a group.
func AllFromPABT(group pabtpkg.IConditions) (htn.Condition, error) {
	adapted := make([]htn.Condition, 0, len(group))
	for _, c := range group {
		a, err := FromPABT(c)
		if err != nil {
			return nil, err
		}
		adapted = append(adapted, a)
	}
	return htn.ConditionFunc(func(ctx *htn.Context) bool {
		for _, c := range adapted {
			if !c.IsValid(ctx) {
				return false
			}
		}
		return true
	}), nil
}

// EffectFromPABT adapts a go-pabt effect to htn. Its value must convert with
// htn.VariantOf; a nil value removes the fact.
func EffectFromPABT(e pabtpkg.Effect) (htn.Effect, error) {
	if e == nil {
		return nil, fmt.Errorf("condition: nil pabt effect")
	}
	key, err := KeyString(e.Key())
	if err != nil {
		return nil, err
	}
	if e.Value() == nil {
		return Forget(key), nil
	}
	value, err := htn.VariantOf(e.Value())
	if err != nil {
		return nil, fmt.Errorf("condition: effect %q: %w", key, err)
	}
	return Set(key, value), nil
}

// EffectsFromPABT adapts every effect in order.
func EffectsFromPABT(effects pabtpkg.Effects) ([]htn.Effect, error) {
	out := make([]htn.Effect, 0, len(effects))
	for _, e := range effects {
		a, err := EffectFromPABT(e)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// KeyString normalizes a go-pabt variable key to a fact name. Strings pass
// through, numbers are formatted in decimal and fmt.Stringer values use their
// String method.
func KeyString(key any) (string, error) {
	switch k := key.(type) {
	case nil:
		return "", fmt.Errorf("condition: key cannot be nil")
	case string:
		return k, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", k), nil
	case float32, float64:
		return fmt.Sprintf("%f", k), nil
	case fmt.Stringer:
		return k.String(), nil
	default:
		return "", fmt.Errorf("condition: unsupported key type: %T", key)
	}
}

func lookup(ctx *htn.Context, key string) any {
	v, ok := ctx.Get(key)
	if !ok {
		return nil
	}
	return v.Interface()
}
