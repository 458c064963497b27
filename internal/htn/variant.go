package htn

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Entity is an opaque reference to a host-side entity (e.g. an ECS entity id).
type Entity uint64

// VariantKind identifies which value a Variant holds.
type VariantKind uint8

const (
	// KindInvalid is the zero Variant. It is never stored by a well-formed host.
	KindInvalid VariantKind = iota
	KindEntity
	KindEntities
	KindLocation
	KindBool
	KindInt32
)

// String returns the lower-case name of the kind.
func (k VariantKind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindEntities:
		return "entities"
	case KindLocation:
		return "location"
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	default:
		return "invalid"
	}
}

// Variant is one fact value: an entity, a list of entities, an opaque location
// marker, a bool or an int32. Use Equal to compare variants; the entity list
// makes the struct unsuitable for ==.
type Variant struct {
	kind     VariantKind
	entity   Entity
	entities []Entity
	b        bool
	i        int32
}

// EntityValue wraps a single entity reference.
func EntityValue(e Entity) Variant {
	return Variant{kind: KindEntity, entity: e}
}

// EntitiesValue wraps a list of entity references. The slice is copied.
func EntitiesValue(es ...Entity) Variant {
	return Variant{kind: KindEntities, entities: slices.Clone(es)}
}

// LocationValue returns the location marker.
func LocationValue() Variant {
	return Variant{kind: KindLocation}
}

// BoolValue wraps a bool.
func BoolValue(b bool) Variant {
	return Variant{kind: KindBool, b: b}
}

// Int32Value wraps an int32.
func Int32Value(i int32) Variant {
	return Variant{kind: KindInt32, i: i}
}

// Kind reports which value the variant holds.
func (v Variant) Kind() VariantKind { return v.kind }

// Entity returns the wrapped entity, if the variant holds one.
func (v Variant) Entity() (Entity, bool) {
	return v.entity, v.kind == KindEntity
}

// Entities returns a copy of the wrapped entity list, if the variant holds one.
func (v Variant) Entities() ([]Entity, bool) {
	if v.kind != KindEntities {
		return nil, false
	}
	return slices.Clone(v.entities), true
}

// Bool returns the wrapped bool, if the variant holds one.
func (v Variant) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Int32 returns the wrapped int32, if the variant holds one.
func (v Variant) Int32() (int32, bool) {
	return v.i, v.kind == KindInt32
}

// Equal reports whether both variants have the same kind and value.
func (v Variant) Equal(other Variant) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindEntity:
		return v.entity == other.entity
	case KindEntities:
		return slices.Equal(v.entities, other.entities)
	case KindBool:
		return v.b == other.b
	case KindInt32:
		return v.i == other.i
	default:
		return true
	}
}

// Interface converts the variant to a plain Go value, for expression engines
// and other code that works on untyped values. Entities become uint64 (or
// []uint64), the location marker becomes the string "location" and the zero
// Variant becomes nil.
func (v Variant) Interface() any {
	switch v.kind {
	case KindEntity:
		return uint64(v.entity)
	case KindEntities:
		out := make([]uint64, len(v.entities))
		for i, e := range v.entities {
			out[i] = uint64(e)
		}
		return out
	case KindLocation:
		return "location"
	case KindBool:
		return v.b
	case KindInt32:
		return v.i
	default:
		return nil
	}
}

// String implements fmt.Stringer.
func (v Variant) String() string {
	switch v.kind {
	case KindEntity:
		return "Entity(" + strconv.FormatUint(uint64(v.entity), 10) + ")"
	case KindEntities:
		parts := make([]string, len(v.entities))
		for i, e := range v.entities {
			parts[i] = strconv.FormatUint(uint64(e), 10)
		}
		return "Entities[" + strings.Join(parts, ",") + "]"
	case KindLocation:
		return "Location"
	case KindBool:
		return "Bool(" + strconv.FormatBool(v.b) + ")"
	case KindInt32:
		return "Int32(" + strconv.FormatInt(int64(v.i), 10) + ")"
	default:
		return "Invalid"
	}
}

// VariantOf converts a plain Go value into a Variant. Integers must fit in an
// int32. A Variant passes through unchanged.
func VariantOf(value any) (Variant, error) {
	switch v := value.(type) {
	case Variant:
		return v, nil
	case bool:
		return BoolValue(v), nil
	case Entity:
		return EntityValue(v), nil
	case []Entity:
		return EntitiesValue(v...), nil
	case uint64:
		// mirrors Interface, which exposes entities as uint64
		return EntityValue(Entity(v)), nil
	case []uint64:
		es := make([]Entity, len(v))
		for i, e := range v {
			es[i] = Entity(e)
		}
		return Variant{kind: KindEntities, entities: es}, nil
	case int32:
		return Int32Value(v), nil
	case int:
		return int32Of(int64(v))
	case int8:
		return Int32Value(int32(v)), nil
	case int16:
		return Int32Value(int32(v)), nil
	case int64:
		return int32Of(v)
	case uint8:
		return Int32Value(int32(v)), nil
	case uint16:
		return Int32Value(int32(v)), nil
	case uint32:
		if v > 1<<31-1 {
			return Variant{}, fmt.Errorf("htn: value %d overflows int32", v)
		}
		return Int32Value(int32(v)), nil
	case float64:
		// expr-lang arithmetic yields float64 for division; accept integral values.
		if v != float64(int64(v)) {
			return Variant{}, fmt.Errorf("htn: non-integral number %v", v)
		}
		return int32Of(int64(v))
	case string:
		if v == "location" {
			return LocationValue(), nil
		}
		return Variant{}, fmt.Errorf("htn: unsupported string fact %q", v)
	default:
		return Variant{}, fmt.Errorf("htn: unsupported fact type %T", value)
	}
}

func int32Of(v int64) (Variant, error) {
	if v < -1<<31 || v > 1<<31-1 {
		return Variant{}, fmt.Errorf("htn: value %d overflows int32", v)
	}
	return Int32Value(int32(v)), nil
}
