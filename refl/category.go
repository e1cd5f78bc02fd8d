package refl

import "github.com/wippyai/typerefl/typegraph"

// Category is the reflection category of a type node.
type Category uint8

const (
	Invalid Category = iota
	Other
	Enum
	Struct
	Closure
	Interface
	Pointer
	FixedArray
	DynamicArray
	Map
)

var categoryNames = [...]string{
	Invalid:      "invalid",
	Other:        "other",
	Enum:         "enum",
	Struct:       "struct",
	Closure:      "closure",
	Interface:    "interface",
	Pointer:      "pointer",
	FixedArray:   "fixed array",
	DynamicArray: "dynamic array",
	Map:          "map",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Classify maps a node to its category. The order of the checks matters:
// enums are stored as integer kinds, so the flag wins over the raw kind.
func Classify(t *typegraph.Type) Category {
	switch {
	case t == nil:
		return Invalid
	case t.IsEnum:
		return Enum
	}

	switch t.Kind {
	case typegraph.KindStruct:
		return Struct
	case typegraph.KindFn, typegraph.KindClosure:
		return Closure
	case typegraph.KindInterface:
		return Interface
	case typegraph.KindPtr, typegraph.KindWeakPtr:
		return Pointer
	case typegraph.KindArray:
		return FixedArray
	case typegraph.KindDynArray:
		return DynamicArray
	case typegraph.KindMap:
		return Map
	default:
		return Other
	}
}
