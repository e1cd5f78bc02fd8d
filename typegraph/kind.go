package typegraph

// Kind is the raw tag of a type node.
type Kind uint8

const (
	KindNone Kind = iota
	KindForward
	KindVoid
	KindNull
	KindInt8
	KindInt16
	KindInt32
	KindInt
	KindUint8
	KindUint16
	KindUint32
	KindUint
	KindBool
	KindChar
	KindReal32
	KindReal
	KindPtr
	KindWeakPtr
	KindArray
	KindDynArray
	KindStr
	KindMap
	KindStruct
	KindInterface
	KindClosure
	KindFiber
	KindFn
)

// spellings are the canonical names of anonymous types, indexed by Kind.
var spellings = [...]string{
	KindNone:      "none",
	KindForward:   "forward",
	KindVoid:      "void",
	KindNull:      "null",
	KindInt8:      "int8",
	KindInt16:     "int16",
	KindInt32:     "int32",
	KindInt:       "int",
	KindUint8:     "uint8",
	KindUint16:    "uint16",
	KindUint32:    "uint32",
	KindUint:      "uint",
	KindBool:      "bool",
	KindChar:      "char",
	KindReal32:    "real32",
	KindReal:      "real",
	KindPtr:       "^",
	KindWeakPtr:   "weak ^",
	KindArray:     "[...]",
	KindDynArray:  "[]",
	KindStr:       "str",
	KindMap:       "map",
	KindStruct:    "struct",
	KindInterface: "interface",
	KindClosure:   "fn |..|",
	KindFiber:     "fiber",
	KindFn:        "fn",
}

// String returns the canonical spelling of the kind.
func (k Kind) String() string {
	if int(k) < len(spellings) {
		return spellings[k]
	}
	return "unknown"
}

// KindByName resolves a canonical spelling of a builtin scalar kind.
func KindByName(name string) (Kind, bool) {
	for k, s := range spellings {
		if s == name && Kind(k).IsBuiltin() {
			return Kind(k), true
		}
	}
	return KindNone, false
}

// IsInteger reports the signed and unsigned integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUint
}

// IsSigned reports the signed integer kinds.
func (k Kind) IsSigned() bool {
	return k >= KindInt8 && k <= KindInt
}

// IsReal reports the floating point kinds.
func (k Kind) IsReal() bool {
	return k == KindReal32 || k == KindReal
}

// IsBuiltin reports kinds that need no base type or payload to be complete.
func (k Kind) IsBuiltin() bool {
	switch {
	case k == KindVoid, k == KindNull, k == KindStr, k == KindFiber:
		return true
	case k >= KindInt8 && k <= KindReal:
		return true
	default:
		return false
	}
}

// IsAggregate reports the kinds whose payload is an ordered field list.
func (k Kind) IsAggregate() bool {
	return k == KindStruct || k == KindInterface || k == KindClosure
}
