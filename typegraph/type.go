package typegraph

// TypeID addresses a node of the graph arena.
type TypeID uint32

// NoType is the null type reference.
const NoType TypeID = 0

// IsValid returns true if the ID is not the null reference.
func (id TypeID) IsValid() bool { return id != NoType }

// Slots of the synthetic storage-tree node that backs every map.
// The key and data slots hold pointers to the key and value types.
const (
	MapNodeFieldLen   = 0
	MapNodeFieldKey   = 1
	MapNodeFieldData  = 2
	MapNodeFieldLeft  = 3
	MapNodeFieldRight = 4
)

// Reserved leading slots of interface and closure nodes.
const (
	InterfaceFieldSelf     = 0
	InterfaceFieldSelfType = 1
	InterfaceReservedSlots = 2

	ClosureFieldFn       = 0
	ClosureFieldUpvalues = 1
	ClosureUpvalueParam  = 0
)

// DebugInfo is the source position recorded for an identifier.
type DebugInfo struct {
	File string
	Fn   string
	Line int
}

// Ident is the declaring identifier of a named type.
type Ident struct {
	Name     string
	Module   string
	Exported bool
	Debug    DebugInfo
}

// Field is one slot of a struct, interface or closure node.
// Offset is assigned once by the graph producer and never recomputed here.
type Field struct {
	Name   string
	Type   TypeID
	Offset int64
}

// EnumConst is a named constant of an enumeration.
type EnumConst struct {
	Name  string
	Value int64
}

// Param is a declared parameter. Default is nil for required parameters.
type Param struct {
	Name    string
	Type    TypeID
	Default Const
}

// Signature describes a function type.
type Signature struct {
	Params           []Param
	Result           TypeID
	NumDefaultParams int
	IsMethod         bool
	OffsetFromSelf   int64 // for interface methods
}

// Payload is the kind-selected body of a node: Fields, EnumConsts or *Signature.
type Payload interface {
	isPayload()
}

type Fields []Field

type EnumConsts []EnumConst

func (Fields) isPayload()     {}
func (EnumConsts) isPayload() {}
func (*Signature) isPayload() {}

// Type is a node of the finalized graph. It must be treated as read-only.
type Type struct {
	Payload             Payload
	Ident               *Ident
	Base                TypeID
	NumItems            int
	Kind                Kind
	IsEnum              bool
	IsExprList          bool
	IsVariadicParamList bool
}

// Fields returns the field list of an aggregate node, or nil.
func (t *Type) Fields() []Field {
	if f, ok := t.Payload.(Fields); ok {
		return f
	}
	return nil
}

// EnumConsts returns the constants of an enum node, or nil.
func (t *Type) EnumConsts() []EnumConst {
	if c, ok := t.Payload.(EnumConsts); ok {
		return c
	}
	return nil
}

// Signature returns the signature of a function node, or nil.
func (t *Type) Signature() *Signature {
	if s, ok := t.Payload.(*Signature); ok {
		return s
	}
	return nil
}

// Name returns the declaring identifier's name, or "".
func (t *Type) Name() string {
	if t.Ident == nil {
		return ""
	}
	return t.Ident.Name
}
