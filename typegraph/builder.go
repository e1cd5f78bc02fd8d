package typegraph

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/typerefl/errors"
)

// unassigned marks a field whose offset the builder computes during Build.
const unassigned int64 = -1

// FieldSpec declares an aggregate field.
type FieldSpec struct {
	Name   string
	Type   TypeID
	Offset int64
}

// F declares a field whose offset is assigned by Build.
func F(name string, t TypeID) FieldSpec {
	return FieldSpec{Name: name, Type: t, Offset: unassigned}
}

// FAt declares a field at an offset recorded by an external producer.
func FAt(name string, t TypeID, offset int64) FieldSpec {
	return FieldSpec{Name: name, Type: t, Offset: offset}
}

// C declares an enum constant.
func C(name string, value int64) EnumConst {
	return EnumConst{Name: name, Value: value}
}

// P declares a required parameter.
func P(name string, t TypeID) Param {
	return Param{Name: name, Type: t}
}

// PDefault declares a parameter with a default value.
func PDefault(name string, t TypeID, def Const) Param {
	return Param{Name: name, Type: t, Default: def}
}

// Method declares an interface method.
type Method struct {
	Name   string
	Params []Param
	Result TypeID
}

// M declares an interface method.
func M(name string, result TypeID, params ...Param) Method {
	return Method{Name: name, Params: params, Result: result}
}

// Builder assembles a type graph. It plays the role of the compiler: it is the
// only place that creates nodes and records field offsets. A Builder is not
// safe for concurrent use and cannot be reused after Build.
type Builder struct {
	err     error
	scalars map[Kind]TypeID
	types   []Type
	anyType TypeID
	built   bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		types:   make([]Type, 1, 64),
		scalars: make(map[Kind]TypeID),
	}
}

func (b *Builder) fail(kind errors.Kind, format string, args ...any) TypeID {
	if b.err == nil {
		b.err = errors.New(errors.PhaseBuild, kind).Detail(format, args...).Build()
	}
	return NoType
}

func (b *Builder) add(t Type) TypeID {
	if b.built {
		return b.fail(errors.KindInvalidInput, "builder already finalized")
	}
	b.types = append(b.types, t)
	return TypeID(len(b.types) - 1)
}

func (b *Builder) check(ids ...TypeID) bool {
	for _, id := range ids {
		if id == NoType || int(id) >= len(b.types) {
			b.fail(errors.KindInvalidHandle, "type reference %d is not part of the graph", id)
			return false
		}
	}
	return true
}

func ident(name string) *Ident {
	if name == "" {
		return nil
	}
	return &Ident{Name: name}
}

// Scalar returns the shared node of a builtin kind.
func (b *Builder) Scalar(k Kind) TypeID {
	if !k.IsBuiltin() {
		return b.fail(errors.KindInvalidInput, "%s is not a builtin kind", k)
	}
	if id, ok := b.scalars[k]; ok {
		return id
	}
	id := b.add(Type{Kind: k})
	b.scalars[k] = id
	return id
}

// Pointer returns a new strong pointer to base.
func (b *Builder) Pointer(base TypeID) TypeID {
	if !b.check(base) {
		return NoType
	}
	return b.add(Type{Kind: KindPtr, Base: base})
}

// WeakPointer returns a new weak pointer to base.
func (b *Builder) WeakPointer(base TypeID) TypeID {
	if !b.check(base) {
		return NoType
	}
	return b.add(Type{Kind: KindWeakPtr, Base: base})
}

// Array returns a fixed array of n elements.
func (b *Builder) Array(elem TypeID, n int) TypeID {
	if !b.check(elem) {
		return NoType
	}
	if n < 0 {
		return b.fail(errors.KindInvalidInput, "negative array length %d", n)
	}
	return b.add(Type{Kind: KindArray, Base: elem, NumItems: n})
}

// DynArray returns a dynamic array of elem.
func (b *Builder) DynArray(elem TypeID) TypeID {
	if !b.check(elem) {
		return NoType
	}
	return b.add(Type{Kind: KindDynArray, Base: elem})
}

// Variadic returns the dynamic array type of a variadic parameter list.
func (b *Builder) Variadic(elem TypeID) TypeID {
	if !b.check(elem) {
		return NoType
	}
	return b.add(Type{Kind: KindDynArray, Base: elem, IsVariadicParamList: true})
}

// Map returns a map type together with its synthetic storage-tree node.
func (b *Builder) Map(key, value TypeID) TypeID {
	if !b.check(key, value) {
		return NoType
	}
	node := b.add(Type{Kind: KindForward})
	nodePtr := b.Pointer(node)
	fields := Fields{
		MapNodeFieldLen:   {Name: "len", Type: b.Scalar(KindInt), Offset: unassigned},
		MapNodeFieldKey:   {Name: "key", Type: b.Pointer(key), Offset: unassigned},
		MapNodeFieldData:  {Name: "data", Type: b.Pointer(value), Offset: unassigned},
		MapNodeFieldLeft:  {Name: "left", Type: nodePtr, Offset: unassigned},
		MapNodeFieldRight: {Name: "right", Type: nodePtr, Offset: unassigned},
	}
	if b.err != nil {
		return NoType
	}
	b.types[node] = Type{Kind: KindStruct, NumItems: len(fields), Payload: fields}
	return b.add(Type{Kind: KindMap, Base: node})
}

// Enum returns an enumeration stored as the integer kind k.
func (b *Builder) Enum(name string, k Kind, consts ...EnumConst) TypeID {
	if !k.IsInteger() {
		return b.fail(errors.KindInvalidInput, "enum %q must have an integer kind, got %s", name, k)
	}
	c := make(EnumConsts, len(consts))
	copy(c, consts)
	return b.add(Type{
		Kind:     k,
		IsEnum:   true,
		NumItems: len(c),
		Ident:    ident(name),
		Payload:  c,
	})
}

func (b *Builder) fields(specs []FieldSpec) Fields {
	f := make(Fields, len(specs))
	for i, s := range specs {
		if !b.check(s.Type) {
			return nil
		}
		f[i] = Field(s)
	}
	return f
}

// Struct returns a structure with the given fields. An empty name declares an
// anonymous structure.
func (b *Builder) Struct(name string, specs ...FieldSpec) TypeID {
	f := b.fields(specs)
	if b.err != nil {
		return NoType
	}
	return b.add(Type{Kind: KindStruct, NumItems: len(f), Ident: ident(name), Payload: f})
}

// ExprList returns the structure that carries a multi-value expression list.
func (b *Builder) ExprList(items ...TypeID) TypeID {
	specs := make([]FieldSpec, len(items))
	for i, it := range items {
		specs[i] = F("item"+strconv.Itoa(i), it)
	}
	f := b.fields(specs)
	if b.err != nil {
		return NoType
	}
	return b.add(Type{Kind: KindStruct, NumItems: len(f), IsExprList: true, Payload: f})
}

func (b *Builder) reservedInterfaceFields() Fields {
	voidPtr := b.Pointer(b.Scalar(KindVoid))
	return Fields{
		InterfaceFieldSelf:     {Name: "__self", Type: voidPtr, Offset: unassigned},
		InterfaceFieldSelfType: {Name: "__selftype", Type: voidPtr, Offset: unassigned},
	}
}

// Any returns the shared empty interface.
func (b *Builder) Any() TypeID {
	if b.anyType != NoType {
		return b.anyType
	}
	f := b.reservedInterfaceFields()
	b.anyType = b.add(Type{Kind: KindInterface, NumItems: len(f), Payload: f})
	return b.anyType
}

// Interface returns an interface type. Every method becomes a function-typed
// slot after the two reserved self slots.
func (b *Builder) Interface(name string, methods ...Method) TypeID {
	f := b.reservedInterfaceFields()
	for _, m := range methods {
		fn := b.fn(m.Params, m.Result, true)
		f = append(f, Field{Name: m.Name, Type: fn, Offset: unassigned})
	}
	if b.err != nil {
		return NoType
	}
	return b.add(Type{Kind: KindInterface, NumItems: len(f), Ident: ident(name), Payload: f})
}

func (b *Builder) fn(params []Param, result TypeID, isMethod bool) TypeID {
	if result == NoType {
		result = b.Scalar(KindVoid)
	}
	if !b.check(result) {
		return NoType
	}
	sig := &Signature{
		Params:   make([]Param, len(params)),
		Result:   result,
		IsMethod: isMethod,
	}
	for i, p := range params {
		if !b.check(p.Type) {
			return NoType
		}
		sig.Params[i] = p
	}
	for i := len(sig.Params) - 1; i >= 0 && sig.Params[i].Default != nil; i-- {
		sig.NumDefaultParams++
	}
	return b.add(Type{Kind: KindFn, Payload: sig})
}

// Func returns a bare function type. A NoType result means void.
func (b *Builder) Func(result TypeID, params ...Param) TypeID {
	return b.fn(params, result, false)
}

// MethodFunc returns a function type flagged as a method.
func (b *Builder) MethodFunc(result TypeID, params ...Param) TypeID {
	return b.fn(params, result, true)
}

// Closure returns a closure type. Its underlying function receives the
// captured upvalues as an implicit leading parameter.
func (b *Builder) Closure(result TypeID, params ...Param) TypeID {
	anyT := b.Any()
	all := make([]Param, 0, len(params)+1)
	all = append(all, Param{Name: "__upvalues", Type: anyT})
	all = append(all, params...)
	fn := b.fn(all, result, false)
	if b.err != nil {
		return NoType
	}
	f := Fields{
		ClosureFieldFn:       {Name: "__fn", Type: fn, Offset: unassigned},
		ClosureFieldUpvalues: {Name: "__upvalues", Type: anyT, Offset: unassigned},
	}
	return b.add(Type{Kind: KindClosure, NumItems: len(f), Payload: f})
}

// Declare creates a named placeholder that Define later completes. It allows
// recursive shapes such as a struct holding a pointer to itself.
func (b *Builder) Declare(name string) TypeID {
	return b.add(Type{Kind: KindForward, Ident: ident(name)})
}

// Define completes a declared placeholder with the shape of src, keeping the
// placeholder's identifier.
func (b *Builder) Define(fwd, src TypeID) TypeID {
	if !b.check(fwd, src) {
		return NoType
	}
	if b.types[fwd].Kind != KindForward {
		return b.fail(errors.KindInvalidInput, "type %d is already defined", fwd)
	}
	t := b.types[src]
	if t.Kind == KindForward {
		return b.fail(errors.KindInvalidInput, "type %d is defined by an undefined type", fwd)
	}
	t.Ident = b.types[fwd].Ident
	t.Payload = clonePayload(t.Payload)
	b.types[fwd] = t
	return fwd
}

// Name returns a copy of t declared under name.
func (b *Builder) Name(t TypeID, name string) TypeID {
	if !b.check(t) {
		return NoType
	}
	fwd := b.Declare(name)
	return b.Define(fwd, t)
}

// Locate records the declaration site of a named type.
func (b *Builder) Locate(t TypeID, module string, dbg DebugInfo) TypeID {
	if !b.check(t) {
		return NoType
	}
	id := b.types[t].Ident
	if id == nil {
		return b.fail(errors.KindInvalidInput, "type %d has no identifier to locate", t)
	}
	id.Module = module
	id.Debug = dbg
	return t
}

// Export marks the identifier of a named type as exported.
func (b *Builder) Export(t TypeID) TypeID {
	if !b.check(t) {
		return NoType
	}
	if id := b.types[t].Ident; id != nil {
		id.Exported = true
	}
	return t
}

func clonePayload(p Payload) Payload {
	switch v := p.(type) {
	case Fields:
		c := make(Fields, len(v))
		copy(c, v)
		return c
	case EnumConsts:
		c := make(EnumConsts, len(v))
		copy(c, v)
		return c
	case *Signature:
		s := *v
		s.Params = append([]Param(nil), v.Params...)
		return &s
	default:
		return p
	}
}

// Build finalizes the graph: it rejects unresolved declarations and by-value
// cycles, then records every unassigned field offset.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built {
		return nil, errors.InvalidInput(errors.PhaseBuild, "builder already finalized")
	}

	for i := 1; i < len(b.types); i++ {
		if b.types[i].Kind == KindForward {
			return nil, errors.New(errors.PhaseBuild, errors.KindInvalidInput).
				TypeName(b.types[i].Name()).
				Detail("type %d declared but never defined", i).
				Build()
		}
	}

	p := newPacker(b.types)
	for i := 1; i < len(b.types); i++ {
		if err := p.assign(TypeID(i)); err != nil {
			return nil, err
		}
	}

	for i := 1; i < len(b.types); i++ {
		t := &b.types[i]
		if t.Kind != KindInterface {
			continue
		}
		fields := t.Fields()
		for j := InterfaceReservedSlots; j < len(fields); j++ {
			if sig := b.types[fields[j].Type].Signature(); sig != nil {
				sig.OffsetFromSelf = fields[j].Offset
			}
		}
	}

	g := &Graph{types: b.types, byName: make(map[string]TypeID)}
	for i := 1; i < len(b.types); i++ {
		name := b.types[i].Name()
		if name == "" {
			continue
		}
		if _, dup := g.byName[name]; !dup {
			g.byName[name] = TypeID(i)
		}
	}

	b.built = true
	Logger().Debug("type graph built", zap.Int("types", g.Len()))
	return g, nil
}
