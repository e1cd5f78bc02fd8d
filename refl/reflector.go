package refl

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/layout"
	"github.com/wippyai/typerefl/typegraph"
)

// Sentinels returned by lookups that miss.
const (
	UnknownName   = "?"
	UnknownOffset = int64(-1)
)

// NamedType is a (name, type) pair: a struct field, a parameter or a method.
type NamedType struct {
	Name string
	Type typegraph.TypeID
}

// Variant is a declared enum constant.
type Variant struct {
	Name  string
	Value int64
}

// Location is the declaration site of a named type.
type Location struct {
	File string
	Line int
}

// Reflector answers queries about one finalized graph. Queries never modify
// the graph and every returned slice is freshly allocated.
type Reflector struct {
	graph  *typegraph.Graph
	layout *layout.Calculator
}

// New creates a reflector over g.
func New(g *typegraph.Graph) *Reflector {
	return &Reflector{graph: g, layout: layout.NewCalculator(g)}
}

// Graph returns the graph under reflection.
func (r *Reflector) Graph() *typegraph.Graph {
	return r.graph
}

// Types returns every type reference of the graph in creation order.
func (r *Reflector) Types() []typegraph.TypeID {
	return r.graph.IDs()
}

// Kind returns the reflection category of t.
func (r *Reflector) Kind(t typegraph.TypeID) Category {
	return Classify(r.graph.Type(t))
}

// Name returns the declared name of t, or a canonical spelling of its kind.
// Anonymous enums are spelled "enum".
func (r *Reflector) Name(t typegraph.TypeID) string {
	typ := r.graph.Type(t)
	switch {
	case typ == nil:
		return Invalid.String()
	case typ.Ident != nil:
		return typ.Ident.Name
	case typ.IsEnum:
		return Enum.String()
	default:
		return typ.Kind.String()
	}
}

// DeclarationLocation returns where t was declared, or ("?", 0) when t has
// no declaring identifier or the identifier carries no source position.
func (r *Reflector) DeclarationLocation(t typegraph.TypeID) Location {
	typ := r.graph.Type(t)
	if typ == nil || typ.Ident == nil || typ.Ident.Debug.File == "" {
		return Location{File: UnknownName}
	}
	return Location{File: typ.Ident.Debug.File, Line: typ.Ident.Debug.Line}
}

// Size returns the byte size of t, or -1 if t has no in-memory form.
func (r *Reflector) Size(t typegraph.TypeID) int64 {
	return r.layout.Size(t)
}

// Alignment returns the alignment of t, or -1 if t has no in-memory form.
func (r *Reflector) Alignment(t typegraph.TypeID) int64 {
	return r.layout.Alignment(t)
}

// FieldOffset returns the recorded offset of the named field, or -1.
func (r *Reflector) FieldOffset(t typegraph.TypeID, field string) (int64, error) {
	typ, err := r.expect("fieldOffset", t, Struct)
	if err != nil {
		return UnknownOffset, err
	}
	for _, f := range typ.Fields() {
		if f.Name == field {
			return f.Offset, nil
		}
	}
	return UnknownOffset, nil
}

// EnumVariantName returns the first declared constant equal to value, or "?".
func (r *Reflector) EnumVariantName(t typegraph.TypeID, value int64) (string, error) {
	typ, err := r.expect("enumVariantName", t, Enum)
	if err != nil {
		return UnknownName, err
	}
	for _, c := range typ.EnumConsts() {
		if c.Value == value {
			return c.Name, nil
		}
	}
	return UnknownName, nil
}

// EnumVariants returns the constants of an enum in declaration order.
func (r *Reflector) EnumVariants(t typegraph.TypeID) ([]Variant, error) {
	typ, err := r.expect("enumVariants", t, Enum)
	if err != nil {
		return nil, err
	}
	consts := typ.EnumConsts()
	out := make([]Variant, len(consts))
	for i, c := range consts {
		out[i] = Variant{Name: c.Name, Value: c.Value}
	}
	return out, nil
}

// EnumBaseKind returns the integer kind an enum is stored as.
func (r *Reflector) EnumBaseKind(t typegraph.TypeID) (typegraph.Kind, error) {
	typ, err := r.expect("enumBaseKind", t, Enum)
	if err != nil {
		return typegraph.KindNone, err
	}
	return typ.Kind, nil
}

// StructFields returns the fields of a struct in declaration order.
func (r *Reflector) StructFields(t typegraph.TypeID) ([]NamedType, error) {
	typ, err := r.expect("structFields", t, Struct)
	if err != nil {
		return nil, err
	}
	return namedFields(typ.Fields()), nil
}

// ClosureReturnType returns the result type of a closure or function.
func (r *Reflector) ClosureReturnType(t typegraph.TypeID) (typegraph.TypeID, error) {
	sig, _, err := r.signature("closureReturnType", t)
	if err != nil {
		return typegraph.NoType, err
	}
	return sig.Result, nil
}

// ClosureParams returns the declared parameters of a closure or function.
// For a closure the implicit upvalue parameter is not reported.
func (r *Reflector) ClosureParams(t typegraph.TypeID) ([]NamedType, error) {
	sig, captured, err := r.signature("closureParams", t)
	if err != nil {
		return nil, err
	}
	params := sig.Params
	if captured && len(params) > 0 {
		params = params[typegraph.ClosureUpvalueParam+1:]
	}
	out := make([]NamedType, len(params))
	for i, p := range params {
		out[i] = NamedType{Name: p.Name, Type: p.Type}
	}
	return out, nil
}

// ClosureDefaultParams returns how many trailing parameters have defaults.
func (r *Reflector) ClosureDefaultParams(t typegraph.TypeID) (int, error) {
	sig, _, err := r.signature("closureDefaultParams", t)
	if err != nil {
		return 0, err
	}
	return sig.NumDefaultParams, nil
}

// ClosureIsMethod reports whether the underlying function is a method.
func (r *Reflector) ClosureIsMethod(t typegraph.TypeID) (bool, error) {
	sig, _, err := r.signature("closureIsMethod", t)
	if err != nil {
		return false, err
	}
	return sig.IsMethod, nil
}

// ClosureHasUpvalues reports whether t carries captured state, which is
// the case for closures but not for bare function values.
func (r *Reflector) ClosureHasUpvalues(t typegraph.TypeID) (bool, error) {
	typ, err := r.expect("closureHasUpvalues", t, Closure)
	if err != nil {
		return false, err
	}
	return typ.Kind == typegraph.KindClosure, nil
}

// InterfaceMethods returns the method slots of an interface. The reserved
// self and self-type slots are never included.
func (r *Reflector) InterfaceMethods(t typegraph.TypeID) ([]NamedType, error) {
	typ, err := r.expect("interfaceMethods", t, Interface)
	if err != nil {
		return nil, err
	}
	fields := typ.Fields()
	if len(fields) <= typegraph.InterfaceReservedSlots {
		return []NamedType{}, nil
	}
	return namedFields(fields[typegraph.InterfaceReservedSlots:]), nil
}

// UnderlyingType returns the element type of a pointer or array, or the
// value type of a map.
func (r *Reflector) UnderlyingType(t typegraph.TypeID) (typegraph.TypeID, error) {
	typ, err := r.expect("underlyingType", t, Pointer, FixedArray, DynamicArray, Map)
	if err != nil {
		return typegraph.NoType, err
	}
	if typ.Kind == typegraph.KindMap {
		return r.graph.MapValueType(t), nil
	}
	return typ.Base, nil
}

// PointerIsWeak reports whether a pointer is weak.
func (r *Reflector) PointerIsWeak(t typegraph.TypeID) (bool, error) {
	typ, err := r.expect("pointerIsWeak", t, Pointer)
	if err != nil {
		return false, err
	}
	return typ.Kind == typegraph.KindWeakPtr, nil
}

// ArrayLength returns the element count of a fixed array.
func (r *Reflector) ArrayLength(t typegraph.TypeID) (int, error) {
	typ, err := r.expect("arrayLength", t, FixedArray)
	if err != nil {
		return 0, err
	}
	return typ.NumItems, nil
}

// MapKeyType returns the key type of a map.
func (r *Reflector) MapKeyType(t typegraph.TypeID) (typegraph.TypeID, error) {
	if _, err := r.expect("mapKeyType", t, Map); err != nil {
		return typegraph.NoType, err
	}
	return r.graph.MapKeyType(t), nil
}

// MapValueType returns the value type of a map.
func (r *Reflector) MapValueType(t typegraph.TypeID) (typegraph.TypeID, error) {
	if _, err := r.expect("mapValueType", t, Map); err != nil {
		return typegraph.NoType, err
	}
	return r.graph.MapValueType(t), nil
}

// signature resolves the function signature behind a closure-category type.
// captured is true when the signature belongs to a closure's inner function.
func (r *Reflector) signature(op string, t typegraph.TypeID) (sig *typegraph.Signature, captured bool, err error) {
	typ, err := r.expect(op, t, Closure)
	if err != nil {
		return nil, false, err
	}
	if typ.Kind == typegraph.KindClosure {
		fields := typ.Fields()
		if len(fields) > typegraph.ClosureFieldFn {
			typ = r.graph.Type(fields[typegraph.ClosureFieldFn].Type)
		}
		captured = true
	}
	if typ != nil {
		sig = typ.Signature()
	}
	if sig == nil {
		return nil, false, errors.InvalidData(errors.PhaseReflect, []string{op}, "closure carries no function signature")
	}
	return sig, captured, nil
}

func (r *Reflector) expect(op string, t typegraph.TypeID, want ...Category) (*typegraph.Type, error) {
	typ := r.graph.Type(t)
	got := Classify(typ)
	for _, w := range want {
		if got == w {
			return typ, nil
		}
	}

	names := make([]string, len(want))
	for i, w := range want {
		names[i] = w.String()
	}
	err := errors.WrongCategory(op, strings.Join(names, " or "), got.String(), r.Name(t))
	Logger().Debug("precondition violated", zap.String("op", op), zap.Uint32("type", uint32(t)), zap.Error(err))
	return nil, err
}

func namedFields(fields []typegraph.Field) []NamedType {
	out := make([]NamedType, len(fields))
	for i, f := range fields {
		out[i] = NamedType{Name: f.Name, Type: f.Type}
	}
	return out
}
