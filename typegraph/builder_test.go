package typegraph

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/typerefl/errors"
)

func TestBuilderScalarsAreShared(t *testing.T) {
	b := NewBuilder()
	a := b.Scalar(KindInt)
	c := b.Scalar(KindInt)
	assert.Equal(t, a, c)
	assert.NotEqual(t, a, b.Scalar(KindUint))

	g, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
}

func TestBuilderRejectsNonBuiltinScalar(t *testing.T) {
	b := NewBuilder()
	assert.Equal(t, NoType, b.Scalar(KindStruct))
	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBuild, Kind: errors.KindInvalidInput}))
}

func TestBuilderRecordsOffsets(t *testing.T) {
	b := NewBuilder()
	s := b.Struct("S",
		F("a", b.Scalar(KindInt8)),
		F("b", b.Scalar(KindInt)),
		F("c", b.Scalar(KindInt16)),
		F("d", b.Array(b.Scalar(KindUint8), 3)),
	)
	g, err := b.Build()
	require.NoError(t, err)

	fields := g.Type(s).Fields()
	require.Len(t, fields, 4)
	assert.Equal(t, int64(0), fields[0].Offset)
	assert.Equal(t, int64(8), fields[1].Offset)
	assert.Equal(t, int64(16), fields[2].Offset)
	assert.Equal(t, int64(18), fields[3].Offset)
	assert.Equal(t, 4, g.Type(s).NumItems)
}

func TestBuilderKeepsExplicitOffsets(t *testing.T) {
	b := NewBuilder()
	s := b.Struct("Packed",
		FAt("a", b.Scalar(KindInt8), 0),
		FAt("b", b.Scalar(KindInt32), 1),
		F("c", b.Scalar(KindInt8)),
	)
	g, err := b.Build()
	require.NoError(t, err)

	fields := g.Type(s).Fields()
	assert.Equal(t, int64(1), fields[1].Offset)
	assert.Equal(t, int64(5), fields[2].Offset)
}

func TestBuilderMapNode(t *testing.T) {
	b := NewBuilder()
	key := b.Scalar(KindStr)
	val := b.Scalar(KindReal)
	m := b.Map(key, val)
	g, err := b.Build()
	require.NoError(t, err)

	mt := g.Type(m)
	require.Equal(t, KindMap, mt.Kind)
	node := g.Type(mt.Base)
	require.Equal(t, KindStruct, node.Kind)
	fields := node.Fields()
	require.Len(t, fields, 5)
	assert.Equal(t, "len", fields[MapNodeFieldLen].Name)
	assert.Equal(t, KindPtr, g.Type(fields[MapNodeFieldLeft].Type).Kind)
	assert.Equal(t, mt.Base, g.Type(fields[MapNodeFieldRight].Type).Base)

	assert.Equal(t, key, g.MapKeyType(m))
	assert.Equal(t, val, g.MapValueType(m))
	assert.Equal(t, NoType, g.MapKeyType(key))
}

func TestBuilderClosureShape(t *testing.T) {
	b := NewBuilder()
	i := b.Scalar(KindInt)
	cl := b.Closure(b.Scalar(KindBool), P("x", i))
	g, err := b.Build()
	require.NoError(t, err)

	ct := g.Type(cl)
	require.Equal(t, KindClosure, ct.Kind)
	fields := ct.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, int64(0), fields[ClosureFieldFn].Offset)
	assert.Equal(t, int64(8), fields[ClosureFieldUpvalues].Offset)

	sig := g.Type(fields[ClosureFieldFn].Type).Signature()
	require.NotNil(t, sig)
	require.Len(t, sig.Params, 2)
	assert.Equal(t, "__upvalues", sig.Params[ClosureUpvalueParam].Name)
	assert.Equal(t, KindInterface, g.Type(sig.Params[0].Type).Kind)
	assert.Equal(t, "x", sig.Params[1].Name)
}

func TestBuilderInterfaceMethodOffsets(t *testing.T) {
	b := NewBuilder()
	str := b.Scalar(KindStr)
	it := b.Interface("Named", M("name", str), M("rename", NoType, P("to", str)))
	g, err := b.Build()
	require.NoError(t, err)

	fields := g.Type(it).Fields()
	require.Len(t, fields, 4)
	assert.Equal(t, "__self", fields[0].Name)
	assert.Equal(t, "__selftype", fields[1].Name)
	assert.Equal(t, int64(24), fields[3].Offset)

	sig := g.Type(fields[3].Type).Signature()
	assert.True(t, sig.IsMethod)
	assert.Equal(t, int64(24), sig.OffsetFromSelf)
	assert.Equal(t, KindVoid, g.Type(sig.Result).Kind)
}

func TestBuilderDefaultParams(t *testing.T) {
	b := NewBuilder()
	i := b.Scalar(KindInt)
	fn := b.Func(i, P("a", i), PDefault("b", i, IntConst(1)), PDefault("c", i, IntConst(2)))
	g, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, g.Type(fn).Signature().NumDefaultParams)
}

func TestBuilderRecursiveStruct(t *testing.T) {
	b := NewBuilder()
	node := b.Declare("Node")
	b.Define(node, b.Struct("",
		F("value", b.Scalar(KindInt)),
		F("next", b.Pointer(node)),
	))
	g, err := b.Build()
	require.NoError(t, err)

	nt := g.Type(node)
	assert.Equal(t, "Node", nt.Name())
	assert.Equal(t, KindStruct, nt.Kind)
	assert.Equal(t, node, g.Type(nt.Fields()[1].Type).Base)

	id, ok := g.Lookup("Node")
	assert.True(t, ok)
	assert.Equal(t, node, id)
}

func TestBuilderRejectsValueCycle(t *testing.T) {
	b := NewBuilder()
	node := b.Declare("Loop")
	b.Define(node, b.Struct("", F("self", b.Array(node, 1))))
	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBuild, Kind: errors.KindCycle}))
}

func TestBuilderRejectsUndefinedDeclaration(t *testing.T) {
	b := NewBuilder()
	b.Declare("Ghost")
	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never defined")
}

func TestBuilderRejectsUnrepresentableField(t *testing.T) {
	b := NewBuilder()
	b.Struct("Bad", F("n", b.Scalar(KindNull)))
	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no in-memory representation")
}

func TestBuilderRejectsBadReference(t *testing.T) {
	b := NewBuilder()
	b.Pointer(TypeID(42))
	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBuild, Kind: errors.KindInvalidHandle}))
}

func TestBuilderSingleUse(t *testing.T) {
	b := NewBuilder()
	b.Scalar(KindInt)
	_, err := b.Build()
	require.NoError(t, err)

	_, err = b.Build()
	assert.Error(t, err)
}

func TestBuilderNameAndLocate(t *testing.T) {
	b := NewBuilder()
	celsius := b.Name(b.Scalar(KindReal), "Celsius")
	b.Locate(celsius, "units", DebugInfo{File: "units.um", Line: 7})
	b.Export(celsius)
	g, err := b.Build()
	require.NoError(t, err)

	ct := g.Type(celsius)
	assert.Equal(t, KindReal, ct.Kind)
	require.NotNil(t, ct.Ident)
	assert.Equal(t, "Celsius", ct.Ident.Name)
	assert.Equal(t, "units", ct.Ident.Module)
	assert.Equal(t, 7, ct.Ident.Debug.Line)
	assert.True(t, ct.Ident.Exported)
}

func TestBuilderEnumRequiresIntegerKind(t *testing.T) {
	b := NewBuilder()
	b.Enum("Bad", KindReal, C("A", 0))
	_, err := b.Build()
	assert.Error(t, err)
}

func TestGraphInvalidReferences(t *testing.T) {
	b := NewBuilder()
	b.Scalar(KindInt)
	g, err := b.Build()
	require.NoError(t, err)

	assert.Nil(t, g.Type(NoType))
	assert.Nil(t, g.Type(TypeID(9)))
	assert.False(t, g.Valid(NoType))
	assert.Equal(t, []TypeID{1}, g.IDs())

	var nilGraph *Graph
	assert.Equal(t, 0, nilGraph.Len())
	assert.Nil(t, nilGraph.Type(1))
}
