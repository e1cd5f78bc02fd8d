package seq

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/layout"
	"github.com/wippyai/typerefl/refl"
	"github.com/wippyai/typerefl/typegraph"
)

type shapes struct {
	g       *typegraph.Graph
	calc    *layout.Calculator
	named   typegraph.TypeID // []struct{name str; type ^void}
	variant typegraph.TypeID // []struct{name str; value int}
	small   typegraph.TypeID // []struct{name str; value int8; pad int32}
	text    typegraph.TypeID // []struct{name str; text str}
	subject typegraph.TypeID
	enum    typegraph.TypeID
	bad     map[string]typegraph.TypeID
}

func newShapes(t *testing.T) *shapes {
	t.Helper()
	b := typegraph.NewBuilder()
	str := b.Scalar(typegraph.KindStr)
	i := b.Scalar(typegraph.KindInt)
	i8 := b.Scalar(typegraph.KindInt8)
	i32 := b.Scalar(typegraph.KindInt32)
	voidPtr := b.Pointer(b.Scalar(typegraph.KindVoid))

	s := &shapes{bad: map[string]typegraph.TypeID{}}
	s.named = b.DynArray(b.Struct("NamedType", typegraph.F("name", str), typegraph.F("type", voidPtr)))
	s.variant = b.DynArray(b.Struct("Variant", typegraph.F("name", str), typegraph.F("value", i)))
	s.small = b.DynArray(b.Struct("", typegraph.F("name", str), typegraph.F("value", i8), typegraph.F("pad", i32)))
	s.text = b.DynArray(b.Struct("", typegraph.F("name", str), typegraph.F("text", str)))

	s.subject = b.Struct("Point", typegraph.F("x", b.Scalar(typegraph.KindReal)), typegraph.F("y", i))
	s.enum = b.Enum("Level", typegraph.KindInt8, typegraph.C("low", -3), typegraph.C("high", 90))

	s.bad["not a dynarray"] = b.Array(b.Struct("", typegraph.F("name", str), typegraph.F("v", i)), 2)
	s.bad["scalar item"] = b.DynArray(i)
	s.bad["one field"] = b.DynArray(b.Struct("", typegraph.F("name", str)))
	s.bad["int name"] = b.DynArray(b.Struct("", typegraph.F("name", i), typegraph.F("v", i)))
	s.bad["real value"] = b.DynArray(b.Struct("", typegraph.F("name", str), typegraph.F("v", b.Scalar(typegraph.KindReal))))

	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s.g = g
	s.calc = layout.NewCalculator(g)
	return s
}

func (s *shapes) shape(t *testing.T, id typegraph.TypeID) *Shape {
	t.Helper()
	sh, err := NewShape(s.calc, s.g, id)
	if err != nil {
		t.Fatalf("NewShape: %v", err)
	}
	return sh
}

func TestNewShape(t *testing.T) {
	s := newShapes(t)

	sh := s.shape(t, s.named)
	if sh.ItemSize != 16 || sh.ItemAlign != 8 {
		t.Errorf("item size/align: got %d/%d, want 16/8", sh.ItemSize, sh.ItemAlign)
	}
	if sh.Name.Offset != 0 || sh.Value.Offset != 8 {
		t.Errorf("offsets: got %d/%d, want 0/8", sh.Name.Offset, sh.Value.Offset)
	}
	if sh.Value.Kind != typegraph.KindPtr {
		t.Errorf("value kind: got %s, want ^", sh.Value.Kind)
	}

	small := s.shape(t, s.small)
	if small.Value.Width != 1 || small.ItemSize != 16 {
		t.Errorf("small: width %d size %d, want 1 16", small.Value.Width, small.ItemSize)
	}

	for name, id := range s.bad {
		t.Run(name, func(t *testing.T) {
			_, err := NewShape(s.calc, s.g, id)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindInvalidShape}) {
				t.Errorf("expected invalid shape, got %v", err)
			}
		})
	}
}

func TestWriteNamed(t *testing.T) {
	s := newShapes(t)
	r := refl.New(s.g)
	mem := NewLinearMemory(0)
	b := NewBuilder(mem, mem, nil)

	fields, err := r.StructFields(s.subject)
	if err != nil {
		t.Fatal(err)
	}

	dst, err := mem.Alloc(24, 8)
	if err != nil {
		t.Fatal(err)
	}
	sh := s.shape(t, s.named)
	out, err := b.Write(dst, sh, Named(fields))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if out.Len != 2 {
		t.Fatalf("len: got %d, want 2", out.Len)
	}

	n, _ := mem.ReadU64(out.Data - 16)
	c, _ := mem.ReadU64(out.Data - 8)
	if n != 2 || c != 2 {
		t.Errorf("dimensions: got {%d, %d}, want {2, 2}", n, c)
	}
	typ, _ := mem.ReadU64(dst)
	size, _ := mem.ReadU64(dst + 8)
	data, _ := mem.ReadU64(dst + 16)
	if typegraph.TypeID(typ) != s.named || size != 16 || uint32(data) != out.Data {
		t.Errorf("header: got {%d, %d, %d}", typ, size, data)
	}

	items, err := Decode(mem, dst, sh)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []Item{{Name: "x", Value: Handle(fields[0].Type)}, {Name: "y", Value: Handle(fields[1].Type)}}
	if len(items) != len(want) {
		t.Fatalf("items: got %d, want %d", len(items), len(want))
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("item %d: got %+v, want %+v", i, items[i], want[i])
		}
	}
}

func TestWriteVariants(t *testing.T) {
	s := newShapes(t)
	r := refl.New(s.g)
	mem := NewLinearMemory(0)
	b := NewBuilder(mem, mem, nil)

	variants, err := r.EnumVariants(s.enum)
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []typegraph.TypeID{s.variant, s.small} {
		sh := s.shape(t, id)
		dst, _ := mem.Alloc(24, 8)
		if _, err := b.Write(dst, sh, Variants(variants)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		items, err := Decode(mem, dst, sh)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if len(items) != 2 || items[0] != (Item{Name: "low", Value: Int(-3)}) || items[1] != (Item{Name: "high", Value: Int(90)}) {
			t.Errorf("items: got %+v", items)
		}
	}
}

func TestDecodeCorruptLength(t *testing.T) {
	s := newShapes(t)
	mem := NewLinearMemory(0)
	b := NewBuilder(mem, mem, nil)
	sh := s.shape(t, s.variant)

	dst, _ := mem.Alloc(24, 8)
	sq, err := b.Write(dst, sh, []Item{{Name: "a", Value: Int(1)}})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	for _, n := range []uint64{1 << 40, uint64(mem.Size())} {
		if err := mem.WriteU64(sq.Data-16, n); err != nil {
			t.Fatal(err)
		}
		_, err := Decode(mem, dst, sh)
		oob := &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindOutOfBounds}
		if !stderrors.Is(err, oob) {
			t.Errorf("Decode with length %d: got %v, want out of bounds", n, err)
		}
	}
}

func TestWriteText(t *testing.T) {
	s := newShapes(t)
	mem := NewLinearMemory(0)
	b := NewBuilder(mem, mem, nil)
	sh := s.shape(t, s.text)

	dst, _ := mem.Alloc(24, 8)
	in := []Item{{Name: "file", Value: Text("main.um")}, {Name: "", Value: Text("")}}
	if _, err := b.Write(dst, sh, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	items, err := Decode(mem, dst, sh)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := range in {
		if items[i] != in[i] {
			t.Errorf("item %d: got %+v, want %+v", i, items[i], in[i])
		}
	}
}

func TestWriteEmpty(t *testing.T) {
	s := newShapes(t)
	mem := NewLinearMemory(0)
	b := NewBuilder(mem, mem, nil)
	sh := s.shape(t, s.named)

	dst, _ := mem.Alloc(24, 8)
	out, err := b.Write(dst, sh, nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if out.Len != 0 {
		t.Errorf("len: got %d, want 0", out.Len)
	}
	items, err := Decode(mem, dst, sh)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items: got %d, want 0", len(items))
	}
}

func TestWriteRollback(t *testing.T) {
	s := newShapes(t)
	mem := NewLinearMemory(0)
	b := NewBuilder(mem, mem, nil)

	dst, _ := mem.Alloc(24, 8)
	before := mem.next

	tests := []struct {
		name  string
		shape typegraph.TypeID
		items []Item
		kind  errors.Kind
	}{
		{"int too wide", s.small, []Item{{Name: "a", Value: Int(1)}, {Name: "b", Value: Int(300)}}, errors.KindOverflow},
		{"text into int", s.variant, []Item{{Name: "a", Value: Text("x")}}, errors.KindInvalidShape},
		{"int into str", s.text, []Item{{Name: "a", Value: Int(1)}}, errors.KindInvalidShape},
		{"handle into str", s.text, []Item{{Name: "a", Value: Handle(3)}}, errors.KindInvalidShape},
		{"missing value", s.variant, []Item{{Name: "a"}}, errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Write(dst, s.shape(t, tt.shape), tt.items)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseMarshal, Kind: tt.kind}) {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}
			if mem.next != before {
				t.Errorf("allocations leaked: next %d, want %d", mem.next, before)
			}
		})
	}
}

func TestAllocationFailure(t *testing.T) {
	s := newShapes(t)
	mem := NewLinearMemory(64)
	b := NewBuilder(mem, mem, nil)

	items := make([]Item, 8)
	for i := range items {
		items[i] = Item{Name: "f", Value: Int(int64(i))}
	}
	_, err := b.Write(8, s.shape(t, s.variant), items)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindAllocation}) {
		t.Errorf("expected allocation error, got %v", err)
	}
}

func TestLinearStrings(t *testing.T) {
	mem := NewLinearMemory(0)
	strs := NewLinearStrings(mem, mem)

	ptr, err := strs.Make("hello")
	if err != nil {
		t.Fatal(err)
	}
	n, _ := mem.ReadU64(ptr - 16)
	c, _ := mem.ReadU64(ptr - 8)
	if n != 5 || c != 6 {
		t.Errorf("dimensions: got {%d, %d}, want {5, 6}", n, c)
	}
	nul, _ := mem.ReadU8(ptr + 5)
	if nul != 0 {
		t.Errorf("terminator: got %d, want 0", nul)
	}
	got, err := ReadString(mem, ptr)
	if err != nil || got != "hello" {
		t.Errorf("ReadString: got %q, %v", got, err)
	}

	next := mem.next
	strs.Release(ptr)
	if mem.next >= next {
		t.Error("Release should reclaim the last string")
	}

	if s, err := ReadString(mem, 0); s != "" || err != nil {
		t.Errorf("null string: got %q, %v", s, err)
	}
}

func TestLinearMemoryBounds(t *testing.T) {
	mem := NewLinearMemory(32)

	p, err := mem.Alloc(3, 1)
	if err != nil || p != 8 {
		t.Fatalf("Alloc: got %d, %v", p, err)
	}
	p, err = mem.Alloc(8, 8)
	if err != nil || p != 16 {
		t.Fatalf("aligned Alloc: got %d, %v", p, err)
	}
	if _, err := mem.Alloc(16, 8); err == nil {
		t.Error("Alloc beyond limit should fail")
	}
	if _, err := mem.ReadU64(mem.Size() - 4); err == nil {
		t.Error("read past end should fail")
	}
	if err := mem.WriteU32(mem.Size(), 1); err == nil {
		t.Error("write past end should fail")
	}
	if err := mem.WriteU16(16, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	if v, _ := mem.ReadU16(16); v != 0xBEEF {
		t.Errorf("ReadU16: got %#x", v)
	}
}
