package seq

import (
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/typerefl"
	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/internal/abi"
	"github.com/wippyai/typerefl/refl"
	"github.com/wippyai/typerefl/typegraph"
)

// Value is the second element of a result record.
type Value interface {
	isValue()
}

// Int is an integer value such as an enum constant.
type Int int64

// Handle is a type reference.
type Handle typegraph.TypeID

// Text is a string value.
type Text string

func (Int) isValue()    {}
func (Handle) isValue() {}
func (Text) isValue()   {}

// Item is one result record.
type Item struct {
	Value Value
	Name  string
}

// Named converts (name, type) pairs into items.
func Named(ns []refl.NamedType) []Item {
	items := make([]Item, len(ns))
	for i, n := range ns {
		items[i] = Item{Name: n.Name, Value: Handle(n.Type)}
	}
	return items
}

// Variants converts enum constants into items.
func Variants(vs []refl.Variant) []Item {
	items := make([]Item, len(vs))
	for i, v := range vs {
		items[i] = Item{Name: v.Name, Value: Int(v.Value)}
	}
	return items
}

// Sequence locates a written dynamic array.
type Sequence struct {
	Header uint32
	Data   uint32
	Len    int
}

// Builder writes result sequences into linear memory.
type Builder struct {
	mem     typerefl.Memory
	alloc   typerefl.Allocator
	strings Strings
}

// NewBuilder creates a builder. A nil strings service defaults to
// LinearStrings over the same memory and allocator.
func NewBuilder(mem typerefl.Memory, alloc typerefl.Allocator, strings Strings) *Builder {
	if strings == nil {
		strings = NewLinearStrings(mem, alloc)
	}
	return &Builder{mem: mem, alloc: alloc, strings: strings}
}

// Write allocates storage for exactly len(items) records, fills it in order
// and writes the dynamic array header at dst. Nothing is allocated on failure.
func (b *Builder) Write(dst uint32, shape *Shape, items []Item) (Sequence, error) {
	n := uint32(len(items))
	if int(n) != len(items) {
		return Sequence{}, errors.Overflow(errors.PhaseMarshal, nil, len(items), "sequence length")
	}
	dataSize, ok := abi.SafeMulU32(n, shape.ItemSize)
	if !ok {
		return Sequence{}, errors.Overflow(errors.PhaseMarshal, nil, len(items), "sequence byte size")
	}
	total, ok := abi.SafeAddU32(abi.DimensionsSize, dataSize)
	if !ok {
		return Sequence{}, errors.Overflow(errors.PhaseMarshal, nil, len(items), "sequence byte size")
	}
	align := max(shape.ItemAlign, abi.WordSize)

	block, err := b.alloc.Alloc(total, align)
	if err != nil {
		return Sequence{}, allocErr(total, align, err)
	}

	var strs []uint32
	fail := func(err error) (Sequence, error) {
		for i := len(strs) - 1; i >= 0; i-- {
			b.strings.Release(strs[i])
		}
		b.alloc.Free(block, total, align)
		Logger().Debug("sequence write rolled back", zap.Int("items", len(items)), zap.Error(err))
		return Sequence{}, err
	}

	if err := b.mem.Write(block, make([]byte, total)); err != nil {
		return fail(err)
	}
	if err := b.mem.WriteU64(block, uint64(n)); err != nil {
		return fail(err)
	}
	if err := b.mem.WriteU64(block+abi.WordSize, uint64(n)); err != nil {
		return fail(err)
	}
	data := block + abi.DimensionsSize

	for i, it := range items {
		base := data + uint32(i)*shape.ItemSize
		name, err := b.strings.Make(it.Name)
		if err != nil {
			return fail(err)
		}
		strs = append(strs, name)
		if err := b.mem.WriteU64(base+shape.Name.Offset, uint64(name)); err != nil {
			return fail(err)
		}
		ptr, err := b.writeValue(base, shape.Value, it.Value)
		if err != nil {
			return fail(err)
		}
		if ptr != 0 {
			strs = append(strs, ptr)
		}
	}

	if err := b.mem.WriteU64(dst, uint64(shape.Type)); err != nil {
		return fail(err)
	}
	if err := b.mem.WriteU64(dst+abi.WordSize, uint64(shape.ItemSize)); err != nil {
		return fail(err)
	}
	if err := b.mem.WriteU64(dst+2*abi.WordSize, uint64(data)); err != nil {
		return fail(err)
	}

	return Sequence{Header: dst, Data: data, Len: len(items)}, nil
}

// writeValue stores v into its slot. It returns the pointer of a string it
// had to materialize, or 0.
func (b *Builder) writeValue(base uint32, s Slot, v Value) (uint32, error) {
	addr := base + s.Offset
	switch val := v.(type) {
	case Text:
		if s.Kind != typegraph.KindStr {
			return 0, mismatch(s, "text")
		}
		ptr, err := b.strings.Make(string(val))
		if err != nil {
			return 0, err
		}
		return ptr, b.mem.WriteU64(addr, uint64(ptr))

	case Int:
		if !s.Kind.IsInteger() {
			return 0, mismatch(s, "integer")
		}
		if !fits(int64(val), s) {
			return 0, errors.Overflow(errors.PhaseMarshal, nil, int64(val), s.Kind.String())
		}
		return 0, b.writeInt(addr, s.Width, uint64(val))

	case Handle:
		switch {
		case s.Kind == typegraph.KindPtr, s.Kind == typegraph.KindWeakPtr, s.Kind == typegraph.KindFn:
			return 0, b.mem.WriteU64(addr, uint64(val))
		case s.Kind.IsInteger():
			if !fits(int64(val), s) {
				return 0, errors.Overflow(errors.PhaseMarshal, nil, uint32(val), s.Kind.String())
			}
			return 0, b.writeInt(addr, s.Width, uint64(val))
		}
		return 0, mismatch(s, "type handle")

	default:
		return 0, errors.InvalidInput(errors.PhaseMarshal, "item has no value")
	}
}

func (b *Builder) writeInt(addr, width uint32, v uint64) error {
	switch width {
	case 1:
		return b.mem.WriteU8(addr, uint8(v))
	case 2:
		return b.mem.WriteU16(addr, uint16(v))
	case 4:
		return b.mem.WriteU32(addr, uint32(v))
	default:
		return b.mem.WriteU64(addr, v)
	}
}

func fits(v int64, s Slot) bool {
	bits := s.Width * 8
	if bits >= 64 {
		return s.Kind.IsSigned() || v >= 0
	}
	if s.Kind.IsSigned() {
		lim := int64(1) << (bits - 1)
		return v >= -lim && v < lim
	}
	return v >= 0 && v < int64(1)<<bits
}

func mismatch(s Slot, what string) error {
	return errors.InvalidShape(nil, "value field of kind "+s.Kind.String()+" cannot hold a "+what)
}

// Decode reads back a sequence whose header is at hdr.
func Decode(mem typerefl.Memory, hdr uint32, shape *Shape) ([]Item, error) {
	typ, err := mem.ReadU64(hdr)
	if err != nil {
		return nil, err
	}
	if typegraph.TypeID(typ) != shape.Type {
		return nil, errors.InvalidShape(nil, "sequence header names another type")
	}
	itemSize, err := mem.ReadU64(hdr + abi.WordSize)
	if err != nil {
		return nil, err
	}
	if itemSize != uint64(shape.ItemSize) {
		return nil, errors.InvalidShape(nil, "sequence item size does not match shape")
	}
	data64, err := mem.ReadU64(hdr + 2*abi.WordSize)
	if err != nil {
		return nil, err
	}
	data := uint32(data64)
	if data < abi.DimensionsSize {
		return nil, errors.InvalidData(errors.PhaseMarshal, nil, "sequence has no storage")
	}
	n, err := mem.ReadU64(data - abi.DimensionsSize)
	if err != nil {
		return nil, err
	}

	if limit := maxItems(mem, data, shape.ItemSize); n > limit {
		return nil, errors.OutOfBounds(errors.PhaseMarshal, []string{"len"}, int(min(n, math.MaxInt32)), int(limit))
	}

	items := make([]Item, 0, n)
	for i := range uint32(n) {
		base := data + i*shape.ItemSize
		namePtr, err := mem.ReadU64(base + shape.Name.Offset)
		if err != nil {
			return nil, err
		}
		name, err := ReadString(mem, uint32(namePtr))
		if err != nil {
			return nil, err
		}
		v, err := readValue(mem, base+shape.Value.Offset, shape.Value)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{Name: name, Value: v})
	}
	return items, nil
}

// maxItems bounds the length a sequence at data can have: the rest of the
// memory when its size is known, else the 32-bit address space.
func maxItems(mem typerefl.Memory, data, itemSize uint32) uint64 {
	if itemSize == 0 {
		return 0
	}
	end := uint64(math.MaxUint32)
	if sz, ok := mem.(typerefl.MemorySizer); ok {
		end = uint64(sz.Size())
	}
	if uint64(data) >= end {
		return 0
	}
	return (end - uint64(data)) / uint64(itemSize)
}

func readValue(mem typerefl.Memory, addr uint32, s Slot) (Value, error) {
	switch {
	case s.Kind == typegraph.KindStr:
		ptr, err := mem.ReadU64(addr)
		if err != nil {
			return nil, err
		}
		str, err := ReadString(mem, uint32(ptr))
		return Text(str), err
	case s.Kind.IsInteger():
		raw, err := readInt(mem, addr, s.Width)
		if err != nil {
			return nil, err
		}
		if s.Kind.IsSigned() && s.Width < 8 {
			shift := 64 - s.Width*8
			return Int(int64(raw<<shift) >> shift), nil
		}
		return Int(int64(raw)), nil
	default:
		raw, err := mem.ReadU64(addr)
		return Handle(raw), err
	}
}

func readInt(mem typerefl.Memory, addr, width uint32) (uint64, error) {
	switch width {
	case 1:
		v, err := mem.ReadU8(addr)
		return uint64(v), err
	case 2:
		v, err := mem.ReadU16(addr)
		return uint64(v), err
	case 4:
		v, err := mem.ReadU32(addr)
		return uint64(v), err
	default:
		return mem.ReadU64(addr)
	}
}
