package layout

import (
	"sync"

	"github.com/wippyai/typerefl/internal/abi"
	"github.com/wippyai/typerefl/typegraph"
)

// Undefined is reported for kinds that have no in-memory representation.
const Undefined int64 = -1

// Info is the computed layout of one type.
type Info struct {
	// Offsets holds the computed offset of every field of an aggregate, in
	// declaration order. It is nil for non-aggregates.
	Offsets []int64
	Size    int64
	Align   int64
}

// Defined reports whether the type has an in-memory representation.
func (i Info) Defined() bool {
	return i.Size != Undefined && i.Align != Undefined
}

var undefined = Info{Size: Undefined, Align: Undefined}

// Calculator memoizes layouts of one graph. It is safe for concurrent use.
type Calculator struct {
	graph   *typegraph.Graph
	cache   map[typegraph.TypeID]Info
	pending map[typegraph.TypeID]bool
	mu      sync.Mutex
}

func NewCalculator(g *typegraph.Graph) *Calculator {
	return &Calculator{
		graph:   g,
		cache:   make(map[typegraph.TypeID]Info),
		pending: make(map[typegraph.TypeID]bool),
	}
}

// Calculate returns the layout of t. Invalid references are Undefined.
func (c *Calculator) Calculate(t typegraph.TypeID) Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	info := c.calculate(t)
	if info.Offsets != nil {
		info.Offsets = append([]int64(nil), info.Offsets...)
	}
	return info
}

// Size returns the byte size of t, or Undefined.
func (c *Calculator) Size(t typegraph.TypeID) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size(t)
}

// Alignment returns the alignment of t, or Undefined.
func (c *Calculator) Alignment(t typegraph.TypeID) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alignment(t)
}

// Offsets returns the computed field offsets of an aggregate, or nil.
func (c *Calculator) Offsets(t typegraph.TypeID) []int64 {
	return c.Calculate(t).Offsets
}

func (c *Calculator) size(t typegraph.TypeID) int64 {
	return c.calculate(t).Size
}

func (c *Calculator) alignment(t typegraph.TypeID) int64 {
	return c.calculate(t).Align
}

func (c *Calculator) calculate(t typegraph.TypeID) Info {
	if cached, ok := c.cache[t]; ok {
		return cached
	}
	typ := c.graph.Type(t)
	if typ == nil {
		return undefined
	}
	if c.pending[t] {
		// A by-value cycle has no finite size.
		return undefined
	}
	c.pending[t] = true
	defer delete(c.pending, t)

	var info Info

	switch typ.Kind {
	case typegraph.KindVoid:
		info = Info{Size: 0, Align: 1}
	case typegraph.KindInt8, typegraph.KindUint8, typegraph.KindBool, typegraph.KindChar:
		info = Info{Size: 1, Align: 1}
	case typegraph.KindInt16, typegraph.KindUint16:
		info = Info{Size: 2, Align: 2}
	case typegraph.KindInt32, typegraph.KindUint32, typegraph.KindReal32:
		info = Info{Size: 4, Align: 4}
	case typegraph.KindInt, typegraph.KindUint, typegraph.KindReal:
		info = Info{Size: 8, Align: 8}
	case typegraph.KindPtr, typegraph.KindWeakPtr, typegraph.KindStr:
		info = Info{Size: abi.WordSize, Align: abi.WordSize}
	case typegraph.KindFn, typegraph.KindFiber:
		info = Info{Size: abi.WordSize, Align: abi.WordSize}
	case typegraph.KindArray:
		info = c.calculateArray(typ)
	case typegraph.KindDynArray:
		info = Info{Size: abi.DynArrayHeaderSize, Align: abi.WordSize}
	case typegraph.KindMap:
		info = Info{Size: abi.MapHeaderSize, Align: abi.WordSize}
	case typegraph.KindStruct, typegraph.KindInterface, typegraph.KindClosure:
		info = c.calculateAggregate(typ.Fields())
	default:
		info = undefined
	}

	c.cache[t] = info
	return info
}

func (c *Calculator) calculateArray(t *typegraph.Type) Info {
	elemSize := c.size(t.Base)
	elemAlign := c.alignment(t.Base)
	if elemSize == Undefined || elemAlign == Undefined {
		return undefined
	}
	size, ok := abi.SafeMulI64(int64(t.NumItems), elemSize)
	if !ok {
		return undefined
	}
	return Info{Size: size, Align: elemAlign}
}

func (c *Calculator) calculateAggregate(fields []typegraph.Field) Info {
	offsets := make([]int64, len(fields))
	maxAlign := int64(1)
	offset := int64(0)

	for i, field := range fields {
		fieldSize := c.size(field.Type)
		fieldAlign := c.alignment(field.Type)
		if fieldSize == Undefined || fieldAlign == Undefined {
			return undefined
		}

		offset = abi.AlignTo(offset, fieldAlign)
		offsets[i] = offset

		if fieldAlign > maxAlign {
			maxAlign = fieldAlign
		}

		next, ok := abi.SafeAddI64(offset, fieldSize)
		if !ok {
			return undefined
		}
		offset = next
	}

	return Info{
		Size:    abi.AlignTo(offset, maxAlign),
		Align:   maxAlign,
		Offsets: offsets,
	}
}
