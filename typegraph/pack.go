package typegraph

import (
	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/internal/abi"
)

// fixedWidths holds the in-memory width of every kind whose size does not
// depend on its base or payload. Width equals alignment for all of them.
var fixedWidths = map[Kind]int64{
	KindInt8:    1,
	KindUint8:   1,
	KindBool:    1,
	KindChar:    1,
	KindInt16:   2,
	KindUint16:  2,
	KindInt32:   4,
	KindUint32:  4,
	KindReal32:  4,
	KindInt:     8,
	KindUint:    8,
	KindReal:    8,
	KindPtr:     abi.WordSize,
	KindWeakPtr: abi.WordSize,
	KindStr:     abi.WordSize,
	KindFiber:   abi.WordSize,
	KindFn:      abi.WordSize,
}

type packState uint8

const (
	packPending packState = iota
	packActive
	packDone
)

type packed struct {
	size, align int64
	ok          bool
}

// packer records field offsets the way the compiler lays out aggregates:
// each field starts at the running offset rounded up to its alignment.
type packer struct {
	types []Type
	state []packState
	memo  []packed
}

func newPacker(types []Type) *packer {
	return &packer{
		types: types,
		state: make([]packState, len(types)),
		memo:  make([]packed, len(types)),
	}
}

func (p *packer) assign(id TypeID) error {
	_, err := p.layout(id)
	return err
}

func (p *packer) layout(id TypeID) (packed, error) {
	switch p.state[id] {
	case packDone:
		return p.memo[id], nil
	case packActive:
		return packed{}, errors.Cycle(errors.PhaseBuild, p.describe(id))
	}
	p.state[id] = packActive

	t := &p.types[id]
	var res packed
	var err error

	if w, ok := fixedWidths[t.Kind]; ok {
		res = packed{size: w, align: w, ok: true}
	} else {
		switch t.Kind {
		case KindVoid:
			res = packed{size: 0, align: 1, ok: true}
		case KindArray:
			res, err = p.array(t)
		case KindDynArray:
			res = packed{size: abi.DynArrayHeaderSize, align: abi.WordSize, ok: true}
		case KindMap:
			res = packed{size: abi.MapHeaderSize, align: abi.WordSize, ok: true}
		case KindStruct, KindInterface, KindClosure:
			res, err = p.aggregate(id, t)
		}
	}
	if err != nil {
		return packed{}, err
	}

	p.memo[id] = res
	p.state[id] = packDone
	return res, nil
}

func (p *packer) array(t *Type) (packed, error) {
	elem, err := p.layout(t.Base)
	if err != nil || !elem.ok {
		return packed{}, err
	}
	size, ok := abi.SafeMulI64(elem.size, int64(t.NumItems))
	if !ok {
		return packed{}, errors.Overflow(errors.PhaseBuild, nil, t.NumItems, "array byte size")
	}
	return packed{size: size, align: elem.align, ok: true}, nil
}

func (p *packer) aggregate(id TypeID, t *Type) (packed, error) {
	fields := t.Fields()
	offset := int64(0)
	align := int64(1)
	for i := range fields {
		f := &fields[i]
		fl, err := p.layout(f.Type)
		if err != nil {
			return packed{}, err
		}
		if !fl.ok {
			return packed{}, errors.New(errors.PhaseBuild, errors.KindInvalidData).
				Path(f.Name).
				TypeName(p.describe(id)).
				Detail("field of kind %s has no in-memory representation", p.types[f.Type].Kind).
				Build()
		}
		if f.Offset == unassigned {
			f.Offset = abi.AlignTo(offset, fl.align)
		}
		end, ok := abi.SafeAddI64(f.Offset, fl.size)
		if !ok {
			return packed{}, errors.Overflow(errors.PhaseBuild, []string{f.Name}, f.Offset, "aggregate byte size")
		}
		offset = end
		align = max(align, fl.align)
	}
	return packed{size: abi.AlignTo(offset, align), align: align, ok: true}, nil
}

func (p *packer) describe(id TypeID) string {
	if name := p.types[id].Name(); name != "" {
		return name
	}
	return p.types[id].Kind.String()
}
