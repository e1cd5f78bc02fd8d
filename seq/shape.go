package seq

import (
	"fmt"

	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/layout"
	"github.com/wippyai/typerefl/typegraph"
)

// Slot is one field of the caller's result record.
type Slot struct {
	Offset uint32
	Width  uint32
	Kind   typegraph.Kind
}

// Shape is a caller-supplied description of a result sequence: a dynamic
// array type whose element is a record with a str name in field 0 and a
// value in field 1. Further fields are left zeroed.
type Shape struct {
	Type      typegraph.TypeID
	Item      typegraph.TypeID
	ItemSize  uint32
	ItemAlign uint32
	Name      Slot
	Value     Slot
}

// NewShape validates t against calc's graph and captures its layout.
// Field offsets are taken as recorded in the graph.
func NewShape(calc *layout.Calculator, g *typegraph.Graph, t typegraph.TypeID) (*Shape, error) {
	path := []string{fmt.Sprintf("type %d", t)}

	seqType := g.Type(t)
	if seqType == nil || seqType.Kind != typegraph.KindDynArray {
		return nil, errors.InvalidShape(path, "result shape must be a dynamic array type")
	}
	item := g.Type(seqType.Base)
	if item == nil || item.Kind != typegraph.KindStruct {
		return nil, errors.InvalidShape(path, "result item must be a struct")
	}
	fields := item.Fields()
	if len(fields) < 2 {
		return nil, errors.InvalidShape(path, "result item needs a name and a value field")
	}

	size := calc.Size(seqType.Base)
	align := calc.Alignment(seqType.Base)
	if size <= 0 || align <= 0 || size > int64(^uint32(0)) {
		return nil, errors.InvalidShape(path, "result item has no usable layout")
	}

	s := &Shape{
		Type:      t,
		Item:      seqType.Base,
		ItemSize:  uint32(size),
		ItemAlign: uint32(align),
	}

	name, err := slot(calc, g, fields[0])
	if err != nil {
		return nil, err
	}
	if name.Kind != typegraph.KindStr {
		return nil, errors.InvalidShape(append(path, fields[0].Name), "name field must be str")
	}
	value, err := slot(calc, g, fields[1])
	if err != nil {
		return nil, err
	}
	switch {
	case value.Kind == typegraph.KindStr,
		value.Kind == typegraph.KindPtr,
		value.Kind == typegraph.KindWeakPtr,
		value.Kind == typegraph.KindFn,
		value.Kind.IsInteger():
	default:
		return nil, errors.InvalidShape(append(path, fields[1].Name),
			fmt.Sprintf("value field of kind %s cannot hold a result", value.Kind))
	}

	s.Name, s.Value = name, value
	return s, nil
}

func slot(calc *layout.Calculator, g *typegraph.Graph, f typegraph.Field) (Slot, error) {
	t := g.Type(f.Type)
	width := calc.Size(f.Type)
	if t == nil || width <= 0 || f.Offset < 0 {
		return Slot{}, errors.InvalidShape([]string{f.Name}, "field has no usable layout")
	}
	return Slot{Offset: uint32(f.Offset), Width: uint32(width), Kind: t.Kind}, nil
}
