package witmap

import (
	"strings"
	"unicode"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/typegraph"
)

// Projector maps types of one graph onto WIT types. Named structs and enums
// become named type definitions; each is created once and shared.
type Projector struct {
	graph  *typegraph.Graph
	cache  map[typegraph.TypeID]wit.Type
	active map[typegraph.TypeID]bool // types being projected
}

// New creates a projector over g.
func New(g *typegraph.Graph) *Projector {
	return &Projector{
		graph:  g,
		cache:  make(map[typegraph.TypeID]wit.Type),
		active: make(map[typegraph.TypeID]bool),
	}
}

// ToWIT projects a single type of g.
func ToWIT(g *typegraph.Graph, t typegraph.TypeID) (wit.Type, error) {
	return New(g).Type(t)
}

var primitives = map[typegraph.Kind]wit.Type{
	typegraph.KindBool:   wit.Bool{},
	typegraph.KindChar:   wit.U8{},
	typegraph.KindInt8:   wit.S8{},
	typegraph.KindInt16:  wit.S16{},
	typegraph.KindInt32:  wit.S32{},
	typegraph.KindInt:    wit.S64{},
	typegraph.KindUint8:  wit.U8{},
	typegraph.KindUint16: wit.U16{},
	typegraph.KindUint32: wit.U32{},
	typegraph.KindUint:   wit.U64{},
	typegraph.KindReal32: wit.F32{},
	typegraph.KindReal:   wit.F64{},
	typegraph.KindStr:    wit.String{},
}

// Type projects t. Types whose values cannot cross a component boundary
// (pointers, closures, interfaces, fibers, functions) are unsupported, as are
// types that contain themselves through a list or map.
func (p *Projector) Type(t typegraph.TypeID) (wit.Type, error) {
	return p.project(t, nil)
}

func (p *Projector) project(t typegraph.TypeID, path []string) (wit.Type, error) {
	if cached, ok := p.cache[t]; ok {
		return cached, nil
	}
	typ := p.graph.Type(t)
	if typ == nil {
		return nil, errors.InvalidHandle(errors.PhaseProject, uint32(t))
	}
	if p.active[t] {
		return nil, errors.New(errors.PhaseProject, errors.KindUnsupported).
			Path(path...).
			TypeName(label(typ)).
			Detail("recursive types have no WIT representation").
			Build()
	}
	p.active[t] = true
	defer delete(p.active, t)

	var (
		out wit.Type
		err error
	)
	switch {
	case typ.IsEnum:
		out, err = p.enum(typ, path)
	case primitives[typ.Kind] != nil:
		out = primitives[typ.Kind]
	case typ.Kind == typegraph.KindStruct:
		out, err = p.record(typ, path)
	case typ.Kind == typegraph.KindArray:
		out, err = p.tuple(typ, path)
	case typ.Kind == typegraph.KindDynArray:
		var elem wit.Type
		elem, err = p.project(typ.Base, append(path, "[]"))
		out = &wit.TypeDef{Kind: &wit.List{Type: elem}}
	case typ.Kind == typegraph.KindMap:
		out, err = p.mapping(t, path)
	default:
		return nil, errors.New(errors.PhaseProject, errors.KindUnsupported).
			Path(path...).
			TypeName(label(typ)).
			Detail("%s has no WIT representation", typ.Kind).
			Build()
	}
	if err != nil {
		return nil, err
	}
	p.cache[t] = out
	return out, nil
}

func (p *Projector) record(typ *typegraph.Type, path []string) (wit.Type, error) {
	fields := typ.Fields()
	if typ.IsExprList {
		types := make([]wit.Type, len(fields))
		for i, f := range fields {
			ft, err := p.project(f.Type, append(path, f.Name))
			if err != nil {
				return nil, err
			}
			types[i] = ft
		}
		return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, nil
	}

	if len(fields) == 0 {
		return nil, errors.Unsupported(errors.PhaseProject, "records must have at least one field")
	}
	rec := &wit.Record{Fields: make([]wit.Field, len(fields))}
	for i, f := range fields {
		ft, err := p.project(f.Type, append(path, f.Name))
		if err != nil {
			return nil, err
		}
		rec.Fields[i] = wit.Field{Name: Kebab(f.Name), Type: ft}
	}
	return &wit.TypeDef{Name: name(typ), Kind: rec}, nil
}

// enum projects dense enums (values 0..n-1 in order) as WIT enums and any
// other enum as its integer kind.
func (p *Projector) enum(typ *typegraph.Type, path []string) (wit.Type, error) {
	consts := typ.EnumConsts()
	dense := len(consts) > 0
	for i, c := range consts {
		if c.Value != int64(i) {
			dense = false
			break
		}
	}
	if !dense {
		if prim := primitives[typ.Kind]; prim != nil {
			return prim, nil
		}
		return nil, errors.Unsupported(errors.PhaseProject, "enum of kind "+typ.Kind.String())
	}
	e := &wit.Enum{Cases: make([]wit.EnumCase, len(consts))}
	for i, c := range consts {
		e.Cases[i] = wit.EnumCase{Name: Kebab(c.Name)}
	}
	return &wit.TypeDef{Name: name(typ), Kind: e}, nil
}

func (p *Projector) tuple(typ *typegraph.Type, path []string) (wit.Type, error) {
	if typ.NumItems == 0 {
		return nil, errors.Unsupported(errors.PhaseProject, "tuples must have at least one element")
	}
	elem, err := p.project(typ.Base, append(path, "[...]"))
	if err != nil {
		return nil, err
	}
	types := make([]wit.Type, typ.NumItems)
	for i := range types {
		types[i] = elem
	}
	return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, nil
}

func (p *Projector) mapping(t typegraph.TypeID, path []string) (wit.Type, error) {
	key, err := p.project(p.graph.MapKeyType(t), append(path, "key"))
	if err != nil {
		return nil, err
	}
	value, err := p.project(p.graph.MapValueType(t), append(path, "value"))
	if err != nil {
		return nil, err
	}
	entry := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{key, value}}}
	return &wit.TypeDef{Kind: &wit.List{Type: entry}}, nil
}

func name(typ *typegraph.Type) *string {
	if typ.Ident == nil || typ.Ident.Name == "" {
		return nil
	}
	n := Kebab(typ.Ident.Name)
	return &n
}

func label(typ *typegraph.Type) string {
	if n := typ.Name(); n != "" {
		return n
	}
	return typ.Kind.String()
}

// Kebab converts an identifier such as "fooBar_baz" to the WIT form "foo-bar-baz".
// A dash goes only where an upper case letter follows a lower case letter or
// a digit, so runs of capitals ("HTTPServer") stay one word.
func Kebab(s string) string {
	var b strings.Builder
	prev := rune(0) // previous input rune, before lowering
	for _, r := range s {
		out := r
		switch {
		case r == '_' || r == '-':
			out = '-'
		case unicode.IsUpper(r):
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('-')
			}
			out = unicode.ToLower(r)
		}
		if out == '-' && (b.Len() == 0 || strings.HasSuffix(b.String(), "-")) {
			prev = r
			continue
		}
		b.WriteRune(out)
		prev = r
	}
	return strings.TrimSuffix(b.String(), "-")
}
