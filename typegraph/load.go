package typegraph

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/typerefl/errors"
)

// Descriptor is the YAML form of a type graph.
//
//	module: geometry
//	types:
//	  - name: Point
//	    kind: struct
//	    file: geometry.um
//	    line: 3
//	    fields:
//	      - {name: x, type: real}
//	      - {name: y, type: real}
//	  - name: Path
//	    kind: dynarray
//	    base: Point
//
// Type references are builtin spellings (int8, str, void, ...), "any",
// declared names, or the prefix forms ^T, weak ^T, []T, [N]T and map[K]V.
type Descriptor struct {
	Module string     `yaml:"module"`
	Types  []TypeDecl `yaml:"types"`
}

type TypeDecl struct {
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"`
	Base     string       `yaml:"base,omitempty"`
	Key      string       `yaml:"key,omitempty"`
	Value    string       `yaml:"value,omitempty"`
	Result   string       `yaml:"result,omitempty"`
	File     string       `yaml:"file,omitempty"`
	Fn       string       `yaml:"fn,omitempty"`
	Fields   []FieldDecl  `yaml:"fields,omitempty"`
	Consts   []ConstDecl  `yaml:"consts,omitempty"`
	Params   []ParamDecl  `yaml:"params,omitempty"`
	Methods  []MethodDecl `yaml:"methods,omitempty"`
	Len      int          `yaml:"len,omitempty"`
	Line     int          `yaml:"line,omitempty"`
	Method   bool         `yaml:"method,omitempty"`
	Variadic bool         `yaml:"variadic,omitempty"`
	Exported bool         `yaml:"exported,omitempty"`
}

type FieldDecl struct {
	Offset *int64 `yaml:"offset,omitempty"`
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
}

type ConstDecl struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

type ParamDecl struct {
	Default *DefaultDecl `yaml:"default,omitempty"`
	Name    string       `yaml:"name"`
	Type    string       `yaml:"type"`
}

type DefaultDecl struct {
	Int  *int64    `yaml:"int,omitempty"`
	Uint *uint64   `yaml:"uint,omitempty"`
	Real *float64  `yaml:"real,omitempty"`
	Str  *string   `yaml:"str,omitempty"`
	Weak *WeakDecl `yaml:"weak,omitempty"`
	Null bool      `yaml:"null,omitempty"`
}

type WeakDecl struct {
	Page   uint32 `yaml:"page"`
	Offset uint32 `yaml:"offset"`
}

type MethodDecl struct {
	Name   string      `yaml:"name"`
	Result string      `yaml:"result,omitempty"`
	Params []ParamDecl `yaml:"params,omitempty"`
}

// LoadFile reads a YAML descriptor from path and builds its graph.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("open descriptor %s", path), err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML descriptor and builds its graph.
func Load(r io.Reader) (*Graph, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Descriptor
	if err := dec.Decode(&d); err != nil {
		return nil, errors.ParseFailed("descriptor", err)
	}
	return d.Build()
}

// Build turns the descriptor into a finalized graph.
func (d *Descriptor) Build() (*Graph, error) {
	l := &loader{b: NewBuilder(), names: make(map[string]TypeID, len(d.Types))}

	for i := range d.Types {
		decl := &d.Types[i]
		if decl.Name == "" {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{fmt.Sprintf("types[%d]", i)}, "type declaration without a name")
		}
		if _, dup := l.names[decl.Name]; dup {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{decl.Name}, "duplicate type name")
		}
		l.names[decl.Name] = l.b.Declare(decl.Name)
	}

	for i := range d.Types {
		decl := &d.Types[i]
		src, err := l.define(decl)
		if err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Path(decl.Name).
				Cause(err).
				Detail("define type").
				Build()
		}
		id := l.b.Define(l.names[decl.Name], src)
		if decl.File != "" || decl.Line != 0 || d.Module != "" {
			l.b.Locate(id, d.Module, DebugInfo{File: decl.File, Fn: decl.Fn, Line: decl.Line})
		}
		if decl.Exported {
			l.b.Export(id)
		}
	}

	g, err := l.b.Build()
	if err != nil {
		return nil, err
	}
	Logger().Debug("descriptor loaded",
		zap.String("module", d.Module),
		zap.Int("declared", len(d.Types)),
		zap.Int("nodes", g.Len()))
	return g, nil
}

type loader struct {
	b     *Builder
	names map[string]TypeID
}

func (l *loader) define(d *TypeDecl) (TypeID, error) {
	b := l.b
	switch d.Kind {
	case "ptr", "weak":
		base, err := l.ref(d.Base)
		if err != nil {
			return NoType, err
		}
		if d.Kind == "weak" {
			return b.WeakPointer(base), nil
		}
		return b.Pointer(base), nil

	case "array":
		elem, err := l.ref(d.Base)
		if err != nil {
			return NoType, err
		}
		return b.Array(elem, d.Len), nil

	case "dynarray":
		elem, err := l.ref(d.Base)
		if err != nil {
			return NoType, err
		}
		if d.Variadic {
			return b.Variadic(elem), nil
		}
		return b.DynArray(elem), nil

	case "map":
		key, err := l.ref(d.Key)
		if err != nil {
			return NoType, err
		}
		val, err := l.ref(d.Value)
		if err != nil {
			return NoType, err
		}
		return b.Map(key, val), nil

	case "enum":
		kind := KindInt
		if d.Base != "" {
			k, ok := KindByName(d.Base)
			if !ok || !k.IsInteger() {
				return NoType, fmt.Errorf("enum base %q is not an integer kind", d.Base)
			}
			kind = k
		}
		consts := make([]EnumConst, len(d.Consts))
		for i, c := range d.Consts {
			consts[i] = C(c.Name, c.Value)
		}
		return b.Enum("", kind, consts...), nil

	case "struct":
		specs := make([]FieldSpec, len(d.Fields))
		for i, f := range d.Fields {
			t, err := l.ref(f.Type)
			if err != nil {
				return NoType, fmt.Errorf("field %s: %w", f.Name, err)
			}
			if f.Offset != nil {
				specs[i] = FAt(f.Name, t, *f.Offset)
			} else {
				specs[i] = F(f.Name, t)
			}
		}
		return b.Struct("", specs...), nil

	case "interface":
		methods := make([]Method, len(d.Methods))
		for i, m := range d.Methods {
			params, err := l.params(m.Params)
			if err != nil {
				return NoType, fmt.Errorf("method %s: %w", m.Name, err)
			}
			result, err := l.optRef(m.Result)
			if err != nil {
				return NoType, fmt.Errorf("method %s: %w", m.Name, err)
			}
			methods[i] = M(m.Name, result, params...)
		}
		return b.Interface("", methods...), nil

	case "fn", "closure":
		params, err := l.params(d.Params)
		if err != nil {
			return NoType, err
		}
		result, err := l.optRef(d.Result)
		if err != nil {
			return NoType, err
		}
		switch {
		case d.Kind == "closure":
			return b.Closure(result, params...), nil
		case d.Method:
			return b.MethodFunc(result, params...), nil
		default:
			return b.Func(result, params...), nil
		}

	default:
		if k, ok := KindByName(d.Kind); ok {
			return b.Scalar(k), nil
		}
		return NoType, fmt.Errorf("unknown kind %q", d.Kind)
	}
}

func (l *loader) params(decls []ParamDecl) ([]Param, error) {
	params := make([]Param, len(decls))
	for i, p := range decls {
		t, err := l.ref(p.Type)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Name, err)
		}
		params[i] = P(p.Name, t)
		if p.Default != nil {
			params[i].Default = p.Default.value()
		}
	}
	return params, nil
}

func (d *DefaultDecl) value() Const {
	switch {
	case d.Int != nil:
		return IntConst(*d.Int)
	case d.Uint != nil:
		return UintConst(*d.Uint)
	case d.Real != nil:
		return RealConst(*d.Real)
	case d.Str != nil:
		return StrConst(*d.Str)
	case d.Weak != nil:
		return WeakPtr{PageID: d.Weak.Page, Offset: d.Weak.Offset}
	default:
		return PtrConst(0)
	}
}

func (l *loader) optRef(s string) (TypeID, error) {
	if strings.TrimSpace(s) == "" {
		return NoType, nil
	}
	return l.ref(s)
}

// ref resolves a type reference expression.
func (l *loader) ref(s string) (TypeID, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return NoType, fmt.Errorf("missing type reference")
	case strings.HasPrefix(s, "weak "):
		inner := strings.TrimSpace(strings.TrimPrefix(s, "weak "))
		if !strings.HasPrefix(inner, "^") {
			return NoType, fmt.Errorf("weak reference %q must be a pointer", s)
		}
		base, err := l.ref(inner[1:])
		if err != nil {
			return NoType, err
		}
		return l.b.WeakPointer(base), nil
	case strings.HasPrefix(s, "^"):
		base, err := l.ref(s[1:])
		if err != nil {
			return NoType, err
		}
		return l.b.Pointer(base), nil
	case strings.HasPrefix(s, "[]"):
		elem, err := l.ref(s[2:])
		if err != nil {
			return NoType, err
		}
		return l.b.DynArray(elem), nil
	case strings.HasPrefix(s, "["):
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return NoType, fmt.Errorf("unterminated array length in %q", s)
		}
		n, err := strconv.Atoi(strings.TrimSpace(s[1:end]))
		if err != nil {
			return NoType, fmt.Errorf("array length in %q: %w", s, err)
		}
		elem, err := l.ref(s[end+1:])
		if err != nil {
			return NoType, err
		}
		return l.b.Array(elem, n), nil
	case strings.HasPrefix(s, "map["):
		end := matchBracket(s, len("map"))
		if end < 0 {
			return NoType, fmt.Errorf("unterminated map key in %q", s)
		}
		key, err := l.ref(s[len("map["):end])
		if err != nil {
			return NoType, err
		}
		val, err := l.ref(s[end+1:])
		if err != nil {
			return NoType, err
		}
		return l.b.Map(key, val), nil
	case s == "any":
		return l.b.Any(), nil
	}

	if id, ok := l.names[s]; ok {
		return id, nil
	}
	if k, ok := KindByName(s); ok {
		return l.b.Scalar(k), nil
	}
	return NoType, errors.NotFound(errors.PhaseLoad, "type", s)
}

// matchBracket returns the index of the ']' closing the '[' at open.
func matchBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
