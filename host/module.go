package host

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/typegraph"
)

const (
	// ModuleName is the import module guests use for reflection.
	ModuleName = "refl"
	// ReallocExport is the guest function used to allocate result storage.
	ReallocExport = "cabi_realloc"
)

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

type export struct {
	fn      func(ctx context.Context, mod api.Module, stack []uint64) error
	name    string
	params  []api.ValueType
	results []api.ValueType
}

func handle(v uint64) typegraph.TypeID {
	return typegraph.TypeID(api.DecodeU32(v))
}

func boolResult(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (h *Host) session(ctx context.Context, mod api.Module) (*Session, error) {
	mem := mod.Memory()
	if mem == nil {
		return nil, errors.Unsupported(errors.PhaseHost, "caller exports no memory")
	}
	return h.Bind(NewMemory(mem), newReallocAllocator(ctx, mod)), nil
}

// stringExport adapts a (t, ..., buf, cap) -> len query.
func (h *Host) stringExport(name string, extra []api.ValueType, call func(s *Session, stack []uint64) (uint32, error)) export {
	params := append([]api.ValueType{i32}, extra...)
	params = append(params, i32, i32)
	return export{
		name:    name,
		params:  params,
		results: []api.ValueType{i32},
		fn: func(ctx context.Context, mod api.Module, stack []uint64) error {
			s, err := h.session(ctx, mod)
			if err != nil {
				return err
			}
			n, err := call(s, stack)
			stack[0] = api.EncodeU32(n)
			return err
		},
	}
}

// sequenceExport adapts a (t, shape, dst) -> count query.
func (h *Host) sequenceExport(name string, call func(s *Session, t, shape typegraph.TypeID, dst uint32) (uint32, error)) export {
	return export{
		name:    name,
		params:  []api.ValueType{i32, i32, i32},
		results: []api.ValueType{i32},
		fn: func(ctx context.Context, mod api.Module, stack []uint64) error {
			s, err := h.session(ctx, mod)
			if err != nil {
				return err
			}
			n, err := call(s, handle(stack[0]), handle(stack[1]), api.DecodeU32(stack[2]))
			stack[0] = api.EncodeU32(n)
			return err
		},
	}
}

// pureExport adapts a query that touches no guest memory.
func pureExport(name string, results []api.ValueType, call func(t typegraph.TypeID) (uint64, error)) export {
	return export{
		name:    name,
		params:  []api.ValueType{i32},
		results: results,
		fn: func(_ context.Context, _ api.Module, stack []uint64) error {
			v, err := call(handle(stack[0]))
			stack[0] = v
			return err
		},
	}
}

func (h *Host) exports() []export {
	r := h.r
	return []export{
		pureExport("kind", []api.ValueType{i32}, func(t typegraph.TypeID) (uint64, error) {
			return api.EncodeU32(uint32(r.Kind(t))), nil
		}),
		pureExport("size", []api.ValueType{i64}, func(t typegraph.TypeID) (uint64, error) {
			return api.EncodeI64(r.Size(t)), nil
		}),
		pureExport("alignment", []api.ValueType{i64}, func(t typegraph.TypeID) (uint64, error) {
			return api.EncodeI64(r.Alignment(t)), nil
		}),
		pureExport("decl_line", []api.ValueType{i32}, func(t typegraph.TypeID) (uint64, error) {
			return api.EncodeI32(int32(r.DeclarationLocation(t).Line)), nil
		}),
		pureExport("closure_return_type", []api.ValueType{i32}, func(t typegraph.TypeID) (uint64, error) {
			ret, err := r.ClosureReturnType(t)
			return api.EncodeU32(uint32(ret)), err
		}),
		pureExport("closure_is_method", []api.ValueType{i32}, func(t typegraph.TypeID) (uint64, error) {
			ok, err := r.ClosureIsMethod(t)
			return boolResult(ok), err
		}),
		pureExport("closure_has_upvalues", []api.ValueType{i32}, func(t typegraph.TypeID) (uint64, error) {
			ok, err := r.ClosureHasUpvalues(t)
			return boolResult(ok), err
		}),
		pureExport("closure_default_params", []api.ValueType{i32}, func(t typegraph.TypeID) (uint64, error) {
			n, err := r.ClosureDefaultParams(t)
			return api.EncodeI32(int32(n)), err
		}),
		pureExport("underlying_type", []api.ValueType{i32}, func(t typegraph.TypeID) (uint64, error) {
			u, err := r.UnderlyingType(t)
			return api.EncodeU32(uint32(u)), err
		}),
		pureExport("pointer_is_weak", []api.ValueType{i32}, func(t typegraph.TypeID) (uint64, error) {
			ok, err := r.PointerIsWeak(t)
			return boolResult(ok), err
		}),
		pureExport("array_length", []api.ValueType{i64}, func(t typegraph.TypeID) (uint64, error) {
			n, err := r.ArrayLength(t)
			return api.EncodeI64(int64(n)), err
		}),
		pureExport("map_key_type", []api.ValueType{i32}, func(t typegraph.TypeID) (uint64, error) {
			k, err := r.MapKeyType(t)
			return api.EncodeU32(uint32(k)), err
		}),
		pureExport("map_value_type", []api.ValueType{i32}, func(t typegraph.TypeID) (uint64, error) {
			v, err := r.MapValueType(t)
			return api.EncodeU32(uint32(v)), err
		}),
		pureExport("enum_base_kind", []api.ValueType{i32}, func(t typegraph.TypeID) (uint64, error) {
			k, err := r.EnumBaseKind(t)
			return api.EncodeU32(uint32(k)), err
		}),

		h.stringExport("name", nil, func(s *Session, stack []uint64) (uint32, error) {
			return s.Name(handle(stack[0]), api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
		}),
		h.stringExport("decl_file", nil, func(s *Session, stack []uint64) (uint32, error) {
			return s.DeclarationFile(handle(stack[0]), api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
		}),
		h.stringExport("enum_variant_name", []api.ValueType{i64}, func(s *Session, stack []uint64) (uint32, error) {
			return s.EnumVariantName(handle(stack[0]), int64(stack[1]), api.DecodeU32(stack[2]), api.DecodeU32(stack[3]))
		}),
		{
			name:    "field_offset",
			params:  []api.ValueType{i32, i32, i32},
			results: []api.ValueType{i64},
			fn: func(ctx context.Context, mod api.Module, stack []uint64) error {
				s, err := h.session(ctx, mod)
				if err != nil {
					return err
				}
				off, err := s.FieldOffset(handle(stack[0]), api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
				stack[0] = api.EncodeI64(off)
				return err
			},
		},

		h.sequenceExport("enum_variants", (*Session).EnumVariants),
		h.sequenceExport("struct_fields", (*Session).StructFields),
		h.sequenceExport("closure_params", (*Session).ClosureParams),
		h.sequenceExport("interface_methods", (*Session).InterfaceMethods),
	}
}

// Instantiate registers the "refl" host module on rt. A failing query traps
// the calling guest with its structured error.
func (h *Host) Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	builder := rt.NewHostModuleBuilder(ModuleName)

	for _, e := range h.exports() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				if err := e.fn(ctx, mod, stack); err != nil {
					Logger().Debug("host call trapped", zap.String("func", e.name), zap.Error(err))
					panic(err)
				}
			}), e.params, e.results).
			Export(e.name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "instantiate host module")
	}
	Logger().Debug("host module instantiated", zap.String("module", ModuleName), zap.Int("types", h.r.Graph().Len()))
	return mod, nil
}
