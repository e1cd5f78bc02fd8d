package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/typerefl/host"
	"github.com/wippyai/typerefl/refl"
)

var entryPoints = []string{"_start", "run", "main"}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <guest.wasm> [function] [arg]...",
		Short: "Run a WebAssembly guest against the reflection host module",
		Long: `Run instantiates a core WebAssembly module with the "refl" host module
and WASI preview1 available as imports, then calls one of its exports.

Without a function name the first of _start, run and main that the guest
exports is called. Arguments are type names of the descriptor, which pass as
their handles, or integers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reflector()
			if err != nil {
				return err
			}
			wasm, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read guest: %w", err)
			}
			var fn string
			if len(args) > 1 {
				fn = args[1]
			}
			var rest []string
			if len(args) > 2 {
				rest = args[2:]
			}
			return a.runGuest(cmd, r, wasm, fn, rest)
		},
	}
}

func (a *app) runGuest(cmd *cobra.Command, r *refl.Reflector, wasm []byte, fn string, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return fmt.Errorf("instantiate WASI: %w", err)
	}
	if _, err := host.New(r).Instantiate(ctx, rt); err != nil {
		return fmt.Errorf("instantiate %s: %w", host.ModuleName, err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return fmt.Errorf("compile guest: %w", err)
	}
	exports := compiled.ExportedFunctions()
	if fn == "" {
		for _, name := range entryPoints {
			if _, ok := exports[name]; ok {
				fn = name
				break
			}
		}
		if fn == "" {
			return usagef("guest exports none of %s; name a function (exports: %s)",
				strings.Join(entryPoints, ", "), strings.Join(exportNames(exports), ", "))
		}
	}
	def, ok := exports[fn]
	if !ok {
		return usagef("guest does not export %q (exports: %s)", fn, strings.Join(exportNames(exports), ", "))
	}

	params := def.ParamTypes()
	if len(args) != len(params) {
		return usagef("%s takes %d arguments, got %d", fn, len(params), len(args))
	}
	stack := make([]uint64, len(params))
	for i, arg := range args {
		v, err := guestArg(r, arg, params[i])
		if err != nil {
			return err
		}
		stack[i] = v
	}

	cfg := wazero.NewModuleConfig().
		WithStdout(out).
		WithStderr(cmd.ErrOrStderr()).
		WithStartFunctions()
	guest, err := rt.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return fmt.Errorf("instantiate guest: %w", err)
	}
	defer guest.Close(ctx)

	a.log.Debug("calling guest", zap.String("function", fn), zap.Strings("args", args))
	results, err := guest.ExportedFunction(fn).Call(ctx, stack...)
	if err != nil {
		return fmt.Errorf("call %s: %w", fn, err)
	}

	for i, res := range results {
		fmt.Fprintf(out, "%s\n", a.styles.result.Render(formatResult(res, def.ResultTypes()[i])))
	}
	return nil
}

func exportNames(exports map[string]api.FunctionDefinition) []string {
	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// guestArg encodes a type name as its handle and anything else as an integer
// of the parameter's type.
func guestArg(r *refl.Reflector, arg string, vt api.ValueType) (uint64, error) {
	if id, ok := r.Graph().Lookup(arg); ok {
		return api.EncodeU32(uint32(id)), nil
	}
	switch vt {
	case api.ValueTypeI32:
		v, err := strconv.ParseInt(arg, 0, 32)
		if err != nil {
			return 0, usagef("argument %q is neither a type nor an i32", arg)
		}
		return api.EncodeI32(int32(v)), nil
	case api.ValueTypeI64:
		v, err := strconv.ParseInt(arg, 0, 64)
		if err != nil {
			return 0, usagef("argument %q is neither a type nor an i64", arg)
		}
		return api.EncodeI64(v), nil
	case api.ValueTypeF32:
		v, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return 0, usagef("argument %q is not an f32", arg)
		}
		return api.EncodeF32(float32(v)), nil
	case api.ValueTypeF64:
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return 0, usagef("argument %q is not an f64", arg)
		}
		return api.EncodeF64(v), nil
	}
	return 0, usagef("unsupported parameter type %s", api.ValueTypeName(vt))
}

func formatResult(v uint64, vt api.ValueType) string {
	switch vt {
	case api.ValueTypeI32:
		return strconv.FormatInt(int64(api.DecodeI32(v)), 10)
	case api.ValueTypeI64:
		return strconv.FormatInt(int64(v), 10)
	case api.ValueTypeF32:
		return strconv.FormatFloat(float64(api.DecodeF32(v)), 'g', -1, 32)
	case api.ValueTypeF64:
		return strconv.FormatFloat(api.DecodeF64(v), 'g', -1, 64)
	}
	return fmt.Sprintf("%#x", v)
}
