package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/refl"
	"github.com/wippyai/typerefl/typegraph"
	"github.com/wippyai/typerefl/witmap"
)

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <type>...",
		Short: "Show the reflection data of types",
		Long: `Describe prints everything reflection knows about each type: its
category, declaration site, size and alignment, the category-specific
details (fields with offsets, enum variants, parameters, methods, element,
key and value types) and its WIT projection when one exists.

Types are given by declared name or by handle (a number, optionally
prefixed with #).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reflector()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, arg := range args {
				t, err := resolveType(r, arg)
				if err != nil {
					return err
				}
				text, err := describeType(r, t, a.styles)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprint(out, text)
			}
			return nil
		},
	}
}

// resolveType finds a type by declared name or by handle.
func resolveType(r *refl.Reflector, arg string) (typegraph.TypeID, error) {
	g := r.Graph()
	if id, ok := g.Lookup(arg); ok {
		return id, nil
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(arg, "#"), 10, 32)
	if err != nil {
		return typegraph.NoType, errors.NotFound(errors.PhaseReflect, "type", arg)
	}
	id := typegraph.TypeID(n)
	if !g.Valid(id) {
		return typegraph.NoType, errors.InvalidHandle(errors.PhaseReflect, uint32(n))
	}
	return id, nil
}

// typeRef spells a referenced type as "name #id".
func typeRef(r *refl.Reflector, t typegraph.TypeID) string {
	return fmt.Sprintf("%s #%d", r.Name(t), t)
}

func describeType(r *refl.Reflector, t typegraph.TypeID, st styles) (string, error) {
	cat := r.Kind(t)
	if cat == refl.Invalid {
		return "", errors.InvalidHandle(errors.PhaseReflect, uint32(t))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s #%d\n", st.title.Render(r.Name(t)), st.typ.Render(cat.String()), t)
	if loc := r.DeclarationLocation(t); loc.File != refl.UnknownName {
		fmt.Fprintf(&b, "declared at %s:%d\n", loc.File, loc.Line)
	}
	if size := r.Size(t); size < 0 {
		b.WriteString("layout: undefined\n")
	} else {
		fmt.Fprintf(&b, "size %d, align %d\n", size, r.Alignment(t))
	}

	var err error
	switch cat {
	case refl.Struct:
		err = describeStruct(&b, r, t, st)
	case refl.Enum:
		err = describeEnum(&b, r, t, st)
	case refl.Closure:
		err = describeClosure(&b, r, t, st)
	case refl.Interface:
		err = describeInterface(&b, r, t, st)
	case refl.Pointer:
		err = describePointer(&b, r, t)
	case refl.FixedArray, refl.DynamicArray:
		err = describeArray(&b, r, t, cat)
	case refl.Map:
		err = describeMap(&b, r, t)
	}
	if err != nil {
		return "", err
	}

	if w, err := witmap.ToWIT(r.Graph(), t); err == nil {
		fmt.Fprintf(&b, "wit: %s\n", st.result.Render(witTypeStr(w)))
	}
	return b.String(), nil
}

func describeStruct(b *strings.Builder, r *refl.Reflector, t typegraph.TypeID, st styles) error {
	fields, err := r.StructFields(t)
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "fields (%d):\n", len(fields))
	for _, f := range fields {
		off, err := r.FieldOffset(t, f.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "  %-4d %s %s\n", off, st.name.Render(f.Name), st.typ.Render(typeRef(r, f.Type)))
	}
	return nil
}

func describeEnum(b *strings.Builder, r *refl.Reflector, t typegraph.TypeID, st styles) error {
	base, err := r.EnumBaseKind(t)
	if err != nil {
		return err
	}
	variants, err := r.EnumVariants(t)
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "base kind %s\nvariants (%d):\n", base, len(variants))
	for _, v := range variants {
		fmt.Fprintf(b, "  %s = %d\n", st.name.Render(v.Name), v.Value)
	}
	return nil
}

func describeClosure(b *strings.Builder, r *refl.Reflector, t typegraph.TypeID, st styles) error {
	params, err := r.ClosureParams(t)
	if err != nil {
		return err
	}
	ret, err := r.ClosureReturnType(t)
	if err != nil {
		return err
	}
	defaults, err := r.ClosureDefaultParams(t)
	if err != nil {
		return err
	}
	method, err := r.ClosureIsMethod(t)
	if err != nil {
		return err
	}
	upvalues, err := r.ClosureHasUpvalues(t)
	if err != nil {
		return err
	}

	fmt.Fprintf(b, "returns %s\n", st.typ.Render(typeRef(r, ret)))
	fmt.Fprintf(b, "method %t, upvalues %t, defaulted params %d\n", method, upvalues, defaults)
	writeNamed(b, r, "params", params, st)
	return nil
}

func describeInterface(b *strings.Builder, r *refl.Reflector, t typegraph.TypeID, st styles) error {
	methods, err := r.InterfaceMethods(t)
	if err != nil {
		return err
	}
	writeNamed(b, r, "methods", methods, st)
	return nil
}

func describePointer(b *strings.Builder, r *refl.Reflector, t typegraph.TypeID) error {
	target, err := r.UnderlyingType(t)
	if err != nil {
		return err
	}
	weak, err := r.PointerIsWeak(t)
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "points to %s (weak %t)\n", typeRef(r, target), weak)
	return nil
}

func describeArray(b *strings.Builder, r *refl.Reflector, t typegraph.TypeID, cat refl.Category) error {
	item, err := r.UnderlyingType(t)
	if err != nil {
		return err
	}
	if cat == refl.FixedArray {
		n, err := r.ArrayLength(t)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "length %d\n", n)
	}
	fmt.Fprintf(b, "item %s\n", typeRef(r, item))
	return nil
}

func describeMap(b *strings.Builder, r *refl.Reflector, t typegraph.TypeID) error {
	key, err := r.MapKeyType(t)
	if err != nil {
		return err
	}
	value, err := r.MapValueType(t)
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "key %s\nvalue %s\n", typeRef(r, key), typeRef(r, value))
	return nil
}

func writeNamed(b *strings.Builder, r *refl.Reflector, title string, items []refl.NamedType, st styles) {
	fmt.Fprintf(b, "%s (%d):\n", title, len(items))
	for _, it := range items {
		fmt.Fprintf(b, "  %s %s\n", st.name.Render(it.Name), st.typ.Render(typeRef(r, it.Type)))
	}
}
