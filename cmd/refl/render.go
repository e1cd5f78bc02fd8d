package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.bytecodealliance.org/wit"
	"golang.org/x/term"
)

// styles are the lipgloss styles of one invocation. Without color every
// style renders its input unchanged.
type styles struct {
	title    lipgloss.Style
	name     lipgloss.Style
	typ      lipgloss.Style
	selected lipgloss.Style
	result   lipgloss.Style
	err      lipgloss.Style
	help     lipgloss.Style
	header   lipgloss.Style
	cell     lipgloss.Style
}

func newStyles(color bool) styles {
	cell := lipgloss.NewStyle().Padding(0, 1)
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			title: plain, name: plain, typ: plain, selected: plain,
			result: plain, err: plain, help: plain, header: cell, cell: cell,
		}
	}
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		name: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")),
		typ: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")),
		selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")),
		result: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90")),
		err: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")),
		header: cell.Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		cell:   cell,
	}
}

// colorEnabled reports whether w is a terminal and color was requested.
func colorEnabled(want bool, w io.Writer) bool {
	if !want {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// isTerminal reports whether both ends of the session are terminals.
func isTerminal(in io.Reader, out io.Writer) bool {
	fi, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(fi.Fd())) {
		return false
	}
	fo, ok := out.(*os.File)
	return ok && term.IsTerminal(int(fo.Fd()))
}

func witTypeStr(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		switch k := v.Kind.(type) {
		case *wit.List:
			return "list<" + witTypeStr(k.Type) + ">"
		case *wit.Tuple:
			parts := make([]string, len(k.Types))
			for i, e := range k.Types {
				parts[i] = witTypeStr(e)
			}
			return "tuple<" + strings.Join(parts, ", ") + ">"
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}

// witDecl renders the declaration of a named record or enum, or the type
// expression of anything else.
func witDecl(t wit.Type) string {
	td, ok := t.(*wit.TypeDef)
	if !ok || td.Name == nil {
		return witTypeStr(t)
	}

	var b strings.Builder
	switch k := td.Kind.(type) {
	case *wit.Record:
		fmt.Fprintf(&b, "record %s {\n", *td.Name)
		for _, f := range k.Fields {
			fmt.Fprintf(&b, "    %s: %s,\n", f.Name, witTypeStr(f.Type))
		}
		b.WriteString("}")
	case *wit.Enum:
		fmt.Fprintf(&b, "enum %s {\n", *td.Name)
		for _, c := range k.Cases {
			fmt.Fprintf(&b, "    %s,\n", c.Name)
		}
		b.WriteString("}")
	default:
		return witTypeStr(t)
	}
	return b.String()
}
