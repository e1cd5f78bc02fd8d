package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/wippyai/typerefl/refl"
)

func newInspectCmd(a *app) *cobra.Command {
	var named bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List every type of the descriptor with its layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reflector()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), typeTable(r, named, a.styles))
			return nil
		},
	}
	cmd.Flags().BoolVar(&named, "named", false, "only list types with a declared name")
	return cmd
}

func typeTable(r *refl.Reflector, named bool, st styles) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "CATEGORY", "NAME", "SIZE", "ALIGN").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.header
			}
			return st.cell
		})

	for _, id := range r.Types() {
		if named && r.Graph().Type(id).Ident == nil {
			continue
		}
		t.Row(
			strconv.FormatUint(uint64(id), 10),
			r.Kind(id).String(),
			r.Name(id),
			layoutValue(r.Size(id)),
			layoutValue(r.Alignment(id)),
		)
	}
	return t.Render()
}

func layoutValue(v int64) string {
	if v < 0 {
		return "-"
	}
	return strconv.FormatInt(v, 10)
}
