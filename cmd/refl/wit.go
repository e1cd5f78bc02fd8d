package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/typerefl/witmap"
)

func newWITCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "wit [type]...",
		Short: "Print the WIT projection of types",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reflector()
			if err != nil {
				return err
			}
			if !all && len(args) == 0 {
				return usagef("name at least one type or pass --all")
			}
			p := witmap.New(r.Graph())
			out := cmd.OutOrStdout()

			if all {
				for _, id := range r.Types() {
					if r.Graph().Type(id).Ident == nil {
						continue
					}
					w, err := p.Type(id)
					if err != nil {
						continue
					}
					fmt.Fprintln(out, witDecl(w))
				}
				return nil
			}

			for _, arg := range args {
				t, err := resolveType(r, arg)
				if err != nil {
					return err
				}
				w, err := p.Type(t)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, witDecl(w))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print every named type that has a WIT form")
	return cmd
}
