package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/layout"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Cross-check recorded field offsets against computed layouts",
		Long: `Verify recomputes the layout of every struct, interface and closure
and compares each field offset with the offset recorded in the descriptor.
It exits with status 1 if any offset diverges.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reflector()
			if err != nil {
				return err
			}
			g := r.Graph()
			calc := layout.NewCalculator(g)
			out := cmd.OutOrStdout()

			failed := 0
			for _, id := range g.IDs() {
				if err := calc.Check(id); err != nil {
					failed++
					fmt.Fprintf(out, "%s %s\n", a.styles.err.Render("FAIL"), err)
				}
			}
			a.log.Info("layout verification finished", zap.Int("types", g.Len()), zap.Int("failed", failed))
			if failed > 0 {
				return errors.New(errors.PhaseLayout, errors.KindLayoutMismatch).
					Detail("%d of %d types diverge", failed, g.Len()).
					Build()
			}
			fmt.Fprintf(out, "%s %d types\n", a.styles.result.Render("ok"), g.Len())
			return nil
		},
	}
}
