package layout

import (
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/typegraph"
)

// Check compares the recorded field offsets of t with the computed ones.
// Non-aggregates always pass.
func (c *Calculator) Check(t typegraph.TypeID) error {
	typ := c.graph.Type(t)
	if typ == nil {
		return errors.InvalidHandle(errors.PhaseLayout, uint32(t))
	}
	if !typ.Kind.IsAggregate() {
		return nil
	}

	name := typeLabel(typ)
	info := c.Calculate(t)
	if !info.Defined() {
		return errors.New(errors.PhaseLayout, errors.KindLayoutMismatch).
			TypeName(name).
			Detail("recorded aggregate has no computable layout").
			Build()
	}

	var errs []error
	for i, f := range typ.Fields() {
		if f.Offset != info.Offsets[i] {
			Logger().Warn("field offset diverges",
				zap.String("type", name),
				zap.String("field", f.Name),
				zap.Int64("recorded", f.Offset),
				zap.Int64("computed", info.Offsets[i]))
			errs = append(errs, errors.LayoutMismatch(name, f.Name, f.Offset, info.Offsets[i]))
		}
	}
	return stderrors.Join(errs...)
}

// Verify cross-checks every node of g and joins all divergences.
func Verify(g *typegraph.Graph) error {
	c := NewCalculator(g)
	var errs []error
	for _, id := range g.IDs() {
		if err := c.Check(id); err != nil {
			errs = append(errs, err)
		}
	}
	Logger().Debug("layout verified", zap.Int("types", g.Len()), zap.Int("failures", len(errs)))
	return stderrors.Join(errs...)
}

func typeLabel(t *typegraph.Type) string {
	if name := t.Name(); name != "" {
		return name
	}
	return t.Kind.String()
}
