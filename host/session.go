package host

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/typerefl"
	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/layout"
	"github.com/wippyai/typerefl/refl"
	"github.com/wippyai/typerefl/seq"
	"github.com/wippyai/typerefl/typegraph"
)

// Host serves reflection queries over one graph to guest code. Result shapes
// name dynamic array types of the same graph.
type Host struct {
	r      *refl.Reflector
	calc   *layout.Calculator
	shapes map[typegraph.TypeID]*seq.Shape
	mu     sync.Mutex
}

// New creates a host over r.
func New(r *refl.Reflector) *Host {
	return &Host{
		r:      r,
		calc:   layout.NewCalculator(r.Graph()),
		shapes: make(map[typegraph.TypeID]*seq.Shape),
	}
}

// Reflector returns the query service behind the host.
func (h *Host) Reflector() *refl.Reflector {
	return h.r
}

func (h *Host) shape(t typegraph.TypeID) (*seq.Shape, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.shapes[t]; ok {
		return s, nil
	}
	s, err := seq.NewShape(h.calc, h.r.Graph(), t)
	if err != nil {
		return nil, err
	}
	h.shapes[t] = s
	return s, nil
}

// Session binds the host to the memory of one caller.
type Session struct {
	h    *Host
	mem  typerefl.Memory
	seqs *seq.Builder
}

// Bind creates a session that reads arguments from and writes results to mem.
func (h *Host) Bind(mem typerefl.Memory, alloc typerefl.Allocator) *Session {
	return &Session{h: h, mem: mem, seqs: seq.NewBuilder(mem, alloc, nil)}
}

// writeString copies at most capacity bytes of s to buf and returns the full
// length of s, so a caller can retry with a larger buffer.
func (s *Session) writeString(buf, capacity uint32, str string) (uint32, error) {
	n := uint32(len(str))
	if int(n) != len(str) {
		return 0, errors.Overflow(errors.PhaseHost, nil, len(str), "i32 length")
	}
	if capacity > 0 {
		if err := s.mem.Write(buf, []byte(str[:min(n, capacity)])); err != nil {
			return 0, errors.Wrap(errors.PhaseHost, errors.KindOutOfBounds, err, "write string result")
		}
	}
	return n, nil
}

func (s *Session) readString(ptr, length uint32) (string, error) {
	data, err := s.mem.Read(ptr, length)
	if err != nil {
		return "", errors.Wrap(errors.PhaseHost, errors.KindOutOfBounds, err, "read string argument")
	}
	return string(data), nil
}

// Name writes the name of t into buf.
func (s *Session) Name(t typegraph.TypeID, buf, capacity uint32) (uint32, error) {
	return s.writeString(buf, capacity, s.h.r.Name(t))
}

// DeclarationFile writes the declaring file of t into buf.
func (s *Session) DeclarationFile(t typegraph.TypeID, buf, capacity uint32) (uint32, error) {
	return s.writeString(buf, capacity, s.h.r.DeclarationLocation(t).File)
}

// FieldOffset looks up a field whose name is passed as (ptr, len).
func (s *Session) FieldOffset(t typegraph.TypeID, namePtr, nameLen uint32) (int64, error) {
	name, err := s.readString(namePtr, nameLen)
	if err != nil {
		return refl.UnknownOffset, err
	}
	return s.h.r.FieldOffset(t, name)
}

// EnumVariantName writes the name of the first constant equal to value.
func (s *Session) EnumVariantName(t typegraph.TypeID, value int64, buf, capacity uint32) (uint32, error) {
	name, err := s.h.r.EnumVariantName(t, value)
	if err != nil {
		return 0, err
	}
	return s.writeString(buf, capacity, name)
}

// EnumVariants writes the constants of t as a sequence of shape at dst.
func (s *Session) EnumVariants(t, shape typegraph.TypeID, dst uint32) (uint32, error) {
	vs, err := s.h.r.EnumVariants(t)
	if err != nil {
		return 0, err
	}
	return s.write(shape, dst, seq.Variants(vs))
}

// StructFields writes the fields of t as a sequence of shape at dst.
func (s *Session) StructFields(t, shape typegraph.TypeID, dst uint32) (uint32, error) {
	fs, err := s.h.r.StructFields(t)
	if err != nil {
		return 0, err
	}
	return s.write(shape, dst, seq.Named(fs))
}

// ClosureParams writes the parameters of t as a sequence of shape at dst.
func (s *Session) ClosureParams(t, shape typegraph.TypeID, dst uint32) (uint32, error) {
	ps, err := s.h.r.ClosureParams(t)
	if err != nil {
		return 0, err
	}
	return s.write(shape, dst, seq.Named(ps))
}

// InterfaceMethods writes the methods of t as a sequence of shape at dst.
func (s *Session) InterfaceMethods(t, shape typegraph.TypeID, dst uint32) (uint32, error) {
	ms, err := s.h.r.InterfaceMethods(t)
	if err != nil {
		return 0, err
	}
	return s.write(shape, dst, seq.Named(ms))
}

func (s *Session) write(shape typegraph.TypeID, dst uint32, items []seq.Item) (uint32, error) {
	sh, err := s.h.shape(shape)
	if err != nil {
		return 0, err
	}
	out, err := s.seqs.Write(dst, sh, items)
	if err != nil {
		return 0, err
	}
	Logger().Debug("sequence written",
		zap.Uint32("shape", uint32(shape)),
		zap.Uint32("data", out.Data),
		zap.Int("len", out.Len))
	return uint32(out.Len), nil
}
