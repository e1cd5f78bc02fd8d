package typegraph

import "fmt"

// Const is a compile-time constant, used for default parameter values.
type Const interface {
	isConst()
	String() string
}

type IntConst int64

type UintConst uint64

type RealConst float64

type StrConst string

// PtrConst is a raw address constant. Only the null pointer is representable
// in a descriptor, so in practice it is always zero.
type PtrConst uint64

// WeakPtr is a non-owning heap reference: a page identifier and an offset
// within that page. It never aliases the storage of a strong pointer.
type WeakPtr struct {
	PageID uint32
	Offset uint32
}

func (IntConst) isConst()  {}
func (UintConst) isConst() {}
func (RealConst) isConst() {}
func (StrConst) isConst()  {}
func (PtrConst) isConst()  {}
func (WeakPtr) isConst()   {}

func (c IntConst) String() string  { return fmt.Sprintf("%d", int64(c)) }
func (c UintConst) String() string { return fmt.Sprintf("%d", uint64(c)) }
func (c RealConst) String() string { return fmt.Sprintf("%g", float64(c)) }
func (c StrConst) String() string  { return fmt.Sprintf("%q", string(c)) }

func (c PtrConst) String() string {
	if c == 0 {
		return "null"
	}
	return fmt.Sprintf("0x%x", uint64(c))
}

func (w WeakPtr) String() string {
	if w.IsNull() {
		return "null"
	}
	return fmt.Sprintf("weak(%d:%d)", w.PageID, w.Offset)
}

// Pack encodes the handle as (pageID << 32) | offset.
func (w WeakPtr) Pack() uint64 {
	return uint64(w.PageID)<<32 | uint64(w.Offset)
}

// IsNull reports the zero handle.
func (w WeakPtr) IsNull() bool {
	return w.PageID == 0 && w.Offset == 0
}

// UnpackWeakPtr decodes a handle produced by Pack.
func UnpackWeakPtr(v uint64) WeakPtr {
	return WeakPtr{PageID: uint32(v >> 32), Offset: uint32(v)}
}
