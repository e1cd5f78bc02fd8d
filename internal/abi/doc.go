// Package abi provides the alignment and overflow-checked arithmetic shared by
// the layout calculator and the graph builder.
//
// Both sides of the layout contract round offsets with the same AlignTo so
// that a divergence can only come from the packing order, never from rounding.
//
// This package is internal to typerefl.
package abi
