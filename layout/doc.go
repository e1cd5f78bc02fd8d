// Package layout computes byte size, alignment and field offsets for every
// kind of type node.
//
// The calculator is an independent reimplementation of the rules the graph
// producer uses when it records field offsets. It never writes offsets back;
// Verify cross-checks its results against the recorded ones so that any
// divergence between the two implementations surfaces as an error.
//
// # Layout Rules
//
//   - Scalars: size equals alignment (int8=1, int16=2, int32=4, int=8, ...)
//   - str, ^T, weak ^T, fn and fiber: one 8-byte word
//   - [N]T: N * size(T), aligned like T
//   - []T and map[K]V: 24- and 16-byte headers aligned to 8
//   - struct, interface, closure: fields laid out sequentially with padding,
//     total rounded to the largest field alignment (at least 1)
//   - void: 0 bytes
//
// Kinds without an in-memory representation report Undefined (-1).
//
// # Usage
//
//	c := layout.NewCalculator(g)
//	info := c.Calculate(id)
//	// info.Size, info.Align, info.Offsets available
package layout
