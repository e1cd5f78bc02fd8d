// Package seq materializes multi-element reflection results into linear memory.
//
// A result sequence is a dynamic array in the runtime's own representation.
// Its storage is allocated once and sized exactly:
//
//	block:  len u64 | cap u64 | item[0] ... item[n-1]
//	header: type u64 | itemSize u64 | data u64   (data = block + 16)
//
// The caller chooses the record layout by passing a Shape, which is built
// from a dynamic array type of the caller's own graph. Field 0 of the record
// receives the name as a str; field 1 receives an integer, a type handle or
// a string depending on its kind.
//
// Strings use the runtime layout as well: a {len, cap} prefix below the
// returned pointer, the bytes, and a NUL terminator.
//
// LinearMemory is a self-contained memory and allocator for tools and tests.
package seq
