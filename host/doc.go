// Package host exposes the reflection query service to WebAssembly guests as
// the wazero host module "refl".
//
// Type references cross the boundary as i32 handles. String results are
// written into a guest buffer given as (ptr, cap) and the call returns the full
// string length; a result longer than cap is truncated and can be retried.
// Multi-element results take a shape handle (a dynamic array type of the same
// graph, see package seq) and a destination for the 24-byte array header;
// their storage is allocated through the guest's exported cabi_realloc.
//
//	kind(t) -> i32                     size(t) -> i64
//	alignment(t) -> i64                name(t, buf, cap) -> i32
//	decl_file(t, buf, cap) -> i32      decl_line(t) -> i32
//	field_offset(t, name, len) -> i64  enum_variant_name(t, v, buf, cap) -> i32
//	enum_variants(t, shape, dst) -> i32
//	struct_fields(t, shape, dst) -> i32
//	closure_params(t, shape, dst) -> i32
//	interface_methods(t, shape, dst) -> i32
//	closure_return_type(t) -> i32      closure_is_method(t) -> i32
//	closure_has_upvalues(t) -> i32     closure_default_params(t) -> i32
//	underlying_type(t) -> i32          pointer_is_weak(t) -> i32
//	array_length(t) -> i64             map_key_type(t) -> i32
//	map_value_type(t) -> i32           enum_base_kind(t) -> i32
//
// A call on a type of the wrong category traps with the *errors.Error
// returned by package refl.
package host
