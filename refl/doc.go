// Package refl answers reflection queries over a finalized type graph.
//
// Every node is first mapped to a Category by Classify. Queries that only make
// sense for one category (fields of a struct, variants of an enum, the
// signature of a closure) return an *errors.Error of kind wrong_category when
// called on anything else. Lookups that simply miss are not errors and
// return sentinels instead:
//
//	FieldOffset        -1
//	EnumVariantName    "?"
//	DeclarationLocation ("?", 0)
//	Size, Alignment    -1 for kinds without an in-memory form
//
// Closures and bare functions share the Closure category. For a closure the
// queries look through to the inner function and hide its implicit upvalue
// parameter; a bare function's signature is reported as declared.
//
// A Reflector holds a layout.Calculator and may be shared between goroutines.
package refl
