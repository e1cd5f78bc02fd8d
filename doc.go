// Package typerefl provides read-only reflection and memory-layout queries over
// the compiled type graph of an embedded, statically typed scripting runtime.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	typerefl/            Root package with Memory and Allocator interfaces
//	├── typegraph/       Immutable type descriptor arena, builder and YAML loader
//	├── layout/          Size, alignment and field offset calculator
//	├── refl/            Type classification and the reflection query service
//	├── seq/             Result sequences materialized into linear memory
//	├── host/            wazero host module exposing reflection to guest code
//	├── witmap/          Projection of reflectable types onto WIT
//	├── errors/          Structured error types for debugging
//	└── cmd/refl/        Command line inspector
//
// # Quick Start
//
// Build a graph and query it:
//
//	b := typegraph.NewBuilder()
//	pair := b.Struct("Pair",
//	    typegraph.F("a", b.Scalar(typegraph.KindInt8)),
//	    typegraph.F("b", b.Scalar(typegraph.KindInt)),
//	)
//	g, err := b.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := refl.New(g)
//	off, _ := r.FieldOffset(pair, "b") // 8
//	fmt.Println(r.Size(pair))          // 16
//
// # Error Model
//
// Category-specific queries return a *errors.Error of kind wrong_category when
// called on the wrong kind of type. Lookup misses are not errors: they return
// documented sentinels (-1, "?", or ("?", 0)).
//
// # Thread Safety
//
// A finalized Graph is immutable and safe for concurrent reads. Reflector and
// layout.Calculator may be shared between goroutines.
package typerefl
