// Package typegraph defines the immutable type descriptor graph that the
// reflection and layout packages query.
//
// Types live in an arena and refer to each other by TypeID, so recursive
// shapes such as a struct holding a pointer to itself need no special
// handling. The payload of a node (field list, enum constants or call
// signature) is a closed sum type selected by the node's kind and flags.
//
// # Key Types
//
//   - Graph: finalized arena, safe for concurrent reads
//   - Builder: the only way to create nodes; records field offsets on Build
//   - Descriptor: YAML form of a graph, see Load and LoadFile
//   - WeakPtr: paged non-owning handle, distinct from strong pointers
//
// Maps are backed by a synthetic struct node describing one storage-tree node
// with slots len, key, data, left and right. The key and data slots point to
// the key and value types.
package typegraph
