package typegraph

// Graph is a finalized, immutable arena of type nodes.
// Index 0 is reserved for NoType.
type Graph struct {
	types  []Type
	byName map[string]TypeID
}

// Len returns the number of nodes, excluding the reserved null slot.
func (g *Graph) Len() int {
	if g == nil || len(g.types) == 0 {
		return 0
	}
	return len(g.types) - 1
}

// Valid reports whether id addresses a node.
func (g *Graph) Valid(id TypeID) bool {
	return g != nil && id != NoType && int(id) < len(g.types)
}

// Type returns the node addressed by id, or nil for an invalid reference.
func (g *Graph) Type(id TypeID) *Type {
	if !g.Valid(id) {
		return nil
	}
	return &g.types[id]
}

// IDs returns every node identifier in creation order.
func (g *Graph) IDs() []TypeID {
	ids := make([]TypeID, 0, g.Len())
	for i := 1; i < len(g.types); i++ {
		ids = append(ids, TypeID(i))
	}
	return ids
}

// Lookup finds the first type declared under name.
func (g *Graph) Lookup(name string) (TypeID, bool) {
	if g == nil {
		return NoType, false
	}
	id, ok := g.byName[name]
	return id, ok
}

// MapKeyType follows the synthetic node of a map to its key type.
func (g *Graph) MapKeyType(m TypeID) TypeID {
	return g.mapSlot(m, MapNodeFieldKey)
}

// MapValueType follows the synthetic node of a map to its value type.
func (g *Graph) MapValueType(m TypeID) TypeID {
	return g.mapSlot(m, MapNodeFieldData)
}

func (g *Graph) mapSlot(m TypeID, slot int) TypeID {
	t := g.Type(m)
	if t == nil || t.Kind != KindMap {
		return NoType
	}
	node := g.Type(t.Base)
	if node == nil {
		return NoType
	}
	fields := node.Fields()
	if slot >= len(fields) {
		return NoType
	}
	ptr := g.Type(fields[slot].Type)
	if ptr == nil {
		return NoType
	}
	return ptr.Base
}
