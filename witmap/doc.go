// Package witmap projects reflectable types onto WIT type definitions from
// go.bytecodealliance.org/wit.
//
//	int8..int, uint8..uint  s8..s64, u8..u64
//	char                    u8 (characters are single bytes)
//	real32, real            f32, f64
//	bool, str               bool, string
//	struct                  record (named structs keep a kebab-case name)
//	expression list         tuple
//	enum                    enum when its values are 0..n-1, else its integer kind
//	[]T                     list<T>
//	[N]T                    tuple of N elements
//	map[K]V                 list<tuple<K, V>>
//
// Pointers, closures, interfaces, fibers, functions and void have no WIT
// counterpart and report an unsupported error naming the field path.
package witmap
