// Command refl inspects Umka type descriptors and serves their reflection
// data to WebAssembly guests.
package main

import "os"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
