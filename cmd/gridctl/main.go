// Command gridctl validates, imports and exports table CSV files against a
// column set, reading and writing the same snapshot documents as the server.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
