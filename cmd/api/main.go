// Command api serves the usuarios HTTP API and its maintenance tasks.
package main

import (
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
