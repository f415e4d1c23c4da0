package main

import (
	"fmt"
	"os"

	"github.com/sokinpui/branchwire"
)

func main() {
	if err := branchwire.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
