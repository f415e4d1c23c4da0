package main

import (
	"flag"

	"github.com/goyek/goyek/v2"
)

// Flags for test task
var (
	testRun  = flag.String("run", "", "Only run tests matching this pattern (for test)")
	testRace = flag.Bool("race", false, "Enable the race detector (for test)")
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"list"}
	}
	goyek.Main(args)
}
