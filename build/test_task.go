package main

import (
	"os"
	"os/exec"

	"github.com/goyek/goyek/v2"
)

func goCmd(a *goyek.A, args ...string) {
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			a.Errorf("go %s failed (exit code %d)", args[0], exitErr.ExitCode())
		} else {
			a.Fatalf("Failed to run go %s: %v", args[0], err)
		}
	}
}

// Test runs the unit tests
var Test = goyek.Define(goyek.Task{
	Name:  "test",
	Usage: "Run unit tests. Use -run to filter, -race for the race detector",
	Action: func(a *goyek.A) {
		args := []string{"test"}
		if *testRace {
			args = append(args, "-race")
		}
		if *testRun != "" {
			args = append(args, "-run", *testRun)
		}
		goCmd(a, append(args, "./...")...)
	},
})

// Vet runs go vet
var Vet = goyek.Define(goyek.Task{
	Name:  "vet",
	Usage: "Run go vet",
	Action: func(a *goyek.A) {
		goCmd(a, "vet", "./...")
	},
})
