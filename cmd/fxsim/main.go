package main

import (
	"os"

	"github.com/kenykau/reinforcement-forex/cmd/fxsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
