package main

import (
	"os"

	"github.com/tsnc-lang/tsnc/cmd/tsnc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
