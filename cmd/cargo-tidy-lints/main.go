package main

import (
	"os"

	"github.com/salchaD-27/cargo-tidy-lints/cmd/cargo-tidy-lints/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
