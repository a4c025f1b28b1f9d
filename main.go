package main

import (
	"os"

	"github.com/csexpert/csexpert/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
