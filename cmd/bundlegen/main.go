package main

import (
	"os"

	"github.com/sghaida/bundlegen/cmd/bundlegen/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
