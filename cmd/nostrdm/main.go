package main

import (
	"os"

	"nostrdm/cmd/nostrdm/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
