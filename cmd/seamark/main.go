package main

import (
	"os"

	"github.com/seamark-project/backend/cmd/seamark/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
