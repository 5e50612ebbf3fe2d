package main

import (
	"os"

	"stixgate/internal/interfaces/cli/worker"
)

func main() {
	if err := worker.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
