package main

import (
	"os"

	"github.com/AutoProfilingRUC/autoprofiler/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
