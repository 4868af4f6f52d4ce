package main

import (
	"os"

	"github.com/plugshell/plugshell/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
