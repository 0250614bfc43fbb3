package main

import (
	"os"

	"github.com/projectyui/yui/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
