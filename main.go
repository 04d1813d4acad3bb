package main

import (
	"os"

	"github.com/wiredom/wiredom/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
