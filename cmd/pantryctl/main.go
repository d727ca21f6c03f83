package main

import (
	"fmt"
	"os"

	"pantrycore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pantryctl:", err)
		os.Exit(1)
	}
}
