package main

import (
	"os"

	"github.com/djklmr2025/cosmos-den/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
