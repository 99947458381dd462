package main

import (
	"context"
	"os"

	"github.com/yourusername/pc-builder/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
