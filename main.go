package main

import (
	"context"
	"os"

	"github.com/kitia/cli/cmd"
)

// version is set via -ldflags at release time.
var version = "dev"

func main() {
	if err := cmd.Execute(context.Background(), version); err != nil {
		os.Exit(1)
	}
}
