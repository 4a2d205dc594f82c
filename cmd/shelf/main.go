package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/five82/shelf/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	root := cli.NewRootCmd(version)
	if err := fang.Execute(context.Background(), root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		return 1
	}
	return 0
}
