package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"virtualtourist/pkg/graceful"
)

const version = "0.1.0"

func main() {
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	if err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version)); err != nil {
		cancel()
		os.Exit(1)
	}
}
