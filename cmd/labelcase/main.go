// Package main is the entry point for the labelcase binary.
// Its sole responsibility is running the command tree; wiring lives in internal/cli.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkordes/labelcase/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
