// lolpig generates CPython extension bindings for annotated C++ code.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/phobologic/lolpig/internal/cli"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand(stdout, stderr, version)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
