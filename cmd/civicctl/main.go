package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	rootcmd "civicvoice/api/cmd/civicctl/root"
	"civicvoice/api/internal/style"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, style.ErrorPrefix, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return rootcmd.New().ExecuteContext(ctx)
}
