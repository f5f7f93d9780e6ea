package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/02loveslollipop/marathon-tracker/services/watcher/internal/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := cmd.NewRootCmd()
	root.SetContext(ctx)
	cmd.Execute(root)
}
