package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	drawcmd "github.com/louisbranch/fairdraw/internal/cmd/draw"
	"github.com/louisbranch/fairdraw/internal/platform/config"
)

func main() {
	cfg, err := drawcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.ExitCodef(config.ExitUsage, "parse config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := drawcmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		stop()
		config.Exitf("draw: %v", err)
	}
}
