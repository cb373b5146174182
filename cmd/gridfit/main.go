// Command gridfit runs surface fitting jobs described in YAML files.
//
// Usage:
//
//	gridfit fit job.yaml --tiff depth.tif --preview depth.png
//	gridfit grid job.yaml --levels 3
//	gridfit version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "gridfit:", err)
		stop()
		os.Exit(1)
	}
}
