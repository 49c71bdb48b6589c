// Package main implements the balanceguard command line tool.
// balanceguard checks proposed game balance changes against the rule catalog
// and prints a report, exiting non-zero when a change is rejected.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "balanceguard"
)

// Exit codes
const (
	exitRejected = 1
	exitFailure  = 2
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(exitFailure)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := newCLI()
	defer c.close(context.WithoutCancel(ctx))

	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, errRejected):
		return exitRejected
	default:
		_, _ = fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return exitFailure
	}
}
