// Command covert covers value graphs with change tracking, runs change
// scenarios and reads journaled change feeds.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/covert/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
