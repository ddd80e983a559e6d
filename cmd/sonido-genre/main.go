package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/sonido-genre/pipeline"
)

const usageLine = "sonido-genre <audio_file_path>"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, newApp(os.Stdout, os.Stderr), os.Args[1:])
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code. Every failure is
// reported as a single JSON object on stdout.
func run(ctx context.Context, a *app, args []string) int {
	cmd := newRootCommand(a)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if werr := writeJSON(a.stdout, failure(err)); werr != nil {
			fmt.Fprintln(a.stderr, werr)
		}
		return 1
	}
	return 0
}

func failure(err error) pipeline.ErrorResult {
	if errors.Is(err, pipeline.ErrInvalidArguments) {
		return pipeline.ErrorResult{Error: "Invalid arguments. Usage: " + usageLine}
	}
	return pipeline.Failure(err)
}
