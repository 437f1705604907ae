// Package main is the entry point for kci.
package main

import (
	"io"
	"os"
	"runtime/debug"

	"github.com/devantler-tech/kci/internal/buildmeta"
	"github.com/devantler-tech/kci/pkg/cli/cmd"
	"github.com/devantler-tech/kci/pkg/cli/ui/errorhandler"
	"github.com/devantler-tech/kci/pkg/utils/notify"
)

func main() {
	exitCode := runSafely(os.Args[1:], runWithArgs, os.Stderr)

	if exitCode != errorhandler.ExitOK {
		os.Exit(exitCode)
	}
}

//nolint:nonamedreturns // Named return simplifies panic recovery logic.
func runSafely(args []string, runner func([]string) int, errWriter io.Writer) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			notify.WriteMessage(notify.Message{
				Type:    notify.ErrorType,
				Content: "panic recovered: %v\n%s",
				Args:    []any{r, debug.Stack()},
				Writer:  errWriter,
			})

			exitCode = errorhandler.ExitFailure
		}
	}()

	exitCode = runner(args)

	return exitCode
}

func runWithArgs(args []string) int {
	rootCmd := cmd.NewRootCmd(buildmeta.Version, buildmeta.Commit, buildmeta.Date)
	rootCmd.SetArgs(args)

	exitCode, err := cmd.Execute(rootCmd)
	if err != nil {
		notify.Errorf(rootCmd.ErrOrStderr(), "%v", err)
	}

	return exitCode
}
