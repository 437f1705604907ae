package cmd

import (
	"fmt"

	"github.com/devantler-tech/kci/pkg/cli/ui/errorhandler"
	"github.com/devantler-tech/kci/pkg/di"
	configmanager "github.com/devantler-tech/kci/pkg/io/config-manager/kci"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with version info and the default runtime.
func NewRootCmd(version, commit, date string) *cobra.Command {
	return NewRootCmdWithRuntime(di.NewRuntime(), version, commit, date)
}

// NewRootCmdWithRuntime creates the root command resolving collaborators from runtimeContainer.
func NewRootCmdWithRuntime(runtimeContainer *di.Runtime, version, commit, date string) *cobra.Command {
	manager := configmanager.NewConfigManager(nil)

	cmd := &cobra.Command{
		Use:   "kci",
		Short: "Build, push and test an image on an ephemeral Kubernetes cluster",
		Long: "kci builds the working copy's image, pushes it, provisions a throwaway kops cluster on AWS,\n" +
			"pre-pulls the image on every worker node and hands the cluster to your test command.\n" +
			"Everything kci creates is deleted again when it exits, unless --no-cleanup is set.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handleRunE(cmd, runtimeContainer, manager)
		},
	}

	cmd.Version = fmt.Sprintf("%s (built on %s from Git SHA %s)", version, date, commit)

	manager.AddFlags(cmd.Flags())

	return cmd
}

// NewExecutor returns the executor main uses to run the root command.
// Invalid configuration maps to the usage exit code.
func NewExecutor() *errorhandler.Executor {
	return errorhandler.NewExecutor(errorhandler.WithUsageErrors(configmanager.ErrInvalidConfiguration))
}

// Execute runs cmd and returns the process exit code alongside any error.
func Execute(cmd *cobra.Command) (int, error) {
	executor := NewExecutor()

	err := executor.Execute(cmd)
	if err != nil {
		return executor.ExitCode(err), fmt.Errorf("command execution failed: %w", err)
	}

	return errorhandler.ExitOK, nil
}
