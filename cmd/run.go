package cmd

import (
	"context"
	"fmt"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/workflows"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <project> <env> -- <command> [args...]",
	Short: "Run a command with an environment's variables",
	Long: `Runs a command with every variable of the environment added to its
environment, overriding inherited variables of the same name. Clerk exits
with the command's exit code.

  clerk run web dev -- npm start`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting run command")

		command := args[2:]
		if dash := cmd.ArgsLenAtDash(); dash >= 0 {
			if dash != 2 {
				return fmt.Errorf("expected %s", cmd.Use)
			}
			command = args[dash:]
		}
		if len(command) == 0 {
			return cerrors.ErrNoCommand
		}

		var code int
		err := withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			// Unlock first so the spinner is gone before the child writes.
			if _, err := vs.Unlock(ctx, false); err != nil {
				return err
			}
			vs.done()

			res, err := workflows.Run(ctx, vs.Handle, workflows.RunOptions{
				Target:  target(args),
				Command: command,
				Stdin:   cmd.InOrStdin(),
				Stdout:  cmd.OutOrStdout(),
				Stderr:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			code = res.ExitCode
			return nil
		})
		if err != nil {
			return err
		}
		if code != 0 {
			return &ExitCodeError{Code: code}
		}
		return nil
	},
}
