package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/ui"
	"github.com/clerk-dev/clerk/internal/utils"
	"github.com/clerk-dev/clerk/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	setDescription  string
	setFromStdin    bool
	deleteForce     bool
	copyDestProject string
	listShowValues  bool
)

func init() {
	setCmd.Flags().StringVar(&setDescription, "description", "", "description of the variable")
	setCmd.Flags().BoolVar(&setFromStdin, "stdin", false, "read the value from stdin")
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "delete without confirmation")
	copyCmd.Flags().StringVarP(&copyDestProject, "project", "p", "", "destination project (defaults to the source project)")
	listCmd.Flags().BoolVar(&listShowValues, "show-values", false, "print values instead of masking them")
}

func resetVariableCommandState() {
	setDescription = ""
	setFromStdin = false
	deleteForce = false
	copyDestProject = ""
	listShowValues = false
}

var getCmd = &cobra.Command{
	Use:   "get <project> <env> <key>",
	Short: "Print a variable's value",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting get command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			s, err := workflows.Get(ctx, vs.Handle, workflows.GetOptions{Target: target(args), Key: args[2]})
			vs.done()
			if err != nil {
				return err
			}
			defer s.Wipe()

			// Plain value so it can be used in $(clerk get ...).
			fmt.Fprintln(cmd.OutOrStdout(), string(s.Value))
			return nil
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <project> <env> <key> [value]",
	Short: "Create or update a variable",
	Long: `Creates a variable or replaces its value.

Pass --stdin to read the value from a pipe instead of the command line,
which keeps it out of your shell history:

  echo -n "s3cr3t" | clerk set web prod API_KEY --stdin`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting set command")

		var value []byte
		switch {
		case setFromStdin && len(args) == 4:
			return fmt.Errorf("give the value either as an argument or with --stdin, not both")
		case setFromStdin:
			v, err := utils.ReadStdin()
			if err != nil {
				return err
			}
			value = v
			// stdin is taken, so any password prompt must use the terminal.
			if utils.IsTTYAvailable() {
				readPassword = utils.ReadPassphraseFromTTY
			} else {
				Logger.Debugf("No terminal available, relying on cached credentials")
			}
		case len(args) == 4:
			value = []byte(args[3])
		default:
			return fmt.Errorf("missing value: pass it as an argument or use --stdin")
		}

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			res, err := workflows.Set(ctx, vs.Handle, workflows.SetOptions{
				Target:      target(args),
				Key:         args[2],
				Value:       value,
				Description: setDescription,
			})
			vs.done()
			if err != nil {
				return err
			}

			verb := "updated"
			if res.Created {
				verb = "created"
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Ok(fmt.Sprintf("Variable %s %s in %s/%s",
				ui.Highlight.Sprint(res.Key), verb, args[0], args[1])))
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <project> <env> <key>",
	Short: "Delete a variable",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting delete command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			err := workflows.Delete(ctx, vs.Handle, workflows.DeleteOptions{
				Target: target(args),
				Key:    args[2],
				Force:  deleteForce,
			})
			vs.done()

			if errors.Is(err, cerrors.ErrConfirmationRequired) {
				Logger.WarnfUser("This will permanently delete %s", ui.Highlight.Sprint(args[2]))
				fmt.Fprintln(cmd.OutOrStdout(), ui.Hint("Run again with "+ui.Flag.Sprint("--force")+" to confirm"))
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Ok("Deleted "+ui.Highlight.Sprint(args[2])))
			return nil
		})
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <project> <env> <key> <dest-env>",
	Short: "Copy a variable to another environment",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting copy command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			res, err := workflows.Copy(ctx, vs.Handle, workflows.CopyOptions{
				Target:          target(args),
				Key:             args[2],
				DestProject:     copyDestProject,
				DestEnvironment: args[3],
			})
			vs.done()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Ok(fmt.Sprintf("Copied %s from %s/%s to %s/%s",
				ui.Highlight.Sprint(res.Key), res.From.Project, res.From.Environment, res.To.Project, res.To.Environment)))
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list <project> <env>",
	Short: "List the variables of an environment",
	Long: `Lists the variables of an environment. Values are masked unless
--show-values is given. Variables that fail to decrypt are reported but do
not hide the others.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting list command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			res, err := workflows.List(ctx, vs.Handle, workflows.ListOptions{Target: target(args)})
			vs.done()
			if err != nil {
				return err
			}
			defer func() {
				for i := range res.Secrets {
					res.Secrets[i].Wipe()
				}
			}()

			out := cmd.OutOrStdout()
			if len(res.Secrets) == 0 && res.DecryptErr == nil {
				fmt.Fprintf(out, "No variables in %s/%s\n", args[0], args[1])
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, s := range res.Secrets {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Key, ui.Mask(string(s.Value), listShowValues), s.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if res.DecryptErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.Fail(res.DecryptErr.Error()))
				return &ExitCodeError{Code: 1}
			}
			return nil
		})
	},
}
