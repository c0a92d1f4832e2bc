package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/ui"
	"github.com/clerk-dev/clerk/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	projectDescription string
	projectForce       bool
	envDescription     string
	envForce           bool
)

func init() {
	projectCreateCmd.Flags().StringVar(&projectDescription, "description", "", "description of the project")
	projectDeleteCmd.Flags().BoolVarP(&projectForce, "force", "f", false, "also delete its environments and variables")

	envCreateCmd.Flags().StringVar(&envDescription, "description", "", "description of the environment")
	envDeleteCmd.Flags().BoolVarP(&envForce, "force", "f", false, "also delete its variables")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectDeleteCmd)

	envCmd.AddCommand(envCreateCmd)
	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envDeleteCmd)
}

func resetHierarchyCommandState() {
	projectDescription = ""
	projectForce = false
	envDescription = ""
	envForce = false
}

// explainHasChildren prints a confirmation hint when err refuses a delete
// because children exist.
func explainHasChildren(cmd *cobra.Command, err error) {
	if errors.Is(err, cerrors.ErrHasChildren) {
		fmt.Fprintln(cmd.OutOrStdout(), ui.Hint("Run again with "+ui.Flag.Sprint("--force")+" to delete everything beneath it"))
	}
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting project create command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			p, err := workflows.CreateProject(ctx, vs.Handle, args[0], projectDescription)
			vs.done()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Ok("Created project "+ui.Highlight.Sprint(p.Name)))
			return nil
		})
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting project list command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			projects, err := workflows.ListProjects(ctx, vs.Handle)
			vs.done()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects yet")
				fmt.Fprintln(out, ui.Hint("Run "+ui.Code.Sprint("clerk project create <name>")+" to add one"))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%d env(s)\t%s\n", p.Name, p.Environments, p.Description)
			}
			return w.Flush()
		})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting project delete command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			res, err := workflows.DeleteProject(ctx, vs.Handle, args[0], projectForce)
			vs.done()
			if err != nil {
				explainHasChildren(cmd, err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Ok(fmt.Sprintf("Deleted project %s with %d environment(s) and %d variable(s)",
				ui.Highlight.Sprint(args[0]), res.Environments, res.Variables)))
			return nil
		})
	},
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage the environments of a project",
}

var envCreateCmd = &cobra.Command{
	Use:   "create <project> <name>",
	Short: "Create an environment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting env create command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			env, err := workflows.CreateEnvironment(ctx, vs.Handle, args[0], args[1], envDescription)
			vs.done()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Ok(fmt.Sprintf("Created environment %s in %s",
				ui.Highlight.Sprint(env.Name), ui.Highlight.Sprint(args[0]))))
			return nil
		})
	},
}

var envListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List the environments of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting env list command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			envs, err := workflows.ListEnvironments(ctx, vs.Handle, args[0])
			vs.done()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(envs) == 0 {
				fmt.Fprintf(out, "No environments in %s\n", args[0])
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, e := range envs {
				fmt.Fprintf(w, "%s\t%d variable(s)\t%s\n", e.Name, e.Variables, e.Description)
			}
			return w.Flush()
		})
	},
}

var envDeleteCmd = &cobra.Command{
	Use:   "delete <project> <name>",
	Short: "Delete an environment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting env delete command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			n, err := workflows.DeleteEnvironment(ctx, vs.Handle, target(args), envForce)
			vs.done()
			if err != nil {
				explainHasChildren(cmd, err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Ok(fmt.Sprintf("Deleted environment %s with %d variable(s)",
				ui.Highlight.Sprint(args[1]), n)))
			return nil
		})
	},
}
