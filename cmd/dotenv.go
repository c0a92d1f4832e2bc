package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/clerk-dev/clerk/internal/ui"
	"github.com/clerk-dev/clerk/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	exportOutput    string
	exportForce     bool
	importOverwrite bool
	initOutput      string
	initForce       bool
	initDescription string
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to this file instead of stdout")
	exportCmd.Flags().BoolVarP(&exportForce, "force", "f", false, "overwrite the output file")

	importCmd.Flags().BoolVar(&importOverwrite, "overwrite", false, "replace variables that already exist")

	initCmd.Flags().StringVarP(&initOutput, "output", "o", workflows.DefaultEnvFile, "file to write")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite the output file")
	initCmd.Flags().StringVar(&initDescription, "description", "", "description for a new project")
}

func resetDotenvCommandState() {
	exportOutput = ""
	exportForce = false
	importOverwrite = false
	initOutput = workflows.DefaultEnvFile
	initForce = false
	initDescription = ""
}

var exportCmd = &cobra.Command{
	Use:   "export <project> <env>",
	Short: "Export an environment as a .env file",
	Long: `Writes every variable of an environment in dotenv format, to stdout or
to the file given with --output. Fails without writing anything if any
variable cannot be decrypted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting export command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			res, err := workflows.Export(ctx, vs.Handle, workflows.ExportOptions{
				Target:     target(args),
				OutputPath: exportOutput,
				Overwrite:  exportForce,
				Out:        cmd.OutOrStdout(),
			})
			vs.done()
			if err != nil {
				return err
			}

			if res.OutputPath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Ok(fmt.Sprintf("Exported %d variable(s) to %s",
					res.Count, ui.Path.Sprint(res.OutputPath))))
			}
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <project> <env> <file>",
	Short: "Import variables from a .env file",
	Long: `Reads KEY=value lines from a dotenv file. Blank lines and comments are
ignored and surrounding quotes are removed. Variables that already exist
are skipped unless --overwrite is given.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting import command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			res, err := workflows.Import(ctx, vs.Handle, workflows.ImportOptions{
				Target:    target(args),
				FilePath:  args[2],
				Overwrite: importOverwrite,
			})
			vs.done()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Ok(fmt.Sprintf("Imported into %s/%s: %d created, %d updated, %d skipped",
				args[0], args[1], len(res.Created), len(res.Updated), len(res.Skipped))))
			if len(res.Skipped) > 0 {
				fmt.Fprintln(out, ui.Hint("Skipped existing: "+strings.Join(res.Skipped, ", ")))
				fmt.Fprintln(out, ui.Hint("Use "+ui.Flag.Sprint("--overwrite")+" to replace them"))
			}
			return nil
		})
	},
}

var initCmd = &cobra.Command{
	Use:   "init <project> <env>",
	Short: "Set up a project environment and write its .env file",
	Long: `Creates the project and environment if they do not exist yet, then
writes the environment's variables to a .env file in the current
directory. An existing file is kept unless --force is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			res, err := workflows.Init(ctx, vs.Handle, workflows.InitOptions{
				Target:      target(args),
				Description: initDescription,
				OutputPath:  initOutput,
				Force:       initForce,
			})
			vs.done()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.ProjectCreated {
				fmt.Fprintln(out, ui.Ok("Created project "+ui.Highlight.Sprint(args[0])))
			}
			if res.EnvironmentCreated {
				fmt.Fprintln(out, ui.Ok("Created environment "+ui.Highlight.Sprint(args[1])))
			}
			fmt.Fprintln(out, ui.Ok(fmt.Sprintf("Wrote %d variable(s) to %s", res.Count, ui.Path.Sprint(res.OutputPath))))
			fmt.Fprintln(out, ui.Warning.Sprint("⚠")+" Never commit .env files to version control")
			return nil
		})
	},
}
