package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/clerk-dev/clerk/internal/ui"
	"github.com/clerk-dev/clerk/internal/vault"
	"github.com/clerk-dev/clerk/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	unlockRemember   bool
	statusJSONOutput bool
)

func init() {
	unlockCmd.Flags().BoolVarP(&unlockRemember, "remember", "r", false, "remember the key in the OS keychain")
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "output in JSON format")
}

func resetVaultCommandState() {
	unlockRemember = false
	statusJSONOutput = false
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new vault",
	Long: `Creates a new encrypted vault protected by a master password.

The password must be at least 8 characters. It cannot be recovered, so
keep it somewhere safe.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting create command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			if vs.Vault.Exists() {
				return fmt.Errorf("a vault already exists at %s", ui.Path.Sprint(vs.Vault.Dir()))
			}

			password, err := readPassword("Enter new master password: ")
			if err != nil {
				return err
			}
			confirmation, err := readPassword("Confirm master password: ")
			if err != nil {
				return err
			}

			spinner, cleanup := startSpinner("Creating vault...", cmd.OutOrStdout())
			defer cleanup()

			res, err := workflows.Create(ctx, vs.Handle, workflows.CreateOptions{
				Password:     password,
				Confirmation: confirmation,
			})
			if err != nil {
				return err
			}

			msg := ui.Ok("Vault created at " + ui.Path.Sprint(res.VaultDir))
			if res.SessionSaved {
				msg += "\n" + ui.Hint("Vault is unlocked for this terminal session")
			}
			spinner.FinalMSG = msg
			return nil
		})
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the vault for this terminal session",
	Long: `Verifies the master password and caches it for this terminal session.

With --remember the derived key is also saved in the OS keychain, so later
commands unlock without a password until 'clerk lock'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting unlock command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			res, err := workflows.Unlock(ctx, vs.Handle, workflows.UnlockOptions{Remember: unlockRemember})
			vs.done()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch res.Method {
			case workflows.UnlockedSession:
				fmt.Fprintln(out, ui.Ok("Vault unlocked using the cached session"))
			case workflows.UnlockedKeychain:
				fmt.Fprintln(out, ui.Ok("Vault unlocked using the remembered key"))
			default:
				fmt.Fprintln(out, ui.Ok("Vault unlocked"))
			}
			if res.Remembered {
				fmt.Fprintln(out, ui.Hint("Key remembered in the OS keychain"))
			}
			return nil
		})
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the vault and forget cached credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting lock command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			res, err := workflows.Lock(ctx, vs.Handle)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Ok("Vault locked"))
			if res.SessionCleared {
				Logger.Infof("Session cache removed")
			}
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vault status",
	Long: `Shows where the vault lives, whether it is unlocked and, when a cached
credential is available, how many projects, environments and variables
it holds. Never prompts for a password.

Use --json for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			res, err := workflows.Status(ctx, vs.Handle)
			if err != nil {
				return err
			}

			if statusJSONOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			printStatus(cmd, res)
			return nil
		})
	},
}

func printStatus(cmd *cobra.Command, res *workflows.StatusResult) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Vault:     %s\n", ui.Path.Sprint(res.Dir))
	if res.State == vault.Uninitialized {
		fmt.Fprintln(out, ui.Fail("No vault found"))
		fmt.Fprintln(out, ui.Hint("Run "+ui.Code.Sprint("clerk create")+" to create one"))
		return
	}

	state := ui.Warning.Sprint("locked")
	if res.Unlockable {
		state = ui.Success.Sprint("unlocked")
	}
	fmt.Fprintf(out, "State:     %s\n", state)
	fmt.Fprintf(out, "Session:   %s\n", ui.Toggle(res.SessionActive, "active", "none"))
	fmt.Fprintf(out, "Keychain:  %s\n", ui.Toggle(res.Remembered, "active", "none"))

	if !res.Unlockable {
		fmt.Fprintln(out, ui.Hint("Run "+ui.Code.Sprint("clerk unlock")+" to see vault contents"))
		return
	}

	fmt.Fprintf(out, "Created:   %s\n", ui.Timestamp(res.CreatedAt))
	fmt.Fprintf(out, "Modified:  %s\n", ui.Timestamp(res.LastModified))
	fmt.Fprintf(out, "Timeout:   %s\n", formatTimeout(res.LockTimeout))
	fmt.Fprintf(out, "Contents:  %d project(s), %d environment(s), %d variable(s)\n",
		res.Counts.Projects, res.Counts.Environments, res.Counts.Variables)
}

func formatTimeout(minutes int) string {
	if minutes == 0 {
		return "disabled"
	}
	return fmt.Sprintf("%d minute(s)", minutes)
}

var timeoutCmd = &cobra.Command{
	Use:   "timeout [minutes]",
	Short: "Show or set the idle lock timeout",
	Long: `Shows the idle lock timeout, or sets it when minutes is given.

The timeout is between 0 and 1440 minutes; 0 disables it. It is enforced
by the desktop app, which locks the vault after that long without access.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting timeout command")

		var opts workflows.TimeoutOptions
		if len(args) == 1 {
			m, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid minutes %q", args[0])
			}
			opts.Minutes = &m
		}

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			res, err := workflows.Timeout(ctx, vs.Handle, opts)
			vs.done()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Changed {
				fmt.Fprintln(out, ui.Ok("Lock timeout set to "+formatTimeout(res.Minutes)))
				return nil
			}
			fmt.Fprintln(out, "Lock timeout: "+formatTimeout(res.Minutes))
			return nil
		})
	},
}
