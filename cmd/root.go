package cmd

import (
	"fmt"

	"github.com/clerk-dev/clerk/internal/configs"
	"github.com/clerk-dev/clerk/internal/credcache"
	logger "github.com/clerk-dev/clerk/internal/logging"
	"github.com/clerk-dev/clerk/internal/ui"
	"github.com/clerk-dev/clerk/internal/utils"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	debug     bool
	noSession bool
	vaultDir  string
	Logger    logger.Logger

	// secureStore backs the keychain cache. Nil means the OS keyring.
	secureStore credcache.SecureStore

	// readPassword reads the master password. Replaced in tests.
	readPassword = utils.ReadPassphrase

	ClerkCmd = &cobra.Command{
		Use:   "clerk",
		Short: "Clerk - a local, encrypted store for environment variables",
		Long: `Clerk keeps environment variables for your projects in an encrypted
local vault, organized as projects and environments.

Unlock the vault once per terminal session; later commands reuse the
session until you run 'clerk lock'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
				Out:     cmd.OutOrStdout(),
				Err:     cmd.ErrOrStderr(),
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.Name(), verbose, debug)

			configs.SetVaultDir(vaultDir)
			Logger.Debugf("Vault directory: %s", configs.Settings.VaultDir)

			cfg, err := configs.LoadUserConfig()
			if err != nil {
				return Logger.ErrorfAndReturn("failed to load %s: %v", configs.UserConfigPath(), err)
			}
			configs.GlobalUserConfig = cfg
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), figure.NewFigure("clerk", "", true).String())
			fmt.Fprintln(cmd.OutOrStdout(), ui.Hint("Run "+ui.Code.Sprint("clerk --help")+" to see available commands"))
		},
	}
)

func init() {
	flags := ClerkCmd.PersistentFlags()
	flags.StringVarP(&vaultDir, "vault-dir", "D", "", "vault directory (env "+configs.VaultDirEnv+")")
	flags.BoolVarP(&noSession, "no-session", "S", false, "do not read or write the session password cache")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&debug, "debug", "d", false, "enable debug output")

	ClerkCmd.AddCommand(createCmd)
	ClerkCmd.AddCommand(unlockCmd)
	ClerkCmd.AddCommand(lockCmd)
	ClerkCmd.AddCommand(statusCmd)
	ClerkCmd.AddCommand(timeoutCmd)

	ClerkCmd.AddCommand(getCmd)
	ClerkCmd.AddCommand(setCmd)
	ClerkCmd.AddCommand(deleteCmd)
	ClerkCmd.AddCommand(copyCmd)
	ClerkCmd.AddCommand(listCmd)

	ClerkCmd.AddCommand(exportCmd)
	ClerkCmd.AddCommand(importCmd)
	ClerkCmd.AddCommand(initCmd)
	ClerkCmd.AddCommand(runCmd)

	ClerkCmd.AddCommand(projectCmd)
	ClerkCmd.AddCommand(envCmd)
	ClerkCmd.AddCommand(auditCmd)
}

// Helper functions for testing

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	noSession = false
	vaultDir = ""
	secureStore = nil
	readPassword = utils.ReadPassphrase
	resetVariableCommandState()
	resetDotenvCommandState()
	resetHierarchyCommandState()
	resetAuditCommandState()
	resetVaultCommandState()
}

// SetSecureStore replaces the OS keyring for testing.
func SetSecureStore(s credcache.SecureStore) {
	secureStore = s
}

// SetPasswordReader replaces the password prompt for testing.
func SetPasswordReader(fn func(prompt string) ([]byte, error)) {
	readPassword = fn
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
