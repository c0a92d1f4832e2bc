package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/clerk-dev/clerk/internal/configs"
	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/ui"
	"github.com/clerk-dev/clerk/internal/workflows"
	"github.com/spf13/cobra"
)

// ExitCodeError asks main to exit with Code without printing anything.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, out io.Writer) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message

	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")

	quiet := !verbose && !debug
	if quiet {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	stopped := false
	cleanup := func() {
		if stopped {
			return
		}
		stopped = true

		if quiet {
			log.SetOutput(os.Stderr)
		}

		// Ensure final message ends with a newline.
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Fprint(out, finalMsg)
		}
	}

	return s, cleanup
}

// vaultSession is an open vault handle plus the spinner shown while the key
// is derived.
type vaultSession struct {
	*workflows.Handle
	out     io.Writer
	cleanup func()
}

// openVault opens the vault selected by the persistent flags. The spinner
// only starts once a password has been typed, so it never hides the prompt.
func openVault(cmd *cobra.Command) (*vaultSession, error) {
	vs := &vaultSession{out: cmd.OutOrStdout()}

	h, err := workflows.OpenHandle(workflows.HandleOptions{
		VaultDir:    configs.Settings.VaultDir,
		UseSession:  !noSession,
		Prompt:      vs.prompt,
		Logger:      Logger,
		Config:      configs.GlobalUserConfig,
		SecureStore: secureStore,
		TempDir:     configs.Settings.TempDir,
	})
	if err != nil {
		return nil, err
	}
	vs.Handle = h
	return vs, nil
}

func (vs *vaultSession) prompt(p string) ([]byte, error) {
	password, err := readPassword(p)
	if err != nil {
		return nil, err
	}
	_, vs.cleanup = startSpinner("Unlocking vault...", vs.out)
	return password, nil
}

// done stops the spinner, if any.
func (vs *vaultSession) done() {
	if vs.cleanup != nil {
		vs.cleanup()
	}
}

// Close stops the spinner and releases the vault. Cached credentials are
// kept for the next command.
func (vs *vaultSession) Close() {
	vs.done()
	if err := vs.Handle.Close(); err != nil {
		Logger.Warnf("Failed to close vault: %v", err)
	}
}

// withVault opens the vault, runs fn and closes it again.
func withVault(cmd *cobra.Command, fn func(ctx context.Context, vs *vaultSession) error) error {
	vs, err := openVault(cmd)
	if err != nil {
		return err
	}
	defer vs.Close()

	return fn(cmd.Context(), vs)
}

// hint returns a follow-up suggestion for common errors, or "".
func hint(err error) string {
	switch {
	case errors.Is(err, cerrors.ErrVaultNotFound):
		return "Run " + ui.Code.Sprint("clerk create") + " to create a vault"
	case errors.Is(err, cerrors.ErrVaultLocked):
		return "Run " + ui.Code.Sprint("clerk unlock") + " first"
	case errors.Is(err, cerrors.ErrProjectNotFound):
		return "Run " + ui.Code.Sprint("clerk project list") + " to see projects"
	case errors.Is(err, cerrors.ErrEnvironmentNotFound):
		return "Run " + ui.Code.Sprint("clerk env list <project>") + " to see environments"
	case errors.Is(err, cerrors.ErrFileExists):
		return "Use " + ui.Flag.Sprint("--force") + " to overwrite it"
	}
	return ""
}

// FormatError renders err for the terminal.
func FormatError(err error) string {
	msg := ui.Fail(err.Error())
	if h := hint(err); h != "" {
		msg += "\n" + ui.Hint(h)
	}
	return msg
}

func target(args []string) workflows.Target {
	return workflows.Target{Project: args[0], Environment: args[1]}
}
