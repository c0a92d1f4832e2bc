// Package cmd contains testing utilities shared between command tests.
// This file provides common functions for setting up isolated vault
// directories, running the CLI and capturing its output.
package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/clerk-dev/clerk/internal/configs"
)

const testPassword = "correct horse battery"

// testEnv is an isolated vault directory plus the fake keyring and
// password reader used by every command in a test.
type testEnv struct {
	vaultDir string
	ring     keyring.Keyring
	password string
	prompts  int

	// answers, when set, are returned by successive prompts before
	// falling back to password.
	answers []string
}

// setupTestEnvironment points the CLI at temporary directories and an
// in-memory keyring. Everything is restored when the test ends.
func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	original := *configs.Settings
	originalConfig := configs.GlobalUserConfig
	t.Cleanup(func() {
		*configs.Settings = original
		configs.GlobalUserConfig = originalConfig
		ResetGlobalState()
	})

	root := t.TempDir()
	configs.Settings.UserConfigsPath = filepath.Join(root, "config")
	configs.Settings.TempDir = root

	env := &testEnv{
		vaultDir: filepath.Join(root, "vault"),
		ring:     keyring.NewArrayKeyring(nil),
		password: testPassword,
	}
	return env
}

// run executes the CLI with args and returns everything written to stdout
// and stderr.
func (e *testEnv) run(args ...string) (string, error) {
	ResetGlobalState()
	SetSecureStore(e.ring)
	SetPasswordReader(func(string) ([]byte, error) {
		e.prompts++
		if len(e.answers) > 0 {
			answer := e.answers[0]
			e.answers = e.answers[1:]
			return []byte(answer), nil
		}
		return []byte(e.password), nil
	})

	var out bytes.Buffer
	ClerkCmd.SetOut(&out)
	ClerkCmd.SetErr(&out)
	ClerkCmd.SetArgs(append([]string{"--vault-dir", e.vaultDir}, args...))

	err := ClerkCmd.Execute()
	return out.String(), err
}

// mustRun is run that fails the test on error.
func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	output, err := e.run(args...)
	if err != nil {
		t.Fatalf("clerk %v failed: %v\nOutput: %s", args, err, output)
	}
	return output
}

// createVault creates the vault and a project with one environment.
func (e *testEnv) createVault(t *testing.T, project, environment string) {
	t.Helper()
	e.mustRun(t, "create")
	if project == "" {
		return
	}
	e.mustRun(t, "project", "create", project)
	e.mustRun(t, "env", "create", project, environment)
}
