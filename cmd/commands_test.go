package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
)

// TestVaultCommands covers create, unlock, lock and status.
func TestVaultCommands(t *testing.T) {
	t.Run("CreateThenReuseSession", func(t *testing.T) {
		env := setupTestEnvironment(t)

		output := env.mustRun(t, "create")
		if !strings.Contains(output, "Vault created at") {
			t.Errorf("Expected creation message, got: %s", output)
		}
		if env.prompts != 2 {
			t.Errorf("Expected password and confirmation prompts, got %d", env.prompts)
		}

		output = env.mustRun(t, "unlock")
		if !strings.Contains(output, "cached session") {
			t.Errorf("Expected unlock from session, got: %s", output)
		}
		if env.prompts != 2 {
			t.Errorf("Unlock should not prompt while a session exists, got %d prompts", env.prompts)
		}
	})

	t.Run("CreateRefusesExisting", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.mustRun(t, "create")

		_, err := env.run("create")
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("Expected already exists error, got: %v", err)
		}
	})

	t.Run("CreatePasswordMismatch", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.answers = []string{testPassword, "something else"}

		_, err := env.run("create")
		if !errors.Is(err, cerrors.ErrPasswordMismatch) {
			t.Errorf("Expected password mismatch, got: %v", err)
		}
		if _, statErr := os.Stat(filepath.Join(env.vaultDir, "vault.clerk")); statErr == nil {
			t.Errorf("No vault should be written on mismatch")
		}
	})

	t.Run("CreateShortPassword", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.password = "short"

		_, err := env.run("create")
		if !errors.Is(err, cerrors.ErrPasswordTooShort) {
			t.Errorf("Expected short password error, got: %v", err)
		}
	})

	t.Run("LockForgetsSession", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.mustRun(t, "create")

		output := env.mustRun(t, "lock")
		if !strings.Contains(output, "Vault locked") {
			t.Errorf("Expected lock message, got: %s", output)
		}

		before := env.prompts
		env.mustRun(t, "unlock")
		if env.prompts != before+1 {
			t.Errorf("Expected a password prompt after lock")
		}
	})

	t.Run("NoSessionAlwaysPrompts", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.mustRun(t, "create")

		before := env.prompts
		env.mustRun(t, "--no-session", "project", "list")
		if env.prompts != before+1 {
			t.Errorf("Expected --no-session to prompt")
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.mustRun(t, "create")
		env.mustRun(t, "lock")

		env.password = "wrong password"
		_, err := env.run("unlock")
		if !errors.Is(err, cerrors.ErrInvalidPassword) {
			t.Errorf("Expected invalid password, got: %v", err)
		}
	})

	t.Run("StatusWithoutVault", func(t *testing.T) {
		env := setupTestEnvironment(t)

		output := env.mustRun(t, "status")
		if !strings.Contains(output, "No vault found") {
			t.Errorf("Expected missing vault message, got: %s", output)
		}
		if env.prompts != 0 {
			t.Errorf("status must never prompt")
		}
	})

	t.Run("StatusJSON", func(t *testing.T) {
		env := setupTestEnvironment(t)
		env.createVault(t, "web", "prod")
		env.mustRun(t, "set", "web", "prod", "API_KEY", "abc123")

		output := env.mustRun(t, "status", "--json")
		var got struct {
			State      string `json:"state"`
			Unlockable bool
			Counts     struct {
				Variables int `json:"variables"`
			} `json:"counts"`
		}
		if err := json.Unmarshal([]byte(output), &got); err != nil {
			t.Fatalf("Invalid JSON: %v\n%s", err, output)
		}
		if !got.Unlockable || got.Counts.Variables != 1 {
			t.Errorf("Unexpected status: %+v", got)
		}
	})
}

func TestVariableCommands(t *testing.T) {
	env := setupTestEnvironment(t)
	env.createVault(t, "web", "prod")

	output := env.mustRun(t, "set", "web", "prod", "API_KEY", "abc123", "--description", "payment api")
	if !strings.Contains(output, "created") {
		t.Errorf("Expected created message, got: %s", output)
	}

	output = env.mustRun(t, "set", "web", "prod", "API_KEY", "def456")
	if !strings.Contains(output, "updated") {
		t.Errorf("Expected updated message, got: %s", output)
	}

	output = env.mustRun(t, "get", "web", "prod", "API_KEY")
	if strings.TrimSpace(output) != "def456" {
		t.Errorf("Expected raw value, got: %q", output)
	}

	output = env.mustRun(t, "list", "web", "prod")
	if strings.Contains(output, "def456") {
		t.Errorf("list must mask values: %s", output)
	}
	if !strings.Contains(output, "API_KEY") || !strings.Contains(output, "********") {
		t.Errorf("Expected masked listing, got: %s", output)
	}

	output = env.mustRun(t, "list", "web", "prod", "--show-values")
	if !strings.Contains(output, "def456") {
		t.Errorf("Expected value with --show-values, got: %s", output)
	}

	env.mustRun(t, "env", "create", "web", "staging")
	env.mustRun(t, "copy", "web", "prod", "API_KEY", "staging")
	output = env.mustRun(t, "get", "web", "staging", "API_KEY")
	if strings.TrimSpace(output) != "def456" {
		t.Errorf("Expected copied value, got: %q", output)
	}

	_, err := env.run("delete", "web", "prod", "API_KEY")
	if !errors.Is(err, cerrors.ErrConfirmationRequired) {
		t.Errorf("Expected delete without --force to be refused, got: %v", err)
	}

	env.mustRun(t, "delete", "web", "prod", "API_KEY", "--force")
	_, err = env.run("get", "web", "prod", "API_KEY")
	if !errors.Is(err, cerrors.ErrSecretNotFound) {
		t.Errorf("Expected secret not found, got: %v", err)
	}
}

func TestSetRequiresValue(t *testing.T) {
	env := setupTestEnvironment(t)
	env.createVault(t, "web", "prod")

	_, err := env.run("set", "web", "prod", "API_KEY")
	if err == nil || !strings.Contains(err.Error(), "missing value") {
		t.Errorf("Expected missing value error, got: %v", err)
	}
}

func TestUnknownTargets(t *testing.T) {
	env := setupTestEnvironment(t)
	env.createVault(t, "web", "prod")

	_, err := env.run("list", "api", "prod")
	if !errors.Is(err, cerrors.ErrProjectNotFound) {
		t.Errorf("Expected project not found, got: %v", err)
	}
	if !strings.Contains(FormatError(err), "clerk project list") {
		t.Errorf("Expected a hint, got: %s", FormatError(err))
	}

	_, err = env.run("list", "web", "dev")
	if !errors.Is(err, cerrors.ErrEnvironmentNotFound) {
		t.Errorf("Expected environment not found, got: %v", err)
	}
}

func TestDotenvCommands(t *testing.T) {
	env := setupTestEnvironment(t)
	env.createVault(t, "web", "prod")
	env.mustRun(t, "set", "web", "prod", "API_KEY", "abc123")
	env.mustRun(t, "set", "web", "prod", "GREETING", "hello world")

	dir := t.TempDir()

	t.Run("ExportStdout", func(t *testing.T) {
		output := env.mustRun(t, "export", "web", "prod")
		for _, want := range []string{"# Generated by Clerk CLI", "# Project: web", "# Total variables: 2", `API_KEY="abc123"`} {
			if !strings.Contains(output, want) {
				t.Errorf("Expected %q in export, got: %s", want, output)
			}
		}
	})

	t.Run("ExportFile", func(t *testing.T) {
		path := filepath.Join(dir, "prod.env")
		env.mustRun(t, "export", "web", "prod", "--output", path)

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Export file missing: %v", err)
		}
		if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
			t.Errorf("Expected 0600 permissions, got %o", info.Mode().Perm())
		}

		_, err = env.run("export", "web", "prod", "--output", path)
		if !errors.Is(err, cerrors.ErrFileExists) {
			t.Errorf("Expected file exists error, got: %v", err)
		}
		env.mustRun(t, "export", "web", "prod", "--output", path, "--force")
	})

	t.Run("Import", func(t *testing.T) {
		path := filepath.Join(dir, "import.env")
		content := "# comment\n\nAPI_KEY=other\nPORT=8080\nNAME='clerk'\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("Failed to write import file: %v", err)
		}

		output := env.mustRun(t, "import", "web", "prod", path)
		if !strings.Contains(output, "2 created, 0 updated, 1 skipped") {
			t.Errorf("Unexpected import summary: %s", output)
		}

		output = env.mustRun(t, "import", "web", "prod", path, "--overwrite")
		if !strings.Contains(output, "0 created, 3 updated, 0 skipped") {
			t.Errorf("Unexpected overwrite summary: %s", output)
		}

		output = env.mustRun(t, "get", "web", "prod", "NAME")
		if strings.TrimSpace(output) != "clerk" {
			t.Errorf("Expected quotes stripped, got %q", output)
		}
	})

	t.Run("Init", func(t *testing.T) {
		path := filepath.Join(dir, ".env")

		output := env.mustRun(t, "init", "api", "dev", "--output", path)
		if !strings.Contains(output, "Created project") || !strings.Contains(output, "Created environment") {
			t.Errorf("Expected project and environment creation, got: %s", output)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected %s to be written: %v", path, err)
		}

		_, err := env.run("init", "api", "dev", "--output", path)
		if !errors.Is(err, cerrors.ErrFileExists) {
			t.Errorf("Expected file exists error, got: %v", err)
		}
	})
}

func TestRunCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	env := setupTestEnvironment(t)
	env.createVault(t, "web", "dev")
	env.mustRun(t, "set", "web", "dev", "CLERK_TEST_TOKEN", "t0k3n")

	output, err := env.run("run", "web", "dev", "--", "sh", "-c", `echo "token=$CLERK_TEST_TOKEN"`)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(output, "token=t0k3n") {
		t.Errorf("Expected injected variable, got: %s", output)
	}

	_, err = env.run("run", "web", "dev", "--", "sh", "-c", "exit 4")
	var exit *ExitCodeError
	if !errors.As(err, &exit) || exit.Code != 4 {
		t.Errorf("Expected exit code 4, got: %v", err)
	}

	_, err = env.run("run", "web", "dev")
	if !errors.Is(err, cerrors.ErrNoCommand) {
		t.Errorf("Expected no command error, got: %v", err)
	}
}

func TestHierarchyCommands(t *testing.T) {
	env := setupTestEnvironment(t)
	env.createVault(t, "web", "prod")
	env.mustRun(t, "set", "web", "prod", "API_KEY", "abc123")

	output := env.mustRun(t, "project", "list")
	if !strings.Contains(output, "web") || !strings.Contains(output, "1 env(s)") {
		t.Errorf("Unexpected project list: %s", output)
	}

	output = env.mustRun(t, "env", "list", "web")
	if !strings.Contains(output, "prod") || !strings.Contains(output, "1 variable(s)") {
		t.Errorf("Unexpected env list: %s", output)
	}

	output, err := env.run("env", "delete", "web", "prod")
	if !errors.Is(err, cerrors.ErrHasChildren) {
		t.Errorf("Expected refusal without --force, got: %v", err)
	}
	if !strings.Contains(output, "--force") {
		t.Errorf("Expected --force hint, got: %s", output)
	}

	_, err = env.run("project", "delete", "web")
	if !errors.Is(err, cerrors.ErrHasChildren) {
		t.Errorf("Expected refusal without --force, got: %v", err)
	}

	output = env.mustRun(t, "project", "delete", "web", "--force")
	if !strings.Contains(output, "1 environment(s) and 1 variable(s)") {
		t.Errorf("Unexpected delete summary: %s", output)
	}

	output = env.mustRun(t, "project", "list")
	if !strings.Contains(output, "No projects yet") {
		t.Errorf("Expected empty project list, got: %s", output)
	}
}

func TestAuditCommand(t *testing.T) {
	env := setupTestEnvironment(t)
	env.createVault(t, "web", "prod")
	env.mustRun(t, "set", "web", "prod", "API_KEY", "abc123")

	output := env.mustRun(t, "audit", "--entity-type", "variable", "--json")
	if strings.Contains(output, "abc123") {
		t.Fatalf("Audit log leaked a value: %s", output)
	}

	var entries []struct {
		Operation  string `json:"operation_type"`
		EntityName string `json:"entity_name"`
	}
	if err := json.Unmarshal([]byte(output), &entries); err != nil {
		t.Fatalf("Invalid JSON: %v\n%s", err, output)
	}
	if len(entries) != 1 || entries[0].EntityName != "API_KEY" || entries[0].Operation != "create" {
		t.Errorf("Unexpected audit entries: %+v", entries)
	}

	output = env.mustRun(t, "audit", "-n", "1")
	if lines := strings.Count(strings.TrimSpace(output), "\n"); lines != 0 {
		t.Errorf("Expected one entry with -n 1, got: %s", output)
	}

	_, err := env.run("audit", "--since", "last week")
	if !errors.Is(err, cerrors.ErrInvalidDateFormat) {
		t.Errorf("Expected invalid date, got: %v", err)
	}
}

func TestTimeoutCommand(t *testing.T) {
	env := setupTestEnvironment(t)
	env.createVault(t, "", "")

	output := env.mustRun(t, "timeout")
	if !strings.Contains(output, "disabled") {
		t.Errorf("Expected disabled timeout, got: %s", output)
	}

	env.mustRun(t, "timeout", "15")
	output = env.mustRun(t, "timeout")
	if !strings.Contains(output, "15 minute(s)") {
		t.Errorf("Expected 15 minutes, got: %s", output)
	}

	_, err := env.run("timeout", "9999")
	if !errors.Is(err, cerrors.ErrInvalidLockTimeout) {
		t.Errorf("Expected invalid timeout, got: %v", err)
	}
}

func TestBareInvocation(t *testing.T) {
	env := setupTestEnvironment(t)

	output := env.mustRun(t)
	if !strings.Contains(output, "clerk --help") {
		t.Errorf("Expected help hint, got: %s", output)
	}
}
