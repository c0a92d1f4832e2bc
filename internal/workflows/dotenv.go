package workflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/utils"
	"github.com/clerk-dev/clerk/internal/vault"
)

// DefaultEnvFile is the file written by Init when no output is given.
const DefaultEnvFile = ".env"

func exportHeader(t Target, count int) []string {
	return []string{
		"Generated by Clerk CLI",
		"Project: " + t.Project,
		"Environment: " + t.Environment,
		fmt.Sprintf("Total variables: %d", count),
	}
}

func toEntries(list []vault.Secret) []utils.EnvEntry {
	entries := make([]utils.EnvEntry, 0, len(list))
	for _, s := range list {
		entries = append(entries, utils.EnvEntry{Key: s.Key, Value: string(s.Value)})
	}
	return entries
}

// render decrypts an environment all-or-nothing and formats it as dotenv.
func render(ctx context.Context, h *Handle, t Target) (string, int, error) {
	_, env, err := resolve(ctx, h, t)
	if err != nil {
		return "", 0, err
	}

	list, err := secretsAll(ctx, h, env.ID)
	if err != nil {
		return "", 0, err
	}
	defer vault.WipeAll(list)

	content, err := utils.FormatDotenv(exportHeader(t, len(list)), toEntries(list))
	if err != nil {
		return "", 0, fmt.Errorf("formatting dotenv: %w", err)
	}
	return content, len(list), nil
}

// ExportOptions configures the export workflow.
type ExportOptions struct {
	Target

	// OutputPath receives the content. When empty, it is written to Out.
	OutputPath string

	// Overwrite allows replacing an existing OutputPath.
	Overwrite bool

	Out io.Writer
}

// ExportResult contains the outcome of an export operation.
type ExportResult struct {
	Count      int
	OutputPath string
}

// Export writes every variable of an environment as dotenv. Any variable
// that fails to decrypt aborts the export.
func Export(ctx context.Context, h *Handle, opts ExportOptions) (*ExportResult, error) {
	content, count, err := render(ctx, h, opts.Target)
	if err != nil {
		return nil, err
	}

	if opts.OutputPath == "" {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		if _, err := io.WriteString(out, content); err != nil {
			return nil, err
		}
		return &ExportResult{Count: count}, nil
	}

	if err := utils.WriteSecretFile(opts.OutputPath, []byte(content), opts.Overwrite); err != nil {
		return nil, err
	}
	return &ExportResult{Count: count, OutputPath: opts.OutputPath}, nil
}

// ImportOptions configures the import workflow.
type ImportOptions struct {
	Target

	// FilePath is the dotenv file to read.
	FilePath string

	// Overwrite replaces variables that already exist. Otherwise they are
	// skipped.
	Overwrite bool
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	Created []string
	Updated []string
	Skipped []string
}

// Import reads a dotenv file into an environment. Blank lines and comments
// are ignored and surrounding quotes are removed.
func Import(ctx context.Context, h *Handle, opts ImportOptions) (*ImportResult, error) {
	f, err := os.Open(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", opts.FilePath, err)
	}
	defer f.Close()

	entries, err := utils.ParseDotenv(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.FilePath, err)
	}

	_, env, err := resolve(ctx, h, opts.Target)
	if err != nil {
		return nil, err
	}

	keys, err := h.Vault.SecretKeys(ctx, env.ID)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(keys))
	for _, k := range keys {
		existing[k] = true
	}

	result := &ImportResult{}
	for _, e := range entries {
		if existing[e.Key] && !opts.Overwrite {
			result.Skipped = append(result.Skipped, e.Key)
			continue
		}

		s, created, err := h.Vault.UpsertSecret(ctx, env.ID, e.Key, []byte(e.Value), "")
		if err != nil {
			return result, fmt.Errorf("importing '%s': %w", e.Key, err)
		}
		s.Wipe()

		if created {
			result.Created = append(result.Created, e.Key)
		} else {
			result.Updated = append(result.Updated, e.Key)
		}
	}

	h.log.Infof("Imported %d entries from %s", len(entries), opts.FilePath)
	return result, nil
}

// InitOptions configures the init workflow.
type InitOptions struct {
	Target

	// Description is used for a newly created project.
	Description string

	// OutputPath defaults to DefaultEnvFile.
	OutputPath string

	// Force overwrites an existing OutputPath.
	Force bool
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	ProjectCreated     bool
	EnvironmentCreated bool
	Count              int
	OutputPath         string
}

// Init makes sure the project and environment exist, then writes the
// environment's variables to a dotenv file in the working directory.
func Init(ctx context.Context, h *Handle, opts InitOptions) (*InitResult, error) {
	path := opts.OutputPath
	if path == "" {
		path = DefaultEnvFile
	}
	if !opts.Force && utils.FileExists(path) {
		return nil, fmt.Errorf("%s: %w", path, cerrors.ErrFileExists)
	}

	if _, err := h.Unlock(ctx, false); err != nil {
		return nil, err
	}

	result := &InitResult{OutputPath: path}

	p, err := h.Vault.ProjectByName(ctx, opts.Project)
	if errors.Is(err, cerrors.ErrProjectNotFound) {
		p, err = h.Vault.CreateProject(ctx, opts.Project, opts.Description)
		result.ProjectCreated = err == nil
	}
	if err != nil {
		return nil, err
	}

	_, err = h.Vault.EnvironmentByName(ctx, p.ID, opts.Environment)
	if errors.Is(err, cerrors.ErrEnvironmentNotFound) {
		_, err = h.Vault.CreateEnvironment(ctx, p.ID, opts.Environment, "")
		result.EnvironmentCreated = err == nil
	}
	if err != nil {
		return nil, err
	}

	content, count, err := render(ctx, h, opts.Target)
	if err != nil {
		return nil, err
	}

	if err := utils.WriteSecretFile(path, []byte(content), opts.Force); err != nil {
		return nil, err
	}
	result.Count = count

	return result, nil
}
