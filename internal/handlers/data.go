package handlers

import (
	"context"
	"errors"
	"fmt"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/vault"
)

// Variable is a decrypted variable as sent to the frontend.
type Variable struct {
	ID            int64  `json:"id"`
	EnvironmentID int64  `json:"environment_id"`
	Key           string `json:"key"`
	Value         string `json:"value"`
	Description   string `json:"description"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
}

func toVariable(s *vault.Secret) Variable {
	v := Variable{
		ID:            s.ID,
		EnvironmentID: s.EnvironmentID,
		Key:           s.Key,
		Value:         string(s.Value),
		Description:   s.Description,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	s.Wipe()
	return v
}

// VariableList is returned by GetVariables. Failed counts the records
// that could not be decrypted.
type VariableList struct {
	Variables []Variable `json:"variables"`
	Failed    int        `json:"failed"`
}

func (a *App) CreateProject(ctx context.Context, name, description string) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	p, err := a.vault.CreateProject(ctx, name, description)
	if err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("Project '%s' created", p.Name), p)
}

func (a *App) GetProjects(ctx context.Context) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	projects, err := a.vault.Projects(ctx)
	if err != nil {
		return fail(err)
	}
	return ok("", projects)
}

func (a *App) UpdateProject(ctx context.Context, id int64, name, description string) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	p, err := a.vault.UpdateProject(ctx, id, name, description)
	if err != nil {
		return fail(err)
	}
	return ok("Project updated", p)
}

// DeleteProject removes a project with everything beneath it. The GUI
// confirms before calling.
func (a *App) DeleteProject(ctx context.Context, id int64) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	del, err := a.vault.DeleteProject(ctx, id)
	if err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("Project '%s' deleted with %d environment(s) and %d variable(s)",
		del.Project.Name, len(del.Environments), len(del.Variables)), nil)
}

func (a *App) CreateEnvironment(ctx context.Context, projectID int64, name, description string) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	env, err := a.vault.CreateEnvironment(ctx, projectID, name, description)
	if err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("Environment '%s' created", env.Name), env)
}

func (a *App) GetEnvironments(ctx context.Context, projectID int64) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	envs, err := a.vault.Environments(ctx, projectID)
	if err != nil {
		return fail(err)
	}
	return ok("", envs)
}

func (a *App) UpdateEnvironment(ctx context.Context, id int64, name, description string) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	env, err := a.vault.UpdateEnvironment(ctx, id, name, description)
	if err != nil {
		return fail(err)
	}
	return ok("Environment updated", env)
}

func (a *App) DeleteEnvironment(ctx context.Context, id int64) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	del, err := a.vault.DeleteEnvironment(ctx, id)
	if err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("Environment '%s' deleted with %d variable(s)",
		del.Environment.Name, len(del.Variables)), nil)
}

func (a *App) CreateVariable(ctx context.Context, environmentID int64, key, value, description string) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	s, err := a.vault.CreateSecret(ctx, environmentID, key, []byte(value), description)
	if err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("Variable '%s' created", s.Key), toVariable(&s))
}

// GetVariables decrypts an environment. Records that fail to decrypt are
// counted and left out; the rest are still returned.
func (a *App) GetVariables(ctx context.Context, environmentID int64) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}

	list, err := a.vault.Secrets(ctx, environmentID)
	if err != nil && !errors.Is(err, cerrors.ErrDecryptFailed) {
		vault.WipeAll(list)
		return fail(err)
	}

	out := VariableList{Variables: make([]Variable, 0, len(list))}
	for i := range list {
		out.Variables = append(out.Variables, toVariable(&list[i]))
	}

	if err != nil {
		a.log.Warnf("Some variables could not be decrypted: %v", err)
		out.Failed = countJoined(err)
		return ok(fmt.Sprintf("%d variable(s) could not be decrypted", out.Failed), out)
	}
	return ok("", out)
}

// countJoined counts the errors combined with errors.Join.
func countJoined(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}

// UpdateVariable replaces the key, value and description of a variable.
func (a *App) UpdateVariable(ctx context.Context, id int64, key, value, description string) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}

	s, err := a.vault.UpdateSecret(ctx, id, key, []byte(value), description)
	if err != nil {
		return fail(err)
	}
	return ok("Variable updated", toVariable(&s))
}

func (a *App) DeleteVariable(ctx context.Context, id int64) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	if err := a.vault.DeleteSecret(ctx, id); err != nil {
		return fail(err)
	}
	return ok("Variable deleted", nil)
}

func (a *App) CopyVariable(ctx context.Context, id, dstEnvironmentID int64) Response {
	if err := a.requireUnlocked(); err != nil {
		return fail(err)
	}
	s, err := a.vault.CopySecret(ctx, id, dstEnvironmentID)
	if err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("Variable '%s' copied", s.Key), toVariable(&s))
}
