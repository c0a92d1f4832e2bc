package workflows

import (
	"context"
	"fmt"

	cerrors "github.com/clerk-dev/clerk/internal/errors"
	"github.com/clerk-dev/clerk/internal/store"
)

// ProjectSummary is a project with its environment count.
type ProjectSummary struct {
	store.Project
	Environments int
}

// EnvironmentSummary is an environment with its variable count.
type EnvironmentSummary struct {
	store.Environment
	Variables int
}

// CreateProject adds a project.
func CreateProject(ctx context.Context, h *Handle, name, description string) (*store.Project, error) {
	if _, err := h.Unlock(ctx, false); err != nil {
		return nil, err
	}

	p, err := h.Vault.CreateProject(ctx, name, description)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns every project, ordered by name.
func ListProjects(ctx context.Context, h *Handle) ([]ProjectSummary, error) {
	if _, err := h.Unlock(ctx, false); err != nil {
		return nil, err
	}

	projects, err := h.Vault.Projects(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		n, err := h.Vault.CountEnvironments(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ProjectSummary{Project: p, Environments: n})
	}
	return out, nil
}

// DeleteProjectResult contains the outcome of a project deletion.
type DeleteProjectResult struct {
	Environments int
	Variables    int
}

// DeleteProject removes a project. A project that still has environments
// is only removed with force, and then everything beneath it goes too.
func DeleteProject(ctx context.Context, h *Handle, name string, force bool) (*DeleteProjectResult, error) {
	if _, err := h.Unlock(ctx, false); err != nil {
		return nil, err
	}

	p, err := h.Vault.ProjectByName(ctx, name)
	if err != nil {
		return nil, notFound(err, cerrors.ErrProjectNotFound, "'%s'", name)
	}

	n, err := h.Vault.CountEnvironments(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if n > 0 && !force {
		return nil, fmt.Errorf("project '%s' has %d environment(s): %w", name, n, cerrors.ErrHasChildren)
	}

	del, err := h.Vault.DeleteProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &DeleteProjectResult{Environments: len(del.Environments), Variables: len(del.Variables)}, nil
}

// CreateEnvironment adds an environment to a project.
func CreateEnvironment(ctx context.Context, h *Handle, project, name, description string) (*store.Environment, error) {
	if _, err := h.Unlock(ctx, false); err != nil {
		return nil, err
	}

	p, err := h.Vault.ProjectByName(ctx, project)
	if err != nil {
		return nil, notFound(err, cerrors.ErrProjectNotFound, "'%s'", project)
	}

	env, err := h.Vault.CreateEnvironment(ctx, p.ID, name, description)
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// ListEnvironments returns the environments of a project, ordered by name.
func ListEnvironments(ctx context.Context, h *Handle, project string) ([]EnvironmentSummary, error) {
	if _, err := h.Unlock(ctx, false); err != nil {
		return nil, err
	}

	p, err := h.Vault.ProjectByName(ctx, project)
	if err != nil {
		return nil, notFound(err, cerrors.ErrProjectNotFound, "'%s'", project)
	}

	envs, err := h.Vault.Environments(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	out := make([]EnvironmentSummary, 0, len(envs))
	for _, env := range envs {
		n, err := h.Vault.CountVariables(ctx, env.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, EnvironmentSummary{Environment: env, Variables: n})
	}
	return out, nil
}

// DeleteEnvironment removes an environment. One that still has variables
// is only removed with force.
func DeleteEnvironment(ctx context.Context, h *Handle, t Target, force bool) (int, error) {
	_, env, err := resolve(ctx, h, t)
	if err != nil {
		return 0, err
	}

	n, err := h.Vault.CountVariables(ctx, env.ID)
	if err != nil {
		return 0, err
	}
	if n > 0 && !force {
		return 0, fmt.Errorf("environment '%s' has %d variable(s): %w", t.Environment, n, cerrors.ErrHasChildren)
	}

	del, err := h.Vault.DeleteEnvironment(ctx, env.ID)
	if err != nil {
		return 0, err
	}
	return len(del.Variables), nil
}
