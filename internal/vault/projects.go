package vault

import (
	"context"
	"fmt"

	"github.com/clerk-dev/clerk/internal/audit"
	"github.com/clerk-dev/clerk/internal/store"
)

// CreateProject adds a project. Names are unique across the vault.
func (v *Vault) CreateProject(ctx context.Context, name, description string) (store.Project, error) {
	name, err := validName(name)
	if err != nil {
		return store.Project{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return store.Project{}, err
	}

	p, err := v.store.CreateProject(ctx, name, description)
	if err != nil {
		return store.Project{}, fmt.Errorf("creating project %q: %w", name, err)
	}

	v.record(ctx, audit.New(audit.OpCreate, audit.EntityProject, p.ID, p.Name, map[string]any{
		"description": description,
	}))
	v.touch(ctx, true)
	return p, nil
}

// Projects lists all projects.
func (v *Vault) Projects(ctx context.Context) ([]store.Project, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}
	return v.store.Projects(ctx)
}

// Project returns a project by id.
func (v *Vault) Project(ctx context.Context, id int64) (store.Project, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return store.Project{}, err
	}
	return v.store.Project(ctx, id)
}

// ProjectByName returns a project by name.
func (v *Vault) ProjectByName(ctx context.Context, name string) (store.Project, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return store.Project{}, err
	}

	p, err := v.store.ProjectByName(ctx, name)
	if err != nil {
		return store.Project{}, fmt.Errorf("%q: %w", name, err)
	}
	return p, nil
}

// UpdateProject renames a project and replaces its description.
func (v *Vault) UpdateProject(ctx context.Context, id int64, name, description string) (store.Project, error) {
	name, err := validName(name)
	if err != nil {
		return store.Project{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return store.Project{}, err
	}

	p, err := v.store.UpdateProject(ctx, id, name, description)
	if err != nil {
		return store.Project{}, fmt.Errorf("updating project %q: %w", name, err)
	}

	v.record(ctx, audit.New(audit.OpUpdate, audit.EntityProject, p.ID, p.Name, map[string]any{
		"description": description,
	}))
	v.touch(ctx, true)
	return p, nil
}

// DeleteProject removes a project with its environments and variables.
// One audit entry is written per removed record.
func (v *Vault) DeleteProject(ctx context.Context, id int64) (*store.ProjectDeletion, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}

	del, err := v.store.DeleteProject(ctx, id)
	if err != nil {
		return nil, err
	}

	v.recordVariableCascade(ctx, del.Variables, audit.EntityProject, del.Project.ID)
	for _, env := range del.Environments {
		v.record(ctx, audit.New(audit.OpDelete, audit.EntityEnvironment, env.ID, env.Name, map[string]any{
			"project_id":   env.ProjectID,
			"cascade_from": audit.EntityProject,
		}))
	}
	v.record(ctx, audit.New(audit.OpDelete, audit.EntityProject, del.Project.ID, del.Project.Name, map[string]any{
		"environments": len(del.Environments),
		"variables":    len(del.Variables),
	}))
	v.touch(ctx, true)

	return del, nil
}

// CreateEnvironment adds an environment to a project. Names are unique
// within the project.
func (v *Vault) CreateEnvironment(ctx context.Context, projectID int64, name, description string) (store.Environment, error) {
	name, err := validName(name)
	if err != nil {
		return store.Environment{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return store.Environment{}, err
	}

	if _, err := v.store.Project(ctx, projectID); err != nil {
		return store.Environment{}, err
	}

	env, err := v.store.CreateEnvironment(ctx, projectID, name, description)
	if err != nil {
		return store.Environment{}, fmt.Errorf("creating environment %q: %w", name, err)
	}

	v.record(ctx, audit.New(audit.OpCreate, audit.EntityEnvironment, env.ID, env.Name, map[string]any{
		"project_id": projectID,
	}))
	v.touch(ctx, true)
	return env, nil
}

// Environments lists the environments of a project.
func (v *Vault) Environments(ctx context.Context, projectID int64) ([]store.Environment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}

	if _, err := v.store.Project(ctx, projectID); err != nil {
		return nil, err
	}
	return v.store.Environments(ctx, projectID)
}

// Environment returns an environment by id.
func (v *Vault) Environment(ctx context.Context, id int64) (store.Environment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return store.Environment{}, err
	}
	return v.store.Environment(ctx, id)
}

// EnvironmentByName returns an environment by name within a project.
func (v *Vault) EnvironmentByName(ctx context.Context, projectID int64, name string) (store.Environment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return store.Environment{}, err
	}

	env, err := v.store.EnvironmentByName(ctx, projectID, name)
	if err != nil {
		return store.Environment{}, fmt.Errorf("%q: %w", name, err)
	}
	return env, nil
}

// UpdateEnvironment renames an environment and replaces its description.
// Variable AAD is bound to the environment id, not its name, so no
// re-encryption is needed.
func (v *Vault) UpdateEnvironment(ctx context.Context, id int64, name, description string) (store.Environment, error) {
	name, err := validName(name)
	if err != nil {
		return store.Environment{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return store.Environment{}, err
	}

	env, err := v.store.UpdateEnvironment(ctx, id, name, description)
	if err != nil {
		return store.Environment{}, fmt.Errorf("updating environment %q: %w", name, err)
	}

	v.record(ctx, audit.New(audit.OpUpdate, audit.EntityEnvironment, env.ID, env.Name, map[string]any{
		"project_id": env.ProjectID,
	}))
	v.touch(ctx, true)
	return env, nil
}

// DeleteEnvironment removes an environment and its variables. One audit
// entry is written per removed record.
func (v *Vault) DeleteEnvironment(ctx context.Context, id int64) (*store.EnvironmentDeletion, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}

	del, err := v.store.DeleteEnvironment(ctx, id)
	if err != nil {
		return nil, err
	}

	v.recordVariableCascade(ctx, del.Variables, audit.EntityEnvironment, del.Environment.ID)
	v.record(ctx, audit.New(audit.OpDelete, audit.EntityEnvironment, del.Environment.ID, del.Environment.Name, map[string]any{
		"project_id": del.Environment.ProjectID,
		"variables":  len(del.Variables),
	}))
	v.touch(ctx, true)

	return del, nil
}

// CountEnvironments returns how many environments a project has.
func (v *Vault) CountEnvironments(ctx context.Context, projectID int64) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return 0, err
	}
	return v.store.CountEnvironments(ctx, projectID)
}

// CountVariables returns how many variables an environment has.
func (v *Vault) CountVariables(ctx context.Context, environmentID int64) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireUnlocked(); err != nil {
		return 0, err
	}
	return v.store.CountVariables(ctx, environmentID)
}

func (v *Vault) recordVariableCascade(ctx context.Context, vars []store.Variable, parentType string, parentID int64) {
	for _, variable := range vars {
		v.record(ctx, audit.New(audit.OpDelete, audit.EntityVariable, variable.ID, variable.Key, map[string]any{
			"environment_id": variable.EnvironmentID,
			"cascade_from":   parentType,
			"cascade_id":     parentID,
		}))
	}
}
