package store

import "time"

// Project is the top level of the ownership hierarchy.
type Project struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
	UpdatedAt   int64  `db:"updated_at" json:"updated_at"`
}

// Environment belongs to a project.
type Environment struct {
	ID          int64  `db:"id" json:"id"`
	ProjectID   int64  `db:"project_id" json:"project_id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
	UpdatedAt   int64  `db:"updated_at" json:"updated_at"`
}

// Variable belongs to an environment and only ever holds ciphertext.
type Variable struct {
	ID             int64  `db:"id" json:"id"`
	EnvironmentID  int64  `db:"environment_id" json:"environment_id"`
	Key            string `db:"key" json:"key"`
	EncryptedValue []byte `db:"encrypted_value" json:"-"`
	Description    string `db:"description" json:"description"`
	CreatedAt      int64  `db:"created_at" json:"created_at"`
	UpdatedAt      int64  `db:"updated_at" json:"updated_at"`
}

// Metadata is the single vault_metadata row.
type Metadata struct {
	Version            int   `db:"version"`
	CreatedAt          int64 `db:"created_at"`
	LastAccessed       int64 `db:"last_accessed"`
	LastModified       int64 `db:"last_modified"`
	LockTimeoutMinutes int   `db:"lock_timeout_minutes"`
}

// LastAccessedTime returns LastAccessed as a time.Time.
func (m Metadata) LastAccessedTime() time.Time {
	return time.Unix(m.LastAccessed, 0)
}

// Counts summarizes the number of records in the vault.
type Counts struct {
	Projects     int `db:"projects" json:"projects"`
	Environments int `db:"environments" json:"environments"`
	Variables    int `db:"variables" json:"variables"`
}

// ProjectDeletion lists everything removed by DeleteProject.
type ProjectDeletion struct {
	Project      Project
	Environments []Environment
	Variables    []Variable
}

// EnvironmentDeletion lists everything removed by DeleteEnvironment.
type EnvironmentDeletion struct {
	Environment Environment
	Variables   []Variable
}

func now() int64 {
	return time.Now().Unix()
}
