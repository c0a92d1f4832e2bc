package configs

import (
	"log"
	"os"
	"path/filepath"
)

// AppID names the per-user directory that holds the default vault.
const AppID = "com.clerk.app"

// VaultDirEnv overrides the default vault directory.
const VaultDirEnv = "CLERK_VAULT_DIR"

type ClerkSettings struct {
	VaultDir        string
	UserConfigsPath string
	TempDir         string
}

var Settings *ClerkSettings

func init() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	vaultDir := os.Getenv(VaultDirEnv)
	if vaultDir == "" {
		vaultDir = filepath.Join(configDir, AppID)
	}

	// Independent of the working directory, so it is ok to init here.
	Settings = &ClerkSettings{
		VaultDir:        vaultDir,
		UserConfigsPath: filepath.Join(configDir, "clerk"),
		TempDir:         os.TempDir(),
	}
}

// SetVaultDir overrides the vault directory, typically from --vault-dir.
// An empty dir is ignored.
func SetVaultDir(dir string) {
	if dir == "" {
		return
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	Settings.VaultDir = dir
}

// UserConfigPath returns the path of the optional config.toml.
func UserConfigPath() string {
	return filepath.Join(Settings.UserConfigsPath, "config.toml")
}
