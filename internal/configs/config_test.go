package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clerk-dev/clerk/internal/credcache"
	"github.com/clerk-dev/clerk/internal/secrets"
)

func withUserConfigsPath(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	old := Settings.UserConfigsPath
	Settings.UserConfigsPath = tempDir
	t.Cleanup(func() { Settings.UserConfigsPath = old })
	return tempDir
}

func TestLoadUserConfigNonExistent(t *testing.T) {
	withUserConfigsPath(t)

	config, err := LoadUserConfig()
	if err != nil {
		t.Fatalf("LoadUserConfig failed: %v", err)
	}

	if config.Keychain.Service != credcache.DefaultService {
		t.Errorf("Expected service %q, got %q", credcache.DefaultService, config.Keychain.Service)
	}
	if config.Keychain.Account != credcache.DefaultAccount {
		t.Errorf("Expected account %q, got %q", credcache.DefaultAccount, config.Keychain.Account)
	}
	if !config.Session.Enabled {
		t.Error("Expected session cache to be enabled by default")
	}
	if config.KDF.Profile != KDFProfileStandard {
		t.Errorf("Expected profile %q, got %q", KDFProfileStandard, config.KDF.Profile)
	}
}

func TestSaveAndLoadUserConfig(t *testing.T) {
	withUserConfigsPath(t)

	config := DefaultUserConfig()
	config.Keychain.Service = "com.example.test"
	config.Session.Enabled = false
	config.KDF.Profile = KDFProfileHigh
	config.Idle.PollInterval = "1m"

	if err := SaveUserConfig(config); err != nil {
		t.Fatalf("SaveUserConfig failed: %v", err)
	}

	loaded, err := LoadUserConfig()
	if err != nil {
		t.Fatalf("LoadUserConfig failed: %v", err)
	}

	if *loaded != *config {
		t.Errorf("Expected %+v, got %+v", config, loaded)
	}
}

func TestLoadUserConfigPartialFile(t *testing.T) {
	dir := withUserConfigsPath(t)

	content := "[session]\nenabled = false\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadUserConfig()
	if err != nil {
		t.Fatalf("LoadUserConfig failed: %v", err)
	}

	if config.Session.Enabled {
		t.Error("Expected session cache to be disabled")
	}
	if config.Keychain.Service != credcache.DefaultService {
		t.Errorf("Expected default service to survive, got %q", config.Keychain.Service)
	}
}

func TestLoadUserConfigMalformed(t *testing.T) {
	dir := withUserConfigsPath(t)

	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[keychain\nservice ="), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadUserConfig(); err == nil {
		t.Fatal("Expected error for malformed config")
	}
}

func TestLoadUserConfigInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"UnknownProfile", "[kdf]\nprofile = \"extreme\"\n"},
		{"BadInterval", "[idle]\npoll_interval = \"soon\"\n"},
		{"TinyInterval", "[idle]\npoll_interval = \"10ms\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}

			if _, err := LoadUserConfigFrom(path); err == nil {
				t.Fatal("Expected validation error")
			}
		})
	}
}

func TestKDFParamsProfiles(t *testing.T) {
	config := DefaultUserConfig()

	params, err := config.KDFParams()
	if err != nil {
		t.Fatalf("KDFParams failed: %v", err)
	}
	if params != secrets.DefaultKDFParams() {
		t.Errorf("Expected default params, got %+v", params)
	}

	config.KDF.Profile = KDFProfileHigh
	high, err := config.KDFParams()
	if err != nil {
		t.Fatalf("KDFParams failed: %v", err)
	}
	if high.Memory <= params.Memory {
		t.Errorf("Expected high profile to use more memory than %d, got %d", params.Memory, high.Memory)
	}
}

func TestPollIntervalDefault(t *testing.T) {
	config := &UserConfig{}

	d, err := config.PollInterval()
	if err != nil {
		t.Fatalf("PollInterval failed: %v", err)
	}
	if d != 30*time.Second {
		t.Errorf("Expected 30s, got %s", d)
	}
}

func TestSetVaultDir(t *testing.T) {
	old := Settings.VaultDir
	t.Cleanup(func() { Settings.VaultDir = old })

	SetVaultDir("")
	if Settings.VaultDir != old {
		t.Errorf("Expected empty dir to be ignored, got %q", Settings.VaultDir)
	}

	dir := t.TempDir()
	SetVaultDir(dir)
	if Settings.VaultDir != dir {
		t.Errorf("Expected %q, got %q", dir, Settings.VaultDir)
	}
}
