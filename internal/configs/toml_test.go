package configs

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

type tomlFixture struct {
	Service string `toml:"service"`
	Minutes int    `toml:"minutes"`
	Enabled bool   `toml:"enabled"`
}

func TestSaveAndLoadTOML(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.toml")

	original := tomlFixture{Service: "com.clerk.app", Minutes: 15, Enabled: true}
	if err := SaveTOML(testFile, original); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	var loaded tomlFixture
	if err := LoadTOML(testFile, &loaded); err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}

	if loaded != original {
		t.Errorf("Expected %+v, got %+v", original, loaded)
	}
}

func TestLoadTOMLNonExistent(t *testing.T) {
	var data tomlFixture
	if err := LoadTOML(filepath.Join(t.TempDir(), "nonexistent.toml"), &data); err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
}

func TestLoadTOMLKeepsUnsetFields(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "partial.toml")
	if err := os.WriteFile(testFile, []byte("minutes = 3\n"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	data := tomlFixture{Service: "preset", Minutes: 1}
	if err := LoadTOML(testFile, &data); err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}

	if data.Service != "preset" {
		t.Errorf("Expected Service to stay %q, got %q", "preset", data.Service)
	}
	if data.Minutes != 3 {
		t.Errorf("Expected Minutes 3, got %d", data.Minutes)
	}
}

func TestSaveTOMLCreatesDirectory(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "subdir", "test.toml")

	if err := SaveTOML(testFile, tomlFixture{Service: "x"}); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("File was not created: %v", err)
	}

	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %o", info.Mode().Perm())
	}
}
