package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/clerk-dev/clerk/internal/credcache"
	"github.com/clerk-dev/clerk/internal/secrets"
)

// KDF profile names accepted in config.toml.
const (
	KDFProfileStandard = "standard"
	KDFProfileHigh     = "high"
)

const defaultIdlePollInterval = "30s"

type UserConfig struct {
	Keychain KeychainConfig `toml:"keychain"`
	Session  SessionConfig  `toml:"session"`
	KDF      KDFConfig      `toml:"kdf"`
	Idle     IdleConfig     `toml:"idle"`
}

type KeychainConfig struct {
	Service string `toml:"service"`
	Account string `toml:"account"`
}

type SessionConfig struct {
	Enabled bool `toml:"enabled"`
}

type KDFConfig struct {
	// Profile applies to newly created vaults only. Existing vaults keep
	// the parameters recorded in their metadata.
	Profile string `toml:"profile"`
}

type IdleConfig struct {
	PollInterval string `toml:"poll_interval"`
}

// DefaultUserConfig returns the configuration used when no file exists.
func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Keychain: KeychainConfig{
			Service: credcache.DefaultService,
			Account: credcache.DefaultAccount,
		},
		Session: SessionConfig{Enabled: true},
		KDF:     KDFConfig{Profile: KDFProfileStandard},
		Idle:    IdleConfig{PollInterval: defaultIdlePollInterval},
	}
}

var GlobalUserConfig *UserConfig

// LoadUserConfig reads config.toml. A missing file yields the defaults.
func LoadUserConfig() (*UserConfig, error) {
	return LoadUserConfigFrom(UserConfigPath())
}

// LoadUserConfigFrom reads a config file at path over the defaults.
func LoadUserConfigFrom(path string) (*UserConfig, error) {
	config := DefaultUserConfig()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}

	if err := LoadTOML(path, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid user config %s: %w", path, err)
	}

	return config, nil
}

// SaveUserConfig writes config to config.toml.
func SaveUserConfig(config *UserConfig) error {
	if err := SaveTOML(UserConfigPath(), config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}
	return nil
}

// Validate checks values that cannot be defaulted silently.
func (c *UserConfig) Validate() error {
	if _, err := c.KDFParams(); err != nil {
		return err
	}
	if _, err := c.PollInterval(); err != nil {
		return err
	}
	return nil
}

// KDFParams maps the configured profile to key derivation parameters.
func (c *UserConfig) KDFParams() (secrets.KDFParams, error) {
	switch c.KDF.Profile {
	case "", KDFProfileStandard:
		return secrets.DefaultKDFParams(), nil
	case KDFProfileHigh:
		return secrets.KDFParams{Memory: 256 * 1024, Iterations: 4, Parallelism: 4}, nil
	default:
		return secrets.KDFParams{}, fmt.Errorf("unknown kdf profile %q", c.KDF.Profile)
	}
}

// PollInterval returns how often the idle lock is checked.
func (c *UserConfig) PollInterval() (time.Duration, error) {
	raw := c.Idle.PollInterval
	if raw == "" {
		raw = defaultIdlePollInterval
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("idle poll interval: %w", err)
	}
	if d < time.Second {
		return 0, fmt.Errorf("idle poll interval %s is shorter than 1s", d)
	}
	return d, nil
}
