package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// DB is the sqlite file backing the record store.
	DB string `yaml:"db"`

	// AlarmTimeoutSeconds is how long the alarm screen stays up before
	// auto-dismissing back to the home view.
	AlarmTimeoutSeconds int `yaml:"alarm_timeout_seconds"`

	// RearmCron schedules the periodic re-arm of task alarms, in
	// cron syntax. Re-arming also always happens at launch.
	RearmCron string `yaml:"rearm_cron"`

	// Notify toggles desktop notifications when an alarm fires.
	Notify bool `yaml:"notify"`

	// Sound is the audio file played while the alarm screen is up.
	// Empty disables audio.
	Sound string `yaml:"sound"`

	// Log is the file logs are written to. Empty logs to stderr,
	// which will interleave with the TUI.
	Log string `yaml:"log"`
}

func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		DB:                  filepath.Join(home, ".local", "share", "schedd", "schedd.db"),
		AlarmTimeoutSeconds: 30,
		RearmCron:           "@midnight",
		Notify:              true,
		Sound:               "",
		Log:                 filepath.Join(home, ".local", "share", "schedd", "schedd.log"),
	}
}

// Normalize fills in missing/zero values so partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.DB == "" {
		c.DB = def.DB
	}
	if c.AlarmTimeoutSeconds <= 0 {
		c.AlarmTimeoutSeconds = def.AlarmTimeoutSeconds
	}
	if c.RearmCron == "" {
		c.RearmCron = def.RearmCron
	}
}

// Load reads the YAML config at path. A missing file is a first run:
// a default config is written (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the config atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".schedd-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
