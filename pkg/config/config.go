package config

import (
	"encoding/json"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	apperrors "notepad/pkg/errors"
)

const (
	appDirName     = "notepad"
	configFileName = "config.json"

	DefaultListenAddr            = "127.0.0.1:8080"
	DefaultSessionTimeoutMinutes = 30
	DefaultLogLevel              = "info"
)

// Config holds application configuration
type Config struct {
	DataDir               string `json:"dataDir"`
	BackupDir             string `json:"backupDir"`
	ExportDir             string `json:"exportDir"`
	ReminderDBPath        string `json:"reminderDbPath"`
	ListenAddr            string `json:"listenAddr"`
	SessionTimeoutMinutes int    `json:"sessionTimeoutMinutes"`
	MaxBackups            int    `json:"maxBackups"`
	LogLevel              string `json:"logLevel"`

	path string
}

func homeDir() string {
	currentUser, err := user.Current()
	if err != nil || currentUser.HomeDir == "" {
		return "."
	}
	return currentUser.HomeDir
}

// GetDefaultDataPath returns the default directory for notes and user data
func GetDefaultDataPath() string {
	return filepath.Join(homeDir(), ".local", "share", appDirName)
}

// GetConfigFilePath returns the path where the config file is stored
func GetConfigFilePath() string {
	return filepath.Join(homeDir(), ".config", appDirName, configFileName)
}

// Default returns the configuration rooted at dataDir. Every directory
// hangs off it unless the file says otherwise.
func Default(dataDir string) *Config {
	return &Config{
		DataDir:               dataDir,
		BackupDir:             filepath.Join(dataDir, "backups"),
		ExportDir:             filepath.Join(dataDir, "exports"),
		ReminderDBPath:        filepath.Join(dataDir, "reminders"),
		ListenAddr:            DefaultListenAddr,
		SessionTimeoutMinutes: DefaultSessionTimeoutMinutes,
		LogLevel:              DefaultLogLevel,
	}
}

// Load reads the configuration at path, or the default location when path
// is empty. A missing file yields defaults; a malformed one is an error.
// The configured directories are created.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetConfigFilePath()
	}

	config := &Config{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, apperrors.ErrConfigLoadFailed.WithCause(err).WithContext("path", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, apperrors.ErrConfigLoadFailed.WithCause(err).WithContext("path", path)
	} else {
		log.Debugf("No config at %s, using defaults", path)
	}
	config.path = path
	config.fillDefaults()

	for _, dir := range []string{config.DataDir, config.BackupDir, config.ExportDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, apperrors.ErrDirectoryCreationFailed.WithCause(err).WithContext("path", dir)
		}
	}

	return config, nil
}

// fillDefaults patches fields a partial file left empty
func (c *Config) fillDefaults() {
	if c.DataDir == "" {
		c.DataDir = GetDefaultDataPath()
	}
	d := Default(c.DataDir)
	if c.BackupDir == "" {
		c.BackupDir = d.BackupDir
	}
	if c.ExportDir == "" {
		c.ExportDir = d.ExportDir
	}
	if c.ReminderDBPath == "" {
		c.ReminderDBPath = d.ReminderDBPath
	}
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
	if c.SessionTimeoutMinutes <= 0 {
		c.SessionTimeoutMinutes = d.SessionTimeoutMinutes
	}
	if c.MaxBackups < 0 {
		c.MaxBackups = 0
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Path returns the file the configuration was loaded from
func (c *Config) Path() string {
	return c.path
}

// SessionTimeout returns the idle session lifetime
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}

// GommonLevel maps the configured level name to gommon's level
func (c *Config) GommonLevel() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// Save writes the configuration back to the file it came from
func (c *Config) Save() error {
	configFile := c.path
	if configFile == "" {
		configFile = GetConfigFilePath()
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return apperrors.ErrConfigSaveFailed.WithCause(err).WithContext("path", configFile)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return apperrors.ErrConfigSaveFailed.WithCause(err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return apperrors.ErrConfigSaveFailed.WithCause(err).WithContext("path", configFile)
	}
	c.path = configFile
	return nil
}
