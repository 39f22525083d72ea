package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. EZS2T_DEVICE_NAME or EZS2T_HOTKEY_KEY
const EnvPrefix = "EZS2T"

// Supported capture backends
const (
	BackendPortAudio = "portaudio"
	BackendMiniaudio = "miniaudio"
)

// Config holds application configuration
type Config struct {
	DeviceName       string       `json:"device_name" mapstructure:"device_name"` // "default" or an exact device name
	Backend          string       `json:"backend" mapstructure:"backend"`         // "portaudio" or "miniaudio"
	LogLevel         string       `json:"log_level" mapstructure:"log_level"`
	LogDir           string       `json:"log_dir" mapstructure:"log_dir"`
	LogRetentionDays int          `json:"log_retention_days" mapstructure:"log_retention_days"`
	ServerPort       int          `json:"server_port" mapstructure:"server_port"`
	MaxRecordTime    int          `json:"max_record_time" mapstructure:"max_record_time"` // seconds
	RecordingsDir    string       `json:"recordings_dir" mapstructure:"recordings_dir"`
	Hotkey           HotkeyConfig `json:"hotkey" mapstructure:"hotkey"`
	RecordingMode    string       `json:"recording_mode" mapstructure:"recording_mode"` // "press-to-hold" or "toggle"
	LockTimeoutMS    int          `json:"lock_timeout_ms" mapstructure:"lock_timeout_ms"`
	mu               sync.RWMutex
}

// HotkeyConfig holds hotkey configuration
type HotkeyConfig struct {
	Ctrl  bool   `json:"ctrl" mapstructure:"ctrl"`
	Shift bool   `json:"shift" mapstructure:"shift"`
	Alt   bool   `json:"alt" mapstructure:"alt"`
	Cmd   bool   `json:"cmd" mapstructure:"cmd"`
	Key   string `json:"key" mapstructure:"key"` // e.g., "Space"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DeviceName:       "default",
		Backend:          BackendPortAudio,
		LogLevel:         "INFO",
		LogDir:           "~/.local/state/ezs2t-recorder/logs",
		LogRetentionDays: 7,
		ServerPort:       18765,
		MaxRecordTime:    60, // 60 seconds
		RecordingsDir:    "~/Recordings/ezs2t",
		Hotkey: HotkeyConfig{
			Ctrl: true,
			Alt:  true,
			Key:  "Space",
		},
		RecordingMode: "press-to-hold",
		LockTimeoutMS: 500,
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("device_name", d.DeviceName)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("log_retention_days", d.LogRetentionDays)
	v.SetDefault("server_port", d.ServerPort)
	v.SetDefault("max_record_time", d.MaxRecordTime)
	v.SetDefault("recordings_dir", d.RecordingsDir)
	v.SetDefault("hotkey.ctrl", d.Hotkey.Ctrl)
	v.SetDefault("hotkey.shift", d.Hotkey.Shift)
	v.SetDefault("hotkey.alt", d.Hotkey.Alt)
	v.SetDefault("hotkey.cmd", d.Hotkey.Cmd)
	v.SetDefault("hotkey.key", d.Hotkey.Key)
	v.SetDefault("recording_mode", d.RecordingMode)
	v.SetDefault("lock_timeout_ms", d.LockTimeoutMS)
}

// Load loads configuration from the specified path.
// A missing file yields the defaults; EZS2T_* environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// An empty key in the file would leave the hotkey unusable
	if config.Hotkey.Key == "" {
		config.Hotkey.Key = "Space"
	}

	return &config, nil
}

// Save saves configuration to the specified path
func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "ezs2t-recorder", "config.json")
}

func validRecordingMode(mode string) bool {
	return mode == "press-to-hold" || mode == "toggle"
}

func validBackend(backend string) bool {
	return backend == BackendPortAudio || backend == BackendMiniaudio
}

func validLogLevel(level string) bool {
	switch strings.ToUpper(level) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return true
	}
	return false
}

// Update updates configuration fields from decoded JSON.
// Unknown keys are ignored. Updates are applied to a copy and committed only
// when the whole result validates, so a rejected update leaves c unchanged.
func (c *Config) Update(updates map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.copyFields()
	if err := next.apply(updates); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}

	c.assign(next)
	return nil
}

func (c *Config) apply(updates map[string]interface{}) error {
	for key, value := range updates {
		switch key {
		case "device_name":
			if v, ok := value.(string); ok {
				if v == "" {
					return fmt.Errorf("device_name cannot be empty")
				}
				c.DeviceName = v
			}
		case "backend":
			if v, ok := value.(string); ok {
				if !validBackend(v) {
					return fmt.Errorf("invalid backend: %s", v)
				}
				c.Backend = v
			}
		case "log_level":
			if v, ok := value.(string); ok {
				if !validLogLevel(v) {
					return fmt.Errorf("invalid log_level: %s", v)
				}
				c.LogLevel = v
			}
		case "log_dir":
			if v, ok := value.(string); ok {
				c.LogDir = v
			}
		case "log_retention_days":
			if v, ok := value.(float64); ok {
				c.LogRetentionDays = int(v)
			}
		case "server_port":
			if v, ok := value.(float64); ok {
				c.ServerPort = int(v)
			}
		case "max_record_time":
			if v, ok := value.(float64); ok {
				c.MaxRecordTime = int(v)
			}
		case "recordings_dir":
			if v, ok := value.(string); ok {
				c.RecordingsDir = v
			}
		case "recording_mode":
			if v, ok := value.(string); ok {
				if !validRecordingMode(v) {
					return fmt.Errorf("invalid recording_mode: %s", v)
				}
				c.RecordingMode = v
			}
		case "lock_timeout_ms":
			if v, ok := value.(float64); ok {
				c.LockTimeoutMS = int(v)
			}
		case "hotkey":
			if v, ok := value.(map[string]interface{}); ok {
				if ctrl, ok := v["ctrl"].(bool); ok {
					c.Hotkey.Ctrl = ctrl
				}
				if shift, ok := v["shift"].(bool); ok {
					c.Hotkey.Shift = shift
				}
				if alt, ok := v["alt"].(bool); ok {
					c.Hotkey.Alt = alt
				}
				if cmd, ok := v["cmd"].(bool); ok {
					c.Hotkey.Cmd = cmd
				}
				if key, ok := v["key"].(string); ok {
					c.Hotkey.Key = key
				}
			}
		}
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.copyFields()
}

// copyFields copies every field except the lock. Callers hold c.mu.
func (c *Config) copyFields() *Config {
	return &Config{
		DeviceName:       c.DeviceName,
		Backend:          c.Backend,
		LogLevel:         c.LogLevel,
		LogDir:           c.LogDir,
		LogRetentionDays: c.LogRetentionDays,
		ServerPort:       c.ServerPort,
		MaxRecordTime:    c.MaxRecordTime,
		RecordingsDir:    c.RecordingsDir,
		Hotkey:           c.Hotkey,
		RecordingMode:    c.RecordingMode,
		LockTimeoutMS:    c.LockTimeoutMS,
	}
}

// assign overwrites every field except the lock with src. Callers hold c.mu.
func (c *Config) assign(src *Config) {
	c.DeviceName = src.DeviceName
	c.Backend = src.Backend
	c.LogLevel = src.LogLevel
	c.LogDir = src.LogDir
	c.LogRetentionDays = src.LogRetentionDays
	c.ServerPort = src.ServerPort
	c.MaxRecordTime = src.MaxRecordTime
	c.RecordingsDir = src.RecordingsDir
	c.Hotkey = src.Hotkey
	c.RecordingMode = src.RecordingMode
	c.LockTimeoutMS = src.LockTimeoutMS
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// GetRecordingsDir returns the expanded recordings directory
func (c *Config) GetRecordingsDir() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ExpandPath(c.RecordingsDir)
}

// GetLogDir returns the expanded log directory
func (c *Config) GetLogDir() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ExpandPath(c.LogDir)
}

// Validate validates all configuration fields
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.DeviceName == "" {
		return fmt.Errorf("device_name cannot be empty")
	}

	if !validBackend(c.Backend) {
		return fmt.Errorf("invalid backend: %s (must be 'portaudio' or 'miniaudio')", c.Backend)
	}

	if !validLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	if c.LogRetentionDays < 0 {
		return fmt.Errorf("invalid log_retention_days: %d (must not be negative)", c.LogRetentionDays)
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server_port: %d (must be between 1 and 65535)", c.ServerPort)
	}

	if c.MaxRecordTime <= 0 || c.MaxRecordTime > 3600 {
		return fmt.Errorf("invalid max_record_time: %d (must be between 1 and 3600 seconds)", c.MaxRecordTime)
	}

	if !validRecordingMode(c.RecordingMode) {
		return fmt.Errorf("invalid recording_mode: %s (must be 'press-to-hold' or 'toggle')", c.RecordingMode)
	}

	if c.LockTimeoutMS <= 0 || c.LockTimeoutMS > 10000 {
		return fmt.Errorf("invalid lock_timeout_ms: %d (must be between 1 and 10000)", c.LockTimeoutMS)
	}

	if c.Hotkey.Key == "" {
		return fmt.Errorf("hotkey key cannot be empty")
	}

	return nil
}
