package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/fanmon/internal/config"
	"codeberg.org/mutker/fanmon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func load(t *testing.T, opts ...config.Option) (*config.Config, error) {
	t.Helper()
	base := []config.Option{config.WithArgs([]string{}), config.WithEnvFile("")}
	return config.Load(append(base, opts...)...)
}

func TestLoad(t *testing.T) {
	configPath := writeFile(t, "fanmon.toml", `
log_level = "debug"
mode = "monitor"
presence_config = "/etc/fanmon/presence.json"
monitor_config = "/etc/fanmon/monitor.json"
presence_interval = 5

[faultlog]
enabled = true
db_path = "/tmp/faults.db"
batch_size = 2

[mqtt]
enabled = true
endpoint = "tcp://broker:1883"
topic_prefix = "bmc0"
`)
	t.Setenv("FANMON_CONFIG", configPath)

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "monitor", cfg.Mode)
	assert.Equal(t, "/etc/fanmon/presence.json", cfg.PresenceConfig)
	assert.Equal(t, "/etc/fanmon/monitor.json", cfg.MonitorConfig)
	assert.Equal(t, 5*time.Second, cfg.PresencePollInterval())
	assert.True(t, cfg.FaultLog.Enabled)
	assert.Equal(t, "/tmp/faults.db", cfg.FaultLog.DBPath)
	assert.Equal(t, 2, cfg.FaultLog.BatchSize)
	assert.Equal(t, config.DefaultFaultFlush, cfg.FaultLog.FlushInterval)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Endpoint)
	assert.Equal(t, "bmc0", cfg.MQTT.TopicPrefix)
	assert.Equal(t, config.DefaultMQTTClientID, cfg.MQTT.ClientID)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FANMON_CONFIG", "")

	cfg, err := load(t)
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultMode, cfg.Mode)
	assert.Equal(t, config.DefaultPresenceInterval, cfg.PresenceInterval)
	assert.Equal(t, config.DefaultMonitorConfig, cfg.MonitorConfig)
	assert.False(t, cfg.FaultLog.Enabled)
	assert.False(t, cfg.MQTT.Enabled)
	assert.False(t, cfg.HTTP.Enabled)
	assert.False(t, cfg.NVML.Enabled)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeFile(t, "fanmon.toml", `
This is not a valid TOML file
`)

	_, err := load(t, config.WithConfigFile(configPath))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := load(t, config.WithConfigFile(filepath.Join(t.TempDir(), "absent.toml")))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeFile(t, "fanmon.toml", `
log_level = "invalid"
`)

	_, err := load(t, config.WithConfigFile(configPath))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid log level")
}

func TestInvalidMode(t *testing.T) {
	t.Setenv("FANMON_CONFIG", "")
	_, err := load(t, config.WithArgs([]string{"--mode", "standby"}))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidMode))
}

func TestFlagsOverrideFile(t *testing.T) {
	configPath := writeFile(t, "fanmon.toml", `
log_level = "error"
presence_interval = 9
`)

	cfg, err := load(t,
		config.WithConfigFile(configPath),
		config.WithArgs([]string{"--log-level", "debug", "--http", "--mode=init"}),
	)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
	assert.Equal(t, 9, cfg.PresenceInterval, "Expected unset flag not to override file")
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, "init", cfg.Mode)
}

func TestEnvOverridesFile(t *testing.T) {
	configPath := writeFile(t, "fanmon.toml", `
presence_interval = 9
`)
	t.Setenv("FANMON_PRESENCE_INTERVAL", "3")
	t.Setenv("FANMON_FAULTLOG_ENABLED", "true")

	cfg, err := load(t, config.WithConfigFile(configPath))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.PresenceInterval)
	assert.True(t, cfg.FaultLog.Enabled)
}

func TestEnvFile(t *testing.T) {
	t.Setenv("FANMON_CONFIG", "")
	envPath := writeFile(t, "fanmon.env", "FANMON_MQTT_TOPIC_PREFIX=rack7\n")
	t.Cleanup(func() { os.Unsetenv("FANMON_MQTT_TOPIC_PREFIX") })

	cfg, err := load(t, config.WithEnvFile(envPath))
	require.NoError(t, err)
	assert.Equal(t, "rack7", cfg.MQTT.TopicPrefix)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			LogLevel:         "info",
			Mode:             "monitor",
			MonitorConfig:    "/m.json",
			PresenceInterval: 1,
		}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.PresenceInterval = 0
	assert.True(t, errors.HasCode(cfg.Validate(), errors.ErrInvalidInterval))

	cfg = valid()
	cfg.Mode = "init"
	cfg.MonitorConfig = ""
	cfg.PresenceConfig = "/p.json"
	assert.True(t, errors.HasCode(cfg.Validate(), errors.ErrMissingConfig))

	cfg = valid()
	cfg.FaultLog.Enabled = true
	assert.True(t, errors.HasCode(cfg.Validate(), errors.ErrMissingConfig))
}
