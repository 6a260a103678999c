package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/fanmon/internal/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel         = "info"
	DefaultMode             = "monitor"
	DefaultConfigPath       = "/etc/fanmon.toml"
	DefaultEnvFile          = "/etc/default/fanmon"
	DefaultEnvPrefix        = "FANMON"
	DefaultPresenceConfig   = "/usr/share/fanmon/presence.json"
	DefaultMonitorConfig    = "/usr/share/fanmon/monitor.json"
	DefaultPresenceInterval = 2
	DefaultPIDDir           = "/run"
	DefaultFaultLogDB       = "/var/lib/fanmon/faults.db"
	DefaultFaultBatchSize   = 8
	DefaultFaultFlush       = 5
	DefaultMQTTEndpoint     = "tcp://localhost:1883"
	DefaultMQTTClientID     = "fanmon"
	DefaultMQTTTopicPrefix  = "fanmon"
	DefaultMQTTTimeout      = 5
	DefaultHTTPListen       = "127.0.0.1:8089"
	DefaultNVMLInterval     = 1
)

type FaultLogConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	DBPath        string `mapstructure:"db_path"`
	BatchSize     int    `mapstructure:"batch_size"`
	FlushInterval int    `mapstructure:"flush_interval"`
}

type MQTTConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Endpoint       string `mapstructure:"endpoint"`
	ClientID       string `mapstructure:"client_id"`
	TopicPrefix    string `mapstructure:"topic_prefix"`
	ConnectTimeout int    `mapstructure:"connect_timeout"`
}

type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

type NVMLConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Interval int  `mapstructure:"interval"`
}

type Config struct {
	LogLevel         string         `mapstructure:"log_level"`
	Mode             string         `mapstructure:"mode"`
	PresenceConfig   string         `mapstructure:"presence_config"`
	MonitorConfig    string         `mapstructure:"monitor_config"`
	PresenceInterval int            `mapstructure:"presence_interval"`
	PIDDir           string         `mapstructure:"pid_dir"`
	FaultLog         FaultLogConfig `mapstructure:"faultlog"`
	MQTT             MQTTConfig     `mapstructure:"mqtt"`
	HTTP             HTTPConfig     `mapstructure:"http"`
	NVML             NVMLConfig     `mapstructure:"nvml"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("mode", DefaultMode)
	v.SetDefault("presence_config", DefaultPresenceConfig)
	v.SetDefault("monitor_config", DefaultMonitorConfig)
	v.SetDefault("presence_interval", DefaultPresenceInterval)
	v.SetDefault("pid_dir", DefaultPIDDir)
	v.SetDefault("faultlog.enabled", false)
	v.SetDefault("faultlog.db_path", DefaultFaultLogDB)
	v.SetDefault("faultlog.batch_size", DefaultFaultBatchSize)
	v.SetDefault("faultlog.flush_interval", DefaultFaultFlush)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.endpoint", DefaultMQTTEndpoint)
	v.SetDefault("mqtt.client_id", DefaultMQTTClientID)
	v.SetDefault("mqtt.topic_prefix", DefaultMQTTTopicPrefix)
	v.SetDefault("mqtt.connect_timeout", DefaultMQTTTimeout)
	v.SetDefault("http.enabled", false)
	v.SetDefault("http.listen", DefaultHTTPListen)
	v.SetDefault("nvml.enabled", false)
	v.SetDefault("nvml.interval", DefaultNVMLInterval)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("fanmon", pflag.ContinueOnError)
	fs.String("config", "", "Path to the TOML configuration file")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("mode", DefaultMode, "Run mode: init or monitor")
	fs.String("presence-config", DefaultPresenceConfig, "Fan presence configuration document")
	fs.String("monitor-config", DefaultMonitorConfig, "Fan monitor configuration document")
	fs.Int("presence-interval", DefaultPresenceInterval, "Seconds between presence evaluations")
	fs.Bool("http", false, "Enable the status API")
	fs.String("http-listen", DefaultHTTPListen, "Status API listen address")

	return fs
}

var flagKeys = map[string]string{
	"log_level":         "log-level",
	"mode":              "mode",
	"presence_config":   "presence-config",
	"monitor_config":    "monitor-config",
	"presence_interval": "presence-interval",
	"http.enabled":      "http",
	"http.listen":       "http-listen",
}

// Load reads configuration from (lowest to highest precedence) defaults,
// the TOML file, the environment and the command line.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		envFile:   DefaultEnvFile,
		envPrefix: DefaultEnvPrefix,
		args:      os.Args[1:],
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	if o.envFile != "" {
		if _, err := os.Stat(o.envFile); err == nil {
			if err := godotenv.Load(o.envFile); err != nil {
				return nil, errFactory.Wrap(errors.ErrReadEnvFile, err)
			}
		}
	}

	fs := newFlagSet()
	if err := fs.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	path, explicit := configPath(o, fs)
	if path != "" {
		if _, err := os.Stat(path); err == nil || explicit {
			v.SetConfigFile(path)
			v.SetConfigType("toml")
			if err := v.ReadInConfig(); err != nil {
				return nil, errFactory.Wrap(errors.ErrReadConfig, err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// configPath picks the config file: option, then flag, then environment,
// then the default location. Only the default is allowed to be missing.
func configPath(o *options, fs *pflag.FlagSet) (string, bool) {
	if o.configPath != "" {
		return o.configPath, true
	}
	if p, _ := fs.GetString("config"); p != "" {
		return p, true
	}
	if p, ok := os.LookupEnv(o.envPrefix + "_CONFIG"); ok {
		return p, p != ""
	}

	return DefaultConfigPath, false
}

// Validate checks the loaded values for consistency.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if !Mode(c.Mode).IsValid() {
		return errFactory.WithData(errors.ErrInvalidMode, c.Mode)
	}

	if c.PresenceInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.PresenceInterval)
	}

	if c.MonitorConfig == "" && c.PresenceConfig == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "no presence or monitor document configured")
	}

	if Mode(c.Mode) == ModeInit && c.MonitorConfig == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "init mode requires a monitor document")
	}

	if c.FaultLog.Enabled && c.FaultLog.DBPath == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "fault log enabled without db_path")
	}

	if c.MQTT.Enabled && c.MQTT.Endpoint == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "mqtt enabled without endpoint")
	}

	if c.NVML.Enabled && c.NVML.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.NVML.Interval)
	}

	return nil
}

func (c *Config) PresencePollInterval() time.Duration {
	return time.Duration(c.PresenceInterval) * time.Second
}

func (c *Config) FaultFlushInterval() time.Duration {
	return time.Duration(c.FaultLog.FlushInterval) * time.Second
}

func (c *Config) MQTTConnectTimeout() time.Duration {
	return time.Duration(c.MQTT.ConnectTimeout) * time.Second
}

func (c *Config) NVMLPollInterval() time.Duration {
	return time.Duration(c.NVML.Interval) * time.Second
}
