package config

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath string
	envFile    string
	envPrefix  string
	args       []string
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithEnvFile specifies a dotenv file loaded before the environment is read.
// A missing file is ignored.
func WithEnvFile(path string) Option {
	return func(o *options) error {
		o.envFile = path
		return nil
	}
}

// WithEnvPrefix specifies a custom environment variable prefix
// Default is "FANMON"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) error {
		o.envPrefix = prefix
		return nil
	}
}

// WithArgs replaces os.Args[1:] as the command line to parse.
func WithArgs(args []string) Option {
	return func(o *options) error {
		o.args = args
		return nil
	}
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError, "warn":
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// Mode is the mode the monitor runs in.
//   - init: mark every sensor functional in inventory, then exit
//   - monitor: run the fault detection state machines
type Mode string

const (
	ModeInit    Mode = "init"
	ModeMonitor Mode = "monitor"
)

// IsValid returns whether the mode is known
func (m Mode) IsValid() bool {
	return m == ModeInit || m == ModeMonitor
}
