package faultlog

import (
	"path/filepath"
	"time"

	"codeberg.org/mutker/fanmon/internal/errors"
)

const (
	defaultDirPerm   = 0o755
	defaultDBPath    = "/var/lib/fanmon/faults.db"
	defaultBatchSize = 8
	defaultFlush     = 5 * time.Second
	defaultQueueSize = 64
)

type Config struct {
	Enabled       bool
	DBPath        string
	BatchSize     int
	FlushInterval time.Duration
	// BackupDir receives a copy of a database whose schema is replaced.
	// Defaults to a backups directory next to DBPath.
	BackupDir string
	QueueSize int
}

func DefaultConfig() Config {
	return Config{
		DBPath:        defaultDBPath,
		BatchSize:     defaultBatchSize,
		FlushInterval: defaultFlush,
		QueueSize:     defaultQueueSize,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 0 || c.FlushInterval < 0 || c.QueueSize < 0 {
		return errFactory.WithData(ErrInvalidConfig, "batch size, flush interval and queue size must not be negative")
	}
	return nil
}

func (c Config) backupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(c.DBPath), "backups")
}
