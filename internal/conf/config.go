package conf

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tailscale/hujson"
)

// Config - Settings read from a configuration file. The file is JSON with comments and trailing commas allowed.
// Zero values mean "use the default".
type Config struct {
	FillFactor   float64 `json:"fill_factor"`
	InitialSize  int64   `json:"initial_size"`
	SegmentBytes int     `json:"segment_bytes"`
	PoolDepth    int     `json:"pool_depth"`
	FileHandles  int     `json:"file_handles"`
	RangeChecks  *bool   `json:"range_checks"`
	LockWait     string  `json:"lock_wait"`
	LogLevel     string  `json:"log_level"`
}

// Load - Reads and parses a configuration file
func Load(path string) (cfg Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "read config %s", path)
		return
	}

	cfg, err = Parse(data)
	if err != nil {
		err = errors.Wrapf(err, "config %s", path)
		return
	}

	return
}

// Parse - Parses configuration data and validates the values
func Parse(data []byte) (cfg Config, err error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		err = errors.Wrap(err, "invalid JSONC")
		return
	}

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		err = errors.Wrap(err, "invalid JSON")
		return
	}

	err = cfg.Validate()

	return
}

// Validate - Returns an error describing the first invalid setting
func (C Config) Validate() (err error) {
	switch {
	case C.FillFactor < 0 || C.FillFactor > 1:
		err = errors.Errorf("fill_factor must be in (0, 1], got %v", C.FillFactor)
	case C.InitialSize < 0:
		err = errors.Errorf("initial_size must not be negative, got %d", C.InitialSize)
	case C.SegmentBytes < 0:
		err = errors.Errorf("segment_bytes must not be negative, got %d", C.SegmentBytes)
	case C.PoolDepth < 0:
		err = errors.Errorf("pool_depth must not be negative, got %d", C.PoolDepth)
	case C.FileHandles < 0:
		err = errors.Errorf("file_handles must not be negative, got %d", C.FileHandles)
	}
	if err != nil {
		return
	}

	if _, err = C.LockWaitDuration(); err != nil {
		return
	}
	_, err = C.Level()

	return
}

// LockWaitDuration - Returns lock_wait as a duration, zero when unset
func (C Config) LockWaitDuration() (d time.Duration, err error) {
	if C.LockWait == "" {
		return
	}

	d, err = time.ParseDuration(C.LockWait)
	if err != nil {
		err = errors.Wrap(err, "lock_wait")
		return
	}
	if d < 0 {
		err = errors.Errorf("lock_wait must not be negative, got %s", C.LockWait)
	}

	return
}

// Level - Returns log_level as a logrus level, info when unset
func (C Config) Level() (level log.Level, err error) {
	if C.LogLevel == "" {
		level = log.InfoLevel
		return
	}

	level, err = log.ParseLevel(C.LogLevel)
	if err != nil {
		err = errors.Wrap(err, "log_level")
	}

	return
}
