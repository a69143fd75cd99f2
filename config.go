package internstore

import (
	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/pool"
	log "github.com/sirupsen/logrus"
)

// ConfigurePool - Replaces the process-wide segment pool. Indexes opened afterwards use the new pool, open
// ones keep the pool they were opened with. Zero values mean "use the default".
func ConfigurePool(segmentBytes, depth int) {
	if segmentBytes <= 0 {
		segmentBytes = conf.DefaultSegmentBytes
	}
	if depth <= 0 {
		depth = conf.DefaultPoolDepth
	}

	pool.SetDefault(pool.New(segmentBytes, depth))
}

// LoadOptions - Reads a configuration file and returns the index options it describes. Pool sizing and log
// level are process wide and are applied right away when the file sets them.
func LoadOptions(path string) (opts Options, err error) {
	cfg, err := conf.Load(path)
	if err != nil {
		return
	}

	if opts.LockWait, err = cfg.LockWaitDuration(); err != nil {
		return
	}
	opts.FillFactor = cfg.FillFactor
	opts.InitialSize = cfg.InitialSize
	opts.FileHandles = cfg.FileHandles
	opts.NoRangeChecks = cfg.RangeChecks != nil && !*cfg.RangeChecks

	if cfg.SegmentBytes > 0 || cfg.PoolDepth > 0 {
		ConfigurePool(cfg.SegmentBytes, cfg.PoolDepth)
	}
	if cfg.LogLevel != "" {
		var level log.Level
		if level, err = cfg.Level(); err != nil {
			return
		}
		log.SetLevel(level)
	}

	log.WithFields(log.Fields{"config": path, "fill_factor": opts.FillFactor, "initial_size": opts.InitialSize}).
		Debug("loaded configuration")

	return
}
