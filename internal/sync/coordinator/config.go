package coordinator

import (
	"time"

	"github.com/stacklok/showsync/internal/config"
)

// schedule is the timing configuration of the coordinator loop
type schedule struct {
	// interval is the minimum time between two full passes
	interval time.Duration
	// tick is how often the loop wakes to check the interval and cancellation
	tick time.Duration
	// runOnStart runs the first pass on the first tick instead of after one interval
	runOnStart bool
}

// scheduleFromConfig reads the sync section, applying defaults
func scheduleFromConfig(cfg *config.Config) schedule {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return schedule{
		interval:   cfg.GetSyncInterval(),
		tick:       cfg.GetTickInterval(),
		runOnStart: cfg.GetRunOnStart(),
	}
}
