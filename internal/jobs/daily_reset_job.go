// Package jobs holds the scheduled tasks run by the server's cron.
package jobs

import (
	"context"
	"time"

	"github.com/google/logger"
	"github.com/robfig/cron/v3"
)

// Resetter refills daily quotas across all wheels.
type Resetter interface {
	ResetAll(ctx context.Context) (int, error)
}

// DailyResetJob refills every wheel's quotas shortly after midnight so the
// first visitor of the day does not pay for the write. Reads and spins still
// reset lazily, so a missed run is harmless.
type DailyResetJob struct {
	resetter Resetter
	timeout  time.Duration
}

var _ cron.Job = (*DailyResetJob)(nil)

func NewDailyResetJob(r Resetter) *DailyResetJob {
	return &DailyResetJob{resetter: r, timeout: time.Minute}
}

func (j *DailyResetJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.resetter.ResetAll(ctx)
	if err != nil {
		logger.Errorf("Daily quota reset finished with errors (%d wheels reset): %v", n, err)
		return
	}
	logger.Infof("Daily quota reset: %d wheels refilled", n)
}

// Schedule registers the job on c under spec.
func Schedule(c *cron.Cron, spec string, r Resetter) (cron.EntryID, error) {
	return c.AddJob(spec, NewDailyResetJob(r))
}
