package jobs

import (
	"context"
	"fmt"

	"parkingapp/logs"

	"github.com/robfig/cron/v3"
)

// Schedule submits the named job to the runner on every tick of the cron expression.
func Schedule(c *cron.Cron, r *Runner, expr, name string) (cron.EntryID, error) {
	id, err := c.AddFunc(expr, func() {
		jobID, err := r.Submit(context.Background(), name)
		if err != nil {
			logs.Logger.Errorf("Scheduled %s could not be submitted: %v", name, err)
			return
		}
		logs.Logger.Infof("Scheduled %s submitted as job %s", name, jobID)
	})
	if err != nil {
		return 0, fmt.Errorf("schedule %s at %q: %w", name, expr, err)
	}
	return id, nil
}
