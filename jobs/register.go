// Package jobs wires background maintenance work into a River job queue.
package jobs

import (
	"fmt"

	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"

	"github.com/open-rails/signon/core"
)

// RegisterPurgePendingSignupsWorker registers the purge worker into a River
// workers registry.
func RegisterPurgePendingSignupsWorker(ws *river.Workers, svc *core.Service) {
	river.AddWorker(ws, NewPurgePendingSignupsWorker(svc))
}

// AddPurgePendingSignupsPeriodicJob enqueues the purge job on a cron
// schedule, e.g. "0 4 * * *" for daily at 4 AM.
func AddPurgePendingSignupsPeriodicJob[T any](client *river.Client[T], cronSpec string, args PurgePendingSignupsArgs, runOnStart bool) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronSpec)
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", cronSpec, err)
	}
	opts := args.InsertOpts()
	_ = client.PeriodicJobs().Add(
		river.NewPeriodicJob(
			schedule,
			func() (river.JobArgs, *river.InsertOpts) { return args, &opts },
			&river.PeriodicJobOpts{RunOnStart: runOnStart},
		),
	)
	return nil
}
