package jobs

import (
	"context"
	"errors"
	stdlog "log"
	"time"

	"github.com/riverqueue/river"

	"github.com/open-rails/signon/core"
)

type PurgePendingSignupsArgs struct {
	RetentionDays int `json:"retention_days,omitempty"`
	BatchSize     int `json:"batch_size,omitempty"`
}

func (PurgePendingSignupsArgs) Kind() string { return "signon_purge_pending_signups" }

func (args PurgePendingSignupsArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue: river.QueueDefault,
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
		},
	}
}

// PurgePendingSignupsWorker deletes user records that never completed a first
// sign-in. A sign-up whose remote record was created but whose session never
// followed leaves a pending row behind (the inverse of the orphaned provider
// account); after the retention window both sides are treated as abandoned.
type PurgePendingSignupsWorker struct {
	river.WorkerDefaults[PurgePendingSignupsArgs]
	svc *core.Service
}

func NewPurgePendingSignupsWorker(svc *core.Service) *PurgePendingSignupsWorker {
	return &PurgePendingSignupsWorker{svc: svc}
}

func (w *PurgePendingSignupsWorker) Timeout(*river.Job[PurgePendingSignupsArgs]) time.Duration {
	return 10 * time.Minute
}

func (w *PurgePendingSignupsWorker) Work(ctx context.Context, job *river.Job[PurgePendingSignupsArgs]) error {
	if w == nil || w.svc == nil || w.svc.Users() == nil {
		return errors.New("signon purge: user store not configured")
	}
	retention := job.Args.RetentionDays
	if retention <= 0 {
		retention = 30
	}
	batch := job.Args.BatchSize
	if batch <= 0 {
		batch = 500
	}

	cutoff := time.Now().AddDate(0, 0, -retention)
	ids, err := w.svc.Users().ListPendingBefore(ctx, cutoff, batch)
	if err != nil {
		return err
	}
	for _, userID := range ids {
		if err := w.svc.Users().DeleteUser(ctx, userID); err != nil {
			return err
		}
	}
	if len(ids) > 0 {
		stdlog.Printf("[signon/jobs] purged %d pending signups older than %s", len(ids), cutoff.Format(time.RFC3339))
	}
	return nil
}
