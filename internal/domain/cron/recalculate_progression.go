package cron

import (
	"context"
	"time"

	"github.com/immersionlab/backend/internal/domain"
	"github.com/immersionlab/backend/pkg/dateutil"
	"github.com/immersionlab/backend/pkg/xcontext"
)

// RecalculateProgressionCronJob recomputes the progression of every user once
// a day, repairing any drift left by failed incremental recomputes.
type RecalculateProgressionCronJob struct {
	progressionDomain domain.ProgressionDomain

	// hour of day in UTC.
	hour int
}

func NewRecalculateProgressionCronJob(
	progressionDomain domain.ProgressionDomain,
	hour int,
) *RecalculateProgressionCronJob {
	return &RecalculateProgressionCronJob{progressionDomain: progressionDomain, hour: hour}
}

func (job *RecalculateProgressionCronJob) Do(ctx context.Context) {
	report, err := job.progressionDomain.RecalculateAll(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot recalculate progression: %v", err)
		return
	}

	for _, f := range report.Failures {
		xcontext.Logger(ctx).Warnf("Cannot recalculate progression of %s: %v", f.UserID, f.Err)
	}
}

func (job *RecalculateProgressionCronJob) RunNow() bool {
	return false
}

func (job *RecalculateProgressionCronJob) Next() time.Time {
	return dateutil.NextHour(time.Now(), job.hour)
}
