package river

import (
	"context"

	"github.com/riverqueue/river"
	"github.com/sirupsen/logrus"
)

// StatusEventWorker processes status change jobs from the River queue. For
// now it logs the change; future versions will dispatch to webhooks or
// notification systems.
type StatusEventWorker struct {
	river.WorkerDefaults[StatusEventArgs]

	log *logrus.Logger
}

// Work processes a single status event job.
func (w *StatusEventWorker) Work(ctx context.Context, job *river.Job[StatusEventArgs]) error {
	w.log.WithFields(logrus.Fields{
		"event":     job.Args.Event,
		"kind":      job.Args.EntityKind,
		"entity_id": job.Args.EntityID,
		"status":    job.Args.Status,
		"job_id":    job.ID,
		"attempt":   job.Attempt,
	}).Info("processing status event")
	return nil
}
