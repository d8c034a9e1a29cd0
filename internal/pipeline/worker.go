package pipeline

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/dgallion1/docsink/internal/convert"
)

// Worker converts one job at a time. Every job runs as an independent pass
// with its own diagnostics buffer, registry and sink.
type Worker struct {
	log   *slog.Logger
	stats *convert.Stats
}

func NewWorker(log *slog.Logger, stats *convert.Stats) *Worker {
	return &Worker{log: log, stats: stats}
}

// Process runs the conversion for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	if err := ctx.Err(); err != nil {
		log.Warn("job cancelled before start", "error", err)
		job.Finish(nil, err)
		return
	}

	job.SetStatus(StatusConverting, "converting")
	res, err := convert.File(bytes.NewReader(job.FileData()), job.Filename, job.Options(), log)
	if res != nil && w.stats != nil {
		w.stats.Observe(res)
	}
	if err != nil && res == nil {
		log.Error("conversion failed", "error", err)
	}
	job.Finish(res, err)
}
