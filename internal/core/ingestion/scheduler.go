package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
)

// runTimeout caps one document run end to end. Extraction of a large PDF
// plus embedding round trips fits comfortably; anything past this is stuck.
const runTimeout = 5 * time.Minute

// maxQueuedJobs bounds callers blocked on a full pool before Enqueue
// starts rejecting, which is the back-pressure signal to the upload path.
const maxQueuedJobs = 256

// ErrQueueFull is returned by Enqueue when the worker pool and its waiting
// queue are both saturated.
var ErrQueueFull = errors.New("ingestion queue full")

// Scheduler runs pipeline jobs on a bounded worker pool so uploads are
// fire-and-scheduled: the request handler enqueues and returns while
// extraction and embedding happen on worker goroutines.
type Scheduler struct {
	pipeline *Pipeline
	pool     *ants.Pool
	logger   *slog.Logger
}

func NewScheduler(pipeline *Pipeline, workers int, logger *slog.Logger) (*Scheduler, error) {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(workers,
		ants.WithMaxBlockingTasks(maxQueuedJobs),
		ants.WithNonblocking(false),
	)
	if err != nil {
		return nil, err
	}

	return &Scheduler{pipeline: pipeline, pool: pool, logger: logger}, nil
}

// Enqueue schedules a document run. The job carries everything the run
// needs; each run gets its own deadline-bounded context, independent of the
// originating request. Run errors are logged, not returned — the document's
// status row is the caller-visible outcome.
func (s *Scheduler) Enqueue(job Job) error {
	err := s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if err := s.pipeline.ProcessDocument(ctx, job); err != nil {
			s.logger.Error("ingestion run failed",
				"document_id", job.DocumentID, "file", job.FileName, "err", err)
		}
	})
	if errors.Is(err, ants.ErrPoolOverload) {
		return ErrQueueFull
	}
	return err
}

// Release drains the pool. In-flight runs finish; queued ones are dropped,
// which is safe because unclaimed documents stay "pending" and stale
// "processing" rows are recovered at next startup.
func (s *Scheduler) Release() {
	s.pool.Release()
}
