package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"parkingapp/logs"
	"parkingapp/models"
	"parkingapp/repository"

	"github.com/google/uuid"
)

const (
	DownloadReservationsCSV  = "download_reservations_csv"
	MonthlyReservationReport = "monthly_reservation_report"
	DailyReminder            = "daily_reminder"
)

var (
	ErrUnknownJob  = errors.New("unknown job")
	ErrJobNotFound = errors.New("job not found")
	ErrQueueFull   = errors.New("job queue is full")
)

// Func is the body of a job. The returned string becomes the job result.
type Func func(ctx context.Context) (string, error)

// Task is the unit handed to a Dispatcher and serialized onto the broker.
type Task struct {
	JobID string `json:"job_id"`
	Name  string `json:"name"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, task Task) error
}

type Executor interface {
	Execute(ctx context.Context, task Task)
}

// Runner records submitted jobs, hands them to a Dispatcher and executes
// them when a worker delivers them back.
type Runner struct {
	records    repository.JobRepository
	dispatcher Dispatcher
	now        func() time.Time

	mu    sync.RWMutex
	funcs map[string]Func
}

func NewRunner(records repository.JobRepository, dispatcher Dispatcher) *Runner {
	return &Runner{
		records:    records,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
		funcs:      map[string]Func{},
	}
}

func (r *Runner) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

func (r *Runner) lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Submit stores a pending record and dispatches the job. It returns the job id.
func (r *Runner) Submit(ctx context.Context, name string) (string, error) {
	if _, ok := r.lookup(name); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	record := &models.JobRecord{
		JobID:     uuid.NewString(),
		Name:      name,
		Status:    models.JobPending,
		CreatedAt: r.now(),
	}
	if err := r.records.Create(ctx, record); err != nil {
		return "", fmt.Errorf("create job record: %w", err)
	}
	if err := r.dispatcher.Dispatch(ctx, Task{JobID: record.JobID, Name: name}); err != nil {
		r.finish(ctx, record, "", fmt.Errorf("dispatch: %w", err))
		return "", fmt.Errorf("dispatch job %s: %w", name, err)
	}
	logs.Logger.Infof("Job %s submitted: %s", record.JobID, name)
	return record.JobID, nil
}

func (r *Runner) Poll(ctx context.Context, jobID string) (*models.JobRecord, error) {
	record, err := r.records.FindByID(ctx, jobID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	return record, nil
}

// Execute runs a delivered task and stores its outcome. A panic in the job
// body marks the job failed.
func (r *Runner) Execute(ctx context.Context, task Task) {
	record, err := r.records.FindByID(ctx, task.JobID)
	if err != nil {
		logs.Logger.Errorf("Job %s (%s) has no record: %v", task.JobID, task.Name, err)
		return
	}
	if record.Finished() {
		logs.Logger.Warnf("Job %s already %s, skipping redelivery", record.JobID, record.Status)
		return
	}
	fn, ok := r.lookup(task.Name)
	if !ok {
		r.finish(ctx, record, "", fmt.Errorf("%w: %s", ErrUnknownJob, task.Name))
		return
	}

	record.Status = models.JobRunning
	if err := r.records.Update(ctx, record); err != nil {
		logs.Logger.Errorf("Failed to mark job %s running: %v", record.JobID, err)
	}
	start := time.Now()
	result, err := run(ctx, fn)
	r.finish(ctx, record, result, err)
	logs.Logger.WithField("job_id", record.JobID).
		WithField("latency", time.Since(start)).
		Infof("Job %s finished: %s", task.Name, record.Status)
}

func run(ctx context.Context, fn Func) (result string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return fn(ctx)
}

func (r *Runner) finish(ctx context.Context, record *models.JobRecord, result string, err error) {
	finished := r.now()
	record.FinishedAt = &finished
	record.Result = result
	if err != nil {
		record.Status = models.JobFailed
		record.Error = err.Error()
		logs.Logger.Errorf("Job %s (%s) failed: %v", record.JobID, record.Name, err)
	} else {
		record.Status = models.JobDone
	}
	// The outcome is stored even when the worker context was cancelled mid-job.
	if uerr := r.records.Update(context.WithoutCancel(ctx), record); uerr != nil {
		logs.Logger.Errorf("Failed to store outcome of job %s: %v", record.JobID, uerr)
	}
}
