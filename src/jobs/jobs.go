package jobs

import (
	"context"
	"time"

	"git.hoosierptk.dev/forums/forums/src/logging"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

/*
Background work in the forums (session cleanup, the perf collector, the local
S3 server) runs as a Job. A Job owns a cancelable context and a done channel,
so the server can ask everything to stop on shutdown and wait for it.
*/

type Job struct {
	Name   string
	Ctx    context.Context
	Logger zerolog.Logger
	cancel func()
	done   chan struct{}
}

func New(name string) *Job {
	logger := logging.With().Str("job", name).Logger()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logging.AttachLoggerToContext(&logger, ctx)
	return &Job{
		Name:   name,
		Ctx:    ctx,
		Logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Noop returns a job that is already finished. Useful when a feature is
// disabled by config but the caller still wants something to track.
func Noop() *Job {
	job := New("noop")
	job.Finish()
	return job
}

// Cancel asks the job to stop. Called from outside the job.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) Canceled() <-chan struct{} {
	return j.Ctx.Done()
}

// Finish marks the job's work as complete. Called by the job itself.
func (j *Job) Finish() *Job {
	close(j.done)
	return j
}

func (j *Job) Finished() <-chan struct{} {
	return j.done
}

// A Task is a unit of work run on a schedule by RunScheduled.
type Task struct {
	Name string
	// Standard cron spec, or a descriptor like "@every 5m".
	Spec string
	Run  func(ctx context.Context) error
}

// RunScheduled runs each task on its cron schedule until the job is canceled.
// Tasks that fail are logged and retried at their next scheduled time.
func RunScheduled(name string, tasks ...Task) (*Job, error) {
	job := New(name)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	for _, task := range tasks {
		task := task
		_, err := c.AddFunc(task.Spec, func() {
			defer logging.LogPanics(&job.Logger)
			start := time.Now()
			if err := task.Run(job.Ctx); err != nil {
				job.Logger.Error().Err(err).Str("task", task.Name).Msg("scheduled task failed")
				return
			}
			job.Logger.Debug().Str("task", task.Name).Dur("took", time.Since(start)).Msg("scheduled task finished")
		})
		if err != nil {
			job.Cancel()
			return nil, err
		}
	}

	c.Start()
	go func() {
		<-job.Canceled()
		<-c.Stop().Done()
		job.Finish()
	}()

	return job, nil
}

// Jobs is a group of jobs that can be shut down together.
type Jobs []*Job

// CancelAndWait cancels every job and waits for all of them to finish or for
// the timeout to expire. It returns the names of jobs that did not finish.
func (jobs Jobs) CancelAndWait(timeout time.Duration) []string {
	allDoneChan := make(chan struct{})
	for _, job := range jobs {
		job.Cancel()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	go func() {
		for _, job := range jobs {
			<-job.Finished()
		}
		close(allDoneChan)
	}()

	select {
	case <-timer.C:
		return jobs.ListUnfinished()
	case <-allDoneChan:
		return nil
	}
}

func (jobs Jobs) ListUnfinished() []string {
	unfinished := []string{}
	for _, job := range jobs {
		select {
		case <-job.Finished():
			continue
		default:
			unfinished = append(unfinished, job.Name)
		}
	}
	return unfinished
}
