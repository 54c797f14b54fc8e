package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelAndWait(t *testing.T) {
	t.Run("finishes fast enough", func(t *testing.T) {
		testJobs := Jobs{
			fakeJob("session cleanup", time.Millisecond*100),
			fakeJob("perf collector", time.Millisecond*200),
			Noop(),
		}

		before := time.Now()
		unfinished := testJobs.CancelAndWait(time.Second * 1)
		after := time.Now()
		assert.WithinDuration(t, after, before, time.Millisecond*500)
		assert.Len(t, unfinished, 0)
	})
	t.Run("reports unfinished jobs", func(t *testing.T) {
		testJobs := Jobs{
			fakeJob("session cleanup", time.Millisecond*100),
			fakeJob("s3 server", time.Second*10),
		}

		unfinished := testJobs.CancelAndWait(time.Second * 1)
		assert.Equal(t, []string{"s3 server"}, unfinished)
	})
}

func TestRunScheduled(t *testing.T) {
	var runs int32
	job, err := RunScheduled("maintenance", Task{
		Name: "count",
		Spec: "@every 1s",
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	})
	require.Nil(t, err)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 50*time.Millisecond)

	unfinished := Jobs{job}.CancelAndWait(time.Second)
	assert.Empty(t, unfinished)
}

func TestRunScheduledBadSpec(t *testing.T) {
	_, err := RunScheduled("broken", Task{Name: "x", Spec: "not a schedule", Run: func(context.Context) error { return nil }})
	assert.NotNil(t, err)
}

func fakeJob(name string, timeout time.Duration) *Job {
	job := New(name)
	go func() {
		<-job.Ctx.Done()
		timer := time.NewTimer(timeout)
		<-timer.C
		job.Finish()
	}()
	return job
}
