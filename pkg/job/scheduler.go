package job

import (
	"context"
)

// ScheduledJob describes a job waiting in a SchedulerRuntime.
type ScheduledJob struct {
	Job         Job
	TriggerDesc string
	NextRunTime int64
}

// SchedulerRuntime executes Jobs when their Triggers fire.
type SchedulerRuntime interface {
	// Start runs the scheduler until ctx is done.
	Start(ctx context.Context) error

	// ScheduleJob schedules a job using a specified trigger.
	ScheduleJob(ctx context.Context, job Job, trigger Trigger) error

	// GetJobKeys returns the keys of all of the scheduled jobs.
	GetJobKeys() []string

	// GetScheduledJob returns the scheduled job with the specified key.
	GetScheduledJob(key string) (*ScheduledJob, error)

	// DeleteJob removes the job with the specified key.
	DeleteJob(ctx context.Context, key string) error

	// Has reports whether a job with key is scheduled.
	Has(key string) bool
}
