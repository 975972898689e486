package job

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"marketplace/pkg/logger"
)

// Job is a unit of work run by a SchedulerRuntime each time its Trigger fires.
type Job interface {
	// Description returns the description of the Job.
	Description() string

	// Key returns the unique key for the Job.
	Key() string

	// Execute is called by a SchedulerRuntime when the Trigger associated with this job fires.
	Execute(context.Context)
}

// FuncJob adapts a function to Job.
type FuncJob struct {
	Name string
	Desc string
	Fn   func(context.Context)
}

func (f FuncJob) Description() string { return f.Desc }

func (f FuncJob) Key() string { return f.Name }

func (f FuncJob) Execute(ctx context.Context) { f.Fn(ctx) }

// Singleton wraps job so that a firing is skipped while the previous run is still executing.
func Singleton(job Job) Job {
	return &singleton{Job: job}
}

type singleton struct {
	Job
	running int32
}

func (s *singleton) Execute(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		logger.From(ctx).Warn("skip job, previous run still executing", zap.String("key", s.Key()))
		return
	}
	defer atomic.StoreInt32(&s.running, 0)
	s.Job.Execute(ctx)
}
