package job

import (
	"errors"
	"fmt"
	"time"
)

// ErrSkipScheduleJob is returned by a Trigger that will not fire again.
var ErrSkipScheduleJob = errors.New("skip schedule job")

// Trigger represents the mechanism by which Jobs are scheduled.
type Trigger interface {
	// NextFireTime returns the next fire time in unix nanoseconds, given the current one.
	NextFireTime(prev int64) (int64, error)

	// Description returns the description of the Trigger.
	Description() string
}

type constantDelayTrigger struct {
	Interval time.Duration
}

var _ Trigger = (*constantDelayTrigger)(nil)

// Every fires repeatedly with a fixed interval.
func Every(interval time.Duration) Trigger {
	return &constantDelayTrigger{Interval: interval}
}

func (t *constantDelayTrigger) NextFireTime(prev int64) (int64, error) {
	if t.Interval <= 0 {
		return 0, fmt.Errorf("invalid interval %s", t.Interval)
	}
	return prev + t.Interval.Nanoseconds(), nil
}

func (t *constantDelayTrigger) Description() string {
	return fmt.Sprintf("every %s", t.Interval)
}

type runOnceTrigger struct {
	Delay   time.Duration
	expired bool
}

var _ Trigger = (*runOnceTrigger)(nil)

// RunOnce fires a single time after delay.
func RunOnce(delay time.Duration) Trigger {
	return &runOnceTrigger{Delay: delay}
}

func (ot *runOnceTrigger) NextFireTime(prev int64) (int64, error) {
	if ot.expired {
		return 0, ErrSkipScheduleJob
	}
	ot.expired = true
	return prev + ot.Delay.Nanoseconds(), nil
}

func (ot *runOnceTrigger) Description() string {
	if ot.expired {
		return "run once (expired)"
	}
	return fmt.Sprintf("run once after %s", ot.Delay)
}

type runAtTrigger struct {
	at      int64
	expired bool
}

var _ Trigger = (*runAtTrigger)(nil)

// RunAt fires a single time at the unix nanosecond at, or immediately when at is in the past.
func RunAt(at int64) Trigger {
	return &runAtTrigger{at: at}
}

func (ot *runAtTrigger) NextFireTime(prev int64) (int64, error) {
	if ot.expired {
		return 0, ErrSkipScheduleJob
	}
	ot.expired = true
	if prev > ot.at {
		return prev, nil
	}
	return ot.at, nil
}

func (ot *runAtTrigger) Description() string {
	if ot.expired {
		return "run at (expired)"
	}
	return fmt.Sprintf("run at %s", time.Unix(0, ot.at).UTC().Format(time.RFC3339))
}
