package job

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"marketplace/pkg/logger"
	"marketplace/pkg/routine"
)

type entry struct {
	job     Job
	trigger Trigger
	next    int64
	pos     int
	circle  int
	elem    *list.Element
}

type option struct {
	interval time.Duration
	slotNum  int
	nowFunc  func() int64
}

type Option func(*option)

// WithInterval sets how far the pointer moves per tick, which is also the scheduling resolution.
func WithInterval(interval time.Duration) Option {
	return func(o *option) {
		o.interval = interval
	}
}

func WithSlot(slotNum int) Option {
	return func(o *option) {
		o.slotNum = slotNum
	}
}

// NewTimeWheel returns a hashed timing wheel scheduler.
func NewTimeWheel(opts ...Option) SchedulerRuntime {
	o := &option{
		interval: time.Second,
		slotNum:  1024,
		nowFunc: func() int64 {
			return time.Now().UTC().UnixNano()
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	t := &timeWheel{
		interval: o.interval,
		slots:    make([]*list.List, o.slotNum),
		index:    cmap.New(),
		cur:      0,
		slotSum:  o.slotNum,
		nowFunc:  o.nowFunc,
	}
	for i := 0; i < t.slotSum; i++ {
		t.slots[i] = list.New()
	}
	return t
}

type timeWheel struct {
	mu       sync.Mutex
	interval time.Duration
	slots    []*list.List
	// key -> *entry
	index   cmap.ConcurrentMap
	cur     int
	slotSum int
	nowFunc func() int64
}

func (t *timeWheel) Start(ctx context.Context) error {
	pool := routine.NewPool()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			pool.Wait()
			return nil
		case <-ticker.C:
			for _, e := range t.advance(ctx) {
				job := e.job
				pool.Go(ctx, job.Execute)
			}
		}
	}
}

func (t *timeWheel) ScheduleJob(ctx context.Context, job Job, trigger Trigger) error {
	e := &entry{job: job, trigger: trigger}
	if !t.index.SetIfAbsent(job.Key(), e) {
		return fmt.Errorf("job %s already scheduled", job.Key())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.place(e, t.nowFunc()); err != nil {
		t.index.Remove(job.Key())
		if errors.Is(err, ErrSkipScheduleJob) {
			return nil
		}
		return err
	}
	logger.From(ctx).Debug("job scheduled",
		zap.String("key", job.Key()),
		zap.String("trigger", trigger.Description()))
	return nil
}

func (t *timeWheel) GetJobKeys() []string {
	return t.index.Keys()
}

func (t *timeWheel) GetScheduledJob(key string) (*ScheduledJob, error) {
	value, found := t.index.Get(key)
	if !found {
		return nil, fmt.Errorf("job %s not found", key)
	}
	e := value.(*entry)
	t.mu.Lock()
	defer t.mu.Unlock()
	return &ScheduledJob{
		Job:         e.job,
		TriggerDesc: e.trigger.Description(),
		NextRunTime: e.next,
	}, nil
}

func (t *timeWheel) DeleteJob(_ context.Context, key string) error {
	value, found := t.index.Pop(key)
	if !found {
		return nil
	}
	e := value.(*entry)
	t.mu.Lock()
	if e.elem != nil {
		t.slots[e.pos].Remove(e.elem)
		e.elem = nil
	}
	t.mu.Unlock()
	return nil
}

func (t *timeWheel) Has(key string) bool {
	return t.index.Has(key)
}

// place computes the next fire time of e and links it into its slot. Callers hold t.mu.
func (t *timeWheel) place(e *entry, now int64) error {
	next, err := e.trigger.NextFireTime(now)
	if err != nil {
		return err
	}
	delay := next - now
	if delay < t.interval.Nanoseconds() {
		delay = t.interval.Nanoseconds()
	}
	steps := delay / t.interval.Nanoseconds()
	e.next = next
	e.pos = int((int64(t.cur) + steps) % int64(t.slotSum))
	e.circle = int((steps - 1) / int64(t.slotSum))
	e.elem = t.slots[e.pos].PushBack(e)
	return nil
}

// advance moves the pointer one slot and returns the entries that are due, rescheduling them.
func (t *timeWheel) advance(ctx context.Context) []*entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur = (t.cur + 1) % t.slotSum
	l := t.slots[t.cur]
	var due []*entry
	for el := l.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*entry)
		if e.circle > 0 {
			e.circle--
			el = next
			continue
		}
		l.Remove(el)
		e.elem = nil
		due = append(due, e)
		el = next
	}
	now := t.nowFunc()
	for _, e := range due {
		if err := t.place(e, now); err != nil {
			t.index.Remove(e.job.Key())
			if !errors.Is(err, ErrSkipScheduleJob) {
				logger.From(ctx).Error("reschedule job failed",
					zap.String("key", e.job.Key()),
					zap.String("trigger", e.trigger.Description()),
					zap.Error(err))
			}
		}
	}
	return due
}
