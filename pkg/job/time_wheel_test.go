package job

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterJob(key string, n *int32) Job {
	return FuncJob{
		Name: key,
		Desc: key,
		Fn: func(context.Context) {
			atomic.AddInt32(n, 1)
		},
	}
}

func TestTimeWheel(t *testing.T) {
	tw := NewTimeWheel(WithInterval(10*time.Millisecond), WithSlot(8))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once, every int32
	require.NoError(t, tw.ScheduleJob(ctx, counterJob("once", &once), RunOnce(0)))
	require.NoError(t, tw.ScheduleJob(ctx, counterJob("every", &every), Every(20*time.Millisecond)))
	assert.Error(t, tw.ScheduleJob(ctx, counterJob("every", &every), Every(time.Second)))
	assert.ElementsMatch(t, []string{"once", "every"}, tw.GetJobKeys())

	scheduled, err := tw.GetScheduledJob("every")
	require.NoError(t, err)
	assert.Equal(t, "every 20ms", scheduled.TriggerDesc)

	done := make(chan struct{})
	go func() {
		_ = tw.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&once) == 1 && atomic.LoadInt32(&every) >= 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, tw.Has("once"))

	require.NoError(t, tw.DeleteJob(ctx, "every"))
	assert.False(t, tw.Has("every"))
	cancel()
	<-done
}

func TestLongDelayWrapsTheWheel(t *testing.T) {
	var now int64
	tw := NewTimeWheel(WithInterval(time.Second), WithSlot(4), func(o *option) {
		o.nowFunc = func() int64 { return now }
	}).(*timeWheel)
	var fired int32
	require.NoError(t, tw.ScheduleJob(context.Background(), counterJob("late", &fired), RunOnce(9*time.Second)))

	for i := 1; i <= 8; i++ {
		now = int64(i) * int64(time.Second)
		assert.Empty(t, tw.advance(context.Background()), "tick %d", i)
	}
	now = 9 * int64(time.Second)
	due := tw.advance(context.Background())
	require.Len(t, due, 1)
	assert.Equal(t, "late", due[0].job.Key())
	assert.False(t, tw.Has("late"))
}

func TestSingletonSkipsOverlap(t *testing.T) {
	release := make(chan struct{})
	var runs int32
	j := Singleton(FuncJob{Name: "slow", Fn: func(context.Context) {
		atomic.AddInt32(&runs, 1)
		<-release
	}})
	go j.Execute(context.Background())
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, time.Millisecond)
	j.Execute(context.Background())
	close(release)
	assert.EqualValues(t, 1, atomic.LoadInt32(&runs))
}
