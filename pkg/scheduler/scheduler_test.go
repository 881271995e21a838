package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEveryRunsAndStops(t *testing.T) {
	s := New()
	var runs int32
	s.Every(10*time.Millisecond, FuncJob(func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	}))

	time.Sleep(60 * time.Millisecond)
	s.Stop()
	got := atomic.LoadInt32(&runs)
	assert.Greater(t, got, int32(0))

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, got, atomic.LoadInt32(&runs), "任务应在Stop后停止")
}

func TestOnceAfter(t *testing.T) {
	s := New()
	defer s.Stop()
	done := make(chan struct{})
	s.OnceAfter(10*time.Millisecond, FuncJob(func(ctx context.Context) {
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("任务未触发")
	}
}

func TestCronAddInvalidExpr(t *testing.T) {
	cr := NewCron(time.UTC)
	_, err := cr.Add("not a cron expr", FuncJob(func(ctx context.Context) {}))
	assert.Error(t, err)
}

// @every 不支持亚秒间隔（不足1秒会按1秒调度），触发判定用
// channel 等待而不是靠短睡眠。
func TestCronRunsJob(t *testing.T) {
	cr := NewCron(time.UTC)
	fired := make(chan struct{})
	var once sync.Once
	_, err := cr.Add("@every 1s", FuncJob(func(ctx context.Context) {
		once.Do(func() { close(fired) })
	}))
	assert.NoError(t, err)
	assert.Len(t, cr.Entries(), 1)

	cr.Start()
	defer cr.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("任务未触发")
	}
}
