package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingCompleter struct {
	calls atomic.Int32
	n     int
	err   error
}

func (c *countingCompleter) CompleteExpired(context.Context) (int, error) {
	c.calls.Add(1)
	return c.n, c.err
}

func TestRunSweepReturnsCount(t *testing.T) {
	c := &countingCompleter{n: 3}
	if got := RunSweep(context.Background(), c); got != 3 {
		t.Fatalf("RunSweep = %d, want 3", got)
	}
}

func TestRunSweepKeepsPartialCountOnError(t *testing.T) {
	c := &countingCompleter{n: 1, err: errors.New("db down")}
	if got := RunSweep(context.Background(), c); got != 1 {
		t.Fatalf("RunSweep = %d, want 1", got)
	}
}

func TestStartSweeperRejectsBadSpec(t *testing.T) {
	if _, err := StartSweeper("not a spec", &countingCompleter{}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStartSweeperRuns(t *testing.T) {
	c := &countingCompleter{}
	sched, err := StartSweeper("@every 1s", c)
	if err != nil {
		t.Fatalf("StartSweeper: %v", err)
	}
	defer sched.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for c.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if c.calls.Load() == 0 {
		t.Fatal("sweeper never ran")
	}
}
