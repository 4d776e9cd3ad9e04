// Package job schedules background maintenance for the booking ledger.
package job

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Completer completes bookings whose window has passed.
type Completer interface {
	CompleteExpired(ctx context.Context) (int, error)
}

// sweepTimeout bounds a single sweep.
const sweepTimeout = 30 * time.Second

// StartSweeper schedules RunSweep on spec (standard cron syntax or a
// descriptor such as "@every 1m") and starts the scheduler.  Overlapping
// runs are skipped.  Call Stop on the returned scheduler at shutdown.
func StartSweeper(spec string, c Completer) (*cron.Cron, error) {
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := sched.AddFunc(spec, func() { RunSweep(context.Background(), c) }); err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}

// RunSweep completes expired bookings once and logs the outcome.
func RunSweep(ctx context.Context, c Completer) int {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()
	n, err := c.CompleteExpired(ctx)
	if err != nil {
		log.Printf("sweep: completed %d bookings before error: %v", n, err)
		return n
	}
	if n > 0 {
		log.Printf("sweep: completed %d expired bookings", n)
	}
	return n
}
