package upload

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor periodically sweeps stale uploads left behind by failed requests
type Janitor struct {
	dir    *Dir
	maxAge time.Duration
	cron   *cron.Cron
}

// NewJanitor schedules sweeps of dir on the given cron schedule
func NewJanitor(dir *Dir, schedule string, maxAge time.Duration) (*Janitor, error) {
	j := &Janitor{
		dir:    dir,
		maxAge: maxAge,
		cron:   cron.New(),
	}

	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("scheduling upload sweep %q: %w", schedule, err)
	}

	return j, nil
}

func (j *Janitor) run() {
	removed, err := j.dir.Sweep(j.maxAge)
	if err != nil {
		log.Printf("❌ Upload sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("🧹 Removed %d stale uploads from %s", removed, j.dir.Path())
	}
}

// Start runs the scheduler in the background
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the scheduler and waits for a running sweep to finish or ctx to end
func (j *Janitor) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
