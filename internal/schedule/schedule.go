package schedule

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Jakarta is the exchange timezone (WIB, UTC+7, no DST)
var Jakarta = time.FixedZone("WIB", 7*60*60)

// Job is a refresh task. It receives the scheduler's context.
type Job func(ctx context.Context)

// Refresher runs a job on a cron schedule. A run still in progress when the
// next tick fires causes that tick to be skipped.
type Refresher struct {
	cron *cron.Cron
	spec string
	job  Job
	ctx  context.Context

	mu      sync.Mutex
	running bool
	runs    int
}

// NewRefresher registers job under spec (standard 5-field cron or a
// descriptor such as "@every 5m"), evaluated in Jakarta time.
func NewRefresher(ctx context.Context, spec string, job Job) (*Refresher, error) {
	r := &Refresher{
		cron: cron.New(cron.WithLocation(Jakarta)),
		spec: spec,
		job:  job,
		ctx:  ctx,
	}
	if _, err := r.cron.AddFunc(spec, r.tick); err != nil {
		return nil, fmt.Errorf("register refresh %q: %w", spec, err)
	}
	return r, nil
}

// Start starts the scheduler in the background
func (r *Refresher) Start() {
	r.cron.Start()
	log.Printf("[SCHEDULE] refresher started (%s)", r.spec)
}

// Stop stops the scheduler and waits for a running job to finish
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	log.Println("[SCHEDULE] refresher stopped")
}

// RunNow executes the job immediately (for a refresh on start)
func (r *Refresher) RunNow() {
	r.tick()
}

// Next returns the next scheduled run, or the zero time when not started
func (r *Refresher) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Runs returns how many times the job has completed
func (r *Refresher) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func (r *Refresher) tick() {
	if r.ctx.Err() != nil {
		return
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		log.Println("[SCHEDULE] previous refresh still running, skipping")
		return
	}
	r.running = true
	r.mu.Unlock()

	start := time.Now()
	r.job(r.ctx)

	r.mu.Lock()
	r.running = false
	r.runs++
	r.mu.Unlock()
	log.Printf("[SCHEDULE] refresh finished in %v", time.Since(start).Round(time.Millisecond))
}
