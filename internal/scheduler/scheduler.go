// Package scheduler runs named jobs on independent fixed intervals.
//
// Each job gets its own goroutine and ticker; a tick that fires while the
// previous run of the same job is still in flight is skipped, so a job
// never overlaps itself. Different jobs run concurrently.
package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Job is one periodic task.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context)
}

// Scheduler runs registered jobs until its context is cancelled.
type Scheduler struct {
	jobs []Job
	wg   sync.WaitGroup
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Add registers a job. Must be called before Start.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// Start launches all jobs. The first run of each job happens after its
// first interval, not immediately.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(ctx, job)
	}
}

// Wait blocks until all job loops have exited after context cancellation.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Every)
	defer ticker.Stop()

	var running atomic.Bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !running.CompareAndSwap(false, true) {
				// Previous run still in flight, skip this tick
				log.Printf("[scheduler] %s still running, skipping tick", job.Name)
				continue
			}
			go func() {
				defer running.Store(false)
				job.Run(ctx)
			}()
		}
	}
}
