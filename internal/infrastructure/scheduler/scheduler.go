// Package scheduler runs the background jobs of the marketplace (abandoned cart
// reminders, campaign dispatch, payout eligibility and payment attempt expiry)
// on fixed intervals inside the server process.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// JobFunc is the body of a job
type JobFunc func(ctx context.Context) error

// Job is a named unit of background work
type Job struct {
	Name     string
	Interval time.Duration
	Run      JobFunc
	// RunOnStart triggers the first run immediately instead of after one interval
	RunOnStart bool

	running atomic.Bool
}

// RunStats is the outcome of the last run of a job
type RunStats struct {
	Name       string        `json:"name"`
	LastRunAt  *time.Time    `json:"last_run_at,omitempty"`
	LastError  string        `json:"last_error,omitempty"`
	Duration   time.Duration `json:"duration"`
	Runs       int64         `json:"runs"`
	Failures   int64         `json:"failures"`
	Overlapped int64         `json:"overlapped"`
}

// Config holds scheduler configuration
type Config struct {
	Enabled    bool
	JobTimeout time.Duration
}

// Scheduler runs registered jobs on their intervals. A job never overlaps with
// itself: a tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	config Config
	logger *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*Job
	stats     map[string]*RunStats
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		config: config,
		logger: logger,
		jobs:   make(map[string]*Job),
		stats:  make(map[string]*RunStats),
	}
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job *Job) error {
	if job == nil || job.Name == "" || job.Run == nil {
		return fmt.Errorf("scheduler: job needs a name and a run function")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("scheduler: job %s needs a positive interval", job.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	s.jobs[job.Name] = job
	s.stats[job.Name] = &RunStats{Name: job.Name}
	return nil
}

// JobNames lists registered jobs alphabetically
func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start starts one ticker goroutine per job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Scheduler is disabled")
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
	count := len(s.jobs)
	s.mu.Unlock()

	s.logger.Info("Scheduler started",
		zap.Int("jobs", count),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunOnce runs a job immediately, honouring the overlap guard
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, job)
}

// Stats returns a snapshot of every job's run statistics
func (s *Scheduler) Stats() []RunStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RunStats, 0, len(s.stats))
	for _, st := range s.stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) loop(ctx context.Context, job *Job) {
	defer s.wg.Done()

	if job.RunOnStart {
		s.tick(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, job)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, job *Job) {
	if err := s.execute(ctx, job); err != nil && err != ErrJobRunning {
		s.logger.Error("Scheduled job failed", zap.String("job", job.Name), zap.Error(err))
	}
}

func (s *Scheduler) execute(ctx context.Context, job *Job) (err error) {
	if !job.running.CompareAndSwap(false, true) {
		s.record(job.Name, func(st *RunStats) { st.Overlapped++ })
		s.logger.Warn("Skipping overlapping job run", zap.String("job", job.Name))
		return ErrJobRunning
	}
	defer job.running.Store(false)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
		elapsed := time.Since(start)
		s.record(job.Name, func(st *RunStats) {
			st.LastRunAt = &start
			st.Duration = elapsed
			st.Runs++
			st.LastError = ""
			if err != nil {
				st.Failures++
				st.LastError = err.Error()
			}
		})
		s.logger.Debug("Job finished",
			zap.String("job", job.Name),
			zap.Duration("duration", elapsed),
			zap.Bool("success", err == nil),
		)
	}()

	return job.Run(jobCtx)
}

func (s *Scheduler) record(name string, fn func(*RunStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stats[name]; ok {
		fn(st)
	}
}
