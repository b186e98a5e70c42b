// Package scheduler runs the housekeeping jobs of the console on cron
// schedules.
package scheduler

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
)

// JobFunc is the body of a job. ctx ends when the scheduler stops.
type JobFunc func(ctx context.Context) error

// JobInfo reports the state of one job.
type JobInfo struct {
	Name      string    `json:"name"`
	Spec      string    `json:"spec"`
	Next      time.Time `json:"next"`
	LastRun   time.Time `json:"last_run"`
	Runs      int       `json:"runs"`
	Failures  int       `json:"failures"`
	LastError string    `json:"last_error,omitempty"`
	IsRunning bool      `json:"is_running"`
}

type job struct {
	name    string
	spec    string
	fn      JobFunc
	entry   cron.EntryID
	running bool
	lastRun time.Time
	runs    int
	fails   int
	lastErr string
}

// Scheduler owns a cron instance and the jobs registered on it.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*job
}

type cronLogger struct{}

func (cronLogger) Info(_ string, _ ...any) {}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Logtype(logger.StrError, 0).
		Any("values", keysAndValues).
		Str("msg", msg).
		Err(err).
		Msg("cron error")
}

// Parser accepts five field expressions, an optional leading seconds field
// and descriptors like @every 5m.
var Parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New returns a stopped scheduler.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	l := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(Parser),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l)),
		),
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*job),
	}
}

// Add registers fn under name. An empty spec leaves the job disabled and
// is not an error. A run that is still busy when the next one is due
// causes that run to be skipped.
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		logger.LogDynamicany(logger.StrInfo, "job disabled", "job", name)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return apperrors.New(apperrors.ErrClassConfig, "add_job", "job already registered").WithContext("job", name)
	}
	j := &job{name: name, spec: spec, fn: fn}
	id, err := s.cron.AddFunc(spec, func() { s.run(j) })
	if err != nil {
		return apperrors.WrapWithMessageFor(apperrors.ErrClassConfig, "add_job", "invalid schedule", spec, err).WithContext("job", name)
	}
	j.entry = id
	s.jobs[name] = j
	return nil
}

func (s *Scheduler) run(j *job) {
	s.mu.Lock()
	if j.running {
		s.mu.Unlock()
		logger.LogDynamicany(logger.StrDebug, "job still running, skipped", "job", j.name)
		return
	}
	j.running = true
	s.mu.Unlock()

	started := time.Now()
	err := j.fn(s.ctx)

	s.mu.Lock()
	j.running = false
	j.lastRun = started
	j.runs++
	if err != nil {
		j.fails++
		j.lastErr = err.Error()
	} else {
		j.lastErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		logger.Logtype(logger.StrError, 0).Err(err).Str("job", j.name).Msg("job failed")
		return
	}
	logger.Logtype(logger.StrDebug, 0).Str("job", j.name).Dur("elapsed", time.Since(started)).Msg("job finished")
}

// RunNow runs the named job synchronously.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return apperrors.New(apperrors.ErrClassNotFound, "run_job", "unknown job").WithContext("job", name)
	}
	s.run(j)
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.lastErr != "" {
		return apperrors.New(apperrors.ErrClassUnknown, "run_job", j.lastErr).WithContext("job", name)
	}
	return nil
}

// Jobs returns the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobInfo{
			Name:      j.name,
			Spec:      j.spec,
			Next:      s.cron.Entry(j.entry).Next,
			LastRun:   j.lastRun,
			Runs:      j.runs,
			Failures:  j.fails,
			LastError: j.lastErr,
			IsRunning: j.running,
		})
	}
	slices.SortFunc(out, func(a, b JobInfo) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs, cancels the context of running jobs and waits
// for them until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
