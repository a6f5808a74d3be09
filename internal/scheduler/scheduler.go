package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/LJTian/NewsMailer/internal/pipeline"
	"github.com/LJTian/NewsMailer/internal/runlock"
	"github.com/robfig/cron/v3"
)

// ErrRunInProgress 上一轮尚未结束，本次触发被跳过
var ErrRunInProgress = errors.New("scheduler: a run is already in progress")

const (
	PolicySkip  = "skip"
	PolicyQueue = "queue"
)

// Runner 一轮完整的流水线执行
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

type Options struct {
	Interval time.Duration
	StartAt  time.Time
	// skip：上一轮未结束则丢弃本次 tick；queue：排队等上一轮结束
	OverlapPolicy string
}

// Status 最近一次运行的情况，仅保存在内存中，重启即丢失
type Status struct {
	Running   bool             `json:"running"`
	LastRun   *pipeline.Result `json:"lastRun,omitempty"`
	LastError string           `json:"lastError,omitempty"`
	NextRun   time.Time        `json:"nextRun"`
}

type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	job     cron.Job
	runner  Runner
	locker  runlock.Locker

	mu     sync.Mutex
	status Status
}

func New(opts Options, runner Runner, locker runlock.Locker) (*Scheduler, error) {
	if opts.Interval <= 0 {
		return nil, errors.New("scheduler: interval must be positive")
	}
	if locker == nil {
		locker = runlock.NewLocalLocker()
	}

	logger := slogLogger{}
	var wrapper cron.JobWrapper
	switch opts.OverlapPolicy {
	case PolicyQueue:
		wrapper = cron.DelayIfStillRunning(logger)
	case PolicySkip, "":
		wrapper = cron.SkipIfStillRunning(logger)
	default:
		return nil, errors.New("scheduler: unknown overlap policy " + opts.OverlapPolicy)
	}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)

	s := &Scheduler{
		cron:   c,
		runner: runner,
		locker: locker,
	}
	s.job = cron.NewChain(wrapper).Then(cron.FuncJob(s.tick))
	s.entryID = c.Schedule(Every(opts.StartAt, opts.Interval), s.job)

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "next_run", s.cron.Entry(s.entryID).Next)
}

// Stop 停止调度并等待进行中的运行结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// RunOnce 手动触发一轮，与定时任务共用同一把运行锁
func (s *Scheduler) RunOnce(ctx context.Context) (pipeline.Result, error) {
	return s.runGuarded(ctx)
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	st := s.status
	s.mu.Unlock()

	st.NextRun = s.cron.Entry(s.entryID).Next
	return st
}

func (s *Scheduler) tick() {
	// 失败只记录日志，不重试；下一个 tick 是全新的独立运行
	_, _ = s.runGuarded(context.Background())
}

func (s *Scheduler) runGuarded(ctx context.Context) (pipeline.Result, error) {
	unlock, ok, err := s.locker.TryLock(ctx)
	if err != nil {
		slog.Error("acquire run lock failed", "error", err)
		return pipeline.Result{}, err
	}
	if !ok {
		slog.Warn("skip run: previous run still in flight")
		return pipeline.Result{}, ErrRunInProgress
	}
	defer unlock()

	s.setRunning(true)
	slog.Info("start news pipeline run...")

	res, err := s.runner.Run(ctx)

	s.mu.Lock()
	s.status.Running = false
	s.status.LastRun = &res
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		slog.Error("news pipeline run failed", "error", err)
	}
	return res, err
}

func (s *Scheduler) setRunning(v bool) {
	s.mu.Lock()
	s.status.Running = v
	s.mu.Unlock()
}

// slogLogger 把 cron 的日志接到 slog
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
