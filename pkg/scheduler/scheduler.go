// Package scheduler 封装 gocron 调度器，提供 cron 任务注册与运行状态查询.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	nlog "github.com/yeisme/studyvault/pkg/log"
)

// JobInfo 任务运行状态.
type JobInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Cron      string    `json:"cron"`
	LastRun   time.Time `json:"last_run"`
	NextRun   time.Time `json:"next_run"`
	RunCount  int64     `json:"run_count"`
	LastError string    `json:"last_error,omitempty"`
}

// Scheduler 调度器，跟踪每个任务的运行记录.
type Scheduler struct {
	scheduler gocron.Scheduler

	mu   sync.RWMutex
	jobs map[uuid.UUID]*JobInfo
}

// New 创建调度器.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[uuid.UUID]*JobInfo),
	}, nil
}

// AddCron 按 cron 表达式注册任务，task 返回 error 时记录到任务状态.
func (s *Scheduler) AddCron(name, cron string, task func() error) (uuid.UUID, error) {
	job, err := s.scheduler.NewJob(
		gocron.CronJob(cron, false),
		gocron.NewTask(func() {
			s.recordRun(name, task())
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to add cron job %s: %w", name, err)
	}

	id := job.ID()

	s.mu.Lock()
	s.jobs[id] = &JobInfo{ID: id, Name: name, Cron: cron}
	s.mu.Unlock()

	return id, nil
}

// recordRun 更新任务运行记录.
func (s *Scheduler) recordRun(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, info := range s.jobs {
		if info.Name != name {
			continue
		}

		info.LastRun = time.Now()
		info.RunCount++

		if err != nil {
			info.LastError = err.Error()

			nlog.Logger().Error().Err(err).Str("job", name).Msg("scheduled job failed")
		} else {
			info.LastError = ""
		}
	}
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.scheduler.Start()

	nlog.Logger().Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop 停止调度器并释放资源.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

// RemoveJob 移除任务.
func (s *Scheduler) RemoveJob(id uuid.UUID) error {
	if err := s.scheduler.RemoveJob(id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()

	return nil
}

// GetJobInfos 返回所有任务的状态快照，NextRun 实时取自调度器.
func (s *Scheduler) GetJobInfos() []JobInfo {
	next := make(map[uuid.UUID]time.Time)

	for _, job := range s.scheduler.Jobs() {
		if t, err := job.NextRun(); err == nil {
			next[job.ID()] = t
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))

	for id, info := range s.jobs {
		snapshot := *info
		snapshot.NextRun = next[id]
		infos = append(infos, snapshot)
	}

	return infos
}

// JobsWaitingInQueue 返回等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return int(s.scheduler.JobsWaitingInQueue())
}
