package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"disasterguardian/interfaces"

	"github.com/sirupsen/logrus"
)

var ErrTaskNotFound = errors.New("cleanup task not found")

// Pruner drops stale in-memory state, e.g. an idle rate limiter bucket.
type Pruner interface {
	Prune()
}

// CleanupWorker runs periodic housekeeping: SMS log retention and
// pruning of in-process rate limit buckets.
type CleanupWorker struct {
	smsLogs interfaces.SmsLogRepository
	pruners []Pruner

	// Worker configuration
	config CleanupWorkerConfig

	// Worker state
	isRunning bool
	mutex     sync.RWMutex

	// Context for shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	tasks []CleanupTask
	now   func() time.Time

	// Metrics
	stats      CleanupWorkerStats
	statsMutex sync.RWMutex
}

type CleanupWorkerConfig struct {
	SMSLogRetention time.Duration `json:"smsLogRetention"`

	SMSLogCleanupInterval time.Duration `json:"smsLogCleanupInterval"`
	PruneInterval         time.Duration `json:"pruneInterval"`
	// TickInterval is how often due tasks are checked
	TickInterval time.Duration `json:"tickInterval"`
}

type CleanupTask struct {
	Name        string                          `json:"name"`
	Description string                          `json:"description"`
	Interval    time.Duration                   `json:"interval"`
	LastRun     time.Time                       `json:"lastRun"`
	NextRun     time.Time                       `json:"nextRun"`
	Enabled     bool                            `json:"enabled"`
	Function    func(ctx context.Context) error `json:"-"`
}

type CleanupWorkerStats struct {
	TasksExecuted      int64            `json:"tasksExecuted"`
	TasksFailed        int64            `json:"tasksFailed"`
	SmsLogsDeleted     int64            `json:"smsLogsDeleted"`
	Prunes             int64            `json:"prunes"`
	LastCleanupAt      time.Time        `json:"lastCleanupAt"`
	TaskExecutionTimes map[string]int64 `json:"taskExecutionTimes"` // ms
	StartTime          time.Time        `json:"startTime"`
}

func DefaultCleanupWorkerConfig() CleanupWorkerConfig {
	return CleanupWorkerConfig{
		SMSLogRetention:       90 * 24 * time.Hour,
		SMSLogCleanupInterval: 24 * time.Hour,
		PruneInterval:         5 * time.Minute,
		TickInterval:          time.Minute,
	}
}

func NewCleanupWorker(smsLogs interfaces.SmsLogRepository, cfg CleanupWorkerConfig, pruners ...Pruner) *CleanupWorker {
	defaults := DefaultCleanupWorkerConfig()
	if cfg.SMSLogRetention <= 0 {
		cfg.SMSLogRetention = defaults.SMSLogRetention
	}
	if cfg.SMSLogCleanupInterval <= 0 {
		cfg.SMSLogCleanupInterval = defaults.SMSLogCleanupInterval
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = defaults.PruneInterval
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaults.TickInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	worker := &CleanupWorker{
		smsLogs: smsLogs,
		pruners: pruners,
		config:  cfg,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
		stats: CleanupWorkerStats{
			StartTime:          time.Now(),
			TaskExecutionTimes: make(map[string]int64),
		},
	}
	worker.initializeTasks()
	return worker
}

func (cw *CleanupWorker) Start() error {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()

	if cw.isRunning {
		return nil
	}
	cw.isRunning = true

	cw.wg.Add(1)
	go cw.taskScheduler()

	logrus.Infof("Cleanup worker started with %d tasks", len(cw.tasks))
	return nil
}

func (cw *CleanupWorker) Stop() error {
	cw.mutex.Lock()
	if !cw.isRunning {
		cw.mutex.Unlock()
		return nil
	}
	cw.isRunning = false
	cw.mutex.Unlock()

	cw.cancel()
	cw.wg.Wait()

	logrus.Info("Cleanup worker stopped")
	return nil
}

func (cw *CleanupWorker) initializeTasks() {
	cw.tasks = []CleanupTask{
		{
			Name:        "sms_log_retention",
			Description: "Delete SMS logs past the retention window",
			Interval:    cw.config.SMSLogCleanupInterval,
			Enabled:     cw.smsLogs != nil,
			Function:    cw.cleanupSmsLogs,
		},
		{
			Name:        "rate_limit_prune",
			Description: "Drop idle in-memory rate limit buckets",
			Interval:    cw.config.PruneInterval,
			Enabled:     len(cw.pruners) > 0,
			Function:    cw.prune,
		},
	}

	now := cw.now()
	for i := range cw.tasks {
		cw.tasks[i].NextRun = now.Add(cw.tasks[i].Interval)
	}
}

func (cw *CleanupWorker) taskScheduler() {
	defer cw.wg.Done()

	ticker := time.NewTicker(cw.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cw.executeScheduledTasks(cw.ctx, false)
		case <-cw.ctx.Done():
			return
		}
	}
}

// RunNow executes every enabled task immediately, regardless of schedule.
func (cw *CleanupWorker) RunNow(ctx context.Context) {
	cw.executeScheduledTasks(ctx, true)
}

func (cw *CleanupWorker) executeScheduledTasks(ctx context.Context, force bool) {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()

	now := cw.now()
	for i := range cw.tasks {
		task := &cw.tasks[i]
		if !task.Enabled || (!force && now.Before(task.NextRun)) {
			continue
		}

		startTime := time.Now()
		err := task.Function(ctx)
		executionTime := time.Since(startTime)

		cw.statsMutex.Lock()
		cw.stats.TaskExecutionTimes[task.Name] = executionTime.Milliseconds()
		if err != nil {
			cw.stats.TasksFailed++
		} else {
			cw.stats.TasksExecuted++
		}
		cw.statsMutex.Unlock()

		if err != nil {
			logrus.WithError(err).Errorf("Cleanup task %s failed", task.Name)
		} else {
			logrus.Debugf("Cleanup task %s completed in %v", task.Name, executionTime)
		}

		task.LastRun = now
		task.NextRun = now.Add(task.Interval)
	}
}

func (cw *CleanupWorker) cleanupSmsLogs(ctx context.Context) error {
	cutoff := cw.now().Add(-cw.config.SMSLogRetention)

	deleted, err := cw.smsLogs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	cw.statsMutex.Lock()
	cw.stats.SmsLogsDeleted += deleted
	cw.stats.LastCleanupAt = cw.now()
	cw.statsMutex.Unlock()

	if deleted > 0 {
		logrus.Infof("Cleaned up %d old SMS logs", deleted)
	}
	return nil
}

func (cw *CleanupWorker) prune(context.Context) error {
	for _, p := range cw.pruners {
		p.Prune()
	}

	cw.statsMutex.Lock()
	cw.stats.Prunes++
	cw.statsMutex.Unlock()
	return nil
}

func (cw *CleanupWorker) GetStats() CleanupWorkerStats {
	cw.statsMutex.RLock()
	defer cw.statsMutex.RUnlock()

	stats := cw.stats
	stats.TaskExecutionTimes = make(map[string]int64, len(cw.stats.TaskExecutionTimes))
	for k, v := range cw.stats.TaskExecutionTimes {
		stats.TaskExecutionTimes[k] = v
	}
	return stats
}

func (cw *CleanupWorker) GetTasks() []CleanupTask {
	cw.mutex.RLock()
	defer cw.mutex.RUnlock()

	tasks := make([]CleanupTask, len(cw.tasks))
	copy(tasks, cw.tasks)
	return tasks
}

func (cw *CleanupWorker) SetTaskEnabled(taskName string, enabled bool) error {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()

	for i := range cw.tasks {
		if cw.tasks[i].Name == taskName {
			cw.tasks[i].Enabled = enabled
			logrus.Infof("Cleanup task %s enabled=%v", taskName, enabled)
			return nil
		}
	}
	return ErrTaskNotFound
}
