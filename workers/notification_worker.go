package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"disasterguardian/config"
	"disasterguardian/interfaces"
	"disasterguardian/metrics"
	"disasterguardian/models"
	"disasterguardian/utils"

	"github.com/sirupsen/logrus"
)

var (
	ErrWorkerStopped = errors.New("sms worker is not running")
	ErrQueueFull     = errors.New("sms queue is full")
)

// NotificationWorker delivers queued SMS through a fixed pool of
// goroutines. Every job ends in exactly one SmsLog entry.
type NotificationWorker struct {
	sender interfaces.SMSSender
	logs   interfaces.SmsLogRepository

	// Worker configuration
	config NotificationWorkerConfig

	queue chan smsJob

	// Worker state
	isRunning bool
	mutex     sync.RWMutex

	// Context for shutdown
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	stats      NotificationWorkerStats
	statsMutex sync.RWMutex
}

type NotificationWorkerConfig struct {
	WorkerCount       int           `json:"workerCount"`
	QueueSize         int           `json:"queueSize"`
	ProcessingTimeout time.Duration `json:"processingTimeout"`
	RetryAttempts     int           `json:"retryAttempts"`
	RetryDelay        time.Duration `json:"retryDelay"`
}

type smsJob struct {
	id       string
	job      models.SMSJob
	queuedAt time.Time
}

type NotificationWorkerStats struct {
	JobsProcessed      int64     `json:"jobsProcessed"`
	JobsFailed         int64     `json:"jobsFailed"`
	JobsRetried        int64     `json:"jobsRetried"`
	JobsRejected       int64     `json:"jobsRejected"`
	AverageProcessTime float64   `json:"averageProcessTime"` // ms
	LastProcessedAt    time.Time `json:"lastProcessedAt"`
	QueueLength        int       `json:"queueLength"`
	StartTime          time.Time `json:"startTime"`
}

func NotificationWorkerConfigFrom(cfg config.NotificationConfig) NotificationWorkerConfig {
	return NotificationWorkerConfig{
		WorkerCount:       cfg.SMSWorkers,
		QueueSize:         cfg.SMSQueueSize,
		ProcessingTimeout: 15 * time.Second,
		RetryAttempts:     cfg.SMSMaxRetries,
		RetryDelay:        cfg.SMSRetryDelay,
	}
}

func NewNotificationWorker(sender interfaces.SMSSender, logs interfaces.SmsLogRepository, cfg NotificationWorkerConfig) *NotificationWorker {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 500
	}
	if cfg.ProcessingTimeout <= 0 {
		cfg.ProcessingTimeout = 15 * time.Second
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationWorker{
		sender: sender,
		logs:   logs,
		config: cfg,
		queue:  make(chan smsJob, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		stats: NotificationWorkerStats{
			StartTime: time.Now(),
		},
	}
}

func (nw *NotificationWorker) Start() error {
	nw.mutex.Lock()
	defer nw.mutex.Unlock()

	if nw.isRunning {
		return nil
	}
	if nw.ctx.Err() != nil {
		return ErrWorkerStopped
	}

	nw.isRunning = true
	logrus.Infof("Starting SMS worker with %d workers via %s", nw.config.WorkerCount, nw.sender.Name())

	for i := 0; i < nw.config.WorkerCount; i++ {
		nw.wg.Add(1)
		go nw.worker(i)
	}
	return nil
}

// Stop closes the queue and lets the workers drain it. When ctx expires
// first, in-flight retries are abandoned.
func (nw *NotificationWorker) Stop(ctx context.Context) error {
	nw.mutex.Lock()
	if !nw.isRunning {
		nw.mutex.Unlock()
		return nil
	}
	nw.isRunning = false
	close(nw.queue)
	nw.mutex.Unlock()

	logrus.Info("Stopping SMS worker...")

	done := make(chan struct{})
	go func() {
		nw.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		nw.cancel()
		<-done
	}
	nw.cancel()
	metrics.SMSQueueDepth.Set(0)

	logrus.Info("SMS worker stopped")
	return err
}

// Enqueue never blocks; a full queue rejects the job.
func (nw *NotificationWorker) Enqueue(job models.SMSJob) error {
	nw.mutex.RLock()
	defer nw.mutex.RUnlock()

	if !nw.isRunning {
		return ErrWorkerStopped
	}

	select {
	case nw.queue <- smsJob{id: utils.GenerateUUID(), job: job, queuedAt: time.Now()}:
		metrics.SMSQueueDepth.Set(float64(len(nw.queue)))
		return nil
	default:
		nw.statsMutex.Lock()
		nw.stats.JobsRejected++
		nw.statsMutex.Unlock()
		metrics.SMSSent.WithLabelValues(nw.sender.Name(), metrics.OutcomeRejected).Inc()
		return ErrQueueFull
	}
}

func (nw *NotificationWorker) worker(workerID int) {
	defer nw.wg.Done()

	for job := range nw.queue {
		metrics.SMSQueueDepth.Set(float64(len(nw.queue)))
		nw.process(job, workerID)
	}
	logrus.Debugf("SMS worker %d stopping", workerID)
}

func (nw *NotificationWorker) process(job smsJob, workerID int) {
	startTime := time.Now()

	var (
		providerID string
		err        error
		attempts   int
	)
	for attempts = 1; ; attempts++ {
		providerID, err = nw.send(job)
		if err == nil || attempts > nw.config.RetryAttempts {
			break
		}

		nw.statsMutex.Lock()
		nw.stats.JobsRetried++
		nw.statsMutex.Unlock()

		// linear backoff
		if !nw.wait(time.Duration(attempts) * nw.config.RetryDelay) {
			break
		}
	}

	entry := &models.SmsLog{
		To:         job.job.To,
		Message:    job.job.Message,
		IncidentID: job.job.IncidentID,
		Timestamp:  time.Now(),
		Success:    err == nil,
		ProviderID: providerID,
		Attempts:   attempts,
	}
	outcome := metrics.OutcomeSuccess
	if err != nil {
		entry.Error = err.Error()
		outcome = metrics.OutcomeFailure
		logrus.WithError(err).WithFields(logrus.Fields{
			"job_id":   job.id,
			"to":       utils.MaskPhoneNumber(job.job.To),
			"attempts": attempts,
		}).Error("SMS delivery failed")
	}
	metrics.SMSSent.WithLabelValues(nw.sender.Name(), outcome).Inc()

	// the log outlives the worker context
	logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if logErr := nw.logs.Create(logCtx, entry); logErr != nil {
		logrus.WithError(logErr).WithField("job_id", job.id).Error("Failed to write SMS log")
	}

	nw.updateStats(time.Since(startTime), err == nil)
	logrus.Debugf("SMS worker %d finished job %s in %d attempt(s)", workerID, job.id, attempts)
}

func (nw *NotificationWorker) send(job smsJob) (string, error) {
	if nw.ctx.Err() != nil {
		return "", nw.ctx.Err()
	}
	ctx, cancel := context.WithTimeout(nw.ctx, nw.config.ProcessingTimeout)
	defer cancel()
	return nw.sender.SendSMS(ctx, job.job.To, job.job.Message)
}

func (nw *NotificationWorker) wait(d time.Duration) bool {
	if d <= 0 {
		return nw.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-nw.ctx.Done():
		return false
	}
}

func (nw *NotificationWorker) updateStats(duration time.Duration, success bool) {
	nw.statsMutex.Lock()
	defer nw.statsMutex.Unlock()

	if !success {
		nw.stats.JobsFailed++
	}
	nw.stats.JobsProcessed++

	if nw.stats.JobsProcessed == 1 {
		nw.stats.AverageProcessTime = float64(duration.Milliseconds())
	} else {
		nw.stats.AverageProcessTime = (nw.stats.AverageProcessTime + float64(duration.Milliseconds())) / 2
	}
	nw.stats.LastProcessedAt = time.Now()
}

func (nw *NotificationWorker) GetStats() NotificationWorkerStats {
	nw.statsMutex.RLock()
	defer nw.statsMutex.RUnlock()
	stats := nw.stats
	stats.QueueLength = len(nw.queue)
	return stats
}

var _ interfaces.SMSDispatcher = (*NotificationWorker)(nil)
