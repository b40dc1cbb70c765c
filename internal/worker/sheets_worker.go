package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"geocms/internal/database"
	"geocms/internal/domain"
	"geocms/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	TaskTimetableSync = "timetable_sync"
	TaskLedgerSync    = "ledger_sync"
)

// timetablePayload is persisted in SyncTask.Payload as JSON.
type timetablePayload struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// SheetsWorker consumes sync_queue tasks and mirrors portal state into
// spreadsheets. Tasks survive restarts in the sync_queue table; redis is
// used as a fast hand-off channel when available.
type SheetsWorker struct {
	db            *database.DB
	sheets        domain.SheetsWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *log.Logger
}

// NewSheetsWorker builds a worker with sane defaults.
func NewSheetsWorker(db *database.DB, sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, logger *log.Logger) *SheetsWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		logger = log.Default()
	}

	return &SheetsWorker{
		db:            db,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, 128),
		redisQueueKey: "sheets:queue",
		deadLetterKey: "sheets:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// EnqueueTimetableSync schedules a timetable refresh for a date range.
func (w *SheetsWorker) EnqueueTimetableSync(ctx context.Context, startDate, endDate time.Time) error {
	if endDate.Before(startDate) {
		return errors.New("end date is before start date")
	}
	payload := timetablePayload{
		StartDate: startDate.Format("2006-01-02"),
		EndDate:   endDate.Format("2006-01-02"),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return w.enqueue(ctx, models.SyncTask{
		TaskType: TaskTimetableSync,
		Payload:  string(data),
	})
}

// EnqueueLedgerSync schedules a full equipment ledger refresh.
func (w *SheetsWorker) EnqueueLedgerSync(ctx context.Context) error {
	return w.enqueue(ctx, models.SyncTask{
		TaskType: TaskLedgerSync,
		Payload:  "{}",
	})
}

func (w *SheetsWorker) enqueue(ctx context.Context, task models.SyncTask) error {
	task.Status = "pending"
	task.CreatedAt = time.Now()

	if err := w.db.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	// Try redis first for fast pickup.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Printf("sheets_worker: redis push failed, fallback to memory queue: %v", err)
		} else {
			return nil
		}
	}

	// Fallback to in-memory queue if redis is missing or failed.
	select {
	case w.queue <- task:
	default:
		w.logger.Printf("sheets_worker: in-memory queue full, task %d left to polling", task.ID)
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *SheetsWorker) Start(ctx context.Context) {
	w.logger.Printf("sheets_worker: started")
	defer w.logger.Printf("sheets_worker: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Printf("sheets_worker: fetch pending: %v", err)
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *SheetsWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SheetsWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Printf("sheets_worker: redis BRPOP error: %v", err)
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Printf("sheets_worker: decode redis task: %v", err)
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SheetsWorker) processTask(ctx context.Context, task *models.SyncTask) {
	if err := w.handleTask(ctx, task); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Printf("sheets_worker: mark completed %d: %v", task.ID, err)
	}
}

func (w *SheetsWorker) handleTask(ctx context.Context, task *models.SyncTask) error {
	switch task.TaskType {
	case TaskTimetableSync:
		var payload timetablePayload
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		startDate, err := time.Parse("2006-01-02", payload.StartDate)
		if err != nil {
			return fmt.Errorf("parse start date: %w", err)
		}
		endDate, err := time.Parse("2006-01-02", payload.EndDate)
		if err != nil {
			return fmt.Errorf("parse end date: %w", err)
		}

		daily, err := w.db.GetDailyReservations(ctx, startDate, endDate)
		if err != nil {
			return fmt.Errorf("load reservations: %w", err)
		}
		labs, err := w.db.GetActiveLabs(ctx)
		if err != nil {
			return fmt.Errorf("load labs: %w", err)
		}
		return w.sheets.ReplaceTimetableSheet(ctx, startDate, endDate, daily, labs)

	case TaskLedgerSync:
		items, err := w.db.GetActiveItems(ctx)
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		requests, err := w.db.GetAllBorrowRequests(ctx)
		if err != nil {
			return fmt.Errorf("load borrow requests: %w", err)
		}
		return w.sheets.ReplaceLedgerSheet(ctx, items, requests)

	default:
		return fmt.Errorf("unknown task type: %s", task.TaskType)
	}
}

func (w *SheetsWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Printf("sheets_worker: mark failed %d: %v", task.ID, err)
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Printf("sheets_worker: mark retry %d: %v", task.ID, err)
	}
}

func (w *SheetsWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *SheetsWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Printf("sheets_worker: encode deadletter %d: %v", task.ID, err)
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Printf("sheets_worker: deadletter push %d: %v", task.ID, err)
	}
}
