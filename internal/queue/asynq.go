package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

const asynqQueue = "delivery"

// AsynqExecutor enqueues tasks in Redis and consumes them with an in-process
// asynq server.
type AsynqExecutor struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
}

var _ Executor = (*AsynqExecutor)(nil)

func NewAsynqExecutor(redisURL string, concurrency int) (*AsynqExecutor, error) {
	if redisURL == "" {
		return nil, errors.New("asynq: REDIS_URL is not set")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse REDIS_URL: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{asynqQueue: 1},
		Logger:      utils.Zlog.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			utils.Zlog.Error("Task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})

	return &AsynqExecutor{
		client: asynq.NewClient(opt),
		server: srv,
		mux:    asynq.NewServeMux(),
	}, nil
}

func (a *AsynqExecutor) Register(taskType string, h Handler) {
	a.mux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
		return h(ctx, Task{Type: t.Type(), Payload: t.Payload()})
	})
}

func (a *AsynqExecutor) Start(ctx context.Context) error {
	if err := a.server.Start(a.mux); err != nil {
		return fmt.Errorf("asynq: start server: %w", err)
	}
	utils.Zlog.Info("Asynq task executor started", zap.String("queue", asynqQueue))
	return nil
}

func (a *AsynqExecutor) Dispatch(ctx context.Context, t Task) error {
	if t.Type == "" {
		return errors.New("asynq: task type is required")
	}
	info, err := a.client.EnqueueContext(ctx, asynq.NewTask(t.Type, t.Payload),
		asynq.Queue(asynqQueue),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return fmt.Errorf("asynq: enqueue %s: %w", t.Type, err)
	}
	utils.Zlog.Debug("Task enqueued", zap.String("type", t.Type), zap.String("task_id", info.ID))
	return nil
}

func (a *AsynqExecutor) Stop(ctx context.Context) error {
	a.server.Shutdown()
	return a.client.Close()
}
