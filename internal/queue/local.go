package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

const taskTimeout = 60 * time.Second

// LocalExecutor is an in-process worker pool over a buffered channel. When
// the buffer is full the task runs on its own goroutine instead of blocking
// the request.
type LocalExecutor struct {
	workers  int
	ch       chan Task
	handlers map[string]Handler

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

var _ Executor = (*LocalExecutor)(nil)

func NewLocalExecutor(workers, buffer int) *LocalExecutor {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &LocalExecutor{
		workers:  workers,
		ch:       make(chan Task, buffer),
		handlers: make(map[string]Handler),
	}
}

func (e *LocalExecutor) Register(taskType string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[taskType] = h
}

func (e *LocalExecutor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	if e.started {
		return nil
	}
	e.started = true

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.run()
	}
	utils.Zlog.Info("Local task executor started", zap.Int("workers", e.workers), zap.Int("buffer", cap(e.ch)))
	return nil
}

func (e *LocalExecutor) run() {
	defer e.wg.Done()
	for t := range e.ch {
		e.execute(t)
	}
}

func (e *LocalExecutor) Dispatch(ctx context.Context, t Task) error {
	if t.Type == "" {
		return errors.New("queue: task type is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stopped {
		return ErrStopped
	}
	if _, ok := e.handlers[t.Type]; !ok {
		return fmt.Errorf("queue: no handler registered for %q", t.Type)
	}

	select {
	case e.ch <- t:
	default:
		utils.Zlog.Warn("Task buffer full, running task on its own goroutine", zap.String("type", t.Type))
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.execute(t)
		}()
	}
	return nil
}

func (e *LocalExecutor) execute(t Task) {
	e.mu.RLock()
	h := e.handlers[t.Type]
	e.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			utils.Zlog.Error("Task panicked", zap.String("type", t.Type), zap.Any("panic", r))
		}
	}()

	if err := h(ctx, t); err != nil {
		utils.Zlog.Error("Task failed", zap.String("type", t.Type), zap.Error(err))
	}
}

// Stop rejects new tasks, drains the buffer and waits for running tasks.
func (e *LocalExecutor) Stop(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.stopped = true
	started := e.started
	close(e.ch)
	e.mu.Unlock()

	if !started {
		// Nobody will read the buffer; run what was accepted here.
		for t := range e.ch {
			e.execute(t)
		}
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		utils.Zlog.Info("Local task executor stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue: stop interrupted with tasks in flight: %w", ctx.Err())
	}
}
