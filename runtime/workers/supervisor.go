package workers

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Supervisor owns the long-running workers. A worker that returns an error
// or panics is restarted after a fixed interval until the context is
// cancelled; a worker that returns nil is considered done.
type Supervisor struct {
	log             *slog.Logger
	restartInterval time.Duration
	workers         []contract.Worker
	wg              sync.WaitGroup
	cancel          context.CancelFunc
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	return &Supervisor{log: log, restartInterval: restartInterval}
}

func (s *Supervisor) Add(workers ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, workers...)
	return s
}

// Run launches every registered worker in its own supervised goroutine.
// It returns immediately; Stop blocks until all workers have exited.
func (s *Supervisor) Run(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, w := range s.workers {
		s.Start(ctx, w)
	}
}

// Start supervises a single worker on its own goroutine.
func (s *Supervisor) Start(ctx context.Context, w contract.Worker) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.supervise(ctx, w)
	}()
}

// Stop cancels the workers and waits for them to finish.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Supervisor) supervise(ctx context.Context, w contract.Worker) {
	name := contract.GetWorkerName(w)
	for {
		err := s.runOnce(ctx, w)
		switch {
		case ctx.Err() != nil:
			s.log.Info("worker stopped", "worker", name)
			return
		case err != nil:
			s.log.Error("worker failed, restarting",
				"worker", name,
				"restart_in", s.restartInterval,
				"error", err)
		default:
			s.log.Info("worker completed", "worker", name)
			return
		}

		select {
		case <-time.After(s.restartInterval):
		case <-ctx.Done():
			s.log.Info("worker stopped", "worker", name)
			return
		}
	}
}

// runOnce executes one worker run, converting panics into errors so a
// misbehaving worker cannot take the process down.
func (s *Supervisor) runOnce(ctx context.Context, w contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return w.Run(ctx)
}
