// Package scheduler runs background tasks on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of scheduled work.
type Task func(ctx context.Context) error

// Periodic runs a task immediately and then once per interval until stopped.
// Runs never overlap.
type Periodic struct {
	name     string
	interval time.Duration
	task     Task
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewPeriodic(name string, interval time.Duration, task Task, logger *zap.Logger) *Periodic {
	return &Periodic{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.With(zap.String("task", name)),
		done:     make(chan struct{}),
	}
}

// Start launches the loop. It returns immediately; the loop ends when ctx is
// cancelled or Stop is called.
func (p *Periodic) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)
}

func (p *Periodic) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.run(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("scheduled task stopped")
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

func (p *Periodic) run(ctx context.Context) {
	start := time.Now()
	if err := p.task(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("scheduled task failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return
	}
	p.logger.Debug("scheduled task finished", zap.Duration("took", time.Since(start)))
}

// Stop cancels the loop and waits for an in-flight run to return.
func (p *Periodic) Stop() {
	p.once.Do(func() {
		if p.cancel == nil {
			close(p.done)
			return
		}
		p.cancel()
	})
	<-p.done
}
