// internal/app/system/workers/streakreminder.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/decisionjar/decisionjar/internal/app/system/tasks"
	"go.uber.org/zap"
)

// StreakReminder is a background worker that runs the streak-reminder
// job on its interval until stopped.
type StreakReminder struct {
	job    tasks.Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewStreakReminder(job tasks.Job, logger *zap.Logger) *StreakReminder {
	return &StreakReminder{
		job:    job,
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *StreakReminder) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("streak reminder worker started",
		zap.String("job", w.job.Name),
		zap.Duration("interval", w.job.Interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *StreakReminder) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("streak reminder worker stopped")
}

func (w *StreakReminder) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *StreakReminder) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.job.Run(ctx); err != nil {
		w.log.Error("streak reminder sweep failed", zap.Error(err))
	}
}
