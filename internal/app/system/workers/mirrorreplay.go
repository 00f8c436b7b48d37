// internal/app/system/workers/mirrorreplay.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/deruta/internal/app/store/audit"
	"github.com/dalemusser/deruta/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// replayBatch caps how many outbox entries one pass settles.
const replayBatch = 200

// Replayer settles stale outbox entries.
type Replayer interface {
	Replay(ctx context.Context, grace time.Duration, limit int64) (audit.ReplayResult, error)
}

// MirrorReplay is a background worker that settles audit outbox entries
// left behind when a process died between a primary write and its audit
// write.
type MirrorReplay struct {
	mirror   Replayer
	log      *zap.Logger
	interval time.Duration
	grace    time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMirrorReplay creates a replay worker.
//
// Parameters:
//   - mirror: the audit mirror whose outbox is replayed
//   - logger: zap logger for logging
//   - interval: how often to run a pass (e.g., 1 minute)
//   - grace: how old an entry must be before it is considered abandoned
func NewMirrorReplay(mirror Replayer, logger *zap.Logger, interval, grace time.Duration) *MirrorReplay {
	return &MirrorReplay{
		mirror:   mirror,
		log:      logger,
		interval: interval,
		grace:    grace,
		stopCh:   make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval.
func (w *MirrorReplay) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("mirror replay worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("grace", w.grace))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *MirrorReplay) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("mirror replay worker stopped")
}

func (w *MirrorReplay) run() {
	defer w.wg.Done()

	w.RunOnce()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single replay pass.
func (w *MirrorReplay) RunOnce() audit.ReplayResult {
	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Replay(), w.log, "mirror replay")
	defer cancel()

	res, err := w.mirror.Replay(ctx, w.grace, replayBatch)
	if err != nil {
		w.log.Error("mirror replay failed", zap.Error(err))
		return res
	}
	if res.Mirrored+res.Discarded+res.Failed+res.Stuck > 0 {
		w.log.Info("mirror replay pass",
			zap.Int("mirrored", res.Mirrored),
			zap.Int("discarded", res.Discarded),
			zap.Int("failed", res.Failed),
			zap.Int("stuck", res.Stuck))
	}
	return res
}
