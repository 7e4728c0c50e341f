package inbound

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/goroutine"
	"go.uber.org/atomic"
)

type purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Housekeeper removes old codes on a fixed interval. A tick that arrives
// while the previous purge is still running is skipped.
type Housekeeper struct {
	uc      purger
	gm      *goroutine.Manager
	running atomic.Bool
	skipped atomic.Int64
	purged  atomic.Int64
}

// RunHousekeeping schedules purges on gm until ctx is done. Nothing is
// scheduled when interval is not positive.
func RunHousekeeping(ctx context.Context, gm *goroutine.Manager, uc purger, interval time.Duration) *Housekeeper {
	h := &Housekeeper{uc: uc, gm: gm}
	if interval <= 0 {
		return h
	}

	if !gm.Every(ctx, "verification.housekeeping", interval, h.tick) {
		slog.WarnContext(ctx, "housekeeping not scheduled")
	}

	return h
}

// Skipped returns how many ticks found a purge still running.
func (h *Housekeeper) Skipped() int64 { return h.skipped.Load() }

// Purged returns the total number of codes removed so far.
func (h *Housekeeper) Purged() int64 { return h.purged.Load() }

func (h *Housekeeper) tick(ctx context.Context) error {
	if !h.running.CompareAndSwap(false, true) {
		h.skipped.Inc()
		slog.WarnContext(ctx, "previous purge still running, tick skipped")
		return nil
	}

	if !h.gm.Go(ctx, h.purge) {
		h.running.Store(false)
	}

	return nil
}

func (h *Housekeeper) purge(ctx context.Context) error {
	defer h.running.Store(false)

	n, err := h.uc.Purge(ctx)
	if err != nil {
		slog.WarnContext(ctx, "housekeeping purge failed", "error", err)
		return nil
	}

	h.purged.Add(n)
	return nil
}
