package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
)

// Purge deletes codes older than the configured retention. It is a no-op
// when retention is zero.
func (s *Usecase) Purge(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "Purge")
	defer span.End()

	if s.cfg.Retention <= 0 {
		return 0, nil
	}

	// codes still inside the validity window are never purged
	retention := max(s.cfg.Retention, s.cfg.PasswordValidationPeriod, hourlyWindow)
	before := s.clock.Now().Add(-retention)

	n, err := s.repoDB.DeleteCreatedBefore(ctx, before)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete old codes", "before", before, "error", err)
		return 0, goerror.NewServer(err)
	}

	if n > 0 {
		slog.InfoContext(ctx, "old verification codes purged", "count", n, "before", before)
	}

	return n, nil
}
