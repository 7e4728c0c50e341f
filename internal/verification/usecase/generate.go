package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/lock"
	"github.com/shandysiswandi/gootp/internal/pkg/valueobject"
	"github.com/shandysiswandi/gootp/internal/verification/entity"
)

type GenerateInput struct {
	Address string `validate:"required,contact"`
	Data    map[string]any
}

// Generate issues a new code for the address once both issuance limits pass.
func (s *Usecase) Generate(ctx context.Context, in GenerateInput) (*entity.Code, error) {
	ctx, span := s.startSpan(ctx, "Generate")
	defer span.End()

	address, kind := entity.NormalizeAddress(in.Address)
	in.Address = address

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	release, err := s.locker.Acquire(ctx, "verification:generate:"+address, s.cfg.LockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		slog.WarnContext(ctx, "issuance already in progress", "address", address)
		s.reject(ctx, "issuance_in_progress")
		return nil, newLimitError("Code issuance in progress")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire issuance lock", "address", address, "error", err)
		return nil, goerror.NewServer(err)
	}
	defer s.release(ctx, release)

	now := s.clock.Now()

	if err := s.checkCreationLimit(ctx, address, now); err != nil {
		return nil, err
	}

	pass, err := s.oneTimePass(ctx, address)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate one time pass", "address", address, "error", err)
		return nil, goerror.NewServer(err)
	}

	code := entity.Code{
		ID:               s.uid.Generate(),
		VerificationCode: s.token.Generate(),
		OneTimePass:      pass,
		Address:          address,
		AddressKind:      kind,
		CreatedAt:        now,
	}
	if len(in.Data) > 0 {
		code.VerificationData = valueobject.JSONMap(in.Data).Clone()
	}

	saved, err := s.repoDB.Save(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo save code", "address", address, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishCodeIssued(ctx, CodeIssuedEvent{
		Code:      *saved,
		ExpiresAt: saved.ExpiresAt(s.cfg.PasswordValidationPeriod),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish code issued", "address", address, "error", err)
	}

	if s.issued != nil {
		s.issued.Add(ctx, 1)
	}

	return saved, nil
}

// checkCreationLimit enforces the minimum interval, then the hourly cap.
func (s *Usecase) checkCreationLimit(ctx context.Context, address string, now time.Time) error {
	_, err := s.repoDB.GetLastCodeForAddress(ctx, address, now.Add(-s.cfg.CreationCodeThreshold))
	if err == nil {
		slog.WarnContext(ctx, "code issued too frequently", "address", address)
		s.reject(ctx, "too_frequent")
		return newLimitError("Code requested too frequently")
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get last code for address", "address", address, "error", err)
		return goerror.NewServer(err)
	}

	count, err := s.repoDB.GetCodesCountForAddress(ctx, address, now.Add(-hourlyWindow))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count codes for address", "address", address, "error", err)
		return goerror.NewServer(err)
	}

	if count > 0 && int64(s.cfg.LimitPerHour) < count {
		slog.WarnContext(ctx, "hourly code limit exceeded", "address", address, "count", count)
		s.reject(ctx, "hourly_limit")
		return newLimitError("Hourly code limit exceeded")
	}

	return nil
}

func (s *Usecase) release(ctx context.Context, release func(context.Context) error) {
	// the caller's ctx may already be canceled; the lock must still go
	if err := release(context.WithoutCancel(ctx)); err != nil {
		slog.WarnContext(ctx, "failed to release lock", "error", err)
	}
}
