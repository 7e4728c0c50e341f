package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/lock"
	"github.com/shandysiswandi/gootp/internal/verification/entity"
)

type VerifyInput struct {
	VerificationCode string `validate:"required"`
	Pass             string `validate:"required"`
}

// Verify checks pass against the stored code, persisting every attempt.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*entity.Code, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	release, err := s.locker.Acquire(ctx, "verification:verify:"+in.VerificationCode, s.cfg.LockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		slog.WarnContext(ctx, "verification already in progress", "verification_code", in.VerificationCode)
		s.reject(ctx, "verify_in_progress")
		return nil, newLimitError("Code verification in progress")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire verification lock", "verification_code", in.VerificationCode, "error", err)
		return nil, goerror.NewServer(err)
	}
	defer s.release(ctx, release)

	now := s.clock.Now()
	createdAfter := now.Add(-s.cfg.PasswordValidationPeriod)

	code, err := s.repoDB.GetOneUnvalidatedByCode(ctx, in.VerificationCode, createdAfter)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "unvalidated code not found", "verification_code", in.VerificationCode)
		s.reject(ctx, "not_found")
		return nil, newNotFoundError()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get unvalidated code", "verification_code", in.VerificationCode, "error", err)
		return nil, goerror.NewServer(err)
	}

	if s.cfg.RejectExhausted && code.AttemptsExhausted(s.cfg.MaxAttempts) {
		slog.WarnContext(ctx, "verification attempts exhausted", "verification_code", in.VerificationCode, "attempts", code.Attempts)
		s.reject(ctx, "attempts_exhausted")
		return nil, newLimitError("Too many attempts")
	}

	if code.OneTimePass != in.Pass {
		code.IncrementAttempts()
		if _, err := s.repoDB.Save(ctx, *code); err != nil {
			slog.ErrorContext(ctx, "failed to repo save attempts", "verification_code", in.VerificationCode, "error", err)
			return nil, goerror.NewServer(err)
		}

		slog.WarnContext(ctx, "incorrect one time pass", "verification_code", in.VerificationCode, "attempts", code.Attempts)
		s.reject(ctx, "incorrect_pass")
		return nil, newVerificationError()
	}

	if code.AttemptsExhausted(s.cfg.MaxAttempts) {
		slog.WarnContext(ctx, "verification attempts exhausted", "verification_code", in.VerificationCode, "attempts", code.Attempts)
		s.reject(ctx, "attempts_exhausted")
		return nil, newLimitError("Too many attempts")
	}

	code.MarkValidated()
	saved, err := s.repoDB.Save(ctx, *code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo save validated code", "verification_code", in.VerificationCode, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishCodeValidated(ctx, CodeValidatedEvent{Code: *saved, ValidatedAt: now}); err != nil {
		slog.ErrorContext(ctx, "failed to publish code validated", "verification_code", in.VerificationCode, "error", err)
	}

	if s.validated != nil {
		s.validated.Add(ctx, 1)
	}

	return saved, nil
}
