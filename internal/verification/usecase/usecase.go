package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/clock"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/lock"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
	"github.com/shandysiswandi/gootp/internal/pkg/uid"
	"github.com/shandysiswandi/gootp/internal/pkg/validator"
	"github.com/shandysiswandi/gootp/internal/verification/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// hourlyWindow is the rolling window of the per-address issuance cap.
const hourlyWindow = time.Hour

type CodeIssuedEvent struct {
	Code      entity.Code
	ExpiresAt time.Time
}

type CodeValidatedEvent struct {
	Code        entity.Code
	ValidatedAt time.Time
}

type repoMessaging interface {
	PublishCodeIssued(ctx context.Context, msg CodeIssuedEvent) error
	PublishCodeValidated(ctx context.Context, msg CodeValidatedEvent) error
}

type repoDB interface {
	Save(ctx context.Context, code entity.Code) (*entity.Code, error)
	Delete(ctx context.Context, code entity.Code) error
	GetOneUnvalidatedByCode(ctx context.Context, code string, createdAfter time.Time) (*entity.Code, error)
	GetLastCodeForAddress(ctx context.Context, address string, createdAfter time.Time) (*entity.Code, error)
	GetCodesCountForAddress(ctx context.Context, address string, createdAfter time.Time) (int64, error)
	DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error)
}

// Config holds the issuance and verification policy.
type Config struct {
	PassLength     int    `validate:"gte=1"`
	AllowedSymbols string `validate:"required"`

	// CreationCodeThreshold is the minimum interval between two codes for one address.
	CreationCodeThreshold time.Duration `validate:"gte=0"`
	LimitPerHour          int           `validate:"gte=0"`

	// PasswordValidationPeriod is how long after creation a code can be verified.
	PasswordValidationPeriod time.Duration `validate:"gt=0"`
	MaxAttempts              int           `validate:"gte=1"`

	// RejectExhausted rejects every verify call once MaxAttempts is reached,
	// including wrong passes, instead of only gating the correct one.
	RejectExhausted bool

	LockTTL time.Duration `validate:"gt=0"`

	// Retention is how long codes are kept before Purge removes them.
	Retention time.Duration `validate:"gte=0"`
}

type Usecase struct {
	cfg           Config
	repoDB        repoDB
	repoMessaging repoMessaging
	locker        lock.Locker
	validator     validator.Validator
	generator     otp.Generator
	token         uid.StringID
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	hooks         []Hook

	issued    metric.Int64Counter
	validated metric.Int64Counter
	rejected  metric.Int64Counter
}

type Dependency struct {
	Config        Config
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Locker        lock.Locker
	Validator     validator.Validator
	Generator     otp.Generator
	Token         uid.StringID
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Hooks         []Hook
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		cfg:           dep.Config,
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		locker:        dep.Locker,
		validator:     dep.Validator,
		generator:     dep.Generator,
		token:         dep.Token,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		hooks:         dep.Hooks,
	}

	if s.locker == nil {
		s.locker = lock.NewNoop()
	}

	meter := s.ins.Meter("verification.usecase")
	s.issued = newCounter(meter, "verification.codes.issued", "Number of one-time passes issued")
	s.validated = newCounter(meter, "verification.codes.validated", "Number of codes validated")
	s.rejected = newCounter(meter, "verification.codes.rejected", "Number of rejected issue or verify calls")

	return s
}

func newCounter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("failed to create counter", "name", name, "error", err)
	}
	return c
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func (s *Usecase) reject(ctx context.Context, reason string) {
	if s.rejected != nil {
		s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// ExpiresAt returns the instant after which code can no longer be verified.
func (s *Usecase) ExpiresAt(code entity.Code) time.Time {
	return code.ExpiresAt(s.cfg.PasswordValidationPeriod)
}
