package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shandysiswandi/gootp/internal/pkg/clock"
	"github.com/shandysiswandi/gootp/internal/pkg/config"
	"github.com/shandysiswandi/gootp/internal/pkg/goroutine"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/lock"
	"github.com/shandysiswandi/gootp/internal/pkg/messaging"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
	"github.com/shandysiswandi/gootp/internal/pkg/router"
	"github.com/shandysiswandi/gootp/internal/pkg/uid"
	"github.com/shandysiswandi/gootp/internal/pkg/validator"
	"github.com/shandysiswandi/gootp/internal/verification/inbound"
	"github.com/shandysiswandi/gootp/internal/verification/outbound/db"
	"github.com/shandysiswandi/gootp/internal/verification/outbound/mq"
	"github.com/shandysiswandi/gootp/internal/verification/outbound/sqlite"
	"github.com/shandysiswandi/gootp/internal/verification/usecase"
)

var (
	// ErrUnknownGenerator is returned for an unsupported modules.verification.generator value.
	ErrUnknownGenerator = errors.New("verification: unknown generator")
	// ErrGeneratorSymbols is returned when the hotp generator is paired with
	// an alphabet other than the decimal digits.
	ErrGeneratorSymbols = errors.New("verification: hotp requires allowed_symbols \"0123456789\"")
)

// Dependency carries the shared resources of the verification module.
// Exactly one of DBConn (PostgreSQL) or SQLiteConn is used; DBConn wins when both are set.
// CacheConn is optional; without it codes are processed without locking.
type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required_without=SQLiteConn"`
	SQLiteConn *sql.DB                    `validate:"required_without=DBConn"`
	CacheConn  *redis.Client
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	OID        uid.StringID               `validate:"required"`
	Token      uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	cfg := newConfig(dep.Config)
	if err := dep.Validator.Validate(cfg); err != nil {
		return err
	}

	if err := migrateSchema(dep); err != nil {
		return err
	}

	generator, err := newGenerator(dep.Config, cfg)
	if err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		Config:        cfg,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument, dep.OID),
		Locker:        newLocker(dep),
		Validator:     dep.Validator,
		Generator:     generator,
		Token:         dep.Token,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Hooks:         newHooks(dep.Config),
	}
	if dep.DBConn != nil {
		ucDep.RepoDB = db.NewDB(dep.DBConn, dep.Instrument)
	} else {
		ucDep.RepoDB = sqlite.NewSQLite(dep.SQLiteConn, dep.Instrument)
	}

	uc := usecase.New(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	if dep.Config.GetBool("modules.verification.housekeeping.enabled") {
		inbound.RunHousekeeping(dep.Ctx, dep.Goroutine, uc,
			dep.Config.GetSecond("modules.verification.housekeeping.interval_seconds"))
	}

	return nil
}

// migrateSchema applies the embedded migrations when database.migrate is set.
func migrateSchema(dep Dependency) error {
	if !dep.Config.GetBool("database.migrate") {
		return nil
	}

	if dep.DBConn != nil {
		return db.Migrate(dep.Config.GetString("database.url"))
	}
	return sqlite.Migrate(dep.SQLiteConn)
}

func newConfig(c config.Config) usecase.Config {
	cfg := usecase.Config{
		PassLength:               c.GetInt("modules.verification.pass_length"),
		AllowedSymbols:           c.GetString("modules.verification.allowed_symbols"),
		CreationCodeThreshold:    c.GetSecond("modules.verification.creation_code_threshold_seconds"),
		LimitPerHour:             c.GetInt("modules.verification.limit_per_hour"),
		PasswordValidationPeriod: c.GetSecond("modules.verification.password_validation_period_seconds"),
		MaxAttempts:              c.GetInt("modules.verification.max_attempts"),
		RejectExhausted:          c.GetBool("modules.verification.reject_exhausted"),
		LockTTL:                  c.GetSecond("modules.verification.lock_ttl_seconds"),
	}

	if c.GetBool("modules.verification.housekeeping.enabled") {
		cfg.Retention = c.GetSecond("modules.verification.housekeeping.retention_seconds")
	}

	return cfg
}

func newGenerator(c config.Config, cfg usecase.Config) (otp.Generator, error) {
	switch kind := c.GetString("modules.verification.generator"); kind {
	case "", "alphabet":
		gen, err := otp.NewAlphabet(cfg.AllowedSymbols, cfg.PassLength, nil)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case "hotp":
		if cfg.AllowedSymbols != otp.HOTPSymbols {
			return nil, ErrGeneratorSymbols
		}
		gen, err := otp.NewHOTP(c.GetBinary("modules.verification.hotp_secret"), cfg.PassLength)
		if err != nil {
			return nil, err
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, kind)
	}
}

func newLocker(dep Dependency) lock.Locker {
	if dep.CacheConn == nil {
		slog.Warn("verification running without distributed lock")
		return lock.NewNoop()
	}
	return lock.NewRedis(dep.CacheConn)
}

func newHooks(c config.Config) []usecase.Hook {
	passes := c.GetMap("modules.verification.fixed_passes")
	if len(passes) == 0 {
		return nil
	}

	slog.Info("fixed passes configured", "addresses", lo.Keys(passes))
	return []usecase.Hook{usecase.FixedPassHook(passes)}
}
