package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/clock"
	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/lock"
	"github.com/shandysiswandi/gootp/internal/pkg/otp"
	"github.com/shandysiswandi/gootp/internal/pkg/validator"
	"github.com/shandysiswandi/gootp/internal/verification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStore = errors.New("store unavailable")

type fakeRepo struct {
	mu    sync.Mutex
	codes map[int64]entity.Code

	saveErr  error
	saveCall int
	// failSaveAt fails only the n-th Save call (1-based) when set
	failSaveAt int
	readErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{codes: map[int64]entity.Code{}}
}

func (f *fakeRepo) Save(_ context.Context, code entity.Code) (*entity.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saveCall++
	if f.saveErr != nil && (f.failSaveAt == 0 || f.failSaveAt == f.saveCall) {
		return nil, f.saveErr
	}
	f.codes[code.ID] = code
	return &code, nil
}

func (f *fakeRepo) Delete(_ context.Context, code entity.Code) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.codes, code.ID)
	return nil
}

func (f *fakeRepo) GetOneUnvalidatedByCode(_ context.Context, vc string, createdAfter time.Time) (*entity.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.readErr != nil {
		return nil, f.readErr
	}
	for _, c := range f.codes {
		if c.VerificationCode == vc && !c.Validated && !c.CreatedAt.Before(createdAfter) {
			return &c, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepo) forAddress(address string, createdAfter time.Time) []entity.Code {
	var out []entity.Code
	for _, c := range f.codes {
		if c.Address == address && !c.CreatedAt.Before(createdAfter) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeRepo) GetLastCodeForAddress(_ context.Context, address string, createdAfter time.Time) (*entity.Code, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.readErr != nil {
		return nil, f.readErr
	}
	codes := f.forAddress(address, createdAfter)
	if len(codes) == 0 {
		return nil, goerror.ErrNotFound
	}
	return &codes[0], nil
}

func (f *fakeRepo) GetCodesCountForAddress(_ context.Context, address string, createdAfter time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.readErr != nil {
		return 0, f.readErr
	}
	return int64(len(f.forAddress(address, createdAfter))), nil
}

func (f *fakeRepo) DeleteCreatedBefore(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for id, c := range f.codes {
		if c.CreatedAt.Before(before) {
			delete(f.codes, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) get(id int64) entity.Code {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[id]
}

type fakeMessaging struct {
	issued    []CodeIssuedEvent
	validated []CodeValidatedEvent
	err       error
}

func (f *fakeMessaging) PublishCodeIssued(_ context.Context, msg CodeIssuedEvent) error {
	f.issued = append(f.issued, msg)
	return f.err
}

func (f *fakeMessaging) PublishCodeValidated(_ context.Context, msg CodeValidatedEvent) error {
	f.validated = append(f.validated, msg)
	return f.err
}

type fakeLocker struct {
	held map[string]bool
	err  error
}

func (f *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.held[key] {
		return nil, lock.ErrNotAcquired
	}
	return func(context.Context) error { return nil }, nil
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type seqToken struct {
	mu sync.Mutex
	n  int
}

func (s *seqToken) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "vc-" + strings.Repeat("x", s.n)
}

type env struct {
	uc     *Usecase
	repo   *fakeRepo
	mq     *fakeMessaging
	locker *fakeLocker
	clock  *clock.Fixed
}

func defaultConfig() Config {
	return Config{
		PassLength:               6,
		AllowedSymbols:           "0123456789",
		CreationCodeThreshold:    60 * time.Second,
		LimitPerHour:             5,
		PasswordValidationPeriod: 5 * time.Minute,
		MaxAttempts:              3,
		LockTTL:                  10 * time.Second,
		Retention:                24 * time.Hour,
	}
}

func newEnv(t *testing.T, cfg Config, hooks ...Hook) *env {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	gen, err := otp.NewAlphabet(cfg.AllowedSymbols, cfg.PassLength, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	e := &env{
		repo:   newFakeRepo(),
		mq:     &fakeMessaging{},
		locker: &fakeLocker{held: map[string]bool{}},
		clock:  clock.NewFixed(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
	}
	e.uc = New(Dependency{
		Config:        cfg,
		RepoDB:        e.repo,
		RepoMessaging: e.mq,
		Locker:        e.locker,
		Validator:     v,
		Generator:     gen,
		Token:         &seqToken{},
		UID:           &seqID{},
		Clock:         e.clock,
		Instrument:    instrument.NewNoop(),
		Hooks:         hooks,
	})
	return e
}

func assertGoCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, code, gerr.Code())
}

func TestGenerate(t *testing.T) {
	e := newEnv(t, defaultConfig())

	code, err := e.uc.Generate(context.Background(), GenerateInput{
		Address: "  User@Example.COM ",
		Data:    map[string]any{"user_id": "42"},
	})
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", code.Address)
	assert.Equal(t, entity.AddressKindEmail, code.AddressKind)
	assert.Len(t, code.OneTimePass, 6)
	for _, r := range code.OneTimePass {
		assert.Contains(t, "0123456789", string(r))
	}
	assert.NotEmpty(t, code.VerificationCode)
	assert.Zero(t, code.Attempts)
	assert.False(t, code.Validated)
	assert.Equal(t, e.clock.Now(), code.CreatedAt)
	assert.Equal(t, "42", code.VerificationData.GetString("user_id"))

	require.Len(t, e.mq.issued, 1)
	assert.Equal(t, code.CreatedAt.Add(5*time.Minute), e.mq.issued[0].ExpiresAt)
	assert.Equal(t, code.ID, e.repo.get(code.ID).ID)
}

func TestGenerate_EmptyDataIsNotStored(t *testing.T) {
	e := newEnv(t, defaultConfig())

	code, err := e.uc.Generate(context.Background(), GenerateInput{Address: "+15550100", Data: map[string]any{}})
	require.NoError(t, err)
	assert.Nil(t, code.VerificationData)
	assert.Equal(t, entity.AddressKindPhone, code.AddressKind)
}

func TestGenerate_InvalidAddress(t *testing.T) {
	e := newEnv(t, defaultConfig())

	for _, addr := range []string{"", "   ", "not a contact", "a@"} {
		_, err := e.uc.Generate(context.Background(), GenerateInput{Address: addr})
		assertGoCode(t, err, goerror.CodeInvalidInput)
	}
	assert.Empty(t, e.repo.codes)
}

func TestGenerate_CreationThreshold(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	_, err := e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
	require.NoError(t, err)

	e.clock.Advance(10 * time.Second)
	_, err = e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
	assert.ErrorIs(t, err, ErrLimit)
	assertGoCode(t, err, goerror.CodeTooManyRequest)

	e.clock.Advance(60 * time.Second)
	_, err = e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
	assert.NoError(t, err)
}

func TestGenerate_HourlyLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.CreationCodeThreshold = 0
	cfg.LimitPerHour = 2
	e := newEnv(t, cfg)
	ctx := context.Background()

	// the cap trips once more than LimitPerHour codes exist in the window
	for range cfg.LimitPerHour + 1 {
		_, err := e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
		require.NoError(t, err)
		e.clock.Advance(time.Second)
	}

	_, err := e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
	assert.ErrorIs(t, err, ErrLimit)

	_, err = e.uc.Generate(ctx, GenerateInput{Address: "other@b.com"})
	assert.NoError(t, err)

	e.clock.Advance(time.Hour)
	_, err = e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
	assert.NoError(t, err)
}

func TestGenerate_HookOverride(t *testing.T) {
	var seen []string
	observer := func(_ context.Context, ev *entity.GenerationEvent) {
		seen = append(seen, ev.Name+":"+ev.Address)
	}
	e := newEnv(t, defaultConfig(),
		FixedPassHook(map[string]string{"Review@Store.com": "000000"}),
		observer,
	)
	ctx := context.Background()

	code, err := e.uc.Generate(ctx, GenerateInput{Address: "review@store.com"})
	require.NoError(t, err)
	assert.Equal(t, "000000", code.OneTimePass)

	code, err = e.uc.Generate(ctx, GenerateInput{Address: "someone@store.com"})
	require.NoError(t, err)
	assert.NotEqual(t, "000000", code.OneTimePass)

	assert.Equal(t, []string{
		"generating_one_time_password:review@store.com",
		"generating_one_time_password:someone@store.com",
	}, seen)
}

func TestGenerate_Failures(t *testing.T) {
	t.Run("lock held", func(t *testing.T) {
		e := newEnv(t, defaultConfig())
		e.locker.held["verification:generate:a@b.com"] = true

		_, err := e.uc.Generate(context.Background(), GenerateInput{Address: "A@b.com"})
		assert.ErrorIs(t, err, ErrLimit)
	})

	t.Run("lock backend down", func(t *testing.T) {
		e := newEnv(t, defaultConfig())
		e.locker.err = errStore

		_, err := e.uc.Generate(context.Background(), GenerateInput{Address: "a@b.com"})
		assert.ErrorIs(t, err, errStore)
		assertGoCode(t, err, goerror.CodeInternal)
	})

	t.Run("read error", func(t *testing.T) {
		e := newEnv(t, defaultConfig())
		e.repo.readErr = errStore

		_, err := e.uc.Generate(context.Background(), GenerateInput{Address: "a@b.com"})
		assert.ErrorIs(t, err, errStore)
		assert.NotErrorIs(t, err, ErrLimit)
	})

	t.Run("save error", func(t *testing.T) {
		e := newEnv(t, defaultConfig())
		e.repo.saveErr = errStore

		_, err := e.uc.Generate(context.Background(), GenerateInput{Address: "a@b.com"})
		assert.ErrorIs(t, err, errStore)
		assert.Empty(t, e.mq.issued)
	})

	t.Run("publish error is ignored", func(t *testing.T) {
		e := newEnv(t, defaultConfig())
		e.mq.err = errStore

		code, err := e.uc.Generate(context.Background(), GenerateInput{Address: "a@b.com"})
		require.NoError(t, err)
		assert.NotNil(t, code)
	})
}

func TestVerify_RoundTrip(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	code, err := e.uc.Generate(ctx, GenerateInput{Address: "a@b.com", Data: map[string]any{"k": "v"}})
	require.NoError(t, err)

	e.clock.Advance(time.Minute)
	got, err := e.uc.Verify(ctx, VerifyInput{VerificationCode: code.VerificationCode, Pass: code.OneTimePass})
	require.NoError(t, err)
	assert.True(t, got.Validated)
	assert.Equal(t, "v", got.VerificationData.GetString("k"))
	assert.True(t, e.repo.get(code.ID).Validated)
	require.Len(t, e.mq.validated, 1)
	assert.Equal(t, e.clock.Now(), e.mq.validated[0].ValidatedAt)

	_, err = e.uc.Verify(ctx, VerifyInput{VerificationCode: code.VerificationCode, Pass: code.OneTimePass})
	assert.ErrorIs(t, err, ErrNotFound)
	assertGoCode(t, err, goerror.CodeNotFound)
}

func TestVerify_WrongPass(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	code, err := e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
	require.NoError(t, err)

	_, err = e.uc.Verify(ctx, VerifyInput{VerificationCode: code.VerificationCode, Pass: "wrong!"})
	assert.ErrorIs(t, err, ErrVerification)
	assertGoCode(t, err, goerror.CodeUnauthorized)
	assert.Equal(t, 1, e.repo.get(code.ID).Attempts)
	assert.False(t, e.repo.get(code.ID).Validated)
}

func TestVerify_AttemptLimitGatesCorrectPass(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	code, err := e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
	require.NoError(t, err)

	for range 3 {
		_, err = e.uc.Verify(ctx, VerifyInput{VerificationCode: code.VerificationCode, Pass: "wrong!"})
		require.ErrorIs(t, err, ErrVerification)
	}

	// wrong passes past the cap keep counting in the default mode
	_, err = e.uc.Verify(ctx, VerifyInput{VerificationCode: code.VerificationCode, Pass: "wrong!"})
	require.ErrorIs(t, err, ErrVerification)
	assert.Equal(t, 4, e.repo.get(code.ID).Attempts)

	_, err = e.uc.Verify(ctx, VerifyInput{VerificationCode: code.VerificationCode, Pass: code.OneTimePass})
	assert.ErrorIs(t, err, ErrLimit)
	assert.Equal(t, 4, e.repo.get(code.ID).Attempts)
	assert.False(t, e.repo.get(code.ID).Validated)
	assert.Empty(t, e.mq.validated)
}

func TestVerify_RejectExhausted(t *testing.T) {
	cfg := defaultConfig()
	cfg.RejectExhausted = true
	e := newEnv(t, cfg)
	ctx := context.Background()

	code, err := e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
	require.NoError(t, err)

	for range cfg.MaxAttempts {
		_, err = e.uc.Verify(ctx, VerifyInput{VerificationCode: code.VerificationCode, Pass: "wrong!"})
		require.ErrorIs(t, err, ErrVerification)
	}

	_, err = e.uc.Verify(ctx, VerifyInput{VerificationCode: code.VerificationCode, Pass: "wrong!"})
	assert.ErrorIs(t, err, ErrLimit)
	assert.Equal(t, cfg.MaxAttempts, e.repo.get(code.ID).Attempts)
}

func TestVerify_Expired(t *testing.T) {
	e := newEnv(t, defaultConfig())
	ctx := context.Background()

	code, err := e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
	require.NoError(t, err)

	e.clock.Advance(5*time.Minute + time.Second)
	_, err = e.uc.Verify(ctx, VerifyInput{VerificationCode: code.VerificationCode, Pass: code.OneTimePass})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerify_Failures(t *testing.T) {
	t.Run("invalid input", func(t *testing.T) {
		e := newEnv(t, defaultConfig())
		_, err := e.uc.Verify(context.Background(), VerifyInput{})
		assertGoCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("increment save failure is a server error", func(t *testing.T) {
		e := newEnv(t, defaultConfig())
		ctx := context.Background()

		code, err := e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
		require.NoError(t, err)

		e.repo.saveErr = errStore
		_, err = e.uc.Verify(ctx, VerifyInput{VerificationCode: code.VerificationCode, Pass: "wrong!"})
		assert.ErrorIs(t, err, errStore)
		assert.NotErrorIs(t, err, ErrVerification)
		assertGoCode(t, err, goerror.CodeInternal)
	})

	t.Run("validate save failure", func(t *testing.T) {
		e := newEnv(t, defaultConfig())
		ctx := context.Background()

		code, err := e.uc.Generate(ctx, GenerateInput{Address: "a@b.com"})
		require.NoError(t, err)

		e.repo.saveErr = errStore
		e.repo.failSaveAt = 2
		_, err = e.uc.Verify(ctx, VerifyInput{VerificationCode: code.VerificationCode, Pass: code.OneTimePass})
		assert.ErrorIs(t, err, errStore)
		assert.Empty(t, e.mq.validated)
	})

	t.Run("lock held", func(t *testing.T) {
		e := newEnv(t, defaultConfig())
		e.locker.held["verification:verify:vc"] = true

		_, err := e.uc.Verify(context.Background(), VerifyInput{VerificationCode: "vc", Pass: "123456"})
		assert.ErrorIs(t, err, ErrLimit)
	})
}

func TestPurge(t *testing.T) {
	cfg := defaultConfig()
	cfg.CreationCodeThreshold = 0
	e := newEnv(t, cfg)
	ctx := context.Background()

	old, err := e.uc.Generate(ctx, GenerateInput{Address: "old@b.com"})
	require.NoError(t, err)

	e.clock.Advance(25 * time.Hour)
	fresh, err := e.uc.Generate(ctx, GenerateInput{Address: "new@b.com"})
	require.NoError(t, err)

	n, err := e.uc.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Zero(t, e.repo.get(old.ID).ID)
	assert.Equal(t, fresh.ID, e.repo.get(fresh.ID).ID)
}

func TestPurge_Disabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Retention = 0
	e := newEnv(t, cfg)

	n, err := e.uc.Purge(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
