package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/goerror"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/valueobject"
	"github.com/shandysiswandi/gootp/internal/verification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	return NewSQLite(db, instrument.NewNoop())
}

func TestSQLite_Save(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 123456000, time.UTC)

	saved, err := s.Save(ctx, entity.Code{
		ID:               10,
		VerificationCode: "vc-10",
		OneTimePass:      "654321",
		Address:          "+15550100",
		AddressKind:      entity.AddressKindPhone,
		VerificationData: valueobject.JSONMap{"flow": "signup"},
		CreatedAt:        now,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.Code{
		ID:               10,
		VerificationCode: "vc-10",
		OneTimePass:      "654321",
		Address:          "+15550100",
		AddressKind:      entity.AddressKindPhone,
		VerificationData: valueobject.JSONMap{"flow": "signup"},
		CreatedAt:        now,
	}, *saved)

	saved.IncrementAttempts()
	saved.OneTimePass = "changed"
	updated, err := s.Save(ctx, *saved)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Attempts)
	assert.Equal(t, "654321", updated.OneTimePass, "pass is immutable")

	// an older copy cannot roll attempts back
	saved.Attempts = 0
	updated, err = s.Save(ctx, *saved)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Attempts)

	_, err = s.Save(ctx, entity.Code{ID: 11, VerificationCode: "vc-10", Address: "x", CreatedAt: now})
	assert.ErrorIs(t, err, goerror.ErrConflict)
}

func TestSQLite_Queries(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, offset := range []time.Duration{0, 30 * time.Minute, 50 * time.Minute} {
		_, err := s.Save(ctx, entity.Code{
			ID:               int64(i + 1),
			VerificationCode: "vc-" + string(rune('a'+i)),
			OneTimePass:      "000000",
			Address:          "a@b.com",
			AddressKind:      entity.AddressKindEmail,
			CreatedAt:        base.Add(offset),
		})
		require.NoError(t, err)
	}

	last, err := s.GetLastCodeForAddress(ctx, "a@b.com", base)
	require.NoError(t, err)
	assert.Equal(t, int64(3), last.ID)
	assert.Nil(t, last.VerificationData)

	_, err = s.GetLastCodeForAddress(ctx, "a@b.com", base.Add(51*time.Minute))
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	count, err := s.GetCodesCountForAddress(ctx, "a@b.com", base.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = s.GetCodesCountForAddress(ctx, "none@b.com", base)
	require.NoError(t, err)
	assert.Zero(t, count)

	got, err := s.GetOneUnvalidatedByCode(ctx, "vc-b", base)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)

	_, err = s.GetOneUnvalidatedByCode(ctx, "vc-a", base.Add(time.Minute))
	assert.ErrorIs(t, err, goerror.ErrNotFound, "expired")

	got.MarkValidated()
	_, err = s.Save(ctx, *got)
	require.NoError(t, err)
	_, err = s.GetOneUnvalidatedByCode(ctx, "vc-b", base)
	assert.ErrorIs(t, err, goerror.ErrNotFound, "validated")

	require.NoError(t, s.Delete(ctx, entity.Code{ID: 3}))
	n, err := s.DeleteCreatedBefore(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err = s.GetCodesCountForAddress(ctx, "a@b.com", base)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
