package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/shandysiswandi/gootp/internal/pkg/valueobject"
	"github.com/shandysiswandi/gootp/internal/verification/entity"
)

const codeColumns = `id, verification_code, one_time_pass, address, address_kind,
	verification_data, attempts, validated, created_at`

func scanCode(row *sql.Row) (*entity.Code, error) {
	var (
		code      entity.Code
		kind      int16
		data      sql.NullString
		createdAt int64
	)

	if err := row.Scan(
		&code.ID,
		&code.VerificationCode,
		&code.OneTimePass,
		&code.Address,
		&kind,
		&data,
		&code.Attempts,
		&code.Validated,
		&createdAt,
	); err != nil {
		return nil, err
	}

	code.AddressKind = entity.AddressKind(kind)
	code.CreatedAt = time.UnixMicro(createdAt).UTC()
	if data.Valid && data.String != "" {
		var m valueobject.JSONMap
		if err := m.Scan(data.String); err != nil {
			return nil, err
		}
		code.VerificationData = m
	}

	return &code, nil
}

func (s *SQLite) Save(ctx context.Context, code entity.Code) (_ *entity.Code, err error) {
	ctx, span := s.startSpan(ctx, "Save")
	defer func() { s.endSpan(span, err) }()

	var data any
	if len(code.VerificationData) > 0 {
		raw, err := code.VerificationData.Value()
		if err != nil {
			return nil, err
		}
		data = string(raw.([]byte))
	}

	saved, err := scanCode(s.db.QueryRowContext(ctx, `
		INSERT INTO verification_codes (`+codeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			attempts = MAX(verification_codes.attempts, excluded.attempts),
			validated = (verification_codes.validated OR excluded.validated)
		RETURNING `+codeColumns,
		code.ID,
		code.VerificationCode,
		code.OneTimePass,
		code.Address,
		int16(code.AddressKind),
		data,
		code.Attempts,
		code.Validated,
		code.CreatedAt.UnixMicro(),
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return saved, nil
}

func (s *SQLite) Delete(ctx context.Context, code entity.Code) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	_, err = s.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE id = ?`, code.ID)
	return s.mapError(err)
}

func (s *SQLite) GetOneUnvalidatedByCode(ctx context.Context, code string, createdAfter time.Time) (_ *entity.Code, err error) {
	ctx, span := s.startSpan(ctx, "GetOneUnvalidatedByCode")
	defer func() { s.endSpan(span, err) }()

	result, err := scanCode(s.db.QueryRowContext(ctx, `
		SELECT `+codeColumns+` FROM verification_codes
		WHERE verification_code = ? AND validated = 0 AND created_at >= ?
		LIMIT 1`,
		code, createdAfter.UnixMicro(),
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return result, nil
}

func (s *SQLite) GetLastCodeForAddress(ctx context.Context, address string, createdAfter time.Time) (_ *entity.Code, err error) {
	ctx, span := s.startSpan(ctx, "GetLastCodeForAddress")
	defer func() { s.endSpan(span, err) }()

	result, err := scanCode(s.db.QueryRowContext(ctx, `
		SELECT `+codeColumns+` FROM verification_codes
		WHERE address = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		address, createdAfter.UnixMicro(),
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return result, nil
}

func (s *SQLite) GetCodesCountForAddress(ctx context.Context, address string, createdAfter time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetCodesCountForAddress")
	defer func() { s.endSpan(span, err) }()

	var count int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verification_codes WHERE address = ? AND created_at >= ?`,
		address, createdAfter.UnixMicro(),
	).Scan(&count)
	if err != nil {
		return 0, s.mapError(err)
	}

	return count, nil
}

func (s *SQLite) DeleteCreatedBefore(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteCreatedBefore")
	defer func() { s.endSpan(span, err) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE created_at < ?`, before.UnixMicro())
	if err != nil {
		return 0, s.mapError(err)
	}

	return res.RowsAffected()
}
