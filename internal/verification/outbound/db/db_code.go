package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gootp/internal/pkg/valueobject"
	"github.com/shandysiswandi/gootp/internal/verification/entity"
)

func scanCode(row pgx.Row) (*entity.Code, error) {
	var (
		code entity.Code
		kind int16
		data []byte
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
		&code.CreatedAt,
	); err != nil {
		return nil, err
	}

	code.AddressKind = entity.AddressKind(kind)
	code.CreatedAt = code.CreatedAt.UTC()
	if len(data) > 0 {
		var m valueobject.JSONMap
		if err := m.Scan(data); err != nil {
			return nil, err
		}
		code.VerificationData = m
	}

	return &code, nil
}

func (s *DB) Save(ctx context.Context, code entity.Code) (_ *entity.Code, err error) {
	ctx, span := s.startSpan(ctx, "Save")
	defer func() { s.endSpan(span, err) }()

	data, err := code.VerificationData.Value()
	if err != nil {
		return nil, err
	}

	saved, err := scanCode(s.conn.QueryRow(ctx, querySaveCode,
		code.ID,
		code.VerificationCode,
		code.OneTimePass,
		code.Address,
		int16(code.AddressKind),
		data,
		code.Attempts,
		code.Validated,
		code.CreatedAt,
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return saved, nil
}

func (s *DB) Delete(ctx context.Context, code entity.Code) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryDeleteCode, code.ID)
	return s.mapError(err)
}

func (s *DB) GetOneUnvalidatedByCode(ctx context.Context, code string, createdAfter time.Time) (_ *entity.Code, err error) {
	ctx, span := s.startSpan(ctx, "GetOneUnvalidatedByCode")
	defer func() { s.endSpan(span, err) }()

	result, err := scanCode(s.conn.QueryRow(ctx, queryGetOneUnvalidatedByCode, code, createdAfter))
	if err != nil {
		return nil, s.mapError(err)
	}

	return result, nil
}

func (s *DB) GetLastCodeForAddress(ctx context.Context, address string, createdAfter time.Time) (_ *entity.Code, err error) {
	ctx, span := s.startSpan(ctx, "GetLastCodeForAddress")
	defer func() { s.endSpan(span, err) }()

	result, err := scanCode(s.conn.QueryRow(ctx, queryGetLastCodeForAddress, address, createdAfter))
	if err != nil {
		return nil, s.mapError(err)
	}

	return result, nil
}

func (s *DB) GetCodesCountForAddress(ctx context.Context, address string, createdAfter time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetCodesCountForAddress")
	defer func() { s.endSpan(span, err) }()

	var count int64
	if err := s.conn.QueryRow(ctx, queryCountCodesForAddress, address, createdAfter).Scan(&count); err != nil {
		return 0, s.mapError(err)
	}

	return count, nil
}

func (s *DB) DeleteCreatedBefore(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteCreatedBefore")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryDeleteCreatedBefore, before)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
