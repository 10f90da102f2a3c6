package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/interview-slots/internal/domain"
	"github.com/jackc/pgx/v5"
)

const holdColumns = `id, interview_id, candidate_id, slot_record_id, slot_index, starts_at, ends_at, expires_at, created_at`

func scanHold(row pgx.Row) (domain.Hold, error) {
	var h domain.Hold
	err := row.Scan(&h.ID, &h.InterviewID, &h.CandidateID, &h.SlotRecordID, &h.SlotIndex, &h.Start, &h.End, &h.ExpiresAt, &h.CreatedAt)
	return h, err
}

func (s *Store) CreateHold(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO holds (id, interview_id, candidate_id, slot_record_id, slot_index, starts_at, ends_at, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.exec(ctx, stmt,
		hold.ID,
		hold.InterviewID,
		hold.CandidateID,
		hold.SlotRecordID,
		hold.SlotIndex,
		hold.Start,
		hold.End,
		hold.ExpiresAt,
		hold.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrHoldExists
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

func (s *Store) GetHold(ctx context.Context, holdID string) (domain.Hold, error) {
	return s.getHold(ctx, `SELECT `+holdColumns+` FROM holds WHERE id = $1`, holdID)
}

func (s *Store) GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error) {
	return s.getHold(ctx, `SELECT `+holdColumns+` FROM holds WHERE id = $1 FOR UPDATE`, holdID)
}

func (s *Store) getHold(ctx context.Context, query, holdID string) (domain.Hold, error) {
	h, err := scanHold(s.queryRow(ctx, query, holdID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Hold{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Hold{}, domain.ErrHoldNotFound
		}
		return domain.Hold{}, fmt.Errorf("get hold: %w", err)
	}
	return h, nil
}

func (s *Store) FindActiveHold(ctx context.Context, interviewID, candidateID string, now time.Time) (*domain.Hold, error) {
	query := `SELECT ` + holdColumns + ` FROM holds WHERE interview_id = $1 AND candidate_id = $2 AND expires_at > $3`

	h, err := scanHold(s.queryRow(ctx, query, interviewID, candidateID, now))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active hold: %w", err)
	}
	return &h, nil
}

func (s *Store) CountActiveHolds(ctx context.Context, slotRecordID string, slotIndex int, now time.Time, excludeHoldID string) (int, error) {
	query := `
SELECT COUNT(*)
FROM holds
WHERE slot_record_id = $1 AND slot_index = $2 AND expires_at > $3`
	args := []any{slotRecordID, slotIndex, now}
	if excludeHoldID != "" {
		query += ` AND id <> $4`
		args = append(args, excludeHoldID)
	}

	var n int
	if err := s.queryRow(ctx, query, args...).Scan(&n); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count active holds: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteHold(ctx context.Context, holdID string) error {
	tag, err := s.exec(ctx, `DELETE FROM holds WHERE id = $1`, holdID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotFound
	}
	return nil
}

// Expired rows locked by another transaction are skipped; they are already
// excluded from every count.
const deleteExpiredHoldsSQL = `
DELETE FROM holds
WHERE id IN (
	SELECT id FROM holds
	WHERE expires_at <= $1 AND ($2::uuid IS NULL OR interview_id = $2::uuid)
	FOR UPDATE SKIP LOCKED
)`

func (s *Store) DeleteExpiredHolds(ctx context.Context, interviewID string, now time.Time) (int, error) {
	tag, err := s.exec(ctx, deleteExpiredHoldsSQL, now, interviewID)
	if err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("delete expired holds: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) DeleteAllExpiredHolds(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.exec(ctx, deleteExpiredHoldsSQL, now, nil)
	if err != nil {
		return 0, fmt.Errorf("delete expired holds: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
