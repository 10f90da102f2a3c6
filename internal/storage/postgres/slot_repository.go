package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/interview-slots/internal/domain"
	"github.com/jackc/pgx/v5"
)

const slotRecordColumns = `id, interview_id, slots, version, created_at, updated_at`

func scanSlotRecord(row pgx.Row) (domain.SlotRecord, error) {
	var (
		rec domain.SlotRecord
		raw []byte
	)
	if err := row.Scan(&rec.ID, &rec.InterviewID, &raw, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return domain.SlotRecord{}, err
	}
	if err := json.Unmarshal(raw, &rec.Slots); err != nil {
		return domain.SlotRecord{}, fmt.Errorf("decode slots: %w", err)
	}
	return rec, nil
}

// GetSlotRecordByInterview returns nil when the interview has no slots yet.
// Inside a transaction the row is locked so a replace cannot race a hold.
func (s *Store) GetSlotRecordByInterview(ctx context.Context, interviewID string) (*domain.SlotRecord, error) {
	query := `SELECT ` + slotRecordColumns + ` FROM slot_records WHERE interview_id = $1`
	if txFromContext(ctx) != nil {
		query += ` FOR UPDATE`
	}

	rec, err := scanSlotRecord(s.queryRow(ctx, query, interviewID))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot record: %w", err)
	}
	return &rec, nil
}

// GetSlotRecordForUpdate locks the slot record row. Every capacity check
// takes this lock before touching holds or bookings.
func (s *Store) GetSlotRecordForUpdate(ctx context.Context, slotRecordID string) (domain.SlotRecord, error) {
	query := `SELECT ` + slotRecordColumns + ` FROM slot_records WHERE id = $1 FOR UPDATE`

	rec, err := scanSlotRecord(s.queryRow(ctx, query, slotRecordID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.SlotRecord{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SlotRecord{}, domain.ErrSlotRecordNotFound
		}
		return domain.SlotRecord{}, fmt.Errorf("get slot record: %w", err)
	}
	return rec, nil
}

func (s *Store) CreateSlotRecord(ctx context.Context, record domain.SlotRecord) error {
	raw, err := json.Marshal(record.Slots)
	if err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}

	const stmt = `
INSERT INTO slot_records (id, interview_id, slots, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = s.exec(ctx, stmt, record.ID, record.InterviewID, raw, record.Version, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return domain.ErrSlotRecordInUse
		}
		if isForeignKeyViolation(err) {
			return domain.ErrInterviewNotFound
		}
		return fmt.Errorf("create slot record: %w", err)
	}
	return nil
}

func (s *Store) ReplaceSlots(ctx context.Context, record domain.SlotRecord) error {
	raw, err := json.Marshal(record.Slots)
	if err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}

	const stmt = `UPDATE slot_records SET slots = $2, version = $3, updated_at = $4 WHERE id = $1`
	tag, err := s.exec(ctx, stmt, record.ID, raw, record.Version, record.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("replace slots: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSlotRecordNotFound
	}
	return nil
}

func (s *Store) CountSlotRecordUsage(ctx context.Context, slotRecordID string, now time.Time) (int, error) {
	const query = `
SELECT
	(SELECT COUNT(*) FROM holds WHERE slot_record_id = $1 AND expires_at > $2) +
	(SELECT COUNT(*) FROM bookings WHERE slot_record_id = $1)`

	var n int
	if err := s.queryRow(ctx, query, slotRecordID, now).Scan(&n); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count slot record usage: %w", err)
	}
	return n, nil
}

func (s *Store) CountActiveHoldsBySlot(ctx context.Context, slotRecordID string, now time.Time) (map[int]int, error) {
	const query = `
SELECT slot_index, COUNT(*)
FROM holds
WHERE slot_record_id = $1 AND expires_at > $2
GROUP BY slot_index`
	return s.countBySlot(ctx, "count active holds", query, slotRecordID, now)
}

func (s *Store) CountConfirmedBySlot(ctx context.Context, slotRecordID string) (map[int]int, error) {
	const query = `
SELECT slot_index, COUNT(*)
FROM bookings
WHERE slot_record_id = $1 AND status = 'confirmed'
GROUP BY slot_index`
	return s.countBySlot(ctx, "count confirmed", query, slotRecordID)
}

func (s *Store) countBySlot(ctx context.Context, op, query string, args ...any) (map[int]int, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var idx, n int
		if err := rows.Scan(&idx, &n); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out[idx] = n
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return out, nil
}
