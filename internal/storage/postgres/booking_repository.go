package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/interview-slots/internal/domain"
	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateBooking(ctx context.Context, booking domain.Booking) error {
	const stmt = `
INSERT INTO bookings (id, interview_id, candidate_id, slot_record_id, slot_index, starts_at, ends_at, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.exec(ctx, stmt,
		booking.ID,
		booking.InterviewID,
		booking.CandidateID,
		booking.SlotRecordID,
		booking.SlotIndex,
		booking.Start,
		booking.End,
		string(booking.Status),
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyBooked
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (s *Store) HasConfirmedBooking(ctx context.Context, interviewID, candidateID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM bookings
	WHERE interview_id = $1 AND candidate_id = $2 AND status = 'confirmed'
)`

	var exists bool
	if err := s.queryRow(ctx, query, interviewID, candidateID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check booking: %w", err)
	}
	return exists, nil
}

func (s *Store) CountConfirmed(ctx context.Context, slotRecordID string, slotIndex int) (int, error) {
	const query = `
SELECT COUNT(*)
FROM bookings
WHERE slot_record_id = $1 AND slot_index = $2 AND status = 'confirmed'`

	var n int
	if err := s.queryRow(ctx, query, slotRecordID, slotIndex).Scan(&n); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return n, nil
}

func (s *Store) GetBookingByCandidate(ctx context.Context, interviewID, candidateID string) (*domain.Booking, error) {
	const query = `
SELECT id, interview_id, candidate_id, slot_record_id, slot_index, starts_at, ends_at, status, created_at, updated_at
FROM bookings
WHERE interview_id = $1 AND candidate_id = $2`

	var (
		b      domain.Booking
		status string
	)
	err := s.queryRow(ctx, query, interviewID, candidateID).
		Scan(&b.ID, &b.InterviewID, &b.CandidateID, &b.SlotRecordID, &b.SlotIndex, &b.Start, &b.End, &status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	b.Status = domain.BookingStatus(status)
	return &b, nil
}
