package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/interview-slots/internal/domain"
	"github.com/jackc/pgx/v5"
)

const interviewColumns = `id, title, duration_minutes, expires_at, created_at`

func scanInterview(row pgx.Row) (domain.Interview, error) {
	var iv domain.Interview
	err := row.Scan(&iv.ID, &iv.Title, &iv.DurationMinutes, &iv.ExpiresAt, &iv.CreatedAt)
	return iv, err
}

func (s *Store) CreateInterview(ctx context.Context, interview domain.Interview) error {
	const stmt = `
INSERT INTO interviews (id, title, duration_minutes, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := s.exec(ctx, stmt, interview.ID, interview.Title, interview.DurationMinutes, interview.ExpiresAt, interview.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create interview: %w", err)
	}
	return nil
}

func (s *Store) GetInterview(ctx context.Context, interviewID string) (domain.Interview, error) {
	return s.getInterview(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, interviewID)
}

func (s *Store) GetInterviewForUpdate(ctx context.Context, interviewID string) (domain.Interview, error) {
	return s.getInterview(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1 FOR UPDATE`, interviewID)
}

func (s *Store) getInterview(ctx context.Context, query, interviewID string) (domain.Interview, error) {
	iv, err := scanInterview(s.queryRow(ctx, query, interviewID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Interview{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Interview{}, domain.ErrInterviewNotFound
		}
		return domain.Interview{}, fmt.Errorf("get interview: %w", err)
	}
	return iv, nil
}

func (s *Store) SetInterviewExpiry(ctx context.Context, interviewID string, expiresAt time.Time) error {
	tag, err := s.exec(ctx, `UPDATE interviews SET expires_at = $2 WHERE id = $1`, interviewID, expiresAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set interview expiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInterviewNotFound
	}
	return nil
}

func (s *Store) CreateCandidate(ctx context.Context, candidate domain.Candidate) error {
	const stmt = `
INSERT INTO candidates (id, interview_id, email, name, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := s.exec(ctx, stmt, candidate.ID, candidate.InterviewID, candidate.Email, candidate.Name, candidate.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return domain.ErrCandidateExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrInterviewNotFound
		}
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

func (s *Store) GetCandidate(ctx context.Context, candidateID string) (domain.Candidate, error) {
	const query = `SELECT id, interview_id, email, name, created_at FROM candidates WHERE id = $1`

	var c domain.Candidate
	err := s.queryRow(ctx, query, candidateID).Scan(&c.ID, &c.InterviewID, &c.Email, &c.Name, &c.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Candidate{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Candidate{}, domain.ErrCandidateNotFound
		}
		return domain.Candidate{}, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}
