package app

import (
	"context"
	"net/mail"
	"strings"

	"github.com/cimillas/interview-slots/internal/clock"
	"github.com/cimillas/interview-slots/internal/domain"
	"github.com/cimillas/interview-slots/internal/timemath"
)

type InterviewRepository interface {
	CreateInterview(ctx context.Context, interview domain.Interview) error
	GetInterview(ctx context.Context, interviewID string) (domain.Interview, error)
	CreateCandidate(ctx context.Context, candidate domain.Candidate) error
}

// InterviewService registers interviews and the candidates invited to them.
type InterviewService struct {
	repo  InterviewRepository
	clock clock.Clock
}

func NewInterviewService(repo InterviewRepository, clk clock.Clock) *InterviewService {
	return &InterviewService{
		repo:  repo,
		clock: clk,
	}
}

type CreateInterviewInput struct {
	Title           string
	DurationMinutes int
}

func (s *InterviewService) CreateInterview(ctx context.Context, in CreateInterviewInput) (domain.Interview, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Interview{}, domain.ErrInvalidTitle
	}
	if in.DurationMinutes <= 0 || in.DurationMinutes > timemath.MaxDurationMinutes {
		return domain.Interview{}, domain.ErrInvalidDuration
	}

	interview := domain.Interview{
		ID:              newID(),
		Title:           title,
		DurationMinutes: in.DurationMinutes,
		CreatedAt:       s.clock.Now(),
	}
	if err := s.repo.CreateInterview(ctx, interview); err != nil {
		return domain.Interview{}, err
	}
	return interview, nil
}

func (s *InterviewService) GetInterview(ctx context.Context, interviewID string) (domain.Interview, error) {
	if interviewID == "" {
		return domain.Interview{}, domain.ErrInvalidID
	}
	return s.repo.GetInterview(ctx, interviewID)
}

type RegisterCandidateInput struct {
	InterviewID string
	Email       string
	Name        string
}

// RegisterCandidate creates the candidate identity used by holds and bookings.
// Emails are unique per interview.
func (s *InterviewService) RegisterCandidate(ctx context.Context, in RegisterCandidateInput) (domain.Candidate, error) {
	if in.InterviewID == "" {
		return domain.Candidate{}, domain.ErrInvalidID
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return domain.Candidate{}, domain.ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Candidate{}, domain.ErrInvalidEmail
	}

	if _, err := s.repo.GetInterview(ctx, in.InterviewID); err != nil {
		return domain.Candidate{}, err
	}

	candidate := domain.Candidate{
		ID:          newID(),
		InterviewID: in.InterviewID,
		Email:       email,
		Name:        strings.TrimSpace(in.Name),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.CreateCandidate(ctx, candidate); err != nil {
		return domain.Candidate{}, err
	}
	return candidate, nil
}
