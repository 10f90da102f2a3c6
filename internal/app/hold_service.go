package app

import (
	"context"
	"time"

	"github.com/cimillas/interview-slots/internal/clock"
	"github.com/cimillas/interview-slots/internal/domain"
	"go.uber.org/zap"
)

type HoldRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetCandidate(ctx context.Context, candidateID string) (domain.Candidate, error)
	GetInterview(ctx context.Context, interviewID string) (domain.Interview, error)
	HasConfirmedBooking(ctx context.Context, interviewID, candidateID string) (bool, error)
	GetSlotRecordForUpdate(ctx context.Context, slotRecordID string) (domain.SlotRecord, error)
	DeleteExpiredHolds(ctx context.Context, interviewID string, now time.Time) (int, error)
	FindActiveHold(ctx context.Context, interviewID, candidateID string, now time.Time) (*domain.Hold, error)
	CountActiveHolds(ctx context.Context, slotRecordID string, slotIndex int, now time.Time, excludeHoldID string) (int, error)
	CountConfirmed(ctx context.Context, slotRecordID string, slotIndex int) (int, error)
	CreateHold(ctx context.Context, hold domain.Hold) error
	GetHold(ctx context.Context, holdID string) (domain.Hold, error)
	DeleteHold(ctx context.Context, holdID string) error
}

type HoldService struct {
	repo    HoldRepository
	clock   clock.Clock
	holdTTL time.Duration
	locker  SlotLocker
	logger  *zap.Logger
}

const DefaultHoldTTL = 300 * time.Second

func NewHoldService(repo HoldRepository, clk clock.Clock, opts ...HoldServiceOption) *HoldService {
	svc := &HoldService{
		repo:    repo,
		clock:   clk,
		holdTTL: DefaultHoldTTL,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HoldServiceOption func(*HoldService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// WithHoldLocker takes a per-slot lock around hold creation.
func WithHoldLocker(locker SlotLocker) HoldServiceOption {
	return func(s *HoldService) {
		s.locker = locker
	}
}

func WithHoldLogger(logger *zap.Logger) HoldServiceOption {
	return func(s *HoldService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type CreateHoldInput struct {
	InterviewID  string
	CandidateID  string
	SlotRecordID string
	SlotIndex    int
}

// CreateHold reserves one unit of a slot for the candidate for the hold TTL.
// Expired holds of the interview are swept before capacity is counted.
func (s *HoldService) CreateHold(ctx context.Context, in CreateHoldInput) (domain.Hold, error) {
	if in.InterviewID == "" || in.CandidateID == "" || in.SlotRecordID == "" {
		return domain.Hold{}, domain.ErrInvalidID
	}
	if in.SlotIndex < 0 {
		return domain.Hold{}, domain.ErrInvalidSlotIndex
	}

	unlock, err := acquireSlot(ctx, s.locker, s.logger, in.SlotRecordID, in.SlotIndex)
	if err != nil {
		return domain.Hold{}, err
	}
	defer unlock()

	now := s.clock.Now()
	var (
		result domain.Hold
		swept  int
	)

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		candidate, err := s.repo.GetCandidate(txCtx, in.CandidateID)
		if err != nil {
			return err
		}
		if candidate.InterviewID != in.InterviewID {
			return domain.ErrInvalidCandidate
		}

		interview, err := s.repo.GetInterview(txCtx, in.InterviewID)
		if err != nil {
			return err
		}
		if interview.LinkExpired(now) {
			return domain.ErrInterviewExpired
		}

		booked, err := s.repo.HasConfirmedBooking(txCtx, in.InterviewID, in.CandidateID)
		if err != nil {
			return err
		}
		if booked {
			return domain.ErrAlreadyBooked
		}

		record, err := s.repo.GetSlotRecordForUpdate(txCtx, in.SlotRecordID)
		if err != nil {
			return err
		}
		if record.InterviewID != in.InterviewID {
			return domain.ErrSlotRecordNotFound
		}
		slot, ok := record.Slot(in.SlotIndex)
		if !ok {
			return domain.ErrInvalidSlotIndex
		}

		swept, err = s.repo.DeleteExpiredHolds(txCtx, in.InterviewID, now)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindActiveHold(txCtx, in.InterviewID, in.CandidateID, now)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrHoldExists
		}

		held, err := s.repo.CountActiveHolds(txCtx, record.ID, in.SlotIndex, now, "")
		if err != nil {
			return err
		}
		confirmed, err := s.repo.CountConfirmed(txCtx, record.ID, in.SlotIndex)
		if err != nil {
			return err
		}
		if held+confirmed >= slot.Capacity {
			return domain.ErrSlotFull
		}

		hold := domain.Hold{
			ID:           newID(),
			InterviewID:  in.InterviewID,
			CandidateID:  in.CandidateID,
			SlotRecordID: record.ID,
			SlotIndex:    in.SlotIndex,
			Start:        slot.Start,
			End:          slot.End,
			ExpiresAt:    now.Add(s.holdTTL),
			CreatedAt:    now,
		}
		if err := s.repo.CreateHold(txCtx, hold); err != nil {
			return err
		}
		result = hold
		return nil
	})
	if err != nil {
		return domain.Hold{}, err
	}

	if swept > 0 {
		s.logger.Debug("swept expired holds", zap.String("interview_id", in.InterviewID), zap.Int("count", swept))
	}
	s.logger.Info("hold created",
		zap.String("hold_id", result.ID),
		zap.String("interview_id", result.InterviewID),
		zap.String("candidate_id", result.CandidateID),
		zap.Int("slot_index", result.SlotIndex),
		zap.Time("expires_at", result.ExpiresAt),
	)
	return result, nil
}

type CancelHoldInput struct {
	HoldID      string
	CandidateID string
}

// CancelHold releases a hold. Capacity is derived from live rows, so nothing
// else needs restoring. Cancelling a missing hold reports ErrHoldNotFound.
func (s *HoldService) CancelHold(ctx context.Context, in CancelHoldInput) error {
	if in.HoldID == "" || in.CandidateID == "" {
		return domain.ErrInvalidID
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetHold(txCtx, in.HoldID)
		if err != nil {
			return err
		}
		if hold.CandidateID != in.CandidateID {
			return domain.ErrNotOwner
		}
		return s.repo.DeleteHold(txCtx, in.HoldID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("hold canceled", zap.String("hold_id", in.HoldID), zap.String("candidate_id", in.CandidateID))
	return nil
}
