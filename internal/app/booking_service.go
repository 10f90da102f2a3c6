package app

import (
	"context"
	"sync"
	"time"

	"github.com/cimillas/interview-slots/internal/clock"
	"github.com/cimillas/interview-slots/internal/domain"
	"go.uber.org/zap"
)

type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetHold(ctx context.Context, holdID string) (domain.Hold, error)
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error)
	GetSlotRecordForUpdate(ctx context.Context, slotRecordID string) (domain.SlotRecord, error)
	HasConfirmedBooking(ctx context.Context, interviewID, candidateID string) (bool, error)
	CountActiveHolds(ctx context.Context, slotRecordID string, slotIndex int, now time.Time, excludeHoldID string) (int, error)
	CountConfirmed(ctx context.Context, slotRecordID string, slotIndex int) (int, error)
	CreateBooking(ctx context.Context, booking domain.Booking) error
	DeleteHold(ctx context.Context, holdID string) error
	GetBookingByCandidate(ctx context.Context, interviewID, candidateID string) (*domain.Booking, error)
}

// BookingNotifier is told about bookings after they commit. Failures never
// roll a booking back.
type BookingNotifier interface {
	BookingConfirmed(ctx context.Context, booking domain.Booking) error
}

type BookingService struct {
	repo          BookingRepository
	clock         clock.Clock
	locker        SlotLocker
	notifier      BookingNotifier
	notifyTimeout time.Duration
	notifySlots   chan struct{}
	notifyWG      sync.WaitGroup
	logger        *zap.Logger
}

const defaultNotifyLimit = 32

type BookingServiceOption func(*BookingService)

func WithBookingLocker(locker SlotLocker) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
	}
}

// WithBookingNotifier publishes confirmed bookings in the background.
func WithBookingNotifier(n BookingNotifier) BookingServiceOption {
	return func(s *BookingService) {
		s.notifier = n
	}
}

// WithNotifyLimit caps in-flight notifications. Bookings confirmed while the
// cap is reached are logged and not announced.
func WithNotifyLimit(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.notifySlots = make(chan struct{}, n)
		}
	}
}

func WithBookingLogger(logger *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewBookingService(repo BookingRepository, clk clock.Clock, opts ...BookingServiceOption) *BookingService {
	svc := &BookingService{
		repo:          repo,
		clock:         clk,
		notifyTimeout: 5 * time.Second,
		notifySlots:   make(chan struct{}, defaultNotifyLimit),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ConfirmHoldInput struct {
	HoldID      string
	CandidateID string
}

type ConfirmHoldResult struct {
	Booking domain.Booking
}

// ConfirmHold turns an active hold into a booking. The hold row is consumed
// in the same transaction, so a hold confirms at most once.
func (s *BookingService) ConfirmHold(ctx context.Context, in ConfirmHoldInput) (ConfirmHoldResult, error) {
	if in.HoldID == "" || in.CandidateID == "" {
		return ConfirmHoldResult{}, domain.ErrInvalidID
	}

	hold, err := s.repo.GetHold(ctx, in.HoldID)
	if err != nil {
		return ConfirmHoldResult{}, err
	}
	if hold.Expired(s.clock.Now()) {
		return ConfirmHoldResult{}, domain.ErrHoldExpired
	}
	if hold.CandidateID != in.CandidateID {
		return ConfirmHoldResult{}, domain.ErrNotHoldOwner
	}

	unlock, err := acquireSlot(ctx, s.locker, s.logger, hold.SlotRecordID, hold.SlotIndex)
	if err != nil {
		return ConfirmHoldResult{}, err
	}
	defer unlock()

	now := s.clock.Now()
	var booking domain.Booking

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		record, err := s.repo.GetSlotRecordForUpdate(txCtx, hold.SlotRecordID)
		if err != nil {
			return err
		}

		// Re-read under lock; a concurrent confirm or cancel may have consumed it.
		locked, err := s.repo.GetHoldForUpdate(txCtx, in.HoldID)
		if err != nil {
			return err
		}
		if locked.Expired(now) {
			return domain.ErrHoldExpired
		}
		if locked.CandidateID != in.CandidateID {
			return domain.ErrNotHoldOwner
		}

		slot, ok := record.Slot(locked.SlotIndex)
		if !ok {
			return domain.ErrInvalidSlotIndex
		}

		booked, err := s.repo.HasConfirmedBooking(txCtx, locked.InterviewID, locked.CandidateID)
		if err != nil {
			return err
		}
		if booked {
			return domain.ErrAlreadyBooked
		}

		held, err := s.repo.CountActiveHolds(txCtx, record.ID, locked.SlotIndex, now, locked.ID)
		if err != nil {
			return err
		}
		confirmed, err := s.repo.CountConfirmed(txCtx, record.ID, locked.SlotIndex)
		if err != nil {
			return err
		}
		if held+confirmed >= slot.Capacity {
			return domain.ErrSlotFull
		}

		booking = domain.Booking{
			ID:           newID(),
			InterviewID:  locked.InterviewID,
			CandidateID:  locked.CandidateID,
			SlotRecordID: locked.SlotRecordID,
			SlotIndex:    locked.SlotIndex,
			Start:        locked.Start,
			End:          locked.End,
			Status:       domain.BookingStatusConfirmed,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repo.CreateBooking(txCtx, booking); err != nil {
			return err
		}
		return s.repo.DeleteHold(txCtx, locked.ID)
	})
	if err != nil {
		return ConfirmHoldResult{}, err
	}

	s.logger.Info("booking confirmed",
		zap.String("booking_id", booking.ID),
		zap.String("interview_id", booking.InterviewID),
		zap.String("candidate_id", booking.CandidateID),
		zap.Int("slot_index", booking.SlotIndex),
	)
	s.notify(ctx, booking)

	return ConfirmHoldResult{Booking: booking}, nil
}

func (s *BookingService) notify(ctx context.Context, booking domain.Booking) {
	if s.notifier == nil {
		return
	}
	select {
	case s.notifySlots <- struct{}{}:
	default:
		s.logger.Warn("booking notification dropped", zap.String("booking_id", booking.ID))
		return
	}

	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		defer func() { <-s.notifySlots }()

		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.BookingConfirmed(notifyCtx, booking); err != nil {
			s.logger.Warn("booking notification failed", zap.String("booking_id", booking.ID), zap.Error(err))
		}
	}()
}

// WaitNotifications blocks until in-flight notifications finish or ctx ends.
func (s *BookingService) WaitNotifications(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.notifyWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasBooking reports whether the candidate holds a confirmed booking.
func (s *BookingService) HasBooking(ctx context.Context, interviewID, candidateID string) (bool, error) {
	if interviewID == "" || candidateID == "" {
		return false, domain.ErrInvalidID
	}
	return s.repo.HasConfirmedBooking(ctx, interviewID, candidateID)
}

// GetBooking returns the candidate's booking, or nil when there is none.
func (s *BookingService) GetBooking(ctx context.Context, interviewID, candidateID string) (*domain.Booking, error) {
	if interviewID == "" || candidateID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.GetBookingByCandidate(ctx, interviewID, candidateID)
}
