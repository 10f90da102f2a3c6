package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cimillas/interview-slots/internal/clock"
	"github.com/cimillas/interview-slots/internal/domain"
	"github.com/cimillas/interview-slots/internal/timemath"
	"go.uber.org/zap"
)

type SlotRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetInterviewForUpdate(ctx context.Context, interviewID string) (domain.Interview, error)
	GetSlotRecordByInterview(ctx context.Context, interviewID string) (*domain.SlotRecord, error)
	CreateSlotRecord(ctx context.Context, record domain.SlotRecord) error
	ReplaceSlots(ctx context.Context, record domain.SlotRecord) error
	CountSlotRecordUsage(ctx context.Context, slotRecordID string, now time.Time) (int, error)
	SetInterviewExpiry(ctx context.Context, interviewID string, expiresAt time.Time) error
}

// SlotService generates and stores the slot table of an interview.
type SlotService struct {
	repo   SlotRepository
	clock  clock.Clock
	logger *zap.Logger
}

type SlotServiceOption func(*SlotService)

// WithSlotLogger sets the logger used for slot table changes.
func WithSlotLogger(logger *zap.Logger) SlotServiceOption {
	return func(s *SlotService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSlotService(repo SlotRepository, clk clock.Clock, opts ...SlotServiceOption) *SlotService {
	svc := &SlotService{
		repo:   repo,
		clock:  clk,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PreviewSlotsInput struct {
	From            time.Time
	To              time.Time
	DayStart        string
	DayEnd          string
	Weekdays        []string
	DurationMinutes int
	Capacity        int
	Timezone        string
}

// ParseScheduleDay reads a YYYY-MM-DD calendar day in timezone (UTC when empty).
func ParseScheduleDay(value, timezone string) (time.Time, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		if loc, err = time.LoadLocation(timezone); err != nil {
			return time.Time{}, fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidSchedule, timezone)
		}
	}
	day, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day %q must be YYYY-MM-DD", domain.ErrInvalidSchedule, value)
	}
	return day, nil
}

// PreviewSlots enumerates the slots a schedule would produce. It performs no I/O.
func (s *SlotService) PreviewSlots(in PreviewSlotsInput) ([]domain.Slot, error) {
	return PreviewSlots(in)
}

// PreviewSlots is the pure generator behind SlotService.PreviewSlots.
func PreviewSlots(in PreviewSlotsInput) ([]domain.Slot, error) {
	if in.DurationMinutes <= 0 || in.DurationMinutes > timemath.MaxDurationMinutes {
		return nil, domain.ErrInvalidDuration
	}
	if in.Capacity < 0 {
		return nil, domain.ErrInvalidSlot
	}
	dayStart, err := timemath.ParseTimeOfDay(in.DayStart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchedule, err)
	}
	dayEnd, err := timemath.ParseTimeOfDay(in.DayEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchedule, err)
	}
	weekdays, err := timemath.ParseWeekdays(in.Weekdays)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchedule, err)
	}
	loc := time.UTC
	if in.Timezone != "" {
		loc, err = time.LoadLocation(in.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidSchedule, in.Timezone)
		}
	}

	intervals, err := timemath.EnumerateSlots(timemath.Schedule{
		From:     in.From,
		To:       in.To,
		DayStart: dayStart,
		DayEnd:   dayEnd,
		Weekdays: weekdays,
		Step:     timemath.SlotDuration(in.DurationMinutes),
		Location: loc,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchedule, err)
	}

	capacity := in.Capacity
	if capacity == 0 {
		capacity = domain.DefaultSlotCapacity
	}
	slots := make([]domain.Slot, 0, len(intervals))
	for _, iv := range intervals {
		slots = append(slots, domain.Slot{
			Start:    iv.Start.UTC(),
			End:      iv.End.UTC(),
			Capacity: capacity,
		})
	}
	return slots, nil
}

type CreateSlotsInput struct {
	InterviewID string
	Slots       []domain.Slot
}

type CreateSlotsResult struct {
	Record    domain.SlotRecord
	ExpiresAt time.Time
	// Created is false when an identical record already existed.
	Created bool
}

// CreateSlots stores the slot table of an interview and moves the interview's
// expiry to the latest slot end. For chronological input, as PreviewSlots
// produces, that is the end of the last slot; out-of-order input still keeps
// the interview open until its final slot is over. Repeating the call with the
// same slots returns the stored record; different slots replace it while
// nothing holds or books against it.
func (s *SlotService) CreateSlots(ctx context.Context, in CreateSlotsInput) (CreateSlotsResult, error) {
	if in.InterviewID == "" {
		return CreateSlotsResult{}, domain.ErrInvalidID
	}
	slots, err := normalizeSlots(in.Slots)
	if err != nil {
		return CreateSlotsResult{}, err
	}
	expiresAt := lastEnd(slots)
	now := s.clock.Now()

	var result CreateSlotsResult
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetInterviewForUpdate(txCtx, in.InterviewID); err != nil {
			return err
		}

		existing, err := s.repo.GetSlotRecordByInterview(txCtx, in.InterviewID)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			record := domain.SlotRecord{
				ID:          newID(),
				InterviewID: in.InterviewID,
				Slots:       slots,
				Version:     1,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.repo.CreateSlotRecord(txCtx, record); err != nil {
				return err
			}
			result = CreateSlotsResult{Record: record, Created: true}
		case existing.SameSlots(slots):
			result = CreateSlotsResult{Record: *existing, Created: false}
		default:
			used, err := s.repo.CountSlotRecordUsage(txCtx, existing.ID, now)
			if err != nil {
				return err
			}
			if used > 0 {
				return domain.ErrSlotRecordInUse
			}
			record := *existing
			record.Slots = slots
			record.Version++
			record.UpdatedAt = now
			if err := s.repo.ReplaceSlots(txCtx, record); err != nil {
				return err
			}
			result = CreateSlotsResult{Record: record, Created: true}
		}

		if err := s.repo.SetInterviewExpiry(txCtx, in.InterviewID, expiresAt); err != nil {
			return err
		}
		result.ExpiresAt = expiresAt
		return nil
	})
	if err != nil {
		return CreateSlotsResult{}, err
	}

	s.logger.Info("slot table stored",
		zap.String("interview_id", in.InterviewID),
		zap.String("slot_record_id", result.Record.ID),
		zap.Int("slots", len(result.Record.Slots)),
		zap.Int("version", result.Record.Version),
		zap.Bool("created", result.Created),
	)
	return result, nil
}

func normalizeSlots(in []domain.Slot) ([]domain.Slot, error) {
	if len(in) == 0 {
		return nil, domain.ErrSlotsRequired
	}
	out := make([]domain.Slot, len(in))
	for i, slot := range in {
		if slot.Capacity == 0 {
			slot.Capacity = domain.DefaultSlotCapacity
		}
		slot.Start = slot.Start.UTC()
		slot.End = slot.End.UTC()
		if !slot.Valid() {
			return nil, fmt.Errorf("%w: index %d", domain.ErrInvalidSlot, i)
		}
		out[i] = slot
	}
	return out, nil
}

func lastEnd(slots []domain.Slot) time.Time {
	var end time.Time
	for _, slot := range slots {
		if slot.End.After(end) {
			end = slot.End
		}
	}
	return end
}
