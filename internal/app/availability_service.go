package app

import (
	"context"
	"time"

	"github.com/cimillas/interview-slots/internal/clock"
	"github.com/cimillas/interview-slots/internal/domain"
)

type AvailabilityRepository interface {
	GetSlotRecordByInterview(ctx context.Context, interviewID string) (*domain.SlotRecord, error)
	CountActiveHoldsBySlot(ctx context.Context, slotRecordID string, now time.Time) (map[int]int, error)
	CountConfirmedBySlot(ctx context.Context, slotRecordID string) (map[int]int, error)
}

// AvailabilityService derives remaining capacity from live hold and booking rows.
// Reads take no locks; hold creation and confirmation re-check under lock.
type AvailabilityService struct {
	repo  AvailabilityRepository
	clock clock.Clock
}

func NewAvailabilityService(repo AvailabilityRepository, clk clock.Clock) *AvailabilityService {
	return &AvailabilityService{
		repo:  repo,
		clock: clk,
	}
}

func (s *AvailabilityService) ListSlotsWithAvailability(ctx context.Context, interviewID string) ([]domain.SlotAvailability, error) {
	if interviewID == "" {
		return nil, domain.ErrInvalidID
	}

	record, err := s.repo.GetSlotRecordByInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return []domain.SlotAvailability{}, nil
	}

	now := s.clock.Now()
	holds, err := s.repo.CountActiveHoldsBySlot(ctx, record.ID, now)
	if err != nil {
		return nil, err
	}
	confirmed, err := s.repo.CountConfirmedBySlot(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SlotAvailability, 0, len(record.Slots))
	for i, slot := range record.Slots {
		left := slot.Capacity - holds[i] - confirmed[i]
		if left < 0 {
			left = 0
		}
		out = append(out, domain.SlotAvailability{
			SlotRecordID: record.ID,
			SlotIndex:    i,
			Start:        slot.Start,
			End:          slot.End,
			Capacity:     slot.Capacity,
			CapacityLeft: left,
		})
	}
	return out, nil
}
