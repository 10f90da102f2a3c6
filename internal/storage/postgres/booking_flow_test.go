package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cimillas/interview-slots/internal/app"
	"github.com/cimillas/interview-slots/internal/clock"
	"github.com/cimillas/interview-slots/internal/domain"
	"github.com/cimillas/interview-slots/internal/storage/postgres"
	"github.com/cimillas/interview-slots/internal/testutil"
)

func TestCreateHold_ConcurrentAgainstPostgres(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	const (
		candidates = 12
		capacity   = 3
	)
	now := time.Now().UTC()
	interviewID := testutil.InsertInterview(t, ctx, pool, "Race", 30)
	recordID := testutil.InsertSlotRecord(t, ctx, pool, interviewID, []domain.Slot{
		{Start: now.Add(time.Hour), End: now.Add(95 * time.Minute), Capacity: capacity},
	})
	ids := make([]string, candidates)
	for i := range ids {
		ids[i] = testutil.InsertCandidate(t, ctx, pool, interviewID, fmt.Sprintf("c%d@example.com", i))
	}

	store := postgres.NewStore(pool)
	holds := app.NewHoldService(store, clock.NewFixed(now))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ok     int
		full   int
		others []error
	)
	for _, id := range ids {
		wg.Add(1)
		go func(candidateID string) {
			defer wg.Done()
			_, err := holds.CreateHold(ctx, app.CreateHoldInput{
				InterviewID:  interviewID,
				CandidateID:  candidateID,
				SlotRecordID: recordID,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrSlotFull):
				full++
			default:
				others = append(others, err)
			}
		}(id)
	}
	wg.Wait()

	if len(others) > 0 {
		t.Fatalf("unexpected errors: %v", others)
	}
	if ok != capacity || full != candidates-capacity {
		t.Fatalf("expected %d holds and %d slot_full, got %d and %d", capacity, candidates-capacity, ok, full)
	}
}

func TestConfirmHold_AgainstPostgres(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	now := time.Now().UTC()
	clk := clock.NewManual(now)
	interviewID := testutil.InsertInterview(t, ctx, pool, "Confirm", 30)
	recordID := testutil.InsertSlotRecord(t, ctx, pool, interviewID, []domain.Slot{
		{Start: now.Add(time.Hour), End: now.Add(95 * time.Minute), Capacity: 1},
	})
	a := testutil.InsertCandidate(t, ctx, pool, interviewID, "a@example.com")
	b := testutil.InsertCandidate(t, ctx, pool, interviewID, "b@example.com")

	store := postgres.NewStore(pool)
	holds := app.NewHoldService(store, clk)
	bookings := app.NewBookingService(store, clk)

	hold, err := holds.CreateHold(ctx, app.CreateHoldInput{InterviewID: interviewID, CandidateID: a, SlotRecordID: recordID})
	if err != nil {
		t.Fatalf("hold: %v", err)
	}

	res, err := bookings.ConfirmHold(ctx, app.ConfirmHoldInput{HoldID: hold.ID, CandidateID: a})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := store.GetHold(ctx, hold.ID); !errors.Is(err, domain.ErrHoldNotFound) {
		t.Fatalf("expected hold consumed, got %v", err)
	}
	has, err := bookings.HasBooking(ctx, interviewID, a)
	if err != nil || !has {
		t.Fatalf("expected booking for a, got %v %v", has, err)
	}

	if _, err := holds.CreateHold(ctx, app.CreateHoldInput{InterviewID: interviewID, CandidateID: b, SlotRecordID: recordID}); !errors.Is(err, domain.ErrSlotFull) {
		t.Fatalf("expected ErrSlotFull for b, got %v", err)
	}

	slots, err := app.NewAvailabilityService(store, clk).ListSlotsWithAvailability(ctx, interviewID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(slots) != 1 || slots[0].CapacityLeft != 0 {
		t.Fatalf("expected full slot, got %+v", slots)
	}
	if res.Booking.SlotRecordID != recordID {
		t.Fatalf("unexpected booking %+v", res.Booking)
	}
}
