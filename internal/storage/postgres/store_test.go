package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cimillas/interview-slots/internal/domain"
	"github.com/cimillas/interview-slots/internal/testutil"
	"github.com/google/uuid"
)

func TestStore(t *testing.T) {
	pool := testutil.NewTestPool(t)
	store := NewStore(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	slots := []domain.Slot{
		{Start: now.Add(time.Hour), End: now.Add(95 * time.Minute), Capacity: 2},
		{Start: now.Add(95 * time.Minute), End: now.Add(130 * time.Minute), Capacity: 1},
	}

	t.Run("interviews and candidates", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		iv := domain.Interview{ID: uuid.NewString(), Title: "Backend", DurationMinutes: 30, CreatedAt: now}
		if err := store.CreateInterview(ctx, iv); err != nil {
			t.Fatalf("create interview: %v", err)
		}
		got, err := store.GetInterview(ctx, iv.ID)
		if err != nil {
			t.Fatalf("get interview: %v", err)
		}
		if got.Title != "Backend" || got.ExpiresAt != nil {
			t.Fatalf("unexpected interview: %+v", got)
		}

		expires := now.Add(2 * time.Hour)
		if err := store.SetInterviewExpiry(ctx, iv.ID, expires); err != nil {
			t.Fatalf("set expiry: %v", err)
		}
		got, _ = store.GetInterview(ctx, iv.ID)
		if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
			t.Fatalf("expected expiry %v, got %v", expires, got.ExpiresAt)
		}

		c := domain.Candidate{ID: uuid.NewString(), InterviewID: iv.ID, Email: "a@example.com", Name: "A", CreatedAt: now}
		if err := store.CreateCandidate(ctx, c); err != nil {
			t.Fatalf("create candidate: %v", err)
		}
		dup := c
		dup.ID = uuid.NewString()
		if err := store.CreateCandidate(ctx, dup); !errors.Is(err, domain.ErrCandidateExists) {
			t.Fatalf("expected ErrCandidateExists, got %v", err)
		}
		orphan := c
		orphan.ID = uuid.NewString()
		orphan.InterviewID = uuid.NewString()
		if err := store.CreateCandidate(ctx, orphan); !errors.Is(err, domain.ErrInterviewNotFound) {
			t.Fatalf("expected ErrInterviewNotFound, got %v", err)
		}

		if _, err := store.GetCandidate(ctx, uuid.NewString()); !errors.Is(err, domain.ErrCandidateNotFound) {
			t.Fatalf("expected ErrCandidateNotFound, got %v", err)
		}
		if _, err := store.GetInterview(ctx, "not-a-uuid"); !errors.Is(err, domain.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
		if err := store.SetInterviewExpiry(ctx, uuid.NewString(), expires); !errors.Is(err, domain.ErrInterviewNotFound) {
			t.Fatalf("expected ErrInterviewNotFound, got %v", err)
		}
	})

	t.Run("slot records round trip", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		interviewID := testutil.InsertInterview(t, ctx, pool, "Backend", 30)

		rec, err := store.GetSlotRecordByInterview(ctx, interviewID)
		if err != nil || rec != nil {
			t.Fatalf("expected no record, got %+v %v", rec, err)
		}

		record := domain.SlotRecord{ID: uuid.NewString(), InterviewID: interviewID, Slots: slots, Version: 1, CreatedAt: now, UpdatedAt: now}
		if err := store.CreateSlotRecord(ctx, record); err != nil {
			t.Fatalf("create slot record: %v", err)
		}
		second := record
		second.ID = uuid.NewString()
		if err := store.CreateSlotRecord(ctx, second); !errors.Is(err, domain.ErrSlotRecordInUse) {
			t.Fatalf("expected ErrSlotRecordInUse, got %v", err)
		}

		err = store.WithTx(ctx, func(txCtx context.Context) error {
			locked, err := store.GetSlotRecordForUpdate(txCtx, record.ID)
			if err != nil {
				return err
			}
			if !locked.SameSlots(slots) {
				t.Fatalf("slots did not round trip: %+v", locked.Slots)
			}
			locked.Slots = slots[:1]
			locked.Version = 2
			return store.ReplaceSlots(txCtx, locked)
		})
		if err != nil {
			t.Fatalf("replace in tx: %v", err)
		}

		rec, err = store.GetSlotRecordByInterview(ctx, interviewID)
		if err != nil {
			t.Fatalf("get by interview: %v", err)
		}
		if rec.Version != 2 || len(rec.Slots) != 1 {
			t.Fatalf("expected v2 with 1 slot, got %+v", rec)
		}
		if _, err := store.GetSlotRecordForUpdate(ctx, uuid.NewString()); !errors.Is(err, domain.ErrSlotRecordNotFound) {
			t.Fatalf("expected ErrSlotRecordNotFound, got %v", err)
		}
	})

	t.Run("holds and counts", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		interviewID := testutil.InsertInterview(t, ctx, pool, "Backend", 30)
		recordID := testutil.InsertSlotRecord(t, ctx, pool, interviewID, slots)
		a := testutil.InsertCandidate(t, ctx, pool, interviewID, "a@example.com")
		b := testutil.InsertCandidate(t, ctx, pool, interviewID, "b@example.com")
		c := testutil.InsertCandidate(t, ctx, pool, interviewID, "c@example.com")

		live := domain.Hold{
			ID: uuid.NewString(), InterviewID: interviewID, CandidateID: a, SlotRecordID: recordID,
			SlotIndex: 0, Start: slots[0].Start, End: slots[0].End, ExpiresAt: now.Add(time.Minute), CreatedAt: now,
		}
		if err := store.CreateHold(ctx, live); err != nil {
			t.Fatalf("create hold: %v", err)
		}
		dup := live
		dup.ID = uuid.NewString()
		dup.SlotIndex = 1
		if err := store.CreateHold(ctx, dup); !errors.Is(err, domain.ErrHoldExists) {
			t.Fatalf("expected ErrHoldExists, got %v", err)
		}
		expired := testutil.InsertHold(t, ctx, pool, domain.Hold{
			InterviewID: interviewID, CandidateID: b, SlotRecordID: recordID, SlotIndex: 0,
			Start: slots[0].Start, End: slots[0].End, ExpiresAt: now,
		})

		n, err := store.CountActiveHolds(ctx, recordID, 0, now, "")
		if err != nil || n != 1 {
			t.Fatalf("expected 1 active hold, got %d %v", n, err)
		}
		n, _ = store.CountActiveHolds(ctx, recordID, 0, now, live.ID)
		if n != 0 {
			t.Fatalf("expected excluded hold not counted, got %d", n)
		}
		bySlot, err := store.CountActiveHoldsBySlot(ctx, recordID, now)
		if err != nil || bySlot[0] != 1 || bySlot[1] != 0 {
			t.Fatalf("unexpected per-slot holds %v %v", bySlot, err)
		}

		found, err := store.FindActiveHold(ctx, interviewID, a, now)
		if err != nil || found == nil || found.ID != live.ID {
			t.Fatalf("expected active hold, got %+v %v", found, err)
		}
		found, _ = store.FindActiveHold(ctx, interviewID, b, now)
		if found != nil {
			t.Fatalf("expired hold must not be active: %+v", found)
		}

		booking := domain.Booking{
			ID: uuid.NewString(), InterviewID: interviewID, CandidateID: c, SlotRecordID: recordID, SlotIndex: 0,
			Start: slots[0].Start, End: slots[0].End, Status: domain.BookingStatusConfirmed, CreatedAt: now, UpdatedAt: now,
		}
		if err := store.CreateBooking(ctx, booking); err != nil {
			t.Fatalf("create booking: %v", err)
		}
		again := booking
		again.ID = uuid.NewString()
		if err := store.CreateBooking(ctx, again); !errors.Is(err, domain.ErrAlreadyBooked) {
			t.Fatalf("expected ErrAlreadyBooked, got %v", err)
		}
		confirmed, _ := store.CountConfirmed(ctx, recordID, 0)
		if confirmed != 1 {
			t.Fatalf("expected 1 confirmed, got %d", confirmed)
		}
		byConfirmed, _ := store.CountConfirmedBySlot(ctx, recordID)
		if byConfirmed[0] != 1 {
			t.Fatalf("expected 1 confirmed in slot 0, got %v", byConfirmed)
		}
		usage, _ := store.CountSlotRecordUsage(ctx, recordID, now)
		if usage != 2 {
			t.Fatalf("expected usage 2, got %d", usage)
		}
		has, _ := store.HasConfirmedBooking(ctx, interviewID, c)
		if !has {
			t.Fatalf("expected confirmed booking")
		}
		got, err := store.GetBookingByCandidate(ctx, interviewID, c)
		if err != nil || got == nil || got.Status != domain.BookingStatusConfirmed {
			t.Fatalf("unexpected booking %+v %v", got, err)
		}

		swept, err := store.DeleteExpiredHolds(ctx, interviewID, now)
		if err != nil || swept != 1 {
			t.Fatalf("expected 1 swept, got %d %v", swept, err)
		}
		if _, err := store.GetHold(ctx, expired); !errors.Is(err, domain.ErrHoldNotFound) {
			t.Fatalf("expected expired hold gone, got %v", err)
		}

		if err := store.DeleteHold(ctx, live.ID); err != nil {
			t.Fatalf("delete hold: %v", err)
		}
		if err := store.DeleteHold(ctx, live.ID); !errors.Is(err, domain.ErrHoldNotFound) {
			t.Fatalf("expected ErrHoldNotFound, got %v", err)
		}
	})

	t.Run("DeleteAllExpiredHolds spans interviews", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		for _, title := range []string{"One", "Two"} {
			interviewID := testutil.InsertInterview(t, ctx, pool, title, 30)
			recordID := testutil.InsertSlotRecord(t, ctx, pool, interviewID, slots)
			cand := testutil.InsertCandidate(t, ctx, pool, interviewID, "x@example.com")
			testutil.InsertHold(t, ctx, pool, domain.Hold{
				InterviewID: interviewID, CandidateID: cand, SlotRecordID: recordID,
				Start: slots[0].Start, End: slots[0].End, ExpiresAt: now.Add(-time.Second),
			})
		}

		n, err := store.DeleteAllExpiredHolds(ctx, now)
		if err != nil || n != 2 {
			t.Fatalf("expected 2 swept, got %d %v", n, err)
		}
	})

	t.Run("WithTx rolls back on error", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		boom := errors.New("boom")

		id := uuid.NewString()
		err := store.WithTx(ctx, func(txCtx context.Context) error {
			if err := store.CreateInterview(txCtx, domain.Interview{ID: id, Title: "Tx", DurationMinutes: 15, CreatedAt: now}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if _, err := store.GetInterview(ctx, id); !errors.Is(err, domain.ErrInterviewNotFound) {
			t.Fatalf("expected rollback, got %v", err)
		}
	})
}
