package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cimillas/interview-slots/internal/clock"
	"github.com/cimillas/interview-slots/internal/domain"
	"github.com/cimillas/interview-slots/internal/storage/memory"
)

var baseTime = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store      *memory.Store
	clock      *clock.Manual
	interview  domain.Interview
	record     domain.SlotRecord
	candidates []domain.Candidate
}

// newFixture creates an interview with one slot per capacity, starting a day
// after baseTime, and registers n candidates.
func newFixture(t *testing.T, n int, capacities ...int) *fixture {
	t.Helper()
	return buildFixture(t, memory.New(), clock.NewManual(baseTime), n, capacities)
}

// newFixtureIn adds a second interview to the store and clock of base.
func newFixtureIn(t *testing.T, store *memory.Store, base *fixture, n int, capacities ...int) *fixture {
	t.Helper()
	return buildFixture(t, store, base.clock, n, capacities)
}

func buildFixture(t *testing.T, store *memory.Store, clk *clock.Manual, n int, capacities []int) *fixture {
	t.Helper()

	ctx := context.Background()

	interviews := NewInterviewService(store, clk)
	interview, err := interviews.CreateInterview(ctx, CreateInterviewInput{Title: "Platform engineer", DurationMinutes: 30})
	if err != nil {
		t.Fatalf("create interview: %v", err)
	}

	f := &fixture{store: store, clock: clk}
	for i := 0; i < n; i++ {
		c, err := interviews.RegisterCandidate(ctx, RegisterCandidateInput{
			InterviewID: interview.ID,
			Email:       fmt.Sprintf("cand%d@example.com", i),
			Name:        fmt.Sprintf("Candidate %d", i),
		})
		if err != nil {
			t.Fatalf("register candidate: %v", err)
		}
		f.candidates = append(f.candidates, c)
	}

	if len(capacities) > 0 {
		slots := make([]domain.Slot, 0, len(capacities))
		for i, c := range capacities {
			start := baseTime.Add(24*time.Hour + time.Duration(i)*35*time.Minute)
			slots = append(slots, domain.Slot{Start: start, End: start.Add(35 * time.Minute), Capacity: c})
		}
		res, err := NewSlotService(store, clk).CreateSlots(ctx, CreateSlotsInput{InterviewID: interview.ID, Slots: slots})
		if err != nil {
			t.Fatalf("create slots: %v", err)
		}
		f.record = res.Record
	}

	f.interview, err = store.GetInterview(ctx, interview.ID)
	if err != nil {
		t.Fatalf("reload interview: %v", err)
	}
	return f
}

func (f *fixture) holdInput(candidate, slotIndex int) CreateHoldInput {
	return CreateHoldInput{
		InterviewID:  f.interview.ID,
		CandidateID:  f.candidates[candidate].ID,
		SlotRecordID: f.record.ID,
		SlotIndex:    slotIndex,
	}
}

func (f *fixture) capacityLeft(t *testing.T, slotIndex int) int {
	t.Helper()

	slots, err := NewAvailabilityService(f.store, f.clock).ListSlotsWithAvailability(context.Background(), f.interview.ID)
	if err != nil {
		t.Fatalf("list availability: %v", err)
	}
	return slots[slotIndex].CapacityLeft
}

type fakeLocker struct {
	err      error
	keys     []string
	released int
}

func (l *fakeLocker) Lock(_ context.Context, key string) (func(), error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.released++ }, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	err      error
	bookings []domain.Booking
}

func (n *fakeNotifier) BookingConfirmed(_ context.Context, booking domain.Booking) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, booking)
	return n.err
}

func (n *fakeNotifier) sent() []domain.Booking {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Booking(nil), n.bookings...)
}

// blockingNotifier holds every call until release is closed.
type blockingNotifier struct {
	release chan struct{}
	calls   chan domain.Booking
}

func newBlockingNotifier() *blockingNotifier {
	return &blockingNotifier{release: make(chan struct{}), calls: make(chan domain.Booking, 16)}
}

func (n *blockingNotifier) BookingConfirmed(_ context.Context, booking domain.Booking) error {
	n.calls <- booking
	<-n.release
	return nil
}
