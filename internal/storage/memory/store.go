// Package memory is a process-local implementation of every repository the
// app layer needs. WithTx serializes callers on one mutex and rolls state back
// when fn fails, which gives the same all-or-nothing behavior as the Postgres
// store for a single instance.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cimillas/interview-slots/internal/domain"
)

type Store struct {
	mu sync.Mutex

	interviews  map[string]domain.Interview
	candidates  map[string]domain.Candidate
	slotRecords map[string]domain.SlotRecord
	holds       map[string]domain.Hold
	bookings    map[string]domain.Booking
}

func New() *Store {
	return &Store{
		interviews:  make(map[string]domain.Interview),
		candidates:  make(map[string]domain.Candidate),
		slotRecords: make(map[string]domain.SlotRecord),
		holds:       make(map[string]domain.Hold),
		bookings:    make(map[string]domain.Booking),
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store mutex unless ctx already runs inside one of this
// store's transactions.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	interviews  map[string]domain.Interview
	candidates  map[string]domain.Candidate
	slotRecords map[string]domain.SlotRecord
	holds       map[string]domain.Hold
	bookings    map[string]domain.Booking
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		interviews:  cloneMap(s.interviews),
		candidates:  cloneMap(s.candidates),
		slotRecords: cloneMap(s.slotRecords),
		holds:       cloneMap(s.holds),
		bookings:    cloneMap(s.bookings),
	}
}

func (s *Store) restore(snap snapshot) {
	s.interviews = snap.interviews
	s.candidates = snap.candidates
	s.slotRecords = snap.slotRecords
	s.holds = snap.holds
	s.bookings = snap.bookings
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Interviews and candidates.

func (s *Store) CreateInterview(ctx context.Context, interview domain.Interview) error {
	defer s.lock(ctx)()
	if interview.ID == "" {
		return domain.ErrInvalidID
	}
	s.interviews[interview.ID] = interview
	return nil
}

func (s *Store) GetInterview(ctx context.Context, interviewID string) (domain.Interview, error) {
	defer s.lock(ctx)()
	interview, ok := s.interviews[interviewID]
	if !ok {
		return domain.Interview{}, domain.ErrInterviewNotFound
	}
	return interview, nil
}

func (s *Store) GetInterviewForUpdate(ctx context.Context, interviewID string) (domain.Interview, error) {
	return s.GetInterview(ctx, interviewID)
}

func (s *Store) SetInterviewExpiry(ctx context.Context, interviewID string, expiresAt time.Time) error {
	defer s.lock(ctx)()
	interview, ok := s.interviews[interviewID]
	if !ok {
		return domain.ErrInterviewNotFound
	}
	t := expiresAt.UTC()
	interview.ExpiresAt = &t
	s.interviews[interviewID] = interview
	return nil
}

func (s *Store) CreateCandidate(ctx context.Context, candidate domain.Candidate) error {
	defer s.lock(ctx)()
	if _, ok := s.interviews[candidate.InterviewID]; !ok {
		return domain.ErrInterviewNotFound
	}
	for _, c := range s.candidates {
		if c.InterviewID == candidate.InterviewID && c.Email == candidate.Email {
			return domain.ErrCandidateExists
		}
	}
	s.candidates[candidate.ID] = candidate
	return nil
}

func (s *Store) GetCandidate(ctx context.Context, candidateID string) (domain.Candidate, error) {
	defer s.lock(ctx)()
	candidate, ok := s.candidates[candidateID]
	if !ok {
		return domain.Candidate{}, domain.ErrCandidateNotFound
	}
	return candidate, nil
}

// Slot records.

func (s *Store) GetSlotRecordByInterview(ctx context.Context, interviewID string) (*domain.SlotRecord, error) {
	defer s.lock(ctx)()
	for _, rec := range s.slotRecords {
		if rec.InterviewID == interviewID {
			out := cloneRecord(rec)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) GetSlotRecordForUpdate(ctx context.Context, slotRecordID string) (domain.SlotRecord, error) {
	defer s.lock(ctx)()
	rec, ok := s.slotRecords[slotRecordID]
	if !ok {
		return domain.SlotRecord{}, domain.ErrSlotRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (s *Store) CreateSlotRecord(ctx context.Context, record domain.SlotRecord) error {
	defer s.lock(ctx)()
	if _, ok := s.interviews[record.InterviewID]; !ok {
		return domain.ErrInterviewNotFound
	}
	for _, rec := range s.slotRecords {
		if rec.InterviewID == record.InterviewID {
			return domain.ErrSlotRecordInUse
		}
	}
	s.slotRecords[record.ID] = cloneRecord(record)
	return nil
}

func (s *Store) ReplaceSlots(ctx context.Context, record domain.SlotRecord) error {
	defer s.lock(ctx)()
	if _, ok := s.slotRecords[record.ID]; !ok {
		return domain.ErrSlotRecordNotFound
	}
	s.slotRecords[record.ID] = cloneRecord(record)
	return nil
}

func (s *Store) CountSlotRecordUsage(ctx context.Context, slotRecordID string, now time.Time) (int, error) {
	defer s.lock(ctx)()
	n := 0
	for _, h := range s.holds {
		if h.SlotRecordID == slotRecordID && !h.Expired(now) {
			n++
		}
	}
	for _, b := range s.bookings {
		if b.SlotRecordID == slotRecordID {
			n++
		}
	}
	return n, nil
}

func cloneRecord(rec domain.SlotRecord) domain.SlotRecord {
	rec.Slots = append([]domain.Slot(nil), rec.Slots...)
	return rec
}

// Capacity counts.

func (s *Store) CountActiveHoldsBySlot(ctx context.Context, slotRecordID string, now time.Time) (map[int]int, error) {
	defer s.lock(ctx)()
	out := make(map[int]int)
	for _, h := range s.holds {
		if h.SlotRecordID == slotRecordID && !h.Expired(now) {
			out[h.SlotIndex]++
		}
	}
	return out, nil
}

func (s *Store) CountConfirmedBySlot(ctx context.Context, slotRecordID string) (map[int]int, error) {
	defer s.lock(ctx)()
	out := make(map[int]int)
	for _, b := range s.bookings {
		if b.SlotRecordID == slotRecordID {
			out[b.SlotIndex]++
		}
	}
	return out, nil
}

func (s *Store) CountActiveHolds(ctx context.Context, slotRecordID string, slotIndex int, now time.Time, excludeHoldID string) (int, error) {
	defer s.lock(ctx)()
	n := 0
	for _, h := range s.holds {
		if h.SlotRecordID != slotRecordID || h.SlotIndex != slotIndex {
			continue
		}
		if h.ID == excludeHoldID || h.Expired(now) {
			continue
		}
		n++
	}
	return n, nil
}

func (s *Store) CountConfirmed(ctx context.Context, slotRecordID string, slotIndex int) (int, error) {
	defer s.lock(ctx)()
	n := 0
	for _, b := range s.bookings {
		if b.SlotRecordID == slotRecordID && b.SlotIndex == slotIndex {
			n++
		}
	}
	return n, nil
}

// Holds.

func (s *Store) CreateHold(ctx context.Context, hold domain.Hold) error {
	defer s.lock(ctx)()
	for _, h := range s.holds {
		if h.InterviewID == hold.InterviewID && h.CandidateID == hold.CandidateID {
			return domain.ErrHoldExists
		}
	}
	s.holds[hold.ID] = hold
	return nil
}

func (s *Store) GetHold(ctx context.Context, holdID string) (domain.Hold, error) {
	defer s.lock(ctx)()
	hold, ok := s.holds[holdID]
	if !ok {
		return domain.Hold{}, domain.ErrHoldNotFound
	}
	return hold, nil
}

func (s *Store) GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error) {
	return s.GetHold(ctx, holdID)
}

func (s *Store) FindActiveHold(ctx context.Context, interviewID, candidateID string, now time.Time) (*domain.Hold, error) {
	defer s.lock(ctx)()
	for _, h := range s.holds {
		if h.InterviewID == interviewID && h.CandidateID == candidateID && !h.Expired(now) {
			out := h
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) DeleteHold(ctx context.Context, holdID string) error {
	defer s.lock(ctx)()
	if _, ok := s.holds[holdID]; !ok {
		return domain.ErrHoldNotFound
	}
	delete(s.holds, holdID)
	return nil
}

func (s *Store) DeleteExpiredHolds(ctx context.Context, interviewID string, now time.Time) (int, error) {
	defer s.lock(ctx)()
	n := 0
	for id, h := range s.holds {
		if h.InterviewID == interviewID && h.Expired(now) {
			delete(s.holds, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteAllExpiredHolds(ctx context.Context, now time.Time) (int, error) {
	defer s.lock(ctx)()
	n := 0
	for id, h := range s.holds {
		if h.Expired(now) {
			delete(s.holds, id)
			n++
		}
	}
	return n, nil
}

// ListHolds returns the stored holds ordered by creation time.
func (s *Store) ListHolds(ctx context.Context) []domain.Hold {
	defer s.lock(ctx)()
	out := make([]domain.Hold, 0, len(s.holds))
	for _, h := range s.holds {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Bookings.

func (s *Store) CreateBooking(ctx context.Context, booking domain.Booking) error {
	defer s.lock(ctx)()
	for _, b := range s.bookings {
		if b.InterviewID == booking.InterviewID && b.CandidateID == booking.CandidateID {
			return domain.ErrAlreadyBooked
		}
	}
	s.bookings[booking.ID] = booking
	return nil
}

func (s *Store) HasConfirmedBooking(ctx context.Context, interviewID, candidateID string) (bool, error) {
	defer s.lock(ctx)()
	for _, b := range s.bookings {
		if b.InterviewID == interviewID && b.CandidateID == candidateID && b.Status == domain.BookingStatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetBookingByCandidate(ctx context.Context, interviewID, candidateID string) (*domain.Booking, error) {
	defer s.lock(ctx)()
	for _, b := range s.bookings {
		if b.InterviewID == interviewID && b.CandidateID == candidateID {
			out := b
			return &out, nil
		}
	}
	return nil, nil
}

// ListBookings returns the stored bookings ordered by creation time.
func (s *Store) ListBookings(ctx context.Context) []domain.Booking {
	defer s.lock(ctx)()
	out := make([]domain.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
