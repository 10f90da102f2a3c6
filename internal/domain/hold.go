package domain

import "time"

type HoldState string

const (
	HoldStateActive    HoldState = "active"
	HoldStateConfirmed HoldState = "confirmed"
	HoldStateCanceled  HoldState = "canceled"
	HoldStateExpired   HoldState = "expired"
)

// Hold reserves one unit of a slot's capacity until ExpiresAt.
// Only active holds are stored; the other states end the row's life.
type Hold struct {
	ID           string
	InterviewID  string
	CandidateID  string
	SlotRecordID string
	SlotIndex    int
	Start        time.Time
	End          time.Time
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the hold no longer reserves capacity at now.
func (h Hold) Expired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}

// State infers the hold state for a stored row.
func (h Hold) State(now time.Time) HoldState {
	if h.Expired(now) {
		return HoldStateExpired
	}
	return HoldStateActive
}
