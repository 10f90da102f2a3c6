package domain

import "time"

// Interview is the recruiter-owned aggregate that slots, holds and bookings hang off.
type Interview struct {
	ID              string
	Title           string
	DurationMinutes int
	// ExpiresAt is the latest slot end; nil until slots exist.
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// LinkExpired reports whether the booking link stopped accepting holds at now.
func (i Interview) LinkExpired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// Candidate is an identity scoped to a single interview.
type Candidate struct {
	ID          string
	InterviewID string
	Email       string
	Name        string
	CreatedAt   time.Time
}
