package domain

import "time"

type BookingStatus string

const BookingStatusConfirmed BookingStatus = "confirmed"

// Booking is a confirmed reservation derived from a hold.
type Booking struct {
	ID           string
	InterviewID  string
	CandidateID  string
	SlotRecordID string
	SlotIndex    int
	Start        time.Time
	End          time.Time
	Status       BookingStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
