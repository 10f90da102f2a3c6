// Package notify publishes booking events to RabbitMQ and consumes them.
package notify

import (
	"time"

	"github.com/cimillas/interview-slots/internal/domain"
)

const DefaultQueue = "booking.confirmed"

// BookingConfirmedEvent is the message body on the booking.confirmed queue.
type BookingConfirmedEvent struct {
	BookingID    string    `json:"booking_id"`
	InterviewID  string    `json:"interview_id"`
	CandidateID  string    `json:"candidate_id"`
	SlotRecordID string    `json:"slot_record_id"`
	SlotIndex    int       `json:"slot_index"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	ConfirmedAt  time.Time `json:"confirmed_at"`
}

func NewBookingConfirmedEvent(b domain.Booking) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		BookingID:    b.ID,
		InterviewID:  b.InterviewID,
		CandidateID:  b.CandidateID,
		SlotRecordID: b.SlotRecordID,
		SlotIndex:    b.SlotIndex,
		Start:        b.Start.UTC(),
		End:          b.End.UTC(),
		ConfirmedAt:  b.CreatedAt.UTC(),
	}
}
