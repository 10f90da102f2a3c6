package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cimillas/interview-slots/internal/domain"
)

// BookingLookup finds the confirmed booking of a candidate, if any.
type BookingLookup interface {
	GetBooking(ctx context.Context, interviewID, candidateID string) (*domain.Booking, error)
}

// HandleBookingStatus serves GET /bookings/status?interview_id=&candidate_id=.
func HandleBookingStatus(svc BookingLookup, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		q := r.URL.Query()
		interviewID := q.Get("interview_id")
		candidateID := q.Get("candidate_id")
		if interviewID == "" || candidateID == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "interview_id and candidate_id are required")
			return
		}

		booking, err := svc.GetBooking(r.Context(), interviewID, candidateID)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		resp := bookingStatusResponse{HasBooking: booking != nil}
		if booking != nil {
			resp.Booking = &bookingResponse{
				ID:           booking.ID,
				SlotRecordID: booking.SlotRecordID,
				SlotIndex:    booking.SlotIndex,
				Start:        booking.Start,
				End:          booking.End,
				Status:       string(booking.Status),
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type bookingStatusResponse struct {
	HasBooking bool             `json:"has_booking"`
	Booking    *bookingResponse `json:"booking,omitempty"`
}

type bookingResponse struct {
	ID           string    `json:"id"`
	SlotRecordID string    `json:"slot_record_id"`
	SlotIndex    int       `json:"slot_index"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Status       string    `json:"status"`
}
