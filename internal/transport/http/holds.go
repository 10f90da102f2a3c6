package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cimillas/interview-slots/internal/app"
	"github.com/cimillas/interview-slots/internal/domain"
)

// HoldCreator is the minimal interface needed to create a hold.
type HoldCreator interface {
	CreateHold(ctx context.Context, in app.CreateHoldInput) (domain.Hold, error)
}

// HoldCanceler releases a hold before it expires.
type HoldCanceler interface {
	CancelHold(ctx context.Context, in app.CancelHoldInput) error
}

// HoldConfirmer turns a hold into a booking.
type HoldConfirmer interface {
	ConfirmHold(ctx context.Context, in app.ConfirmHoldInput) (app.ConfirmHoldResult, error)
}

// HandleCreateHold serves POST /holds.
func HandleCreateHold(svc HoldCreator, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createHoldRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, err.Error())
			return
		}

		hold, err := svc.CreateHold(r.Context(), app.CreateHoldInput{
			InterviewID:  req.InterviewID,
			CandidateID:  req.CandidateID,
			SlotRecordID: req.SlotRecordID,
			SlotIndex:    *req.SlotIndex,
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, createHoldResponse{
			HoldID:    hold.ID,
			ExpiresAt: hold.ExpiresAt,
			Start:     hold.Start,
			End:       hold.End,
		})
	}
}

// HandleHoldAction serves POST /holds/{id}/confirm and POST /holds/{id}/cancel.
func HandleHoldAction(confirmer HoldConfirmer, canceler HoldCanceler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		holdID, action, ok := parseHoldActionPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req holdActionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.CandidateID == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "candidate_id is required")
			return
		}

		switch action {
		case "confirm":
			res, err := confirmer.ConfirmHold(r.Context(), app.ConfirmHoldInput{
				HoldID:      holdID,
				CandidateID: req.CandidateID,
			})
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusCreated, confirmHoldResponse{
				Success:   true,
				BookingID: res.Booking.ID,
				Start:     res.Booking.Start,
				End:       res.Booking.End,
			})
		case "cancel":
			err := canceler.CancelHold(r.Context(), app.CancelHoldInput{
				HoldID:      holdID,
				CandidateID: req.CandidateID,
			})
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, successResponse{Success: true})
		}
	}
}

type createHoldRequest struct {
	InterviewID  string `json:"interview_id"`
	CandidateID  string `json:"candidate_id"`
	SlotRecordID string `json:"slot_record_id"`
	SlotIndex    *int   `json:"slot_index"`
}

func (r createHoldRequest) validate() error {
	if r.InterviewID == "" || r.CandidateID == "" || r.SlotRecordID == "" {
		return errors.New("interview_id, candidate_id and slot_record_id are required")
	}
	if r.SlotIndex == nil {
		return errors.New("slot_index is required")
	}
	return nil
}

type createHoldResponse struct {
	HoldID    string    `json:"hold_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type holdActionRequest struct {
	CandidateID string `json:"candidate_id"`
}

type confirmHoldResponse struct {
	Success   bool      `json:"success"`
	BookingID string    `json:"booking_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func parseHoldActionPath(path string) (string, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", "", false
	}
	if parts[0] != "holds" || parts[1] == "" {
		return "", "", false
	}
	switch parts[2] {
	case "confirm", "cancel":
		return parts[1], parts[2], true
	default:
		return "", "", false
	}
}
