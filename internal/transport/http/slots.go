package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cimillas/interview-slots/internal/app"
	"github.com/cimillas/interview-slots/internal/domain"
)

// SlotPreviewer generates slots without storing them.
type SlotPreviewer interface {
	PreviewSlots(in app.PreviewSlotsInput) ([]domain.Slot, error)
}

// SlotStore persists the slot table of an interview.
type SlotStore interface {
	CreateSlots(ctx context.Context, in app.CreateSlotsInput) (app.CreateSlotsResult, error)
}

// AvailabilityLister reports live remaining capacity per slot.
type AvailabilityLister interface {
	ListSlotsWithAvailability(ctx context.Context, interviewID string) ([]domain.SlotAvailability, error)
}

// HandlePreviewSlots serves POST /slots/preview.
func HandlePreviewSlots(svc SlotPreviewer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req previewSlotsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		in, err := req.input()
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		slots, err := svc.PreviewSlots(in)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		resp := previewSlotsResponse{Slots: make([]slotPayload, 0, len(slots))}
		for _, slot := range slots {
			resp.Slots = append(resp.Slots, slotPayload{
				Start:    slot.Start,
				End:      slot.End,
				Capacity: slot.Capacity,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleInterviewSlots serves POST and GET /interviews/{id}/slots.
func HandleInterviewSlots(store SlotStore, lister AvailabilityLister, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		interviewID, ok := parseInterviewSlotsPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			slots, err := lister.ListSlotsWithAvailability(r.Context(), interviewID)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			resp := listSlotsResponse{Slots: make([]slotAvailabilityResponse, 0, len(slots))}
			for _, slot := range slots {
				resp.Slots = append(resp.Slots, slotAvailabilityResponse{
					SlotRecordID: slot.SlotRecordID,
					SlotIndex:    slot.SlotIndex,
					Start:        slot.Start,
					End:          slot.End,
					Capacity:     slot.Capacity,
					CapacityLeft: slot.CapacityLeft,
				})
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodPost:
			var req createSlotsRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			slots := make([]domain.Slot, 0, len(req.Slots))
			for _, s := range req.Slots {
				slots = append(slots, domain.Slot{Start: s.Start, End: s.End, Capacity: s.Capacity})
			}

			res, err := store.CreateSlots(r.Context(), app.CreateSlotsInput{
				InterviewID: interviewID,
				Slots:       slots,
			})
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			status := http.StatusOK
			if res.Created {
				status = http.StatusCreated
			}
			writeJSON(w, status, createSlotsResponse{
				Success:      true,
				ExpiresAt:    res.ExpiresAt,
				SlotRecordID: res.Record.ID,
				Created:      res.Created,
			})
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

type slotPayload struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Capacity int       `json:"capacity"`
}

type previewSlotsRequest struct {
	From            string   `json:"from"`
	To              string   `json:"to"`
	DayStart        string   `json:"day_start"`
	DayEnd          string   `json:"day_end"`
	Weekdays        []string `json:"weekdays"`
	DurationMinutes int      `json:"duration_minutes"`
	Capacity        int      `json:"capacity"`
	Timezone        string   `json:"timezone"`
}

func (r previewSlotsRequest) input() (app.PreviewSlotsInput, error) {
	from, err := app.ParseScheduleDay(r.From, r.Timezone)
	if err != nil {
		return app.PreviewSlotsInput{}, err
	}
	to, err := app.ParseScheduleDay(r.To, r.Timezone)
	if err != nil {
		return app.PreviewSlotsInput{}, err
	}
	return app.PreviewSlotsInput{
		From:            from,
		To:              to,
		DayStart:        r.DayStart,
		DayEnd:          r.DayEnd,
		Weekdays:        r.Weekdays,
		DurationMinutes: r.DurationMinutes,
		Capacity:        r.Capacity,
		Timezone:        r.Timezone,
	}, nil
}

type previewSlotsResponse struct {
	Slots []slotPayload `json:"slots"`
}

type createSlotsRequest struct {
	Slots []slotPayload `json:"slots"`
}

type createSlotsResponse struct {
	Success      bool      `json:"success"`
	ExpiresAt    time.Time `json:"expires_at"`
	SlotRecordID string    `json:"slot_record_id"`
	Created      bool      `json:"created"`
}

type slotAvailabilityResponse struct {
	SlotRecordID string    `json:"slot_record_id"`
	SlotIndex    int       `json:"slot_index"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Capacity     int       `json:"capacity"`
	CapacityLeft int       `json:"capacity_left"`
}

type listSlotsResponse struct {
	Slots []slotAvailabilityResponse `json:"slots"`
}

func parseInterviewSlotsPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "interviews" || parts[2] != "slots" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
