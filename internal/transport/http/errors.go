package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cimillas/interview-slots/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeForbidden            = "forbidden"
	codeTooManyRequests      = "too_many_requests"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

type domainError struct {
	err    error
	status int
	code   string
}

// domainErrors is matched in order with errors.Is.
var domainErrors = []domainError{
	{domain.ErrInvalidID, http.StatusBadRequest, "invalid_id"},
	{domain.ErrInvalidTitle, http.StatusBadRequest, "invalid_title"},
	{domain.ErrInvalidDuration, http.StatusBadRequest, "invalid_duration"},
	{domain.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{domain.ErrSlotsRequired, http.StatusBadRequest, "slots_required"},
	{domain.ErrInvalidSlot, http.StatusBadRequest, "invalid_slot"},
	{domain.ErrInvalidSchedule, http.StatusBadRequest, "invalid_schedule"},
	{domain.ErrInvalidSlotIndex, http.StatusBadRequest, "invalid_slot_index"},

	{domain.ErrInvalidCandidate, http.StatusForbidden, "invalid_candidate"},
	{domain.ErrNotHoldOwner, http.StatusForbidden, "not_hold_owner"},
	{domain.ErrNotOwner, http.StatusForbidden, "not_owner"},

	{domain.ErrInterviewNotFound, http.StatusNotFound, "interview_not_found"},
	{domain.ErrCandidateNotFound, http.StatusNotFound, "candidate_not_found"},
	{domain.ErrSlotRecordNotFound, http.StatusNotFound, "slot_record_not_found"},
	{domain.ErrHoldNotFound, http.StatusNotFound, "hold_not_found"},

	{domain.ErrAlreadyBooked, http.StatusConflict, "already_booked"},
	{domain.ErrSlotFull, http.StatusConflict, "slot_full"},
	{domain.ErrHoldExists, http.StatusConflict, "hold_exists"},
	{domain.ErrSlotRecordInUse, http.StatusConflict, "slot_record_in_use"},
	{domain.ErrCandidateExists, http.StatusConflict, "candidate_exists"},

	{domain.ErrHoldExpired, http.StatusGone, "hold_expired"},
	{domain.ErrInterviewExpired, http.StatusGone, "interview_expired"},

	{domain.ErrSlotBusy, http.StatusServiceUnavailable, "slot_busy"},
}

// errorStatus maps err to its HTTP status and code. Unknown errors are 500.
func errorStatus(err error) (int, string) {
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			return de.status, de.code
		}
	}
	return http.StatusInternalServerError, codeInternalError
}

// writeDomainError writes err as a JSON error. Internal errors are logged and
// reported without detail.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
