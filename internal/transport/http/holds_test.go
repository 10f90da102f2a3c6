package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cimillas/interview-slots/internal/app"
	"github.com/cimillas/interview-slots/internal/domain"
)

func TestHandleCreateHold(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	successHold := domain.Hold{
		ID:        "hold-123",
		Start:     start,
		End:       start.Add(35 * time.Minute),
		ExpiresAt: start.Add(-time.Hour),
	}
	validBody := `{"interview_id":"i1","candidate_id":"c1","slot_record_id":"r1","slot_index":0}`

	tests := []struct {
		name           string
		method         string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "success",
			body:           validBody,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"hold_id":"hold-123"`,
		},
		{
			name:           "wrong method",
			method:         http.MethodGet,
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "invalid json",
			body:           `{"interview_id":`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeInvalidRequestBody,
		},
		{
			name:           "unknown field",
			body:           `{"interview_id":"i1","candidate_id":"c1","slot_record_id":"r1","slot_index":0,"quantity":2}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeInvalidRequestBody,
		},
		{
			name:           "missing slot index",
			body:           `{"interview_id":"i1","candidate_id":"c1","slot_record_id":"r1"}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeMissingRequiredField,
		},
		{
			name:           "missing candidate",
			body:           `{"interview_id":"i1","slot_record_id":"r1","slot_index":0}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeMissingRequiredField,
		},
		{
			name:           "invalid slot index",
			body:           validBody,
			serviceErr:     domain.ErrInvalidSlotIndex,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: "invalid_slot_index",
		},
		{
			name:           "candidate of another interview",
			body:           validBody,
			serviceErr:     domain.ErrInvalidCandidate,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "slot record not found",
			body:           validBody,
			serviceErr:     domain.ErrSlotRecordNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "slot full",
			body:           validBody,
			serviceErr:     domain.ErrSlotFull,
			expectedStatus: http.StatusConflict,
			expectedSubstr: "slot_full",
		},
		{
			name:           "hold exists",
			body:           validBody,
			serviceErr:     domain.ErrHoldExists,
			expectedStatus: http.StatusConflict,
			expectedSubstr: "hold_exists",
		},
		{
			name:           "already booked",
			body:           validBody,
			serviceErr:     domain.ErrAlreadyBooked,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "interview expired",
			body:           validBody,
			serviceErr:     domain.ErrInterviewExpired,
			expectedStatus: http.StatusGone,
		},
		{
			name:           "slot busy",
			body:           validBody,
			serviceErr:     domain.ErrSlotBusy,
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "internal error",
			body:           validBody,
			serviceErr:     errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedSubstr: `"error":"internal error"`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubHoldService{hold: successHold, err: tt.serviceErr}
			method := tt.method
			if method == "" {
				method = http.MethodPost
			}
			req := httptest.NewRequest(method, "/holds", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			HandleCreateHold(svc, nil).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestHandleCreateHold_PassesInput(t *testing.T) {
	t.Parallel()

	svc := &stubHoldService{}
	body := `{"interview_id":"i1","candidate_id":"c1","slot_record_id":"r1","slot_index":2}`
	req := httptest.NewRequest(http.MethodPost, "/holds", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	HandleCreateHold(svc, nil).ServeHTTP(rec, req)

	want := app.CreateHoldInput{InterviewID: "i1", CandidateID: "c1", SlotRecordID: "r1", SlotIndex: 2}
	if svc.createIn != want {
		t.Fatalf("expected input %+v, got %+v", want, svc.createIn)
	}
}

func TestHandleHoldAction(t *testing.T) {
	t.Parallel()

	booking := domain.Booking{ID: "booking-1", Status: domain.BookingStatusConfirmed}

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "confirm",
			path:           "/holds/hold-1/confirm",
			body:           `{"candidate_id":"c1"}`,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"booking_id":"booking-1"`,
		},
		{
			name:           "confirm expired",
			path:           "/holds/hold-1/confirm",
			body:           `{"candidate_id":"c1"}`,
			serviceErr:     domain.ErrHoldExpired,
			expectedStatus: http.StatusGone,
			expectedSubstr: "hold_expired",
		},
		{
			name:           "confirm by another candidate",
			path:           "/holds/hold-1/confirm",
			body:           `{"candidate_id":"c2"}`,
			serviceErr:     domain.ErrNotHoldOwner,
			expectedStatus: http.StatusForbidden,
			expectedSubstr: "not_hold_owner",
		},
		{
			name:           "confirm slot full",
			path:           "/holds/hold-1/confirm",
			body:           `{"candidate_id":"c1"}`,
			serviceErr:     domain.ErrSlotFull,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "cancel",
			path:           "/holds/hold-1/cancel",
			body:           `{"candidate_id":"c1"}`,
			expectedStatus: http.StatusOK,
			expectedSubstr: `"success":true`,
		},
		{
			name:           "cancel missing hold",
			path:           "/holds/hold-1/cancel",
			body:           `{"candidate_id":"c1"}`,
			serviceErr:     domain.ErrHoldNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "cancel by another candidate",
			path:           "/holds/hold-1/cancel",
			body:           `{"candidate_id":"c2"}`,
			serviceErr:     domain.ErrNotOwner,
			expectedStatus: http.StatusForbidden,
			expectedSubstr: "not_owner",
		},
		{
			name:           "missing candidate",
			path:           "/holds/hold-1/confirm",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeMissingRequiredField,
		},
		{
			name:           "unknown action",
			path:           "/holds/hold-1/extend",
			body:           `{"candidate_id":"c1"}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing hold id",
			path:           "/holds//confirm",
			body:           `{"candidate_id":"c1"}`,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "wrong method",
			method:         http.MethodGet,
			path:           "/holds/hold-1/confirm",
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			holds := &stubHoldService{err: tt.serviceErr}
			bookings := &stubBookingService{result: app.ConfirmHoldResult{Booking: booking}, err: tt.serviceErr}
			method := tt.method
			if method == "" {
				method = http.MethodPost
			}
			req := httptest.NewRequest(method, tt.path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			HandleHoldAction(bookings, holds, nil).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

type stubHoldService struct {
	hold     domain.Hold
	err      error
	createIn app.CreateHoldInput
}

func (s *stubHoldService) CreateHold(_ context.Context, in app.CreateHoldInput) (domain.Hold, error) {
	s.createIn = in
	return s.hold, s.err
}

func (s *stubHoldService) CancelHold(_ context.Context, _ app.CancelHoldInput) error {
	return s.err
}

type stubBookingService struct {
	result  app.ConfirmHoldResult
	booking *domain.Booking
	err     error
}

func (s *stubBookingService) ConfirmHold(_ context.Context, _ app.ConfirmHoldInput) (app.ConfirmHoldResult, error) {
	return s.result, s.err
}

func (s *stubBookingService) GetBooking(_ context.Context, _, _ string) (*domain.Booking, error) {
	return s.booking, s.err
}
