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

// InterviewAdmin is the minimal interface needed for the admin interview endpoints.
type InterviewAdmin interface {
	CreateInterview(ctx context.Context, in app.CreateInterviewInput) (domain.Interview, error)
	GetInterview(ctx context.Context, interviewID string) (domain.Interview, error)
	RegisterCandidate(ctx context.Context, in app.RegisterCandidateInput) (domain.Candidate, error)
}

// HandleCreateInterview serves POST /admin/interviews.
func HandleCreateInterview(svc InterviewAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createInterviewRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		interview, err := svc.CreateInterview(r.Context(), app.CreateInterviewInput{
			Title:           req.Title,
			DurationMinutes: req.DurationMinutes,
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, newInterviewResponse(interview))
	}
}

// HandleInterview serves GET /admin/interviews/{id} and
// POST /admin/interviews/{id}/candidates.
func HandleInterview(svc InterviewAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		interviewID, sub, ok := parseAdminInterviewPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch sub {
		case "":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			interview, err := svc.GetInterview(r.Context(), interviewID)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, newInterviewResponse(interview))
		case "candidates":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			var req registerCandidateRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			candidate, err := svc.RegisterCandidate(r.Context(), app.RegisterCandidateInput{
				InterviewID: interviewID,
				Email:       req.Email,
				Name:        req.Name,
			})
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusCreated, candidateResponse{
				ID:          candidate.ID,
				InterviewID: candidate.InterviewID,
				Email:       candidate.Email,
				Name:        candidate.Name,
				CreatedAt:   candidate.CreatedAt,
			})
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

type createInterviewRequest struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
}

type interviewResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newInterviewResponse(i domain.Interview) interviewResponse {
	return interviewResponse{
		ID:              i.ID,
		Title:           i.Title,
		DurationMinutes: i.DurationMinutes,
		ExpiresAt:       i.ExpiresAt,
		CreatedAt:       i.CreatedAt,
	}
}

type registerCandidateRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type candidateResponse struct {
	ID          string    `json:"id"`
	InterviewID string    `json:"interview_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

// parseAdminInterviewPath splits /admin/interviews/{id}[/{sub}].
func parseAdminInterviewPath(path string) (string, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || len(parts) > 4 {
		return "", "", false
	}
	if parts[0] != "admin" || parts[1] != "interviews" || parts[2] == "" {
		return "", "", false
	}
	if len(parts) == 3 {
		return parts[2], "", true
	}
	if parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}
