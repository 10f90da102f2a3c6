package http

import (
	"net/http"
	"net/netip"
	"time"

	"go.uber.org/zap"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Interviews   InterviewAdmin
	Previewer    SlotPreviewer
	Slots        SlotStore
	Availability AvailabilityLister
	Holds        interface {
		HoldCreator
		HoldCanceler
	}
	Bookings interface {
		HoldConfirmer
		BookingLookup
	}
	// Store is optional; when set /health also checks it.
	Store Pinger
}

// RouterConfig carries the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	CORSOrigins []string
	Limiter     Limiter
	HoldLimit   int
	HoldWindow  time.Duration
	// TrustedProxies may set X-Forwarded-For for rate limiting.
	TrustedProxies []netip.Prefix
	Logger         *zap.Logger
}

// NewRouter wires every endpoint behind CORS and request logging.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/health", HandleHealth(svc.Store, logger))
	mux.Handle("/admin/interviews", HandleCreateInterview(svc.Interviews, logger))
	mux.Handle("/admin/interviews/", HandleInterview(svc.Interviews, logger))
	mux.Handle("/slots/preview", HandlePreviewSlots(svc.Previewer, logger))
	mux.Handle("/interviews/", HandleInterviewSlots(svc.Slots, svc.Availability, logger))
	mux.Handle("/holds", RateLimit(HandleCreateHold(svc.Holds, logger), cfg.Limiter, "holds", cfg.HoldLimit, cfg.HoldWindow, cfg.TrustedProxies))
	mux.Handle("/holds/", HandleHoldAction(svc.Bookings, svc.Holds, logger))
	mux.Handle("/bookings/status", HandleBookingStatus(svc.Bookings, logger))
	mux.Handle("/", NotFoundHandler())

	return RequestLogger(CORS(cfg.CORSOrigins, mux), logger)
}
