// Package server exposes ID validation, quoting, the quote hand-off and
// application intake over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/iwvelando/loan-origination/internal/application"
	"github.com/iwvelando/loan-origination/internal/handoff"
	"github.com/iwvelando/loan-origination/internal/metrics"
	"github.com/iwvelando/loan-origination/pkg/constants"
	"github.com/iwvelando/loan-origination/pkg/idnumber"
	"github.com/iwvelando/loan-origination/pkg/loans"
	"github.com/iwvelando/loan-origination/pkg/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP layer fronts.
type Dependencies struct {
	IDs          *idnumber.Validator
	Applications *application.Service
	Handoff      handoff.Store
	// AnnualInterestRate is the product rate for quotes that do not name one.
	// Nil selects the default rate; zero quotes interest free.
	AnnualInterestRate *float64
	Limits             loans.Limits
	Metrics            *metrics.Metrics
	// Gatherer backs /metrics. When nil it is taken from Metrics, which
	// knows the registry its collectors were registered with.
	Gatherer prometheus.Gatherer
	Version  string
}

type handler struct {
	logger      *zap.Logger
	deps        Dependencies
	rate        float64
	metrics     *metrics.Metrics
	maxBodySize int64
	limiter     *rateLimiter
	validate    *validator.Validate
	schedules   *loans.ScheduleGenerator
	version     string
}

// NewHandler constructs the HTTP handler that serves the loan API.
func NewHandler(logger *zap.Logger, cfg Config, deps Dependencies) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}
	if deps.IDs == nil {
		deps.IDs = idnumber.New()
	}
	if deps.Handoff == nil {
		deps.Handoff = handoff.NewMemoryStore()
	}
	rate := constants.DefaultAnnualInterestRate
	if deps.AnnualInterestRate != nil {
		rate = *deps.AnnualInterestRate
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(prometheus.NewRegistry())
	}
	if deps.Gatherer == nil {
		deps.Gatherer = deps.Metrics.Gatherer()
	}
	if deps.Gatherer == nil {
		logger.Warn("metrics registry cannot be gathered, serving the default registry",
			zap.String("op", "server.NewHandler"),
		)
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Applications == nil {
		pivot := deps.IDs.CenturyPivot
		deps.Applications = application.NewService(application.NewMemoryRepository(), application.Options{
			AnnualInterestRate: &rate,
			Limits:             deps.Limits,
			CenturyPivot:       &pivot,
			Now:                deps.IDs.Now,
			Metrics:            deps.Metrics,
		}, logger)
	}

	trimmedVersion := strings.TrimSpace(deps.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		deps:        deps,
		rate:        rate,
		metrics:     deps.Metrics,
		maxBodySize: cfg.MaxBodySize,
		limiter:     newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.RateLimitIdleTTL),
		validate:    validation.New(),
		schedules:   loans.NewScheduleGenerator(logger),
		version:     trimmedVersion,
	}

	r := chi.NewRouter()
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimit > 0 {
			api.Use(h.rateLimit)
		}
		h.Register(api)
	})

	return r
}

// Register mounts the API routes on r.
func (h *handler) Register(r chi.Router) {
	r.Get("/version", h.handleVersion)

	r.Post("/id/validate", h.handleValidateID)

	r.Post("/quote", h.handleQuote)
	r.Post("/quote/schedule", h.handleQuoteSchedule)

	r.Route("/handoff/{session}", func(r chi.Router) {
		r.Put("/", h.handleHandoffSave)
		r.Get("/", h.handleHandoffLoad)
		r.Delete("/", h.handleHandoffClear)
	})

	r.Route("/applications", func(r chi.Router) {
		r.Post("/", h.handleSubmitApplication)
		r.Get("/", h.handleListApplications)
		r.Get("/{id}", h.handleGetApplication)
		r.Patch("/{id}/status", h.handleUpdateStatus)
	})

	r.Get("/admin/summary", h.handleSummary)
}

type validateIDRequest struct {
	IDNumber string `json:"idNumber"`
}

type quoteRequest struct {
	Principal          float64  `json:"principal" validate:"gt=0"`
	TermMonths         int      `json:"termMonths" validate:"gte=1"`
	AnnualInterestRate *float64 `json:"annualInterestRate,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type scheduleResponse struct {
	Quote    loans.Quote             `json:"quote"`
	Schedule []loans.SchedulePayment `json:"schedule"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// handleValidateID answers 200 for every well-formed request; the verdict is
// in the body.
func (h *handler) handleValidateID(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleValidateID"

	var req validateIDRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	result := h.deps.IDs.Validate(req.IDNumber)
	h.metrics.ObserveIDValidation(result.Valid)
	h.logger.Debug("ID number validated",
		zap.String("op", op),
		zap.String("idNumber", idnumber.Mask(req.IDNumber)),
		zap.Bool("valid", result.Valid),
	)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	quote, ok := h.quote(w, r, "server.handleQuote")
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

func (h *handler) handleQuoteSchedule(w http.ResponseWriter, r *http.Request) {
	quote, ok := h.quote(w, r, "server.handleQuoteSchedule")
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, scheduleResponse{
		Quote:    quote,
		Schedule: h.schedules.GenerateSchedule(quote),
	})
}

// quote decodes a quote request and prices it, writing the error response
// itself when that fails.
func (h *handler) quote(w http.ResponseWriter, r *http.Request, op string) (loans.Quote, bool) {
	var req quoteRequest
	if !h.decode(w, r, &req, op) {
		return loans.Quote{}, false
	}

	rate := h.rate
	if req.AnnualInterestRate != nil {
		rate = *req.AnnualInterestRate
	}

	quote, err := loans.NewQuote(req.Principal, req.TermMonths, rate, h.deps.Limits)
	if err != nil {
		h.metrics.ObserveQuoteRejection(rejectionReason(err))
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return loans.Quote{}, false
	}
	h.metrics.ObserveQuote(quote.Principal)
	return quote, true
}

func (h *handler) handleHandoffSave(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHandoffSave"
	quote, ok := h.quote(w, r, op)
	if !ok {
		return
	}
	if err := h.deps.Handoff.Save(r.Context(), chi.URLParam(r, "session"), quote); err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

func (h *handler) handleHandoffLoad(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHandoffLoad"
	quote, err := h.deps.Handoff.Load(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

func (h *handler) handleHandoffClear(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHandoffClear"
	if err := h.deps.Handoff.Clear(r.Context(), chi.URLParam(r, "session")); err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSubmitApplication"

	var req application.SubmitRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	app, err := h.deps.Applications.Submit(r.Context(), req)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	w.Header().Set("Location", "/api/applications/"+app.ID.String())
	h.writeJSON(w, http.StatusCreated, app)
}

func (h *handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListApplications"

	var status application.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := application.ParseStatus(raw)
		if err != nil {
			h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
			return
		}
		status = parsed
	}

	apps, err := h.deps.Applications.List(r.Context(), status)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, apps)
}

func (h *handler) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetApplication"

	id, ok := h.applicationID(w, r, op)
	if !ok {
		return
	}
	app, err := h.deps.Applications.Get(r.Context(), id)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, app)
}

func (h *handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateStatus"

	id, ok := h.applicationID(w, r, op)
	if !ok {
		return
	}
	var req statusRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	status, err := application.ParseStatus(req.Status)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	app, err := h.deps.Applications.UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, app)
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.deps.Applications.Summary(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), "server.handleSummary")
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *handler) applicationID(w http.ResponseWriter, r *http.Request, op string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, application.ErrNotFound.Error(), op)
		return uuid.Nil, false
	}
	return id, true
}

// decode reads a size-limited JSON body into dst and runs struct validation.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}

	if _, isSubmission := dst.(*application.SubmitRequest); isSubmission {
		// The application service validates its own request.
		return true
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, validation.Describe(err), op)
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, handoff.ErrNotFound), errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrInvalidIDNumber):
		return http.StatusUnprocessableEntity
	case errors.Is(err, application.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, loans.ErrInvalidPrincipal),
		errors.Is(err, loans.ErrInvalidTerm),
		errors.Is(err, loans.ErrInvalidRate),
		errors.Is(err, application.ErrInvalidRequest),
		errors.Is(err, application.ErrInvalidStatus),
		errors.Is(err, handoff.ErrEmptySession):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, loans.ErrInvalidPrincipal):
		return "principal"
	case errors.Is(err, loans.ErrInvalidTerm):
		return "term"
	case errors.Is(err, loans.ErrInvalidRate):
		return "rate"
	default:
		return "other"
	}
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := metrics.UnmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		h.metrics.ObserveRequest(r.Method, route, status, start)
		h.logger.Info("request handled",
			zap.String("op", "server.logRequests"),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	} else {
		h.logger.Info("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
