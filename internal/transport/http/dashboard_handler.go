package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"pushpulse/internal/dataprocessing"
	apierrors "pushpulse/internal/errors"
	"pushpulse/internal/exporter"
	"pushpulse/internal/services"
	"pushpulse/internal/session"
	"pushpulse/internal/websocket"
	"pushpulse/pkg/contracts/domain"
)

// rangeDateFormat is the wire format for date-range payloads.
const rangeDateFormat = "2006-01-02"

// DashboardHandler exposes the dashboard API over HTTP.
type DashboardHandler struct {
	service      *services.DashboardService
	hub          *websocket.Hub
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
	maxUploadMem int64
	seriesPoints int
	topCampaigns int
}

// NewDashboardHandler creates the dashboard handler. hub may be nil when
// live refresh is disabled.
func NewDashboardHandler(
	service *services.DashboardService,
	hub *websocket.Hub,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
	seriesPoints, topCampaigns int,
) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		hub:          hub,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
		maxUploadMem: 32 << 20,
		seriesPoints: seriesPoints,
		topCampaigns: topCampaigns,
	}
}

// Routes returns the session API routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.CreateSession)

	r.Route("/{sessionID}", func(r chi.Router) {
		r.Use(h.SessionCtx)

		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Post("/uploads", h.Upload)
		r.Delete("/data", h.ClearData)
		r.Put("/range", h.SetRange)
		r.Delete("/range", h.ClearRange)
		r.Get("/summary", h.GetSummary)
		r.Get("/series/{metric}", h.GetSeries)
		r.Get("/campaigns", h.GetCampaigns)
		r.Get("/export/summary.csv", h.ExportSummaryCSV)
		r.Get("/export/workbook.xlsx", h.ExportWorkbook)
		r.Get("/live", h.Live)
	})

	return r
}

// SessionCtx validates the session ID parameter before any sub-route runs.
func (h *DashboardHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "sessionID") == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("sessionID", "Session ID is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionResponse is the wire shape of a session.
type sessionResponse struct {
	ID          string                 `json:"id"`
	Files       []string               `json:"files"`
	Warnings    []domain.UploadWarning `json:"warnings,omitempty"`
	DateRange   *rangeResponse         `json:"date_range,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	LastUpdated time.Time              `json:"last_updated"`
}

type rangeResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toSessionResponse(s *session.Session) sessionResponse {
	resp := sessionResponse{
		ID:          s.ID,
		Files:       s.TableNames(),
		Warnings:    s.Warnings,
		CreatedAt:   s.CreatedAt,
		LastUpdated: s.LastUpdated,
	}
	if s.DateRange != nil {
		resp.DateRange = &rangeResponse{
			Start: s.DateRange.Start.Format(rangeDateFormat),
			End:   s.DateRange.End.Format(rangeDateFormat),
		}
	}
	return resp
}

// CreateSession handles POST /api/session
func (h *DashboardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.service.CreateSession(r.Context())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toSessionResponse(sess))
}

// GetSession handles GET /api/session/{sessionID}
func (h *DashboardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, toSessionResponse(sess))
}

// DeleteSession handles DELETE /api/session/{sessionID}
func (h *DashboardHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.service.DeleteSession(r.Context(), sessionID); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if h.hub != nil {
		h.hub.NotifySessionClosed(sessionID)
	}
	render.NoContent(w, r)
}

// Upload handles POST /api/session/{sessionID}/uploads with a multipart
// form carrying one or more files under the "files" field.
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := r.ParseMultipartForm(h.maxUploadMem); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("files", "At least one file is required"))
		return
	}

	uploads := make([]services.Upload, 0, len(fileHeaders))
	var openers []interface{ Close() error }
	defer func() {
		for _, f := range openers {
			f.Close()
		}
	}()

	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.FileSystemError("open upload", err))
			return
		}
		openers = append(openers, f)
		uploads = append(uploads, services.Upload{Name: fh.Filename, Size: fh.Size, Reader: f})
	}

	sess, err := h.service.ProcessUploads(r.Context(), sessionID, uploads)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if h.hub != nil {
		h.hub.NotifyDataUpdated(sessionID, len(sess.Tables), len(sess.Warnings))
	}
	render.JSON(w, r, toSessionResponse(sess))
}

// ClearData handles DELETE /api/session/{sessionID}/data
func (h *DashboardHandler) ClearData(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.service.ClearSession(r.Context(), sessionID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if h.hub != nil {
		h.hub.NotifyDataUpdated(sessionID, 0, 0)
	}
	render.JSON(w, r, toSessionResponse(sess))
}

// rangeRequest is the PUT /range payload.
type rangeRequest struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

// SetRange handles PUT /api/session/{sessionID}/range
func (h *DashboardHandler) SetRange(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req rangeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("range", "start and end must be YYYY-MM-DD dates"))
		return
	}

	start, _ := time.Parse(rangeDateFormat, req.Start)
	end, _ := time.Parse(rangeDateFormat, req.End)

	sess, err := h.service.SetDateRange(r.Context(), sessionID, dataprocessing.DateRange{Start: start, End: end})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if h.hub != nil {
		h.hub.NotifyRangeChanged(sessionID)
	}
	render.JSON(w, r, toSessionResponse(sess))
}

// ClearRange handles DELETE /api/session/{sessionID}/range
func (h *DashboardHandler) ClearRange(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.service.ClearDateRange(r.Context(), sessionID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if h.hub != nil {
		h.hub.NotifyRangeChanged(sessionID)
	}
	render.JSON(w, r, toSessionResponse(sess))
}

// summaryResponse wraps the metric map with the warnings from the last
// upload so a single fetch can render the whole dashboard header.
type summaryResponse struct {
	Metrics  domain.MetricsSummary  `json:"metrics"`
	Warnings []domain.UploadWarning `json:"warnings,omitempty"`
}

// GetSummary handles GET /api/session/{sessionID}/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, warnings, err := h.service.Summary(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summaryResponse{Metrics: summary, Warnings: warnings})
}

// seriesResponse carries one metric's chart data.
type seriesResponse struct {
	Metric string               `json:"metric"`
	Points []domain.SeriesPoint `json:"points"`
}

// GetSeries handles GET /api/session/{sessionID}/series/{metric}
// Supports ?limit=N to trim to the most recent N points; the default
// comes from the upload configuration.
func (h *DashboardHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	metric := chi.URLParam(r, "metric")

	limit := h.seriesPoints
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	points, err := h.service.Series(r.Context(), sessionID, metric, limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if points == nil {
		points = []domain.SeriesPoint{}
	}
	render.JSON(w, r, seriesResponse{Metric: metric, Points: points})
}

// campaignsResponse carries the per-campaign performance table.
type campaignsResponse struct {
	Campaigns []domain.CampaignRow `json:"campaigns"`
}

// GetCampaigns handles GET /api/session/{sessionID}/campaigns
// Supports ?top=N; the default comes from the upload configuration.
func (h *DashboardHandler) GetCampaigns(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	top := h.topCampaigns
	if raw := r.URL.Query().Get("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("top", "top must be a non-negative integer"))
			return
		}
		top = parsed
	}

	rows, err := h.service.Campaigns(r.Context(), sessionID, top)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if rows == nil {
		rows = []domain.CampaignRow{}
	}
	render.JSON(w, r, campaignsResponse{Campaigns: rows})
}

// ExportSummaryCSV handles GET /api/session/{sessionID}/export/summary.csv
func (h *DashboardHandler) ExportSummaryCSV(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+exporter.ReportFileName("summary", "csv"))

	if err := h.service.ExportSummaryCSV(r.Context(), sessionID, w); err != nil {
		// Headers may already be written; log and bail
		h.logger.Error("summary export failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
	}
}

// ExportWorkbook handles GET /api/session/{sessionID}/export/workbook.xlsx
func (h *DashboardHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+exporter.ReportFileName("tables", "xlsx"))

	if err := h.service.ExportWorkbook(r.Context(), sessionID, w); err != nil {
		h.logger.Error("workbook export failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
	}
}

// Live handles GET /api/session/{sessionID}/live, upgrading to a
// websocket that streams refresh events for the session.
func (h *DashboardHandler) Live(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if h.hub == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrServiceUnavailable)
		return
	}
	if _, err := h.service.GetSession(r.Context(), sessionID); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if err := websocket.ServeWS(h.hub, sessionID, w, r); err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
	}
}
