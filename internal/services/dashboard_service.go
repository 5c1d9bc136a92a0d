package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"pushpulse/internal/config"
	"pushpulse/internal/dataprocessing"
	"pushpulse/internal/errors"
	"pushpulse/internal/exporter"
	"pushpulse/internal/infrastructure"
	"pushpulse/internal/session"
	"pushpulse/pkg/contracts/domain"
)

// Upload is one file handed to ProcessUploads. The reader is consumed
// exactly once; size is the declared length used for limit checks.
type Upload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// DashboardService implements the dashboard operations on top of the
// session store and the data processing core.
type DashboardService struct {
	logger     *slog.Logger
	store      *session.Store
	summarizer *dataprocessing.Summarizer
	summaryExp *exporter.SummaryExporter
	workbook   *exporter.WorkbookExporter
	metrics    *infrastructure.Metrics
	uploadCfg  config.UploadConfig
}

// NewDashboardService wires the dashboard service. metrics may be nil
// when running without an exposed /metrics endpoint.
func NewDashboardService(
	logger *slog.Logger,
	store *session.Store,
	summarizer *dataprocessing.Summarizer,
	metrics *infrastructure.Metrics,
	uploadCfg config.UploadConfig,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		logger:     logger.With(slog.String("component", "dashboard_service")),
		store:      store,
		summarizer: summarizer,
		summaryExp: exporter.NewSummaryExporter(logger),
		workbook:   exporter.NewWorkbookExporter(logger),
		metrics:    metrics,
		uploadCfg:  uploadCfg,
	}
}

// CreateSession starts a new empty dashboard session.
func (s *DashboardService) CreateSession(ctx context.Context) *session.Session {
	sess := s.store.Create()
	s.logger.InfoContext(ctx, "dashboard session created", slog.String("session_id", sess.ID))
	return sess
}

// GetSession returns the current session state.
func (s *DashboardService) GetSession(ctx context.Context, id string) (*session.Session, error) {
	return s.store.Get(id)
}

// DeleteSession removes the session entirely.
func (s *DashboardService) DeleteSession(ctx context.Context, id string) error {
	return s.store.Delete(id)
}

// ClearSession drops the session's uploaded data but keeps the session.
func (s *DashboardService) ClearSession(ctx context.Context, id string) (*session.Session, error) {
	return s.store.Clear(id)
}

// ProcessUploads parses the uploaded files and replaces the session's
// table set with the result. A file that cannot be parsed never fails
// the batch; it is recorded as a warning and skipped. The previous
// upload is always discarded, even when every new file fails.
func (s *DashboardService) ProcessUploads(ctx context.Context, sessionID string, uploads []Upload) (*session.Session, error) {
	if _, err := s.store.Get(sessionID); err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, errors.NewAppValidationError("no files in upload")
	}
	if len(uploads) > s.uploadCfg.MaxFiles {
		return nil, errors.NewAppValidationError(
			fmt.Sprintf("too many files: %d exceeds limit of %d", len(uploads), s.uploadCfg.MaxFiles))
	}

	tables := make(map[string]domain.NamedTable, len(uploads))
	var warnings []domain.UploadWarning

	for _, up := range uploads {
		table, err := s.parseUpload(up)
		if err != nil {
			s.logger.WarnContext(ctx, "upload skipped",
				slog.String("session_id", sessionID),
				slog.String("file", up.Name),
				slog.String("error", err.Error()))
			warnings = append(warnings, domain.UploadWarning{File: up.Name, Message: err.Error()})
			if s.metrics != nil {
				s.metrics.UploadWarningsTotal.Inc()
			}
			continue
		}
		tables[up.Name] = table
		if s.metrics != nil {
			s.metrics.UploadsTotal.Inc()
		}
	}

	sess, err := s.store.ReplaceTables(sessionID, tables, warnings)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "uploads processed",
		slog.String("session_id", sessionID),
		slog.Int("accepted", len(tables)),
		slog.Int("skipped", len(warnings)))

	return sess, nil
}

func (s *DashboardService) parseUpload(up Upload) (domain.NamedTable, error) {
	if s.uploadCfg.MaxFileBytes > 0 && up.Size > s.uploadCfg.MaxFileBytes {
		return domain.NamedTable{}, errors.NewAppValidationError(
			fmt.Sprintf("file exceeds size limit of %d bytes", s.uploadCfg.MaxFileBytes))
	}
	if !s.uploadCfg.AllowsExtension(up.Name) {
		return domain.NamedTable{}, errors.NewAppValidationError(
			fmt.Sprintf("unsupported file type %q", filepath.Ext(up.Name)))
	}

	reader := up.Reader
	if s.uploadCfg.MaxFileBytes > 0 {
		reader = io.LimitReader(reader, s.uploadCfg.MaxFileBytes+1)
	}

	switch strings.ToLower(filepath.Ext(up.Name)) {
	case ".xlsx", ".xls":
		return dataprocessing.ReadWorkbookTable(up.Name, reader)
	default:
		return dataprocessing.ReadTable(up.Name, reader)
	}
}

// SetDateRange installs an inclusive date-range filter on the session.
func (s *DashboardService) SetDateRange(ctx context.Context, sessionID string, r dataprocessing.DateRange) (*session.Session, error) {
	if r.End.Before(r.Start) {
		return nil, errors.NewAppValidationError("date range end precedes start")
	}
	sess, err := s.store.SetDateRange(sessionID, &r)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "date range set",
		slog.String("session_id", sessionID),
		slog.Time("start", r.Start),
		slog.Time("end", r.End))
	return sess, nil
}

// ClearDateRange removes the session's date-range filter.
func (s *DashboardService) ClearDateRange(ctx context.Context, sessionID string) (*session.Session, error) {
	return s.store.SetDateRange(sessionID, nil)
}

// Summary computes the per-metric summary over the session's tables,
// honoring the active date-range filter. Warnings from the last upload
// ride along so the dashboard can surface skipped files.
func (s *DashboardService) Summary(ctx context.Context, sessionID string) (domain.MetricsSummary, []domain.UploadWarning, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}

	summary := s.summarizer.Summarize(ctx, sess.Tables, sess.DateRange)
	if s.metrics != nil {
		s.metrics.SummariesTotal.Inc()
	}
	return summary, sess.Warnings, nil
}

// Series returns the time series behind one metric card, trimmed to the
// most recent limit points. limit <= 0 returns the full series. Unknown
// metric keys and metrics absent from the upload both return not-found.
func (s *DashboardService) Series(ctx context.Context, sessionID, metricKey string, limit int) ([]domain.SeriesPoint, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	points, ok := s.summarizer.SeriesFor(sess.Tables, metricKey, sess.DateRange)
	if !ok {
		return nil, errors.NewNotFoundError("metric " + metricKey)
	}
	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

// Campaigns returns per-campaign rows sorted by deliveries, trimmed to
// the top N. topN <= 0 returns every campaign.
func (s *DashboardService) Campaigns(ctx context.Context, sessionID string, topN int) ([]domain.CampaignRow, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	rows, ok := s.summarizer.CampaignRows(sess.Tables)
	if !ok {
		return nil, nil
	}
	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}
	return rows, nil
}

// ExportSummaryCSV writes the session's summary report to w.
func (s *DashboardService) ExportSummaryCSV(ctx context.Context, sessionID string, w io.Writer) error {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return err
	}

	summary := s.summarizer.Summarize(ctx, sess.Tables, sess.DateRange)
	keys := append(s.summarizer.MetricKeys(), dataprocessing.MetricCampaignCount)

	if err := s.summaryExp.WriteCSV(w, summary, keys); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ExportsTotal.WithLabelValues("csv").Inc()
	}
	return nil
}

// ExportWorkbook writes the session's uploaded tables to w as an xlsx
// workbook, one sheet per file.
func (s *DashboardService) ExportWorkbook(ctx context.Context, sessionID string, w io.Writer) error {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return err
	}

	if err := s.workbook.Write(w, sess.Tables); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ExportsTotal.WithLabelValues("xlsx").Inc()
	}
	return nil
}
