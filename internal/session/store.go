// Package session holds the per-dashboard upload state: the most recently
// uploaded tables, their per-file warnings, and the active date-range
// filter. State is in-memory only and replaced wholesale on re-upload.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pushpulse/internal/dataprocessing"
	"pushpulse/internal/errors"
	"pushpulse/pkg/contracts/domain"
)

// Session is one dashboard's upload state. Instances handed out by the
// store are snapshots; mutation goes through store methods only.
type Session struct {
	ID          string                       `json:"id"`
	Tables      map[string]domain.NamedTable `json:"-"`
	Warnings    []domain.UploadWarning       `json:"warnings,omitempty"`
	DateRange   *dataprocessing.DateRange    `json:"-"`
	CreatedAt   time.Time                    `json:"created_at"`
	LastUpdated time.Time                    `json:"last_updated"`
}

// TableNames returns the uploaded file names in no particular order.
func (s *Session) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	return names
}

// Store is the in-memory session registry. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Session),
		logger:   logger.With(slog.String("component", "session_store")),
		now:      time.Now,
	}
}

// Create registers a new empty session and returns its snapshot.
func (st *Store) Create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	s := &Session{
		ID:          uuid.New().String(),
		Tables:      make(map[string]domain.NamedTable),
		CreatedAt:   now,
		LastUpdated: now,
	}
	st.sessions[s.ID] = s

	st.logger.Info("session created", slog.String("session_id", s.ID))
	return snapshot(s)
}

// Get returns a snapshot of the session, or a not-found error.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("session " + id)
	}
	return snapshot(s), nil
}

// ReplaceTables swaps the session's table set for a freshly uploaded one.
// Uploads always replace, never merge; the previous tables are discarded
// along with any warnings they carried.
func (st *Store) ReplaceTables(id string, tables map[string]domain.NamedTable, warnings []domain.UploadWarning) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("session " + id)
	}

	s.Tables = tables
	s.Warnings = warnings
	s.LastUpdated = st.now()

	st.logger.Info("session tables replaced",
		slog.String("session_id", id),
		slog.Int("table_count", len(tables)),
		slog.Int("warning_count", len(warnings)))

	return snapshot(s), nil
}

// SetDateRange sets or clears the active date-range filter.
func (st *Store) SetDateRange(id string, r *dataprocessing.DateRange) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("session " + id)
	}

	s.DateRange = r
	s.LastUpdated = st.now()
	return snapshot(s), nil
}

// Clear empties the session's data without deleting the session itself.
func (st *Store) Clear(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("session " + id)
	}

	s.Tables = make(map[string]domain.NamedTable)
	s.Warnings = nil
	s.DateRange = nil
	s.LastUpdated = st.now()

	st.logger.Info("session cleared", slog.String("session_id", id))
	return snapshot(s), nil
}

// Delete removes the session entirely.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return errors.NewNotFoundError("session " + id)
	}
	delete(st.sessions, id)
	return nil
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// snapshot copies the session so callers can treat it as an immutable
// input. Tables share row storage; rows are never mutated after parse.
func snapshot(s *Session) *Session {
	tables := make(map[string]domain.NamedTable, len(s.Tables))
	for name, table := range s.Tables {
		tables[name] = table
	}

	var warnings []domain.UploadWarning
	if len(s.Warnings) > 0 {
		warnings = append(warnings, s.Warnings...)
	}

	var dr *dataprocessing.DateRange
	if s.DateRange != nil {
		copied := *s.DateRange
		dr = &copied
	}

	return &Session{
		ID:          s.ID,
		Tables:      tables,
		Warnings:    warnings,
		DateRange:   dr,
		CreatedAt:   s.CreatedAt,
		LastUpdated: s.LastUpdated,
	}
}
