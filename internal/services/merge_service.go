package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mergecli/internal/exporter"
	"mergecli/internal/infrastructure"
	"mergecli/internal/loader"
	"mergecli/internal/merge"
	"mergecli/internal/table"
	"mergecli/internal/transform"
)

// sessionTTL is how long an untouched session stays in memory.
const sessionTTL = time.Hour

// FileUpload is one uploaded file, already read into memory. The filename
// is only used for format detection and error messages.
type FileUpload struct {
	Filename string
	Data     []byte
}

// Session holds the state of one merge: the immutable merge result and the
// current working view after the latest transformation.
type Session struct {
	ID        string
	CreatedAt time.Time
	LastUsed  time.Time
	KeyColumn string

	POSFile      string
	SupplierFile string

	Result   *merge.Result
	View     *table.Table
	Params   transform.Params
	Warnings []transform.Warning
}

// SessionSummary is the session shape returned to transport.
type SessionSummary struct {
	ID             string              `json:"id"`
	CreatedAt      time.Time           `json:"created_at"`
	KeyColumn      string              `json:"key_column"`
	POSFile        string              `json:"pos_file"`
	SupplierFile   string              `json:"supplier_file"`
	MergedRows     int                 `json:"merged_rows"`
	ViewRows       int                 `json:"view_rows"`
	ViewColumns    []string            `json:"view_columns"`
	MergedColumns  []string            `json:"merged_columns"`
	UnmatchedPOS   int                 `json:"unmatched_pos"`
	UnmatchedSupp  int                 `json:"unmatched_supplier"`
	Message        string              `json:"message,omitempty"`
	Warnings       []transform.Warning `json:"warnings,omitempty"`
	PreviewColumns []string            `json:"preview_columns,omitempty"`
	PreviewRows    []map[string]any    `json:"preview_rows,omitempty"`
}

// MergeService owns merge sessions and drives the load, merge, transform
// and export stages.
type MergeService struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	keyColumn string
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewMergeService creates a merge service. keyColumn is the default join
// column used when a request does not name one.
func NewMergeService(keyColumn string, logger *slog.Logger) *MergeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MergeService{
		sessions:  make(map[string]*Session),
		keyColumn: keyColumn,
		validate:  validator.New(),
		logger:    infrastructure.WithComponent(logger, "merge_service"),
	}
}

// CreateSession loads both uploads, merges them on keyColumn (or the
// configured default when empty) and stores the result under a fresh
// session ID. Both files are loaded concurrently.
func (s *MergeService) CreateSession(ctx context.Context, pos, supplier FileUpload, keyColumn string) (*SessionSummary, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	if keyColumn == "" {
		keyColumn = s.keyColumn
	}

	var posTable, suppTable *table.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.loadUpload(gctx, pos)
		posTable = t
		return err
	})
	g.Go(func() error {
		t, err := s.loadUpload(gctx, supplier)
		suppTable = t
		return err
	})
	if err := g.Wait(); err != nil {
		mergeFailuresTotal.WithLabelValues("load").Inc()
		return nil, err
	}

	result, err := merge.Merge(
		merge.Input{Name: "POS", Table: posTable},
		merge.Input{Name: "Supplier", Table: suppTable},
		keyColumn,
	)
	if err != nil {
		mergeFailuresTotal.WithLabelValues("merge").Inc()
		return nil, err
	}

	now := time.Now()
	sess := &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		LastUsed:     now,
		KeyColumn:    keyColumn,
		POSFile:      pos.Filename,
		SupplierFile: supplier.Filename,
		Result:       result,
		View:         result.Merged,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	activeSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	mergesTotal.Inc()
	mergedRows.Observe(float64(result.Merged.NumRows()))

	s.logger.InfoContext(ctx, "merge session created",
		slog.String("session_id", sess.ID),
		slog.String("key_column", keyColumn),
		slog.Int("merged_rows", result.Merged.NumRows()),
		slog.Int("unmatched_pos", result.UnmatchedA.NumRows()),
		slog.Int("unmatched_supplier", result.UnmatchedB.NumRows()),
	)

	return s.summarize(sess, true), nil
}

// Session returns the summary of an existing session.
func (s *MergeService) Session(ctx context.Context, id string) (*SessionSummary, error) {
	sess, _, err := s.touch(id)
	if err != nil {
		return nil, err
	}
	return s.summarize(sess, true), nil
}

// ApplyTransform recomputes the working view from the original merged table
// using the given parameters. Each call replaces the previous view rather
// than stacking on top of it, so the caller always transforms the full
// merge result.
func (s *MergeService) ApplyTransform(ctx context.Context, id string, params transform.Params) (*SessionSummary, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid transform parameters: %w", err)
	}

	sess, state, err := s.touch(id)
	if err != nil {
		return nil, err
	}

	view, warnings, err := transform.Apply(state.result.Merged, params)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess.View = view
	sess.Params = params
	sess.Warnings = warnings
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "transform applied",
		slog.String("session_id", id),
		slog.Int("view_rows", view.NumRows()),
		slog.Int("view_columns", view.NumCols()),
		slog.Int("filters_skipped", len(warnings)),
	)

	return s.summarize(sess, true), nil
}

// Export serializes the current view of a session in the requested format.
// The Excel export additionally carries the unmatched rows from both sides.
func (s *MergeService) Export(ctx context.Context, id string, format exporter.Format) (*exporter.Result, error) {
	_, state, err := s.touch(id)
	if err != nil {
		return nil, err
	}

	res, err := exporter.Export(state.view, format, &exporter.Aux{
		UnmatchedA: state.result.UnmatchedA,
		UnmatchedB: state.result.UnmatchedB,
	})
	if err != nil {
		return nil, err
	}

	exportsTotal.WithLabelValues(string(format)).Inc()
	s.logger.InfoContext(ctx, "export generated",
		slog.String("session_id", id),
		slog.String("format", string(format)),
		slog.Int("bytes", len(res.Bytes)),
	)
	return res, nil
}

// StartJanitor launches the background loop that evicts sessions idle for
// longer than the TTL. It stops when ctx is cancelled.
func (s *MergeService) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictExpired(time.Now())
			}
		}
	}()
}

func (s *MergeService) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if now.Sub(sess.LastUsed) > sessionTTL {
			delete(s.sessions, id)
			s.logger.Info("session expired", slog.String("session_id", id))
		}
	}
	activeSessions.Set(float64(len(s.sessions)))
}

// sessionState is a consistent snapshot of a session's mutable pointers,
// taken under the service mutex. Tables are immutable once built, so the
// snapshot stays valid after the lock is released.
type sessionState struct {
	view   *table.Table
	result *merge.Result
}

func (s *MergeService) touch(id string) (*Session, sessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, sessionState{}, ErrSessionNotFound
	}
	sess.LastUsed = time.Now()
	return sess, sessionState{view: sess.View, result: sess.Result}, nil
}

func (s *MergeService) loadUpload(ctx context.Context, f FileUpload) (*table.Table, error) {
	format := loader.DetectFormat(f.Filename)
	if format == loader.FormatUnknown {
		return nil, &loader.FormatError{Filename: f.Filename}
	}

	start := time.Now()
	t, err := loader.Load(bytes.NewReader(f.Data), format)
	if err != nil {
		s.logger.WarnContext(ctx, "file load failed",
			slog.String("filename", f.Filename),
			slog.String("format", string(format)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	loadDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())

	s.logger.InfoContext(ctx, "file loaded",
		slog.String("filename", f.Filename),
		slog.String("format", string(format)),
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumCols()),
	)
	return t, nil
}

// previewLimit caps the number of rows included in session summaries.
const previewLimit = 20

func (s *MergeService) summarize(sess *Session, withPreview bool) *SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := &SessionSummary{
		ID:            sess.ID,
		CreatedAt:     sess.CreatedAt,
		KeyColumn:     sess.KeyColumn,
		POSFile:       sess.POSFile,
		SupplierFile:  sess.SupplierFile,
		MergedRows:    sess.Result.Merged.NumRows(),
		ViewRows:      sess.View.NumRows(),
		ViewColumns:   sess.View.ColumnNames(),
		MergedColumns: sess.Result.Merged.ColumnNames(),
		UnmatchedPOS:  sess.Result.UnmatchedA.NumRows(),
		UnmatchedSupp: sess.Result.UnmatchedB.NumRows(),
		Warnings:      sess.Warnings,
	}

	// An empty join is valid output; the caller gets a warning, not an error.
	if sess.Result.Merged.IsEmpty() {
		sum.Message = "No matching records found between the two files"
	}

	if withPreview {
		n := sess.View.NumRows()
		if n > previewLimit {
			n = previewLimit
		}
		sum.PreviewColumns = sess.View.ColumnNames()
		rows := make([]map[string]any, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, sess.View.RowMap(i))
		}
		sum.PreviewRows = rows
	}
	return sum
}
