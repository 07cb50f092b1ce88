// Package journal ties form validation, the trade repository, analytics and
// the audit trail into the operations the CLI and HTTP API expose.
package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"forex-journal/internal/analytics"
	"forex-journal/internal/audit"
	apperrors "forex-journal/internal/errors"
	"forex-journal/internal/logging"
	"forex-journal/internal/metrics"
	"forex-journal/internal/models"
	"forex-journal/internal/store"
)

// Service is the journal's single writer. Every mutation persists the full
// list and recomputes the analytics snapshot before returning.
type Service struct {
	mu       sync.RWMutex
	repo     *store.Repository
	audit    *audit.Logger
	logger   zerolog.Logger
	validate *validator.Validate
	newID    func() string
	snapshot analytics.Snapshot
}

// Option customizes a Service.
type Option func(*Service)

// WithAudit records mutations to the given audit logger.
func WithAudit(a *audit.Logger) Option {
	return func(s *Service) { s.audit = a }
}

// WithIDGenerator replaces the UUID generator, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService creates a journal service over an already loaded repository.
func NewService(repo *store.Repository, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		logger:   logger.With().Str("component", "journal").Logger(),
		validate: newValidator(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recompute()
	return s
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int  `json:"imported"`
	Skipped  int  `json:"skipped"`
	Replaced bool `json:"replaced"`
}

// Create validates a form, assigns a fresh id, appends and persists the
// trade, and refreshes the snapshot. Nothing is stored on failure.
func (s *Service) Create(ctx context.Context, form TradeForm) (models.TradeRecord, error) {
	logger := logging.WithOperation(s.logger, "create")

	form.Normalize()
	if err := validateForm(s.validate, form); err != nil {
		s.rejected(ctx, err)
		logger.Debug().Err(err).Msg("Trade rejected")
		return models.TradeRecord{}, err
	}

	rec := form.record(s.newID())

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Append(ctx, rec); err != nil {
		return models.TradeRecord{}, fmt.Errorf("failed to save trade: %w", err)
	}
	s.recompute()

	metrics.TradesCreated.Inc()
	logging.LogTradeRecorded(logging.WithTradeID(logger, rec.ID), rec.ID, string(rec.Pair), string(rec.Type), string(rec.Result))
	if err := s.audit.LogTradeCreated(ctx, rec.ID, string(rec.Pair), string(rec.Type), string(rec.Result)); err != nil {
		logger.Warn().Err(err).Msg("Failed to write audit event")
	}
	return rec, nil
}

// Delete removes the trade with the given id. An unknown id returns
// ErrTradeNotFound and leaves the journal untouched.
func (s *Service) Delete(ctx context.Context, id string) (models.TradeRecord, error) {
	logger := logging.WithTradeID(logging.WithOperation(s.logger, "delete"), id)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.repo.Remove(ctx, id)
	if err != nil {
		if aerr := s.audit.LogTradeDeleted(ctx, id, false, err.Error()); aerr != nil {
			logger.Warn().Err(aerr).Msg("Failed to write audit event")
		}
		return models.TradeRecord{}, err
	}
	s.recompute()

	metrics.TradesDeleted.Inc()
	logging.LogTradeDeleted(logger, id)
	if err := s.audit.LogTradeDeleted(ctx, id, true, ""); err != nil {
		logger.Warn().Err(err).Msg("Failed to write audit event")
	}
	return removed, nil
}

// Import validates every form before storing any of them. With replace the
// journal is swapped for the imported list; otherwise forms whose id is
// already present are skipped and the rest are appended in order.
func (s *Service) Import(ctx context.Context, forms []TradeForm, replace bool) (ImportResult, error) {
	logger := logging.WithOperation(s.logger, "import")

	verr := &apperrors.ValidationError{}
	for i := range forms {
		forms[i].Normalize()
		if err := validateForm(s.validate, forms[i]); err != nil {
			var fe *apperrors.ValidationError
			if !apperrors.As(err, &fe) {
				return ImportResult{}, err
			}
			for _, f := range fe.Fields {
				f.Field = fmt.Sprintf("[%d].%s", i, f.Field)
				verr.Fields = append(verr.Fields, f)
			}
		}
	}
	if len(verr.Fields) > 0 {
		s.rejected(ctx, verr)
		_ = s.audit.LogTradesImported(ctx, 0, replace, false, verr.Error())
		return ImportResult{}, verr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The merge runs against the list as stored, and again if another
	// process writes while the import is being saved.
	var result ImportResult
	merge := func(current []models.TradeRecord) ([]models.TradeRecord, error) {
		result = ImportResult{Replaced: replace}
		var next []models.TradeRecord
		seen := make(map[string]struct{})
		if !replace {
			next = current
			for _, t := range next {
				seen[t.ID] = struct{}{}
			}
		}
		for _, f := range forms {
			id := f.ID
			if id == "" {
				id = s.newID()
			}
			if _, dup := seen[id]; dup {
				if replace {
					return nil, apperrors.Wrapf(apperrors.ErrDuplicateTrade, "import contains trade %s twice", id)
				}
				result.Skipped++
				continue
			}
			seen[id] = struct{}{}
			next = append(next, f.record(id))
			result.Imported++
		}
		return next, nil
	}

	if err := s.repo.Update(ctx, merge); err != nil {
		_ = s.audit.LogTradesImported(ctx, 0, replace, false, err.Error())
		return ImportResult{}, fmt.Errorf("failed to save imported trades: %w", err)
	}
	s.recompute()

	metrics.TradesCreated.Add(float64(result.Imported))
	logger.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Bool("replace", replace).
		Msg("Trades imported")
	if err := s.audit.LogTradesImported(ctx, result.Imported, replace, true, ""); err != nil {
		logger.Warn().Err(err).Msg("Failed to write audit event")
	}
	return result, nil
}
// Refresh picks up trades written by another process sharing the store,
// such as the CLI while the API server runs, and recomputes the snapshot
// when the list changed.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.repo.Sync(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh trades: %w", err)
	}
	if changed {
		s.recompute()
	}
	return nil
}

// Get returns one trade by id.
func (s *Service) Get(id string) (models.TradeRecord, error) {
	return s.repo.Get(id)
}

// List returns every trade in insertion order.
func (s *Service) List() []models.TradeRecord {
	return s.repo.List()
}

// Recent returns the last n trades, newest first.
func (s *Service) Recent(n int) []models.TradeRecord {
	return analytics.Recent(s.repo.List(), n)
}

// Snapshot returns the analytics computed after the latest mutation.
func (s *Service) Snapshot() analytics.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// recompute must be called with s.mu held for writing (or during construction).
func (s *Service) recompute() {
	start := time.Now()
	records := s.repo.List()
	s.snapshot = analytics.Compute(records)
	elapsed := time.Since(start)

	metrics.SnapshotDuration.Observe(elapsed.Seconds())
	metrics.TradesStored.Set(float64(len(records)))
	logging.LogSnapshot(s.logger, s.snapshot.TotalTrades, s.snapshot.WinRate, elapsed)
}

func (s *Service) rejected(ctx context.Context, err error) {
	var verr *apperrors.ValidationError
	if !apperrors.As(err, &verr) {
		return
	}
	for _, f := range verr.Fields {
		metrics.TradesRejected.WithLabelValues(fieldLabel(f.Field)).Inc()
		if aerr := s.audit.LogInputValidation(ctx, f.Field, f.Value, f.Message); aerr != nil {
			s.logger.Warn().Err(aerr).Msg("Failed to write audit event")
		}
	}
}

// fieldLabel strips import row prefixes and map keys so the metric label
// set stays bounded.
func fieldLabel(field string) string {
	for i := len(field) - 1; i >= 0; i-- {
		if field[i] == '.' {
			field = field[i+1:]
			break
		}
	}
	for i := 0; i < len(field); i++ {
		if field[i] == '[' {
			return field[:i]
		}
	}
	return field
}
