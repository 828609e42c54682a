package search

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/surpriseme/recipes/internal/domain/filter"
	"github.com/surpriseme/recipes/internal/ports/outbound"
	apperrors "github.com/surpriseme/recipes/pkg/errors"
)

// Outcome labels used when recording a submission
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Metrics receives search measurements
type Metrics interface {
	SearchStarted()
	SearchFinished(outcome string, elapsed time.Duration, results int)
}

type nopMetrics struct{}

func (nopMetrics) SearchStarted()                            {}
func (nopMetrics) SearchFinished(string, time.Duration, int) {}

// Service runs the submit cycle against a RecipeSearcher
type Service struct {
	searcher outbound.RecipeSearcher
	metrics  Metrics
	logger   *zap.Logger
	newID    func() string
}

// Option customises a Service
type Option func(*Service)

// WithMetrics records submissions to m
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithIDGenerator replaces the uuid based notice id generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// NewService creates a search service
func NewService(searcher outbound.RecipeSearcher, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		searcher: searcher,
		metrics:  nopMetrics{},
		logger:   logger,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs one submission through the cycle:
//
//   - a rejected validation result is recorded on the store and returned as
//     a VALIDATION_FAILED error; nothing is fetched
//   - otherwise the store enters Loading, exactly one search is issued, and
//     the outcome is dispatched back to the store
//
// The returned State is the store state right after this submission's
// outcome was applied. A fetch failure is returned as an error too, but it
// has already been turned into a notice on the store.
func (s *Service) Submit(ctx context.Context, store *Store, res filter.Result) (State, error) {
	if !res.Valid {
		s.metrics.SearchFinished(OutcomeRejected, 0, 0)
		s.logger.Debug("Search submission rejected", zap.String("errors", res.Error()))
		return store.Dispatch(SubmissionRejected{Errors: res.Errors}), validationError(res)
	}

	started := store.Dispatch(FetchStarted{Submission: res.Submission})
	sel := started.Filters

	s.logger.Debug("Search submitted",
		zap.String("meal_type", sel.Meal().String()),
		zap.Strings("allergies", sel.Allergies()),
		zap.Strings("diets", sel.Diets()),
		zap.String("cook_time", sel.CookTime()),
	)

	s.metrics.SearchStarted()
	begin := time.Now()
	result, err := s.searcher.Search(ctx, sel)
	elapsed := time.Since(begin)

	if err != nil {
		s.metrics.SearchFinished(OutcomeFailure, elapsed, 0)
		s.logger.Warn("Search failed",
			zap.String("code", string(apperrors.GetCode(err))),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return store.Dispatch(FetchFailed{NoticeID: s.newID()}), err
	}

	s.metrics.SearchFinished(OutcomeSuccess, elapsed, len(result.Records))
	s.logger.Info("Search completed",
		zap.Int("hits", len(result.Records)),
		zap.Int("bytes", len(result.Raw)),
		zap.Duration("elapsed", elapsed),
	)
	return store.Dispatch(FetchSucceeded{
		NoticeID: s.newID(),
		Records:  result.Records,
		Raw:      result.Raw,
	}), nil
}

// Update applies a filter control event to the store
func (s *Service) Update(store *Store, ev filter.Event) (State, error) {
	// Apply first so invalid events surface as errors instead of being
	// swallowed by the reducer.
	if _, err := filter.Apply(store.State().Filters, ev); err != nil {
		return store.State(), apperrors.NewBadRequestError(err.Error()).WithCause(err)
	}
	return store.Dispatch(FilterChanged{Event: ev}), nil
}

func validationError(res filter.Result) error {
	errs := make([]apperrors.ValidationError, len(res.Errors))
	for i, fe := range res.Errors {
		errs[i] = apperrors.ValidationError{Field: fe.Field, Tag: fe.Tag, Message: fe.Message}
	}
	return apperrors.NewValidationErrors(errs)
}
