package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/incoming"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/realtime"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/reorder"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/sales"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/salesapi"
	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// AnalysisRequest selects the period, policy and view of a suggestion pass.
type AnalysisRequest struct {
	StartDate  time.Time
	EndDate    time.Time
	Policy     string
	Params     reorder.Params
	Supplier   string
	Collection string
	Urgency    string
	SortBy     string
	SortDir    string
	// Limit caps the returned rows; 0 returns all of them.
	Limit int
}

// Analysis is one computed suggestion table.
type Analysis struct {
	StartDate       string                     `json:"start_date"`
	EndDate         string                     `json:"end_date"`
	PeriodDays      int                        `json:"period_days"`
	Policy          string                     `json:"policy"`
	Params          reorder.Params             `json:"params"`
	Suggestions     []domain.ReorderSuggestion `json:"suggestions"`
	Total           int                        `json:"total"`
	Suppliers       []string                   `json:"suppliers"`
	Collections     []string                   `json:"collections"`
	IncomingVersion uint64                     `json:"incoming_version"`
	GeneratedAt     time.Time                  `json:"generated_at"`
}

type lastAnalysis struct {
	req     AnalysisRequest
	dataset *salesapi.Dataset
}

// PurchasingService computes reorder suggestions and sales analytics and
// keeps the last displayed suggestions current as incoming orders change.
type PurchasingService struct {
	source salesapi.Source
	stream *incoming.Stream
	hub    Broadcaster
	now    func() time.Time

	mu   sync.Mutex
	last *lastAnalysis
}

func NewPurchasingService(source salesapi.Source, stream *incoming.Stream, hub Broadcaster) *PurchasingService {
	return &PurchasingService{
		source: source,
		stream: stream,
		hub:    orNoop(hub),
		now:    time.Now,
	}
}

// Analyze fetches sales and the catalog for the period and builds the
// suggestion table. The simple policy works per product, the
// depletion-aware policy per size.
func (s *PurchasingService) Analyze(ctx context.Context, req AnalysisRequest) (*Analysis, error) {
	if err := validatePeriod(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if err := req.Params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	policy, err := reorder.PolicyByName(req.Policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Urgency != "" && !strings.EqualFold(req.Urgency, "all") {
		if _, ok := domain.ParseUrgency(req.Urgency); !ok {
			return nil, fmt.Errorf("%w: unknown urgency %q", ErrInvalidRequest, req.Urgency)
		}
	}

	perSize := policy.Name() == reorder.PolicyDepletionAware
	dataset, err := salesapi.Fetch(ctx, s.source, req.StartDate, req.EndDate, perSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales data: %w", err)
	}

	s.mu.Lock()
	s.last = &lastAnalysis{req: req, dataset: dataset}
	s.mu.Unlock()

	snap, _ := s.stream.Latest()
	analysis := s.build(req, dataset, snap)

	log.Info().
		Str("policy", analysis.Policy).
		Str("start", analysis.StartDate).
		Str("end", analysis.EndDate).
		Int("rows", analysis.Total).
		Msg("purchasing: suggestions computed")
	return analysis, nil
}

func (s *PurchasingService) build(req AnalysisRequest, dataset *salesapi.Dataset, snap incoming.Snapshot) *Analysis {
	policy, _ := reorder.PolicyByName(req.Policy)
	periodDays := reorder.PeriodDays(req.StartDate, req.EndDate)

	opts := reorder.Options{
		Params:     req.Params,
		Policy:     policy,
		PeriodDays: periodDays,
		Supplier:   req.Supplier,
		Collection: req.Collection,
		Incoming:   snap.Quantities,
	}
	if u, ok := domain.ParseUrgency(req.Urgency); ok {
		opts.Urgency = u
	}

	var rows []domain.ReorderSuggestion
	if policy.Name() == reorder.PolicyDepletionAware {
		rows = reorder.BuildSizeSuggestions(dataset.Products, sales.Aggregate(dataset.Lines, sales.ByProductSize), opts)
	} else {
		rows = reorder.BuildProductSuggestions(dataset.Products, sales.Aggregate(dataset.Lines, sales.ByProduct), opts)
	}

	dir := reorder.SortDesc
	if strings.EqualFold(req.SortDir, string(reorder.SortAsc)) {
		dir = reorder.SortAsc
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "urgency"
	}
	reorder.Sort(rows, sortBy, dir)

	total := len(rows)
	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}

	return &Analysis{
		StartDate:       req.StartDate.Format(dateLayout),
		EndDate:         req.EndDate.Format(dateLayout),
		PeriodDays:      periodDays,
		Policy:          policy.Name(),
		Params:          req.Params,
		Suggestions:     rows,
		Total:           total,
		Suppliers:       reorder.Suppliers(dataset.Products),
		Collections:     reorder.Collections(dataset.Products),
		IncomingVersion: snap.Version,
		GeneratedAt:     s.now(),
	}
}

// SalesOverview splits units sold in the period into standalone and bundle
// sales and groups them by product type.
func (s *PurchasingService) SalesOverview(ctx context.Context, start, end time.Time, filter sales.BreakdownFilter) (*domain.SalesOverview, error) {
	if err := validatePeriod(start, end); err != nil {
		return nil, err
	}

	dataset, err := salesapi.Fetch(ctx, s.source, start, end, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales data: %w", err)
	}

	breakdown := sales.Breakdown(dataset.Lines)
	overview := &domain.SalesOverview{
		StartDate:    start.Format(dateLayout),
		EndDate:      end.Format(dateLayout),
		PeriodDays:   reorder.PeriodDays(start, end),
		Products:     sales.FilterAndSort(breakdown, dataset.Products, filter),
		ProductTypes: sales.ByProductType(breakdown, dataset.Products),
	}
	for _, b := range overview.Products {
		overview.TotalStandalone += b.Standalone
		overview.TotalUnits += b.Total
	}
	return overview, nil
}

// Incoming returns the latest incoming quantities snapshot.
func (s *PurchasingService) Incoming() incoming.Snapshot {
	snap, _ := s.stream.Latest()
	return snap
}

// Watch recomputes the last displayed suggestions on every incoming snapshot
// and pushes both to the hub. It returns when ctx is done.
func (s *PurchasingService) Watch(ctx context.Context) {
	for snap := range s.stream.Subscribe(ctx) {
		s.hub.Broadcast(realtime.Event{
			Type:    realtime.EventIncomingUpdated,
			Version: snap.Version,
			Data:    snap.Quantities,
		})

		s.mu.Lock()
		last := s.last
		s.mu.Unlock()
		if last == nil {
			continue
		}

		analysis := s.build(last.req, last.dataset, snap)
		s.hub.Broadcast(realtime.Event{
			Type:    realtime.EventSuggestionsUpdated,
			Version: snap.Version,
			Data:    analysis,
		})
		log.Debug().Uint64("version", snap.Version).Int("rows", analysis.Total).Msg("purchasing: suggestions refreshed")
	}
}

func validatePeriod(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end date are required", ErrInvalidRequest)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidRequest,
			end.Format(dateLayout), start.Format(dateLayout))
	}
	return nil
}
