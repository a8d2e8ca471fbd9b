// Package report composes block span resolution, report queries and fan-out
// into the row sequences handed to the output formatter.
package report

import (
	"context"
	"fmt"
	"iter"
	"math"

	"github.com/helium/etl-extract/pkg/geo"
	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/services/fanout"
	"github.com/helium/etl-extract/pkg/store/blocks"
	"github.com/helium/etl-extract/pkg/store/reports"
	"github.com/helium/etl-extract/pkg/store/rows"
)

const (
	varSecuritiesPercent = "securities_percent"
	varConsensusPercent  = "consensus_percent"
)

// NetworkSummary is the single-row output of the network rewards report.
type NetworkSummary struct {
	SecuritiesPercent float64                `json:"securities_percent"`
	ConsensusPercent  float64                `json:"consensus_percent"`
	HotspotsOnline    int64                  `json:"hotspots_online"`
	Rewards           reports.NetworkRewards `json:"rewards"`
}

// Reports is the set of reports served by the CLI and the HTTP API.
type Reports interface {
	Span(ctx context.Context, date domain.Date, days int64) (domain.SpanReport, error)
	Balance(ctx context.Context, account string, ends []domain.Date) iter.Seq2[reports.Balance, error]
	Supply(ctx context.Context, ends []domain.Date) iter.Seq2[reports.Supply, error]
	ValidatorRewards(ctx context.Context, account string, start, end domain.Date) (iter.Seq2[reports.ValidatorReward, error], error)
	HexRewards(ctx context.Context, date domain.Date, days int64) (iter.Seq2[reports.HexReward, error], error)
	NetworkRewards(ctx context.Context, date domain.Date, days int64) (NetworkSummary, error)
	Hotspots(ctx context.Context, date domain.Date, days int64) (iter.Seq2[reports.Hotspot, error], error)
}

var _ Reports = (*Service)(nil)

type Options struct {
	// Concurrency caps simultaneous resolve-and-fetch calls in multi-date reports.
	Concurrency int
	// CellToLonLat locates hotspots. Defaults to geo.CellToLonLat.
	CellToLonLat geo.CellToLonLatFunc
}

type Service struct {
	resolver     blocks.Resolver
	store        reports.Store
	concurrency  int
	cellToLonLat geo.CellToLonLatFunc
}

func NewService(resolver blocks.Resolver, store reports.Store, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = fanout.DefaultLimit
	}
	if opts.CellToLonLat == nil {
		opts.CellToLonLat = geo.CellToLonLat
	}
	return &Service{
		resolver:     resolver,
		store:        store,
		concurrency:  opts.Concurrency,
		cellToLonLat: opts.CellToLonLat,
	}
}

// NewFromDB wires the store-backed resolver and report queries over one connection pool.
func NewFromDB(db rows.Querier, opts Options) *Service {
	return NewService(blocks.NewResolver(db), reports.NewStore(db), opts)
}

// Span resolves the block range for days starting at date.
func (s *Service) Span(ctx context.Context, date domain.Date, days int64) (domain.SpanReport, error) {
	span := domain.NewTimeSpan(date, days)
	blockSpan, err := s.resolver.ForTimeSpan(ctx, span)
	if err != nil {
		return domain.SpanReport{}, err
	}
	return domain.SpanReport{BlockSpan: blockSpan, TimeSpan: span}, nil
}

// Balance reports the account balance for the day ending at each of ends,
// in the order given.
func (s *Service) Balance(ctx context.Context, account string, ends []domain.Date) iter.Seq2[reports.Balance, error] {
	return fanout.Ordered(ctx, ends, s.concurrency, func(ctx context.Context, end domain.Date) (reports.Balance, error) {
		span, err := s.resolver.ForDateRange(ctx, end.AddDays(-1), end)
		if err != nil {
			return reports.Balance{}, fmt.Errorf("balance at %s: %w", end, err)
		}
		balance, err := s.store.Balance(ctx, account, span)
		if err != nil {
			return reports.Balance{}, fmt.Errorf("balance at %s: %w", end, err)
		}
		balance.Date = &end
		return balance, nil
	})
}

// Supply reports the running supply as of each of ends, in the order given.
func (s *Service) Supply(ctx context.Context, ends []domain.Date) iter.Seq2[reports.Supply, error] {
	return fanout.Ordered(ctx, ends, s.concurrency, func(ctx context.Context, end domain.Date) (reports.Supply, error) {
		span, err := s.resolver.ForDateRange(ctx, domain.Epoch, end)
		if err != nil {
			return reports.Supply{}, fmt.Errorf("supply at %s: %w", end, err)
		}
		supply, err := s.store.Supply(ctx, span.High)
		if err != nil {
			return reports.Supply{}, fmt.Errorf("supply at %s: %w", end, err)
		}
		supply.Date = &end
		return supply, nil
	})
}

// ValidatorRewards resolves [start, end) and returns the account's reward rows.
func (s *Service) ValidatorRewards(ctx context.Context, account string, start, end domain.Date) (iter.Seq2[reports.ValidatorReward, error], error) {
	span, err := s.resolver.ForDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return s.store.ValidatorRewards(ctx, account, span), nil
}

// HexRewards returns per-hex reward totals. For windows longer than one day
// each row also carries the daily average.
func (s *Service) HexRewards(ctx context.Context, date domain.Date, days int64) (iter.Seq2[reports.HexReward, error], error) {
	span, err := s.resolver.FromDate(ctx, date, days)
	if err != nil {
		return nil, err
	}

	absDays := math.Abs(float64(days))
	return rows.Map(s.store.HexRewards(ctx, span), func(r reports.HexReward) (reports.HexReward, error) {
		if absDays > 1 {
			avg := r.Amount / absDays
			r.Avg = &avg
		}
		return r, nil
	}), nil
}

// NetworkRewards summarizes rewards across the window together with the
// current online hotspot count and reward split variables.
func (s *Service) NetworkRewards(ctx context.Context, date domain.Date, days int64) (NetworkSummary, error) {
	span, err := s.resolver.FromDate(ctx, date, days)
	if err != nil {
		return NetworkSummary{}, err
	}

	rewards, err := s.store.NetworkRewards(ctx, span)
	if err != nil {
		return NetworkSummary{}, err
	}
	online, err := s.store.HotspotsOnline(ctx)
	if err != nil {
		return NetworkSummary{}, err
	}
	securities, err := s.store.ChainVar(ctx, varSecuritiesPercent)
	if err != nil {
		return NetworkSummary{}, err
	}
	consensus, err := s.store.ChainVar(ctx, varConsensusPercent)
	if err != nil {
		return NetworkSummary{}, err
	}

	return NetworkSummary{
		SecuritiesPercent: securities,
		ConsensusPercent:  consensus,
		HotspotsOnline:    online,
		Rewards:           rewards,
	}, nil
}

// Hotspots lists hotspots known at the end of the window with their cell centers.
func (s *Service) Hotspots(ctx context.Context, date domain.Date, days int64) (iter.Seq2[reports.Hotspot, error], error) {
	span, err := s.resolver.FromDate(ctx, date, days)
	if err != nil {
		return nil, err
	}

	return rows.Map(s.store.Hotspots(ctx, span), func(h reports.Hotspot) (reports.Hotspot, error) {
		if h.Location == nil {
			return h, nil
		}
		lon, lat, err := s.cellToLonLat(*h.Location)
		if err != nil {
			return h, fmt.Errorf("hotspot %s: %w", h.Address, err)
		}
		h.Lng = &lon
		h.Lat = &lat
		return h, nil
	}), nil
}
