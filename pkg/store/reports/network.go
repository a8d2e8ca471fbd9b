package reports

import (
	"context"
	"fmt"

	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/store/rows"
)

// NetworkRewards summarizes per-block reward totals inside a span. Avg is
// the mean of those totals, which the query already computes.
type NetworkRewards struct {
	Min    float64 `json:"min" csv:"min"`
	Max    float64 `json:"max" csv:"max"`
	Total  float64 `json:"total" csv:"total"`
	Median float64 `json:"median" csv:"median"`
	Avg    float64 `json:"avg" csv:"avg"`
	StdDev float64 `json:"stddev" csv:"stddev"`
}

const networkRewardsQuery = `
	with reward_data as (
		select
			r.amount,
			r.gateway,
			r.time
		from rewards r
		where r.block between $1 and $2
	)
	select
		coalesce(min(d.amount) / 100000000, 0)::float8 as min,
		coalesce(max(d.amount) / 100000000, 0)::float8 as max,
		coalesce(sum(d.amount) / 100000000, 0)::float8 as total,
		coalesce(percentile_cont(0.5) within group (order by d.amount) / 100000000, 0)::float8 as median,
		coalesce(avg(d.amount) / 100000000, 0)::float8 as avg,
		coalesce(stddev(d.amount) / 100000000, 0)::float8 as stddev
	from (
		select
			sum(r.amount) as amount
		from reward_data r
		group by r.time
	) d
`

const hotspotsOnlineQuery = `
	select count(*) from gateway_status g
	where g.online = 'online'
`

const chainVarQuery = `
	select value::float8 from vars_inventory where name = $1
`

func scanNetworkRewards(s rows.Scanner) (NetworkRewards, error) {
	var n NetworkRewards
	err := s.Scan(&n.Min, &n.Max, &n.Total, &n.Median, &n.Avg, &n.StdDev)
	return n, err
}

func scanInt64(s rows.Scanner) (int64, error) {
	var v int64
	err := s.Scan(&v)
	return v, err
}

func scanFloat64(s rows.Scanner) (float64, error) {
	var v float64
	err := s.Scan(&v)
	return v, err
}

// NetworkRewards aggregates reward totals across span. An empty span yields zeros.
func (s *store) NetworkRewards(ctx context.Context, span domain.BlockSpan) (NetworkRewards, error) {
	n, err := rows.One(ctx, s.db, scanNetworkRewards, networkRewardsQuery, span.Low, span.High)
	if err != nil {
		return NetworkRewards{}, fmt.Errorf("network rewards query failed: %w", err)
	}
	return n, nil
}

func (s *store) HotspotsOnline(ctx context.Context) (int64, error) {
	n, err := rows.One(ctx, s.db, scanInt64, hotspotsOnlineQuery)
	if err != nil {
		return 0, fmt.Errorf("hotspots online query failed: %w", err)
	}
	return n, nil
}

// ChainVar reads a numeric chain variable by name.
func (s *store) ChainVar(ctx context.Context, name string) (float64, error) {
	v, err := rows.One(ctx, s.db, scanFloat64, chainVarQuery, name)
	if err != nil {
		return 0, fmt.Errorf("chain var %s query failed: %w", name, err)
	}
	return v, nil
}
