package blocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/store/rows"
	"github.com/rs/zerolog"
)

// ErrNoBracketingBlock is matched by every ResolutionError.
var ErrNoBracketingBlock = errors.New("no bracketing block")

// spanQuery reads both bounds in one round trip. $1 is the span high, $2 the span low.
const spanQuery = `
	with max as (
		select height from blocks where timestamp <= $1 order by timestamp desc limit 1
	),
	min as (
		select height from blocks where timestamp >= $2 order by timestamp limit 1
	)
	select (select height from min) as low, (select height from max) as high
`

// ResolutionError reports which side of a time span has no block in the store.
// MissingHigh means no block is at or before the span high (the span ends before
// genesis); MissingLow means no block is at or after the span low (the span
// starts past the chain tip).
type ResolutionError struct {
	Span        domain.TimeSpan
	MissingLow  bool
	MissingHigh bool
}

func (e *ResolutionError) Error() string {
	var side string
	switch {
	case e.MissingLow && e.MissingHigh:
		side = "either bound"
	case e.MissingLow:
		side = "low bound"
	default:
		side = "high bound"
	}
	return fmt.Sprintf("%s for %s of span %s - %s", ErrNoBracketingBlock, side,
		e.Span.Low.Format("2006-01-02T15:04:05Z"), e.Span.High.Format("2006-01-02T15:04:05Z"))
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrNoBracketingBlock
}

// Resolver maps time spans onto block height ranges.
type Resolver interface {
	ForTimeSpan(ctx context.Context, span domain.TimeSpan) (domain.BlockSpan, error)
	FromDate(ctx context.Context, date domain.DateLike, days int64) (domain.BlockSpan, error)
	ForDateRange(ctx context.Context, start, end domain.DateLike) (domain.BlockSpan, error)
}

type resolver struct {
	db rows.Querier
}

func NewResolver(db rows.Querier) Resolver {
	return &resolver{db: db}
}

func (r *resolver) ForTimeSpan(ctx context.Context, span domain.TimeSpan) (domain.BlockSpan, error) {
	var low, high sql.NullInt64
	err := r.db.QueryRowContext(ctx, spanQuery, span.High, span.Low).Scan(&low, &high)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BlockSpan{}, &ResolutionError{Span: span, MissingLow: true, MissingHigh: true}
	}
	if err != nil {
		return domain.BlockSpan{}, fmt.Errorf("block span query failed: %w", err)
	}

	if !low.Valid || !high.Valid {
		return domain.BlockSpan{}, &ResolutionError{
			Span:        span,
			MissingLow:  !low.Valid,
			MissingHigh: !high.Valid,
		}
	}

	blockSpan := domain.BlockSpan{Low: low.Int64, High: high.Int64}
	zerolog.Ctx(ctx).Debug().
		Time("span_low", span.Low).
		Time("span_high", span.High).
		Int64("block_low", blockSpan.Low).
		Int64("block_high", blockSpan.High).
		Msg("resolved block span")

	return blockSpan, nil
}

func (r *resolver) FromDate(ctx context.Context, date domain.DateLike, days int64) (domain.BlockSpan, error) {
	return r.ForTimeSpan(ctx, domain.NewTimeSpan(date, days))
}

func (r *resolver) ForDateRange(ctx context.Context, start, end domain.DateLike) (domain.BlockSpan, error) {
	return r.ForTimeSpan(ctx, domain.TimeSpanForRange(start, end))
}
