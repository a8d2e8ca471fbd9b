// Package reports holds the report queries run against a resolved block range.
package reports

import (
	"context"
	"iter"

	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/store/rows"
)

// bones is the number of base units in one token.
const bones = 100000000

type Store interface {
	Balance(ctx context.Context, account string, span domain.BlockSpan) (Balance, error)
	Supply(ctx context.Context, height int64) (Supply, error)
	ValidatorRewards(ctx context.Context, account string, span domain.BlockSpan) iter.Seq2[ValidatorReward, error]
	HexRewards(ctx context.Context, span domain.BlockSpan) iter.Seq2[HexReward, error]
	NetworkRewards(ctx context.Context, span domain.BlockSpan) (NetworkRewards, error)
	HotspotsOnline(ctx context.Context) (int64, error)
	ChainVar(ctx context.Context, name string) (float64, error)
	Hotspots(ctx context.Context, span domain.BlockSpan) iter.Seq2[Hotspot, error]
}

type store struct {
	db rows.Querier
}

func NewStore(db rows.Querier) Store {
	return &store{db: db}
}
