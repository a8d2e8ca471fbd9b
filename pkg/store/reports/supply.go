package reports

import (
	"context"
	"fmt"

	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/store/rows"
)

type Supply struct {
	Date  *domain.Date `json:"date,omitempty" csv:"date"`
	Block int64        `json:"block" csv:"block"`
	HNT   float64      `json:"hnt" csv:"hnt"`
}

const supplyQuery = `
	with balances as (
		select address, max(balance) as balance
		from accounts
		where block <= $1 and balance > 0
		group by address
	)
	select $1::bigint as block, greatest(0, coalesce(sum(balance), 0)::float8) / 100000000 as hnt from balances
`

func scanSupply(s rows.Scanner) (Supply, error) {
	var sp Supply
	err := s.Scan(&sp.Block, &sp.HNT)
	return sp, err
}

// Supply returns the running token supply at height.
func (s *store) Supply(ctx context.Context, height int64) (Supply, error) {
	sp, err := rows.One(ctx, s.db, scanSupply, supplyQuery, height)
	if err != nil {
		return Supply{}, fmt.Errorf("supply query failed at block %d: %w", height, err)
	}
	return sp, nil
}
