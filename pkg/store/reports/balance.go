package reports

import (
	"context"
	"fmt"

	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/store/rows"
)

type Balance struct {
	Date      *domain.Date `json:"date,omitempty" csv:"date"`
	Block     int64        `json:"block" csv:"block"`
	DC        int64        `json:"dc" csv:"dc"`
	HNT       float64      `json:"hnt" csv:"hnt"`
	Mobile    float64      `json:"mobile" csv:"mobile"`
	IOT       float64      `json:"iot" csv:"iot"`
	HST       float64      `json:"hst" csv:"hst"`
	StakedHNT float64      `json:"staked_hnt" csv:"staked_hnt"`
}

const balanceQuery = `
	select
		$2::bigint as block,
		greatest(0, max(balance))::float8 / 100000000 as hnt,
		greatest(0, max(mobile_balance))::float8 / 100000000 as mobile,
		greatest(0, max(security_balance))::float8 / 100000000 as hst,
		greatest(0, max(iot_balance))::float8 / 100000000 as iot,
		greatest(0, max(dc_balance))::bigint as dc,
		greatest(0, max(staked_balance))::float8 / 100000000 as staked_hnt
	from accounts
	where
		address = $1 and
		block > $2 and
		block <= $3
`

func scanBalance(s rows.Scanner) (Balance, error) {
	var b Balance
	err := s.Scan(&b.Block, &b.HNT, &b.Mobile, &b.HST, &b.IOT, &b.DC, &b.StakedHNT)
	return b, err
}

// Balance returns the account balances recorded inside span. An account with
// no activity in the span reports zeros.
func (s *store) Balance(ctx context.Context, account string, span domain.BlockSpan) (Balance, error) {
	b, err := rows.One(ctx, s.db, scanBalance, balanceQuery, account, span.Low, span.High)
	if err != nil {
		return Balance{}, fmt.Errorf("balance query failed for %s: %w", account, err)
	}
	return b, nil
}
