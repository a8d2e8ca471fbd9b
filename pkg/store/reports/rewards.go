package reports

import (
	"context"
	"database/sql"
	"iter"
	"time"

	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/store/rows"
)

// securitiesGateway marks reward rows paid to security token holders.
const securitiesGateway = "1Wh4bh"

type ValidatorReward struct {
	Block           int64     `json:"block" csv:"block"`
	Timestamp       time.Time `json:"timestamp" csv:"timestamp"`
	RewardType      string    `json:"reward_type" csv:"reward_type"`
	TransactionHash string    `json:"transaction_hash" csv:"transaction_hash"`
	Validator       *string   `json:"validator" csv:"validator"`
	HNT             float64   `json:"hnt" csv:"hnt"`
	USDOraclePrice  float64   `json:"usd_oracle_price" csv:"usd_oracle_price"`
	USDAmount       float64   `json:"usd_amount" csv:"usd_amount"`
}

const validatorRewardsQuery = `
	select
		t.block,
		to_timestamp(t.time) as timestamp,
		case when gateway = '` + securitiesGateway + `' then 'securities' else 'validator' end as reward_type,
		t.transaction_hash,
		(case when gateway = '` + securitiesGateway + `' then null else gateway end) as validator,
		amount::float8 / 100000000 as hnt,
		coalesce(o.price, 0)::float8 / 100000000 as usd_oracle_price,
		(amount::float8 / 100000000) * (coalesce(o.price, 0)::float8 / 100000000) as usd_amount
	from rewards t
	left join oracle_prices o on o.block = (select max(o2.block) from oracle_prices o2 where o2.block <= t.block)
	where t.block between $1 and $2
	and account = $3
	order by t.block asc
`

func scanValidatorReward(s rows.Scanner) (ValidatorReward, error) {
	var (
		r         ValidatorReward
		validator sql.NullString
	)
	err := s.Scan(&r.Block, &r.Timestamp, &r.RewardType, &r.TransactionHash, &validator,
		&r.HNT, &r.USDOraclePrice, &r.USDAmount)
	if validator.Valid {
		r.Validator = &validator.String
	}
	r.Timestamp = r.Timestamp.UTC()
	return r, err
}

// ValidatorRewards streams every validator and securities reward paid to account inside span.
func (s *store) ValidatorRewards(ctx context.Context, account string, span domain.BlockSpan) iter.Seq2[ValidatorReward, error] {
	return rows.Stream(ctx, s.db, scanValidatorReward, validatorRewardsQuery, span.Low, span.High, account)
}

type HexReward struct {
	Hex    string   `json:"hex" csv:"hex"`
	Amount float64  `json:"amount" csv:"amount"`
	Count  int64    `json:"count" csv:"count"`
	Avg    *float64 `json:"avg,omitempty" csv:"avg"`
}

const hexRewardsQuery = `
	with stats as (
		select r.gateway, sum(r.amount) as amount
		from gateway_inventory g
		left join rewards r on g.address = r.gateway
		where r.gateway is not null
			and g.location_hex is not null
			and r.block between $1 and $2
		group by r.gateway
	)
	select
		g.location_hex as hex,
		(sum(s.amount) / 100000000)::float8 as amount,
		count(s.gateway) as count
	from stats s
		left join gateway_inventory g on s.gateway = g.address
	group by g.location_hex
`

func scanHexReward(s rows.Scanner) (HexReward, error) {
	var r HexReward
	err := s.Scan(&r.Hex, &r.Amount, &r.Count)
	return r, err
}

// HexRewards streams the total rewards per res8 hex with hotspots inside span.
func (s *store) HexRewards(ctx context.Context, span domain.BlockSpan) iter.Seq2[HexReward, error] {
	return rows.Stream(ctx, s.db, scanHexReward, hexRewardsQuery, span.Low, span.High)
}
