package report

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"testing"
	"time"

	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/store/blocks"
	"github.com/helium/etl-extract/pkg/store/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ForTimeSpan(ctx context.Context, span domain.TimeSpan) (domain.BlockSpan, error) {
	args := m.Called(ctx, span)
	return args.Get(0).(domain.BlockSpan), args.Error(1)
}

func (m *MockResolver) FromDate(ctx context.Context, date domain.DateLike, days int64) (domain.BlockSpan, error) {
	args := m.Called(ctx, date, days)
	return args.Get(0).(domain.BlockSpan), args.Error(1)
}

func (m *MockResolver) ForDateRange(ctx context.Context, start, end domain.DateLike) (domain.BlockSpan, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(domain.BlockSpan), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Balance(ctx context.Context, account string, span domain.BlockSpan) (reports.Balance, error) {
	args := m.Called(ctx, account, span)
	return args.Get(0).(reports.Balance), args.Error(1)
}

func (m *MockStore) Supply(ctx context.Context, height int64) (reports.Supply, error) {
	args := m.Called(ctx, height)
	return args.Get(0).(reports.Supply), args.Error(1)
}

func (m *MockStore) ValidatorRewards(ctx context.Context, account string, span domain.BlockSpan) iter.Seq2[reports.ValidatorReward, error] {
	args := m.Called(ctx, account, span)
	return args.Get(0).(iter.Seq2[reports.ValidatorReward, error])
}

func (m *MockStore) HexRewards(ctx context.Context, span domain.BlockSpan) iter.Seq2[reports.HexReward, error] {
	args := m.Called(ctx, span)
	return args.Get(0).(iter.Seq2[reports.HexReward, error])
}

func (m *MockStore) NetworkRewards(ctx context.Context, span domain.BlockSpan) (reports.NetworkRewards, error) {
	args := m.Called(ctx, span)
	return args.Get(0).(reports.NetworkRewards), args.Error(1)
}

func (m *MockStore) HotspotsOnline(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ChainVar(ctx context.Context, name string) (float64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockStore) Hotspots(ctx context.Context, span domain.BlockSpan) iter.Seq2[reports.Hotspot, error] {
	args := m.Called(ctx, span)
	return args.Get(0).(iter.Seq2[reports.Hotspot, error])
}

func seqOf[T any](values ...T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, v := range values {
			if !yield(v, nil) {
				return
			}
		}
	}
}

func drain[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

func newService(opts Options) (*Service, *MockResolver, *MockStore) {
	resolver := new(MockResolver)
	store := new(MockStore)
	return NewService(resolver, store, opts), resolver, store
}

var (
	jan1 = domain.NewDate(2021, time.January, 1)
	jan2 = domain.NewDate(2021, time.January, 2)
	jan3 = domain.NewDate(2021, time.January, 3)
)

func TestService_Span(t *testing.T) {
	ctx := context.Background()
	svc, resolver, _ := newService(Options{})

	span := domain.NewTimeSpan(jan1, 1)
	resolver.On("ForTimeSpan", ctx, span).Return(domain.BlockSpan{Low: 10, High: 20}, nil)

	got, err := svc.Span(ctx, jan1, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SpanReport{BlockSpan: domain.BlockSpan{Low: 10, High: 20}, TimeSpan: span}, got)
	resolver.AssertExpectations(t)
}

func TestService_Balance(t *testing.T) {
	ctx := context.Background()

	t.Run("one row per end date in order", func(t *testing.T) {
		svc, resolver, store := newService(Options{Concurrency: 2})
		for i, end := range []domain.Date{jan2, jan3} {
			span := domain.BlockSpan{Low: int64(i * 100), High: int64(i*100 + 99)}
			resolver.On("ForDateRange", mock.Anything, end.AddDays(-1), end).Return(span, nil)
			store.On("Balance", mock.Anything, "wallet", span).Return(reports.Balance{Block: span.Low, HNT: float64(i)}, nil)
		}

		got, err := drain(svc.Balance(ctx, "wallet", []domain.Date{jan2, jan3}))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, jan2, *got[0].Date)
		assert.Equal(t, jan3, *got[1].Date)
		assert.Equal(t, int64(100), got[1].Block)
		resolver.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("resolution failure stops at its date", func(t *testing.T) {
		svc, resolver, store := newService(Options{Concurrency: 1})
		resolver.On("ForDateRange", mock.Anything, jan1, jan2).Return(domain.BlockSpan{Low: 1, High: 2}, nil)
		resolver.On("ForDateRange", mock.Anything, jan2, jan3).
			Return(domain.BlockSpan{}, &blocks.ResolutionError{MissingLow: true})
		store.On("Balance", mock.Anything, "wallet", domain.BlockSpan{Low: 1, High: 2}).Return(reports.Balance{Block: 1}, nil)

		got, err := drain(svc.Balance(ctx, "wallet", []domain.Date{jan2, jan3}))
		assert.Len(t, got, 1)
		assert.ErrorIs(t, err, blocks.ErrNoBracketingBlock)
		assert.Contains(t, err.Error(), "balance at 2021-01-03")
	})
}

func TestService_BalanceConcurrencyCeiling(t *testing.T) {
	ctx := context.Background()
	svc, resolver, store := newService(Options{Concurrency: 3})

	var inFlight, peak atomic.Int32
	resolver.On("ForDateRange", mock.Anything, mock.Anything, mock.Anything).Return(domain.BlockSpan{Low: 1, High: 2}, nil)
	store.On("Balance", mock.Anything, "wallet", mock.Anything).
		Run(func(mock.Arguments) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
		}).
		Return(reports.Balance{}, nil)

	ends := make([]domain.Date, 20)
	for i := range ends {
		ends[i] = jan1.AddDays(i)
	}

	got, err := drain(svc.Balance(ctx, "wallet", ends))
	require.NoError(t, err)
	require.Len(t, got, len(ends))
	for i, b := range got {
		assert.Equal(t, ends[i], *b.Date)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestService_Supply(t *testing.T) {
	ctx := context.Background()
	svc, resolver, store := newService(Options{})

	resolver.On("ForDateRange", mock.Anything, domain.Epoch, jan2).Return(domain.BlockSpan{Low: 1, High: 5000}, nil)
	store.On("Supply", mock.Anything, int64(5000)).Return(reports.Supply{Block: 5000, HNT: 42}, nil)

	got, err := drain(svc.Supply(ctx, []domain.Date{jan2}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, reports.Supply{Date: &jan2, Block: 5000, HNT: 42}, got[0])
}

func TestService_ValidatorRewards(t *testing.T) {
	ctx := context.Background()

	t.Run("resolution failure is returned before streaming", func(t *testing.T) {
		svc, resolver, store := newService(Options{})
		resolver.On("ForDateRange", ctx, jan1, jan3).Return(domain.BlockSpan{}, &blocks.ResolutionError{MissingHigh: true})

		seq, err := svc.ValidatorRewards(ctx, "wallet", jan1, jan3)
		assert.Nil(t, seq)
		assert.ErrorIs(t, err, blocks.ErrNoBracketingBlock)
		store.AssertNotCalled(t, "ValidatorRewards", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("streams rows for the resolved span", func(t *testing.T) {
		svc, resolver, store := newService(Options{})
		span := domain.BlockSpan{Low: 3, High: 9}
		resolver.On("ForDateRange", ctx, jan1, jan3).Return(span, nil)
		store.On("ValidatorRewards", ctx, "wallet", span).
			Return(seqOf(reports.ValidatorReward{Block: 3}, reports.ValidatorReward{Block: 7}))

		seq, err := svc.ValidatorRewards(ctx, "wallet", jan1, jan3)
		require.NoError(t, err)
		got, err := drain(seq)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestService_HexRewards(t *testing.T) {
	ctx := context.Background()
	span := domain.BlockSpan{Low: 1, High: 10}

	t.Run("single day has no average", func(t *testing.T) {
		svc, resolver, store := newService(Options{})
		resolver.On("FromDate", ctx, jan2, int64(-1)).Return(span, nil)
		store.On("HexRewards", ctx, span).Return(seqOf(reports.HexReward{Hex: "a", Amount: 10, Count: 2}))

		seq, err := svc.HexRewards(ctx, jan2, -1)
		require.NoError(t, err)
		got, err := drain(seq)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].Avg)
	})

	t.Run("multi day window carries the daily average", func(t *testing.T) {
		svc, resolver, store := newService(Options{})
		resolver.On("FromDate", ctx, jan2, int64(-4)).Return(span, nil)
		store.On("HexRewards", ctx, span).Return(seqOf(reports.HexReward{Hex: "a", Amount: 10, Count: 2}))

		seq, err := svc.HexRewards(ctx, jan2, -4)
		require.NoError(t, err)
		got, err := drain(seq)
		require.NoError(t, err)
		require.NotNil(t, got[0].Avg)
		assert.Equal(t, 2.5, *got[0].Avg)
	})
}

func TestService_NetworkRewards(t *testing.T) {
	ctx := context.Background()
	svc, resolver, store := newService(Options{})
	span := domain.BlockSpan{Low: 1, High: 10}
	rewards := reports.NetworkRewards{Min: 1, Max: 2, Total: 3}

	resolver.On("FromDate", ctx, jan2, int64(-1)).Return(span, nil)
	store.On("NetworkRewards", ctx, span).Return(rewards, nil)
	store.On("HotspotsOnline", ctx).Return(int64(77), nil)
	store.On("ChainVar", ctx, "securities_percent").Return(0.34, nil)
	store.On("ChainVar", ctx, "consensus_percent").Return(0.06, nil)

	got, err := svc.NetworkRewards(ctx, jan2, -1)
	require.NoError(t, err)
	assert.Equal(t, NetworkSummary{
		SecuritiesPercent: 0.34,
		ConsensusPercent:  0.06,
		HotspotsOnline:    77,
		Rewards:           rewards,
	}, got)

	t.Run("store failure", func(t *testing.T) {
		svc, resolver, store := newService(Options{})
		resolver.On("FromDate", ctx, jan2, int64(-1)).Return(span, nil)
		store.On("NetworkRewards", ctx, span).Return(reports.NetworkRewards{}, errors.New("timeout"))

		_, err := svc.NetworkRewards(ctx, jan2, -1)
		assert.EqualError(t, err, "timeout")
	})
}

func TestService_Hotspots(t *testing.T) {
	ctx := context.Background()
	span := domain.BlockSpan{Low: 1, High: 10}
	located := "8828308281fffff"
	broken := "zz"

	cells := func(id string) (float64, float64, error) {
		if id == located {
			return -122.4, 37.7, nil
		}
		return 0, 0, errors.New("bad cell")
	}

	t.Run("fills coordinates", func(t *testing.T) {
		svc, resolver, store := newService(Options{CellToLonLat: cells})
		resolver.On("FromDate", ctx, jan2, int64(-1)).Return(span, nil)
		store.On("Hotspots", ctx, span).Return(seqOf(
			reports.Hotspot{Address: "a", Location: &located},
			reports.Hotspot{Address: "b"},
		))

		seq, err := svc.Hotspots(ctx, jan2, -1)
		require.NoError(t, err)
		got, err := drain(seq)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, -122.4, *got[0].Lng)
		assert.Equal(t, 37.7, *got[0].Lat)
		assert.Nil(t, got[1].Lat)
	})

	t.Run("bad cell aborts the stream", func(t *testing.T) {
		svc, resolver, store := newService(Options{CellToLonLat: cells})
		resolver.On("FromDate", ctx, jan2, int64(-1)).Return(span, nil)
		store.On("Hotspots", ctx, span).Return(seqOf(
			reports.Hotspot{Address: "a", Location: &located},
			reports.Hotspot{Address: "b", Location: &broken},
			reports.Hotspot{Address: "c", Location: &located},
		))

		seq, err := svc.Hotspots(ctx, jan2, -1)
		require.NoError(t, err)
		got, err := drain(seq)
		assert.Len(t, got, 1)
		assert.EqualError(t, err, "hotspot b: bad cell")
	})
}
