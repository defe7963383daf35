package accounting

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/arena/internal/domain"
	"github.com/assist-by/arena/internal/store"
)

// fakeStore는 잔고 회계 대상 저장소의 인메모리 구현입니다
type fakeStore struct {
	positions []store.Position
	orders    []store.Order
	latest    *store.PerformanceSnapshot

	capitalUpdates int
	lastCapital    float64
	lastPnL        float64
	lastPnLPct     float64
	snapshots      []store.PerformanceSnapshot
}

func (f *fakeStore) ListPositions(ctx context.Context, agentID string) ([]store.Position, error) {
	return f.positions, nil
}

func (f *fakeStore) ListFilledOrders(ctx context.Context, agentID string) ([]store.Order, error) {
	return f.orders, nil
}

func (f *fakeStore) UpdateAgentCapital(ctx context.Context, id string, capital, totalPnL, totalPnLPct float64) error {
	f.capitalUpdates++
	f.lastCapital = capital
	f.lastPnL = totalPnL
	f.lastPnLPct = totalPnLPct
	return nil
}

func (f *fakeStore) LatestSnapshot(ctx context.Context, agentID string) (*store.PerformanceSnapshot, error) {
	return f.latest, nil
}

func (f *fakeStore) CreateSnapshot(ctx context.Context, snapshot store.PerformanceSnapshot) error {
	f.snapshots = append(f.snapshots, snapshot)
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestComputeBalance(t *testing.T) {
	a := NewAccountant(&fakeStore{}, time.Minute, quietLogger())
	agent := store.Agent{ID: "agent-1", Name: "nova", InitialCapital: 100}

	testCases := []struct {
		name         string
		in           BalanceInput
		wantBalance  float64
		wantStrategy string
	}{
		{
			name: "거래소 마진 잔고가 최우선",
			in: BalanceInput{
				Agent:   agent,
				Account: &domain.AccountInfo{TotalMarginBalance: 123.45, AvailableBalance: 90},
			},
			wantBalance:  123.45,
			wantStrategy: "exchange-margin-balance",
		},
		{
			name: "마진 잔고가 없으면 가용 잔고에 미실현 손익을 합산",
			in: BalanceInput{
				Agent:   agent,
				Account: &domain.AccountInfo{AvailableBalance: 90},
				Positions: []store.Position{
					{Symbol: "BTC", UnrealizedPnL: 5},
					{Symbol: "ETH", UnrealizedPnL: -2},
				},
			},
			wantBalance:  93,
			wantStrategy: "available-plus-unrealized",
		},
		{
			name: "거래소 조회가 전혀 불가능하면 주문 재생",
			in: BalanceInput{
				Agent: agent,
				Orders: []store.Order{
					{Symbol: "BTCUSDT", Side: domain.Buy, ExecutedQty: 1, AvgPrice: 100},
					{Symbol: "BTCUSDT", Side: domain.Sell, ExecutedQty: 1, AvgPrice: 120},
				},
			},
			wantBalance:  120,
			wantStrategy: "order-replay",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			balance, strategy := a.ComputeBalance(tc.in)
			assert.InDelta(t, tc.wantBalance, balance, 1e-9)
			assert.Equal(t, tc.wantStrategy, strategy)
		})
	}
}

func TestReplayOrders(t *testing.T) {
	testCases := []struct {
		name    string
		initial float64
		orders  []store.Order
		want    float64
	}{
		{
			name:    "주문이 없으면 초기 자본 그대로",
			initial: 100,
			want:    100,
		},
		{
			name:    "롱 청산 손익 반영",
			initial: 100,
			orders: []store.Order{
				{Symbol: "BTCUSDT", Side: domain.Buy, ExecutedQty: 0.5, AvgPrice: 50000},
				{Symbol: "BTCUSDT", Side: domain.Sell, ExecutedQty: 0.5, AvgPrice: 52000},
			},
			want: 1100,
		},
		{
			name:    "숏 청산은 가격 하락이 이익",
			initial: 100,
			orders: []store.Order{
				{Symbol: "ETHUSDT", Side: domain.Sell, ExecutedQty: 1, AvgPrice: 3000},
				{Symbol: "ETHUSDT", Side: domain.Buy, ExecutedQty: 1, AvgPrice: 2900},
			},
			want: 200,
		},
		{
			name:    "같은 방향 주문은 평균 단가로 합산",
			initial: 100,
			orders: []store.Order{
				{Symbol: "SOLUSDT", Side: domain.Buy, ExecutedQty: 1, AvgPrice: 100},
				{Symbol: "SOLUSDT", Side: domain.Buy, ExecutedQty: 1, AvgPrice: 120},
				{Symbol: "SOLUSDT", Side: domain.Sell, ExecutedQty: 2, AvgPrice: 130},
			},
			want: 140, // 평균 단가 110, 2개 청산 -> +40
		},
		{
			name:    "체결 정보가 없는 주문은 무시",
			initial: 100,
			orders: []store.Order{
				{Symbol: "BTCUSDT", Side: domain.Buy, ExecutedQty: 0, AvgPrice: 50000},
			},
			want: 100,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, replayOrders(tc.initial, tc.orders), 1e-9)
		})
	}
}

func TestRefreshAgent(t *testing.T) {
	ctx := context.Background()
	agent := store.Agent{ID: "agent-1", Name: "nova", InitialCapital: 100}

	t.Run("잔고와 손익 요약을 갱신하고 스냅샷을 기록", func(t *testing.T) {
		fs := &fakeStore{}
		a := NewAccountant(fs, time.Minute, quietLogger())

		err := a.RefreshAgent(ctx, agent, &domain.AccountInfo{TotalMarginBalance: 110})
		require.NoError(t, err)

		assert.Equal(t, 1, fs.capitalUpdates)
		assert.InDelta(t, 110.0, fs.lastCapital, 1e-9)
		assert.InDelta(t, 10.0, fs.lastPnL, 1e-9)
		assert.InDelta(t, 10.0, fs.lastPnLPct, 1e-9)
		require.Len(t, fs.snapshots, 1)
		assert.InDelta(t, 110.0, fs.snapshots[0].AccountValue, 1e-9)
	})

	t.Run("최근 스냅샷이 있으면 간격이 찰 때까지 기록하지 않음", func(t *testing.T) {
		fs := &fakeStore{
			latest: &store.PerformanceSnapshot{CreatedAt: time.Now().Add(-10 * time.Second)},
		}
		a := NewAccountant(fs, time.Minute, quietLogger())

		require.NoError(t, a.RefreshAgent(ctx, agent, &domain.AccountInfo{TotalMarginBalance: 110}))

		assert.Equal(t, 1, fs.capitalUpdates)
		assert.Empty(t, fs.snapshots)
	})

	t.Run("간격이 지난 스냅샷은 새로 기록", func(t *testing.T) {
		fs := &fakeStore{
			latest: &store.PerformanceSnapshot{CreatedAt: time.Now().Add(-2 * time.Minute)},
		}
		a := NewAccountant(fs, time.Minute, quietLogger())

		require.NoError(t, a.RefreshAgent(ctx, agent, &domain.AccountInfo{TotalMarginBalance: 110}))
		assert.Len(t, fs.snapshots, 1)
	})

	t.Run("유효하지 않은 잔고는 기록을 건드리지 않음", func(t *testing.T) {
		// 주문도 없고 초기 자본도 0이면 재생 결과가 0이 됩니다
		fs := &fakeStore{}
		a := NewAccountant(fs, time.Minute, quietLogger())

		err := a.RefreshAgent(ctx, store.Agent{ID: "agent-2", Name: "orion", InitialCapital: 0}, nil)
		require.NoError(t, err)

		assert.Equal(t, 0, fs.capitalUpdates)
		assert.Empty(t, fs.snapshots)
	})

	t.Run("거래소 조회 실패 시 주문 재생으로 폴백", func(t *testing.T) {
		fs := &fakeStore{
			orders: []store.Order{
				{Symbol: "BTCUSDT", Side: domain.Buy, ExecutedQty: 1, AvgPrice: 100},
				{Symbol: "BTCUSDT", Side: domain.Sell, ExecutedQty: 1, AvgPrice: 90},
			},
		}
		a := NewAccountant(fs, time.Minute, quietLogger())

		require.NoError(t, a.RefreshAgent(ctx, agent, nil))

		assert.InDelta(t, 90.0, fs.lastCapital, 1e-9)
		assert.InDelta(t, -10.0, fs.lastPnL, 1e-9)
	})
}
