package position

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/arena/internal/domain"
	"github.com/assist-by/arena/internal/store"
)

// fakeStore는 재조정 대상 저장소의 인메모리 구현입니다
type fakeStore struct {
	positions map[string]store.Position // 표준 심볼 키
	buyOrders map[string]*store.Order   // 거래소 심볼 키
	deleted   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		positions: make(map[string]store.Position),
		buyOrders: make(map[string]*store.Order),
	}
}

func (f *fakeStore) ListPositions(ctx context.Context, agentID string) ([]store.Position, error) {
	out := make([]store.Position, 0, len(f.positions))
	for _, p := range f.positions {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) UpsertPosition(ctx context.Context, position store.Position) error {
	if existing, ok := f.positions[position.Symbol]; ok {
		position.ID = existing.ID
	}
	f.positions[position.Symbol] = position
	return nil
}

func (f *fakeStore) DeletePosition(ctx context.Context, agentID, symbol string) error {
	delete(f.positions, symbol)
	f.deleted = append(f.deleted, symbol)
	return nil
}

func (f *fakeStore) LatestBuyOrder(ctx context.Context, agentID, symbol string) (*store.Order, error) {
	return f.buyOrders[symbol], nil
}

func TestReconcilerSync(t *testing.T) {
	ctx := context.Background()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	t.Run("새 포지션은 최근 매수 주문의 메타데이터를 상속", func(t *testing.T) {
		fs := newFakeStore()
		fs.buyOrders["BTCUSDT"] = &store.Order{
			ID:        "order-1",
			Strategy:  "momentum",
			Reasoning: "돌파 확인",
		}

		r := NewReconciler(fs, logger)
		err := r.Sync(ctx, "agent-1", []domain.ExchangePosition{
			{Symbol: "BTCUSDT", PositionSide: domain.LongPosition, Quantity: 0.003, EntryPrice: 50000, MarkPrice: 51000, UnrealizedPnL: 3, Leverage: 3},
		})
		require.NoError(t, err)

		pos, ok := fs.positions["BTC"]
		require.True(t, ok)
		assert.Equal(t, domain.DirectionLong, pos.Side)
		assert.Equal(t, 0.003, pos.Size)
		assert.Equal(t, "momentum", pos.Strategy)
		assert.Equal(t, "order-1", pos.OpenOrderID)
		// 증거금 50 USD 대비 +3 USD -> +6%
		assert.InDelta(t, 6.0, pos.UnrealizedPnLPct, 1e-6)
	})

	t.Run("기존 포지션은 전략 메타데이터를 유지하며 갱신", func(t *testing.T) {
		fs := newFakeStore()
		fs.positions["ETH"] = store.Position{
			AgentID: "agent-1", Symbol: "ETH", Side: domain.DirectionLong,
			Size: 0.5, Strategy: "reversal", Reasoning: "과매도", OpenOrderID: "order-7",
		}

		r := NewReconciler(fs, logger)
		err := r.Sync(ctx, "agent-1", []domain.ExchangePosition{
			{Symbol: "ETHUSDT", PositionSide: domain.LongPosition, Quantity: 0.6, EntryPrice: 3000, MarkPrice: 2900, UnrealizedPnL: -60, Leverage: 3},
		})
		require.NoError(t, err)

		pos := fs.positions["ETH"]
		assert.Equal(t, 0.6, pos.Size)
		assert.Equal(t, "reversal", pos.Strategy)
		assert.Equal(t, "order-7", pos.OpenOrderID)
	})

	t.Run("거래소가 보고하지 않는 포지션은 삭제", func(t *testing.T) {
		fs := newFakeStore()
		fs.positions["BNB"] = store.Position{AgentID: "agent-1", Symbol: "BNB", Side: domain.DirectionShort, Size: 1.5}
		fs.positions["BTC"] = store.Position{AgentID: "agent-1", Symbol: "BTC", Side: domain.DirectionLong, Size: 0.002}

		r := NewReconciler(fs, logger)
		err := r.Sync(ctx, "agent-1", []domain.ExchangePosition{
			{Symbol: "BTCUSDT", PositionSide: domain.LongPosition, Quantity: 0.002, EntryPrice: 50000, MarkPrice: 50000, Leverage: 3},
		})
		require.NoError(t, err)

		assert.NotContains(t, fs.positions, "BNB")
		assert.Contains(t, fs.positions, "BTC")
		assert.Equal(t, []string{"BNB"}, fs.deleted)
	})

	t.Run("수량 0 보고는 청산으로 해석", func(t *testing.T) {
		fs := newFakeStore()
		fs.positions["SOL"] = store.Position{AgentID: "agent-1", Symbol: "SOL", Side: domain.DirectionLong, Size: 10}

		r := NewReconciler(fs, logger)
		err := r.Sync(ctx, "agent-1", []domain.ExchangePosition{
			{Symbol: "SOLUSDT", PositionSide: domain.LongPosition, Quantity: 0},
		})
		require.NoError(t, err)

		assert.Empty(t, fs.positions)
	})

	t.Run("같은 보고로 두 번 실행해도 결과가 같음", func(t *testing.T) {
		fs := newFakeStore()
		report := []domain.ExchangePosition{
			{Symbol: "XRPUSDT", PositionSide: domain.BothPosition, Quantity: -500, EntryPrice: 0.5, MarkPrice: 0.48, UnrealizedPnL: 10, Leverage: 3},
		}

		r := NewReconciler(fs, logger)
		require.NoError(t, r.Sync(ctx, "agent-1", report))
		first := fs.positions["XRP"]

		require.NoError(t, r.Sync(ctx, "agent-1", report))
		second := fs.positions["XRP"]

		assert.Equal(t, first, second)
		assert.Equal(t, domain.DirectionShort, second.Side)
		assert.Equal(t, 500.0, second.Size)
		assert.Empty(t, fs.deleted)
	})
}
