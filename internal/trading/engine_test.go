package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/arena/internal/domain"
	"github.com/assist-by/arena/internal/store"
)

func TestOrderStatusFromExchange(t *testing.T) {
	testCases := []struct {
		exchange string
		want     domain.OrderStatus
	}{
		{"FILLED", domain.OrderFilled},
		{"PARTIALLY_FILLED", domain.OrderPartiallyFilled},
		{"REJECTED", domain.OrderRejected},
		{"EXPIRED", domain.OrderRejected},
		{"CANCELED", domain.OrderRejected},
		{"NEW", domain.OrderFilled},
	}

	for _, tc := range testCases {
		t.Run(tc.exchange, func(t *testing.T) {
			assert.Equal(t, tc.want, orderStatusFromExchange(tc.exchange))
		})
	}
}

func TestBuildRiskContext(t *testing.T) {
	agent := store.Agent{ID: "agent-1", Name: "nova", CurrentCapital: 150}
	positions := []store.Position{
		{Symbol: "BTC", Side: domain.DirectionLong, UnrealizedPnLPct: -12.5},
		{Symbol: "SOL", Side: domain.DirectionShort, UnrealizedPnLPct: 3.2},
	}
	quotes := domain.QuoteMap{"BTC": {Symbol: "BTC", CurrentPrice: 50000}}

	rctx := buildRiskContext(agent, positions, quotes, 2)

	assert.InDelta(t, 150.0, rctx.Capital, 1e-9)
	assert.Equal(t, 2, rctx.TradesThisCycle)
	require.Len(t, rctx.OpenPositions, 2)
	assert.Equal(t, domain.DirectionLong, rctx.OpenPositions["BTC"].Side)
	assert.InDelta(t, -12.5, rctx.OpenPositions["BTC"].UnrealizedPnLPct, 1e-9)
}

func TestBuildMarketContext(t *testing.T) {
	agent := store.Agent{ID: "agent-1", Name: "nova", CurrentCapital: 150}
	positions := []store.Position{
		{Symbol: "ETH", Side: domain.DirectionLong, Size: 0.5, EntryPrice: 3000, CurrentPrice: 3100, Leverage: 3},
	}
	quotes := domain.QuoteMap{
		"SOL": {Symbol: "SOL", CurrentPrice: 150},
		"BTC": {Symbol: "BTC", CurrentPrice: 50000},
	}

	mc := buildMarketContext(agent, positions, quotes, 1)

	assert.Equal(t, "nova", mc.AgentName)
	assert.Equal(t, 1, mc.TradesThisCycle)
	require.Len(t, mc.Positions, 1)
	assert.Equal(t, "LONG", mc.Positions[0].Side)

	// 시세는 지원 자산 순서(BTC가 SOL보다 먼저)로 정렬됩니다
	require.Len(t, mc.Quotes, 2)
	assert.Equal(t, "BTC", mc.Quotes[0].Symbol)
	assert.Equal(t, "SOL", mc.Quotes[1].Symbol)
}
