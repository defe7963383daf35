package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolConversion(t *testing.T) {
	assert.Equal(t, "BTCUSDT", ToExchangeSymbol("BTC"))
	assert.Equal(t, "DOGEUSDT", ToExchangeSymbol("doge"))
	assert.Equal(t, "BTC", FromExchangeSymbol("BTCUSDT"))
	assert.Equal(t, "XRP", FromExchangeSymbol("xrpusdt"))
}

func TestExchangePositionDirection(t *testing.T) {
	testCases := []struct {
		name     string
		position ExchangePosition
		want     TradeDirection
	}{
		{"명시적 롱", ExchangePosition{PositionSide: LongPosition, Quantity: 1}, DirectionLong},
		{"명시적 숏", ExchangePosition{PositionSide: ShortPosition, Quantity: 1}, DirectionShort},
		{"단방향 모드 양수는 롱", ExchangePosition{PositionSide: BothPosition, Quantity: 0.5}, DirectionLong},
		{"단방향 모드 음수는 숏", ExchangePosition{PositionSide: BothPosition, Quantity: -0.5}, DirectionShort},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.position.Direction())
		})
	}
}
