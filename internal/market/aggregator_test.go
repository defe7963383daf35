package market

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/arena/internal/domain"
	"github.com/assist-by/arena/internal/exchange"
)

// fakeExchange는 시세 조회만 동작하는 거래소 구현입니다
type fakeExchange struct {
	quotes map[string]domain.MarketQuote // 거래소 심볼 키
}

func (f *fakeExchange) Get24hrStats(ctx context.Context, symbol string) (*domain.MarketQuote, error) {
	quote, ok := f.quotes[symbol]
	if !ok {
		return nil, errors.New("알 수 없는 심볼")
	}
	return &quote, nil
}

func (f *fakeExchange) GetAccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	return nil, errors.New("지원하지 않음")
}

func (f *fakeExchange) GetPositions(ctx context.Context) ([]domain.ExchangePosition, error) {
	return nil, errors.New("지원하지 않음")
}

func (f *fakeExchange) CreateOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	return nil, errors.New("지원하지 않음")
}

func (f *fakeExchange) SyncTime(ctx context.Context) error { return nil }

// fakeFallback은 호출 여부를 기록하는 폴백 소스입니다
type fakeFallback struct {
	called bool
	quotes domain.QuoteMap
}

func (f *fakeFallback) GetQuotes(ctx context.Context, symbols []string) (domain.QuoteMap, error) {
	f.called = true
	return f.quotes, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestAggregatorGetQuotes(t *testing.T) {
	ctx := context.Background()
	symbols := []string{"BTC", "ETH", "SOL"}

	t.Run("거래소 연결이 있으면 티커 통계를 사용", func(t *testing.T) {
		fake := &fakeExchange{quotes: map[string]domain.MarketQuote{
			"BTCUSDT": {Symbol: "BTC", CurrentPrice: 50000, Change24h: 1.2},
			"ETHUSDT": {Symbol: "ETH", CurrentPrice: 3000, Change24h: -0.5},
			"SOLUSDT": {Symbol: "SOL", CurrentPrice: 150, Change24h: 4.1},
		}}
		registry := exchange.NewRegistry(func(string) (exchange.Exchange, error) {
			return fake, nil
		})
		_, err := registry.Get("nova")
		require.NoError(t, err)

		fallback := &fakeFallback{}
		a := NewAggregator(registry, fallback, symbols, quietLogger())

		quotes, err := a.GetQuotes(ctx)
		require.NoError(t, err)

		assert.Len(t, quotes, 3)
		assert.InDelta(t, 50000.0, quotes["BTC"].CurrentPrice, 1e-9)
		assert.False(t, fallback.called)
	})

	t.Run("개별 자산 실패는 해당 자산만 제외", func(t *testing.T) {
		fake := &fakeExchange{quotes: map[string]domain.MarketQuote{
			"BTCUSDT": {Symbol: "BTC", CurrentPrice: 50000},
			"SOLUSDT": {Symbol: "SOL", CurrentPrice: 150},
		}}
		registry := exchange.NewRegistry(func(string) (exchange.Exchange, error) {
			return fake, nil
		})
		_, err := registry.Get("nova")
		require.NoError(t, err)

		a := NewAggregator(registry, &fakeFallback{}, symbols, quietLogger())

		quotes, err := a.GetQuotes(ctx)
		require.NoError(t, err)

		assert.Len(t, quotes, 2)
		assert.NotContains(t, quotes, "ETH")
	})

	t.Run("인증된 연결이 없으면 폴백 소스를 사용", func(t *testing.T) {
		registry := exchange.NewRegistry(func(string) (exchange.Exchange, error) {
			return nil, errors.New("자격 증명 없음")
		})
		fallback := &fakeFallback{quotes: domain.QuoteMap{
			"BTC": {Symbol: "BTC", CurrentPrice: 49000},
		}}

		a := NewAggregator(registry, fallback, symbols, quietLogger())

		quotes, err := a.GetQuotes(ctx)
		require.NoError(t, err)

		assert.True(t, fallback.called)
		assert.InDelta(t, 49000.0, quotes["BTC"].CurrentPrice, 1e-9)
	})
}
