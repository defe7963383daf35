package market

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/assist-by/arena/internal/domain"
	"github.com/assist-by/arena/internal/exchange"
)

// FallbackSource는 거래소 연결이 없을 때 사용하는 공개 시세 소스입니다
type FallbackSource interface {
	GetQuotes(ctx context.Context, symbols []string) (domain.QuoteMap, error)
}

// Aggregator는 지원 자산 전체의 시세를 수집합니다
// 기본 경로는 거래소의 티커 통계이며, 인증된 연결이 하나도 없으면
// 공개 집계 서비스로 폴백합니다
type Aggregator struct {
	registry *exchange.Registry
	fallback FallbackSource
	symbols  []string
	log      *logrus.Entry
}

// NewAggregator는 새로운 시세 수집기를 생성합니다
func NewAggregator(registry *exchange.Registry, fallback FallbackSource, symbols []string, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		registry: registry,
		fallback: fallback,
		symbols:  symbols,
		log:      logger.WithField("component", "market"),
	}
}

// GetQuotes는 자산별 시세를 반환합니다
// 기본 경로에서 개별 자산 조회가 실패하면 해당 자산만 결과에서 빠지며
// 사이클 전체를 중단시키지 않습니다
func (a *Aggregator) GetQuotes(ctx context.Context) (domain.QuoteMap, error) {
	client, ok := a.registry.Any()
	if !ok {
		a.log.Info("인증된 거래소 연결이 없어 공개 집계 서비스로 폴백합니다")
		return a.fallback.GetQuotes(ctx, a.symbols)
	}

	quotes := make(domain.QuoteMap, len(a.symbols))
	for _, symbol := range a.symbols {
		quote, err := client.Get24hrStats(ctx, domain.ToExchangeSymbol(symbol))
		if err != nil {
			a.log.WithError(err).Warnf("%s 시세 조회 실패, 이번 사이클에서 제외합니다", symbol)
			continue
		}
		quotes[symbol] = *quote
	}

	return quotes, nil
}
