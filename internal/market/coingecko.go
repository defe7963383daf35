package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/assist-by/arena/internal/domain"
)

// coinGeckoIDs는 표준 심볼을 CoinGecko 코인 ID로 매핑합니다
var coinGeckoIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"BNB":  "binancecoin",
	"XRP":  "ripple",
	"DOGE": "dogecoin",
}

// CoinGeckoClient는 공개 시세 집계 서비스 클라이언트입니다
// 인증된 거래소 연결이 하나도 없을 때의 폴백 경로로 사용됩니다
type CoinGeckoClient struct {
	client *resty.Client
}

// NewCoinGeckoClient는 새로운 CoinGecko 클라이언트를 생성합니다
func NewCoinGeckoClient() *CoinGeckoClient {
	client := resty.New()
	client.SetBaseURL("https://api.coingecko.com/api/v3")
	client.SetTimeout(15 * time.Second)

	return &CoinGeckoClient{client: client}
}

// coinMarket은 CoinGecko /coins/markets 응답의 필요한 필드만 담습니다
type coinMarket struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	CurrentPrice      float64 `json:"current_price"`
	High24h           float64 `json:"high_24h"`
	Low24h            float64 `json:"low_24h"`
	TotalVolume       float64 `json:"total_volume"`
	PriceChangePct24h float64 `json:"price_change_percentage_24h"`
}

// GetQuotes는 지원 자산 전체의 시세를 한 번의 요청으로 조회합니다
func (c *CoinGeckoClient) GetQuotes(ctx context.Context, symbols []string) (domain.QuoteMap, error) {
	ids := make([]string, 0, len(symbols))
	idToSymbol := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		id, ok := coinGeckoIDs[symbol]
		if !ok {
			continue // 매핑이 없는 자산은 건너뜀
		}
		ids = append(ids, id)
		idToSymbol[id] = symbol
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("조회할 수 있는 자산이 없습니다")
	}

	var markets []coinMarket
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency": "usd",
			"ids":         strings.Join(ids, ","),
		}).
		SetResult(&markets).
		Get("/coins/markets")
	if err != nil {
		return nil, fmt.Errorf("CoinGecko 요청 실패: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("CoinGecko HTTP 에러(%d): %s", resp.StatusCode(), resp.String())
	}

	quotes := make(domain.QuoteMap, len(markets))
	for _, m := range markets {
		symbol, ok := idToSymbol[m.ID]
		if !ok {
			continue
		}
		quotes[symbol] = domain.MarketQuote{
			Symbol:       symbol,
			CurrentPrice: m.CurrentPrice,
			Change24h:    m.PriceChangePct24h,
			Volume24h:    m.TotalVolume,
			High24h:      m.High24h,
			Low24h:       m.Low24h,
		}
	}

	return quotes, nil
}
