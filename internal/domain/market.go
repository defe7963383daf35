package domain

import "strings"

// MarketQuote는 한 자산의 현재 시세 통계를 표현합니다
// 매 사이클마다 새로 계산되며 저장소에는 보존되지 않습니다
type MarketQuote struct {
	Symbol       string  // 표준 심볼 (예: BTC)
	CurrentPrice float64 // 현재가 (USDT)
	Change24h    float64 // 24시간 변동률 (%)
	Volume24h    float64 // 24시간 거래량 (USDT)
	High24h      float64 // 24시간 최고가
	Low24h       float64 // 24시간 최저가
}

// QuoteMap은 표준 심볼을 키로 하는 시세 목록입니다
type QuoteMap map[string]MarketQuote

// ToExchangeSymbol은 표준 심볼을 거래소 심볼로 변환합니다 (BTC -> BTCUSDT)
func ToExchangeSymbol(symbol string) string {
	return strings.ToUpper(symbol) + "USDT"
}

// FromExchangeSymbol은 거래소 심볼을 표준 심볼로 변환합니다 (BTCUSDT -> BTC)
func FromExchangeSymbol(exchangeSymbol string) string {
	return strings.TrimSuffix(strings.ToUpper(exchangeSymbol), "USDT")
}
