package advisor

import (
	"context"

	"github.com/assist-by/arena/internal/domain"
)

// PositionContext는 자문 서비스에 전달하는 열린 포지션 정보입니다
type PositionContext struct {
	Symbol           string  `json:"symbol"`
	Side             string  `json:"side"`
	Size             float64 `json:"size"`
	EntryPrice       float64 `json:"entryPrice"`
	CurrentPrice     float64 `json:"currentPrice"`
	Leverage         int     `json:"leverage"`
	UnrealizedPnL    float64 `json:"unrealizedPnl"`
	UnrealizedPnLPct float64 `json:"unrealizedPnlPct"`
}

// MarketContext는 자문 서비스가 결정을 내리는 데 사용하는 스냅샷입니다
// 에이전트 이름, 자본, 실시간 손익이 포함된 포지션, 현재 시세로 구성됩니다
type MarketContext struct {
	AgentName       string               `json:"agentName"`
	Capital         float64              `json:"capital"`
	TradesThisCycle int                  `json:"tradesThisCycle"`
	Positions       []PositionContext    `json:"positions"`
	Quotes          []domain.MarketQuote `json:"quotes"`
}

// Advisor는 외부 자문 서비스와의 계약입니다
// 구현은 어떤 내부 오류에서도 에러를 전파하는 대신
// 안전한 HOLD 기본값을 반환해야 합니다
type Advisor interface {
	AnalyzeMarket(ctx context.Context, mc MarketContext) domain.Decision
}
