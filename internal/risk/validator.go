package risk

import (
	"fmt"

	"github.com/assist-by/arena/internal/domain"
)

// Limits는 리스크 검증에 사용하는 고정 한도를 정의합니다
// 상수들의 상호작용은 공동으로 최적화된 것이 아니므로 설정으로 취급합니다
type Limits struct {
	MinCapital        float64 // 거래를 허용하는 최소 자본 (USD)
	MaxTradesPerCycle int     // 사이클 윈도우 내 최대 거래 횟수
	MaxPositionPct    float64 // 포지션 크기 상한 (%)
	MinTradeMargin    float64 // 거래당 최소 증거금 (USD)
	ExtremeMovePct    float64 // 과매수/과매도 판단 기준 (24시간 변동률 %)
	StopLossPct       float64 // 손절 이벤트로 기록하는 손실 기준 (%)
}

// PositionInfo는 검증에 필요한 열린 포지션의 최소 정보입니다
type PositionInfo struct {
	Symbol           string
	Side             domain.TradeDirection
	UnrealizedPnLPct float64
}

// Context는 결정 하나를 검증하는 데 필요한 포트폴리오/시장 정보입니다
type Context struct {
	Capital         float64                 // 에이전트의 현재 자본 (USD)
	TradesThisCycle int                     // 현재 사이클 윈도우에서 이미 실행한 거래 수
	OpenPositions   map[string]PositionInfo // 표준 심볼 키
	Quotes          domain.QuoteMap
}

// Validate는 자문 결정을 고정 리스크 한도에 대해 검증합니다
// 순수 함수이며 거래소 통신과 무관합니다. 규칙은 순서대로 적용되고
// 첫 번째 위반이 결과를 결정합니다
func Validate(decision domain.Decision, rctx Context, limits Limits) domain.ValidationResult {
	// 1. HOLD는 항상 유효합니다
	if decision.Action == domain.ActionHold {
		return domain.Accept()
	}

	// 2. 자본이 최소 기준에 미달하면 어떤 거래도 허용하지 않습니다
	if rctx.Capital < limits.MinCapital {
		return domain.Reject(fmt.Sprintf(
			"자본(%.2f USD)이 최소 기준(%.2f USD)에 미달합니다", rctx.Capital, limits.MinCapital))
	}

	// 3. 사이클 내 거래 횟수 제한
	if rctx.TradesThisCycle >= limits.MaxTradesPerCycle {
		return domain.Reject(fmt.Sprintf(
			"사이클당 거래 횟수 제한 도달 (%d/%d)", rctx.TradesThisCycle, limits.MaxTradesPerCycle))
	}

	switch decision.Action {
	case domain.ActionOpen:
		return validateOpen(decision, rctx, limits)
	case domain.ActionClose:
		return validateClose(decision, rctx)
	default:
		return domain.Reject(fmt.Sprintf("알 수 없는 액션: %s", decision.Action))
	}
}

// validateOpen은 OPEN 결정에 대한 규칙을 적용합니다
func validateOpen(decision domain.Decision, rctx Context, limits Limits) domain.ValidationResult {
	// 자산과 방향은 필수입니다
	if decision.Symbol == "" {
		return domain.Reject("진입할 자산이 지정되지 않았습니다")
	}
	if decision.Direction != domain.DirectionLong && decision.Direction != domain.DirectionShort {
		return domain.Reject("진입 방향(LONG/SHORT)이 지정되지 않았습니다")
	}

	// 같은 자산에 이미 포지션이 있으면 추가 진입하지 않습니다 (물타기 금지)
	if _, exists := rctx.OpenPositions[decision.Symbol]; exists {
		return domain.Reject(fmt.Sprintf("%s에 이미 열린 포지션이 있습니다", decision.Symbol))
	}

	// 전략 라벨은 감사 기록을 위해 필수입니다
	if decision.Strategy == "" {
		return domain.Reject("전략 라벨이 없습니다")
	}

	// 포지션 크기 상한 초과는 거부가 아니라 하향 조정합니다
	sizePercent := decision.PositionSizePercent
	adjusted := false
	if sizePercent > limits.MaxPositionPct {
		sizePercent = limits.MaxPositionPct
		adjusted = true
	}
	if sizePercent <= 0 {
		return domain.Reject("포지션 크기 비율이 0 이하입니다")
	}

	// 극단적인 시장 상황에 대한 대략적인 검사입니다
	// 정상 범위의 변동성은 자문 서비스의 판단에 맡깁니다
	quote, ok := rctx.Quotes[decision.Symbol]
	if !ok {
		return domain.Reject(fmt.Sprintf("%s의 시세 정보가 없습니다", decision.Symbol))
	}
	if decision.Direction == domain.DirectionLong && quote.Change24h > limits.ExtremeMovePct {
		return domain.Reject(fmt.Sprintf(
			"24시간 %.1f%% 급등한 자산에 대한 매수는 허용하지 않습니다", quote.Change24h))
	}
	if decision.Direction == domain.DirectionShort && quote.Change24h < -limits.ExtremeMovePct {
		return domain.Reject(fmt.Sprintf(
			"24시간 %.1f%% 급락한 자산에 대한 공매도는 허용하지 않습니다", quote.Change24h))
	}

	// 요청 비율이 최소 증거금에 미달하면 비율을 최소한으로 올립니다
	// 올린 비율이 상한을 넘으면 조정 대신 거부합니다
	margin := rctx.Capital * sizePercent / 100
	if margin < limits.MinTradeMargin {
		requiredPercent := limits.MinTradeMargin / rctx.Capital * 100
		if requiredPercent > limits.MaxPositionPct {
			return domain.Reject(fmt.Sprintf(
				"최소 증거금(%.2f USD)을 맞추려면 %.1f%%가 필요하지만 상한은 %.1f%%입니다",
				limits.MinTradeMargin, requiredPercent, limits.MaxPositionPct))
		}
		sizePercent = requiredPercent
		adjusted = true
	}

	if adjusted {
		return domain.AcceptAdjusted(sizePercent)
	}
	return domain.Accept()
}

// validateClose는 CLOSE 결정에 대한 규칙을 적용합니다
func validateClose(decision domain.Decision, rctx Context) domain.ValidationResult {
	if decision.Symbol == "" {
		return domain.Reject("청산할 자산이 지정되지 않았습니다")
	}

	if _, exists := rctx.OpenPositions[decision.Symbol]; !exists {
		return domain.Reject(fmt.Sprintf("%s에 청산할 포지션이 없습니다", decision.Symbol))
	}

	// 손실 청산은 막지 않습니다. 손절 이벤트 기록 여부는
	// IsStopLossClose로 별도 판단합니다
	return domain.Accept()
}

// IsStopLossClose는 CLOSE 결정이 손절 기준을 넘는 손실 청산인지 판단합니다
// 기준을 넘어도 청산은 막지 않으며 호출자가 손절 이벤트로 기록합니다
func IsStopLossClose(decision domain.Decision, rctx Context, limits Limits) bool {
	if decision.Action != domain.ActionClose {
		return false
	}
	position, exists := rctx.OpenPositions[decision.Symbol]
	if !exists {
		return false
	}
	return position.UnrealizedPnLPct <= -limits.StopLossPct
}
