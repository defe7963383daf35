package domain

import "time"

// OrderRequest는 거래소에 제출할 주문 요청 정보를 표현합니다
type OrderRequest struct {
	Symbol       string       // 거래소 심볼 (예: BTCUSDT)
	Side         OrderSide    // 매수/매도
	PositionSide PositionSide // 롱/숏 포지션 (헤지 모드)
	Type         OrderType    // 주문 유형
	Quantity     float64      // 수량
}

// OrderResponse는 거래소의 주문 응답을 표현합니다
type OrderResponse struct {
	OrderID          int64     // 거래소 주문 ID
	Symbol           string    // 거래소 심볼
	Status           string    // 거래소가 보고한 주문 상태
	Price            float64   // 주문 가격
	AvgPrice         float64   // 평균 체결 가격
	OrigQuantity     float64   // 원래 주문 수량
	ExecutedQuantity float64   // 체결된 수량
	Side             OrderSide // 매수/매도
	CreateTime       time.Time // 주문 생성 시간
}

// ExchangePosition은 거래소가 보고하는 포지션 정보를 표현합니다
// 로컬 포지션 테이블은 항상 이 목록으로부터 파생됩니다
type ExchangePosition struct {
	Symbol        string       // 거래소 심볼 (예: BTCUSDT)
	PositionSide  PositionSide // 롱/숏 포지션
	Quantity      float64      // 포지션 수량 (양수: 롱, 음수: 숏)
	EntryPrice    float64      // 평균 진입가
	MarkPrice     float64      // 마크 가격
	UnrealizedPnL float64      // 미실현 손익
	Leverage      int          // 레버리지
}

// Direction은 거래소 포지션의 실질 방향을 반환합니다
// 헤지 모드가 아닌 BOTH 포지션은 수량 부호로 판단합니다
func (p ExchangePosition) Direction() TradeDirection {
	if p.PositionSide == ShortPosition || (p.PositionSide == BothPosition && p.Quantity < 0) {
		return DirectionShort
	}
	return DirectionLong
}
