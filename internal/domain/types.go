package domain

// DecisionAction은 자문 서비스가 내리는 결정의 종류를 정의합니다
type DecisionAction string

const (
	ActionOpen  DecisionAction = "OPEN"
	ActionClose DecisionAction = "CLOSE"
	ActionHold  DecisionAction = "HOLD"
)

// IsValid는 결정 액션이 유효한 값인지 확인합니다
func (a DecisionAction) IsValid() bool {
	switch a {
	case ActionOpen, ActionClose, ActionHold:
		return true
	default:
		return false
	}
}

// TradeDirection은 포지션 진입 방향을 정의합니다
type TradeDirection string

const (
	DirectionLong  TradeDirection = "LONG"
	DirectionShort TradeDirection = "SHORT"
)

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// OrderType은 주문 유형을 정의합니다
// 현재 엔진은 시장가 주문만 사용합니다
type OrderType string

const (
	Market OrderType = "MARKET"
)

// OrderStatus는 주문의 생명주기 상태를 정의합니다
// PENDING으로 생성된 주문은 거래소 응답으로 정확히 한 번만 갱신됩니다
type OrderStatus string

const (
	OrderPending         OrderStatus = "PENDING"
	OrderFilled          OrderStatus = "FILLED"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderRejected        OrderStatus = "REJECTED"
)

// PositionSide는 거래소가 보고하는 포지션 방향을 정의합니다
type PositionSide string

const (
	LongPosition  PositionSide = "LONG"
	ShortPosition PositionSide = "SHORT"
	BothPosition  PositionSide = "BOTH" // 헤지 모드가 아닌 경우
)

// ActivityType은 활동 로그 이벤트의 종류를 정의합니다
type ActivityType string

const (
	ActivityDecisionRejected ActivityType = "DECISION_REJECTED"
	ActivityPositionOpened   ActivityType = "POSITION_OPENED"
	ActivityPositionClosed   ActivityType = "POSITION_CLOSED"
	ActivityStopLoss         ActivityType = "STOP_LOSS_TRIGGERED"
	ActivityTradeError       ActivityType = "TRADE_ERROR"
)
