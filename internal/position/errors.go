package position

import "fmt"

// 포지션 처리 중 발생할 수 있는 에러들을 정의합니다
var (
	ErrBelowMinNotional = fmt.Errorf("주문 가치가 최소 기준에 미달합니다")
	ErrInvalidPrice     = fmt.Errorf("가격이 유효하지 않습니다")
	ErrZeroQuantity     = fmt.Errorf("계산된 수량이 0입니다")
)

// TradeError는 에이전트 단위 거래 파이프라인의 에러를 확장한 구조체입니다
type TradeError struct {
	Agent  string
	Symbol string
	Op     string
	Err    error
}

// Error는 error 인터페이스를 구현합니다
func (e *TradeError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("거래 에러 [%s, %s, 작업: %s]: %v", e.Agent, e.Symbol, e.Op, e.Err)
	}
	return fmt.Sprintf("거래 에러 [%s, 작업: %s]: %v", e.Agent, e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *TradeError) Unwrap() error {
	return e.Err
}

// NewTradeError는 새로운 TradeError를 생성합니다
func NewTradeError(agent, symbol, op string, err error) *TradeError {
	return &TradeError{
		Agent:  agent,
		Symbol: symbol,
		Op:     op,
		Err:    err,
	}
}
