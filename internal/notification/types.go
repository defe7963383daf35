package notification

const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0000FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error

	// SendTradeInfo는 거래 실행 정보를 전송합니다
	SendTradeInfo(info TradeInfo) error
}

// TradeInfo는 거래 실행 정보를 정의합니다
type TradeInfo struct {
	Agent     string  // 에이전트 이름
	Symbol    string  // 표준 심볼 (예: BTC)
	Action    string  // OPEN / CLOSE
	Direction string  // "LONG" or "SHORT"
	Quantity  float64 // 주문 수량 (코인)
	AvgPrice  float64 // 평균 체결 가격
	Notional  float64 // 명목 가치 (USDT)
	Leverage  int     // 사용 레버리지
	Strategy  string  // 자문 전략 라벨
}

// GetColorForDirection은 포지션 방향에 따른 색상을 반환합니다
func GetColorForDirection(direction string) int {
	switch direction {
	case "LONG":
		return ColorSuccess
	case "SHORT":
		return ColorError
	default:
		return ColorInfo
	}
}
