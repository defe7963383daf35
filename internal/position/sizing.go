package position

import (
	"math"
)

// SizingConfig는 주문 수량 계산을 위한 설정을 정의합니다
type SizingConfig struct {
	Capital     float64 // 에이전트의 현재 자본 (USDT)
	SizePercent float64 // 자본 대비 투입 비율 [0,100]
	Leverage    int     // 사용할 레버리지
	Price       float64 // 자산 현재 가격
	Precision   int     // 자산별 수량 소수점 자릿수
	MinNotional float64 // 최소 주문 가치 (USDT)
}

// SizingResult는 수량 계산 결과를 담는 구조체입니다
type SizingResult struct {
	Quantity float64 // 주문 수량 (자산 단위)
	Margin   float64 // 투입 증거금 (USDT)
	Notional float64 // 최종 명목 가치 (수량 × 가격)
}

// CalculateOpenQuantity는 자본 비율 의도를 거래소가 허용하는 주문 수량으로
// 변환합니다. 수량은 자산별 소수점 자릿수로 내림(절사)되며, 절사된 수량의
// 명목 가치가 최소 기준에 미달하면 한 단위씩 올려 기준을 맞춥니다.
// 원래 수량의 두 배를 넘어야만 기준을 맞출 수 있으면 주문을 포기합니다
func CalculateOpenQuantity(cfg SizingConfig) (SizingResult, error) {
	if cfg.Price <= 0 {
		return SizingResult{}, ErrInvalidPrice
	}

	// 1. 증거금과 레버리지 적용된 명목 가치 계산
	margin := cfg.Capital * cfg.SizePercent / 100
	notional := margin * float64(cfg.Leverage)

	// 2. 원시 수량 계산 후 정밀도에 맞춰 절사 (절대 올림하지 않음)
	rawQuantity := notional / cfg.Price
	quantity := TruncateQuantity(rawQuantity, cfg.Precision)

	// 3. 최소 명목 가치 검사
	if quantity*cfg.Price >= cfg.MinNotional {
		return SizingResult{
			Quantity: quantity,
			Margin:   margin,
			Notional: quantity * cfg.Price,
		}, nil
	}

	// 4. 닫힌 형태로 최소 수량을 직접 계산합니다
	step := math.Pow(10, -float64(cfg.Precision))
	scale := math.Pow(10, float64(cfg.Precision))
	minQuantity := math.Ceil(cfg.MinNotional/cfg.Price*scale) / scale

	// 부동소수점 경계에서 닫힌 형태가 미달할 수 있으므로
	// 제한된 횟수 안에서 한 단위씩 보정합니다
	for i := 0; i < 4 && minQuantity*cfg.Price < cfg.MinNotional; i++ {
		minQuantity = TruncateQuantity(minQuantity+step, cfg.Precision)
	}

	// 5. 원래 수량의 두 배를 넘으면 과소 주문 대신 포기합니다
	ceiling := rawQuantity * 2
	if minQuantity*cfg.Price < cfg.MinNotional || minQuantity > ceiling {
		return SizingResult{}, ErrBelowMinNotional
	}

	return SizingResult{
		Quantity: minQuantity,
		Margin:   margin,
		Notional: minQuantity * cfg.Price,
	}, nil
}

// CalculateCloseQuantity는 청산 주문의 수량을 계산합니다
// 부분 청산은 지원하지 않으므로 전체 포지션 수량을 같은 방식으로 절사합니다
func CalculateCloseQuantity(positionSize float64, precision int) float64 {
	return TruncateQuantity(math.Abs(positionSize), precision)
}

// TruncateQuantity는 수량을 소수점 자릿수에 맞춰 내림합니다
// 거래소의 LOT_SIZE 필터를 위반하지 않도록 절대 올림하지 않습니다
func TruncateQuantity(quantity float64, precision int) float64 {
	if quantity <= 0 {
		return 0
	}
	scale := math.Pow(10, float64(precision))
	return math.Floor(quantity*scale+1e-9) / scale
}
