package domain

// Decision은 자문 서비스가 에이전트에게 내리는 거래 결정을 표현합니다
// 결정 자체는 저장되지 않으며 실행 결과만 저장소에 기록됩니다
type Decision struct {
	Action              DecisionAction `json:"action"`                        // OPEN / CLOSE / HOLD
	Direction           TradeDirection `json:"direction,omitempty"`           // OPEN일 때만 의미 있음
	Symbol              string         `json:"symbol,omitempty"`              // 표준 심볼 (예: BTC)
	Strategy            string         `json:"strategy,omitempty"`            // 전략 라벨 (자문용, 강제되지 않음)
	PositionSizePercent float64        `json:"positionSizePercent,omitempty"` // 자본 대비 투입 비율 [0,100]
	Reasoning           string         `json:"reasoning,omitempty"`           // 자문 서비스의 판단 근거
	Confidence          float64        `json:"confidence,omitempty"`          // 확신도 [0,1]
}

// HoldDecision은 안전한 기본값인 HOLD 결정을 생성합니다
// 자문 서비스 호출이 실패하면 항상 이 값이 사용됩니다
func HoldDecision(reason string) Decision {
	return Decision{
		Action:    ActionHold,
		Reasoning: reason,
	}
}

// DecisionOverride는 검증기가 결정에 가하는 부분 수정을 표현합니다
// 현재는 포지션 크기 비율만 조정 대상입니다
type DecisionOverride struct {
	PositionSizePercent float64
}

// ValidationResult는 리스크 검증의 결과를 표현합니다
type ValidationResult struct {
	IsValid  bool
	Reason   string            // 거부 사유 (IsValid가 false일 때)
	Adjusted *DecisionOverride // 조정된 값 (있는 경우)
}

// Accept는 조정 없이 통과한 검증 결과를 반환합니다
func Accept() ValidationResult {
	return ValidationResult{IsValid: true}
}

// AcceptAdjusted는 포지션 크기가 조정된 검증 결과를 반환합니다
func AcceptAdjusted(sizePercent float64) ValidationResult {
	return ValidationResult{
		IsValid:  true,
		Adjusted: &DecisionOverride{PositionSizePercent: sizePercent},
	}
}

// Reject는 주어진 사유로 거부된 검증 결과를 반환합니다
func Reject(reason string) ValidationResult {
	return ValidationResult{IsValid: false, Reason: reason}
}

// ApplyOverride는 조정값이 있으면 결정에 반영한 사본을 반환합니다
func (d Decision) ApplyOverride(o *DecisionOverride) Decision {
	if o == nil {
		return d
	}
	adjusted := d
	adjusted.PositionSizePercent = o.PositionSizePercent
	return adjusted
}
