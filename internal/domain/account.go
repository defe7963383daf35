package domain

// Balance는 계정 잔고 정보를 표현합니다
type Balance struct {
	Asset              string  // 자산 심볼 (예: USDT)
	Available          float64 // 사용 가능한 잔고
	Locked             float64 // 주문 등에 잠긴 잔고
	CrossWalletBalance float64 // 교차 마진 지갑 잔고
}

// AccountInfo는 거래소 계정 정보를 표현합니다
type AccountInfo struct {
	Balances              map[string]Balance // 자산별 잔고
	TotalMarginBalance    float64            // 총 마진 잔고 (지갑 + 미실현 손익)
	TotalUnrealizedProfit float64            // 총 미실현 손익
	AvailableBalance      float64            // 사용 가능한 USDT 잔고
	CanTrade              bool               // 거래 가능 여부
}
