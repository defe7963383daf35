package store

import (
	"time"

	"github.com/assist-by/arena/internal/domain"
)

// Agent는 거래 에이전트의 영속 상태를 표현합니다
// 자본과 손익 필드는 잔고 회계 모듈만 갱신합니다
type Agent struct {
	ID                 string  `gorm:"primaryKey;type:uuid"`
	Name               string  `gorm:"uniqueIndex;not null"`
	AdvisorURL         string  `gorm:"not null"`
	APIKeyEnv          string  // API 키 환경변수 이름 (값이 아님)
	SecretKeyEnv       string  // 시크릿 키 환경변수 이름 (값이 아님)
	InitialCapital     float64 `gorm:"not null"`
	CurrentCapital     float64
	TotalPnL           float64
	TotalPnLPercentage float64
	IsActive           bool `gorm:"default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Order는 주문의 추가 전용 감사 기록입니다
// PENDING으로 생성된 뒤 거래소 응답으로 정확히 한 번 갱신되며
// 이후에는 변경되지 않습니다
type Order struct {
	ID              string             `gorm:"primaryKey;type:uuid"`
	AgentID         string             `gorm:"index;not null"`
	Symbol          string             `gorm:"not null"` // 거래소 심볼 (예: BTCUSDT)
	Side            domain.OrderSide   `gorm:"not null"`
	Type            domain.OrderType   `gorm:"not null"`
	Quantity        float64            `gorm:"not null"`
	Status          domain.OrderStatus `gorm:"index;not null"`
	ExecutedQty     float64
	AvgPrice        float64
	ExchangeOrderID int64
	Strategy        string // 자문 전략 라벨
	Reasoning       string // 자문 판단 근거
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

// Position은 에이전트별 열린 포지션의 로컬 미러입니다
// (에이전트, 자산) 쌍당 최대 한 개만 존재하며 매 동기화마다
// 거래소의 보고 내용으로 재조정됩니다
type Position struct {
	ID               string                `gorm:"primaryKey;type:uuid"`
	AgentID          string                `gorm:"index:idx_agent_symbol,unique;not null"`
	Symbol           string                `gorm:"index:idx_agent_symbol,unique;not null"` // 표준 심볼 (예: BTC)
	Side             domain.TradeDirection `gorm:"not null"`
	Size             float64               `gorm:"not null"` // 절대 수량
	EntryPrice       float64
	CurrentPrice     float64
	Leverage         int
	UnrealizedPnL    float64
	UnrealizedPnLPct float64
	Strategy         string // 진입 주문에서 물려받은 전략 라벨
	Reasoning        string
	OpenOrderID      string // 진입 주문 참조
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PerformanceSnapshot은 에이전트 성과의 시계열 기록입니다
// 최소 간격 제한(스로틀)을 지키며 기록됩니다
type PerformanceSnapshot struct {
	ID                 string  `gorm:"primaryKey;type:uuid"`
	AgentID            string  `gorm:"index;not null"`
	AccountValue       float64 `gorm:"not null"`
	TotalPnL           float64
	TotalPnLPercentage float64
	OpenPositions      int
	CreatedAt          time.Time `gorm:"index"`
}

// ActivityEvent는 추가 전용 활동 로그입니다
type ActivityEvent struct {
	ID        string              `gorm:"primaryKey;type:uuid"`
	AgentID   string              `gorm:"index;not null"`
	Type      domain.ActivityType `gorm:"index;not null"`
	Message   string
	Symbol    string
	Strategy  string
	OrderID   string
	CreatedAt time.Time `gorm:"index"`
}
