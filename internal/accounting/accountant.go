package accounting

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/assist-by/arena/internal/domain"
	"github.com/assist-by/arena/internal/store"
)

// Store는 잔고 회계에 필요한 저장소 기능을 정의합니다
type Store interface {
	ListPositions(ctx context.Context, agentID string) ([]store.Position, error)
	ListFilledOrders(ctx context.Context, agentID string) ([]store.Order, error)
	UpdateAgentCapital(ctx context.Context, id string, capital, totalPnL, totalPnLPct float64) error
	LatestSnapshot(ctx context.Context, agentID string) (*store.PerformanceSnapshot, error)
	CreateSnapshot(ctx context.Context, snapshot store.PerformanceSnapshot) error
}

// BalanceInput은 잔고 계산 전략들이 공유하는 입력입니다
type BalanceInput struct {
	Agent     store.Agent
	Account   *domain.AccountInfo // 거래소 조회 실패 시 nil
	Positions []store.Position
	Orders    []store.Order // 체결된 주문 (재생 전략용)
}

// BalanceStrategy는 잔고 계산 방법 하나를 표현합니다
// 적용할 수 없는 입력이면 두 번째 반환값으로 false를 돌려줍니다
type BalanceStrategy struct {
	Name    string
	Compute func(in BalanceInput) (float64, bool)
}

// balanceStrategies는 순서대로 시도되는 잔고 계산 전략 목록입니다
// 중첩 조건문 대신 이름 있는 전략의 사슬로 표현해 각 폴백을
// 독립적으로 테스트할 수 있게 합니다
var balanceStrategies = []BalanceStrategy{
	{
		// 거래소가 보고하는 총 마진 잔고를 최우선으로 신뢰합니다
		Name: "exchange-margin-balance",
		Compute: func(in BalanceInput) (float64, bool) {
			if in.Account == nil || in.Account.TotalMarginBalance <= 0 {
				return 0, false
			}
			return in.Account.TotalMarginBalance, true
		},
	},
	{
		// 가용 잔고에 열린 포지션의 미실현 손익을 더합니다
		Name: "available-plus-unrealized",
		Compute: func(in BalanceInput) (float64, bool) {
			if in.Account == nil || in.Account.AvailableBalance <= 0 {
				return 0, false
			}
			balance := in.Account.AvailableBalance
			for _, p := range in.Positions {
				balance += p.UnrealizedPnL
			}
			return balance, true
		},
	},
	{
		// 거래소 조회가 전혀 불가능하면 체결 주문을 초기 자본에
		// 재생해 잔고를 재구성합니다
		Name: "order-replay",
		Compute: func(in BalanceInput) (float64, bool) {
			return replayOrders(in.Agent.InitialCapital, in.Orders), true
		},
	},
}

// Accountant는 에이전트의 총자산을 계산하고 성과 이력을 기록합니다
type Accountant struct {
	store            Store
	snapshotInterval time.Duration
	log              *logrus.Entry
}

// NewAccountant는 새로운 잔고 회계 모듈을 생성합니다
func NewAccountant(s Store, snapshotInterval time.Duration, logger *logrus.Logger) *Accountant {
	return &Accountant{
		store:            s,
		snapshotInterval: snapshotInterval,
		log:              logger.WithField("component", "accounting"),
	}
}

// ComputeBalance는 전략 사슬을 순서대로 시도해 총자산을 계산합니다
// 사용된 전략 이름을 함께 반환합니다
func (a *Accountant) ComputeBalance(in BalanceInput) (float64, string) {
	for _, strategy := range balanceStrategies {
		if value, ok := strategy.Compute(in); ok {
			return value, strategy.Name
		}
	}
	// order-replay는 항상 적용 가능하므로 도달하지 않습니다
	return in.Agent.InitialCapital, "initial-capital"
}

// RefreshAgent는 에이전트의 자본/손익 요약을 갱신하고 필요하면
// 성과 스냅샷을 기록합니다
func (a *Accountant) RefreshAgent(ctx context.Context, agent store.Agent, account *domain.AccountInfo) error {
	positions, err := a.store.ListPositions(ctx, agent.ID)
	if err != nil {
		return fmt.Errorf("포지션 조회 실패: %w", err)
	}

	in := BalanceInput{
		Agent:     agent,
		Account:   account,
		Positions: positions,
	}

	// 주문 재생은 마지막 폴백에서만 필요하므로 거래소 조회가
	// 실패했을 때만 주문을 읽습니다
	if account == nil {
		orders, err := a.store.ListFilledOrders(ctx, agent.ID)
		if err != nil {
			return fmt.Errorf("체결 주문 조회 실패: %w", err)
		}
		in.Orders = orders
	}

	balance, strategyName := a.ComputeBalance(in)

	// 유효하지 않은 값은 기록을 건드리지 않고 건너뜁니다
	if !isValidBalance(balance) {
		a.log.Warnf("%s 잔고 계산 결과가 유효하지 않아(%.4f, 전략: %s) 갱신을 건너뜁니다",
			agent.Name, balance, strategyName)
		return nil
	}

	totalPnL := balance - agent.InitialCapital
	totalPnLPct := 0.0
	if agent.InitialCapital > 0 {
		totalPnLPct = totalPnL / agent.InitialCapital * 100
	}

	if err := a.store.UpdateAgentCapital(ctx, agent.ID, balance, totalPnL, totalPnLPct); err != nil {
		return err
	}

	return a.maybeSnapshot(ctx, agent.ID, balance, totalPnL, totalPnLPct, len(positions))
}

// maybeSnapshot은 스로틀 간격이 지났을 때만 스냅샷을 기록합니다
func (a *Accountant) maybeSnapshot(ctx context.Context, agentID string, balance, totalPnL, totalPnLPct float64, openPositions int) error {
	latest, err := a.store.LatestSnapshot(ctx, agentID)
	if err != nil {
		return err
	}

	if latest != nil && time.Since(latest.CreatedAt) < a.snapshotInterval {
		return nil // 아직 간격이 차지 않음
	}

	return a.store.CreateSnapshot(ctx, store.PerformanceSnapshot{
		AgentID:            agentID,
		AccountValue:       balance,
		TotalPnL:           totalPnL,
		TotalPnLPercentage: totalPnLPct,
		OpenPositions:      openPositions,
	})
}

// isValidBalance는 기록 가능한 잔고인지 검사합니다
// 0, 음수, NaN, 무한대는 이력을 오염시키므로 거부합니다
func isValidBalance(balance float64) bool {
	return balance > 0 && !math.IsNaN(balance) && !math.IsInf(balance, 0)
}

// replayOrders는 체결 주문을 시간순으로 재생해 잔고를 재구성합니다
// (에이전트, 자산)당 포지션이 최대 하나라는 불변식을 전제로
// 반대 방향 주문을 청산으로 해석합니다
func replayOrders(initialCapital float64, orders []store.Order) float64 {
	type lot struct {
		side       domain.OrderSide
		quantity   float64
		entryPrice float64
	}

	balance := initialCapital
	lots := make(map[string]lot)

	for _, order := range orders {
		if order.ExecutedQty <= 0 || order.AvgPrice <= 0 {
			continue
		}

		open, exists := lots[order.Symbol]
		if !exists {
			lots[order.Symbol] = lot{
				side:       order.Side,
				quantity:   order.ExecutedQty,
				entryPrice: order.AvgPrice,
			}
			continue
		}

		if open.side == order.Side {
			// 같은 방향 주문은 평균 단가로 합산합니다
			total := open.quantity + order.ExecutedQty
			open.entryPrice = (open.entryPrice*open.quantity + order.AvgPrice*order.ExecutedQty) / total
			open.quantity = total
			lots[order.Symbol] = open
			continue
		}

		// 반대 방향 주문은 청산: 실현 손익을 잔고에 반영합니다
		closed := math.Min(open.quantity, order.ExecutedQty)
		pnl := (order.AvgPrice - open.entryPrice) * closed
		if open.side == domain.Sell {
			pnl = -pnl
		}
		balance += pnl

		open.quantity -= closed
		if open.quantity <= 0 {
			delete(lots, order.Symbol)
		} else {
			lots[order.Symbol] = open
		}
	}

	return balance
}
