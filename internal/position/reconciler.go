package position

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/assist-by/arena/internal/domain"
	"github.com/assist-by/arena/internal/store"
)

// Store는 재조정에 필요한 저장소 기능을 정의합니다
type Store interface {
	ListPositions(ctx context.Context, agentID string) ([]store.Position, error)
	UpsertPosition(ctx context.Context, position store.Position) error
	DeletePosition(ctx context.Context, agentID, symbol string) error
	LatestBuyOrder(ctx context.Context, agentID, symbol string) (*store.Order, error)
}

// Reconciler는 로컬 포지션 테이블을 거래소의 보고 내용과 일치시킵니다
// 거래소가 진실의 원천이며 로컬 상태는 항상 여기서 파생됩니다
type Reconciler struct {
	store Store
	log   *logrus.Entry
}

// NewReconciler는 새로운 포지션 재조정기를 생성합니다
func NewReconciler(s Store, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		store: s,
		log:   logger.WithField("component", "reconciler"),
	}
}

// Sync는 거래소 포지션 목록에 대해 3방향 병합을 수행합니다
//  1. 양쪽에 존재 -> 수량/가격/손익을 제자리 갱신
//  2. 거래소에만 존재 -> 삽입 (최근 매수 주문의 전략 메타데이터 상속)
//  3. 로컬에만 존재 -> 삭제 (거래소가 0을 보고한 것)
//
// 같은 데이터로 두 번 실행해도 결과가 변하지 않습니다 (멱등)
func (r *Reconciler) Sync(ctx context.Context, agentID string, exchangePositions []domain.ExchangePosition) error {
	local, err := r.store.ListPositions(ctx, agentID)
	if err != nil {
		return fmt.Errorf("로컬 포지션 조회 실패: %w", err)
	}

	// 거래소 보고를 표준 심볼로 인덱싱합니다 (수량 0은 이미 걸러져 있음)
	reported := make(map[string]domain.ExchangePosition, len(exchangePositions))
	for _, p := range exchangePositions {
		if p.Quantity == 0 {
			continue
		}
		reported[domain.FromExchangeSymbol(p.Symbol)] = p
	}

	localBySymbol := make(map[string]store.Position, len(local))
	for _, p := range local {
		localBySymbol[p.Symbol] = p
	}

	// 1) + 2) 거래소 보고 기준으로 갱신/삽입
	for symbol, remote := range reported {
		row := store.Position{
			AgentID:          agentID,
			Symbol:           symbol,
			Side:             remote.Direction(),
			Size:             math.Abs(remote.Quantity),
			EntryPrice:       remote.EntryPrice,
			CurrentPrice:     remote.MarkPrice,
			Leverage:         remote.Leverage,
			UnrealizedPnL:    remote.UnrealizedPnL,
			UnrealizedPnLPct: unrealizedPct(remote),
		}

		if existing, ok := localBySymbol[symbol]; ok {
			// 전략 메타데이터는 최초 삽입 시 정해진 값을 유지합니다
			row.Strategy = existing.Strategy
			row.Reasoning = existing.Reasoning
			row.OpenOrderID = existing.OpenOrderID
		} else {
			// 새 포지션은 가장 최근 매수 주문의 메타데이터를 물려받습니다
			order, err := r.store.LatestBuyOrder(ctx, agentID, remote.Symbol)
			if err != nil {
				r.log.WithError(err).Warnf("%s 주문 메타데이터 조회 실패", symbol)
			} else if order != nil {
				row.Strategy = order.Strategy
				row.Reasoning = order.Reasoning
				row.OpenOrderID = order.ID
			}
		}

		if err := r.store.UpsertPosition(ctx, row); err != nil {
			return fmt.Errorf("%s 포지션 반영 실패: %w", symbol, err)
		}
	}

	// 3) 거래소가 더 이상 보고하지 않는 포지션 삭제
	for symbol := range localBySymbol {
		if _, ok := reported[symbol]; ok {
			continue
		}
		if err := r.store.DeletePosition(ctx, agentID, symbol); err != nil {
			return fmt.Errorf("%s 포지션 삭제 실패: %w", symbol, err)
		}
		r.log.Infof("거래소가 %s 포지션 청산을 보고하여 로컬 기록을 삭제했습니다", symbol)
	}

	return nil
}

// unrealizedPct는 투입 증거금 대비 미실현 손익 비율을 계산합니다
func unrealizedPct(p domain.ExchangePosition) float64 {
	if p.EntryPrice <= 0 || p.Quantity == 0 || p.Leverage <= 0 {
		return 0
	}
	margin := p.EntryPrice * math.Abs(p.Quantity) / float64(p.Leverage)
	if margin <= 0 {
		return 0
	}
	return p.UnrealizedPnL / margin * 100
}
