package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assist-by/arena/internal/domain"
)

// CreateOrder는 PENDING 상태의 주문 기록을 생성하고 ID를 반환합니다
func (s *Store) CreateOrder(ctx context.Context, order Order) (string, error) {
	order.ID = uuid.NewString()
	order.Status = domain.OrderPending
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return "", fmt.Errorf("주문 기록 생성 실패: %w", err)
	}
	return order.ID, nil
}

// UpdateOrderExecution은 거래소 응답으로 주문 기록을 갱신합니다
// 주문당 정확히 한 번만 호출되어야 합니다
func (s *Store) UpdateOrderExecution(ctx context.Context, id string, status domain.OrderStatus, exchangeOrderID int64, executedQty, avgPrice float64) error {
	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", id, domain.OrderPending).
		Updates(map[string]interface{}{
			"status":            status,
			"exchange_order_id": exchangeOrderID,
			"executed_qty":      executedQty,
			"avg_price":         avgPrice,
		})
	if result.Error != nil {
		return fmt.Errorf("주문 갱신 실패: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("갱신할 PENDING 주문이 없습니다: %s", id)
	}
	return nil
}

// MarkOrderRejected는 주문을 거부 상태로 표시합니다
func (s *Store) MarkOrderRejected(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", id, domain.OrderPending).
		Update("status", domain.OrderRejected)
	if result.Error != nil {
		return fmt.Errorf("주문 거부 처리 실패: %w", result.Error)
	}
	return nil
}

// CountOrdersSince는 주어진 시각 이후 생성된 에이전트의 주문 수를 반환합니다
// 사이클 내 거래 횟수 제한 검증에 사용됩니다
func (s *Store) CountOrdersSince(ctx context.Context, agentID string, since time.Time) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Order{}).
		Where("agent_id = ? AND created_at >= ?", agentID, since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("주문 수 조회 실패: %w", err)
	}
	return int(count), nil
}

// ListFilledOrders는 에이전트의 체결된 주문을 시간순으로 반환합니다
// 잔고 회계의 마지막 폴백(주문 재생)에 사용됩니다
func (s *Store) ListFilledOrders(ctx context.Context, agentID string) ([]Order, error) {
	var orders []Order
	if err := s.db.WithContext(ctx).
		Where("agent_id = ? AND status IN ?", agentID,
			[]domain.OrderStatus{domain.OrderFilled, domain.OrderPartiallyFilled}).
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("체결 주문 조회 실패: %w", err)
	}
	return orders, nil
}

// LatestBuyOrder는 에이전트의 특정 심볼에 대한 가장 최근 매수 주문을 반환합니다
// 재조정 시 새 포지션이 전략 메타데이터를 물려받는 데 사용됩니다
func (s *Store) LatestBuyOrder(ctx context.Context, agentID, symbol string) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Where("agent_id = ? AND symbol = ? AND side = ?", agentID, symbol, domain.Buy).
		Order("created_at desc").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("최근 매수 주문 조회 실패: %w", err)
	}
	return &order, nil
}
