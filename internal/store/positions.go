package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListPositions는 에이전트의 열린 포지션 목록을 반환합니다
func (s *Store) ListPositions(ctx context.Context, agentID string) ([]Position, error) {
	var positions []Position
	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("포지션 조회 실패: %w", err)
	}
	return positions, nil
}

// GetPosition은 (에이전트, 자산) 쌍의 포지션을 반환합니다
// 없으면 nil을 반환하며 에러가 아닙니다
func (s *Store) GetPosition(ctx context.Context, agentID, symbol string) (*Position, error) {
	var position Position
	err := s.db.WithContext(ctx).
		Where("agent_id = ? AND symbol = ?", agentID, symbol).
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("포지션 조회 실패: %w", err)
	}
	return &position, nil
}

// UpsertPosition은 (에이전트, 자산) 쌍의 포지션을 생성하거나 갱신합니다
func (s *Store) UpsertPosition(ctx context.Context, position Position) error {
	existing, err := s.GetPosition(ctx, position.AgentID, position.Symbol)
	if err != nil {
		return err
	}

	if existing == nil {
		position.ID = uuid.NewString()
		if err := s.db.WithContext(ctx).Create(&position).Error; err != nil {
			return fmt.Errorf("포지션 생성 실패: %w", err)
		}
		return nil
	}

	// 기존 행을 유지하면서 거래소가 보고한 값만 덮어씁니다
	updates := map[string]interface{}{
		"side":                position.Side,
		"size":                position.Size,
		"entry_price":         position.EntryPrice,
		"current_price":       position.CurrentPrice,
		"leverage":            position.Leverage,
		"unrealized_pn_l":     position.UnrealizedPnL,
		"unrealized_pn_l_pct": position.UnrealizedPnLPct,
	}
	if position.Strategy != "" {
		updates["strategy"] = position.Strategy
	}
	if err := s.db.WithContext(ctx).Model(&Position{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("포지션 갱신 실패: %w", err)
	}
	return nil
}

// DeletePosition은 (에이전트, 자산) 쌍의 포지션을 삭제합니다
// 거래소가 수량 0을 보고했을 때만 호출됩니다
func (s *Store) DeletePosition(ctx context.Context, agentID, symbol string) error {
	if err := s.db.WithContext(ctx).
		Where("agent_id = ? AND symbol = ?", agentID, symbol).
		Delete(&Position{}).Error; err != nil {
		return fmt.Errorf("포지션 삭제 실패: %w", err)
	}
	return nil
}

// CountPositions는 에이전트의 열린 포지션 수를 반환합니다
func (s *Store) CountPositions(ctx context.Context, agentID string) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Position{}).
		Where("agent_id = ?", agentID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("포지션 수 조회 실패: %w", err)
	}
	return int(count), nil
}
