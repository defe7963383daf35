package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LatestSnapshot은 에이전트의 가장 최근 성과 스냅샷을 반환합니다
// 없으면 nil을 반환합니다
func (s *Store) LatestSnapshot(ctx context.Context, agentID string) (*PerformanceSnapshot, error) {
	var snapshot PerformanceSnapshot
	err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at desc").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("스냅샷 조회 실패: %w", err)
	}
	return &snapshot, nil
}

// CreateSnapshot은 성과 스냅샷을 기록합니다
// 스로틀 검사는 호출자(잔고 회계)의 책임입니다
func (s *Store) CreateSnapshot(ctx context.Context, snapshot PerformanceSnapshot) error {
	snapshot.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&snapshot).Error; err != nil {
		return fmt.Errorf("스냅샷 기록 실패: %w", err)
	}
	return nil
}
