package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateActivity는 활동 로그 이벤트를 기록합니다
// 로그는 추가 전용이며 보존 정책은 외부 관심사입니다
func (s *Store) CreateActivity(ctx context.Context, event ActivityEvent) error {
	event.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("활동 로그 기록 실패: %w", err)
	}
	return nil
}

// ListActivities는 에이전트의 활동 로그를 최신순으로 반환합니다
func (s *Store) ListActivities(ctx context.Context, agentID string, limit int) ([]ActivityEvent, error) {
	var events []ActivityEvent
	if err := s.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at desc").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("활동 로그 조회 실패: %w", err)
	}
	return events, nil
}
