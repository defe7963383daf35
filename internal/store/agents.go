package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAgentNotFound = errors.New("에이전트를 찾을 수 없습니다")

// EnsureAgent는 이름이 같은 에이전트가 없으면 생성하고, 있으면 그대로 반환합니다
// 에이전트는 초기화 시점에 한 번만 생성되며 이후 삭제되지 않습니다
func (s *Store) EnsureAgent(ctx context.Context, agent Agent) (*Agent, error) {
	var existing Agent
	err := s.db.WithContext(ctx).Where("name = ?", agent.Name).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("에이전트 조회 실패: %w", err)
	}

	agent.ID = uuid.NewString()
	agent.CurrentCapital = agent.InitialCapital
	if err := s.db.WithContext(ctx).Create(&agent).Error; err != nil {
		return nil, fmt.Errorf("에이전트 생성 실패: %w", err)
	}
	return &agent, nil
}

// GetAgent는 ID로 에이전트를 조회합니다
func (s *Store) GetAgent(ctx context.Context, id string) (*Agent, error) {
	var agent Agent
	if err := s.db.WithContext(ctx).First(&agent, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return &agent, nil
}

// ListActiveAgents는 활성화된 에이전트 목록을 생성 순서로 반환합니다
func (s *Store) ListActiveAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at asc").
		Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("에이전트 목록 조회 실패: %w", err)
	}
	return agents, nil
}

// UpdateAgentCapital은 에이전트의 자본과 손익 요약을 갱신합니다
// 잔고 회계 모듈만 호출해야 합니다
func (s *Store) UpdateAgentCapital(ctx context.Context, id string, capital, totalPnL, totalPnLPct float64) error {
	result := s.db.WithContext(ctx).Model(&Agent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_capital":       capital,
			"total_pn_l":            totalPnL,
			"total_pn_l_percentage": totalPnLPct,
		})
	if result.Error != nil {
		return fmt.Errorf("에이전트 자본 갱신 실패: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAgentNotFound
	}
	return nil
}
