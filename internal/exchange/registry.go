package exchange

import (
	"fmt"
	"sync"
)

// Factory는 에이전트 이름으로 거래소 클라이언트를 생성하는 함수입니다
// 자격 증명이 없는 에이전트에 대해서는 에러를 반환해야 합니다
type Factory func(agentName string) (Exchange, error)

// Registry는 에이전트별 거래소 클라이언트를 보관하는 레지스트리입니다
// 클라이언트는 최초 사용 시 생성되어 재사용됩니다
type Registry struct {
	factory Factory
	clients map[string]Exchange
	mu      sync.Mutex
}

// NewRegistry는 새로운 클라이언트 레지스트리를 생성합니다
func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory: factory,
		clients: make(map[string]Exchange),
	}
}

// Get은 에이전트의 거래소 클라이언트를 반환합니다
// 아직 생성되지 않았다면 팩토리로 생성해 캐시합니다
func (r *Registry) Get(agentName string) (Exchange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[agentName]; ok {
		return client, nil
	}

	client, err := r.factory(agentName)
	if err != nil {
		return nil, fmt.Errorf("거래소 클라이언트 생성 실패 (%s): %w", agentName, err)
	}

	r.clients[agentName] = client
	return client, nil
}

// Any는 레지스트리에 존재하는 아무 클라이언트나 하나 반환합니다
// 시장 데이터 조회처럼 인증 주체가 중요하지 않은 경우에 사용합니다
func (r *Registry) Any() (Exchange, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		return client, true
	}
	return nil, false
}

// Invalidate는 에이전트의 캐시된 클라이언트를 제거합니다
// 자격 증명 교체를 위한 훅이며 현재 운영 중에는 호출되지 않습니다
func (r *Registry) Invalidate(agentName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, agentName)
}
