package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAgents(t *testing.T) {
	t.Run("여러 에이전트 파싱", func(t *testing.T) {
		t.Setenv("AGENTS", "nova, orion")
		t.Setenv("AGENT_NOVA_ADVISOR_URL", "http://localhost:9001/decide")
		t.Setenv("AGENT_NOVA_API_KEY_ENV", "NOVA_API_KEY")
		t.Setenv("AGENT_NOVA_SECRET_KEY_ENV", "NOVA_SECRET_KEY")
		t.Setenv("AGENT_NOVA_INITIAL_CAPITAL", "250")
		t.Setenv("AGENT_ORION_ADVISOR_URL", "http://localhost:9002/decide")

		agents, err := loadAgents()
		require.NoError(t, err)
		require.Len(t, agents, 2)

		assert.Equal(t, "nova", agents[0].Name)
		assert.Equal(t, "http://localhost:9001/decide", agents[0].AdvisorURL)
		assert.Equal(t, "NOVA_API_KEY", agents[0].APIKeyEnv)
		assert.InDelta(t, 250.0, agents[0].InitialCapital, 1e-9)

		// 초기 자본을 지정하지 않으면 기본값을 사용합니다
		assert.Equal(t, "orion", agents[1].Name)
		assert.InDelta(t, 100.0, agents[1].InitialCapital, 1e-9)
	})

	t.Run("AGENTS가 비어 있으면 에러", func(t *testing.T) {
		t.Setenv("AGENTS", "")
		_, err := loadAgents()
		assert.Error(t, err)
	})

	t.Run("잘못된 초기 자본은 에러", func(t *testing.T) {
		t.Setenv("AGENTS", "nova")
		t.Setenv("AGENT_NOVA_INITIAL_CAPITAL", "많이")
		_, err := loadAgents()
		assert.Error(t, err)
	})
}

func TestHasCredentials(t *testing.T) {
	agent := AgentConfig{APIKeyEnv: "TEST_API_KEY", SecretKeyEnv: "TEST_SECRET_KEY"}

	t.Run("환경변수 이름만 있고 값이 없으면 false", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "")
		t.Setenv("TEST_SECRET_KEY", "")
		assert.False(t, agent.HasCredentials())
	})

	t.Run("둘 다 값이 있어야 true", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "key")
		t.Setenv("TEST_SECRET_KEY", "secret")
		assert.True(t, agent.HasCredentials())
	})

	t.Run("환경변수 이름이 비어 있으면 false", func(t *testing.T) {
		assert.False(t, AgentConfig{}.HasCredentials())
	})
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Trading.Leverage = 3
		cfg.Trading.MaxPositionPct = 25
		cfg.App.TradingInterval = 2 * time.Minute
		cfg.Agents = []AgentConfig{
			{Name: "nova", AdvisorURL: "http://localhost:9001", InitialCapital: 100},
		}
		return cfg
	}

	t.Run("유효한 설정", func(t *testing.T) {
		assert.NoError(t, ValidateConfig(valid()))
	})

	t.Run("레버리지 범위 검사", func(t *testing.T) {
		cfg := valid()
		cfg.Trading.Leverage = 0
		assert.Error(t, ValidateConfig(cfg))

		cfg.Trading.Leverage = 101
		assert.Error(t, ValidateConfig(cfg))
	})

	t.Run("거래 주기는 1분 이상", func(t *testing.T) {
		cfg := valid()
		cfg.App.TradingInterval = 30 * time.Second
		assert.Error(t, ValidateConfig(cfg))
	})

	t.Run("에이전트가 없으면 에러", func(t *testing.T) {
		cfg := valid()
		cfg.Agents = nil
		assert.Error(t, ValidateConfig(cfg))
	})

	t.Run("자문 서비스 URL이 없는 에이전트는 에러", func(t *testing.T) {
		cfg := valid()
		cfg.Agents[0].AdvisorURL = ""
		assert.Error(t, ValidateConfig(cfg))
	})
}
