package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// SupportedAssets는 거래 대상 자산의 고정 목록입니다
var SupportedAssets = []string{"BTC", "ETH", "SOL", "BNB", "XRP", "DOGE"}

// QuantityPrecision은 자산별 주문 수량의 소수점 자릿수입니다
// 거래소의 LOT_SIZE 필터를 고정 설정으로 옮긴 값입니다
var QuantityPrecision = map[string]int{
	"BTC":  3,
	"ETH":  3,
	"SOL":  1,
	"BNB":  2,
	"XRP":  0,
	"DOGE": 0,
}

// AgentConfig는 에이전트 하나의 설정을 정의합니다
// 자격 증명은 환경변수 이름만 보관하며 실제 값은 거래소 클라이언트
// 생성 시점에 읽습니다
type AgentConfig struct {
	Name           string  // 에이전트 이름 (예: nova)
	AdvisorURL     string  // 자문 서비스 엔드포인트
	APIKeyEnv      string  // API 키가 담긴 환경변수 이름
	SecretKeyEnv   string  // 시크릿 키가 담긴 환경변수 이름
	InitialCapital float64 // 초기 자본 (USDT)
}

// HasCredentials는 에이전트의 거래소 자격 증명이 모두 설정되어 있는지 확인합니다
func (a AgentConfig) HasCredentials() bool {
	if a.APIKeyEnv == "" || a.SecretKeyEnv == "" {
		return false
	}
	return os.Getenv(a.APIKeyEnv) != "" && os.Getenv(a.SecretKeyEnv) != ""
}

type Config struct {
	// 바이낸스 API 설정
	Binance struct {
		UseTestnet bool          `envconfig:"BINANCE_USE_TESTNET" default:"false"`
		Timeout    time.Duration `envconfig:"BINANCE_TIMEOUT" default:"10s"`
	}

	// 데이터베이스 설정
	Database struct {
		DSN string `envconfig:"DATABASE_DSN" required:"true"`
	}

	// 제어 서버 설정
	Server struct {
		Addr   string `envconfig:"SERVER_ADDR" default:":8080"`
		Secret string `envconfig:"SCHEDULER_SECRET"`
	}

	// 디스코드 웹훅 설정 (비어 있으면 알림 비활성화)
	Discord struct {
		TradeWebhook string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook string `envconfig:"DISCORD_ERROR_WEBHOOK"`
	}

	// 스케줄러 주기 설정
	App struct {
		TradingInterval  time.Duration `envconfig:"TRADING_INTERVAL" default:"2m"`
		BalanceInterval  time.Duration `envconfig:"BALANCE_INTERVAL" default:"60s"`
		SyncInterval     time.Duration `envconfig:"SYNC_INTERVAL" default:"30s"`
		ResumePassDelay  time.Duration `envconfig:"RESUME_PASS_DELAY" default:"2s"`
		SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"60s"`
	}

	// 거래 설정
	// 상수들의 상호작용은 단일 공식에서 유도된 것이 아니므로
	// 값을 바꿀 때는 각각 독립적으로 검토해야 합니다
	Trading struct {
		Leverage          int     `envconfig:"LEVERAGE" default:"3" validate:"min=1,max=100"`
		MaxPositionPct    float64 `envconfig:"MAX_POSITION_PCT" default:"25"`
		MinTradeMargin    float64 `envconfig:"MIN_TRADE_MARGIN" default:"7"`
		MinNotional       float64 `envconfig:"MIN_NOTIONAL" default:"21"`
		MinCapital        float64 `envconfig:"MIN_CAPITAL" default:"10"`
		MaxTradesPerCycle int     `envconfig:"MAX_TRADES_PER_CYCLE" default:"3"`
		ExtremeMovePct    float64 `envconfig:"EXTREME_MOVE_PCT" default:"50"`
		StopLossPct       float64 `envconfig:"STOP_LOSS_PCT" default:"10"`
	}

	// 에이전트 설정 (AGENTS 환경변수에서 파싱)
	Agents []AgentConfig
}

// ValidateConfig는 설정이 유효한지 확인합니다
func ValidateConfig(cfg *Config) error {
	if cfg.Trading.Leverage < 1 || cfg.Trading.Leverage > 100 {
		return fmt.Errorf("레버리지는 1 이상 100 이하이어야 합니다")
	}

	if cfg.Trading.MaxPositionPct <= 0 || cfg.Trading.MaxPositionPct > 100 {
		return fmt.Errorf("최대 포지션 비율은 0 초과 100 이하이어야 합니다")
	}

	if cfg.App.TradingInterval < 1*time.Minute {
		return fmt.Errorf("TRADING_INTERVAL은 1분 이상이어야 합니다")
	}

	if len(cfg.Agents) == 0 {
		return fmt.Errorf("최소 한 개의 에이전트가 설정되어야 합니다")
	}

	for _, agent := range cfg.Agents {
		if agent.AdvisorURL == "" {
			return fmt.Errorf("에이전트 %s의 자문 서비스 URL이 없습니다", agent.Name)
		}
		if agent.InitialCapital <= 0 {
			return fmt.Errorf("에이전트 %s의 초기 자본이 유효하지 않습니다", agent.Name)
		}
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (없어도 계속 진행)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 에이전트 목록은 동적이므로 envconfig로 표현할 수 없어 직접 읽습니다
	agents, err := loadAgents()
	if err != nil {
		return nil, fmt.Errorf("에이전트 설정 로드 실패: %w", err)
	}
	cfg.Agents = agents

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}

// loadAgents는 AGENTS 환경변수에 나열된 이름으로 에이전트별 설정을 읽습니다
// 예: AGENTS=nova,orion 이면 AGENT_NOVA_ADVISOR_URL 등의 키를 읽습니다
func loadAgents() ([]AgentConfig, error) {
	raw := os.Getenv("AGENTS")
	if raw == "" {
		return nil, fmt.Errorf("AGENTS 환경변수가 비어 있습니다")
	}

	var agents []AgentConfig
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		prefix := "AGENT_" + strings.ToUpper(name) + "_"

		capital := 100.0 // 기본 초기 자본
		if rawCapital := os.Getenv(prefix + "INITIAL_CAPITAL"); rawCapital != "" {
			parsed, err := strconv.ParseFloat(rawCapital, 64)
			if err != nil {
				return nil, fmt.Errorf("%sINITIAL_CAPITAL 파싱 실패: %w", prefix, err)
			}
			capital = parsed
		}

		agents = append(agents, AgentConfig{
			Name:           name,
			AdvisorURL:     os.Getenv(prefix + "ADVISOR_URL"),
			APIKeyEnv:      os.Getenv(prefix + "API_KEY_ENV"),
			SecretKeyEnv:   os.Getenv(prefix + "SECRET_KEY_ENV"),
			InitialCapital: capital,
		})
	}

	return agents, nil
}
