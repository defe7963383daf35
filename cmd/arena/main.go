package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/assist-by/arena/internal/accounting"
	"github.com/assist-by/arena/internal/advisor"
	"github.com/assist-by/arena/internal/config"
	"github.com/assist-by/arena/internal/exchange"
	"github.com/assist-by/arena/internal/exchange/binance"
	"github.com/assist-by/arena/internal/market"
	"github.com/assist-by/arena/internal/notification/discord"
	"github.com/assist-by/arena/internal/position"
	"github.com/assist-by/arena/internal/risk"
	"github.com/assist-by/arena/internal/scheduler"
	"github.com/assist-by/arena/internal/server"
	"github.com/assist-by/arena/internal/store"
	"github.com/assist-by/arena/internal/trading"
)

func main() {
	// 명령줄 플래그 정의
	resumeFlag := flag.Bool("resume", false, "시작 직후 거래를 재개합니다")
	flag.Parse()

	// 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 로그 설정
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.Info("트레이딩 아레나 시작...")

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("설정 로드 실패: %v", err)
	}

	// Discord 클라이언트 생성
	notifier := discord.NewClient(
		cfg.Discord.TradeWebhook,
		cfg.Discord.ErrorWebhook,
		discord.WithTimeout(10*time.Second),
	)

	// 시작 알림 전송
	if err := notifier.SendInfo("🚀 트레이딩 아레나가 시작되었습니다."); err != nil {
		logger.Warnf("시작 알림 전송 실패: %v", err)
	}

	if cfg.Binance.UseTestnet {
		notifier.SendInfo("⚠️ 테스트넷 모드로 실행 중입니다. 실제 자산은 사용되지 않습니다.")
	} else {
		notifier.SendInfo("⚠️ 메인넷 모드로 실행 중입니다. 실제 자산이 사용됩니다!")
	}

	// 저장소 연결 및 스키마 마이그레이션
	st, err := store.Open(cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("저장소 초기화 실패: %v", err)
	}
	defer st.Close()

	// 에이전트별 설정 인덱스
	agentConfigs := make(map[string]config.AgentConfig, len(cfg.Agents))
	for _, agentCfg := range cfg.Agents {
		agentConfigs[agentCfg.Name] = agentCfg
	}

	// 거래소 클라이언트 레지스트리 생성
	// 클라이언트는 최초 사용 시 생성되며 서버 시간 동기화까지 마칩니다
	registry := exchange.NewRegistry(func(agentName string) (exchange.Exchange, error) {
		agentCfg, ok := agentConfigs[agentName]
		if !ok {
			return nil, fmt.Errorf("설정에 없는 에이전트입니다: %s", agentName)
		}
		if !agentCfg.HasCredentials() {
			return nil, fmt.Errorf("에이전트 %s의 거래소 자격 증명이 없습니다", agentName)
		}

		client := binance.NewClient(
			os.Getenv(agentCfg.APIKeyEnv),
			os.Getenv(agentCfg.SecretKeyEnv),
			binance.WithTimeout(cfg.Binance.Timeout),
			binance.WithTestnet(cfg.Binance.UseTestnet),
		)

		syncCtx, syncCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer syncCancel()
		if err := client.SyncTime(syncCtx); err != nil {
			return nil, fmt.Errorf("바이낸스 서버 시간 동기화 실패: %w", err)
		}

		return client, nil
	})

	// 에이전트 영속 상태 준비 및 자문 클라이언트 생성
	advisors := make(map[string]advisor.Advisor, len(cfg.Agents))
	for _, agentCfg := range cfg.Agents {
		if _, err := st.EnsureAgent(ctx, store.Agent{
			Name:           agentCfg.Name,
			AdvisorURL:     agentCfg.AdvisorURL,
			APIKeyEnv:      agentCfg.APIKeyEnv,
			SecretKeyEnv:   agentCfg.SecretKeyEnv,
			InitialCapital: agentCfg.InitialCapital,
		}); err != nil {
			logger.Fatalf("에이전트 %s 초기화 실패: %v", agentCfg.Name, err)
		}

		advisors[agentCfg.Name] = advisor.NewHTTPClient(agentCfg.AdvisorURL, agentCfg.Name, logger)

		// 자격 증명이 있는 에이전트는 시작 시점에 클라이언트를 만들어
		// 시간 동기화와 자격 증명 문제를 미리 드러냅니다
		if agentCfg.HasCredentials() {
			if _, err := registry.Get(agentCfg.Name); err != nil {
				logger.Warnf("에이전트 %s 거래소 클라이언트 생성 실패: %v", agentCfg.Name, err)
				if notifyErr := notifier.SendError(err); notifyErr != nil {
					logger.Warnf("에러 알림 전송 실패: %v", notifyErr)
				}
			}
		} else {
			logger.Warnf("에이전트 %s는 자격 증명이 없어 거래 없이 동작합니다", agentCfg.Name)
		}
	}

	// 시세 수집기 생성 (거래소 우선, CoinGecko 폴백)
	aggregator := market.NewAggregator(registry, market.NewCoinGeckoClient(), config.SupportedAssets, logger)

	// 포지션 재조정기와 잔고 회계 모듈 생성
	reconciler := position.NewReconciler(st, logger)
	accountant := accounting.NewAccountant(st, cfg.App.SnapshotInterval, logger)

	// 거래 엔진 생성
	engine := trading.NewEngine(trading.Params{
		Store:      st,
		Registry:   registry,
		Market:     aggregator,
		Advisors:   advisors,
		Reconciler: reconciler,
		Accountant: accountant,
		Notifier:   notifier,
		Limits: risk.Limits{
			MinCapital:        cfg.Trading.MinCapital,
			MaxTradesPerCycle: cfg.Trading.MaxTradesPerCycle,
			MaxPositionPct:    cfg.Trading.MaxPositionPct,
			MinTradeMargin:    cfg.Trading.MinTradeMargin,
			ExtremeMovePct:    cfg.Trading.ExtremeMovePct,
			StopLossPct:       cfg.Trading.StopLossPct,
		},
		Leverage:    cfg.Trading.Leverage,
		MinNotional: cfg.Trading.MinNotional,
		CycleWindow: cfg.App.TradingInterval,
	}, logger)

	// 스케줄러 시작 (일시 정지 상태)
	sched := scheduler.NewScheduler(engine, scheduler.Intervals{
		Trading:         cfg.App.TradingInterval,
		Balance:         cfg.App.BalanceInterval,
		Sync:            cfg.App.SyncInterval,
		ResumePassDelay: cfg.App.ResumePassDelay,
	}, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Fatalf("스케줄러 시작 실패: %v", err)
	}

	if *resumeFlag {
		sched.Resume()
	}

	// 제어 서버 시작
	gin.SetMode(gin.ReleaseMode)
	handler := server.NewHandler(sched, cfg.Server.Secret, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
	}
	go func() {
		logger.Infof("제어 서버 수신 대기: %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("제어 서버 실행 실패: %v", err)
		}
	}()

	// 종료 신호 대기
	sigCh := make(chan os.Signal, 1)
	osSignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("종료 신호 수신, 정리 중...")
	if err := notifier.SendInfo("🛑 트레이딩 아레나가 종료됩니다."); err != nil {
		logger.Warnf("종료 알림 전송 실패: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("제어 서버 종료 실패: %v", err)
	}

	sched.Stop()
	logger.Info("트레이딩 아레나 종료")
}
