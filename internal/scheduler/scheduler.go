package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine은 스케줄러가 구동하는 거래 작업을 정의하는 인터페이스입니다
type Engine interface {
	RunPass(ctx context.Context) error
	RefreshBalances(ctx context.Context)
	SyncPositions(ctx context.Context)
	CloseAllPositions(ctx context.Context) (int, []error)
}

// Intervals는 각 주기 루프의 실행 간격입니다
type Intervals struct {
	Trading         time.Duration // 거래 사이클 주기
	Balance         time.Duration // 잔고 갱신 주기
	Sync            time.Duration // 포지션 동기화 주기
	ResumePassDelay time.Duration // 재개 직후 첫 사이클까지의 지연
}

// Status는 스케줄러의 현재 상태를 표현합니다
type Status struct {
	IsRunning bool `json:"isRunning"` // 루프가 구동 중인지
	IsPaused  bool `json:"isPaused"`  // 거래가 일시 정지 상태인지
	IsTrading bool `json:"isTrading"` // 거래 사이클이 실행 중인지
}

// Scheduler는 거래 사이클과 배경 유지 작업을 구동합니다
// 시작 직후에는 일시 정지 상태이며 명시적인 재개가 있어야 거래합니다
// 잔고 갱신과 포지션 동기화 루프는 일시 정지와 무관하게 계속 돕니다
type Scheduler struct {
	engine    Engine
	intervals Intervals
	log       *logrus.Entry

	mu            sync.Mutex
	isRunning     bool
	isPaused      bool
	isTrading     bool
	baseCtx       context.Context
	cancel        context.CancelFunc
	tradingCancel context.CancelFunc
	wg            sync.WaitGroup
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(engine Engine, intervals Intervals, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		engine:    engine,
		intervals: intervals,
		log:       logger.WithField("component", "scheduler"),
	}
}

// Start는 배경 유지 루프를 시작합니다
// 거래 루프는 Resume 호출 전까지 시작되지 않습니다
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("스케줄러가 이미 실행 중입니다")
	}

	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true
	s.isPaused = true

	s.wg.Add(2)
	go s.balanceLoop(s.baseCtx)
	go s.syncLoop(s.baseCtx)

	s.log.WithFields(logrus.Fields{
		"balanceInterval": s.intervals.Balance,
		"syncInterval":    s.intervals.Sync,
	}).Info("스케줄러 시작 (일시 정지 상태)")

	return nil
}

// Resume은 거래 루프를 시작합니다
// 잔고를 즉시 갱신하고 짧은 지연 후 첫 사이클을 실행한 뒤
// 거래 주기에 맞춰 반복합니다
// 실행 중이 아니거나 이미 거래 중이면 아무것도 하지 않습니다
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning || !s.isPaused {
		s.log.Debug("재개할 수 없는 상태, 무시합니다")
		return
	}

	s.isPaused = false

	var tradingCtx context.Context
	tradingCtx, s.tradingCancel = context.WithCancel(s.baseCtx)

	s.wg.Add(1)
	go s.tradingLoop(tradingCtx)

	s.log.WithField("tradingInterval", s.intervals.Trading).Info("거래 재개")
}

// Pause는 거래 루프를 중지합니다
// closePositions가 true이면 모든 열린 포지션을 청산합니다
// 배경 유지 루프는 계속 실행되며 이미 일시 정지 상태이면 아무것도 하지 않습니다
func (s *Scheduler) Pause(closePositions bool) (int, []error) {
	s.mu.Lock()
	if !s.isRunning || s.isPaused {
		s.mu.Unlock()
		s.log.Debug("일시 정지할 수 없는 상태, 무시합니다")
		return 0, nil
	}

	s.isPaused = true
	if s.tradingCancel != nil {
		s.tradingCancel()
		s.tradingCancel = nil
	}
	ctx := s.baseCtx
	s.mu.Unlock()

	s.log.WithField("closePositions", closePositions).Info("거래 일시 정지")

	if !closePositions {
		return 0, nil
	}

	return s.engine.CloseAllPositions(ctx)
}

// CloseAllPositions는 스케줄러 상태와 무관하게 전체 포지션 청산을 수행합니다
func (s *Scheduler) CloseAllPositions() (int, []error) {
	s.mu.Lock()
	ctx := s.baseCtx
	running := s.isRunning
	s.mu.Unlock()

	if !running {
		ctx = context.Background()
	}

	return s.engine.CloseAllPositions(ctx)
}

// Stop은 모든 루프를 중지하고 종료될 때까지 대기합니다
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.isPaused = true
	if s.tradingCancel != nil {
		s.tradingCancel()
		s.tradingCancel = nil
	}
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("스케줄러 중지")
}

// Status는 현재 스케줄러 상태를 반환합니다
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		IsRunning: s.isRunning,
		IsPaused:  s.isPaused,
		IsTrading: s.isTrading,
	}
}

// tradingLoop는 거래 사이클을 주기적으로 실행합니다
// 재개 직후 잔고를 갱신하고 짧은 지연 후 첫 사이클을 실행합니다
func (s *Scheduler) tradingLoop(ctx context.Context) {
	defer s.wg.Done()

	s.engine.RefreshBalances(ctx)

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.intervals.ResumePassDelay):
	}
	s.runPass(ctx)

	ticker := time.NewTicker(s.intervals.Trading)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

// runPass는 사이클 실행 중 플래그를 관리하며 엔진을 호출합니다
// 일시 정지 직후의 틱은 조용히 건너뜁니다
func (s *Scheduler) runPass(ctx context.Context) {
	s.mu.Lock()
	if s.isPaused || !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isTrading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isTrading = false
		s.mu.Unlock()
	}()

	if err := s.engine.RunPass(ctx); err != nil {
		s.log.WithError(err).Error("거래 사이클 실패")
	}
}

// balanceLoop는 일시 정지와 무관하게 잔고를 주기적으로 갱신합니다
func (s *Scheduler) balanceLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.intervals.Balance)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.engine.RefreshBalances(ctx)
		}
	}
}

// syncLoop는 일시 정지와 무관하게 포지션을 주기적으로 동기화합니다
func (s *Scheduler) syncLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.intervals.Sync)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.engine.SyncPositions(ctx)
		}
	}
}
