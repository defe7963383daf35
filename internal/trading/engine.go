package trading

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/assist-by/arena/internal/accounting"
	"github.com/assist-by/arena/internal/advisor"
	"github.com/assist-by/arena/internal/config"
	"github.com/assist-by/arena/internal/domain"
	"github.com/assist-by/arena/internal/exchange"
	"github.com/assist-by/arena/internal/market"
	"github.com/assist-by/arena/internal/notification"
	"github.com/assist-by/arena/internal/position"
	"github.com/assist-by/arena/internal/risk"
	"github.com/assist-by/arena/internal/store"
)

// Params는 거래 엔진 구성에 필요한 의존성과 한도를 모아둡니다
type Params struct {
	Store       *store.Store
	Registry    *exchange.Registry
	Market      *market.Aggregator
	Advisors    map[string]advisor.Advisor // 에이전트 이름 키
	Reconciler  *position.Reconciler
	Accountant  *accounting.Accountant
	Notifier    notification.Notifier
	Limits      risk.Limits
	Leverage    int
	MinNotional float64
	CycleWindow time.Duration // 거래 횟수 집계 윈도우 (= 거래 주기)
}

// Engine은 에이전트별 거래 사이클을 실행합니다
// 한 에이전트의 실패가 다른 에이전트의 사이클을 중단시키지 않습니다
type Engine struct {
	store       *store.Store
	registry    *exchange.Registry
	market      *market.Aggregator
	advisors    map[string]advisor.Advisor
	reconciler  *position.Reconciler
	accountant  *accounting.Accountant
	notifier    notification.Notifier
	limits      risk.Limits
	leverage    int
	minNotional float64
	cycleWindow time.Duration
	log         *logrus.Entry
}

// NewEngine은 새로운 거래 엔진을 생성합니다
func NewEngine(p Params, logger *logrus.Logger) *Engine {
	return &Engine{
		store:       p.Store,
		registry:    p.Registry,
		market:      p.Market,
		advisors:    p.Advisors,
		reconciler:  p.Reconciler,
		accountant:  p.Accountant,
		notifier:    p.Notifier,
		limits:      p.Limits,
		leverage:    p.Leverage,
		minNotional: p.MinNotional,
		cycleWindow: p.CycleWindow,
		log:         logger.WithField("component", "trading"),
	}
}

// RunPass는 한 번의 거래 사이클을 실행합니다
// 시세는 사이클당 한 번만 조회해 모든 에이전트가 공유합니다
func (e *Engine) RunPass(ctx context.Context) error {
	quotes, err := e.market.GetQuotes(ctx)
	if err != nil {
		return fmt.Errorf("시세 조회 실패: %w", err)
	}
	if len(quotes) == 0 {
		e.log.Warn("조회된 시세가 없어 이번 사이클을 건너뜁니다")
		return nil
	}

	agents, err := e.store.ListActiveAgents(ctx)
	if err != nil {
		return fmt.Errorf("에이전트 목록 조회 실패: %w", err)
	}

	for _, agent := range agents {
		if err := e.runAgent(ctx, agent, quotes); err != nil {
			e.log.WithField("agent", agent.Name).WithError(err).Error("에이전트 사이클 실패")
			if notifyErr := e.notifier.SendError(fmt.Errorf("에이전트 %s: %w", agent.Name, err)); notifyErr != nil {
				e.log.WithError(notifyErr).Warn("에러 알림 전송 실패")
			}
		}
	}

	return nil
}

// runAgent는 에이전트 하나의 결정-검증-실행 파이프라인을 수행합니다
func (e *Engine) runAgent(ctx context.Context, agent store.Agent, quotes domain.QuoteMap) error {
	log := e.log.WithField("agent", agent.Name)

	// 1. 거래소 클라이언트 확보
	// 자격 증명이 없는 에이전트는 거래 없이 잔고 갱신만 수행합니다
	client, err := e.registry.Get(agent.Name)
	if err != nil {
		log.WithError(err).Warn("거래소 클라이언트를 만들 수 없어 거래를 건너뜁니다")
		return e.accountant.RefreshAgent(ctx, agent, nil)
	}

	// 2. 결정 전에 포지션을 거래소 기준으로 재조정합니다
	exchangePositions, err := client.GetPositions(ctx)
	if err != nil {
		return position.NewTradeError(agent.Name, "", "sync", err)
	}
	if err := e.reconciler.Sync(ctx, agent.ID, exchangePositions); err != nil {
		return position.NewTradeError(agent.Name, "", "sync", err)
	}

	// 3. 자문/검증 컨텍스트 구성
	positions, err := e.store.ListPositions(ctx, agent.ID)
	if err != nil {
		return fmt.Errorf("포지션 조회 실패: %w", err)
	}

	tradesThisCycle, err := e.store.CountOrdersSince(ctx, agent.ID, time.Now().Add(-e.cycleWindow))
	if err != nil {
		return fmt.Errorf("사이클 거래 횟수 조회 실패: %w", err)
	}

	rctx := buildRiskContext(agent, positions, quotes, tradesThisCycle)

	// 4. 자문 서비스에 결정을 요청합니다
	adv, ok := e.advisors[agent.Name]
	if !ok {
		log.Warn("자문 서비스가 설정되지 않아 HOLD로 처리합니다")
		return nil
	}
	decision := adv.AnalyzeMarket(ctx, buildMarketContext(agent, positions, quotes, tradesThisCycle))

	// 5. 리스크 검증
	result := risk.Validate(decision, rctx, e.limits)
	if !result.IsValid {
		log.WithFields(logrus.Fields{
			"action": decision.Action,
			"symbol": decision.Symbol,
			"reason": result.Reason,
		}).Info("결정이 리스크 검증에서 거부되었습니다")
		e.recordActivity(ctx, store.ActivityEvent{
			AgentID:  agent.ID,
			Type:     domain.ActivityDecisionRejected,
			Message:  result.Reason,
			Symbol:   decision.Symbol,
			Strategy: decision.Strategy,
		})
		return nil
	}

	if decision.Action == domain.ActionHold {
		log.Debug("HOLD 결정, 이번 사이클은 거래하지 않습니다")
		return nil
	}

	// 손절 기준을 넘은 청산은 별도 이벤트로 기록합니다 (차단하지 않음)
	if decision.Action == domain.ActionClose && risk.IsStopLossClose(decision, rctx, e.limits) {
		e.recordActivity(ctx, store.ActivityEvent{
			AgentID: agent.ID,
			Type:    domain.ActivityStopLoss,
			Message: fmt.Sprintf("%s 포지션이 손절 기준을 넘어 청산됩니다", decision.Symbol),
			Symbol:  decision.Symbol,
		})
	}

	decision = decision.ApplyOverride(result.Adjusted)

	// 6. 주문 실행
	var execErr error
	switch decision.Action {
	case domain.ActionOpen:
		execErr = e.executeOpen(ctx, client, agent, decision, quotes)
	case domain.ActionClose:
		execErr = e.executeClose(ctx, client, agent, decision)
	}
	if execErr != nil {
		return execErr
	}

	// 7. 실행 결과를 포지션과 잔고에 반영합니다
	return e.settle(ctx, client, agent)
}

// executeOpen은 검증을 통과한 진입 결정을 주문으로 실행합니다
func (e *Engine) executeOpen(ctx context.Context, client exchange.Exchange, agent store.Agent, decision domain.Decision, quotes domain.QuoteMap) error {
	quote, ok := quotes[decision.Symbol]
	if !ok {
		return position.NewTradeError(agent.Name, decision.Symbol, "size", position.ErrInvalidPrice)
	}

	sizing, err := position.CalculateOpenQuantity(position.SizingConfig{
		Capital:     agent.CurrentCapital,
		SizePercent: decision.PositionSizePercent,
		Leverage:    e.leverage,
		Price:       quote.CurrentPrice,
		Precision:   config.QuantityPrecision[decision.Symbol],
		MinNotional: e.minNotional,
	})
	if err != nil {
		e.recordActivity(ctx, store.ActivityEvent{
			AgentID:  agent.ID,
			Type:     domain.ActivityDecisionRejected,
			Message:  fmt.Sprintf("주문 수량 산출 실패: %v", err),
			Symbol:   decision.Symbol,
			Strategy: decision.Strategy,
		})
		return position.NewTradeError(agent.Name, decision.Symbol, "size", err)
	}

	side, positionSide := domain.Buy, domain.LongPosition
	if decision.Direction == domain.DirectionShort {
		side, positionSide = domain.Sell, domain.ShortPosition
	}

	req := domain.OrderRequest{
		Symbol:       domain.ToExchangeSymbol(decision.Symbol),
		Side:         side,
		PositionSide: positionSide,
		Type:         domain.Market,
		Quantity:     sizing.Quantity,
	}

	resp, orderID, err := e.submitOrder(ctx, client, agent, req, decision.Strategy, decision.Reasoning)
	if err != nil {
		return err
	}

	e.recordActivity(ctx, store.ActivityEvent{
		AgentID: agent.ID,
		Type:    domain.ActivityPositionOpened,
		Message: fmt.Sprintf("%s %s 포지션 진입 (수량: %.8f)", decision.Symbol, decision.Direction, resp.ExecutedQuantity),
		Symbol:  decision.Symbol, Strategy: decision.Strategy, OrderID: orderID,
	})

	e.notifyTrade(notification.TradeInfo{
		Agent:     agent.Name,
		Symbol:    decision.Symbol,
		Action:    string(domain.ActionOpen),
		Direction: string(decision.Direction),
		Quantity:  resp.ExecutedQuantity,
		AvgPrice:  resp.AvgPrice,
		Notional:  sizing.Notional,
		Leverage:  e.leverage,
		Strategy:  decision.Strategy,
	})

	return nil
}

// executeClose는 검증을 통과한 청산 결정을 주문으로 실행합니다
// 청산은 시세가 없어도 진행합니다
func (e *Engine) executeClose(ctx context.Context, client exchange.Exchange, agent store.Agent, decision domain.Decision) error {
	pos, err := e.store.GetPosition(ctx, agent.ID, decision.Symbol)
	if err != nil {
		return fmt.Errorf("포지션 조회 실패: %w", err)
	}
	if pos == nil {
		return position.NewTradeError(agent.Name, decision.Symbol, "close",
			fmt.Errorf("청산할 포지션이 없습니다"))
	}

	return e.closePosition(ctx, client, agent, *pos, decision.Reasoning)
}

// closePosition은 로컬 포지션 하나를 전량 청산합니다
func (e *Engine) closePosition(ctx context.Context, client exchange.Exchange, agent store.Agent, pos store.Position, reasoning string) error {
	quantity := position.CalculateCloseQuantity(pos.Size, config.QuantityPrecision[pos.Symbol])
	if quantity <= 0 {
		return position.NewTradeError(agent.Name, pos.Symbol, "close", position.ErrZeroQuantity)
	}

	side, positionSide := domain.Sell, domain.LongPosition
	if pos.Side == domain.DirectionShort {
		side, positionSide = domain.Buy, domain.ShortPosition
	}

	req := domain.OrderRequest{
		Symbol:       domain.ToExchangeSymbol(pos.Symbol),
		Side:         side,
		PositionSide: positionSide,
		Type:         domain.Market,
		Quantity:     quantity,
	}

	resp, orderID, err := e.submitOrder(ctx, client, agent, req, pos.Strategy, reasoning)
	if err != nil {
		return err
	}

	e.recordActivity(ctx, store.ActivityEvent{
		AgentID: agent.ID,
		Type:    domain.ActivityPositionClosed,
		Message: fmt.Sprintf("%s %s 포지션 청산 (수량: %.8f)", pos.Symbol, pos.Side, resp.ExecutedQuantity),
		Symbol:  pos.Symbol, Strategy: pos.Strategy, OrderID: orderID,
	})

	e.notifyTrade(notification.TradeInfo{
		Agent:     agent.Name,
		Symbol:    pos.Symbol,
		Action:    string(domain.ActionClose),
		Direction: string(pos.Side),
		Quantity:  resp.ExecutedQuantity,
		AvgPrice:  resp.AvgPrice,
		Notional:  resp.AvgPrice * resp.ExecutedQuantity,
		Leverage:  pos.Leverage,
		Strategy:  pos.Strategy,
	})

	return nil
}

// submitOrder는 주문을 PENDING으로 기록한 뒤 거래소에 제출하고
// 응답으로 기록을 정확히 한 번 갱신합니다
func (e *Engine) submitOrder(ctx context.Context, client exchange.Exchange, agent store.Agent, req domain.OrderRequest, strategy, reasoning string) (*domain.OrderResponse, string, error) {
	orderID, err := e.store.CreateOrder(ctx, store.Order{
		AgentID:   agent.ID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Strategy:  strategy,
		Reasoning: reasoning,
	})
	if err != nil {
		return nil, "", fmt.Errorf("주문 기록 실패: %w", err)
	}

	resp, err := client.CreateOrder(ctx, req)
	if err != nil {
		if markErr := e.store.MarkOrderRejected(ctx, orderID); markErr != nil {
			e.log.WithError(markErr).Error("거부된 주문 상태 갱신 실패")
		}
		e.recordActivity(ctx, store.ActivityEvent{
			AgentID: agent.ID,
			Type:    domain.ActivityTradeError,
			Message: fmt.Sprintf("주문 제출 실패: %v", err),
			Symbol:  domain.FromExchangeSymbol(req.Symbol),
			OrderID: orderID,
		})
		return nil, orderID, position.NewTradeError(agent.Name, req.Symbol, "order", err)
	}

	status := orderStatusFromExchange(resp.Status)
	if err := e.store.UpdateOrderExecution(ctx, orderID, status, resp.OrderID, resp.ExecutedQuantity, resp.AvgPrice); err != nil {
		return resp, orderID, fmt.Errorf("주문 체결 기록 실패: %w", err)
	}

	return resp, orderID, nil
}

// settle은 주문 실행 직후 포지션 재조정과 잔고 갱신을 수행합니다
// 주기 루프를 기다리지 않고 즉시 실행 결과를 반영합니다
func (e *Engine) settle(ctx context.Context, client exchange.Exchange, agent store.Agent) error {
	exchangePositions, err := client.GetPositions(ctx)
	if err != nil {
		e.log.WithField("agent", agent.Name).WithError(err).Warn("실행 후 포지션 조회 실패")
	} else if err := e.reconciler.Sync(ctx, agent.ID, exchangePositions); err != nil {
		e.log.WithField("agent", agent.Name).WithError(err).Warn("실행 후 포지션 재조정 실패")
	}

	account, err := client.GetAccountInfo(ctx)
	if err != nil {
		e.log.WithField("agent", agent.Name).WithError(err).Warn("계정 정보 조회 실패, 폴백 전략을 사용합니다")
		account = nil
	}

	// 자본이 방금 바뀌었으므로 저장소의 최신 상태로 갱신합니다
	fresh, err := e.store.GetAgent(ctx, agent.ID)
	if err != nil {
		return fmt.Errorf("에이전트 조회 실패: %w", err)
	}

	return e.accountant.RefreshAgent(ctx, *fresh, account)
}

// RefreshBalances는 모든 활성 에이전트의 잔고를 갱신합니다
// 주기 루프에서 호출되며 실패는 로그로만 남깁니다
func (e *Engine) RefreshBalances(ctx context.Context) {
	agents, err := e.store.ListActiveAgents(ctx)
	if err != nil {
		e.log.WithError(err).Error("에이전트 목록 조회 실패")
		return
	}

	for _, agent := range agents {
		var account *domain.AccountInfo
		if client, err := e.registry.Get(agent.Name); err == nil {
			if info, err := client.GetAccountInfo(ctx); err == nil {
				account = info
			} else {
				e.log.WithField("agent", agent.Name).WithError(err).Debug("계정 정보 조회 실패")
			}
		}
		if err := e.accountant.RefreshAgent(ctx, agent, account); err != nil {
			e.log.WithField("agent", agent.Name).WithError(err).Error("잔고 갱신 실패")
		}
	}
}

// SyncPositions는 모든 활성 에이전트의 포지션을 거래소 기준으로 재조정합니다
func (e *Engine) SyncPositions(ctx context.Context) {
	agents, err := e.store.ListActiveAgents(ctx)
	if err != nil {
		e.log.WithError(err).Error("에이전트 목록 조회 실패")
		return
	}

	for _, agent := range agents {
		client, err := e.registry.Get(agent.Name)
		if err != nil {
			continue
		}
		exchangePositions, err := client.GetPositions(ctx)
		if err != nil {
			e.log.WithField("agent", agent.Name).WithError(err).Warn("포지션 조회 실패")
			continue
		}
		if err := e.reconciler.Sync(ctx, agent.ID, exchangePositions); err != nil {
			e.log.WithField("agent", agent.Name).WithError(err).Error("포지션 재조정 실패")
		}
	}
}

// CloseAllPositions는 모든 활성 에이전트의 열린 포지션을 전량 청산합니다
// 청산된 포지션 수와 개별 실패 목록을 반환합니다
func (e *Engine) CloseAllPositions(ctx context.Context) (int, []error) {
	agents, err := e.store.ListActiveAgents(ctx)
	if err != nil {
		return 0, []error{fmt.Errorf("에이전트 목록 조회 실패: %w", err)}
	}

	var closed int
	var errs []error
	for _, agent := range agents {
		positions, err := e.store.ListPositions(ctx, agent.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("에이전트 %s 포지션 조회 실패: %w", agent.Name, err))
			continue
		}
		if len(positions) == 0 {
			continue
		}

		client, err := e.registry.Get(agent.Name)
		if err != nil {
			errs = append(errs, position.NewTradeError(agent.Name, "", "close", err))
			continue
		}

		for _, pos := range positions {
			if err := e.closePosition(ctx, client, agent, pos, "전체 포지션 청산 요청"); err != nil {
				errs = append(errs, err)
				continue
			}
			closed++
		}

		if err := e.settle(ctx, client, agent); err != nil {
			e.log.WithField("agent", agent.Name).WithError(err).Warn("청산 후 정산 실패")
		}
	}

	return closed, errs
}

// recordActivity는 활동 로그 기록 실패를 치명적이지 않게 처리합니다
func (e *Engine) recordActivity(ctx context.Context, event store.ActivityEvent) {
	if err := e.store.CreateActivity(ctx, event); err != nil {
		e.log.WithError(err).Error("활동 로그 기록 실패")
	}
}

func (e *Engine) notifyTrade(info notification.TradeInfo) {
	if err := e.notifier.SendTradeInfo(info); err != nil {
		e.log.WithError(err).Warn("거래 알림 전송 실패")
	}
}

// buildRiskContext는 저장소 상태를 리스크 검증 입력으로 변환합니다
func buildRiskContext(agent store.Agent, positions []store.Position, quotes domain.QuoteMap, trades int) risk.Context {
	open := make(map[string]risk.PositionInfo, len(positions))
	for _, p := range positions {
		open[p.Symbol] = risk.PositionInfo{
			Symbol:           p.Symbol,
			Side:             p.Side,
			UnrealizedPnLPct: p.UnrealizedPnLPct,
		}
	}
	return risk.Context{
		Capital:         agent.CurrentCapital,
		TradesThisCycle: trades,
		OpenPositions:   open,
		Quotes:          quotes,
	}
}

// buildMarketContext는 자문 서비스에 전달할 시장 스냅샷을 구성합니다
// 시세는 지원 자산 순서대로 정렬해 전달합니다
func buildMarketContext(agent store.Agent, positions []store.Position, quotes domain.QuoteMap, trades int) advisor.MarketContext {
	pcs := make([]advisor.PositionContext, 0, len(positions))
	for _, p := range positions {
		pcs = append(pcs, advisor.PositionContext{
			Symbol:           p.Symbol,
			Side:             string(p.Side),
			Size:             p.Size,
			EntryPrice:       p.EntryPrice,
			CurrentPrice:     p.CurrentPrice,
			Leverage:         p.Leverage,
			UnrealizedPnL:    p.UnrealizedPnL,
			UnrealizedPnLPct: p.UnrealizedPnLPct,
		})
	}

	qs := make([]domain.MarketQuote, 0, len(quotes))
	for _, symbol := range config.SupportedAssets {
		if q, ok := quotes[symbol]; ok {
			qs = append(qs, q)
		}
	}

	return advisor.MarketContext{
		AgentName:       agent.Name,
		Capital:         agent.CurrentCapital,
		TradesThisCycle: trades,
		Positions:       pcs,
		Quotes:          qs,
	}
}

// orderStatusFromExchange는 거래소 주문 상태를 내부 상태로 변환합니다
// 시장가 주문은 일반적으로 즉시 체결됩니다
func orderStatusFromExchange(status string) domain.OrderStatus {
	switch status {
	case "PARTIALLY_FILLED":
		return domain.OrderPartiallyFilled
	case "REJECTED", "EXPIRED", "CANCELED":
		return domain.OrderRejected
	default:
		return domain.OrderFilled
	}
}
