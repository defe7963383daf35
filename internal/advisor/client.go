package advisor

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/assist-by/arena/internal/domain"
)

// HTTPClient는 HTTP 기반 자문 서비스 클라이언트입니다
// 에이전트마다 하나씩 생성되며 각자의 엔드포인트를 가집니다
type HTTPClient struct {
	client *resty.Client
	url    string
	log    *logrus.Entry
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*HTTPClient)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.SetTimeout(timeout)
	}
}

// NewHTTPClient는 새로운 자문 서비스 클라이언트를 생성합니다
func NewHTTPClient(url string, agentName string, logger *logrus.Logger, opts ...ClientOption) *HTTPClient {
	client := resty.New()
	client.SetTimeout(60 * time.Second) // 자문 서비스 응답은 느릴 수 있음

	c := &HTTPClient{
		client: client,
		url:    url,
		log:    logger.WithField("component", "advisor").WithField("agent", agentName),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AnalyzeMarket은 시장/포트폴리오 스냅샷을 자문 서비스에 보내고
// 구조화된 결정을 받습니다. 전송 실패나 이상한 응답에는 에러를
// 전파하는 대신 HOLD 기본값을 반환합니다
func (c *HTTPClient) AnalyzeMarket(ctx context.Context, mc MarketContext) domain.Decision {
	var decision domain.Decision

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(mc).
		SetResult(&decision).
		Post(c.url)
	if err != nil {
		c.log.WithError(err).Warn("자문 서비스 호출 실패, HOLD로 대체합니다")
		return domain.HoldDecision("자문 서비스 호출 실패")
	}
	if resp.IsError() {
		c.log.Warnf("자문 서비스 HTTP 에러(%d), HOLD로 대체합니다", resp.StatusCode())
		return domain.HoldDecision("자문 서비스 응답 오류")
	}

	return normalize(decision)
}

// normalize는 자문 서비스 응답의 형식 편차를 흡수합니다
func normalize(d domain.Decision) domain.Decision {
	d.Action = domain.DecisionAction(strings.ToUpper(string(d.Action)))
	d.Direction = domain.TradeDirection(strings.ToUpper(string(d.Direction)))
	d.Symbol = strings.ToUpper(strings.TrimSpace(d.Symbol))

	if !d.Action.IsValid() {
		return domain.HoldDecision("자문 서비스가 알 수 없는 액션을 반환했습니다")
	}

	// 확신도와 비율은 유효 범위로 잘라냅니다
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 1 {
		d.Confidence = 1
	}
	if d.PositionSizePercent < 0 {
		d.PositionSizePercent = 0
	}
	if d.PositionSizePercent > 100 {
		d.PositionSizePercent = 100
	}

	return d
}
