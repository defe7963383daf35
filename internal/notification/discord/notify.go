package discord

import (
	"fmt"
	"time"

	"github.com/assist-by/arena/internal/notification"
)

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	embed := NewEmbed().
		SetTitle("에러 발생").
		SetDescription(fmt.Sprintf("```%v```", err)).
		SetColor(notification.ColorError).
		SetFooter("Assist by Trading Arena 🤖").
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.errorWebhook, msg)
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	embed := NewEmbed().
		SetDescription(message).
		SetColor(notification.ColorInfo).
		SetFooter("Assist by Trading Arena 🤖").
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.tradeWebhook, msg)
}

// SendTradeInfo는 거래 실행 정보를 전송합니다
func (c *Client) SendTradeInfo(info notification.TradeInfo) error {
	embed := NewEmbed().
		SetTitle(fmt.Sprintf("거래 실행: %s (%s)", info.Symbol, info.Agent)).
		SetDescription(fmt.Sprintf(
			"**액션**: %s\n**방향**: %s\n**수량**: %.8f\n**체결가**: $%.2f\n**명목가치**: $%.2f (x%d)\n**전략**: %s",
			info.Action, info.Direction, info.Quantity, info.AvgPrice, info.Notional, info.Leverage, info.Strategy,
		)).
		SetColor(notification.GetColorForDirection(info.Direction)).
		SetFooter("Assist by Trading Arena 🤖").
		SetTimestamp(time.Now())

	msg := WebhookMessage{
		Embeds: []Embed{*embed},
	}

	return c.sendToWebhook(c.tradeWebhook, msg)
}
