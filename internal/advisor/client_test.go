package advisor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/arena/internal/domain"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestAnalyzeMarket(t *testing.T) {
	ctx := context.Background()

	t.Run("정상 응답은 정규화되어 반환", func(t *testing.T) {
		var received MarketContext
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(domain.Decision{
				Action:              "open",
				Direction:           "long",
				Symbol:              " btc ",
				Strategy:            "momentum",
				PositionSizePercent: 20,
				Confidence:          0.8,
			})
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "nova", quietLogger())
		decision := client.AnalyzeMarket(ctx, MarketContext{AgentName: "nova", Capital: 100})

		assert.Equal(t, "nova", received.AgentName)
		assert.Equal(t, domain.ActionOpen, decision.Action)
		assert.Equal(t, domain.DirectionLong, decision.Direction)
		assert.Equal(t, "BTC", decision.Symbol)
	})

	t.Run("HTTP 에러 응답은 HOLD로 대체", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "nova", quietLogger())
		decision := client.AnalyzeMarket(ctx, MarketContext{})

		assert.Equal(t, domain.ActionHold, decision.Action)
	})

	t.Run("연결 실패는 HOLD로 대체", func(t *testing.T) {
		client := NewHTTPClient("http://127.0.0.1:1", "nova", quietLogger())
		decision := client.AnalyzeMarket(ctx, MarketContext{})

		assert.Equal(t, domain.ActionHold, decision.Action)
	})
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name string
		in   domain.Decision
		want domain.Decision
	}{
		{
			name: "소문자 액션과 방향을 대문자로",
			in:   domain.Decision{Action: "close", Direction: "short", Symbol: "eth"},
			want: domain.Decision{Action: domain.ActionClose, Direction: domain.DirectionShort, Symbol: "ETH"},
		},
		{
			name: "알 수 없는 액션은 HOLD",
			in:   domain.Decision{Action: "BUY_NOW", Symbol: "BTC"},
			want: domain.HoldDecision("자문 서비스가 알 수 없는 액션을 반환했습니다"),
		},
		{
			name: "확신도와 비율은 유효 범위로 절단",
			in:   domain.Decision{Action: "OPEN", Direction: "LONG", Symbol: "BTC", Confidence: 1.7, PositionSizePercent: 140},
			want: domain.Decision{Action: domain.ActionOpen, Direction: domain.DirectionLong, Symbol: "BTC", Confidence: 1, PositionSizePercent: 100},
		},
		{
			name: "음수 값은 0으로 절단",
			in:   domain.Decision{Action: "HOLD", Confidence: -0.2, PositionSizePercent: -5},
			want: domain.Decision{Action: domain.ActionHold},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalize(tc.in))
		})
	}
}
