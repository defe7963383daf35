// internal/exchange/exchange.go
package exchange

import (
	"context"
	"time"

	"github.com/assist-by/arena/internal/domain"
)

// Exchange는 거래소와의 상호작용을 위한 인터페이스입니다.
type Exchange interface {
	// 시장 데이터 조회
	Get24hrStats(ctx context.Context, symbol string) (*domain.MarketQuote, error)

	// 계정 데이터 조회
	GetAccountInfo(ctx context.Context) (*domain.AccountInfo, error)
	GetPositions(ctx context.Context) ([]domain.ExchangePosition, error)

	// 거래 기능
	CreateOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error)

	// 시간 동기화
	SyncTime(ctx context.Context) error
}

// ServerTimer는 서버 시간 조회를 지원하는 거래소입니다
type ServerTimer interface {
	GetServerTime(ctx context.Context) (time.Time, error)
}
