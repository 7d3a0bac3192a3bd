package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Intent 支付意图
type Intent struct {
	ID     string
	Status string
}

// Gateway 支付网关
type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (*Intent, error)
}

// MockGateway 总是成功，意图 ID 为 mock_<毫秒时间戳>
type MockGateway struct {
	now func() time.Time
}

func NewMockGateway() *MockGateway {
	return &MockGateway{now: time.Now}
}

func (g *MockGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("invalid payment amount %s", amount)
	}
	return &Intent{
		ID:     fmt.Sprintf("mock_%d", g.now().UnixMilli()),
		Status: "succeeded",
	}, nil
}
