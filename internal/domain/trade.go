package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide indicates whether a trade bought or sold an asset.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Trade is the receipt of a committed buy or sell.
type Trade struct {
	TradeID    string
	Side       TradeSide
	Symbol     string
	Price      decimal.Decimal
	Quantity   int64
	Total      decimal.Decimal // price × quantity
	ExecutedAt time.Time
}
