package portfolio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/stocksage/internal/core"
)

// Holding is a single purchase lot
type Holding struct {
	Ticker   string    `json:"ticker"`
	BuyDate  time.Time `json:"buy_date"`
	BuyPrice float64   `json:"buy_price"`
	Quantity float64   `json:"quantity"`
}

// CostBasis returns buy price times quantity
func (h Holding) CostBasis() float64 {
	return h.BuyPrice * h.Quantity
}

// Validate checks a holding at position index. The error names the holding.
func (h Holding) Validate(index int, now time.Time) error {
	var problems []string
	if strings.TrimSpace(h.Ticker) == "" {
		problems = append(problems, "ticker is empty")
	}
	if !(h.BuyPrice > 0) {
		problems = append(problems, fmt.Sprintf("buy_price must be positive, got %v", h.BuyPrice))
	}
	if !(h.Quantity > 0) {
		problems = append(problems, fmt.Sprintf("quantity must be positive, got %v", h.Quantity))
	}
	if !h.BuyDate.IsZero() && h.BuyDate.After(now) {
		problems = append(problems, fmt.Sprintf("buy_date %s is in the future", h.BuyDate.Format(core.DateFormat)))
	}
	if len(problems) == 0 {
		return nil
	}
	return core.WrapError(core.ErrInvalidHolding,
		fmt.Errorf("holding %d (%s): %s", index, h.Ticker, strings.Join(problems, "; ")))
}

// ParseHolding parses TICKER:YYYY-MM-DD:PRICE:QUANTITY
func ParseHolding(s string) (Holding, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return Holding{}, fmt.Errorf("holding %q: want TICKER:YYYY-MM-DD:PRICE:QUANTITY", s)
	}
	buyDate, err := time.Parse(core.DateFormat, strings.TrimSpace(parts[1]))
	if err != nil {
		return Holding{}, fmt.Errorf("holding %q: invalid buy date: %w", s, err)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return Holding{}, fmt.Errorf("holding %q: invalid buy price: %w", s, err)
	}
	qty, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil {
		return Holding{}, fmt.Errorf("holding %q: invalid quantity: %w", s, err)
	}
	return Holding{
		Ticker:   strings.ToUpper(strings.TrimSpace(parts[0])),
		BuyDate:  buyDate,
		BuyPrice: price,
		Quantity: qty,
	}, nil
}
