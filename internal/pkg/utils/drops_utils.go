package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DropsPerXRP is the fixed scale between drops and XRP.
const DropsPerXRP = 1_000_000

var dropsScale = decimal.NewFromInt(DropsPerXRP)

// DropsToXRP converts an integer drop amount to XRP.
// Example: 1234500 => 1.2345
func DropsToXRP(drops int64) decimal.Decimal {
	return decimal.NewFromInt(drops).Div(dropsScale)
}

// XRPToDrops converts an XRP amount to drops, truncating any fraction of a drop.
func XRPToDrops(xrp decimal.Decimal) int64 {
	return xrp.Mul(dropsScale).Truncate(0).IntPart()
}

// ParseDrops parses a drops string as returned by the ledger.
func ParseDrops(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty drops amount")
	}
	drops, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid drops amount %q: %w", raw, err)
	}
	return drops, nil
}

// ParseDropsToXRP parses a drops string and converts it to XRP.
func ParseDropsToXRP(raw string) (decimal.Decimal, error) {
	drops, err := ParseDrops(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return DropsToXRP(drops), nil
}

// FormatXRP renders an XRP amount with at most six decimals and no trailing zeros.
func FormatXRP(xrp decimal.Decimal) string {
	return xrp.Truncate(6).String()
}
