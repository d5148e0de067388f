package simnet

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// FixedRateOracle quotes swaps from a static rate table, in the shape of an
// exchange router's getAmountsOut.
type FixedRateOracle struct {
	rates map[[2]string]sdkmath.LegacyDec

	// Calls counts GetAmountsOut invocations.
	Calls int
}

// NewFixedRateOracle creates an oracle with no markets.
func NewFixedRateOracle() *FixedRateOracle {
	return &FixedRateOracle{rates: make(map[[2]string]sdkmath.LegacyDec)}
}

// SetRate lists a market quoting rate units of tokenOut per tokenIn.
func (o *FixedRateOracle) SetRate(tokenIn, tokenOut string, rate sdkmath.LegacyDec) {
	o.rates[[2]string{tokenIn, tokenOut}] = rate
}

// GetAmountsOut returns the amount after each hop of path.
func (o *FixedRateOracle) GetAmountsOut(_ context.Context, amountIn sdkmath.Int, path []string) ([]sdkmath.Int, error) {
	o.Calls++
	if len(path) < 2 {
		return nil, fmt.Errorf("oracle path needs at least two tokens, got %d", len(path))
	}
	amounts := make([]sdkmath.Int, 0, len(path))
	amounts = append(amounts, amountIn)
	current := amountIn
	for i := 0; i+1 < len(path); i++ {
		rate, ok := o.rates[[2]string{path[i], path[i+1]}]
		if !ok {
			return nil, fmt.Errorf("no market for %s/%s", path[i], path[i+1])
		}
		current = sdkmath.LegacyNewDecFromInt(current).Mul(rate).TruncateInt()
		amounts = append(amounts, current)
	}
	return amounts, nil
}
