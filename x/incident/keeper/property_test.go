package keeper_test

import (
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/al-neptune/protocol/x/incident/types"
)

// TestStakeConservation checks that resolving, settling and unstaking every
// witness moves stake between accounts without creating or losing any, and
// leaves less than one unit per winner in escrow.
func TestStakeConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	witnesses := []sdk.AccAddress{reporter, alice, bob, carol}

	properties.Property("stake is conserved across settlement", prop.ForAll(
		func(report, attest, refute, refuteMore int64) bool {
			f := setupKeeper(t)
			before := f.total(witnesses)

			date, err := f.k.Report(f.ctx, reporter, coverKey, "x", sdkmath.NewInt(report))
			if err != nil {
				return false
			}
			if err := f.k.Attest(f.ctx, alice, coverKey, date, sdkmath.NewInt(attest)); err != nil {
				return false
			}
			if refute > 0 {
				if err := f.k.Refute(f.ctx, bob, coverKey, date, "", sdkmath.NewInt(refute)); err != nil {
					return false
				}
				if err := f.k.Refute(f.ctx, carol, coverKey, date, "", sdkmath.NewInt(refuteMore)); err != nil {
					return false
				}
			}

			ctx := afterDeadline(f.ctx)
			if _, err := f.k.Resolve(ctx, carol, coverKey, date); err != nil {
				return false
			}
			for _, w := range witnesses {
				if _, err := f.k.Unstake(ctx, w, coverKey, date); err != nil && !errors.Is(err, types.ErrNothingToUnstake) {
					return false
				}
			}

			dust := f.balance(ctx, types.EscrowAddress(coverKey))
			if dust < 0 || dust >= int64(len(witnesses)) {
				return false
			}
			after := f.total(witnesses) + f.balance(ctx, treasury) + dust
			return before == after
		},
		gen.Int64Range(100, 3_000),
		gen.Int64Range(1, 3_000),
		gen.OneConstOf(int64(0), int64(100), int64(1_500), int64(4_000)),
		gen.Int64Range(1, 3_000),
	))

	properties.TestingRun(t)
}

func (f fixture) total(accounts []sdk.AccAddress) int64 {
	var sum int64
	for _, addr := range accounts {
		sum += f.balance(f.ctx, addr)
	}
	return sum
}
