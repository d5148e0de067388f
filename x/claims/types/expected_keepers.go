package types

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	incidenttypes "github.com/al-neptune/protocol/x/incident/types"
)

// IncidentKeeper exposes resolved incidents.
type IncidentKeeper interface {
	GetIncident(ctx context.Context, coverKey string, incidentDate int64) (incidenttypes.Incident, error)
}

// StrategyKeeper recalls vault capital from yield strategies.
type StrategyKeeper interface {
	RecallFor(ctx context.Context, coverKey string, needed sdkmath.Int) (sdkmath.Int, error)
}

// BankKeeper pays claims out of cover vaults.
type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoins(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error
}

// ClaimTokenKeeper holds claim tokens by cover and expiry bucket.
type ClaimTokenKeeper interface {
	BalanceOf(ctx context.Context, coverKey string, expiry int64, holder sdk.AccAddress) (sdkmath.Int, error)
	Burn(ctx context.Context, coverKey string, expiry int64, holder sdk.AccAddress, amount sdkmath.Int) error
}

// CoverKeeper resolves cover vaults and their stablecoin.
type CoverKeeper interface {
	VaultAddress(coverKey string) sdk.AccAddress
	StablecoinDenom(ctx context.Context, coverKey string) string
}

// HaltChecker reports emergency halts.
type HaltChecker interface {
	EnsureNotHalted(ctx context.Context, scope string) error
}
