package types

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// AccessKeeper checks role membership.
type AccessKeeper interface {
	HasRole(ctx context.Context, role string, account sdk.AccAddress) bool
	EnsureRole(ctx context.Context, role string, account sdk.AccAddress) error
}

// BankKeeper moves witness stakes.
type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoins(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error
}

// CoverKeeper supplies per-cover configuration.
type CoverKeeper interface {
	HasCover(ctx context.Context, coverKey string) bool
	IsActive(ctx context.Context, coverKey string) bool
	ReportingPeriod(ctx context.Context, coverKey string) time.Duration
	ClaimPeriod(ctx context.Context, coverKey string) time.Duration
	MinReportingStake(ctx context.Context, coverKey string) sdkmath.Int
}

// IncidentHooks is notified of incident lifecycle changes. An error from
// BeforeEmergencyCorrection vetoes the correction.
type IncidentHooks interface {
	AfterIncidentFinalized(ctx context.Context, coverKey string, incidentDate int64, outcome IncidentStatus) error
	BeforeEmergencyCorrection(ctx context.Context, coverKey string, incidentDate int64) error
}

// HaltChecker reports emergency halts.
type HaltChecker interface {
	EnsureNotHalted(ctx context.Context, scope string) error
}
