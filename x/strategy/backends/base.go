// Package backends holds the yield strategies a cover vault can lend to.
// Every backend keeps its own per-cover flow counters and hands all
// certificates and proceeds straight back to the calling vault.
package backends

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"

	"github.com/al-neptune/protocol/internal/ledger"
	"github.com/al-neptune/protocol/x/strategy/types"
)

// Config is the static description of a backend.
type Config struct {
	Key             string `json:"key" yaml:"key"`
	Name            string `json:"name" yaml:"name"`
	Weight          uint32 `json:"weight" yaml:"weight"`
	StablecoinDenom string `json:"stablecoin_denom" yaml:"stablecoin_denom"`
}

// Address returns the account a strategy operates from.
func Address(strategyKey string) sdk.AccAddress {
	return sdk.AccAddress(address.Module(types.ModuleName, []byte(strategyKey)))
}

type base struct {
	cfg         Config
	certificate string
	address     sdk.AccAddress
	bank        types.BankKeeper

	info collections.Map[collections.Pair[string, string], types.StrategyInfo]
}

func newBase(storeService store.KVStoreService, cfg Config, certificate string, bank types.BankKeeper) base {
	sb := collections.NewSchemaBuilder(storeService)
	return base{
		cfg:         cfg,
		certificate: certificate,
		address:     Address(cfg.Key),
		bank:        bank,
		info: collections.NewMap(
			sb,
			collections.NewPrefix(types.BackendInfoKeyPrefix),
			"strategy_info",
			collections.PairKeyCodec(collections.StringKey, collections.StringKey),
			ledger.JSONValue[types.StrategyInfo]("strategy_info"),
		),
	}
}

func (b base) GetKey() string { return b.cfg.Key }
func (b base) GetName() string { return b.cfg.Name }
func (b base) GetWeight() uint32 { return b.cfg.Weight }
func (b base) GetStablecoinDenom() string { return b.cfg.StablecoinDenom }
func (b base) GetCertificateDenom() string { return b.certificate }
func (b base) GetAddress() sdk.AccAddress { return b.address }

// GetInfo returns the cumulative flows recorded for coverKey.
func (b base) GetInfo(ctx context.Context, coverKey string) (types.StrategyInfo, error) {
	info, err := b.info.Get(ctx, collections.Join(b.cfg.Key, coverKey))
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewStrategyInfo(), nil
	}
	return info, err
}

func (b base) recordDeposit(ctx context.Context, coverKey string, amount sdkmath.Int) error {
	info, err := b.GetInfo(ctx, coverKey)
	if err != nil {
		return err
	}
	info.Deposited = info.Deposited.Add(amount)
	return b.info.Set(ctx, collections.Join(b.cfg.Key, coverKey), info)
}

func (b base) recordWithdrawal(ctx context.Context, coverKey string, amount sdkmath.Int) error {
	info, err := b.GetInfo(ctx, coverKey)
	if err != nil {
		return err
	}
	info.Withdrawn = info.Withdrawn.Add(amount)
	return b.info.Set(ctx, collections.Join(b.cfg.Key, coverKey), info)
}

// requireFunded checks that the allocator moved amount of stablecoin to the
// strategy before calling Deposit.
func (b base) requireFunded(ctx context.Context, amount sdkmath.Int) error {
	if !amount.IsPositive() {
		return errorsmod.Wrap(types.ErrInvalidAmount, "deposit must be positive")
	}
	held := b.bank.GetBalance(ctx, b.address, b.cfg.StablecoinDenom).Amount
	if held.LT(amount) {
		return fmt.Errorf("strategy %s holds %s%s, deposit %s", b.cfg.Key, held, b.cfg.StablecoinDenom, amount)
	}
	return nil
}

// sweep sends the strategy's whole balance of denom to to and returns it.
func (b base) sweep(ctx context.Context, denom string, to sdk.AccAddress) (sdkmath.Int, error) {
	held := b.bank.GetBalance(ctx, b.address, denom)
	if !held.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	if err := b.bank.SendCoins(ctx, b.address, to, sdk.NewCoins(held)); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return held.Amount, nil
}
