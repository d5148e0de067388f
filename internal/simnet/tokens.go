package simnet

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/al-neptune/protocol/internal/ledger"
)

// TokenLedger is a minimal bank: balances and supply per denom with
// send, mint and burn. Its method set matches the subset of the SDK bank
// keeper the protocol modules depend on.
type TokenLedger struct {
	Balances collections.Map[collections.Pair[sdk.AccAddress, string], sdkmath.Int]
	Supply   collections.Map[string, sdkmath.Int]

	// onSend, when set, runs after every successful send. Tests use it to
	// simulate collaborators that call back into the protocol.
	onSend func(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error
}

// NewTokenLedger creates a token ledger over storeService.
func NewTokenLedger(storeService store.KVStoreService) *TokenLedger {
	sb := collections.NewSchemaBuilder(storeService)
	return &TokenLedger{
		Balances: collections.NewMap(
			sb,
			collections.NewPrefix(balancePrefix),
			"balances",
			collections.PairKeyCodec(sdk.AccAddressKey, collections.StringKey),
			sdk.IntValue,
		),
		Supply: collections.NewMap(
			sb,
			collections.NewPrefix(supplyPrefix),
			"supply",
			collections.StringKey,
			sdk.IntValue,
		),
	}
}

// SetSendHook installs a callback invoked after each successful send.
func (l *TokenLedger) SetSendHook(hook func(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error) {
	l.onSend = hook
}

// GetBalance returns the balance of addr in denom.
func (l *TokenLedger) GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	amount, err := ledger.GetInt(ctx, l.Balances, collections.Join(addr, denom))
	if err != nil {
		panic(fmt.Errorf("read balance %s/%s: %w", addr, denom, err))
	}
	return sdk.NewCoin(denom, amount)
}

// GetSupply returns the outstanding supply of denom.
func (l *TokenLedger) GetSupply(ctx context.Context, denom string) sdk.Coin {
	amount, err := ledger.GetInt(ctx, l.Supply, denom)
	if err != nil {
		panic(fmt.Errorf("read supply %s: %w", denom, err))
	}
	return sdk.NewCoin(denom, amount)
}

// SendCoins moves amt from one account to another. The send is all or
// nothing: if any coin is short, no balance changes.
func (l *TokenLedger) SendCoins(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return errorsmod.Wrapf(sdkerrors.ErrInvalidCoins, "%s", amt)
	}
	for _, coin := range amt {
		balance := l.GetBalance(ctx, from, coin.Denom)
		if balance.Amount.LT(coin.Amount) {
			return errorsmod.Wrapf(sdkerrors.ErrInsufficientFunds, "%s is smaller than %s", balance, coin)
		}
	}
	for _, coin := range amt {
		if _, err := ledger.AddInt(ctx, l.Balances, collections.Join(from, coin.Denom), coin.Amount.Neg()); err != nil {
			return err
		}
		if _, err := ledger.AddInt(ctx, l.Balances, collections.Join(to, coin.Denom), coin.Amount); err != nil {
			return err
		}
	}
	if l.onSend != nil {
		return l.onSend(ctx, from, to, amt)
	}
	return nil
}

// MintCoins credits amt to addr and grows supply.
func (l *TokenLedger) MintCoins(ctx context.Context, addr sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return errorsmod.Wrapf(sdkerrors.ErrInvalidCoins, "%s", amt)
	}
	for _, coin := range amt {
		if _, err := ledger.AddInt(ctx, l.Balances, collections.Join(addr, coin.Denom), coin.Amount); err != nil {
			return err
		}
		if _, err := ledger.AddInt(ctx, l.Supply, coin.Denom, coin.Amount); err != nil {
			return err
		}
	}
	return nil
}

// BurnCoins debits amt from addr and shrinks supply.
func (l *TokenLedger) BurnCoins(ctx context.Context, addr sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return errorsmod.Wrapf(sdkerrors.ErrInvalidCoins, "%s", amt)
	}
	for _, coin := range amt {
		balance := l.GetBalance(ctx, addr, coin.Denom)
		if balance.Amount.LT(coin.Amount) {
			return errorsmod.Wrapf(sdkerrors.ErrInsufficientFunds, "burn %s from %s", coin, balance)
		}
	}
	for _, coin := range amt {
		if _, err := ledger.AddInt(ctx, l.Balances, collections.Join(addr, coin.Denom), coin.Amount.Neg()); err != nil {
			return err
		}
		if _, err := ledger.AddInt(ctx, l.Supply, coin.Denom, coin.Amount.Neg()); err != nil {
			return err
		}
	}
	return nil
}
