// Package ledger holds the small store helpers shared by every keeper: typed
// integer counters over collections, all-or-nothing execution, and access to
// block time and events from a plain context.Context.
package ledger

import (
	"context"
	"errors"
	"time"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BpsBase is the total basis points representing 100%.
const BpsBase int64 = 10000

// GetInt reads an integer entry, treating a missing key as zero.
func GetInt[K any](ctx context.Context, m collections.Map[K, sdkmath.Int], key K) (sdkmath.Int, error) {
	value, err := m.Get(ctx, key)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	if err != nil {
		return sdkmath.Int{}, err
	}
	return value, nil
}

// AddInt increments an integer entry by delta and returns the new value.
func AddInt[K any](ctx context.Context, m collections.Map[K, sdkmath.Int], key K, delta sdkmath.Int) (sdkmath.Int, error) {
	current, err := GetInt(ctx, m, key)
	if err != nil {
		return sdkmath.Int{}, err
	}
	next := current.Add(delta)
	if err := m.Set(ctx, key, next); err != nil {
		return sdkmath.Int{}, err
	}
	return next, nil
}

// MulBps returns amount * bps / 10000, truncated toward zero.
func MulBps(amount sdkmath.Int, bps uint32) sdkmath.Int {
	return amount.MulRaw(int64(bps)).QuoRaw(BpsBase)
}

// Atomic runs fn against a cached branch of the multistore and commits the
// branch only when fn succeeds. Every write made during a failed call,
// including token movements kept in store-backed ledgers, is discarded.
func Atomic(ctx context.Context, fn func(ctx sdk.Context) error) error {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	cacheCtx, write := sdkCtx.CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}

// AtomicResult is Atomic for calls that produce a value.
func AtomicResult[T any](ctx context.Context, fn func(ctx sdk.Context) (T, error)) (T, error) {
	var out T
	err := Atomic(ctx, func(cacheCtx sdk.Context) error {
		result, err := fn(cacheCtx)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	return out, err
}

// UnwrapContext returns the sdk.Context carried by ctx, if any.
func UnwrapContext(ctx context.Context) (sdk.Context, bool) {
	if ctx == nil {
		return sdk.Context{}, false
	}
	if sdkCtx, ok := ctx.(sdk.Context); ok {
		return sdkCtx, true
	}
	if val := ctx.Value(sdk.SdkContextKey); val != nil {
		if sdkCtx, ok := val.(sdk.Context); ok {
			return sdkCtx, true
		}
	}
	return sdk.Context{}, false
}

// Now returns the block time and height of ctx. Outside a block the wall
// clock is used and the height is zero.
func Now(ctx context.Context) (time.Time, int64) {
	if sdkCtx, ok := UnwrapContext(ctx); ok {
		return sdkCtx.BlockTime(), sdkCtx.BlockHeight()
	}
	return time.Now().UTC(), 0
}

// EmitEvent emits event on the context's event manager when one is present.
func EmitEvent(ctx context.Context, event sdk.Event) {
	sdkCtx, ok := UnwrapContext(ctx)
	if !ok {
		return
	}
	if em := sdkCtx.EventManager(); em != nil {
		em.EmitEvent(event)
	}
}
