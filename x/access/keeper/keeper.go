package keeper

import (
	"context"
	"errors"
	"strings"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/internal/ledger"
	"github.com/al-neptune/protocol/x/access/types"
)

// Keeper is the role table: a mapping from role to its admin role plus a
// flat (role, account) membership set.
type Keeper struct {
	cdc          codec.Codec
	storeService store.KVStoreService
	logger       log.Logger

	RoleAdmins collections.Map[string, string]
	Members    collections.KeySet[collections.Pair[string, sdk.AccAddress]]
}

// NewKeeper creates a new access keeper.
func NewKeeper(
	cdc codec.Codec,
	storeService store.KVStoreService,
	logger log.Logger,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		cdc:          cdc,
		storeService: storeService,
		logger:       logger,
		RoleAdmins: collections.NewMap(
			sb,
			collections.NewPrefix(types.RoleAdminKeyPrefix),
			"role_admins",
			collections.StringKey,
			collections.StringValue,
		),
		Members: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.RoleMemberKeyPrefix),
			"role_members",
			collections.PairKeyCodec(collections.StringKey, sdk.AccAddressKey),
		),
	}
}

// Logger returns a module-scoped logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	if sdkCtx, ok := ledger.UnwrapContext(ctx); ok {
		return sdkCtx.Logger().With("module", "x/"+types.ModuleName)
	}
	return k.logger.With("module", "x/"+types.ModuleName)
}

// HasRole reports whether account holds role.
func (k Keeper) HasRole(ctx context.Context, role string, account sdk.AccAddress) bool {
	if len(account) == 0 {
		return false
	}
	ok, err := k.Members.Has(ctx, collections.Join(role, account))
	return err == nil && ok
}

// EnsureRole returns ErrPermissionDenied unless account holds role.
func (k Keeper) EnsureRole(ctx context.Context, role string, account sdk.AccAddress) error {
	if k.HasRole(ctx, role, account) {
		return nil
	}
	k.Logger(ctx).Debug("permission denied", "role", role, "account", account.String())
	return errorsmod.Wrapf(types.ErrPermissionDenied, "%s does not hold role %s", account, role)
}

// GetRoleAdmin returns the role that administers role.
func (k Keeper) GetRoleAdmin(ctx context.Context, role string) string {
	admin, err := k.RoleAdmins.Get(ctx, role)
	if errors.Is(err, collections.ErrNotFound) || admin == "" {
		return types.RoleAdmin
	}
	if err != nil {
		return types.RoleAdmin
	}
	return admin
}

// SetRoleAdmin changes the admin role of role. Only holders of RoleAdmin
// may restructure the hierarchy.
func (k Keeper) SetRoleAdmin(ctx context.Context, caller sdk.AccAddress, role, adminRole string) error {
	role = strings.TrimSpace(role)
	adminRole = strings.TrimSpace(adminRole)
	if err := types.ValidateRole(role); err != nil {
		return errorsmod.Wrap(types.ErrInvalidRole, err.Error())
	}
	if err := types.ValidateRole(adminRole); err != nil {
		return errorsmod.Wrap(types.ErrInvalidRole, err.Error())
	}
	if err := k.EnsureRole(ctx, types.RoleAdmin, caller); err != nil {
		return err
	}
	if err := k.RoleAdmins.Set(ctx, role, adminRole); err != nil {
		return err
	}

	ledger.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeRoleAdminChanged,
		sdk.NewAttribute(types.AttributeKeyRole, role),
		sdk.NewAttribute(types.AttributeKeyAdminRole, adminRole),
	))
	return nil
}

// GrantRole gives role to account. The caller must hold role's admin role.
func (k Keeper) GrantRole(ctx context.Context, caller sdk.AccAddress, role string, account sdk.AccAddress) error {
	role = strings.TrimSpace(role)
	if err := types.ValidateRole(role); err != nil {
		return errorsmod.Wrap(types.ErrInvalidRole, err.Error())
	}
	if len(account) == 0 {
		return errorsmod.Wrap(types.ErrInvalidAccount, "account cannot be empty")
	}
	if err := k.EnsureRole(ctx, k.GetRoleAdmin(ctx, role), caller); err != nil {
		return err
	}
	return k.grant(ctx, role, account)
}

// RevokeRole removes role from account. The caller must hold role's admin role.
func (k Keeper) RevokeRole(ctx context.Context, caller sdk.AccAddress, role string, account sdk.AccAddress) error {
	if err := k.EnsureRole(ctx, k.GetRoleAdmin(ctx, role), caller); err != nil {
		return err
	}
	return k.revoke(ctx, role, account)
}

// RenounceRole lets account drop a role it holds.
func (k Keeper) RenounceRole(ctx context.Context, account sdk.AccAddress, role string) error {
	if !k.HasRole(ctx, role, account) {
		return errorsmod.Wrapf(types.ErrInvalidRole, "%s does not hold role %s", account, role)
	}
	return k.revoke(ctx, role, account)
}

// GetRoleMembers returns every account holding role.
func (k Keeper) GetRoleMembers(ctx context.Context, role string) ([]sdk.AccAddress, error) {
	var members []sdk.AccAddress
	rng := collections.NewPrefixedPairRange[string, sdk.AccAddress](role)
	err := k.Members.Walk(ctx, rng, func(key collections.Pair[string, sdk.AccAddress]) (bool, error) {
		members = append(members, key.K2())
		return false, nil
	})
	return members, err
}

func (k Keeper) grant(ctx context.Context, role string, account sdk.AccAddress) error {
	if err := k.Members.Set(ctx, collections.Join(role, account)); err != nil {
		return err
	}
	k.Logger(ctx).Info("role granted", "role", role, "account", account.String())
	ledger.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeRoleGranted,
		sdk.NewAttribute(types.AttributeKeyRole, role),
		sdk.NewAttribute(types.AttributeKeyAccount, account.String()),
	))
	return nil
}

func (k Keeper) revoke(ctx context.Context, role string, account sdk.AccAddress) error {
	if err := k.Members.Remove(ctx, collections.Join(role, account)); err != nil {
		return err
	}
	k.Logger(ctx).Info("role revoked", "role", role, "account", account.String())
	ledger.EmitEvent(ctx, sdk.NewEvent(
		types.EventTypeRoleRevoked,
		sdk.NewAttribute(types.AttributeKeyRole, role),
		sdk.NewAttribute(types.AttributeKeyAccount, account.String()),
	))
	return nil
}
