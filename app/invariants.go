package app

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// InvariantRoute is one registered invariant.
type InvariantRoute struct {
	ModuleName string
	Route      string
	Invariant  sdk.Invariant
}

// FullRoute returns "module/route".
func (r InvariantRoute) FullRoute() string {
	return r.ModuleName + "/" + r.Route
}

// InvariantRegistry collects module invariants in registration order.
type InvariantRegistry struct {
	routes []InvariantRoute
}

var _ sdk.InvariantRegistry = (*InvariantRegistry)(nil)

// NewInvariantRegistry returns an empty registry.
func NewInvariantRegistry() *InvariantRegistry {
	return &InvariantRegistry{}
}

// RegisterRoute implements sdk.InvariantRegistry.
func (r *InvariantRegistry) RegisterRoute(moduleName, route string, invar sdk.Invariant) {
	r.routes = append(r.routes, InvariantRoute{ModuleName: moduleName, Route: route, Invariant: invar})
}

// Routes returns the registered invariants.
func (r *InvariantRegistry) Routes() []InvariantRoute {
	return r.routes
}
