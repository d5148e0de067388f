package app

import (
	"fmt"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"

	covertypes "github.com/al-neptune/protocol/x/cover/types"
)

// ReadinessCheck is one named startup check.
type ReadinessCheck struct {
	Name    string
	Passed  bool
	Message string
}

// ReadinessReport summarizes whether the protocol can take reports and pay
// claims.
type ReadinessReport struct {
	Ready  bool
	Checks []ReadinessCheck
}

// String returns a human-readable report.
func (r ReadinessReport) String() string {
	var b strings.Builder
	status := "READY"
	if !r.Ready {
		status = "NOT READY"
	}
	fmt.Fprintf(&b, "Protocol Readiness: %s\n", status)
	for _, c := range r.Checks {
		mark := "PASS"
		if !c.Passed {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "  [%s] %s: %s\n", mark, c.Name, c.Message)
	}
	return b.String()
}

func (r *ReadinessReport) add(name string, passed bool, format string, args ...interface{}) {
	r.Checks = append(r.Checks, ReadinessCheck{Name: name, Passed: passed, Message: fmt.Sprintf(format, args...)})
	if !passed {
		r.Ready = false
	}
}

// RunReadinessChecks validates the genesis configuration after InitGenesis.
// A failed check is logged, never fatal.
func (app *App) RunReadinessChecks(ctx sdk.Context) ReadinessReport {
	report := ReadinessReport{Ready: true}

	treasuries := map[string]string{
		"incident": app.IncidentKeeper.GetParams(ctx).TreasuryAddress,
		"pool":     app.PoolKeeper.GetParams(ctx).TreasuryAddress,
		"claims":   app.ClaimsKeeper.GetParams(ctx).TreasuryAddress,
	}
	for _, module := range []string{"incident", "pool", "claims"} {
		addr := treasuries[module]
		_, err := sdk.AccAddressFromBech32(addr)
		report.add(module+"_treasury", err == nil, "treasury=%q", addr)
	}

	strategies := app.StrategyKeeper.Strategies()
	var weight uint32
	for _, s := range strategies {
		weight += s.GetWeight()
	}
	report.add("strategies_registered", len(strategies) > 0, "count=%d", len(strategies))
	report.add("strategy_weights", weight <= 10_000, "total_weight_bps=%d", weight)

	denoms := make(map[string]struct{}, len(strategies))
	for _, s := range strategies {
		denoms[s.GetStablecoinDenom()] = struct{}{}
	}
	var unbacked []string
	_ = app.CoverKeeper.Covers.Walk(ctx, nil, func(key string, cover covertypes.Cover) (bool, error) {
		if _, ok := denoms[cover.StablecoinDenom]; !ok && len(strategies) > 0 {
			unbacked = append(unbacked, key)
		}
		return false, nil
	})
	report.add("cover_strategies", len(unbacked) == 0, "covers without a strategy for their stablecoin: %v", unbacked)

	halt := app.CrisisKeeper.GetHaltState(ctx)
	report.add("halt_inactive", !halt.Active, "active=%t reason=%q", halt.Active, halt.Reason)

	if report.Ready {
		app.logger.Info(report.String())
	} else {
		app.logger.Warn(report.String())
	}
	return report
}
