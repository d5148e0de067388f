package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/cometbft/cometbft/crypto"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/al-neptune/protocol/app"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	covertypes "github.com/al-neptune/protocol/x/cover/types"
	crisistypes "github.com/al-neptune/protocol/x/crisis/types"
	pooltypes "github.com/al-neptune/protocol/x/pool/types"
	strategytypes "github.com/al-neptune/protocol/x/strategy/types"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Index  int
	Action string
	OK     bool
	Detail string
	Err    error
}

func (r StepResult) String() string {
	status := "ok"
	if !r.OK {
		status = "FAIL"
	}
	line := fmt.Sprintf("#%02d %-17s %-4s", r.Index, r.Action, status)
	if r.Detail != "" {
		line += " " + r.Detail
	}
	if r.Err != nil {
		line += " error=" + r.Err.Error()
	}
	return line
}

// Runner executes a scenario against a fresh app.
type Runner struct {
	scenario *Scenario
	logger   log.Logger
	out      io.Writer

	app       *app.App
	accounts  map[string]sdk.AccAddress
	incidents map[string]int64

	height int64
	now    time.Time

	// ContinueOnError keeps executing after an unexpected step failure.
	ContinueOnError bool
}

// AccountAddress derives the deterministic address of a scenario account.
func AccountAddress(name string) sdk.AccAddress {
	return sdk.AccAddress(crypto.AddressHash([]byte("coversim/" + name)))
}

// NewRunner builds the app and loads the scenario genesis.
func NewRunner(s *Scenario, logger log.Logger, out io.Writer) (*Runner, error) {
	a, err := app.New(logger, dbm.NewMemDB(), s.Options)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		scenario:  s,
		logger:    logger.With("module", "coversim"),
		out:       out,
		app:       a,
		accounts:  make(map[string]sdk.AccAddress, len(s.Accounts)),
		incidents: make(map[string]int64),
		height:    1,
		now:       s.StartTime.UTC(),
	}
	for name := range s.Accounts {
		r.accounts[name] = AccountAddress(name)
	}

	gs, err := r.genesis()
	if err != nil {
		return nil, err
	}
	ctx := r.ctx()
	if err := a.InitGenesis(ctx, gs); err != nil {
		return nil, err
	}
	for _, rate := range s.OracleRates {
		a.Oracle.SetRate(rate.From, rate.To, sdkmath.LegacyMustNewDecFromStr(rate.Rate))
	}
	if err := a.CheckInvariants(ctx); err != nil {
		return nil, err
	}
	a.RunReadinessChecks(ctx)
	a.Commit()
	return r, nil
}

// App returns the app under test.
func (r *Runner) App() *app.App {
	return r.app
}

// Address returns the address of a named account.
func (r *Runner) Address(name string) sdk.AccAddress {
	return r.accounts[name]
}

func (r *Runner) ctx() sdk.Context {
	return r.app.NewContext(r.height, r.now)
}

func (r *Runner) genesis() (*app.GenesisState, error) {
	s := r.scenario
	gs := app.NewDefaultGenesisState()

	names := make([]string, 0, len(s.Accounts))
	for name := range s.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		coins, err := sdk.ParseCoinsNormalized(s.Accounts[name])
		if err != nil {
			return nil, err
		}
		if !coins.IsZero() {
			gs.Accounts = append(gs.Accounts, app.GenesisAccount{Address: r.accounts[name].String(), Coins: coins})
		}
	}

	roles := make([]string, 0, len(s.Roles))
	for role := range s.Roles {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		for _, member := range s.Roles[role] {
			gs.Access.Grants = append(gs.Access.Grants, accesstypes.RoleGrant{Role: role, Account: r.accounts[member].String()})
		}
	}

	if s.Treasury != "" {
		treasury := r.accounts[s.Treasury].String()
		gs.Incident.Params.TreasuryAddress = treasury
		gs.Pool.Params.TreasuryAddress = treasury
		gs.Claims.Params.TreasuryAddress = treasury
	}

	for _, c := range s.Covers {
		cover := covertypes.Cover{
			Key:             c.Key,
			Name:            c.Name,
			Owner:           r.accounts[c.Owner].String(),
			StablecoinDenom: c.Stablecoin,
			ReportingPeriod: c.ReportingPeriod,
			ClaimPeriod:     c.ClaimPeriod,
			Active:          true,
			CreatedAtUnix:   r.now.Unix(),
		}
		if c.MinReportingStake != "" {
			cover.MinReportingStake, _ = parseAmount(c.MinReportingStake)
		}
		gs.Cover.Covers = append(gs.Cover.Covers, cover)

		if c.Vault != "" {
			coins, err := sdk.ParseCoinsNormalized(c.Vault)
			if err != nil {
				return nil, err
			}
			gs.Accounts = append(gs.Accounts, app.GenesisAccount{Address: covertypes.VaultAddress(c.Key).String(), Coins: coins})
		}
		if len(c.Strategies) > 0 {
			allocs := make([]strategytypes.Allocation, 0, len(c.Strategies))
			for _, a := range c.Strategies {
				allocs = append(allocs, strategytypes.Allocation{StrategyKey: a.Strategy, WeightBps: a.WeightBps})
			}
			gs.Strategy.Covers = append(gs.Strategy.Covers, strategytypes.CoverAllocations{CoverKey: c.Key, Allocations: allocs})
		}
	}

	for _, p := range s.Pools {
		reward, _ := parseAmount(p.RewardPerBlock)
		maxStake, _ := parseAmount(p.MaxStake)
		gs.Pool.Pools = append(gs.Pool.Pools, pooltypes.Pool{
			Key:            p.Key,
			Name:           p.Name,
			StakingDenom:   p.StakingDenom,
			RewardDenom:    p.RewardDenom,
			QuoteDenom:     p.QuoteDenom,
			RewardPerBlock: reward,
			LockupBlocks:   p.LockupBlocks,
			MaxStake:       maxStake,
			PlatformFeeBps: p.PlatformFeeBps,
		})
	}
	return gs, nil
}

// Run executes every step, checking invariants after each one. It returns
// the results and an error when an unexpected failure stopped the run or,
// with ContinueOnError, when any step failed.
func (r *Runner) Run() ([]StepResult, error) {
	results := make([]StepResult, 0, len(r.scenario.Steps))
	failed := 0
	for i, step := range r.scenario.Steps {
		res := r.runStep(i, step)
		results = append(results, res)
		fmt.Fprintln(r.out, res.String())
		if res.OK {
			continue
		}
		failed++
		if !r.ContinueOnError {
			return results, fmt.Errorf("step %d (%s) failed: %v", i, step.Action, res.Err)
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%d of %d steps failed", failed, len(results))
	}
	return results, nil
}

func (r *Runner) runStep(i int, step Step) StepResult {
	res := StepResult{Index: i, Action: step.Action}
	ctx := r.ctx()

	detail, err := r.execute(ctx, step)
	res.Detail = detail

	switch {
	case step.ExpectError != "" && err == nil:
		res.Err = fmt.Errorf("expected error containing %q", step.ExpectError)
	case step.ExpectError != "" && !strings.Contains(err.Error(), step.ExpectError):
		res.Err = fmt.Errorf("expected error containing %q, got: %w", step.ExpectError, err)
	case step.ExpectError != "":
		res.Detail = strings.TrimSpace(res.Detail + " rejected as expected")
	default:
		res.Err = err
	}

	if res.Err == nil {
		if invErr := r.app.CheckInvariants(ctx); invErr != nil {
			res.Err = fmt.Errorf("invariant: %w", invErr)
		}
	}
	res.OK = res.Err == nil
	r.app.Commit()
	r.logger.Debug("step executed", "index", i, "action", step.Action, "ok", res.OK)
	return res
}

func (r *Runner) execute(ctx sdk.Context, st Step) (string, error) {
	a := r.app
	actor := r.accounts[st.Actor]
	amount := sdkmath.ZeroInt()
	if st.Amount != "" {
		amount, _ = parseAmount(st.Amount)
	}
	date := st.Incident
	if date == 0 {
		date = r.incidents[st.Cover]
	}

	switch st.Action {
	case ActionReport:
		d, err := a.IncidentKeeper.Report(ctx, actor, st.Cover, st.Info, amount)
		if err != nil {
			return "", err
		}
		r.incidents[st.Cover] = d
		return fmt.Sprintf("incident=%d", d), nil

	case ActionAttest:
		return "", a.IncidentKeeper.Attest(ctx, actor, st.Cover, date, amount)

	case ActionRefute:
		return "", a.IncidentKeeper.Refute(ctx, actor, st.Cover, date, st.Info, amount)

	case ActionResolve:
		status, err := a.IncidentKeeper.Resolve(ctx, actor, st.Cover, date)
		return fmt.Sprintf("status=%s", status), err

	case ActionEmergencyResolve:
		status, err := a.IncidentKeeper.EmergencyResolve(ctx, actor, st.Cover, date, *st.Decision)
		return fmt.Sprintf("status=%s", status), err

	case ActionSettle:
		settled, err := a.IncidentKeeper.SettleStakes(ctx, st.Cover, date)
		return fmt.Sprintf("settled=%t", settled), err

	case ActionUnstake:
		paid, err := a.IncidentKeeper.Unstake(ctx, actor, st.Cover, date)
		return fmt.Sprintf("paid=%s", paid), err

	case ActionFinalize:
		finalized, err := a.IncidentKeeper.Finalize(ctx, st.Cover, date)
		return fmt.Sprintf("finalized=%t", finalized), err

	case ActionMintClaimTokens:
		return "", a.ClaimTokens.Mint(ctx, st.Cover, r.expiry(st), actor, amount)

	case ActionClaim:
		res, err := a.ClaimsKeeper.Claim(ctx, actor, st.Cover, date, r.expiry(st), amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("payout=%s fee=%s net=%s recalled=%s", res.Payout, res.Fee, res.Net, res.Recalled), nil

	case ActionAllocate:
		res, err := a.StrategyKeeper.MsgAllocate(ctx, actor, st.Cover, amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("allocated=%s strategies=%d", res.Allocated, len(res.Entries)), nil

	case ActionRecall:
		var (
			got sdkmath.Int
			err error
		)
		if st.Strategy != "" {
			got, err = a.StrategyKeeper.MsgRecall(ctx, actor, st.Cover, st.Strategy, amount)
		} else {
			got, err = a.StrategyKeeper.RecallFor(ctx, st.Cover, amount)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("received=%s", got), nil

	case ActionStake:
		return "", a.PoolKeeper.Stake(ctx, actor, st.Pool, amount)

	case ActionWithdraw:
		return "", a.PoolKeeper.Withdraw(ctx, actor, st.Pool, amount)

	case ActionWithdrawRewards:
		paid, err := a.PoolKeeper.WithdrawRewards(ctx, actor, st.Pool)
		return fmt.Sprintf("rewards=%s", paid), err

	case ActionFundRewards:
		return "", a.PoolKeeper.FundRewards(ctx, actor, st.Pool, amount)

	case ActionHalt:
		err := a.CrisisKeeper.MsgHalt(ctx, crisistypes.MsgHalt{Requester: actor.String(), Reason: st.Reason, Scopes: st.Scopes})
		return fmt.Sprintf("scopes=%v", a.CrisisKeeper.GetHaltState(ctx).Scopes), err

	case ActionClearHalt:
		return "", a.CrisisKeeper.ClearHalt(ctx, actor)

	case ActionAdvance:
		r.height += st.Blocks
		r.now = r.now.Add(st.Duration)
		return fmt.Sprintf("height=%d time=%s", r.height, r.now.Format(time.RFC3339)), nil
	}
	return "", fmt.Errorf("unknown action %q", st.Action)
}

func (r *Runner) expiry(st Step) int64 {
	return r.scenario.StartTime.Add(st.Expiry).Unix()
}

// PrintBalances writes the final balances of every scenario account.
func (r *Runner) PrintBalances(denoms ...string) {
	ctx := r.ctx()
	names := make([]string, 0, len(r.accounts))
	for name := range r.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts := make([]string, 0, len(denoms))
		for _, denom := range denoms {
			parts = append(parts, r.app.Bank.GetBalance(ctx, r.accounts[name], denom).String())
		}
		fmt.Fprintf(r.out, "%-12s %s\n", name, strings.Join(parts, " "))
	}
}

// Denoms returns every denom named by the scenario's accounts, covers and
// pools, sorted.
func (s *Scenario) Denoms() []string {
	set := make(map[string]struct{})
	for _, coins := range s.Accounts {
		parsed, _ := sdk.ParseCoinsNormalized(coins)
		for _, c := range parsed {
			set[c.Denom] = struct{}{}
		}
	}
	for _, c := range s.Covers {
		if c.Stablecoin != "" {
			set[c.Stablecoin] = struct{}{}
		}
	}
	for _, p := range s.Pools {
		set[p.StakingDenom] = struct{}{}
		set[p.RewardDenom] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
