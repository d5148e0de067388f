package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"gopkg.in/yaml.v3"

	"github.com/al-neptune/protocol/app"
	accesstypes "github.com/al-neptune/protocol/x/access/types"
	crisistypes "github.com/al-neptune/protocol/x/crisis/types"
)

// Step actions.
const (
	ActionReport           = "report"
	ActionAttest           = "attest"
	ActionRefute           = "refute"
	ActionResolve          = "resolve"
	ActionEmergencyResolve = "emergency-resolve"
	ActionSettle           = "settle"
	ActionUnstake          = "unstake"
	ActionFinalize         = "finalize"
	ActionClaim            = "claim"
	ActionAllocate         = "allocate"
	ActionRecall           = "recall"
	ActionStake            = "stake"
	ActionWithdraw         = "withdraw"
	ActionWithdrawRewards  = "withdraw-rewards"
	ActionFundRewards      = "fund-rewards"
	ActionMintClaimTokens  = "mint-claim-tokens"
	ActionHalt             = "halt"
	ActionClearHalt        = "clear-halt"
	ActionAdvance          = "advance"
)

// Scenario is a protocol run described in YAML: the genesis setup and the
// steps executed against it.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	StartTime   time.Time   `yaml:"start_time,omitempty"`
	Options     app.Options `yaml:"options,omitempty"`

	// Accounts maps an account name to its genesis coins, e.g. "10000unpm".
	Accounts map[string]string `yaml:"accounts"`
	// Roles maps a role to the account names holding it.
	Roles    map[string][]string `yaml:"roles"`
	Treasury string              `yaml:"treasury"`

	Covers      []CoverSetup `yaml:"covers"`
	Pools       []PoolSetup  `yaml:"pools,omitempty"`
	OracleRates []OracleRate `yaml:"oracle_rates,omitempty"`

	Steps []Step `yaml:"steps"`
}

// CoverSetup creates a cover at genesis and funds its vault.
type CoverSetup struct {
	Key               string            `yaml:"key"`
	Name              string            `yaml:"name"`
	Owner             string            `yaml:"owner"`
	Stablecoin        string            `yaml:"stablecoin"`
	ReportingPeriod   time.Duration     `yaml:"reporting_period,omitempty"`
	ClaimPeriod       time.Duration     `yaml:"claim_period,omitempty"`
	MinReportingStake string            `yaml:"min_reporting_stake,omitempty"`
	Vault             string            `yaml:"vault,omitempty"`
	Strategies        []AllocationSetup `yaml:"strategies,omitempty"`
}

// AllocationSetup is one entry of a cover's strategy list.
type AllocationSetup struct {
	Strategy  string `yaml:"strategy"`
	WeightBps uint32 `yaml:"weight_bps,omitempty"`
}

// PoolSetup creates a staking pool at genesis.
type PoolSetup struct {
	Key            string `yaml:"key"`
	Name           string `yaml:"name"`
	StakingDenom   string `yaml:"staking_denom"`
	RewardDenom    string `yaml:"reward_denom"`
	QuoteDenom     string `yaml:"quote_denom,omitempty"`
	RewardPerBlock string `yaml:"reward_per_block"`
	LockupBlocks   int64  `yaml:"lockup_blocks,omitempty"`
	MaxStake       string `yaml:"max_stake"`
	PlatformFeeBps uint32 `yaml:"platform_fee_bps,omitempty"`
}

// OracleRate lists a market on the price oracle.
type OracleRate struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Rate string `yaml:"rate"`
}

// Step is one action. Fields not used by an action are ignored.
type Step struct {
	Action   string `yaml:"action"`
	Actor    string `yaml:"actor,omitempty"`
	Cover    string `yaml:"cover,omitempty"`
	Pool     string `yaml:"pool,omitempty"`
	Strategy string `yaml:"strategy,omitempty"`
	Amount   string `yaml:"amount,omitempty"`
	Info     string `yaml:"info,omitempty"`
	// Decision is the emergency resolution outcome.
	Decision *bool `yaml:"decision,omitempty"`
	// Expiry of the claim-token bucket, as an offset from the start time.
	Expiry time.Duration `yaml:"expiry,omitempty"`
	// Incident overrides the incident date, defaulting to the cover's last
	// report in this run.
	Incident int64 `yaml:"incident,omitempty"`

	Scopes []string `yaml:"scopes,omitempty"`
	Reason string   `yaml:"reason,omitempty"`

	Blocks   int64         `yaml:"blocks,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`

	// ExpectError marks the step as an expected failure whose error
	// contains this substring.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// LoadScenario reads a scenario file, rejecting unknown fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if s.StartTime.IsZero() {
		s.StartTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if len(s.Options.Strategies) == 0 {
		def := app.DefaultOptions()
		s.Options.Strategies = def.Strategies
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// Validate checks names and amounts without building an app.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := s.Options.Validate(); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	known := func(name string) bool {
		_, ok := s.Accounts[name]
		return ok
	}
	for name, coins := range s.Accounts {
		if _, err := sdk.ParseCoinsNormalized(coins); err != nil {
			return fmt.Errorf("accounts.%s: %w", name, err)
		}
	}
	for role, members := range s.Roles {
		if err := accesstypes.ValidateRole(role); err != nil {
			return fmt.Errorf("roles: %w", err)
		}
		for _, m := range members {
			if !known(m) {
				return fmt.Errorf("roles.%s: unknown account %q", role, m)
			}
		}
	}
	if s.Treasury != "" && !known(s.Treasury) {
		return fmt.Errorf("treasury: unknown account %q", s.Treasury)
	}

	covers := make(map[string]struct{}, len(s.Covers))
	for i, c := range s.Covers {
		if c.Key == "" {
			return fmt.Errorf("covers[%d]: key is required", i)
		}
		if !known(c.Owner) {
			return fmt.Errorf("covers[%d]: unknown owner %q", i, c.Owner)
		}
		if c.MinReportingStake != "" {
			if _, err := parseAmount(c.MinReportingStake); err != nil {
				return fmt.Errorf("covers[%d].min_reporting_stake: %w", i, err)
			}
		}
		if c.Vault != "" {
			if _, err := sdk.ParseCoinsNormalized(c.Vault); err != nil {
				return fmt.Errorf("covers[%d].vault: %w", i, err)
			}
		}
		covers[c.Key] = struct{}{}
	}
	pools := make(map[string]struct{}, len(s.Pools))
	for i, p := range s.Pools {
		if _, err := parseAmount(p.RewardPerBlock); err != nil {
			return fmt.Errorf("pools[%d].reward_per_block: %w", i, err)
		}
		if _, err := parseAmount(p.MaxStake); err != nil {
			return fmt.Errorf("pools[%d].max_stake: %w", i, err)
		}
		pools[p.Key] = struct{}{}
	}
	for i, r := range s.OracleRates {
		if _, err := sdkmath.LegacyNewDecFromStr(r.Rate); err != nil {
			return fmt.Errorf("oracle_rates[%d]: %w", i, err)
		}
	}

	for i, step := range s.Steps {
		if err := step.validate(known, covers, pools); err != nil {
			return fmt.Errorf("steps[%d] (%s): %w", i, step.Action, err)
		}
	}
	return nil
}

func (st Step) validate(known func(string) bool, covers, pools map[string]struct{}) error {
	needsActor, needsCover, needsPool, needsAmount := false, false, false, false
	switch st.Action {
	case ActionReport, ActionAttest, ActionRefute, ActionClaim, ActionMintClaimTokens:
		needsActor, needsCover, needsAmount = true, true, true
	case ActionResolve, ActionUnstake:
		needsActor, needsCover = true, true
	case ActionEmergencyResolve:
		needsActor, needsCover = true, true
		if st.Decision == nil {
			return fmt.Errorf("decision is required")
		}
	case ActionSettle, ActionFinalize:
		needsCover = true
	case ActionAllocate:
		needsActor, needsCover, needsAmount = true, true, true
	case ActionRecall:
		needsCover, needsAmount = true, true
		if st.Strategy != "" {
			needsActor = true
		}
	case ActionStake, ActionWithdraw, ActionFundRewards:
		needsActor, needsPool, needsAmount = true, true, true
	case ActionWithdrawRewards:
		needsActor, needsPool = true, true
	case ActionHalt:
		needsActor = true
		for _, scope := range st.Scopes {
			if err := crisistypes.ValidateScope(scope); err != nil {
				return err
			}
		}
	case ActionClearHalt:
		needsActor = true
	case ActionAdvance:
		if st.Blocks < 0 || st.Duration < 0 {
			return fmt.Errorf("advance cannot go backwards")
		}
		if st.Blocks == 0 && st.Duration == 0 {
			return fmt.Errorf("advance needs blocks or duration")
		}
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}

	if needsActor && !known(st.Actor) {
		return fmt.Errorf("unknown actor %q", st.Actor)
	}
	if needsCover {
		if _, ok := covers[st.Cover]; !ok {
			return fmt.Errorf("unknown cover %q", st.Cover)
		}
	}
	if needsPool {
		if _, ok := pools[st.Pool]; !ok {
			return fmt.Errorf("unknown pool %q", st.Pool)
		}
	}
	if needsAmount {
		if _, err := parseAmount(st.Amount); err != nil {
			return err
		}
	}
	return nil
}

func parseAmount(s string) (sdkmath.Int, error) {
	amount, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}
