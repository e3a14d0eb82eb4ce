package actors

// Strategy is a closed enumeration of rival-fund play styles.
type Strategy uint8

const (
	StrategyRaider Strategy = iota
	StrategyOperator
	StrategyMomentum
	StrategyDistressed
)

// StrategyName returns a display name for a rival strategy.
func StrategyName(s Strategy) string {
	switch s {
	case StrategyRaider:
		return "raider"
	case StrategyOperator:
		return "operator"
	case StrategyMomentum:
		return "momentum"
	case StrategyDistressed:
		return "distressed"
	default:
		return "unknown"
	}
}

// VendettaTier names the escalation phases of a rival's hostility.
type VendettaTier uint8

const (
	TierWary VendettaTier = iota
	TierIrritated
	TierHostile
	TierNemesis
)

// TierName returns a display name for a vendetta tier.
func TierName(t VendettaTier) string {
	switch t {
	case TierWary:
		return "wary"
	case TierIrritated:
		return "irritated"
	case TierHostile:
		return "hostile"
	case TierNemesis:
		return "nemesis"
	default:
		return "unknown"
	}
}

// TierFor maps a vendetta score to its escalation tier.
func TierFor(vendetta float64) VendettaTier {
	switch {
	case vendetta >= 75:
		return TierNemesis
	case vendetta >= 50:
		return TierHostile
	case vendetta >= 25:
		return TierIrritated
	default:
		return TierWary
	}
}

// Acquisition records a deal a rival fund closed.
type Acquisition struct {
	Target string  `json:"target"`
	Price  float64 `json:"price"`
	Tick   uint64  `json:"tick"`
}

// RivalFund is one adversarial AI actor competing for deals.
type RivalFund struct {
	ID      int64   `json:"id"`
	ActorID ActorID `json:"actor_id"`
	Name    string  `json:"name"`

	Strategy Strategy `json:"strategy"`

	Aggression    float64 `json:"aggression"`     // 0-100
	RiskTolerance float64 `json:"risk_tolerance"` // 0-100
	Reputation    float64 `json:"reputation"`     // 0-100
	Vendetta      float64 `json:"vendetta"`       // 0-100, only narrative resolution decays it

	DryPowder float64       `json:"dry_powder"`
	Portfolio []Acquisition `json:"portfolio,omitempty"`

	LastActionTick uint64 `json:"last_action_tick"`
	WinStreak      int    `json:"win_streak"`
}

// RaiseVendetta increases vendetta by delta (clamped to 100) and reports
// whether the increase crossed into a new escalation tier.
func (r *RivalFund) RaiseVendetta(delta float64) (VendettaTier, bool) {
	if delta < 0 {
		delta = 0
	}
	before := TierFor(r.Vendetta)
	r.Vendetta = clamp01(r.Vendetta + delta)
	after := TierFor(r.Vendetta)
	return after, after != before
}

// Tier returns the rival's current escalation tier.
func (r *RivalFund) Tier() VendettaTier {
	return TierFor(r.Vendetta)
}

// Clone returns a deep copy of the rival fund.
func (r *RivalFund) Clone() *RivalFund {
	cp := *r
	cp.Portfolio = append([]Acquisition(nil), r.Portfolio...)
	return &cp
}
