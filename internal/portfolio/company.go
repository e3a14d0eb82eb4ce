// Package portfolio provides the portfolio-company lifecycle model and the
// competitive-deal pool rivals contest.
package portfolio

import "strings"

// DealPhase is a company's lifecycle stage. Transitions are explicit player
// actions; removal is terminal.
type DealPhase uint8

const (
	PhasePipeline DealPhase = iota // evaluated, not yet owned
	PhaseOwned                     // post-acquisition
	PhaseExiting                   // sale in progress
)

// PhaseName returns a display name for a deal phase.
func PhaseName(p DealPhase) string {
	switch p {
	case PhasePipeline:
		return "pipeline"
	case PhaseOwned:
		return "owned"
	case PhaseExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// Company is one acquired (or evaluated) portfolio company.
type Company struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Sector string `json:"sector,omitempty"`

	Revenue   float64 `json:"revenue"`
	EBITDA    float64 `json:"ebitda"`
	Debt      float64 `json:"debt"`
	Growth    float64 `json:"growth"` // weekly fractional rate
	Valuation float64 `json:"valuation"`

	DealPhase DealPhase `json:"deal_phase"`

	// Management scores, 0-100, moved by player management actions.
	BoardScore float64 `json:"board_score"`
	CEOScore   float64 `json:"ceo_score"`

	// Per-week action ledger, cleared on week end.
	WeekActions []string `json:"week_actions,omitempty"`

	// Crisis flag consumed by the event generator.
	InCrisis    bool   `json:"in_crisis"`
	ActiveEvent string `json:"active_event,omitempty"`

	AcquiredWeek int `json:"acquired_week,omitempty"`
}

// SameName reports whether two company names collide, case-insensitively.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Clone returns a deep copy of the company.
func (c *Company) Clone() *Company {
	cp := *c
	cp.WeekActions = append([]string(nil), c.WeekActions...)
	return &cp
}

// Patch is a partial company update merged by the reducer. Nil fields are
// left untouched.
type Patch struct {
	ID int64 `json:"id"`

	Revenue    *float64   `json:"revenue,omitempty"`
	EBITDA     *float64   `json:"ebitda,omitempty"`
	Debt       *float64   `json:"debt,omitempty"`
	Growth     *float64   `json:"growth,omitempty"`
	Valuation  *float64   `json:"valuation,omitempty"`
	DealPhase  *DealPhase `json:"deal_phase,omitempty"`
	BoardScore *float64   `json:"board_score,omitempty"`
	CEOScore   *float64   `json:"ceo_score,omitempty"`
	InCrisis   *bool      `json:"in_crisis,omitempty"`
	ActiveEvent *string   `json:"active_event,omitempty"`
}

// Apply merges the patch into the company.
func (p Patch) Apply(c *Company) {
	if p.Revenue != nil {
		c.Revenue = *p.Revenue
	}
	if p.EBITDA != nil {
		c.EBITDA = *p.EBITDA
	}
	if p.Debt != nil {
		c.Debt = *p.Debt
	}
	if p.Growth != nil {
		c.Growth = *p.Growth
	}
	if p.Valuation != nil {
		c.Valuation = *p.Valuation
	}
	if p.DealPhase != nil {
		c.DealPhase = *p.DealPhase
	}
	if p.BoardScore != nil {
		c.BoardScore = clampScore(*p.BoardScore)
	}
	if p.CEOScore != nil {
		c.CEOScore = clampScore(*p.CEOScore)
	}
	if p.InCrisis != nil {
		c.InCrisis = *p.InCrisis
	}
	if p.ActiveEvent != nil {
		c.ActiveEvent = *p.ActiveEvent
	}
}

// Deal is a contested acquisition target in the active pool.
type Deal struct {
	ID     int64  `json:"id"`
	Target string `json:"target"`

	Revenue     float64 `json:"revenue"`
	EBITDA      float64 `json:"ebitda"`
	AskingPrice float64 `json:"asking_price"`

	// Weeks until the deal leaves the pool. Decremented on the week tick,
	// removed at <= 0.
	Deadline int `json:"deadline"`

	InterestedRivals []int64 `json:"interested_rivals,omitempty"`
	Hot              bool    `json:"is_hot"`
}

// Clone returns a deep copy of the deal.
func (d *Deal) Clone() *Deal {
	cp := *d
	cp.InterestedRivals = append([]int64(nil), d.InterestedRivals...)
	return &cp
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
