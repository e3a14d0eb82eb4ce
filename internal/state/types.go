// Package state owns the session snapshot and the single state-transition
// function every mutation in the game funnels through.
package state

import (
	"github.com/talgya/dealfloor/internal/actors"
	"github.com/talgya/dealfloor/internal/portfolio"
)

// Difficulty selects the starting cash tier and AI scaling.
type Difficulty uint8

const (
	DifficultyEasy Difficulty = iota
	DifficultyNormal
	DifficultyHard
)

// Seniority is the player's career level. Credit access opens at VP.
type Seniority uint8

const (
	SeniorityAnalyst Seniority = iota
	SeniorityAssociate
	SeniorityVP
	SeniorityPrincipal
	SeniorityPartner
)

// HasCreditAccess reports whether this seniority can carry a bridge loan.
func (s Seniority) HasCreditAccess() bool {
	return s >= SeniorityVP
}

// SeniorityName returns a display name for a seniority level.
func SeniorityName(s Seniority) string {
	switch s {
	case SeniorityAnalyst:
		return "Analyst"
	case SeniorityAssociate:
		return "Associate"
	case SeniorityVP:
		return "Vice President"
	case SeniorityPrincipal:
		return "Principal"
	case SeniorityPartner:
		return "Partner"
	default:
		return "Unknown"
	}
}

// LifestyleTier drives the weekly personal burn rate.
type LifestyleTier uint8

const (
	LifestyleFrugal LifestyleTier = iota
	LifestyleComfort
	LifestylePremium
	LifestyleExcess
)

// GamePhase is the session's lifecycle phase. Terminal phases are reached
// through the week tick, never through an error.
type GamePhase uint8

const (
	PhasePlaying GamePhase = iota
	PhaseBankrupt
	PhaseDisgraced
)

// PhaseName returns a display label for a session phase.
func PhaseName(p GamePhase) string {
	switch p {
	case PhaseBankrupt:
		return "bankrupt"
	case PhaseDisgraced:
		return "disgraced"
	default:
		return "playing"
	}
}

// DayType and TimeSlot form the two coordinates of the discrete clock.
type DayType uint8

const (
	Weekday DayType = iota
	Weekend
)

type TimeSlot uint8

const (
	Morning TimeSlot = iota
	Afternoon
	Evening
)

// FactionKey identifies one of the fixed reputation factions.
type FactionKey string

const (
	FactionLPs         FactionKey = "lps"
	FactionRegulators  FactionKey = "regulators"
	FactionPress       FactionKey = "press"
	FactionDealmakers  FactionKey = "dealmakers"
	FactionOldGuard    FactionKey = "old_guard"
)

// FactionKeys lists every faction in canonical order.
var FactionKeys = []FactionKey{
	FactionLPs, FactionRegulators, FactionPress, FactionDealmakers, FactionOldGuard,
}

// GameTime is the discrete weekly/slot clock plus the action budget.
type GameTime struct {
	Week    int `json:"week"`
	Month   int `json:"month"`
	Quarter int `json:"quarter"`
	Year    int `json:"year"`

	DayType  DayType  `json:"day_type"`
	TimeSlot TimeSlot `json:"time_slot"`

	ActionsRemaining int  `json:"actions_remaining"`
	MaxActions       int  `json:"max_actions"`
	OvertimeActive   bool `json:"overtime_active"`
}

// PersonalFinances tracks the player's own money, separate from fund AUM.
// BankBalance is authoritative; PlayerState.Cash mirrors it.
type PersonalFinances struct {
	BankBalance float64       `json:"bank_balance"`
	SalaryYTD   float64       `json:"salary_ytd"`
	BonusYTD    float64       `json:"bonus_ytd"`
	LoanBalance float64       `json:"loan_balance"`
	LoanRate    float64       `json:"loan_rate"`
	Lifestyle   LifestyleTier `json:"lifestyle"`
}

// Fact is one entry in the player's knowledge log.
type Fact struct {
	Week       int     `json:"week"`
	Content    string  `json:"content"`
	Importance float32 `json:"importance"`
}

// MaxFacts bounds the knowledge log. When full, the lowest-importance fact
// is evicted.
const MaxFacts = 50

// Relationship mirrors one narrative actor's standing from the player's
// side. Mood and trust shadow the actor's own fields; Score is the legacy
// scalar older saves carry.
type Relationship struct {
	Score float64 `json:"score"`
	Mood  float64 `json:"mood"`
	Trust float64 `json:"trust"`
}

// SkillInvestment is a multi-week self-improvement program. Its bonus lands
// on the week tick where CompletesWeek is reached.
type SkillInvestment struct {
	Name          string  `json:"name"`
	Stat          StatID  `json:"stat"`
	Bonus         float64 `json:"bonus"`
	CompletesWeek int     `json:"completes_week"`
}

// PlayerState holds every player-owned scalar plus the portfolio.
type PlayerState struct {
	Difficulty Difficulty `json:"difficulty"`
	Seniority  Seniority  `json:"seniority"`

	// Legacy mirror of PersonalFinances.BankBalance. Kept in sync by the
	// reducer after every transition.
	Cash float64 `json:"cash"`
	AUM  float64 `json:"aum"`

	Stress               float64 `json:"stress"`
	Energy               float64 `json:"energy"`
	Health               float64 `json:"health"`
	Reputation           float64 `json:"reputation"`
	Ethics               float64 `json:"ethics"`
	AuditRisk            float64 `json:"audit_risk"`
	AnalystRating        float64 `json:"analyst_rating"`
	FinancialEngineering float64 `json:"financial_engineering"`
	Dependency           float64 `json:"dependency"`

	Factions      map[FactionKey]float64          `json:"factions"`
	Relationships map[actors.ActorID]Relationship `json:"relationships"`

	Portfolio []*portfolio.Company `json:"portfolio"`

	GameTime GameTime         `json:"game_time"`
	Finances PersonalFinances `json:"personal_finances"`

	Knowledge   []Fact            `json:"knowledge"`
	Flags       map[string]bool   `json:"flags"`
	Investments []SkillInvestment `json:"investments"`

	// Monotone id source for portfolio companies.
	NextCompanyID int64 `json:"next_company_id"`
}

// StatID addresses one bounded scalar stat for deltas and investments.
type StatID uint8

const (
	StatStress StatID = iota
	StatEnergy
	StatHealth
	StatReputation
	StatEthics
	StatAuditRisk
	StatAnalystRating
	StatFinancialEngineering
	StatDependency
)

// stat returns a pointer to the scalar addressed by id, or nil for an
// unknown id (unknown deltas are dropped, never an error).
func (p *PlayerState) stat(id StatID) *float64 {
	switch id {
	case StatStress:
		return &p.Stress
	case StatEnergy:
		return &p.Energy
	case StatHealth:
		return &p.Health
	case StatReputation:
		return &p.Reputation
	case StatEthics:
		return &p.Ethics
	case StatAuditRisk:
		return &p.AuditRisk
	case StatAnalystRating:
		return &p.AnalystRating
	case StatFinancialEngineering:
		return &p.FinancialEngineering
	case StatDependency:
		return &p.Dependency
	default:
		return nil
	}
}

// Coalition is a temporary alliance of rival funds acting against the
// player with boosted effectiveness.
type Coalition struct {
	Members    []int64 `json:"members"`
	ExpiresTick uint64 `json:"expires_tick"`
}

// Mindset is a rival's derived posture, recomputed every AI tick.
type Mindset struct {
	Posture string  `json:"posture"` // "predatory", "opportunistic", "defensive"
	Risk    float64 `json:"risk"`    // 0-1 appetite this tick
	Focus   string  `json:"focus"`   // "deals", "reputation", "player"
}

// AIState carries the adversarial-AI bookkeeping that must survive a save.
type AIState struct {
	Mindsets  map[int64]Mindset `json:"mindsets"`
	Coalition *Coalition        `json:"coalition,omitempty"`

	// Counts of observed player behavior used to scale difficulty.
	PlayerPattern map[string]int `json:"player_pattern"`

	LastRivalCursor uint64 `json:"last_rival_cursor"`
}

// ActionRecord is one consumed action point, kept for the per-week dedupe
// check and the session's action log.
type ActionRecord struct {
	ID       string `json:"id"`
	Week     int    `json:"week"`
	Type     string `json:"type"`
	TargetID int64  `json:"target_id"`
	Tick     uint64 `json:"tick"`
}

// Snapshot is the complete serialized session: one JSON document holding
// everything needed to resume play.
type Snapshot struct {
	SessionID string `json:"session_id"`

	Player *PlayerState          `json:"player,omitempty"`
	Actors []*actors.Actor       `json:"actors"`
	Rivals []*actors.RivalFund   `json:"rivals"`
	Deals  []*portfolio.Deal     `json:"deals"`

	AI    AIState   `json:"ai"`
	Phase GamePhase `json:"phase"`

	ActionLog       []ActionRecord  `json:"action_log"`
	WeekActionKeys  map[string]bool `json:"week_action_keys"`
	OvertimePending bool            `json:"overtime_pending"`

	ScenariosPlayed []string `json:"scenarios_played"`

	// Cursor of the last fully processed week advance. Reprocessing the
	// same cursor is a no-op.
	LastWeekCursor uint64 `json:"last_week_cursor"`
	Cursor         uint64 `json:"cursor"`
}

// KeyFor builds the per-week action dedupe key.
func KeyFor(week int, actionType string, targetID int64) string {
	return actionKey(week, actionType, targetID)
}
