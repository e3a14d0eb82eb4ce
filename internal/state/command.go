package state

import (
	"fmt"

	"github.com/talgya/dealfloor/internal/actors"
	"github.com/talgya/dealfloor/internal/portfolio"
)

// StatChanges is the sole external mutation API: a sparse delta describing
// every possible change. The wire format stays a flat optional-field record
// for compatibility with callers; the reducer expands it into typed ops so
// it can match exhaustively instead of guessing field combinations.
type StatChanges struct {
	// Constructor fields. A first-time command carrying the player's
	// initial level builds the whole PlayerState when state is absent.
	InitialLevel      *Seniority  `json:"initial_level,omitempty"`
	InitialDifficulty *Difficulty `json:"initial_difficulty,omitempty"`

	// Scalar deltas, each added then clamped.
	Cash                 *float64 `json:"cash,omitempty"`
	AUM                  *float64 `json:"aum,omitempty"`
	Stress               *float64 `json:"stress,omitempty"`
	Energy               *float64 `json:"energy,omitempty"`
	Health               *float64 `json:"health,omitempty"`
	Reputation           *float64 `json:"reputation,omitempty"`
	Ethics               *float64 `json:"ethics,omitempty"`
	AuditRisk            *float64 `json:"audit_risk,omitempty"`
	AnalystRating        *float64 `json:"analyst_rating,omitempty"`
	FinancialEngineering *float64 `json:"financial_engineering,omitempty"`
	Dependency           *float64 `json:"dependency,omitempty"`

	// Faction deltas, clamped per key. Unknown keys are dropped.
	Factions map[FactionKey]float64 `json:"factions,omitempty"`

	// Portfolio operations.
	AddCompany    *portfolio.Company `json:"add_company,omitempty"`
	ModifyCompany *portfolio.Patch   `json:"modify_company,omitempty"`
	RemoveCompany *int64             `json:"remove_company,omitempty"`

	// Loan operations. Balance floors at zero; rate clamps to [0.05, 0.50]
	// unless explicitly set to exactly 0.
	LoanDelta *float64 `json:"loan_delta,omitempty"`
	LoanRate  *float64 `json:"loan_rate,omitempty"`

	// Relationship change: updates the narrative actor's mood/trust/memory
	// and the player's mirrored scalars in one step.
	Relationship *RelationshipChange `json:"relationship,omitempty"`

	// Flags and knowledge.
	Flags     map[string]bool `json:"flags,omitempty"`
	Knowledge *Fact           `json:"knowledge,omitempty"`

	// Time-advance deltas applied to the clock's action budget.
	ActionDelta *int `json:"action_delta,omitempty"`

	// Lifestyle and seniority changes.
	Lifestyle *LifestyleTier `json:"lifestyle,omitempty"`
	Promote   *Seniority     `json:"promote,omitempty"`

	Investment *SkillInvestment `json:"investment,omitempty"`
}

// RelationshipChange is the relationship-affecting part of a command.
type RelationshipChange struct {
	ActorID    actors.ActorID `json:"actor_id"`
	MoodDelta  float64        `json:"mood_delta"`
	TrustDelta float64        `json:"trust_delta"`
	ScoreDelta float64        `json:"score_delta"`
	Memory     string         `json:"memory,omitempty"`
	Importance float32        `json:"importance,omitempty"`
	Tick       uint64         `json:"tick,omitempty"`
}

// opKind tags one internal operation expanded from a StatChanges record.
type opKind uint8

const (
	opScalar opKind = iota
	opCash
	opAUM
	opFaction
	opAddCompany
	opModifyCompany
	opRemoveCompany
	opLoanDelta
	opLoanRate
	opRelationship
	opFlag
	opKnowledge
	opActionDelta
	opLifestyle
	opPromote
	opInvestment
)

// op is one narrow, typed operation. The reducer switches over kind
// exhaustively; per-field order independence holds because expansion
// always emits ops in the same canonical order.
type op struct {
	kind opKind

	stat   StatID
	amount float64

	faction FactionKey

	company *portfolio.Company
	patch   *portfolio.Patch
	id      int64

	rel *RelationshipChange

	flag  string
	set   bool
	fact  *Fact
	n     int
	tier  LifestyleTier
	level Seniority
	inv   *SkillInvestment
}

// scalarOrder fixes the canonical expansion order for bounded stats.
var scalarOrder = []StatID{
	StatStress, StatEnergy, StatHealth, StatReputation, StatEthics,
	StatAuditRisk, StatAnalystRating, StatFinancialEngineering, StatDependency,
}

// expand converts the flat wire record into canonical typed ops.
func (c StatChanges) expand() []op {
	var ops []op

	if c.Cash != nil {
		ops = append(ops, op{kind: opCash, amount: *c.Cash})
	}
	if c.AUM != nil {
		ops = append(ops, op{kind: opAUM, amount: *c.AUM})
	}

	deltas := map[StatID]*float64{
		StatStress:               c.Stress,
		StatEnergy:               c.Energy,
		StatHealth:               c.Health,
		StatReputation:           c.Reputation,
		StatEthics:               c.Ethics,
		StatAuditRisk:            c.AuditRisk,
		StatAnalystRating:        c.AnalystRating,
		StatFinancialEngineering: c.FinancialEngineering,
		StatDependency:           c.Dependency,
	}
	for _, id := range scalarOrder {
		if d := deltas[id]; d != nil {
			ops = append(ops, op{kind: opScalar, stat: id, amount: *d})
		}
	}

	for _, key := range FactionKeys {
		if d, ok := c.Factions[key]; ok {
			ops = append(ops, op{kind: opFaction, faction: key, amount: d})
		}
	}

	if c.AddCompany != nil {
		ops = append(ops, op{kind: opAddCompany, company: c.AddCompany})
	}
	if c.ModifyCompany != nil {
		ops = append(ops, op{kind: opModifyCompany, patch: c.ModifyCompany})
	}
	if c.RemoveCompany != nil {
		ops = append(ops, op{kind: opRemoveCompany, id: *c.RemoveCompany})
	}

	if c.LoanDelta != nil {
		ops = append(ops, op{kind: opLoanDelta, amount: *c.LoanDelta})
	}
	if c.LoanRate != nil {
		ops = append(ops, op{kind: opLoanRate, amount: *c.LoanRate})
	}

	if c.Relationship != nil {
		ops = append(ops, op{kind: opRelationship, rel: c.Relationship})
	}

	for flag, set := range c.Flags {
		ops = append(ops, op{kind: opFlag, flag: flag, set: set})
	}

	if c.Knowledge != nil {
		ops = append(ops, op{kind: opKnowledge, fact: c.Knowledge})
	}
	if c.ActionDelta != nil {
		ops = append(ops, op{kind: opActionDelta, n: *c.ActionDelta})
	}
	if c.Lifestyle != nil {
		ops = append(ops, op{kind: opLifestyle, tier: *c.Lifestyle})
	}
	if c.Promote != nil {
		ops = append(ops, op{kind: opPromote, level: *c.Promote})
	}
	if c.Investment != nil {
		ops = append(ops, op{kind: opInvestment, inv: c.Investment})
	}

	return ops
}

func actionKey(week int, actionType string, targetID int64) string {
	return fmt.Sprintf("%d|%s|%d", week, actionType, targetID)
}
