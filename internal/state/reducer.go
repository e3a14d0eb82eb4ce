package state

import (
	"fmt"

	"github.com/talgya/dealfloor/internal/actors"
	"github.com/talgya/dealfloor/internal/portfolio"
)

// PortfolioCapacity is the maximum number of companies a session can hold.
const PortfolioCapacity = 6

// loanLimit is the maximum loan balance per seniority level.
func loanLimit(s Seniority) float64 {
	return 20000 * float64(int(s)+1)
}

// StartingCash returns the design-documented starting cash tier.
func StartingCash(d Difficulty) float64 {
	switch d {
	case DifficultyEasy:
		return 2500
	case DifficultyHard:
		return 800
	default:
		return 1500
	}
}

// NewPlayerState builds a fresh player at the given level and difficulty.
func NewPlayerState(level Seniority, diff Difficulty) *PlayerState {
	cash := StartingCash(diff)
	factions := make(map[FactionKey]float64, len(FactionKeys))
	for _, k := range FactionKeys {
		factions[k] = 50
	}
	return &PlayerState{
		Difficulty:    diff,
		Seniority:     level,
		Cash:          cash,
		Stress:        0,
		Energy:        80,
		Health:        80,
		Reputation:    10,
		Ethics:        50,
		AuditRisk:     0,
		AnalystRating: 50,
		FinancialEngineering: 10,
		Factions:      factions,
		Relationships: make(map[actors.ActorID]Relationship),
		GameTime: GameTime{
			Week: 1, Month: 1, Quarter: 1, Year: 1,
			ActionsRemaining: 2, MaxActions: 2,
		},
		Finances: PersonalFinances{
			BankBalance: cash,
			LoanRate:    0,
			Lifestyle:   LifestyleFrugal,
		},
		Flags:         make(map[string]bool),
		NextCompanyID: 1,
	}
}

// Clone returns a deep copy of the player state.
func (p *PlayerState) Clone() *PlayerState {
	cp := *p
	cp.Factions = make(map[FactionKey]float64, len(p.Factions))
	for k, v := range p.Factions {
		cp.Factions[k] = v
	}
	cp.Relationships = make(map[actors.ActorID]Relationship, len(p.Relationships))
	for k, v := range p.Relationships {
		cp.Relationships[k] = v
	}
	cp.Portfolio = make([]*portfolio.Company, len(p.Portfolio))
	for i, c := range p.Portfolio {
		cp.Portfolio[i] = c.Clone()
	}
	cp.Knowledge = append([]Fact(nil), p.Knowledge...)
	cp.Flags = make(map[string]bool, len(p.Flags))
	for k, v := range p.Flags {
		cp.Flags[k] = v
	}
	cp.Investments = append([]SkillInvestment(nil), p.Investments...)
	return &cp
}

// Clone returns a deep copy of the whole snapshot.
func (s *Snapshot) Clone() *Snapshot {
	cp := *s
	if s.Player != nil {
		cp.Player = s.Player.Clone()
	}
	cp.Actors = make([]*actors.Actor, len(s.Actors))
	for i, a := range s.Actors {
		cp.Actors[i] = a.Clone()
	}
	cp.Rivals = make([]*actors.RivalFund, len(s.Rivals))
	for i, r := range s.Rivals {
		cp.Rivals[i] = r.Clone()
	}
	cp.Deals = make([]*portfolio.Deal, len(s.Deals))
	for i, d := range s.Deals {
		cp.Deals[i] = d.Clone()
	}
	cp.AI.Mindsets = make(map[int64]Mindset, len(s.AI.Mindsets))
	for k, v := range s.AI.Mindsets {
		cp.AI.Mindsets[k] = v
	}
	if s.AI.Coalition != nil {
		co := *s.AI.Coalition
		co.Members = append([]int64(nil), s.AI.Coalition.Members...)
		cp.AI.Coalition = &co
	}
	cp.AI.PlayerPattern = make(map[string]int, len(s.AI.PlayerPattern))
	for k, v := range s.AI.PlayerPattern {
		cp.AI.PlayerPattern[k] = v
	}
	cp.ActionLog = append([]ActionRecord(nil), s.ActionLog...)
	cp.WeekActionKeys = make(map[string]bool, len(s.WeekActionKeys))
	for k, v := range s.WeekActionKeys {
		cp.WeekActionKeys[k] = v
	}
	cp.ScenariosPlayed = append([]string(nil), s.ScenariosPlayed...)
	return &cp
}

// ActorByID finds a narrative actor in the snapshot.
func (s *Snapshot) ActorByID(id actors.ActorID) *actors.Actor {
	for _, a := range s.Actors {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// RivalByID finds a rival fund in the snapshot.
func (s *Snapshot) RivalByID(id int64) *actors.RivalFund {
	for _, r := range s.Rivals {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// CompanyByID finds a portfolio company on the player.
func (p *PlayerState) CompanyByID(id int64) *portfolio.Company {
	for _, c := range p.Portfolio {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Reduce is the single state-transition function. Given the current
// snapshot and a command it produces the next snapshot; the input is never
// mutated. It never panics: unknown or missing fields default safely, and
// business-rule rejections come back as a Decline with the original
// snapshot.
//
// A first-time command carrying InitialLevel constructs the PlayerState
// when state is absent; any other command against absent state is a no-op.
func Reduce(snap *Snapshot, cmd StatChanges) (*Snapshot, *Decline) {
	if snap == nil {
		snap = &Snapshot{}
	}

	// Constructor path.
	if snap.Player == nil {
		if cmd.InitialLevel == nil {
			return snap, nil
		}
		next := snap.Clone()
		diff := DifficultyNormal
		if cmd.InitialDifficulty != nil {
			diff = *cmd.InitialDifficulty
		}
		next.Player = NewPlayerState(*cmd.InitialLevel, diff)
		if next.WeekActionKeys == nil {
			next.WeekActionKeys = make(map[string]bool)
		}
		return next, nil
	}

	if snap.Phase != PhasePlaying {
		return snap, declined(DeclineTerminal, "the game has ended")
	}

	next := snap.Clone()
	p := next.Player

	for _, o := range cmd.expand() {
		switch o.kind {
		case opCash:
			p.Finances.BankBalance += o.amount

		case opAUM:
			p.AUM += o.amount

		case opScalar:
			if v := p.stat(o.stat); v != nil {
				*v = ClampStat(*v + o.amount)
			}

		case opFaction:
			if cur, ok := p.Factions[o.faction]; ok {
				p.Factions[o.faction] = ClampStat(cur + o.amount)
			}

		case opAddCompany:
			addCompany(p, o.company)

		case opModifyCompany:
			if c := p.CompanyByID(o.patch.ID); c != nil {
				o.patch.Apply(c)
			}

		case opRemoveCompany:
			removeCompany(p, o.id)

		case opLoanDelta:
			newBalance := p.Finances.LoanBalance + o.amount
			if newBalance < 0 {
				newBalance = 0
			}
			if o.amount > 0 {
				if !p.Seniority.HasCreditAccess() {
					return snap, declined(DeclineNoCredit, "credit is not available at your level")
				}
				if newBalance > loanLimit(p.Seniority) {
					return snap, declined(DeclineLoanLimit,
						fmt.Sprintf("loan limit is %.0f at your level", loanLimit(p.Seniority)))
				}
			}
			p.Finances.LoanBalance = newBalance

		case opLoanRate:
			p.Finances.LoanRate = ClampLoanRate(o.amount)

		case opRelationship:
			applyRelationship(next, o.rel)

		case opFlag:
			p.Flags[o.flag] = o.set

		case opKnowledge:
			addFact(p, *o.fact)

		case opActionDelta:
			p.GameTime.ActionsRemaining += o.n
			if p.GameTime.ActionsRemaining < 0 {
				p.GameTime.ActionsRemaining = 0
			}

		case opLifestyle:
			p.Finances.Lifestyle = o.tier

		case opPromote:
			p.Seniority = o.level

		case opInvestment:
			p.Investments = append(p.Investments, *o.inv)
		}
	}

	// Cash may not end a transition negative. With credit access the
	// shortfall auto-bridges onto the loan; without it the whole command is
	// rejected.
	if p.Finances.BankBalance < 0 {
		shortfall := -p.Finances.BankBalance
		if !p.Seniority.HasCreditAccess() {
			return snap, declined(DeclineNoCredit, "insufficient funds and no credit access")
		}
		if p.Finances.LoanBalance+shortfall > loanLimit(p.Seniority) {
			return snap, declined(DeclineLoanLimit, "bridge loan would exceed your limit")
		}
		p.Finances.LoanBalance += shortfall
		if p.Finances.LoanRate == 0 {
			p.Finances.LoanRate = LoanRateMin
		}
		p.Finances.BankBalance = 0
	}

	// Legacy mirror invariant.
	p.Cash = p.Finances.BankBalance

	return next, nil
}

// addCompany appends a company, silently rejecting a full portfolio or a
// case-insensitive duplicate name. The company always gets a freshly
// generated id even when the caller supplied one.
func addCompany(p *PlayerState, c *portfolio.Company) {
	if len(p.Portfolio) >= PortfolioCapacity {
		return
	}
	for _, existing := range p.Portfolio {
		if portfolio.SameName(existing.Name, c.Name) {
			return
		}
	}
	added := c.Clone()
	added.ID = p.NextCompanyID
	p.NextCompanyID++
	p.Portfolio = append(p.Portfolio, added)
}

func removeCompany(p *PlayerState, id int64) {
	for i, c := range p.Portfolio {
		if c.ID == id {
			p.Portfolio = append(p.Portfolio[:i], p.Portfolio[i+1:]...)
			return
		}
	}
}

// applyRelationship updates the actor's mood/trust/memory and the player's
// mirrored scalars in one step so the two views can never diverge.
func applyRelationship(s *Snapshot, rc *RelationshipChange) {
	if a := s.ActorByID(rc.ActorID); a != nil {
		a.AdjustMood(rc.MoodDelta)
		a.AdjustTrust(rc.TrustDelta)
		if rc.Memory != "" {
			imp := rc.Importance
			if imp == 0 {
				imp = 0.3
			}
			a.AddMemory(rc.Tick, rc.Memory, imp)
		}
		// Contact credit covers the week now being played, which resolves
		// at cursor+1. Stamping rc.Tick would leave the stamp one behind
		// the tick that checks it.
		a.LastContactTick = s.Cursor + 1

		mirror := s.Player.Relationships[rc.ActorID]
		mirror.Mood = a.Mood
		mirror.Trust = a.Trust
		mirror.Score = ClampStat(mirror.Score + rc.ScoreDelta)
		s.Player.Relationships[rc.ActorID] = mirror
		return
	}

	// Unknown actor: keep the mirror moving so older saves without the
	// actor list still track standing.
	mirror := s.Player.Relationships[rc.ActorID]
	mirror.Mood = ClampStat(mirror.Mood + rc.MoodDelta)
	mirror.Trust = ClampStat(mirror.Trust + rc.TrustDelta)
	mirror.Score = ClampStat(mirror.Score + rc.ScoreDelta)
	s.Player.Relationships[rc.ActorID] = mirror
}

// addFact appends to the knowledge log, evicting the lowest-importance
// fact when full.
func addFact(p *PlayerState, f Fact) {
	if len(p.Knowledge) < MaxFacts {
		p.Knowledge = append(p.Knowledge, f)
		return
	}
	minIdx := 0
	for i := 1; i < len(p.Knowledge); i++ {
		if p.Knowledge[i].Importance < p.Knowledge[minIdx].Importance {
			minIdx = i
		}
	}
	if f.Importance > p.Knowledge[minIdx].Importance {
		p.Knowledge[minIdx] = f
	}
}
