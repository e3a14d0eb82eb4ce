package state

import (
	"encoding/json"

	"github.com/talgya/dealfloor/internal/actors"
	"github.com/talgya/dealfloor/internal/portfolio"
)

// HydrateSnapshot rebuilds a valid in-memory snapshot from possibly
// malformed persisted JSON. It never fails: unparseable sections fall back
// to safe defaults, arrays default to empty, and every numeric field is
// re-clamped. Old saves carry numbers as strings in places, so player
// scalars go through the loose canonicalizers.
func HydrateSnapshot(raw []byte) *Snapshot {
	snap := &Snapshot{}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		Normalize(snap)
		return snap
	}

	if sec, ok := doc["session_id"]; ok {
		_ = json.Unmarshal(sec, &snap.SessionID)
	}
	if sec, ok := doc["player"]; ok {
		snap.Player = hydratePlayer(sec)
	}
	if sec, ok := doc["actors"]; ok {
		var list []*actors.Actor
		if json.Unmarshal(sec, &list) == nil {
			snap.Actors = list
		}
	}
	if sec, ok := doc["rivals"]; ok {
		var list []*actors.RivalFund
		if json.Unmarshal(sec, &list) == nil {
			snap.Rivals = list
		}
	}
	if sec, ok := doc["deals"]; ok {
		var list []*portfolio.Deal
		if json.Unmarshal(sec, &list) == nil {
			snap.Deals = list
		}
	}
	if sec, ok := doc["ai"]; ok {
		_ = json.Unmarshal(sec, &snap.AI)
	}
	if sec, ok := doc["phase"]; ok {
		_ = json.Unmarshal(sec, &snap.Phase)
	}
	if sec, ok := doc["action_log"]; ok {
		_ = json.Unmarshal(sec, &snap.ActionLog)
	}
	if sec, ok := doc["week_action_keys"]; ok {
		_ = json.Unmarshal(sec, &snap.WeekActionKeys)
	}
	if sec, ok := doc["overtime_pending"]; ok {
		_ = json.Unmarshal(sec, &snap.OvertimePending)
	}
	if sec, ok := doc["scenarios_played"]; ok {
		_ = json.Unmarshal(sec, &snap.ScenariosPlayed)
	}
	if sec, ok := doc["last_week_cursor"]; ok {
		_ = json.Unmarshal(sec, &snap.LastWeekCursor)
	}
	if sec, ok := doc["cursor"]; ok {
		_ = json.Unmarshal(sec, &snap.Cursor)
	}

	Normalize(snap)
	return snap
}

// hydratePlayer canonicalizes a loosely-typed player section. Defaults come
// from the Normal-difficulty starting state.
func hydratePlayer(raw json.RawMessage) *PlayerState {
	var loose map[string]any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil
	}

	diff := Difficulty(AsInt(loose["difficulty"], int(DifficultyNormal)))
	if diff > DifficultyHard {
		diff = DifficultyNormal
	}
	level := Seniority(AsInt(loose["seniority"], int(SeniorityAnalyst)))
	if level > SeniorityPartner {
		level = SeniorityAnalyst
	}

	p := NewPlayerState(level, diff)

	p.Cash = AsFloat(loose["cash"], p.Cash)
	p.AUM = AsFloat(loose["aum"], 0)
	p.Stress = ClampStat(AsFloat(loose["stress"], p.Stress))
	p.Energy = ClampStat(AsFloat(loose["energy"], p.Energy))
	p.Health = ClampStat(AsFloat(loose["health"], p.Health))
	p.Reputation = ClampStat(AsFloat(loose["reputation"], p.Reputation))
	p.Ethics = ClampStat(AsFloat(loose["ethics"], p.Ethics))
	p.AuditRisk = ClampStat(AsFloat(loose["audit_risk"], p.AuditRisk))
	p.AnalystRating = ClampStat(AsFloat(loose["analyst_rating"], p.AnalystRating))
	p.FinancialEngineering = ClampStat(AsFloat(loose["financial_engineering"], p.FinancialEngineering))
	p.Dependency = ClampStat(AsFloat(loose["dependency"], p.Dependency))
	p.NextCompanyID = int64(AsInt(loose["next_company_id"], 1))

	if fm, ok := loose["factions"].(map[string]any); ok {
		for _, key := range FactionKeys {
			if v, present := fm[string(key)]; present {
				p.Factions[key] = ClampStat(AsFloat(v, 50))
			}
		}
	}

	if gt, ok := loose["game_time"].(map[string]any); ok {
		p.GameTime.Week = AsInt(gt["week"], 1)
		p.GameTime.Month = AsInt(gt["month"], 1)
		p.GameTime.Quarter = AsInt(gt["quarter"], 1)
		p.GameTime.Year = AsInt(gt["year"], 1)
		p.GameTime.DayType = DayType(AsInt(gt["day_type"], 0))
		p.GameTime.TimeSlot = TimeSlot(AsInt(gt["time_slot"], 0))
		p.GameTime.MaxActions = AsInt(gt["max_actions"], 2)
		p.GameTime.ActionsRemaining = AsInt(gt["actions_remaining"], p.GameTime.MaxActions)
		p.GameTime.OvertimeActive = AsBool(gt["overtime_active"], false)
	}

	if pf, ok := loose["personal_finances"].(map[string]any); ok {
		p.Finances.BankBalance = AsFloat(pf["bank_balance"], p.Cash)
		p.Finances.SalaryYTD = AsFloat(pf["salary_ytd"], 0)
		p.Finances.BonusYTD = AsFloat(pf["bonus_ytd"], 0)
		p.Finances.LoanBalance = AsFloat(pf["loan_balance"], 0)
		p.Finances.LoanRate = ClampLoanRate(AsFloat(pf["loan_rate"], 0))
		p.Finances.Lifestyle = LifestyleTier(AsInt(pf["lifestyle"], int(LifestyleFrugal)))
	}

	// Typed sections round-trip through JSON; a bad section just stays
	// empty.
	reattach := func(key string, dst any) {
		if sec, ok := loose[key]; ok {
			if b, err := json.Marshal(sec); err == nil {
				_ = json.Unmarshal(b, dst)
			}
		}
	}
	reattach("portfolio", &p.Portfolio)
	reattach("relationships", &p.Relationships)
	reattach("knowledge", &p.Knowledge)
	reattach("flags", &p.Flags)
	reattach("investments", &p.Investments)

	return p
}

// Normalize enforces snapshot-wide invariants after hydration: non-nil
// collections, bounded stats, unique company ids, and the cash mirror.
func Normalize(snap *Snapshot) {
	if snap.Actors == nil {
		snap.Actors = []*actors.Actor{}
	}
	if snap.Rivals == nil {
		snap.Rivals = []*actors.RivalFund{}
	}
	if snap.Deals == nil {
		snap.Deals = []*portfolio.Deal{}
	}
	if snap.WeekActionKeys == nil {
		snap.WeekActionKeys = make(map[string]bool)
	}
	if snap.AI.Mindsets == nil {
		snap.AI.Mindsets = make(map[int64]Mindset)
	}
	if snap.AI.PlayerPattern == nil {
		snap.AI.PlayerPattern = make(map[string]int)
	}
	if snap.Phase > PhaseDisgraced {
		snap.Phase = PhasePlaying
	}

	for _, a := range snap.Actors {
		a.Mood = ClampStat(a.Mood)
		a.Trust = ClampStat(a.Trust)
	}
	for _, r := range snap.Rivals {
		r.Aggression = ClampStat(r.Aggression)
		r.RiskTolerance = ClampStat(r.RiskTolerance)
		r.Reputation = ClampStat(r.Reputation)
		r.Vendetta = ClampStat(r.Vendetta)
		if r.DryPowder < 0 {
			r.DryPowder = 0
		}
	}

	p := snap.Player
	if p == nil {
		return
	}
	if p.Factions == nil {
		p.Factions = make(map[FactionKey]float64)
	}
	for _, k := range FactionKeys {
		if _, ok := p.Factions[k]; !ok {
			p.Factions[k] = 50
		}
	}
	if p.Relationships == nil {
		p.Relationships = make(map[actors.ActorID]Relationship)
	}
	if p.Flags == nil {
		p.Flags = make(map[string]bool)
	}
	if p.GameTime.MaxActions <= 0 {
		p.GameTime.MaxActions = 2
	}
	if p.GameTime.ActionsRemaining < 0 {
		p.GameTime.ActionsRemaining = 0
	}
	if p.GameTime.Week < 1 {
		p.GameTime.Week = 1
	}

	// Re-key companies whose ids collide or fall outside the id sequence.
	seen := make(map[int64]bool, len(p.Portfolio))
	maxID := int64(0)
	for _, c := range p.Portfolio {
		if c.ID <= 0 || seen[c.ID] {
			c.ID = 0 // reassigned below
		} else {
			seen[c.ID] = true
			if c.ID > maxID {
				maxID = c.ID
			}
		}
	}
	if p.NextCompanyID <= maxID {
		p.NextCompanyID = maxID + 1
	}
	for _, c := range p.Portfolio {
		if c.ID == 0 {
			c.ID = p.NextCompanyID
			p.NextCompanyID++
		}
		if c.DealPhase > portfolio.PhaseExiting {
			c.DealPhase = portfolio.PhasePipeline
		}
		// Event slots live in the runtime, not the save. A marker with no
		// runtime event behind it would wedge the company, so convert it
		// back into a pending crisis for the next tick to raise.
		if c.ActiveEvent != "" {
			c.ActiveEvent = ""
			c.InCrisis = true
		}
	}
	if len(p.Portfolio) > PortfolioCapacity {
		p.Portfolio = p.Portfolio[:PortfolioCapacity]
	}

	p.Finances.LoanRate = ClampLoanRate(p.Finances.LoanRate)
	if p.Finances.LoanBalance < 0 {
		p.Finances.LoanBalance = 0
	}
	p.Cash = p.Finances.BankBalance
}
