package engine

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/dealfloor/internal/actors"
	"github.com/talgya/dealfloor/internal/portfolio"
	"github.com/talgya/dealfloor/internal/scenario"
	"github.com/talgya/dealfloor/internal/state"
)

const weeksPerMonth = 4

// AdvanceSlot moves the clock one time slot: morning, afternoon, evening,
// then wrapping to morning. The weekday/weekend flip happens exactly on
// the wrap.
func (s *Simulation) AdvanceSlot() {
	if s.Snap.Player == nil {
		return
	}
	next := s.Snap.Clone()
	gt := &next.Player.GameTime
	if gt.TimeSlot == state.Evening {
		gt.TimeSlot = state.Morning
		if gt.DayType == state.Weekday {
			gt.DayType = state.Weekend
		} else {
			gt.DayType = state.Weekday
		}
	} else {
		gt.TimeSlot++
	}
	s.Snap = next
}

// AdvanceWeek performs one full week advance for the given cursor, running
// every weekly system in order on a private copy and committing the result
// atomically. A cursor that was already handled is a no-op, guarding
// against duplicate dispatch from the host environment.
func (s *Simulation) AdvanceWeek(cursor uint64) {
	if cursor <= s.Snap.LastWeekCursor {
		return
	}
	if s.Snap.Player == nil || s.Snap.Phase != state.PhasePlaying {
		return
	}

	next := s.Snap.Clone()
	next.LastWeekCursor = cursor
	next.Cursor = cursor
	p := next.Player
	vol := s.Volatility()

	// 1. Standing appointments the player skipped.
	s.penalizeNoShows(next, cursor)

	// 2. Calendar counters, rolling the year at month 13.
	yearRolled := s.advanceCalendar(p)

	// 3. Money pass.
	s.runFinance(p, cursor, yearRolled)

	// 4. Completed skill investments land their bonuses.
	s.applyInvestments(next, cursor)

	// 5. Terminal conditions.
	if s.evaluateGameOver(next, cursor) {
		s.Snap = next
		return
	}

	// 6. Relationship entropy.
	s.decayRelationships(next)

	// 7. Portfolio drift, deal deadlines, and the event generator.
	s.runPortfolio(next, cursor, vol)
	s.expireDeals(next, cursor)
	s.runEventGenerator(next, cursor, vol)

	// Week-end bookkeeping: overtime penalty, AP refill, ledger reset.
	s.resetWeekActions(next)

	// 8. Scenario selection for the new week.
	s.runScenarioSelector(next, cursor, vol)

	// 9. Fresh deal flow for the week ahead.
	s.replenishDeals(next, cursor)

	s.Snap = next

	slog.Info("week advanced",
		"cursor", cursor,
		"week", p.GameTime.Week,
		"year", p.GameTime.Year,
		"cash", humanize.Commaf(p.Cash),
		"loan", humanize.Commaf(p.Finances.LoanBalance),
		"stress", p.Stress,
		"reputation", p.Reputation,
		"portfolio", len(p.Portfolio),
		"volatility", fmt.Sprintf("%.2f", vol),
	)

	// The adversarial pass runs under its own cursor guard.
	s.RivalTick(cursor)
}

// penalizeNoShows dings actors who held a slot open for the player and
// got nothing. Contact this tick counts as showing up.
func (s *Simulation) penalizeNoShows(snap *state.Snapshot, cursor uint64) {
	gt := snap.Player.GameTime
	weekend := gt.DayType == state.Weekend
	for _, a := range snap.Actors {
		if !a.ExpectsPlayer(weekend, uint8(gt.TimeSlot)) {
			continue
		}
		if a.LastContactTick >= cursor {
			continue
		}
		a.AdjustMood(-s.Tuning.NoShowMoodPenalty)
		a.AdjustTrust(-s.Tuning.NoShowTrustPenalty)
		a.AddMemory(cursor, "they stood me up again", 0.4)

		mirror := snap.Player.Relationships[a.ID]
		mirror.Mood = a.Mood
		mirror.Trust = a.Trust
		snap.Player.Relationships[a.ID] = mirror
	}
}

// advanceCalendar bumps week/month/quarter/year and reports a year roll.
func (s *Simulation) advanceCalendar(p *state.PlayerState) bool {
	gt := &p.GameTime
	gt.Week++
	rolled := false
	if (gt.Week-1)%weeksPerMonth == 0 {
		gt.Month++
		if gt.Month >= 13 {
			gt.Month = 1
			gt.Year++
			rolled = true
		}
	}
	gt.Quarter = (gt.Month-1)/3 + 1
	return rolled
}

// applyInvestments lands finished programs' stat bonuses.
func (s *Simulation) applyInvestments(snap *state.Snapshot, cursor uint64) {
	p := snap.Player
	var remaining []state.SkillInvestment
	for _, inv := range p.Investments {
		if p.GameTime.Week < inv.CompletesWeek {
			remaining = append(remaining, inv)
			continue
		}
		applyStatDelta(p, inv.Stat, inv.Bonus)
		s.EmitEvent(Event{Tick: cursor,
			Description: fmt.Sprintf("completed %s", inv.Name),
			Category:    "time"})
	}
	p.Investments = remaining
}

// evaluateGameOver transitions to a terminal phase when the run is lost.
// Reports true when play ends this tick.
func (s *Simulation) evaluateGameOver(snap *state.Snapshot, cursor uint64) bool {
	p := snap.Player

	if p.Finances.BankBalance < 0 {
		if !p.Seniority.HasCreditAccess() {
			snap.Phase = state.PhaseBankrupt
			s.EmitEvent(Event{Tick: cursor, Description: "out of cash with no credit line", Category: "time"})
			return true
		}
		// Bridge the shortfall onto the loan.
		p.Finances.LoanBalance += -p.Finances.BankBalance
		if p.Finances.LoanRate == 0 {
			p.Finances.LoanRate = state.LoanRateMin
		}
		p.Finances.BankBalance = 0
		p.Cash = 0
	}

	if p.GameTime.Week > s.Tuning.ReputationGraceWeek && p.Reputation < s.Tuning.ReputationFloor {
		snap.Phase = state.PhaseDisgraced
		s.EmitEvent(Event{Tick: cursor, Description: "your reputation has collapsed", Category: "time"})
		return true
	}
	return false
}

// decayRelationships drifts every actor toward neglect. Non-rival
// relationships go cold faster than grudges do.
func (s *Simulation) decayRelationships(snap *state.Snapshot) {
	for _, a := range snap.Actors {
		mood, trust := s.Tuning.MoodDecay, s.Tuning.TrustDecay
		if a.Kind != actors.KindRivalPrincipal {
			mood *= s.Tuning.NonRivalDecayScale
			trust *= s.Tuning.NonRivalDecayScale
		}
		a.AdjustMood(-mood)
		a.AdjustTrust(-trust)
	}
}

func (s *Simulation) runPortfolio(snap *state.Snapshot, cursor uint64, vol float64) {
	for _, c := range snap.Player.Portfolio {
		if portfolio.DriftWeekly(c, s.Rand, vol) {
			s.EmitEvent(Event{Tick: cursor,
				Description: fmt.Sprintf("%s has slipped into crisis", c.Name),
				Category:    "event"})
		}
	}
}

// expireDeals decrements every open deal's deadline, dropping deals that
// reach zero.
func (s *Simulation) expireDeals(snap *state.Snapshot, cursor uint64) {
	kept := snap.Deals[:0]
	for _, d := range snap.Deals {
		d.Deadline--
		if d.Deadline <= 0 {
			s.EmitEvent(Event{Tick: cursor,
				Description: fmt.Sprintf("the window on %s has closed", d.Target),
				Category:    "event"})
			continue
		}
		kept = append(kept, d)
	}
	snap.Deals = kept
}

// runScenarioSelector rolls the week-end fire chance and, on a hit, picks
// the next narrative branch.
func (s *Simulation) runScenarioSelector(snap *state.Snapshot, cursor uint64, vol float64) {
	if s.Catalog == nil {
		return
	}
	w := s.scenarioWorld(snap, vol)
	if s.Rand.Float() >= scenario.FireChance(s.Tuning.ScenarioBaseChance, w) {
		return
	}
	picked := s.Catalog.Select(w, s.Tuning.ScenarioClusterWidth, s.Rand)
	if picked == nil {
		return
	}
	s.PendingScenario = picked
	snap.ScenariosPlayed = append(snap.ScenariosPlayed, picked.ID)
	s.EmitEvent(Event{Tick: cursor,
		Description: fmt.Sprintf("scenario: %s", picked.Title),
		Category:    "scenario"})
}

// scenarioWorld builds the selector's read-only view of the session.
func (s *Simulation) scenarioWorld(snap *state.Snapshot, vol float64) scenario.World {
	p := snap.Player
	factions := make(map[string]float64, len(p.Factions))
	for k, v := range p.Factions {
		factions[string(k)] = v
	}
	played := make(map[string]bool, len(snap.ScenariosPlayed))
	for _, id := range snap.ScenariosPlayed {
		played[id] = true
	}
	threat := 0.0
	for _, r := range snap.Rivals {
		if r.Vendetta > threat {
			threat = r.Vendetta
		}
	}
	return scenario.World{
		Week:        p.GameTime.Week,
		Weekend:     p.GameTime.DayType == state.Weekend,
		Slot:        uint8(p.GameTime.TimeSlot),
		Cash:        p.Cash,
		Stress:      p.Stress,
		AuditRisk:   p.AuditRisk,
		Reputation:  p.Reputation,
		Ethics:      p.Ethics,
		Factions:    factions,
		Flags:       p.Flags,
		Portfolio:   len(p.Portfolio),
		Volatility:  vol,
		RivalThreat: threat,
		Played:      played,
	}
}

func applyStatDelta(p *state.PlayerState, id state.StatID, delta float64) {
	switch id {
	case state.StatStress:
		p.Stress = state.ClampStat(p.Stress + delta)
	case state.StatEnergy:
		p.Energy = state.ClampStat(p.Energy + delta)
	case state.StatHealth:
		p.Health = state.ClampStat(p.Health + delta)
	case state.StatReputation:
		p.Reputation = state.ClampStat(p.Reputation + delta)
	case state.StatEthics:
		p.Ethics = state.ClampStat(p.Ethics + delta)
	case state.StatAuditRisk:
		p.AuditRisk = state.ClampStat(p.AuditRisk + delta)
	case state.StatAnalystRating:
		p.AnalystRating = state.ClampStat(p.AnalystRating + delta)
	case state.StatFinancialEngineering:
		p.FinancialEngineering = state.ClampStat(p.FinancialEngineering + delta)
	case state.StatDependency:
		p.Dependency = state.ClampStat(p.Dependency + delta)
	}
}
