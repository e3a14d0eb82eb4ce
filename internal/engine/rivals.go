package engine

import (
	"fmt"
	"sort"

	"github.com/talgya/dealfloor/internal/actors"
	"github.com/talgya/dealfloor/internal/state"
)

// Tactical moves a rival can attempt.
type rivalMove uint8

const (
	movePoach rivalMove = iota
	moveRumor
	moveNone
)

// RivalTick runs one adversarial-AI pass for the cursor. Reprocessing the
// same cursor is a no-op. At most one successful rival action is applied
// per tick; rivals are processed most-threatening-first.
func (s *Simulation) RivalTick(cursor uint64) {
	if cursor <= s.Snap.AI.LastRivalCursor {
		return
	}
	p := s.Snap.Player
	if p == nil || s.Snap.Phase != state.PhasePlaying {
		return
	}

	next := s.Snap.Clone()
	next.AI.LastRivalCursor = cursor

	s.deriveMindsets(next)
	s.updateCoalition(next, cursor)

	ordered := s.byThreat(next)
	actionApplied := false

	for _, r := range ordered {
		// Cooldown gate, with a chance to skip it.
		if cursor-r.LastActionTick < s.Tuning.RivalCooldownTicks && r.LastActionTick != 0 {
			if s.Rand.Float() >= s.Tuning.RivalSkipCooldown {
				continue
			}
		}

		move, deal := s.chooseMove(next, r)
		if move == moveNone {
			continue
		}
		r.LastActionTick = cursor

		success := s.Rand.Float() < s.successChance(next, r, move)
		if !success || actionApplied {
			continue
		}
		actionApplied = true

		switch move {
		case movePoach:
			s.applyPoach(next, r, deal, cursor)
		case moveRumor:
			s.applyRumor(next, r, cursor)
		}
	}

	s.Snap = next
}

// deriveMindsets recomputes each rival's posture from its traits plus
// observed player behavior.
func (s *Simulation) deriveMindsets(snap *state.Snapshot) {
	aggressivePlays := snap.AI.PlayerPattern["submit_offer"] +
		snap.AI.PlayerPattern["hostile_bid"] +
		snap.AI.PlayerPattern["spread_rumor"]

	for _, r := range snap.Rivals {
		m := state.Mindset{Posture: "opportunistic", Focus: "deals"}

		heat := r.Aggression + r.Vendetta
		switch {
		case heat > 120:
			m.Posture = "predatory"
			m.Focus = "player"
		case heat < 60:
			m.Posture = "defensive"
			m.Focus = "reputation"
		}

		m.Risk = r.RiskTolerance / 100
		if aggressivePlays > 5 {
			// An aggressive player makes rivals bolder.
			m.Risk += 0.1
			if m.Risk > 1 {
				m.Risk = 1
			}
		}
		snap.AI.Mindsets[r.ID] = m
	}
}

// updateCoalition forms or expires the hostile coalition. It forms when the
// player is dominant and multiple funds carry high vendetta and aggression.
func (s *Simulation) updateCoalition(snap *state.Snapshot, cursor uint64) {
	if co := snap.AI.Coalition; co != nil {
		if cursor >= co.ExpiresTick {
			snap.AI.Coalition = nil
			s.EmitEvent(Event{Tick: cursor, Description: "the coalition against you has dissolved", Category: "rival"})
		} else {
			return
		}
	}

	if snap.Player.Reputation <= s.Tuning.CoalitionPlayerRepMin {
		return
	}
	var members []int64
	for _, r := range snap.Rivals {
		if r.Vendetta > s.Tuning.CoalitionVendettaMin && r.Aggression > s.Tuning.CoalitionAggressionMin {
			members = append(members, r.ID)
		}
	}
	if len(members) < 2 {
		return
	}
	snap.AI.Coalition = &state.Coalition{
		Members:     members,
		ExpiresTick: cursor + s.Tuning.CoalitionDuration,
	}
	s.EmitEvent(Event{Tick: cursor,
		Description: fmt.Sprintf("%d rival funds have formed a coalition against you", len(members)),
		Category:    "rival"})
}

func (s *Simulation) inCoalition(snap *state.Snapshot, id int64) bool {
	if snap.AI.Coalition == nil {
		return false
	}
	for _, m := range snap.AI.Coalition.Members {
		if m == id {
			return true
		}
	}
	return false
}

// byThreat orders rivals by aggression + vendetta, coalition-boosted.
func (s *Simulation) byThreat(snap *state.Snapshot) []*actors.RivalFund {
	ordered := make([]*actors.RivalFund, len(snap.Rivals))
	copy(ordered, snap.Rivals)
	threat := func(r *actors.RivalFund) float64 {
		t := r.Aggression + r.Vendetta
		if s.inCoalition(snap, r.ID) {
			t *= s.Tuning.CoalitionBoost
		}
		return t
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return threat(ordered[i]) > threat(ordered[j])
	})
	return ordered
}

// chooseMove scores the rival's tactical options and returns the best one.
// The fund's play style sets its bias: raiders chase any deal, momentum
// funds chase hot ones, distressed shops pick over what nobody wants, and
// operators would rather talk you down than outbid you.
func (s *Simulation) chooseMove(snap *state.Snapshot, r *actors.RivalFund) (rivalMove, int64) {
	mindset := snap.AI.Mindsets[r.ID]

	var bestDeal int64
	poachScore := 0.0
	for _, d := range snap.Deals {
		if r.DryPowder < d.AskingPrice {
			continue
		}
		score := r.Aggression/100 + mindset.Risk
		if d.Hot {
			score += 0.3
		}
		for _, id := range d.InterestedRivals {
			if id == r.ID {
				score += 0.4
				break
			}
		}
		switch r.Strategy {
		case actors.StrategyRaider:
			score += 0.2
		case actors.StrategyMomentum:
			if d.Hot {
				score += 0.2
			}
		case actors.StrategyDistressed:
			if !d.Hot {
				score += 0.2
			}
		}
		if score > poachScore {
			poachScore = score
			bestDeal = d.ID
		}
	}

	rumorScore := r.Vendetta / 100
	if mindset.Posture == "predatory" {
		rumorScore += 0.3
	}
	if r.Strategy == actors.StrategyOperator {
		rumorScore += 0.2
	}
	// A rumor costs the rival its own standing, so a defensive fund with a
	// streak to protect will not bother.
	if mindset.Posture == "defensive" && r.WinStreak > 0 {
		rumorScore = 0
	}

	const minScore = 0.5
	if poachScore >= rumorScore && poachScore > minScore {
		return movePoach, bestDeal
	}
	if rumorScore > minScore {
		return moveRumor, 0
	}
	return moveNone, 0
}

// successChance scales a move's base odds by difficulty, coalition, and
// the rival's risk appetite.
func (s *Simulation) successChance(snap *state.Snapshot, r *actors.RivalFund, move rivalMove) float64 {
	base := 0.35
	if move == moveRumor {
		base = 0.45
	}

	switch snap.Player.Difficulty {
	case state.DifficultyEasy:
		base *= 0.85
	case state.DifficultyHard:
		base *= 1.2
	}

	base += snap.AI.Mindsets[r.ID].Risk * 0.15
	if s.inCoalition(snap, r.ID) {
		base *= s.Tuning.CoalitionBoost
	}
	if base > 0.9 {
		base = 0.9
	}
	return base
}

// applyPoach removes the contested deal from the pool, books it to the
// rival, and penalizes the player.
func (s *Simulation) applyPoach(snap *state.Snapshot, r *actors.RivalFund, dealID int64, cursor uint64) {
	for i, d := range snap.Deals {
		if d.ID != dealID {
			continue
		}
		snap.Deals = append(snap.Deals[:i], snap.Deals[i+1:]...)
		r.DryPowder -= d.AskingPrice
		r.Portfolio = append(r.Portfolio, actors.Acquisition{
			Target: d.Target, Price: d.AskingPrice, Tick: cursor,
		})
		r.WinStreak++

		p := snap.Player
		p.Stress = state.ClampStat(p.Stress + 8)
		p.Reputation = state.ClampStat(p.Reputation - 4)
		if v, ok := p.Factions[state.FactionDealmakers]; ok {
			p.Factions[state.FactionDealmakers] = state.ClampStat(v - 5)
		}

		s.escalate(snap, r, 5, cursor)
		s.EmitEvent(Event{Tick: cursor,
			Description: fmt.Sprintf("%s poached %s out from under you", r.Name, d.Target),
			Category:    "rival"})
		return
	}
}

// applyRumor damages the player at a reputational cost to the rival.
func (s *Simulation) applyRumor(snap *state.Snapshot, r *actors.RivalFund, cursor uint64) {
	r.WinStreak--

	p := snap.Player
	p.Stress = state.ClampStat(p.Stress + 6)
	p.Reputation = state.ClampStat(p.Reputation - 3)

	s.escalate(snap, r, 4, cursor)
	s.EmitEvent(Event{Tick: cursor,
		Description: fmt.Sprintf("%s is spreading rumors about your last deal", r.Name),
		Category:    "rival"})
}

// escalate raises vendetta and, on a tier crossing, logs the escalation
// beat and adds stress.
func (s *Simulation) escalate(snap *state.Snapshot, r *actors.RivalFund, delta float64, cursor uint64) {
	tier, crossed := r.RaiseVendetta(delta)
	if !crossed {
		return
	}
	p := snap.Player
	p.Stress = state.ClampStat(p.Stress + 3)
	s.EmitEvent(Event{Tick: cursor,
		Description: fmt.Sprintf("%s is now %s toward you", r.Name, actors.TierName(tier)),
		Category:    "rival"})
}
