package engine

import (
	"github.com/google/uuid"

	"github.com/talgya/dealfloor/internal/actors"
	"github.com/talgya/dealfloor/internal/state"
)

// ConsumeAction spends one action point for an identity-scoped action.
// Repeating the same (week, action, target) combination within one week is
// declined without consuming AP.
func (s *Simulation) ConsumeAction(actionType string, targetID int64) *state.Decline {
	p := s.Snap.Player
	if p == nil {
		return &state.Decline{Code: state.DeclineNoSession, Reason: "no session in progress"}
	}
	if s.Snap.Phase != state.PhasePlaying {
		return &state.Decline{Code: state.DeclineTerminal, Reason: "the game has ended"}
	}

	key := state.KeyFor(p.GameTime.Week, actionType, targetID)
	if targetID != 0 && s.Snap.WeekActionKeys[key] {
		return &state.Decline{Code: state.DeclineDuplicate,
			Reason: "you already did that this week"}
	}
	if p.GameTime.ActionsRemaining <= 0 {
		return &state.Decline{Code: state.DeclineNoActionPts,
			Reason: "no action points left this week"}
	}

	next := s.Snap.Clone()
	np := next.Player
	np.GameTime.ActionsRemaining--
	if targetID != 0 {
		next.WeekActionKeys[key] = true
	}
	next.ActionLog = append(next.ActionLog, state.ActionRecord{
		ID:       uuid.NewString(),
		Week:     np.GameTime.Week,
		Type:     actionType,
		TargetID: targetID,
		Tick:     next.Cursor,
	})
	next.AI.PlayerPattern[actionType]++

	// Company action ledger feeds weekly drift.
	if c := np.CompanyByID(targetID); c != nil {
		c.WeekActions = append(c.WeekActions, actionType)
	} else if a := next.ActorByID(actors.ActorID(targetID)); a != nil {
		// An action spent on an actor counts as showing up for them this week.
		a.LastContactTick = next.Cursor + 1
	}

	s.Snap = next
	return nil
}

// ToggleOvertime flips the overtime modifier. Turning it on grants one
// extra action point immediately and schedules an energy/health penalty
// for the next week-end; turning it off before then refunds the point and
// cancels the penalty.
func (s *Simulation) ToggleOvertime(on bool) *state.Decline {
	p := s.Snap.Player
	if p == nil {
		return &state.Decline{Code: state.DeclineNoSession, Reason: "no session in progress"}
	}
	if on == p.GameTime.OvertimeActive {
		return nil
	}

	next := s.Snap.Clone()
	np := next.Player
	if on {
		np.GameTime.OvertimeActive = true
		np.GameTime.MaxActions++
		np.GameTime.ActionsRemaining++
		next.OvertimePending = true
	} else {
		np.GameTime.OvertimeActive = false
		np.GameTime.MaxActions--
		np.GameTime.ActionsRemaining--
		if np.GameTime.ActionsRemaining < 0 {
			np.GameTime.ActionsRemaining = 0
		}
		next.OvertimePending = false
	}
	s.Snap = next
	return nil
}

// resetWeekActions runs at week end on the working copy: the overtime
// penalty lands, AP refills, and the dedupe set and company ledgers clear.
func (s *Simulation) resetWeekActions(snap *state.Snapshot) {
	p := snap.Player

	if snap.OvertimePending {
		p.Energy = state.ClampStat(p.Energy - s.Tuning.OvertimeEnergyCost)
		p.Health = state.ClampStat(p.Health - s.Tuning.OvertimeHealthCost)
		snap.OvertimePending = false
	}
	p.GameTime.OvertimeActive = false
	p.GameTime.MaxActions = s.Tuning.MaxActions
	p.GameTime.ActionsRemaining = p.GameTime.MaxActions

	snap.WeekActionKeys = make(map[string]bool)
	for _, c := range p.Portfolio {
		c.WeekActions = nil
	}
}
