package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/dealfloor/internal/actors"
	"github.com/talgya/dealfloor/internal/portfolio"
	"github.com/talgya/dealfloor/internal/state"
)

// EventKind distinguishes company crises from relationship drama.
type EventKind uint8

const (
	KindCompanyCrisis EventKind = iota
	KindDrama
)

// EventOption is one way to resolve a fired event.
type EventOption struct {
	Label   string            `json:"label"`
	Changes state.StatChanges `json:"changes"`
}

// GameEvent is a fired crisis or drama awaiting resolution. At most one of
// each kind blocks at a time; the rest queue in FIFO order.
type GameEvent struct {
	ID        string      `json:"id"`
	Kind      EventKind   `json:"kind"`
	CompanyID int64       `json:"company_id,omitempty"`
	ActorID   actors.ActorID `json:"actor_id,omitempty"`
	Title     string      `json:"title"`
	Options   []EventOption `json:"options"`
	FiredTick uint64      `json:"fired_tick"`
}

// runEventGenerator draws crisis and drama triggers for the week on the
// working copy. Trigger probability is a function of stress, audit risk,
// cash pressure, and market volatility.
func (s *Simulation) runEventGenerator(snap *state.Snapshot, tick uint64, volatility float64) {
	p := snap.Player

	pressure := 0.0
	if p.Stress > 60 {
		pressure += 0.03
	}
	if p.AuditRisk > 50 {
		pressure += 0.03
	}
	if p.Finances.BankBalance < 1000 {
		pressure += 0.04
	}
	pressure += volatility * 0.05

	// Company crises. A company already flagged in-crisis fires
	// deterministically; otherwise a Bernoulli draw decides.
	for _, c := range p.Portfolio {
		if c.DealPhase != portfolio.PhaseOwned || c.ActiveEvent != "" {
			continue
		}
		chance := s.Tuning.EventBaseChance + pressure
		if c.InCrisis || s.Rand.Float() < chance {
			ev := s.buildCompanyCrisis(c, tick)
			c.InCrisis = false
			c.ActiveEvent = ev.ID
			s.enqueue(ev, tick)
		}
	}

	// Relationship drama from low-mood, low-trust actors.
	for _, a := range snap.Actors {
		if a.Mood > 35 || a.Trust > 50 {
			continue
		}
		chance := s.Tuning.DramaBaseChance + pressure
		if s.Rand.Float() < chance {
			s.enqueue(s.buildDrama(a, tick), tick)
		}
	}
}

// enqueue promotes the event into its blocking slot if free, otherwise
// appends to the FIFO queue.
func (s *Simulation) enqueue(ev GameEvent, tick uint64) {
	s.EmitEvent(Event{Tick: tick, Description: ev.Title, Category: "event"})
	switch ev.Kind {
	case KindCompanyCrisis:
		if s.ActiveCompanyEvent == nil {
			s.ActiveCompanyEvent = &ev
			return
		}
	case KindDrama:
		if s.ActiveDrama == nil {
			s.ActiveDrama = &ev
			return
		}
	}
	s.EventQueue = append(s.EventQueue, ev)
}

// ResolveEvent applies the chosen option of the active event of the given
// kind, clears the slot, and promotes the next queued event of that kind.
func (s *Simulation) ResolveEvent(kind EventKind, option int) *state.Decline {
	var active *GameEvent
	switch kind {
	case KindCompanyCrisis:
		active = s.ActiveCompanyEvent
	case KindDrama:
		active = s.ActiveDrama
	}
	if active == nil {
		return &state.Decline{Code: state.DeclineNoSession, Reason: "no active event to resolve"}
	}
	if option < 0 || option >= len(active.Options) {
		option = 0
	}

	if dec := s.Dispatch(active.Options[option].Changes); dec != nil {
		return dec
	}

	// Clear the company's active-event marker.
	if active.CompanyID != 0 && s.Snap.Player != nil {
		next := s.Snap.Clone()
		if c := next.Player.CompanyByID(active.CompanyID); c != nil && c.ActiveEvent == active.ID {
			c.ActiveEvent = ""
		}
		s.Snap = next
	}

	switch kind {
	case KindCompanyCrisis:
		s.ActiveCompanyEvent = nil
	case KindDrama:
		s.ActiveDrama = nil
	}
	s.promote(kind)
	return nil
}

// promote moves the first queued event of the kind into its blocking slot.
func (s *Simulation) promote(kind EventKind) {
	for i, ev := range s.EventQueue {
		if ev.Kind != kind {
			continue
		}
		s.EventQueue = append(s.EventQueue[:i], s.EventQueue[i+1:]...)
		promoted := ev
		if kind == KindCompanyCrisis {
			s.ActiveCompanyEvent = &promoted
		} else {
			s.ActiveDrama = &promoted
		}
		return
	}
}

func f(v float64) *float64 { return &v }

func (s *Simulation) buildCompanyCrisis(c *portfolio.Company, tick uint64) GameEvent {
	rev := -c.Revenue * 0.05
	return GameEvent{
		ID:        uuid.NewString(),
		Kind:      KindCompanyCrisis,
		CompanyID: c.ID,
		Title:     fmt.Sprintf("%s: operations crisis", c.Name),
		FiredTick: tick,
		Options: []EventOption{
			{
				Label: "Fly out and fix it yourself",
				Changes: state.StatChanges{
					Stress: f(8), Energy: f(-10),
					ModifyCompany: &portfolio.Patch{ID: c.ID, CEOScore: f(55)},
				},
			},
			{
				Label: "Let management handle it",
				Changes: state.StatChanges{
					Reputation: f(-2),
					ModifyCompany: &portfolio.Patch{ID: c.ID, Revenue: f(c.Revenue + rev)},
				},
			},
		},
	}
}

func (s *Simulation) buildDrama(a *actors.Actor, tick uint64) GameEvent {
	return GameEvent{
		ID:      uuid.NewString(),
		Kind:    KindDrama,
		ActorID: a.ID,
		Title:   fmt.Sprintf("%s is pulling away", a.Name),
		FiredTick: tick,
		Options: []EventOption{
			{
				Label: "Make time for them",
				Changes: state.StatChanges{
					Energy: f(-5),
					Relationship: &state.RelationshipChange{
						ActorID: a.ID, MoodDelta: 10, TrustDelta: 6,
						Memory: "they showed up when it mattered", Importance: 0.7, Tick: tick,
					},
				},
			},
			{
				Label: "The deal comes first",
				Changes: state.StatChanges{
					Stress: f(3),
					Relationship: &state.RelationshipChange{
						ActorID: a.ID, MoodDelta: -8, TrustDelta: -6,
						Memory: "they chose the deal again", Importance: 0.6, Tick: tick,
					},
				},
			},
		},
	}
}
