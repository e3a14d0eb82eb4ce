package engine

import (
	"encoding/json"
	"testing"

	"github.com/talgya/dealfloor/internal/actors"
	"github.com/talgya/dealfloor/internal/entropy"
	"github.com/talgya/dealfloor/internal/portfolio"
	"github.com/talgya/dealfloor/internal/state"
)

func addOwnedCompany(sim *Simulation, id int64, name string) *portfolio.Company {
	c := &portfolio.Company{
		ID: id, Name: name, DealPhase: portfolio.PhaseOwned,
		Revenue: 10000, EBITDA: 3500, Growth: 0.05,
		BoardScore: 60, CEOScore: 60,
	}
	sim.Snap.Player.Portfolio = append(sim.Snap.Player.Portfolio, c)
	return c
}

func TestCrisisFlagFiresDeterministically(t *testing.T) {
	sim := newSim(t, state.SeniorityVP, 0.99)
	c := addOwnedCompany(sim, 1, "Meridian Logistics")
	c.InCrisis = true

	sim.runEventGenerator(sim.Snap, 1, 0)

	if sim.ActiveCompanyEvent == nil {
		t.Fatalf("flagged company did not fire an event")
	}
	if sim.ActiveCompanyEvent.CompanyID != 1 {
		t.Fatalf("event company = %d, want 1", sim.ActiveCompanyEvent.CompanyID)
	}
	if c.InCrisis {
		t.Fatalf("crisis flag should clear once the event fires")
	}
	if c.ActiveEvent != sim.ActiveCompanyEvent.ID {
		t.Fatalf("company not marked with the active event")
	}
}

func TestSecondCrisisQueuesBehindFirst(t *testing.T) {
	sim := newSim(t, state.SeniorityVP, 0.99)
	a := addOwnedCompany(sim, 1, "Meridian Logistics")
	b := addOwnedCompany(sim, 2, "Cobalt Foods")
	a.InCrisis = true
	b.InCrisis = true

	sim.runEventGenerator(sim.Snap, 1, 0)

	if sim.ActiveCompanyEvent == nil || sim.ActiveCompanyEvent.CompanyID != 1 {
		t.Fatalf("first crisis should hold the blocking slot")
	}
	if len(sim.EventQueue) != 1 || sim.EventQueue[0].CompanyID != 2 {
		t.Fatalf("second crisis should queue, queue = %+v", sim.EventQueue)
	}
}

func TestCompanyWithActiveEventSkipped(t *testing.T) {
	sim := newSim(t, state.SeniorityVP, 0.99)
	c := addOwnedCompany(sim, 1, "Meridian Logistics")
	c.InCrisis = true
	c.ActiveEvent = "already-pending"

	sim.runEventGenerator(sim.Snap, 1, 0)

	if sim.ActiveCompanyEvent != nil {
		t.Fatalf("company with a pending event fired another")
	}
}

func TestUnresolvedCrisisRefiresAfterReload(t *testing.T) {
	sim := newSim(t, state.SeniorityVP, 0.99)
	c := addOwnedCompany(sim, 1, "Meridian Logistics")
	c.InCrisis = true
	sim.runEventGenerator(sim.Snap, 1, 0)
	if sim.ActiveCompanyEvent == nil {
		t.Fatalf("crisis did not fire")
	}

	// The event slots live on the Simulation, not the snapshot, so a
	// save taken mid-crisis carries only the company marker.
	raw, err := json.Marshal(sim.Snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded := New(state.HydrateSnapshot(raw), sim.Tuning,
		&entropy.Scripted{Values: []float64{0.99}}, sim.Catalog)

	rc := loaded.Snap.Player.CompanyByID(1)
	if rc.ActiveEvent != "" {
		t.Fatalf("reloaded company still points at a dead event: %q", rc.ActiveEvent)
	}
	if !rc.InCrisis {
		t.Fatalf("reloaded company lost its crisis")
	}

	loaded.runEventGenerator(loaded.Snap, 2, 0)
	if loaded.ActiveCompanyEvent == nil || loaded.ActiveCompanyEvent.CompanyID != 1 {
		t.Fatalf("crisis did not re-fire after reload")
	}
	if dec := loaded.ResolveEvent(KindCompanyCrisis, 0); dec != nil {
		t.Fatalf("resolve after reload declined: %+v", dec)
	}
}

func TestResolveAppliesOptionAndPromotesQueue(t *testing.T) {
	sim := newSim(t, state.SeniorityVP, 0.99)
	a := addOwnedCompany(sim, 1, "Meridian Logistics")
	b := addOwnedCompany(sim, 2, "Cobalt Foods")
	a.InCrisis = true
	b.InCrisis = true
	sim.runEventGenerator(sim.Snap, 1, 0)

	if dec := sim.ResolveEvent(KindCompanyCrisis, 0); dec != nil {
		t.Fatalf("resolve declined: %+v", dec)
	}

	p := sim.Snap.Player
	// Option 0 of the operations crisis: fly out yourself.
	if p.Stress != 8 {
		t.Fatalf("stress = %v, want 8", p.Stress)
	}
	if p.Energy != 70 {
		t.Fatalf("energy = %v, want 70", p.Energy)
	}
	if got := p.CompanyByID(1); got.ActiveEvent != "" {
		t.Fatalf("resolved company still marked: %q", got.ActiveEvent)
	}

	// The queued crisis moves into the slot.
	if sim.ActiveCompanyEvent == nil || sim.ActiveCompanyEvent.CompanyID != 2 {
		t.Fatalf("queue did not promote, active = %+v", sim.ActiveCompanyEvent)
	}
}

func TestResolveWithoutActiveEventDeclined(t *testing.T) {
	sim := newSim(t, state.SeniorityVP)

	dec := sim.ResolveEvent(KindDrama, 0)
	if dec == nil || dec.Code != state.DeclineNoSession {
		t.Fatalf("dec = %+v, want %s", dec, state.DeclineNoSession)
	}
}

func TestDramaFiresForNeglectedActor(t *testing.T) {
	// 0.0 forces the drama draw.
	sim := newSim(t, state.SeniorityVP, 0.0)
	sim.Snap.Actors = []*actors.Actor{{
		ID: 3, Name: "Jordan", Kind: actors.KindRomance, Mood: 20, Trust: 30,
	}}

	sim.runEventGenerator(sim.Snap, 1, 0)

	if sim.ActiveDrama == nil || sim.ActiveDrama.ActorID != 3 {
		t.Fatalf("neglected actor did not trigger drama: %+v", sim.ActiveDrama)
	}
}

func TestHealthyActorNoDrama(t *testing.T) {
	sim := newSim(t, state.SeniorityVP, 0.0)
	sim.Snap.Actors = []*actors.Actor{{
		ID: 3, Name: "Jordan", Kind: actors.KindRomance, Mood: 80, Trust: 70,
	}}

	sim.runEventGenerator(sim.Snap, 1, 0)

	if sim.ActiveDrama != nil {
		t.Fatalf("healthy relationship fired drama")
	}
}

func TestDramaResolutionMovesRelationship(t *testing.T) {
	sim := newSim(t, state.SeniorityVP, 0.0)
	sim.Snap.Actors = []*actors.Actor{{
		ID: 3, Name: "Jordan", Kind: actors.KindRomance, Mood: 20, Trust: 30,
	}}
	sim.runEventGenerator(sim.Snap, 1, 0)

	if dec := sim.ResolveEvent(KindDrama, 0); dec != nil {
		t.Fatalf("resolve declined: %+v", dec)
	}

	a := sim.Snap.ActorByID(3)
	if a.Mood != 30 || a.Trust != 36 {
		t.Fatalf("after making time: mood %v trust %v, want 30 and 36", a.Mood, a.Trust)
	}
	if len(a.Memories) != 1 {
		t.Fatalf("resolution should leave a memory")
	}
	if sim.ActiveDrama != nil {
		t.Fatalf("slot not cleared")
	}
}

func TestJournalBounded(t *testing.T) {
	sim := newSim(t, state.SeniorityAnalyst)
	for i := 0; i < maxJournal+50; i++ {
		sim.EmitEvent(Event{Tick: uint64(i), Description: "tick", Category: "time"})
	}
	if len(sim.Events) != maxJournal {
		t.Fatalf("journal = %d entries, want %d", len(sim.Events), maxJournal)
	}
	if sim.Events[0].Tick != 50 {
		t.Fatalf("oldest surviving tick = %d, want 50", sim.Events[0].Tick)
	}
}
