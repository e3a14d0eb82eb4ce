// Package engine drives the weekly simulation: the discrete clock, the
// finance pass, portfolio drift, the event generator, rival AI, and the
// scenario selector, all in a fixed order with idempotent tick guards.
package engine

import (
	"github.com/talgya/dealfloor/internal/config"
	"github.com/talgya/dealfloor/internal/entropy"
	"github.com/talgya/dealfloor/internal/scenario"
	"github.com/talgya/dealfloor/internal/state"
)

// Simulation holds the session snapshot and wires the weekly systems
// together. All mutation is synchronous and single-step: a tick runs to
// completion on a private copy of the snapshot before it is committed, so
// callers never observe a partially applied week.
type Simulation struct {
	Snap    *state.Snapshot
	Tuning  config.Tuning
	Rand    entropy.Source
	Catalog *scenario.Catalog

	// Bounded journal of notable occurrences, persisted alongside the
	// snapshot.
	Events []Event

	// Event generator runtime state. The blocking slots and queue are
	// rebuilt from company crisis flags on load.
	ActiveCompanyEvent *GameEvent
	ActiveDrama        *GameEvent
	EventQueue         []GameEvent

	// Scenario fired at the most recent week-end, awaiting presentation.
	PendingScenario *scenario.Scenario

	vol volatilityCurve
}

// Event is one notable occurrence in the session journal.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "finance", "rival", "event", "scenario", "time"
}

const maxJournal = 1000

// New builds a Simulation around a hydrated snapshot.
func New(snap *state.Snapshot, tuning config.Tuning, src entropy.Source, catalog *scenario.Catalog) *Simulation {
	if snap == nil {
		snap = &state.Snapshot{}
		state.Normalize(snap)
	}
	return &Simulation{
		Snap:    snap,
		Tuning:  tuning,
		Rand:    src,
		Catalog: catalog,
	}
}

// EmitEvent appends to the journal, trimming old entries.
func (s *Simulation) EmitEvent(e Event) {
	s.Events = append(s.Events, e)
	if len(s.Events) > maxJournal {
		s.Events = s.Events[len(s.Events)-maxJournal:]
	}
}

// Dispatch applies an external command through the reducer and commits the
// result. This is the only mutation channel offered to callers.
func (s *Simulation) Dispatch(cmd state.StatChanges) *state.Decline {
	next, dec := state.Reduce(s.Snap, cmd)
	if dec != nil {
		return dec
	}
	s.Snap = next
	return nil
}

// CurrentTick returns the last fully processed week cursor.
func (s *Simulation) CurrentTick() uint64 {
	return s.Snap.LastWeekCursor
}
