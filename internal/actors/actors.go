// Package actors provides the narrative-actor and rival-fund data models.
package actors

// ActorID is a unique identifier for a narrative actor.
type ActorID int64

// Kind is a closed enumeration of narrative-actor roles. New roles are
// added here, never matched by free text.
type Kind uint8

const (
	KindMentor Kind = iota
	KindColleague
	KindLP
	KindJournalist
	KindRegulator
	KindRivalPrincipal
	KindRomance
)

// KindName returns a display name for an actor kind.
func KindName(k Kind) string {
	switch k {
	case KindMentor:
		return "mentor"
	case KindColleague:
		return "colleague"
	case KindLP:
		return "limited partner"
	case KindJournalist:
		return "journalist"
	case KindRegulator:
		return "regulator"
	case KindRivalPrincipal:
		return "rival principal"
	case KindRomance:
		return "romance"
	default:
		return "unknown"
	}
}

// Appointment is a standing weekly slot where the actor expects the player.
type Appointment struct {
	Weekend bool  `json:"weekend"`
	Slot    uint8 `json:"slot"` // 0 morning, 1 afternoon, 2 evening
}

// Actor is a narrative NPC with a mood/trust model independent of the
// legacy scalar relationship score.
type Actor struct {
	ID   ActorID `json:"id"`
	Name string  `json:"name"`
	Kind Kind    `json:"kind"`

	Mood  float64 `json:"mood"`  // 0-100
	Trust float64 `json:"trust"` // 0-100

	Memories []Memory      `json:"memories,omitempty"`
	Schedule []Appointment `json:"schedule,omitempty"`

	LastContactTick uint64 `json:"last_contact_tick"`
}

// MaxMemories bounds each actor's memory list.
const MaxMemories = 12

// Memory records one notable interaction from the actor's point of view.
type Memory struct {
	Tick       uint64  `json:"tick"`
	Content    string  `json:"content"`
	Importance float32 `json:"importance"` // 0.0-1.0
}

// AddMemory appends a memory to the actor's list. When full, the
// lowest-importance memory is dropped to make room.
func (a *Actor) AddMemory(tick uint64, content string, importance float32) {
	m := Memory{Tick: tick, Content: content, Importance: importance}

	if len(a.Memories) < MaxMemories {
		a.Memories = append(a.Memories, m)
		return
	}

	minIdx := 0
	for i := 1; i < len(a.Memories); i++ {
		if a.Memories[i].Importance < a.Memories[minIdx].Importance {
			minIdx = i
		}
	}
	if m.Importance > a.Memories[minIdx].Importance {
		a.Memories[minIdx] = m
	}
}

// RecentMemories returns up to count memories, most recent first.
func (a *Actor) RecentMemories(count int) []Memory {
	if len(a.Memories) == 0 {
		return nil
	}
	sorted := make([]Memory, len(a.Memories))
	copy(sorted, a.Memories)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Tick > sorted[i].Tick {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}

// AdjustMood shifts mood by delta, clamped to [0, 100].
func (a *Actor) AdjustMood(delta float64) {
	a.Mood = clamp01(a.Mood + delta)
}

// AdjustTrust shifts trust by delta, clamped to [0, 100].
func (a *Actor) AdjustTrust(delta float64) {
	a.Trust = clamp01(a.Trust + delta)
}

// ExpectsPlayer reports whether the actor has a standing appointment in the
// given day/slot.
func (a *Actor) ExpectsPlayer(weekend bool, slot uint8) bool {
	for _, app := range a.Schedule {
		if app.Weekend == weekend && app.Slot == slot {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	cp := *a
	cp.Memories = append([]Memory(nil), a.Memories...)
	cp.Schedule = append([]Appointment(nil), a.Schedule...)
	return &cp
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
