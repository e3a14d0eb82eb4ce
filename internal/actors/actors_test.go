package actors

import "testing"

func TestMemoryEviction(t *testing.T) {
	a := &Actor{ID: 1, Name: "Dana"}
	for i := 0; i < MaxMemories; i++ {
		a.AddMemory(uint64(i), "routine check-in", 0.5)
	}
	a.Memories[3].Importance = 0.1

	a.AddMemory(99, "they saved the fund", 0.9)

	if len(a.Memories) != MaxMemories {
		t.Fatalf("memories = %d, want %d", len(a.Memories), MaxMemories)
	}
	if a.Memories[3].Content != "they saved the fund" {
		t.Fatalf("lowest-importance memory not replaced: %q", a.Memories[3].Content)
	}
}

func TestLowImportanceMemoryDroppedWhenFull(t *testing.T) {
	a := &Actor{ID: 1}
	for i := 0; i < MaxMemories; i++ {
		a.AddMemory(uint64(i), "solid memory", 0.6)
	}
	a.AddMemory(99, "forgettable", 0.1)

	for _, m := range a.Memories {
		if m.Content == "forgettable" {
			t.Fatalf("low-importance memory displaced a stronger one")
		}
	}
}

func TestMoodTrustClamp(t *testing.T) {
	a := &Actor{Mood: 95, Trust: 3}
	a.AdjustMood(20)
	a.AdjustTrust(-10)
	if a.Mood != 100 || a.Trust != 0 {
		t.Fatalf("mood %v trust %v, want 100 and 0", a.Mood, a.Trust)
	}
}

func TestExpectsPlayer(t *testing.T) {
	a := &Actor{Schedule: []Appointment{
		{Weekend: true, Slot: 2},
		{Weekend: false, Slot: 0},
	}}
	cases := []struct {
		weekend bool
		slot    uint8
		want    bool
	}{
		{true, 2, true},
		{false, 0, true},
		{true, 0, false},
		{false, 2, false},
	}
	for _, c := range cases {
		if got := a.ExpectsPlayer(c.weekend, c.slot); got != c.want {
			t.Fatalf("ExpectsPlayer(%v, %d) = %v, want %v", c.weekend, c.slot, got, c.want)
		}
	}
}

func TestVendettaTiers(t *testing.T) {
	cases := []struct {
		vendetta float64
		want     VendettaTier
	}{
		{0, TierWary},
		{24, TierWary},
		{25, TierIrritated},
		{49, TierIrritated},
		{50, TierHostile},
		{74, TierHostile},
		{75, TierNemesis},
		{100, TierNemesis},
	}
	for _, c := range cases {
		if got := TierFor(c.vendetta); got != c.want {
			t.Fatalf("TierFor(%v) = %v, want %v", c.vendetta, got, c.want)
		}
	}
}

func TestRaiseVendettaReportsCrossing(t *testing.T) {
	r := &RivalFund{Vendetta: 48}

	tier, crossed := r.RaiseVendetta(1)
	if crossed || tier != TierIrritated {
		t.Fatalf("49 should stay irritated, got %v crossed=%v", tier, crossed)
	}

	tier, crossed = r.RaiseVendetta(1)
	if !crossed || tier != TierHostile {
		t.Fatalf("50 should cross to hostile, got %v crossed=%v", tier, crossed)
	}

	// Clamped at 100, negative deltas ignored.
	r.Vendetta = 99
	if tier, _ := r.RaiseVendetta(50); tier != TierNemesis || r.Vendetta != 100 {
		t.Fatalf("vendetta = %v tier %v, want 100 nemesis", r.Vendetta, tier)
	}
	r.RaiseVendetta(-30)
	if r.Vendetta != 100 {
		t.Fatalf("negative delta lowered vendetta: %v", r.Vendetta)
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := &Actor{ID: 1, Memories: []Memory{{Content: "original"}}}
	cp := a.Clone()
	cp.Memories[0].Content = "mutated"
	if a.Memories[0].Content != "original" {
		t.Fatalf("clone shares memory backing array")
	}
}
