package scenario

import (
	"testing"

	"github.com/talgya/dealfloor/internal/entropy"
)

func baseWorld() World {
	return World{
		Week:       8,
		Cash:       5000,
		Reputation: 50,
		Ethics:     60,
		Factions:   map[string]float64{"lps": 50, "regulators": 50},
		Flags:      map[string]bool{},
		Played:     map[string]bool{},
	}
}

func TestLoadDefaultCatalog(t *testing.T) {
	c, err := LoadDefault()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if len(c.Scenarios) == 0 {
		t.Fatalf("empty catalog")
	}
	for _, s := range c.Scenarios {
		if s.ID == "" || s.Title == "" {
			t.Fatalf("scenario missing id/title: %+v", s)
		}
		if s.Weight <= 0 {
			t.Fatalf("scenario %s has non-positive weight", s.ID)
		}
	}
}

func TestSelectOnlyReturnsEligible(t *testing.T) {
	c, err := LoadDefault()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	w := baseWorld()
	src := entropy.NewSeeded(7)

	for i := 0; i < 200; i++ {
		s := c.Select(w, 0.75, src)
		if s == nil {
			t.Fatalf("no scenario eligible for base world")
		}
		if !s.Eligible(w) {
			t.Fatalf("selected ineligible scenario %s", s.ID)
		}
	}
}

func TestPlayedScenariosExcludedExceptOpening(t *testing.T) {
	c, _ := LoadDefault()
	w := baseWorld()
	w.Week = 1

	opener := c.ByID("opening_bell")
	if opener == nil {
		t.Fatalf("opening scenario missing from catalog")
	}
	if !opener.Eligible(w) {
		t.Fatalf("opener not eligible at week 1")
	}
	w.Played["opening_bell"] = true
	if !opener.Eligible(w) {
		t.Fatalf("opener must stay eligible after being played")
	}

	other := c.ByID("whisper_network")
	w.Week = 9
	if !other.Eligible(w) {
		t.Fatalf("whisper_network should be eligible at week 9")
	}
	w.Played["whisper_network"] = true
	if other.Eligible(w) {
		t.Fatalf("played scenario stayed eligible")
	}
}

func TestGates(t *testing.T) {
	weekend := true
	slot := uint8(2)
	s := Scenario{
		ID: "g", Title: "g", Weight: 1,
		Gates: Gates{
			MinWeek: 5, MinReputation: 20, MinPortfolio: 1,
			RequiredFlags: []string{"on_the_radar"},
			FactionKey:    "lps", FactionMin: 30,
			Weekend: &weekend, Slot: &slot,
			MinVolatility: 0.2, MaxVolatility: 0.8,
		},
	}

	w := baseWorld()
	w.Week = 6
	w.Portfolio = 1
	w.Flags["on_the_radar"] = true
	w.Weekend = true
	w.Slot = 2
	w.Volatility = 0.5
	if !s.Eligible(w) {
		t.Fatalf("expected eligible")
	}

	mutations := []func(*World){
		func(w *World) { w.Week = 4 },
		func(w *World) { w.Reputation = 10 },
		func(w *World) { w.Portfolio = 0 },
		func(w *World) { w.Flags["on_the_radar"] = false },
		func(w *World) { w.Factions["lps"] = 10 },
		func(w *World) { w.Weekend = false },
		func(w *World) { w.Slot = 0 },
		func(w *World) { w.Volatility = 0.1 },
		func(w *World) { w.Volatility = 0.9 },
	}
	for i, mut := range mutations {
		w2 := baseWorld()
		w2.Week = 6
		w2.Portfolio = 1
		w2.Flags["on_the_radar"] = true
		w2.Weekend = true
		w2.Slot = 2
		w2.Volatility = 0.5
		mut(&w2)
		if s.Eligible(w2) {
			t.Fatalf("mutation %d should gate out the scenario", i)
		}
	}
}

func TestFireChanceModifiers(t *testing.T) {
	w := baseWorld()
	w.Volatility = 0

	base := FireChance(0.35, w)
	if diff := base - 0.40; diff > 1e-9 || diff < -1e-9 { // 0.35 + volatility floor 0.05
		t.Fatalf("base chance = %v, want 0.40", base)
	}

	w.Cash = 500
	w.AuditRisk = 60
	w.Portfolio = 1
	w.Factions["lps"] = 20
	withPressure := FireChance(0.35, w)
	want := 0.35 + 0.10 + 0.10 + 0.05 + 0.08 + 0.05
	if diff := withPressure - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("pressured chance = %v, want %v", withPressure, want)
	}

	w.Stress = 80
	stressed := FireChance(0.35, w)
	if diff := stressed - want*1.5; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("stressed chance = %v, want %v", stressed, want*1.5)
	}

	w.Volatility = 1
	if FireChance(0.9, w) > 0.95 {
		t.Fatalf("fire chance exceeded cap")
	}
}

func TestClusterSamplingVariety(t *testing.T) {
	c := &Catalog{Scenarios: []Scenario{
		{ID: "a", Title: "a", Weight: 0.7},
		{ID: "b", Title: "b", Weight: 1.5},
		{ID: "c", Title: "c", Weight: 5}, // outside the cluster
	}}
	w := baseWorld()
	src := entropy.NewSeeded(3)

	seen := map[string]int{}
	for i := 0; i < 300; i++ {
		s := c.Select(w, 0.75, src)
		seen[s.ID]++
	}
	// c always wins the cluster alone; a and b never appear.
	if seen["c"] != 300 {
		t.Fatalf("dominant scenario picked %d/300", seen["c"])
	}

	// Bring the weights together and the cluster widens.
	c.Scenarios[2].Weight = 1.6
	seen = map[string]int{}
	for i := 0; i < 600; i++ {
		s := c.Select(w, 0.75, src)
		seen[s.ID]++
	}
	if seen["b"] == 0 || seen["c"] == 0 {
		t.Fatalf("cluster sampling never varied: %v", seen)
	}
	if seen["a"] != 0 {
		t.Fatalf("below-cluster scenario selected: %v", seen)
	}
}
