// Package scenario provides the narrative-branch catalog and the weighted,
// gate-filtered selector that decides which scenario fires next.
package scenario

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/dealfloor/internal/entropy"
)

//go:embed scenarios.yaml
var defaultCatalog []byte

// World is the selector's read-only view of session state. The engine
// fills it each week so the catalog stays decoupled from the state model.
type World struct {
	Week       int
	Weekend    bool
	Slot       uint8
	Cash       float64
	Stress     float64
	AuditRisk  float64
	Reputation float64
	Ethics     float64
	Factions   map[string]float64
	Flags      map[string]bool
	Portfolio  int
	Volatility float64 // 0-1 market volatility this week
	RivalThreat float64 // highest rival vendetta, 0-100
	Played     map[string]bool
}

// Gates are the eligibility predicates a scenario must pass.
type Gates struct {
	MinWeek       int      `yaml:"min_week"`
	MaxWeek       int      `yaml:"max_week"`
	MinReputation float64  `yaml:"min_reputation"`
	MinPortfolio  int      `yaml:"min_portfolio"`
	RequiredFlags []string `yaml:"required_flags"`
	ForbiddenFlags []string `yaml:"forbidden_flags"`

	FactionKey string  `yaml:"faction_key"`
	FactionMin float64 `yaml:"faction_min"`

	Weekend *bool  `yaml:"weekend"`
	Slot    *uint8 `yaml:"slot"`

	MinVolatility float64 `yaml:"min_volatility"`
	MaxVolatility float64 `yaml:"max_volatility"`
}

// Scenario is one narrative branch definition.
type Scenario struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Tags    []string `yaml:"tags"`
	Weight  float64  `yaml:"weight"`
	Opening bool     `yaml:"opening"` // replayable fixed opener
	Gates   Gates    `yaml:"gates"`
}

// Catalog is the loaded scenario set.
type Catalog struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadDefault parses the embedded catalog.
func LoadDefault() (*Catalog, error) {
	return parse(defaultCatalog)
}

// LoadFile parses a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("catalog yaml: %w", err)
	}
	for i := range c.Scenarios {
		if c.Scenarios[i].Weight <= 0 {
			c.Scenarios[i].Weight = 1
		}
	}
	return &c, nil
}

// Eligible reports whether the scenario passes all its gates for w.
func (s Scenario) Eligible(w World) bool {
	if !s.Opening && w.Played[s.ID] {
		return false
	}
	g := s.Gates
	if w.Week < g.MinWeek {
		return false
	}
	if g.MaxWeek > 0 && w.Week > g.MaxWeek {
		return false
	}
	if w.Reputation < g.MinReputation {
		return false
	}
	if w.Portfolio < g.MinPortfolio {
		return false
	}
	for _, f := range g.RequiredFlags {
		if !w.Flags[f] {
			return false
		}
	}
	for _, f := range g.ForbiddenFlags {
		if w.Flags[f] {
			return false
		}
	}
	if g.FactionKey != "" && w.Factions[g.FactionKey] < g.FactionMin {
		return false
	}
	if g.Weekend != nil && *g.Weekend != w.Weekend {
		return false
	}
	if g.Slot != nil && *g.Slot != w.Slot {
		return false
	}
	if w.Volatility < g.MinVolatility {
		return false
	}
	if g.MaxVolatility > 0 && w.Volatility > g.MaxVolatility {
		return false
	}
	return true
}

// Tag-affinity bonuses applied under matching world conditions.
const (
	bonusRegulatory = 2.0 // audit risk > 50
	bonusRival      = 2.0 // rival threat > 50
	bonusLP         = 1.5 // LP standing < 40
	bonusCareer     = 1.0 // reputation < 30
	bonusInsider    = 1.5 // ethics < 40
)

// Score returns the scenario's selection score for w: its base weight plus
// tag-affinity bonuses.
func (s Scenario) Score(w World) float64 {
	score := s.Weight
	for _, tag := range s.Tags {
		switch tag {
		case "regulatory":
			if w.AuditRisk > 50 {
				score += bonusRegulatory
			}
		case "rival":
			if w.RivalThreat > 50 {
				score += bonusRival
			}
		case "lp":
			if w.Factions["lps"] < 40 {
				score += bonusLP
			}
		case "career":
			if w.Reputation < 30 {
				score += bonusCareer
			}
		case "insider":
			if w.Ethics < 40 {
				score += bonusInsider
			}
		}
	}
	return score
}

// Fire probability modifiers.
const (
	cashPressureThreshold = 1000.0
	cashPressureBonus     = 0.10
	auditPressureBonus    = 0.10
	factionLowThreshold   = 30.0
	factionLowBonus       = 0.08
	portfolioBonus        = 0.05
	stressMultiplier      = 1.5
	maxFireChance         = 0.95
)

// FireChance computes the probability a scenario fires this week-end.
func FireChance(base float64, w World) float64 {
	p := base
	if w.Cash < cashPressureThreshold {
		p += cashPressureBonus
	}
	if w.AuditRisk > 50 {
		p += auditPressureBonus
	}
	// Market volatility adds 0.05 to 0.20, scaled.
	p += 0.05 + 0.15*clamp01(w.Volatility)
	for _, v := range w.Factions {
		if v < factionLowThreshold {
			p += factionLowBonus
			break
		}
	}
	if w.Portfolio > 0 {
		p += portfolioBonus
	}
	if w.Stress > 70 {
		p *= stressMultiplier
	}
	if p > maxFireChance {
		p = maxFireChance
	}
	return p
}

// Select picks the next scenario for w, or nil when none is eligible.
// Eligible scenarios are scored; the top cluster (within clusterWidth of
// the best score) is sampled uniformly so selection biases toward relevant
// branches without always repeating the single best one.
func (c *Catalog) Select(w World, clusterWidth float64, src entropy.Source) *Scenario {
	var eligible []Scenario
	for _, s := range c.Scenarios {
		if s.Eligible(w) {
			eligible = append(eligible, s)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	best := eligible[0].Score(w)
	for _, s := range eligible[1:] {
		if sc := s.Score(w); sc > best {
			best = sc
		}
	}

	var cluster []Scenario
	for _, s := range eligible {
		if s.Score(w) >= best-clusterWidth {
			cluster = append(cluster, s)
		}
	}

	picked := cluster[entropy.Pick(src, len(cluster))]
	return &picked
}

// Len reports the catalog size.
func (c *Catalog) Len() int {
	return len(c.Scenarios)
}

// ByID finds a scenario definition by id.
func (c *Catalog) ByID(id string) *Scenario {
	for i := range c.Scenarios {
		if c.Scenarios[i].ID == id {
			return &c.Scenarios[i]
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
