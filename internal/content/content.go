// Package content provides the starting cast a fresh session is seeded
// with: narrative actors, rival funds, and the opening deal pool. The
// default set is embedded; a YAML file can replace it per deployment.
package content

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/dealfloor/internal/actors"
	"github.com/talgya/dealfloor/internal/portfolio"
	"github.com/talgya/dealfloor/internal/state"
)

//go:embed cast.yaml
var defaultCast []byte

type actorDef struct {
	ID    int64   `yaml:"id"`
	Name  string  `yaml:"name"`
	Kind  string  `yaml:"kind"`
	Mood  float64 `yaml:"mood"`
	Trust float64 `yaml:"trust"`

	Schedule []struct {
		Weekend bool  `yaml:"weekend"`
		Slot    uint8 `yaml:"slot"`
	} `yaml:"schedule"`
}

type rivalDef struct {
	ID            int64   `yaml:"id"`
	ActorID       int64   `yaml:"actor_id"`
	Name          string  `yaml:"name"`
	Strategy      string  `yaml:"strategy"`
	Aggression    float64 `yaml:"aggression"`
	RiskTolerance float64 `yaml:"risk_tolerance"`
	Reputation    float64 `yaml:"reputation"`
	DryPowder     float64 `yaml:"dry_powder"`
}

type dealDef struct {
	Target      string  `yaml:"target"`
	Revenue     float64 `yaml:"revenue"`
	EBITDA      float64 `yaml:"ebitda"`
	AskingPrice float64 `yaml:"asking_price"`
	WeeksOpen   int     `yaml:"weeks_open"`
	Hot         bool    `yaml:"hot"`
}

// Cast is a loaded starting-content set.
type Cast struct {
	Actors []actorDef `yaml:"actors"`
	Rivals []rivalDef `yaml:"rivals"`
	Deals  []dealDef  `yaml:"deals"`
}

// LoadDefault parses the embedded cast.
func LoadDefault() (*Cast, error) {
	return parse(defaultCast)
}

// LoadFile parses a cast from disk.
func LoadFile(path string) (*Cast, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cast: %w", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Cast, error) {
	var c Cast
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("cast yaml: %w", err)
	}
	return &c, nil
}

var actorKinds = map[string]actors.Kind{
	"mentor":          actors.KindMentor,
	"colleague":       actors.KindColleague,
	"lp":              actors.KindLP,
	"journalist":      actors.KindJournalist,
	"regulator":       actors.KindRegulator,
	"rival_principal": actors.KindRivalPrincipal,
	"romance":         actors.KindRomance,
}

var strategies = map[string]actors.Strategy{
	"raider":     actors.StrategyRaider,
	"operator":   actors.StrategyOperator,
	"momentum":   actors.StrategyMomentum,
	"distressed": actors.StrategyDistressed,
}

// Seed fills the snapshot's empty collections from the cast. Collections
// that already hold entries are left alone, so seeding a resumed session
// changes nothing.
func (c *Cast) Seed(snap *state.Snapshot) {
	if snap == nil || snap.Player == nil {
		return
	}

	if len(snap.Actors) == 0 {
		for _, d := range c.Actors {
			a := &actors.Actor{
				ID: actors.ActorID(d.ID), Name: d.Name,
				Kind: actorKinds[d.Kind],
				Mood: d.Mood, Trust: d.Trust,
			}
			for _, app := range d.Schedule {
				a.Schedule = append(a.Schedule, actors.Appointment{
					Weekend: app.Weekend, Slot: app.Slot,
				})
			}
			snap.Actors = append(snap.Actors, a)
		}
	}

	if len(snap.Rivals) == 0 {
		for _, d := range c.Rivals {
			snap.Rivals = append(snap.Rivals, &actors.RivalFund{
				ID: d.ID, ActorID: actors.ActorID(d.ActorID), Name: d.Name,
				Strategy:      strategies[d.Strategy],
				Aggression:    d.Aggression,
				RiskTolerance: d.RiskTolerance,
				Reputation:    d.Reputation,
				DryPowder:     d.DryPowder,
			})
		}
	}

	if len(snap.Deals) == 0 {
		for i, d := range c.Deals {
			weeks := d.WeeksOpen
			if weeks <= 0 {
				weeks = 4
			}
			snap.Deals = append(snap.Deals, &portfolio.Deal{
				ID: int64(i + 1), Target: d.Target,
				Revenue: d.Revenue, EBITDA: d.EBITDA,
				AskingPrice: d.AskingPrice,
				Deadline:    weeks,
				Hot:         d.Hot,
			})
		}
	}
}
