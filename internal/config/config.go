// Package config loads process configuration from the environment and
// numeric tuning from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the process-level configuration, read from the environment.
type Config struct {
	Addr       string `env:"DEALFLOOR_ADDR" envDefault:":8080"`
	DBPath     string `env:"DEALFLOOR_DB" envDefault:"data/dealfloor.db"`
	Seed       int64  `env:"DEALFLOOR_SEED" envDefault:"0"`
	AdminKey   string `env:"DEALFLOOR_ADMIN_KEY"`
	TuningPath   string `env:"DEALFLOOR_TUNING"`
	ScenarioPath string `env:"DEALFLOOR_SCENARIOS"`
	CastPath     string `env:"DEALFLOOR_CAST"`

	AdvisorURL string `env:"DEALFLOOR_ADVISOR_URL"`
	AdvisorKey string `env:"DEALFLOOR_ADVISOR_KEY"`

	// RandomOrgKey enables true-random draws for unseeded sessions.
	RandomOrgKey string `env:"DEALFLOOR_RANDOM_KEY"`

	LogLevel string `env:"DEALFLOOR_LOG_LEVEL" envDefault:"info"`
}

// Load reads Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Tuning holds the simulation's numeric knobs. Defaults are embedded; a
// YAML file can override them per deployment.
type Tuning struct {
	MaxActions        int `yaml:"max_actions"`
	PortfolioCapacity int `yaml:"portfolio_capacity"`

	Salaries      map[string]float64 `yaml:"salaries"`
	LifestyleBurn map[string]float64 `yaml:"lifestyle_burn"`

	ScenarioBaseChance float64 `yaml:"scenario_base_chance"`
	ScenarioClusterWidth float64 `yaml:"scenario_cluster_width"`

	EventBaseChance float64 `yaml:"event_base_chance"`
	DramaBaseChance float64 `yaml:"drama_base_chance"`

	DealFlowTarget  int `yaml:"deal_flow_target"`
	DealWindowWeeks int `yaml:"deal_window_weeks"`

	RivalCooldownTicks   uint64  `yaml:"rival_cooldown_ticks"`
	RivalSkipCooldown    float64 `yaml:"rival_skip_cooldown"`
	CoalitionBoost       float64 `yaml:"coalition_boost"`
	CoalitionDuration    uint64  `yaml:"coalition_duration_ticks"`
	CoalitionVendettaMin float64 `yaml:"coalition_vendetta_min"`
	CoalitionAggressionMin float64 `yaml:"coalition_aggression_min"`
	CoalitionPlayerRepMin  float64 `yaml:"coalition_player_rep_min"`

	OvertimeEnergyCost float64 `yaml:"overtime_energy_cost"`
	OvertimeHealthCost float64 `yaml:"overtime_health_cost"`

	MoodDecay      float64 `yaml:"mood_decay"`
	TrustDecay     float64 `yaml:"trust_decay"`
	NonRivalDecayScale float64 `yaml:"non_rival_decay_scale"`

	NoShowMoodPenalty  float64 `yaml:"no_show_mood_penalty"`
	NoShowTrustPenalty float64 `yaml:"no_show_trust_penalty"`

	ReputationFloor     float64 `yaml:"reputation_floor"`
	ReputationGraceWeek int     `yaml:"reputation_grace_week"`
}

// DefaultTuning returns the design-documented defaults.
func DefaultTuning() Tuning {
	return Tuning{
		MaxActions:        2,
		PortfolioCapacity: 6,
		Salaries: map[string]float64{
			"analyst": 1150, "associate": 1750, "vp": 2900,
			"principal": 4200, "partner": 6500,
		},
		LifestyleBurn: map[string]float64{
			"frugal": 400, "comfort": 900, "premium": 1900, "excess": 3800,
		},
		ScenarioBaseChance:   0.35,
		ScenarioClusterWidth: 0.75,
		EventBaseChance:      0.05,
		DramaBaseChance:      0.04,
		DealFlowTarget:       3,
		DealWindowWeeks:      4,
		RivalCooldownTicks:   3,
		RivalSkipCooldown:    0.6,
		CoalitionBoost:       1.3,
		CoalitionDuration:    8,
		CoalitionVendettaMin: 60,
		CoalitionAggressionMin: 55,
		CoalitionPlayerRepMin:  70,
		OvertimeEnergyCost:   15,
		OvertimeHealthCost:   5,
		MoodDecay:            1,
		TrustDecay:           0.5,
		NonRivalDecayScale:   2,
		NoShowMoodPenalty:    6,
		NoShowTrustPenalty:   4,
		ReputationFloor:      5,
		ReputationGraceWeek:  10,
	}
}

// LoadTuning reads a YAML override file over the defaults. An empty path
// returns the defaults unchanged.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning yaml: %w", err)
	}
	return t, nil
}

// Salary returns the weekly salary for a seniority name, falling back to
// the analyst tier for unknown names.
func (t Tuning) Salary(level string) float64 {
	if v, ok := t.Salaries[level]; ok {
		return v
	}
	return t.Salaries["analyst"]
}

// Burn returns the weekly lifestyle burn for a tier name.
func (t Tuning) Burn(tier string) float64 {
	if v, ok := t.LifestyleBurn[tier]; ok {
		return v
	}
	return t.LifestyleBurn["frugal"]
}
