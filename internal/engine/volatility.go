package engine

import opensimplex "github.com/ojrac/opensimplex-go"

// Market volatility is a smooth noise curve over the week index rather
// than independent weekly draws, so pressure builds and releases in arcs.
type volatilityCurve struct {
	noise opensimplex.Noise
}

func newVolatilityCurve(seed int64) volatilityCurve {
	return volatilityCurve{noise: opensimplex.New(seed)}
}

// at returns volatility in [0, 1] for a week index.
func (v volatilityCurve) at(week int) float64 {
	n := v.noise.Eval2(float64(week)*0.15, 0.5) // [-1, 1]
	return (n + 1) / 2
}

// Volatility returns the market volatility for the snapshot's current week.
func (s *Simulation) Volatility() float64 {
	if s.vol.noise == nil {
		s.vol = newVolatilityCurve(s.volSeed())
	}
	week := 1
	if s.Snap.Player != nil {
		week = s.Snap.Player.GameTime.Week
	}
	return s.vol.at(week)
}

func (s *Simulation) volSeed() int64 {
	// Stable per session so replays see the same market.
	var h int64
	for _, c := range s.Snap.SessionID {
		h = h*31 + int64(c)
	}
	if h == 0 {
		h = 42
	}
	return h
}
