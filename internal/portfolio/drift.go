package portfolio

import "github.com/talgya/dealfloor/internal/entropy"

// Drift tuning. Shocks are small relative to the growth trend so OWNED
// companies evolve rather than whiplash.
const (
	shockSpread     = 0.04  // +/- 4% weekly event-driven shock
	crisisBase      = 0.015 // weekly spontaneous crisis chance
	crisisVolScale  = 0.05  // extra chance per unit market volatility
	scoreDriftUp    = 1.5   // board/CEO drift when managed this week
	scoreDriftDown  = 0.8   // drift when neglected
	ebitdaMargin    = 0.35  // share of revenue change flowing to EBITDA
)

// DriftWeekly evolves one OWNED company for a week: revenue and EBITDA move
// by the growth rate plus a small random shock, management scores drift on
// whether management actions were taken, and the company may spontaneously
// enter crisis. Returns true when a new crisis fired this week.
func DriftWeekly(c *Company, src entropy.Source, volatility float64) bool {
	if c.DealPhase != PhaseOwned {
		return false
	}

	shock := (src.Float()*2 - 1) * shockSpread * (1 + volatility)
	rate := c.Growth + shock

	delta := c.Revenue * rate
	c.Revenue += delta
	if c.Revenue < 0 {
		c.Revenue = 0
	}
	c.EBITDA += delta * ebitdaMargin

	// Management attention moves board and CEO performance.
	managed := false
	for _, act := range c.WeekActions {
		if act == "manage" || act == "board_meeting" || act == "coach_ceo" {
			managed = true
			break
		}
	}
	if managed {
		c.BoardScore = clampScore(c.BoardScore + scoreDriftUp)
		c.CEOScore = clampScore(c.CEOScore + scoreDriftUp)
	} else {
		c.BoardScore = clampScore(c.BoardScore - scoreDriftDown)
		c.CEOScore = clampScore(c.CEOScore - scoreDriftDown)
	}

	// Valuation tracks a simple EBITDA multiple dampened by debt load.
	multiple := 8.0 + c.Growth*40
	if multiple < 4 {
		multiple = 4
	}
	c.Valuation = c.EBITDA*multiple - c.Debt*0.5
	if c.Valuation < 0 {
		c.Valuation = 0
	}

	// Spontaneous crisis, consumed later by the event generator.
	if !c.InCrisis {
		chance := crisisBase + volatility*crisisVolScale
		if c.CEOScore < 30 {
			chance *= 2
		}
		if src.Float() < chance {
			c.InCrisis = true
			return true
		}
	}
	return false
}
