package engine

import (
	"fmt"

	"github.com/talgya/dealfloor/internal/entropy"
	"github.com/talgya/dealfloor/internal/portfolio"
	"github.com/talgya/dealfloor/internal/state"
)

// Targets brokers shop around when the pool runs low.
var dealTargets = []string{
	"Harborline Freight",
	"Castellan Metals",
	"Bluepine Software",
	"Orchard & Vale",
	"Tern Aerospace",
	"Quarry Lake Media",
	"Silverbirch Energy",
	"Pembroke Devices",
}

// replenishDeals keeps the open pool stocked: when it falls below the
// tuned target, one new mandate arrives at week end. Rivals with the dry
// powder to compete register interest immediately.
func (s *Simulation) replenishDeals(snap *state.Snapshot, cursor uint64) {
	if s.Tuning.DealFlowTarget <= 0 || len(snap.Deals) >= s.Tuning.DealFlowTarget {
		return
	}

	target := dealTargets[entropy.Pick(s.Rand, len(dealTargets))]
	revenue := 6000 + s.Rand.Float()*10000
	ebitda := revenue * 0.28
	asking := ebitda * (4 + s.Rand.Float()*3)

	d := &portfolio.Deal{
		ID:          nextDealID(snap),
		Target:      target,
		Revenue:     revenue,
		EBITDA:      ebitda,
		AskingPrice: asking,
		Deadline:    s.Tuning.DealWindowWeeks,
		Hot:         s.Rand.Float() < 0.25,
	}
	for _, r := range snap.Rivals {
		if r.DryPowder >= asking {
			d.InterestedRivals = append(d.InterestedRivals, r.ID)
			if len(d.InterestedRivals) == 2 {
				break
			}
		}
	}

	snap.Deals = append(snap.Deals, d)
	s.EmitEvent(Event{Tick: cursor,
		Description: fmt.Sprintf("a banker brought you %s", target),
		Category:    "event"})
}

func nextDealID(snap *state.Snapshot) int64 {
	var max int64
	for _, d := range snap.Deals {
		if d.ID > max {
			max = d.ID
		}
	}
	return max + 1
}
