package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/talgya/dealfloor/internal/portfolio"
	"github.com/talgya/dealfloor/internal/state"
)

// Interest accrued in one tick never exceeds this share of the balance.
const maxWeeklyInterestShare = 0.10

func salaryKey(s state.Seniority) string {
	switch s {
	case state.SeniorityAssociate:
		return "associate"
	case state.SeniorityVP:
		return "vp"
	case state.SeniorityPrincipal:
		return "principal"
	case state.SeniorityPartner:
		return "partner"
	default:
		return "analyst"
	}
}

func burnKey(t state.LifestyleTier) string {
	switch t {
	case state.LifestyleComfort:
		return "comfort"
	case state.LifestylePremium:
		return "premium"
	case state.LifestyleExcess:
		return "excess"
	default:
		return "frugal"
	}
}

// runFinance applies the weekly money pass to p in place: salary in,
// lifestyle burn out, loan interest accrued onto the balance. When the
// month rolled into a new year the annual performance bonus lands too.
func (s *Simulation) runFinance(p *state.PlayerState, tick uint64, yearRolled bool) {
	salary := s.Tuning.Salary(salaryKey(p.Seniority))
	burn := s.Tuning.Burn(burnKey(p.Finances.Lifestyle))

	p.Finances.BankBalance += salary - burn
	p.Finances.SalaryYTD += salary

	if p.Finances.LoanBalance > 0 && p.Finances.LoanRate > 0 {
		interest := p.Finances.LoanBalance * p.Finances.LoanRate / 52
		if limit := p.Finances.LoanBalance * maxWeeklyInterestShare; interest > limit {
			interest = limit
		}
		p.Finances.LoanBalance += interest
	}

	if yearRolled {
		bonus := s.annualBonus(p)
		if bonus > 0 {
			p.Finances.BankBalance += bonus
			p.Finances.BonusYTD += bonus
			s.EmitEvent(Event{
				Tick:        tick,
				Description: fmt.Sprintf("annual bonus paid: %s", humanize.Commaf(bonus)),
				Category:    "finance",
			})
		}
		p.Finances.SalaryYTD = 0
	}

	p.Cash = p.Finances.BankBalance
}

// annualBonus scales base salary by analyst rating and fund performance.
func (s *Simulation) annualBonus(p *state.PlayerState) float64 {
	base := s.Tuning.Salary(salaryKey(p.Seniority)) * 4 // one month's pay

	// Rating 50 is par; every point away moves the bonus 1.5%.
	mult := 1 + (p.AnalystRating-50)*0.015

	// Owned companies in good shape add to the pool.
	for _, c := range p.Portfolio {
		if c.DealPhase == portfolio.PhaseOwned && c.EBITDA > 0 {
			mult += 0.05
		}
	}
	if mult < 0 {
		mult = 0
	}
	return base * mult
}
