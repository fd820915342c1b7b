package services

import (
	"sort"
	"time"

	domain "github.com/orderdesk/api/internal/domain"
)

// Deadline contributions to the effective priority score.
const (
	overdueBase     = 100
	dueTodayBoost   = 50
	dueSoonBase     = 30
	dueSoonStep     = 5
	dueSoonHorizon  = 3
	criticalNoDate  = 8
	highNoDatePrio  = 5
	hoursPerDay     = 24
)

// RankByUrgency orders a snapshot of open orders by operational urgency. Each
// order scores its explicit priority plus a deadline component: overdue orders
// gain 100 plus one point per day overdue, orders due today gain 50, and
// orders due within the next three days gain 30 minus 5 per remaining day.
// The sort is stable and descending by score, so equally urgent orders keep
// their input order. The computation is pure; it never mutates the input.
func RankByUrgency(orders []Order, now time.Time) []RankedOrder {
	today := dayStart(now)

	ranked := make([]RankedOrder, len(orders))
	for i, order := range orders {
		score, tier := scoreOrder(order, today)
		ranked[i] = RankedOrder{
			Order:             order,
			EffectivePriority: score,
			Tier:              tier,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EffectivePriority > ranked[j].EffectivePriority
	})

	return ranked
}

func scoreOrder(order Order, today time.Time) (int, UrgencyTier) {
	score := order.Priority

	if order.ExpectedDeliveryDate == nil {
		switch {
		case order.Priority >= criticalNoDate:
			return score, domain.UrgencyCritical
		case order.Priority >= highNoDatePrio:
			return score, domain.UrgencyHigh
		default:
			return score, domain.UrgencyNormal
		}
	}

	due := dayStart(*order.ExpectedDeliveryDate)
	daysUntil := int(due.Sub(today).Hours() / hoursPerDay)

	switch {
	case daysUntil < 0:
		// More overdue is more urgent, unbounded.
		return score + overdueBase - daysUntil, domain.UrgencyCritical
	case daysUntil == 0:
		return score + dueTodayBoost, domain.UrgencyHigh
	case daysUntil <= dueSoonHorizon:
		return score + dueSoonBase - dueSoonStep*daysUntil, domain.UrgencyMedium
	default:
		return score, domain.UrgencyNormal
	}
}
