// Package engine orchestrates the monitoring loop: scraping tracked
// products, persisting price changes, evaluating notification rules, and
// dispatching alerts.
package engine

import (
	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// Evaluate decides whether a persisted price change triggers a
// notification and of which kind. At most one kind fires per change:
// notify-on-any-change wins over a below-threshold crossing, which wins
// over an above-threshold crossing.
//
// Threshold rules fire only on a crossing, not while the price sits on
// the far side of the threshold. A price already at or under the below
// threshold that drops further stays silent; same for above.
func Evaluate(oldPrice, newPrice int, rules domain.NotifyRules) (domain.NotificationKind, bool) {
	if oldPrice == newPrice {
		return "", false
	}

	if rules.OnAnyChange {
		return domain.KindChange, true
	}

	if rules.Below != nil && newPrice <= *rules.Below && oldPrice > *rules.Below {
		return domain.KindBelow, true
	}

	if rules.Above != nil && newPrice >= *rules.Above && oldPrice < *rules.Above {
		return domain.KindAbove, true
	}

	return "", false
}
