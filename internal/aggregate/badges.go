package aggregate

import "github.com/lastmile-ops/depot-cli/internal/model"

// Badge thresholds. Each rule is independent; a summary may earn any
// subset.
const (
	sniperMinTotal   = 10
	turboMinTotal    = 80
	guardianMinTotal = 20
	fireMinRate      = 98.0
	fireMinTotal     = 50
	beastMinTotal    = 120
)

// EvaluateBadges derives achievement badges from a finished delivery
// summary. It must run after SuccessRate is computed.
func EvaluateBadges(s model.DeliverySummary) []model.Badge {
	var badges []model.Badge
	if s.SuccessRate == 100 && s.Total >= sniperMinTotal {
		badges = append(badges, model.BadgeSniper)
	}
	if s.Total >= turboMinTotal {
		badges = append(badges, model.BadgeTurbo)
	}
	if s.RTO == 0 && s.Total >= guardianMinTotal {
		badges = append(badges, model.BadgeGuardian)
	}
	if s.SuccessRate >= fireMinRate && s.Total >= fireMinTotal {
		badges = append(badges, model.BadgeFire)
	}
	if s.Total >= beastMinTotal {
		badges = append(badges, model.BadgeBeast)
	}
	return badges
}
