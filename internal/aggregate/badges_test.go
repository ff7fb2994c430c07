package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lastmile-ops/depot-cli/internal/model"
)

func TestEvaluateBadges_None(t *testing.T) {
	s := model.DeliverySummary{Delivered: 5, Total: 5, SuccessRate: 100}
	assert.Empty(t, EvaluateBadges(s)) // total < 10
}

func TestEvaluateBadges_Sniper(t *testing.T) {
	s := model.DeliverySummary{Delivered: 10, Total: 10, SuccessRate: 100, RTO: 0}
	assert.Contains(t, EvaluateBadges(s), model.BadgeSniper)
}

func TestEvaluateBadges_GuardianRequiresZeroRTO(t *testing.T) {
	s := model.DeliverySummary{Delivered: 19, RTO: 1, Total: 20, SuccessRate: 95}
	assert.NotContains(t, EvaluateBadges(s), model.BadgeGuardian)

	s = model.DeliverySummary{Delivered: 18, Failed: 2, RTO: 0, Total: 20, SuccessRate: 90}
	assert.Contains(t, EvaluateBadges(s), model.BadgeGuardian)
}

func TestEvaluateBadges_Fire(t *testing.T) {
	s := model.DeliverySummary{Delivered: 49, Failed: 1, Total: 50, SuccessRate: 98}
	assert.Contains(t, EvaluateBadges(s), model.BadgeFire)

	s.SuccessRate = 97.9
	assert.NotContains(t, EvaluateBadges(s), model.BadgeFire)
}

func TestEvaluateBadges_AllAtOnce(t *testing.T) {
	// Badges are independent and non-exclusive.
	s := model.DeliverySummary{Delivered: 130, RTO: 0, Total: 130, SuccessRate: 100}
	badges := EvaluateBadges(s)
	assert.ElementsMatch(t, []model.Badge{
		model.BadgeSniper, model.BadgeTurbo, model.BadgeGuardian,
		model.BadgeFire, model.BadgeBeast,
	}, badges)
}

func TestEvaluateBadges_TurboVsBeastThresholds(t *testing.T) {
	s := model.DeliverySummary{Delivered: 100, Failed: 19, Total: 119, SuccessRate: 84}
	badges := EvaluateBadges(s)
	assert.Contains(t, badges, model.BadgeTurbo)
	assert.NotContains(t, badges, model.BadgeBeast)
}
