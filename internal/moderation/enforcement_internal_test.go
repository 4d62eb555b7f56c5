package moderation

import (
	"testing"

	"bazaar/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEnforcementTableCoversEveryAction(t *testing.T) {
	assert.Len(t, enforcements, len(models.Actions()))
	for _, a := range models.Actions() {
		rule, ok := enforcements[a]
		if assert.True(t, ok, "no enforcement for %s", a) {
			assert.True(t, rule.outcome.Terminal(), a)
			assert.NotNil(t, rule.notice, a)
		}
	}
	assert.Equal(t, models.StatusDismissed, enforcements[models.ActionDismiss].outcome)
}
