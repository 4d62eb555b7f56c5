package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReason(t *testing.T) {
	r, err := models.ParseReason("scam")
	require.NoError(t, err)
	assert.Equal(t, models.ReasonScam, r)

	_, err = models.ParseReason("ugly_photo")
	assert.ErrorIs(t, err, apperr.ErrInvalidReason)
}

func TestParseAction(t *testing.T) {
	for _, a := range models.Actions() {
		parsed, err := models.ParseAction(string(a))
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}

	_, err := models.ParseAction("ban_forever")
	assert.ErrorIs(t, err, apperr.ErrInvalidAction)
}

func TestParseReportStatus(t *testing.T) {
	st, err := models.ParseReportStatus("")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, st)

	st, err = models.ParseReportStatus("reviewed")
	require.NoError(t, err)
	assert.False(t, st.Terminal())

	_, err = models.ParseReportStatus("archived")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestPendingReport_Resolve(t *testing.T) {
	at := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	pending := models.PendingReport{ReportDetails: models.ReportDetails{ID: "r1", Reason: models.ReasonScam}}
	assert.Equal(t, models.StatusPending, pending.Status())

	resolved, err := pending.Resolve(models.Resolution{
		Action:     models.ActionRemoveListing,
		Outcome:    models.StatusResolved,
		ReviewedBy: "admin",
		ReviewedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, resolved.Status())
	assert.Equal(t, "r1", resolved.Details().ID)
}

func TestPendingReport_ResolveRejectsIncompleteResolution(t *testing.T) {
	pending := models.PendingReport{ReportDetails: models.ReportDetails{ID: "r1"}}

	_, err := pending.Resolve(models.Resolution{Outcome: models.StatusResolved, ReviewedBy: "admin", ReviewedAt: time.Now()})
	assert.ErrorIs(t, err, apperr.ErrInvalidAction, "resolved without action is not representable")

	_, err = pending.Resolve(models.Resolution{Action: models.ActionWarning, Outcome: models.StatusPending, ReviewedBy: "admin", ReviewedAt: time.Now()})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = pending.Resolve(models.Resolution{Action: models.ActionWarning, Outcome: models.StatusResolved})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestReportJSON(t *testing.T) {
	at := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	pending := models.PendingReport{ReportDetails: models.ReportDetails{ID: "r1", Reason: models.ReasonSpam, CreatedAt: at}}

	raw, err := json.Marshal(pending)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "pending", out["status"])
	assert.NotContains(t, out, "admin_action")

	resolved, err := pending.Resolve(models.Resolution{
		Action:        models.ActionDismiss,
		Outcome:       models.StatusDismissed,
		CustomMessage: "thanks",
		ReviewedBy:    "admin",
		ReviewedAt:    at,
	})
	require.NoError(t, err)
	raw, err = json.Marshal(resolved)
	require.NoError(t, err)
	out = map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "dismissed", out["status"])
	assert.Equal(t, "dismiss", out["admin_action"])
	assert.Equal(t, "admin", out["reviewed_by"])
	assert.Equal(t, "r1", out["id"])
}

func TestPendingReport_LegacyReviewed(t *testing.T) {
	legacy := models.PendingReport{ReportDetails: models.ReportDetails{ID: "r2"}, Reviewed: true}
	assert.Equal(t, models.StatusReviewed, legacy.Status())
	assert.False(t, legacy.Status().Terminal())
	assert.ElementsMatch(t, []models.ReportStatus{models.StatusPending, models.StatusReviewed}, models.OpenStatuses())

	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "reviewed", out["status"])
	assert.NotContains(t, out, "Reviewed")
}
