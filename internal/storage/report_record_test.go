package storage

import (
	"context"
	"net"
	"testing"
	"time"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReportRecord_DecodeRejectsResolvedWithoutAction(t *testing.T) {
	rec := reportRecord{ID: "r1", Status: models.StatusResolved, CreatedAt: time.Now()}

	_, err := rec.decode()

	assert.Error(t, err)
}

func TestReportRecord_RoundTrip(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	pending := models.PendingReport{ReportDetails: models.ReportDetails{ID: "r1", Reason: models.ReasonSpam, CreatedAt: at}}

	rec := newReportRecord(pending)
	decoded, err := rec.decode()
	require.NoError(t, err)
	assert.Equal(t, pending, decoded)

	rec.resolve(models.Resolution{Action: models.ActionDismiss, Outcome: models.StatusDismissed, ReviewedBy: "admin", ReviewedAt: at})
	decoded, err = rec.decode()
	require.NoError(t, err)
	assert.Equal(t, models.StatusDismissed, decoded.Status())
}

func TestReportRecord_UnknownStatus(t *testing.T) {
	_, err := reportRecord{ID: "r1", Status: "weird"}.decode()
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, "op"))
	assert.ErrorIs(t, classify(gorm.ErrRecordNotFound, "op"), apperr.ErrNotFound)
	assert.ErrorIs(t, classify(gorm.ErrDuplicatedKey, "op"), apperr.ErrStoreConflict)
	assert.ErrorIs(t, classify(context.DeadlineExceeded, "op"), apperr.ErrUnavailable)
	assert.ErrorIs(t, classify(&net.OpError{Op: "dial", Err: assert.AnError}, "op"), apperr.ErrUnavailable)

	err := classify(assert.AnError, "op")
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, apperr.ErrUnavailable)
}
