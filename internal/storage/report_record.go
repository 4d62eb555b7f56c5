package storage

import (
	"fmt"
	"time"

	"bazaar/backend/internal/models"
)

// reportRecord is the persisted form of a report. The domain never sees it:
// rows are decoded into PendingReport or ResolvedReport.
type reportRecord struct {
	ID                string              `gorm:"primaryKey" bson:"_id"`
	ReporterID        string              `gorm:"not null" bson:"reporter_id"`
	ReportedUserID    string              `gorm:"not null;index" bson:"reported_user_id"`
	ReportedProductID string              `gorm:"not null" bson:"reported_product_id"`
	Reason            models.Reason       `gorm:"type:text;not null" bson:"reason"`
	Description       string              `gorm:"type:text" bson:"description,omitempty"`
	Status            models.ReportStatus `gorm:"type:text;not null;index" bson:"status"`
	AdminAction       *models.Action      `gorm:"type:text" bson:"admin_action,omitempty"`
	AdminNotes        string              `gorm:"type:text" bson:"admin_notes,omitempty"`
	CustomMessage     string              `gorm:"type:text" bson:"custom_message,omitempty"`
	ReviewedBy        *string             `bson:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time          `bson:"reviewed_at,omitempty"`
	CreatedAt         time.Time           `gorm:"not null;index" bson:"created_at"`
}

func (reportRecord) TableName() string { return "reports" }

func newReportRecord(p models.PendingReport) reportRecord {
	d := p.Details()
	return reportRecord{
		ID:                d.ID,
		ReporterID:        d.ReporterID,
		ReportedUserID:    d.ReportedUserID,
		ReportedProductID: d.ReportedProductID,
		Reason:            d.Reason,
		Description:       d.Description,
		Status:            models.StatusPending,
		CreatedAt:         d.CreatedAt,
	}
}

// resolve writes the resolution columns onto the record.
func (r *reportRecord) resolve(res models.Resolution) {
	action := res.Action
	reviewer := res.ReviewedBy
	at := res.ReviewedAt
	r.Status = res.Outcome
	r.AdminAction = &action
	r.AdminNotes = res.AdminNotes
	r.CustomMessage = res.CustomMessage
	r.ReviewedBy = &reviewer
	r.ReviewedAt = &at
}

// resolutionColumns is the column set written by ResolvePendingReport.
func resolutionColumns(res models.Resolution) map[string]interface{} {
	return map[string]interface{}{
		"status":         res.Outcome,
		"admin_action":   res.Action,
		"admin_notes":    res.AdminNotes,
		"custom_message": res.CustomMessage,
		"reviewed_by":    res.ReviewedBy,
		"reviewed_at":    res.ReviewedAt,
	}
}

// decode turns a row into the report variant it represents. A terminal row
// without an action or reviewer is rejected rather than half-decoded.
func (r reportRecord) decode() (models.Report, error) {
	details := models.ReportDetails{
		ID:                r.ID,
		ReporterID:        r.ReporterID,
		ReportedUserID:    r.ReportedUserID,
		ReportedProductID: r.ReportedProductID,
		Reason:            r.Reason,
		Description:       r.Description,
		CreatedAt:         r.CreatedAt,
	}
	switch r.Status {
	case models.StatusPending, models.StatusReviewed:
		return models.PendingReport{ReportDetails: details, Reviewed: r.Status == models.StatusReviewed}, nil
	case models.StatusResolved, models.StatusDismissed:
		if r.AdminAction == nil || r.ReviewedBy == nil || r.ReviewedAt == nil {
			return nil, fmt.Errorf("report %s: %s without resolution", r.ID, r.Status)
		}
		resolved, err := models.PendingReport{ReportDetails: details}.Resolve(models.Resolution{
			Action:        *r.AdminAction,
			Outcome:       r.Status,
			AdminNotes:    r.AdminNotes,
			CustomMessage: r.CustomMessage,
			ReviewedBy:    *r.ReviewedBy,
			ReviewedAt:    *r.ReviewedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", r.ID, err)
		}
		return resolved, nil
	default:
		return nil, fmt.Errorf("report %s: unknown status %q", r.ID, r.Status)
	}
}

func decodeReports(records []reportRecord) ([]models.Report, error) {
	out := make([]models.Report, 0, len(records))
	for _, rec := range records {
		rep, err := rec.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}
