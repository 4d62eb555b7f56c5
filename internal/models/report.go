package models

import (
	"encoding/json"
	"time"

	"bazaar/backend/internal/apperr"
)

// Reason is the category a reporter picks when filing a report.
type Reason string

const (
	ReasonScam           Reason = "scam"
	ReasonCounterfeit    Reason = "counterfeit"
	ReasonProhibitedItem Reason = "prohibited_item"
	ReasonMisleading     Reason = "misleading"
	ReasonHarassment     Reason = "harassment"
	ReasonSpam           Reason = "spam"
	ReasonOther          Reason = "other"
)

var reasons = map[Reason]bool{
	ReasonScam:           true,
	ReasonCounterfeit:    true,
	ReasonProhibitedItem: true,
	ReasonMisleading:     true,
	ReasonHarassment:     true,
	ReasonSpam:           true,
	ReasonOther:          true,
}

// ParseReason validates a reason coming from a client.
func ParseReason(s string) (Reason, error) {
	r := Reason(s)
	if !reasons[r] {
		return "", apperr.Newf(apperr.ErrInvalidReason, "%q", s)
	}
	return r, nil
}

// ReportStatus is the lifecycle state of a report.
type ReportStatus string

const (
	StatusPending ReportStatus = "pending"
	// StatusReviewed marks legacy rows that were looked at but not decided.
	// They are still open; no action produces this status.
	StatusReviewed  ReportStatus = "reviewed"
	StatusResolved  ReportStatus = "resolved"
	StatusDismissed ReportStatus = "dismissed"
)

// ParseReportStatus validates a status filter. An empty string means pending.
func ParseReportStatus(s string) (ReportStatus, error) {
	switch st := ReportStatus(s); st {
	case "":
		return StatusPending, nil
	case StatusPending, StatusReviewed, StatusResolved, StatusDismissed:
		return st, nil
	default:
		return "", apperr.Newf(apperr.ErrInvalidInput, "unknown report status %q", s)
	}
}

// Terminal reports whether a report in this status can no longer be resolved.
func (s ReportStatus) Terminal() bool {
	return s == StatusResolved || s == StatusDismissed
}

// OpenStatuses are the stored statuses a resolution may still replace.
func OpenStatuses() []ReportStatus {
	return []ReportStatus{StatusPending, StatusReviewed}
}

// Action is the enforcement outcome a reviewer picks when resolving a report.
type Action string

const (
	ActionWarning       Action = "warning"
	ActionRemoveListing Action = "remove_listing"
	ActionSuspendUser   Action = "suspend_user"
	ActionNoAction      Action = "no_action"
	ActionDismiss       Action = "dismiss"
)

// Actions lists every enforcement action in display order.
func Actions() []Action {
	return []Action{ActionWarning, ActionRemoveListing, ActionSuspendUser, ActionNoAction, ActionDismiss}
}

// ParseAction validates an action coming from a reviewer.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", apperr.Newf(apperr.ErrInvalidAction, "%q", s)
}

// ReportDetails are the facts recorded when a report is filed.
type ReportDetails struct {
	ID                string    `json:"id"`
	ReporterID        string    `json:"reporter_id"`
	ReportedUserID    string    `json:"reported_user_id"`
	ReportedProductID string    `json:"reported_product_id"`
	Reason            Reason    `json:"reason"`
	Description       string    `json:"description,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Details returns the filing facts of any report variant.
func (d ReportDetails) Details() ReportDetails { return d }

// Resolution is written once, when a reviewer decides a report.
type Resolution struct {
	Action        Action       `json:"admin_action"`
	Outcome       ReportStatus `json:"-"`
	AdminNotes    string       `json:"admin_notes,omitempty"`
	CustomMessage string       `json:"custom_message,omitempty"`
	ReviewedBy    string       `json:"reviewed_by"`
	ReviewedAt    time.Time    `json:"reviewed_at"`
}

// Validate checks the fields every resolution must carry.
func (r Resolution) Validate() error {
	if _, err := ParseAction(string(r.Action)); err != nil {
		return err
	}
	if !r.Outcome.Terminal() {
		return apperr.Newf(apperr.ErrInvalidInput, "resolution outcome %q is not terminal", r.Outcome)
	}
	if r.ReviewedBy == "" || r.ReviewedAt.IsZero() {
		return apperr.Newf(apperr.ErrInvalidInput, "resolution without reviewer")
	}
	return nil
}

// Report is either a PendingReport or a ResolvedReport.
type Report interface {
	Details() ReportDetails
	Status() ReportStatus
}

// PendingReport is a report waiting for a reviewer. It has no resolution fields.
type PendingReport struct {
	ReportDetails
	// Reviewed is set for legacy rows stored as reviewed.
	Reviewed bool
}

// Status returns StatusPending, or StatusReviewed for legacy reviewed rows.
func (p PendingReport) Status() ReportStatus {
	if p.Reviewed {
		return StatusReviewed
	}
	return StatusPending
}

// Resolve returns the terminal form of the report.
func (p PendingReport) Resolve(res Resolution) (ResolvedReport, error) {
	if err := res.Validate(); err != nil {
		return ResolvedReport{}, err
	}
	return ResolvedReport{ReportDetails: p.ReportDetails, Resolution: res}, nil
}

// MarshalJSON renders the report with its derived status.
func (p PendingReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ReportDetails
		Status ReportStatus `json:"status"`
	}{p.ReportDetails, p.Status()})
}

// ResolvedReport is a report a reviewer has decided. Its resolution is mandatory.
type ResolvedReport struct {
	ReportDetails
	Resolution Resolution
}

// Status returns the outcome recorded in the resolution.
func (r ResolvedReport) Status() ReportStatus { return r.Resolution.Outcome }

// MarshalJSON flattens the resolution next to the filing details.
func (r ResolvedReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ReportDetails
		Resolution
		Status ReportStatus `json:"status"`
	}{r.ReportDetails, r.Resolution, r.Resolution.Outcome})
}
