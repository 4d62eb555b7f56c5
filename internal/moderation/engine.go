// Package moderation owns the report lifecycle and the enforcement it
// triggers: warnings, listing removal and suspensions.
//
// A report moves from pending to resolved or dismissed exactly once. The
// move is a conditional store write, so a double submission by a reviewer
// enforces nothing twice.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"bazaar/backend/internal/apperr"
	"bazaar/backend/internal/config"
	"bazaar/backend/internal/localization"
	"bazaar/backend/internal/models"
	"bazaar/backend/internal/notify"
	"bazaar/backend/internal/storage"
	"bazaar/backend/pkg/logger"
	"bazaar/backend/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the part of storage the engine needs.
type Store interface {
	storage.ReportStore
	storage.EnforcementStore
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
}

// ResolveRequest is a reviewer's decision on a report.
type ResolveRequest struct {
	Action        string
	AdminNotes    string
	CustomMessage string
}

// Outcome is what ResolveReport reports back to the reviewer.
type Outcome struct {
	Action       models.Action         `json:"action"`
	WarningCount int                   `json:"warning_count"`
	Report       models.ResolvedReport `json:"report"`
}

type Engine struct {
	store    Store
	auth     Authorizer
	notifier notify.Notifier
	texts    *localization.Localizer
	bans     BanCache
	log      *logger.Logger
	pageSize int

	now   func() time.Time
	newID func() string
}

type Option func(*Engine)

// WithBanCache mirrors every suspension the engine applies into cache.
func WithBanCache(cache BanCache) Option {
	return func(e *Engine) { e.bans = cache }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

func NewEngine(store Store, auth Authorizer, notifier notify.Notifier, texts *localization.Localizer, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		auth:     auth,
		notifier: notifier,
		texts:    texts,
		log:      log,
		pageSize: 50,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FileReport records a pending report from reporterID against productID and
// its seller.
func (e *Engine) FileReport(ctx context.Context, reporterID, productID, reason, description string) (*models.PendingReport, error) {
	r, err := models.ParseReason(reason)
	if err != nil {
		return nil, err
	}
	description, err = validateFreeText(description, config.MaxReportDescriptionLength, "description")
	if err != nil {
		return nil, err
	}

	product, err := e.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	if product.SellerID == reporterID {
		return nil, apperr.Newf(apperr.ErrInvalidInput, "cannot report your own listing")
	}

	report := models.PendingReport{ReportDetails: models.ReportDetails{
		ID:                e.newID(),
		ReporterID:        reporterID,
		ReportedUserID:    product.SellerID,
		ReportedProductID: product.ID,
		Reason:            r,
		Description:       description,
		CreatedAt:         e.now(),
	}}
	if err := e.store.SaveReport(ctx, report); err != nil {
		return nil, err
	}

	metrics.ReportsFiled.WithLabelValues(string(r)).Inc()
	e.log.Info("report filed",
		zap.String("report_id", report.ID),
		zap.String("product_id", product.ID),
		zap.String("reason", string(r)))
	return &report, nil
}

// ListReports returns the reviewer queue for status, newest first.
func (e *Engine) ListReports(ctx context.Context, reviewerID, status string) ([]models.Report, error) {
	if err := e.requireReviewer(ctx, reviewerID); err != nil {
		return nil, err
	}
	st, err := models.ParseReportStatus(status)
	if err != nil {
		return nil, err
	}
	return e.store.ListReportsByStatus(ctx, st, e.pageSize)
}

// ResolveReport applies a reviewer's decision. The order is fixed: the report
// is closed first, then the enforcement is applied, then the affected user
// is notified. Notification failures are logged and never returned.
func (e *Engine) ResolveReport(ctx context.Context, reportID, reviewerID string, req ResolveRequest) (*Outcome, error) {
	if err := e.requireReviewer(ctx, reviewerID); err != nil {
		return nil, err
	}
	action, err := models.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}
	rule := enforcements[action]
	notes, err := validateFreeText(req.AdminNotes, config.MaxModeratorNoteLength, "admin notes")
	if err != nil {
		return nil, err
	}
	custom, err := validateFreeText(req.CustomMessage, config.MaxModeratorNoteLength, "custom message")
	if err != nil {
		return nil, err
	}

	report, err := e.store.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	pending, ok := report.(models.PendingReport)
	if !ok {
		return nil, apperr.Newf(apperr.ErrAlreadyProcessed, "report %s is %s", reportID, report.Status())
	}

	c, err := e.openCase(ctx, pending, rule)
	if err != nil {
		return nil, err
	}

	resolved, err := pending.Resolve(models.Resolution{
		Action:        action,
		Outcome:       rule.outcome,
		AdminNotes:    notes,
		CustomMessage: custom,
		ReviewedBy:    reviewerID,
		ReviewedAt:    c.at,
	})
	if err != nil {
		return nil, err
	}
	if err := e.store.ResolvePendingReport(ctx, reportID, resolved.Resolution); err != nil {
		return nil, err
	}

	if rule.apply != nil {
		if err := rule.apply(ctx, e, c); err != nil {
			e.log.Error("report resolved but enforcement failed",
				zap.String("report_id", reportID),
				zap.String("action", string(action)),
				zap.Error(err))
			return nil, fmt.Errorf("apply %s: %w", action, err)
		}
	}
	metrics.ReportsResolved.WithLabelValues(string(action)).Inc()
	e.log.Info("report resolved",
		zap.String("report_id", reportID),
		zap.String("action", string(action)),
		zap.String("reviewer_id", reviewerID))

	e.deliver(ctx, c, rule.notice(c), custom)

	count := 0
	if c.reported != nil {
		count = c.reported.Standing.WarningCount
	}
	return &Outcome{Action: action, WarningCount: count, Report: resolved}, nil
}

func (e *Engine) requireReviewer(ctx context.Context, userID string) error {
	ok, err := e.auth.IsReviewer(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrForbidden
	}
	return nil
}

// openCase loads what the enforcement and the notice need before anything is
// written, so a missing user or listing fails the call with no side effects.
func (e *Engine) openCase(ctx context.Context, report models.PendingReport, rule enforcement) (*caseFile, error) {
	c := &caseFile{report: report, at: e.now()}

	user, err := e.store.GetUserByID(ctx, report.ReportedUserID)
	switch {
	case err == nil:
		c.reported = user
	case errors.Is(err, apperr.ErrNotFound) && !rule.needsUser:
	default:
		return nil, fmt.Errorf("reported user %s: %w", report.ReportedUserID, err)
	}

	product, err := e.store.GetProductByID(ctx, report.ReportedProductID)
	switch {
	case err == nil:
		c.product = product
	case errors.Is(err, apperr.ErrNotFound) && !rule.needsProduct:
	default:
		return nil, fmt.Errorf("reported product %s: %w", report.ReportedProductID, err)
	}
	return c, nil
}

func validateFreeText(s string, max int, field string) (string, error) {
	if !utf8.ValidString(s) {
		return "", apperr.Newf(apperr.ErrInvalidInput, "%s is not valid UTF-8", field)
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		return "", apperr.Newf(apperr.ErrInvalidInput, "%s longer than %d characters", field, max)
	}
	return s, nil
}
