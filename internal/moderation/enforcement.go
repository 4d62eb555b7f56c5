package moderation

import (
	"context"
	"strconv"
	"time"

	"bazaar/backend/internal/config"
	"bazaar/backend/internal/localization"
	"bazaar/backend/internal/models"
	"bazaar/backend/internal/notify"

	"go.uber.org/zap"
)

// caseFile carries one resolution through enforcement and notification.
type caseFile struct {
	report   models.PendingReport
	reported *models.User    // nil only when the action does not need the user
	product  *models.Product // nil only when the action does not need the listing
	at       time.Time
}

// notice is an unrendered notification.
type notice struct {
	recipient string
	kind      notify.Kind
	key       string
	vars      map[string]string
}

// enforcement is one row of the dispatch table.
type enforcement struct {
	outcome      models.ReportStatus
	needsUser    bool
	needsProduct bool
	apply        func(ctx context.Context, e *Engine, c *caseFile) error
	notice       func(c *caseFile) notice
}

// enforcements has exactly one entry per models.Action.
var enforcements = map[models.Action]enforcement{
	models.ActionWarning: {
		outcome:   models.StatusResolved,
		needsUser: true,
		apply:     applyWarning,
		notice: func(c *caseFile) notice {
			s := c.reported.Standing
			if s.WarningCount >= config.MaxWarnings {
				return c.toReported(notify.KindSuspension, "notify.warning_suspended")
			}
			return c.toReported(notify.KindWarning, "notify.warning")
		},
	},
	models.ActionRemoveListing: {
		outcome:      models.StatusResolved,
		needsProduct: true,
		apply: func(ctx context.Context, e *Engine, c *caseFile) error {
			p, err := e.store.RemoveProduct(ctx, c.report.ReportedProductID)
			if err != nil {
				return err
			}
			c.product = p
			return nil
		},
		notice: func(c *caseFile) notice {
			return c.toReported(notify.KindListingRemoved, "notify.listing_removed")
		},
	},
	models.ActionSuspendUser: {
		outcome:   models.StatusResolved,
		needsUser: true,
		apply: func(ctx context.Context, e *Engine, c *caseFile) error {
			until := c.at.Add(config.DirectSuspensionDuration)
			u, err := e.store.SuspendUser(ctx, c.report.ReportedUserID, string(c.report.Reason), until)
			if err != nil {
				return err
			}
			c.reported = u
			e.cacheBan(ctx, u)
			return nil
		},
		notice: func(c *caseFile) notice {
			return c.toReported(notify.KindSuspension, "notify.suspended")
		},
	},
	models.ActionNoAction: {
		outcome: models.StatusResolved,
		notice: func(c *caseFile) notice {
			return c.toReported(notify.KindNoAction, "notify.no_action")
		},
	},
	models.ActionDismiss: {
		outcome: models.StatusDismissed,
		notice: func(c *caseFile) notice {
			n := c.toReported(notify.KindReportDismissed, "notify.report_dismissed")
			n.recipient = c.report.ReporterID
			return n
		},
	},
}

func applyWarning(ctx context.Context, e *Engine, c *caseFile) error {
	until := c.at.Add(config.WarningSuspensionWindow)
	u, err := e.store.ApplyWarning(ctx, c.report.ReportedUserID, config.MaxWarnings, config.WarningSuspensionReason, until)
	if err != nil {
		return err
	}
	c.reported = u
	if u.Standing.WarningCount >= config.MaxWarnings {
		e.cacheBan(ctx, u)
	}
	return nil
}

func (c *caseFile) toReported(kind notify.Kind, key string) notice {
	return notice{recipient: c.report.ReportedUserID, kind: kind, key: key}
}

func (e *Engine) cacheBan(ctx context.Context, u *models.User) {
	if e.bans == nil || u.Standing.SuspensionEndDate == nil {
		return
	}
	if err := e.bans.MarkBanned(ctx, u.ID, u.Standing.SuspensionReason, *u.Standing.SuspensionEndDate); err != nil {
		e.log.Warn("ban cache not updated", zap.String("user_id", u.ID), zap.Error(err))
	}
}

// deliver renders n in the recipient's language and hands it to the
// notifier. Failures end here.
func (e *Engine) deliver(ctx context.Context, c *caseFile, n notice, customMessage string) {
	lang := localization.DefaultLanguage
	if c.reported != nil && c.reported.ID == n.recipient && c.reported.LanguageCode != "" {
		lang = c.reported.LanguageCode
	} else if n.recipient != c.report.ReportedUserID {
		if u, err := e.store.GetUserByID(ctx, n.recipient); err == nil && u.LanguageCode != "" {
			lang = u.LanguageCode
		}
	}

	body := e.texts.Format(lang, n.key, c.vars(e.texts, lang))
	if customMessage != "" {
		body += "\n\n" + e.texts.Format(lang, "notify.moderator_note", map[string]string{"note": customMessage})
	}
	msg := notify.Notification{
		ID:        e.newID(),
		UserID:    n.recipient,
		Kind:      n.kind,
		Title:     e.texts.GetString(lang, "title."+string(n.kind)),
		Body:      body,
		ReportID:  c.report.ID,
		CreatedAt: c.at,
	}
	if err := e.notifier.Notify(ctx, msg); err != nil {
		e.log.Warn("notification not delivered",
			zap.String("report_id", c.report.ID),
			zap.String("user_id", n.recipient),
			zap.String("kind", string(n.kind)),
			zap.Error(err))
	}
}

// vars are the placeholder values every notice template may use.
func (c *caseFile) vars(texts *localization.Localizer, lang string) map[string]string {
	v := map[string]string{
		"reason":  texts.GetString(lang, "reason."+string(c.report.Reason)),
		"max":     strconv.Itoa(config.MaxWarnings),
		"product": c.report.ReportedProductID,
		"count":   "0",
		"until":   "",
	}
	if c.product != nil && c.product.Title != "" {
		v["product"] = c.product.Title
	}
	if c.reported != nil {
		v["count"] = strconv.Itoa(c.reported.Standing.WarningCount)
		if end := c.reported.Standing.SuspensionEndDate; end != nil {
			v["until"] = end.UTC().Format("2006-01-02 15:04 UTC")
		}
	}
	return v
}
