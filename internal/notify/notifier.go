// Package notify tells applicants when their application changes status.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"msme-lender-platform/internal/common/errors"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/common/metrics"
	"msme-lender-platform/internal/models"
)

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, textBody, htmlBody string) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

// StatusNotifier sends email and SMS on status changes. Either channel may
// be nil to disable it.
type StatusNotifier struct {
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

func NewStatusNotifier(email EmailSender, sms SMSSender, log logger.Logger) *StatusNotifier {
	return &StatusNotifier{
		email:  email,
		sms:    sms,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// StatusChanged sends on every enabled channel the applicant has details
// for. The first delivery error is returned after all channels were tried.
func (n *StatusNotifier) StatusChanged(ctx context.Context, app models.Application, previous models.Status) error {
	var firstErr error

	if n.email != nil && app.Email != "" {
		subject, text, htmlBody := EmailContent(app)
		msgID, err := n.email.SendEmail(ctx, app.Email, subject, text, htmlBody)
		if err != nil {
			metrics.NotificationsSent.WithLabelValues("email", "failed").Inc()
			firstErr = errors.NewNotificationSendFailedError("email", err)
		} else {
			metrics.NotificationsSent.WithLabelValues("email", "sent").Inc()
			n.logger.Info("status email sent", map[string]interface{}{
				"applicationId": app.ID,
				"messageId":     msgID,
			})
		}
	}

	if n.sms != nil && app.Phone != "" {
		msgID, err := n.sms.SendSMS(ctx, app.Phone, SMSContent(app))
		if err != nil {
			metrics.NotificationsSent.WithLabelValues("sms", "failed").Inc()
			if firstErr == nil {
				firstErr = errors.NewNotificationSendFailedError("sms", err)
			}
		} else {
			metrics.NotificationsSent.WithLabelValues("sms", "sent").Inc()
			n.logger.Info("status sms sent", map[string]interface{}{
				"applicationId": app.ID,
				"messageId":     msgID,
			})
		}
	}

	n.logger.Debug("status change notification processed", map[string]interface{}{
		"applicationId":  app.ID,
		"previousStatus": previous,
		"status":         app.Status,
	})
	return firstErr
}

// StatusLabel renders a status for people, e.g. "under review".
func StatusLabel(s models.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func EmailContent(app models.Application) (subject, text, htmlBody string) {
	label := StatusLabel(app.Status)
	subject = fmt.Sprintf("Your financing application is %s", label)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", app.ContactPerson)
	fmt.Fprintf(&b, "The financing application for %s is now %s.\n", app.CompanyName, label)
	if app.Status == models.StatusApproved && app.AssignedLender != nil {
		fmt.Fprintf(&b, "Lender: %s\n%s\n", app.AssignedLender.LenderName, app.AssignedLender.Terms)
	}
	fmt.Fprintf(&b, "\nReference: %s\n", app.ID)
	text = b.String()

	htmlBody = "<p>" + strings.ReplaceAll(html.EscapeString(strings.TrimSpace(text)), "\n", "<br>") + "</p>"
	return subject, text, htmlBody
}

func SMSContent(app models.Application) string {
	return fmt.Sprintf("%s: your financing application (ref %s) is now %s.",
		app.CompanyName, shortRef(app.ID), StatusLabel(app.Status))
}

func shortRef(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
