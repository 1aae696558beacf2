// Package notify delivers user-facing email notifications. Delivery
// is fire-and-forget relative to the operation that triggered it: a
// failed send or publish is logged and never propagated, so a mail
// outage cannot roll back a committed state change.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/notable-app/apiserver/internal/mq"
)

// Kind identifies the notification template to render.
type Kind string

const (
	KindOTPCode         Kind = "otp-code"
	KindWelcome         Kind = "welcome"
	KindLogin           Kind = "login"
	KindPasswordReset   Kind = "password-reset-success"
	KindProfileUpdate   Kind = "profile-update"
	KindEmailChange     Kind = "email-change-confirmation"
	KindAccountDeletion Kind = "account-deletion"
)

// Notification is the broker- and transport-agnostic payload for one
// outbound message. KindEmailChange fans out to both the old and the
// new address.
type Notification struct {
	Kind      Kind   `json:"kind"`
	To        string `json:"to"`
	Name      string `json:"name,omitempty"`
	Code      string `json:"code,omitempty"`
	OldEmail  string `json:"old_email,omitempty"`
	NewEmail  string `json:"new_email,omitempty"`
	AdminName string `json:"admin_name,omitempty"`
}

// Sender delivers a notification to its recipient(s).
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Notifier dispatches notifications. With a queue configured it
// publishes and lets the notify-worker deliver; otherwise it sends
// directly through the Sender.
type Notifier struct {
	sender    Sender
	queue     *mq.MQ
	queueName string
	logger    *slog.Logger
}

func NewNotifier(sender Sender, queue *mq.MQ, queueName string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		sender:    sender,
		queue:     queue,
		queueName: queueName,
		logger:    logger,
	}
}

func (n *Notifier) OTPCode(ctx context.Context, to, code string) {
	n.dispatch(ctx, Notification{Kind: KindOTPCode, To: to, Code: code})
}

func (n *Notifier) Welcome(ctx context.Context, to, name string) {
	n.dispatch(ctx, Notification{Kind: KindWelcome, To: to, Name: name})
}

func (n *Notifier) LoginAlert(ctx context.Context, to, name string) {
	n.dispatch(ctx, Notification{Kind: KindLogin, To: to, Name: name})
}

func (n *Notifier) PasswordResetSuccess(ctx context.Context, to, name string) {
	n.dispatch(ctx, Notification{Kind: KindPasswordReset, To: to, Name: name})
}

func (n *Notifier) ProfileUpdated(ctx context.Context, to, name string) {
	n.dispatch(ctx, Notification{Kind: KindProfileUpdate, To: to, Name: name})
}

func (n *Notifier) EmailChanged(ctx context.Context, oldEmail, newEmail, name string) {
	n.dispatch(ctx, Notification{
		Kind:     KindEmailChange,
		To:       newEmail,
		Name:     name,
		OldEmail: oldEmail,
		NewEmail: newEmail,
	})
}

func (n *Notifier) AccountDeleted(ctx context.Context, to, name, adminName string) {
	n.dispatch(ctx, Notification{Kind: KindAccountDeletion, To: to, Name: name, AdminName: adminName})
}

func (n *Notifier) dispatch(ctx context.Context, notification Notification) {
	if n.queue != nil {
		data, err := json.Marshal(notification)
		if err != nil {
			n.logger.Error("failed to encode notification", "kind", notification.Kind, "error", err)
			return
		}
		if _, err := n.queue.Publish(ctx, n.queueName, data, map[string]string{"kind": string(notification.Kind)}); err != nil {
			n.logger.Error("failed to queue notification", "kind", notification.Kind, "to", notification.To, "error", err)
		}
		return
	}

	if n.sender == nil {
		n.logger.Warn("notification dropped, no sender configured", "kind", notification.Kind, "to", notification.To)
		return
	}
	if err := n.sender.Send(ctx, notification); err != nil {
		n.logger.Error("failed to send notification", "kind", notification.Kind, "to", notification.To, "error", err)
	}
}
