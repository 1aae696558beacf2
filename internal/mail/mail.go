// Package mail sends notification emails over SMTP.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"
	"github.com/notable-app/apiserver/internal/notify"
)

// Mailer renders and sends notification emails. It implements
// notify.Sender.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// New creates a Mailer for the given SMTP account.
func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send renders the notification into one or more emails and delivers
// them. An email-change confirmation goes to both the old and the new
// address.
func (m *Mailer) Send(ctx context.Context, n notify.Notification) error {
	switch n.Kind {
	case notify.KindOTPCode:
		return m.deliver(ctx, n.To, "Your Verification Code for Notable", otpBody(n.Code))
	case notify.KindWelcome:
		return m.deliver(ctx, n.To, "Welcome to Notable", welcomeBody(n.Name))
	case notify.KindLogin:
		return m.deliver(ctx, n.To, "Login Notification - Notable", loginBody(n.Name))
	case notify.KindPasswordReset:
		return m.deliver(ctx, n.To, "Password Reset Successful - Notable", passwordResetBody(n.Name))
	case notify.KindProfileUpdate:
		return m.deliver(ctx, n.To, "Profile Update Notification - Notable", profileUpdateBody(n.Name))
	case notify.KindEmailChange:
		if err := m.deliver(ctx, n.OldEmail, "Email Address Changed - Notable", emailChangedBody(n.Name, n.OldEmail, n.NewEmail)); err != nil {
			return err
		}
		return m.deliver(ctx, n.NewEmail, "Email Address Confirmed - Notable", emailConfirmedBody(n.Name))
	case notify.KindAccountDeletion:
		return m.deliver(ctx, n.To, "Your Account Has Been Deleted - Notable", accountDeletionBody(n.Name, n.AdminName))
	default:
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}
}

func (m *Mailer) deliver(ctx context.Context, to, subject, html string) error {
	mail := mailyak.New(fmt.Sprintf("%s:%d", m.host, m.port),
		smtp.PlainAuth("", m.username, m.password, m.host))

	mail.To(to)
	mail.From(m.from)
	mail.Subject(subject)
	mail.HTML().Set(html)

	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email to %s: %w", to, err)
		}
	}
	return nil
}

const bodyWrapper = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 5px;">%s</div>`

func wrap(inner string) string {
	return fmt.Sprintf(bodyWrapper, inner)
}

func greeting(name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("<p>Hello %s,</p>", name)
}

func otpBody(code string) string {
	return wrap(fmt.Sprintf(`
		<h2 style="color: #8B5CF6;">Notable Verification</h2>
		<p>Your verification code is:</p>
		<h1 style="font-size: 32px; letter-spacing: 5px; background-color: #f5f5f5; padding: 15px; text-align: center; border-radius: 5px;">%s</h1>
		<p>This code will expire in 5 minutes.</p>
		<p>If you did not request this code, please ignore this email.</p>
		<p>Thanks,<br>The Notable Team</p>`, code))
}

func welcomeBody(name string) string {
	return wrap(`
		<h2 style="color: #8B5CF6;">Welcome to Notable!</h2>` + greeting(name) + `
		<p>Your account has been successfully created.</p>
		<p>You can now log in and start organizing your notes.</p>
		<p>Thanks,<br>The Notable Team</p>`)
}

func loginBody(name string) string {
	return wrap(`
		<h2 style="color: #8B5CF6;">Login Notification</h2>` + greeting(name) + `
		<p>You have successfully logged in to Notable.</p>
		<p>If this wasn't you, please contact our support team immediately.</p>
		<p>Thanks,<br>The Notable Team</p>`)
}

func passwordResetBody(name string) string {
	return wrap(`
		<h2 style="color: #8B5CF6;">Password Reset Successful</h2>` + greeting(name) + `
		<p>Your password has been successfully reset.</p>
		<p>If you did not request this change, please contact our support team immediately.</p>
		<p>Thanks,<br>The Notable Team</p>`)
}

func profileUpdateBody(name string) string {
	return wrap(`
		<h2 style="color: #8B5CF6;">Profile Updated</h2>` + greeting(name) + `
		<p>Your profile information has been successfully updated.</p>
		<p>If you did not request this change, please contact our support team immediately.</p>
		<p>Thanks,<br>The Notable Team</p>`)
}

func emailChangedBody(name, oldEmail, newEmail string) string {
	return wrap(`
		<h2 style="color: #8B5CF6;">Email Address Changed</h2>` + greeting(name) + fmt.Sprintf(`
		<p>Your email address for Notable has been changed from <strong>%s</strong> to <strong>%s</strong>.</p>
		<p>If you did not request this change, please contact our support team immediately.</p>
		<p>Thanks,<br>The Notable Team</p>`, oldEmail, newEmail))
}

func emailConfirmedBody(name string) string {
	return wrap(`
		<h2 style="color: #8B5CF6;">Email Address Confirmed</h2>` + greeting(name) + `
		<p>Your new email address has been successfully confirmed.</p>
		<p>You can now log in using this email address.</p>
		<p>Thanks,<br>The Notable Team</p>`)
}

func accountDeletionBody(name, adminName string) string {
	if adminName == "" {
		adminName = "an administrator"
	}
	return wrap(`
		<h2 style="color: #8B5CF6;">Account Deleted</h2>` + greeting(name) + fmt.Sprintf(`
		<p>Your Notable account has been deleted by <strong>%s</strong>.</p>
		<p>All of your notes, tags, and account information have been removed from our system.</p>
		<p>If you believe this was done in error, please contact our support team.</p>
		<p>Thanks,<br>The Notable Team</p>`, adminName))
}
