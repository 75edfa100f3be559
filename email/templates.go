package email

import (
	"fmt"
	"html"
)

const (
	invitationSubject    = "You've been invited to join %s"
	passwordResetSubject = "Reset your password"
	verificationSubject  = "Verify your email address"
)

// layout wraps the given body in the shared email shell.
func layout(body string) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 560px; margin: 0 auto; padding: 24px;">%s<p style="color: #6b7280; font-size: 12px; margin-top: 32px;">If you weren't expecting this email, you can safely ignore it.</p></div>`, body)
}

func button(url, label string) string {
	return fmt.Sprintf(`<p><a href="%s" style="display: inline-block; background: #111827; color: #ffffff; padding: 10px 20px; border-radius: 6px; text-decoration: none;">%s</a></p>`, html.EscapeString(url), html.EscapeString(label))
}

// Invitation builds the email sent when a user is invited to an organization.
func Invitation(orgName, inviterName, acceptURL string) Message {
	body := fmt.Sprintf(
		`<h2>Join %s</h2><p>%s has invited you to join <strong>%s</strong>.</p>%s<p>This invitation expires in 7 days.</p>`,
		html.EscapeString(orgName),
		html.EscapeString(inviterName),
		html.EscapeString(orgName),
		button(acceptURL, "Accept invitation"),
	)
	return Message{
		Subject: fmt.Sprintf(invitationSubject, orgName),
		HTML:    layout(body),
	}
}

// PasswordReset builds the email sent for a forgotten password request.
func PasswordReset(name, resetURL string) Message {
	body := fmt.Sprintf(
		`<h2>Reset your password</h2><p>Hi %s, someone requested a password reset for your account.</p>%s<p>This link expires in 1 hour.</p>`,
		html.EscapeString(name),
		button(resetURL, "Reset password"),
	)
	return Message{
		Subject: passwordResetSubject,
		HTML:    layout(body),
	}
}

// Verification builds the email sent to confirm a new account's address.
func Verification(name, verifyURL string) Message {
	body := fmt.Sprintf(
		`<h2>Verify your email</h2><p>Hi %s, confirm your email address to finish setting up your account.</p>%s<p>This link expires in 24 hours.</p>`,
		html.EscapeString(name),
		button(verifyURL, "Verify email"),
	)
	return Message{
		Subject: verificationSubject,
		HTML:    layout(body),
	}
}
