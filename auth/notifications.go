package auth

import (
	"fmt"
	"net/url"
)

// Notifier composes and delivers account emails. Handlers call it strictly
// after their transaction has committed, so a rolled-back registration never
// produces mail.
type Notifier struct {
	mailer  Mailer
	baseURL string
	logger  Logger
}

// NewNotifier builds a Notifier. baseURL is the externally reachable root
// used to build key links, e.g. "https://example.com".
func NewNotifier(mailer Mailer, baseURL string, logger Logger) *Notifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &Notifier{
		mailer:  mailer,
		baseURL: baseURL,
		logger:  logger,
	}
}

// SendVerification mails the verify-account link.
func (n *Notifier) SendVerification(email, key string) error {
	link := n.keyLink("/auth/verify-account", key)
	body := fmt.Sprintf(
		"Someone has created an account with this email address.\n\n"+
			"If you did not create this account, please ignore this message.\n\n"+
			"To verify the account, visit the link below:\n\n%s\n", link)

	return n.send("Verify your account", body, email)
}

// SendPasswordReset mails the reset-password link.
func (n *Notifier) SendPasswordReset(email, key string) error {
	link := n.keyLink("/reset-password", key)
	body := fmt.Sprintf(
		"Someone has requested a password reset for the account with this "+
			"email address.\n\nIf you did not request a password reset, please "+
			"ignore this message.\n\nTo reset the password, visit the link "+
			"below:\n\n%s\n", link)

	return n.send("Reset your password", body, email)
}

// SendLoginChange mails the confirmation link to the NEW address; the change
// only takes effect once that inbox proves ownership.
func (n *Notifier) SendLoginChange(newEmail, key string) error {
	link := n.keyLink("/auth/verify-login-change", key)
	body := fmt.Sprintf(
		"Someone has requested to use this email address as the login for "+
			"their account.\n\nIf you did not request this change, please ignore "+
			"this message.\n\nTo confirm the change, visit the link below:\n\n%s\n", link)

	return n.send("Confirm your new login email", body, newEmail)
}

func (n *Notifier) keyLink(path, key string) string {
	return fmt.Sprintf("%s%s?key=%s", n.baseURL, path, url.QueryEscape(key))
}

func (n *Notifier) send(subject, body, recipient string) error {
	if !n.mailer.IsEnabled() {
		n.logger.Warn("mailer disabled, dropping email", "subject", subject)
		return nil
	}

	if err := n.mailer.SendTo(subject, body, []string{recipient}); err != nil {
		n.logger.Error("email delivery failed", "subject", subject, "error", err)
		return err
	}

	return nil
}
